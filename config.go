package synth

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Config fixes the numeric width of every value cell and the array bound
// every value is materialized at.
type Config struct {
	BitWidth uint
	Rows     int
	Cols     int
}

func DefaultConfig() Config {
	return Config{BitWidth: 8, Rows: 2, Cols: 2}
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var err error
	if c.BitWidth < 1 || c.BitWidth > 64 {
		err = multierr.Append(err, errors.Errorf("bit width %d not in [1, 64]", c.BitWidth))
	}
	if c.Rows < 1 {
		err = multierr.Append(err, errors.Errorf("rows must be positive, got %d", c.Rows))
	}
	if c.Cols < 1 {
		err = multierr.Append(err, errors.Errorf("cols must be positive, got %d", c.Cols))
	}
	return err
}

func (c Config) cells() int {
	return c.Rows * c.Cols
}
