package synth

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	err := Config{BitWidth: 0, Rows: 0, Cols: -1}.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)

	err = Config{BitWidth: 65, Rows: 1, Cols: 1}.Validate()
	assert.Len(t, multierr.Errors(err), 1)
}

func TestConfigValidateErrorsCarryStack(t *testing.T) {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	err := Config{BitWidth: 0, Rows: 0, Cols: 0}.Validate()
	for _, e := range multierr.Errors(err) {
		assert.Implements(t, (*stackTracer)(nil), e, e.Error())
	}
}

func TestMatrixHelpers(t *testing.T) {
	m := NewMatrix([][]int64{{1}, {2, 3}})
	assert.Equal(t, 2, m.Rows)
	assert.Equal(t, 2, m.Cols)
	assert.Equal(t, "[[1 0] [2 3]]", m.String())
	assert.Equal(t, "[[1]]", m.Slice(1, 1).String())
	assert.True(t, m.Equal(NewMatrix([][]int64{{1, 0}, {2, 3}})))
	assert.False(t, m.Equal(m.Slice(2, 1)))
}
