// Package problem loads synthesis problems from YAML files. A problem
// names the components available to the synthesizer and gives one
// input/output example.
package problem

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	synth "github.com/carbonium14/my-synth-loop-free-prog-sub000"
)

var ErrUnknownComponent = errors.New("unknown component")

// File is the on-disk form of a problem.
//
//	name: add-two
//	width: 8
//	library:
//	  - op: TfAdd
//	  - op: Const
//	    value: [[1]]
//	    count: 2
//	inputs:
//	  - [[1, 2], [3, 4]]
//	output: [[3, 4], [5, 6]]
type File struct {
	Name    string           `yaml:"name"`
	Width   uint             `yaml:"width"`
	Rows    int              `yaml:"rows"`
	Cols    int              `yaml:"cols"`
	Timeout time.Duration    `yaml:"timeout"`
	Minimal bool             `yaml:"minimal"`
	Library []ComponentEntry `yaml:"library"`
	Inputs  [][][]int64      `yaml:"inputs"`
	Output  [][]int64        `yaml:"output"`
}

// ComponentEntry names one library component. A Const entry without a
// value is a constant the synthesizer chooses.
type ComponentEntry struct {
	Op    string    `yaml:"op"`
	Value [][]int64 `yaml:"value,omitempty"`
	Count int       `yaml:"count,omitempty"`
}

// Problem is a File resolved into synthesizer inputs.
type Problem struct {
	Name    string
	Config  synth.Config
	Timeout time.Duration
	Minimal bool
	Library *synth.Library
	Spec    *ExampleSpec
}

func Load(path string) (*Problem, error) {
	f, err := os.Open(os.ExpandEnv(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return p, nil
}

func Parse(data []byte) (*Problem, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a single problem document. Unknown fields are rejected.
func Decode(r io.Reader) (*Problem, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "decoding problem")
	}
	return file.Resolve()
}

// Resolve validates f and reports every problem at once.
func (f *File) Resolve() (*Problem, error) {
	inputs := make([]synth.Matrix, len(f.Inputs))
	for i, in := range f.Inputs {
		inputs[i] = synth.NewMatrix(in)
	}
	output := synth.NewMatrix(f.Output)

	cfg := f.config(inputs, output)

	var errs error
	if err := cfg.Validate(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if output.Rows == 0 || output.Cols == 0 {
		errs = multierr.Append(errs, errors.New("output is empty"))
	}
	shapes := append(append([]synth.Matrix(nil), inputs...), output)
	for i, m := range shapes {
		if m.Rows > cfg.Rows || m.Cols > cfg.Cols {
			what := "output"
			if i < len(inputs) {
				what = fmt.Sprintf("input %d", i)
			}
			errs = multierr.Append(errs, errors.Wrapf(synth.ErrShapeOutOfBounds, "%s is %dx%d, bound is %dx%d", what, m.Rows, m.Cols, cfg.Rows, cfg.Cols))
		}
	}

	lib := synth.NewLibrary()
	for i, entry := range f.Library {
		cs, err := entry.components()
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "library entry %d", i))
			continue
		}
		for _, c := range cs {
			lib.Add(c)
		}
	}
	if lib.Len() == 0 {
		errs = multierr.Append(errs, synth.ErrNoComponents)
	}

	if errs != nil {
		return nil, errs
	}
	return &Problem{
		Name:    f.Name,
		Config:  cfg,
		Timeout: f.Timeout,
		Minimal: f.Minimal,
		Library: lib,
		Spec:    NewExampleSpec(inputs, output),
	}, nil
}

// config fills unset fields from the defaults and the example shapes.
func (f *File) config(inputs []synth.Matrix, output synth.Matrix) synth.Config {
	cfg := synth.DefaultConfig()
	if f.Width != 0 {
		cfg.BitWidth = f.Width
	}
	rows, cols := output.Rows, output.Cols
	for _, in := range inputs {
		if in.Rows > rows {
			rows = in.Rows
		}
		if in.Cols > cols {
			cols = in.Cols
		}
	}
	cfg.Rows, cfg.Cols = f.Rows, f.Cols
	if cfg.Rows == 0 {
		cfg.Rows = max(rows, 1)
	}
	if cfg.Cols == 0 {
		cfg.Cols = max(cols, 1)
	}
	return cfg
}

func (e ComponentEntry) components() ([]synth.Component, error) {
	count := e.Count
	if count == 0 {
		count = 1
	}
	if count < 0 {
		return nil, errors.Errorf("%s: negative count %d", e.Op, e.Count)
	}

	var c synth.Component
	kind, ok := synth.ParseOpKind(strings.TrimSpace(e.Op))
	switch {
	case !ok || kind == synth.OpVar:
		return nil, errors.Wrapf(ErrUnknownComponent, "%q", e.Op)
	case kind == synth.OpConst:
		if e.Value == nil {
			c = synth.Const(nil)
		} else {
			m := synth.NewMatrix(e.Value)
			c = synth.Const(&m)
		}
	default:
		if e.Value != nil {
			return nil, errors.Errorf("%s does not take a value", kind)
		}
		var err error
		if c, err = synth.ComponentFor(kind); err != nil {
			return nil, err
		}
	}

	cs := make([]synth.Component, count)
	for i := range cs {
		cs[i] = c
	}
	return cs, nil
}
