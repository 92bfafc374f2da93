package problem

import (
	"github.com/pkg/errors"

	synth "github.com/carbonium14/my-synth-loop-free-prog-sub000"
	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

// ExampleSpec is a single input/output example. Only the cells inside the
// expected output's own rectangle are constrained; padding is free.
type ExampleSpec struct {
	inputs []synth.Matrix
	output synth.Matrix
}

var _ synth.Specification = (*ExampleSpec)(nil)

func NewExampleSpec(inputs []synth.Matrix, output synth.Matrix) *ExampleSpec {
	return &ExampleSpec{
		inputs: append([]synth.Matrix(nil), inputs...),
		output: output,
	}
}

func (s *ExampleSpec) Arity() int {
	return len(s.inputs)
}

func (s *ExampleSpec) Inputs() []synth.Matrix {
	return s.inputs
}

func (s *ExampleSpec) Output() synth.Matrix {
	return s.output
}

func (s *ExampleSpec) MakeExpression(eb *smt.ExprBuilder, inputs []synth.Value, output synth.Value, cfg synth.Config) (*smt.BoolExprPtr, error) {
	if s.output.Rows > output.Rows || s.output.Cols > output.Cols {
		return nil, errors.Wrapf(synth.ErrShapeOutOfBounds, "expected output is %dx%d", s.output.Rows, s.output.Cols)
	}
	eqs := make([]*smt.BoolExprPtr, 0, len(s.output.Data))
	for r := 0; r < s.output.Rows; r++ {
		for c := 0; c < s.output.Cols; c++ {
			eq, err := eb.Eq(output.At(r, c), eb.BVV(s.output.At(r, c), cfg.BitWidth))
			if err != nil {
				return nil, err
			}
			eqs = append(eqs, eq)
		}
	}
	return eb.BoolAndAll(eqs...)
}
