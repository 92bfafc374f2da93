package synth

import "github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"

// Specification is the behavior a synthesized program must have.
type Specification interface {
	// Arity is the number of inputs.
	Arity() int
	// Inputs are the concrete example inputs, one matrix per input.
	Inputs() []Matrix
	// MakeExpression builds the constraint "output is the intended
	// function of inputs".
	MakeExpression(eb *smt.ExprBuilder, inputs []Value, output Value, cfg Config) (*smt.BoolExprPtr, error)
}

var _ Specification = (*Program)(nil)
