package synth

import (
	"github.com/pkg/errors"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

// Component is one operation the synthesizer may place on a program line.
//
// MakeOperator is the decoding direction: it renders resolved operand
// lines and solved immediates as an Operator. MakeExpression is the
// encoding direction: it builds the symbolic output value from symbolic
// (or concrete) immediates and operands.
type Component interface {
	OperandArity() int
	ImmediateArity() int
	MakeOperator(immediates []Matrix, operands []Id) Operator
	MakeExpression(eb *smt.ExprBuilder, immediates, operands []Value, cfg Config) (Value, error)
}

type constComponent struct {
	value *Matrix
}

// Const returns a constant component. A nil value leaves the constant free
// for the solver to choose through one immediate.
func Const(value *Matrix) Component {
	if value == nil {
		return constComponent{}
	}
	v := Matrix{Rows: value.Rows, Cols: value.Cols, Data: append([]int64(nil), value.Data...)}
	return constComponent{value: &v}
}

func (c constComponent) OperandArity() int {
	return 0
}

func (c constComponent) ImmediateArity() int {
	if c.value != nil {
		return 0
	}
	return 1
}

func (c constComponent) MakeOperator(immediates []Matrix, operands []Id) Operator {
	if c.value != nil {
		return Operator{Kind: OpConst, Value: c.value}
	}
	imm := immediates[0]
	return Operator{Kind: OpConst, Value: &imm}
}

func (c constComponent) MakeExpression(eb *smt.ExprBuilder, immediates, operands []Value, cfg Config) (Value, error) {
	if c.value != nil {
		return ConstValue(eb, *c.value, cfg)
	}
	if len(immediates) != 1 {
		return Value{}, errors.Wrapf(ErrArityMismatch, "free Const takes 1 immediate, got %d", len(immediates))
	}
	return immediates[0], nil
}

func (c constComponent) String() string {
	if c.value == nil {
		return "Const(?)"
	}
	return "Const(" + c.value.String() + ")"
}

type opComponent struct {
	kind OpKind
}

// ComponentFor returns the component computing kind.
func ComponentFor(kind OpKind) (Component, error) {
	if !kind.IsSemantic() {
		return nil, errors.Errorf("%s has no component", kind)
	}
	return opComponent{kind: kind}, nil
}

func (c opComponent) OperandArity() int {
	return c.kind.Arity()
}

func (c opComponent) ImmediateArity() int {
	return 0
}

func (c opComponent) MakeOperator(immediates []Matrix, operands []Id) Operator {
	return Operator{Kind: c.kind, Args: append([]Id(nil), operands...)}
}

func (c opComponent) MakeExpression(eb *smt.ExprBuilder, immediates, operands []Value, cfg Config) (Value, error) {
	if len(operands) != c.kind.Arity() {
		return Value{}, errors.Wrapf(ErrArityMismatch, "%s takes %d operands, got %d", c.kind, c.kind.Arity(), len(operands))
	}
	sem := semantics[c.kind]
	b := &cellBuilder{eb: eb, cfg: cfg}
	v := sem(b, operands)
	if b.err != nil {
		return Value{}, errors.Wrapf(b.err, "building %s", c.kind)
	}
	return v, nil
}

func (c opComponent) String() string {
	return c.kind.String()
}
