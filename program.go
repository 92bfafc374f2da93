package synth

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

// Program is a straight-line sequence of instructions. It starts with one
// Var per input and its value is the value of the last instruction.
type Program struct {
	Instructions []Instruction
	inputs       []Matrix
}

// Arity is the length of the leading run of Var instructions.
func (p *Program) Arity() int {
	n := 0
	for _, inst := range p.Instructions {
		if inst.Op.Kind != OpVar {
			break
		}
		n++
	}
	return n
}

// Inputs returns the example inputs the program was built with.
func (p *Program) Inputs() []Matrix {
	return p.inputs
}

func (p *Program) String() string {
	lines := make([]string, len(p.Instructions))
	for i, inst := range p.Instructions {
		lines[i] = inst.String()
	}
	return strings.Join(lines, "\n")
}

// Validate checks the program invariants: ids are dense and in order,
// Vars only appear in the leading run, operands reference earlier ids and
// every operator has its arity.
func (p *Program) Validate() error {
	if len(p.Instructions) == 0 {
		return errors.Wrap(ErrMalformedProgram, "empty program")
	}
	arity := p.Arity()
	for i, inst := range p.Instructions {
		if inst.Result != Id(i) {
			return errors.Wrapf(ErrMalformedProgram, "instruction %d has id %s", i, inst.Result)
		}
		if inst.Op.Kind == OpVar && i >= arity {
			return errors.Wrapf(ErrMalformedProgram, "%s: Var after the input prefix", inst.Result)
		}
		if inst.Op.Kind == OpConst && inst.Op.Value == nil {
			return errors.Wrapf(ErrMalformedProgram, "%s: Const without a value", inst.Result)
		}
		if len(inst.Op.Args) != inst.Op.Arity() {
			return errors.Wrapf(ErrMalformedProgram, "%s: %s takes %d operands, got %d", inst.Result, inst.Op.Kind, inst.Op.Arity(), len(inst.Op.Args))
		}
		for _, a := range inst.Op.Args {
			if a >= inst.Result {
				return errors.Wrapf(ErrMalformedProgram, "%s: operand %s is not defined before use", inst.Result, a)
			}
		}
	}
	if len(p.inputs) != 0 && len(p.inputs) != arity {
		return errors.Wrapf(ErrArityMismatch, "%d inputs for %d Vars", len(p.inputs), arity)
	}
	return nil
}

// DCE removes the instructions the last one does not depend on and
// renumbers the rest densely. Vars are always kept. DCE is idempotent.
func (p *Program) DCE() {
	n := len(p.Instructions)
	if n == 0 {
		return
	}
	live := make([]bool, n)
	live[n-1] = true
	for i := n - 1; i >= 0; i-- {
		inst := p.Instructions[i]
		if inst.Op.Kind == OpVar {
			live[i] = true
		}
		if !live[i] {
			continue
		}
		for _, a := range inst.Op.Args {
			live[a] = true
		}
	}

	renumber := make([]Id, n)
	kept := p.Instructions[:0]
	for i, inst := range p.Instructions {
		if !live[i] {
			continue
		}
		renumber[i] = Id(len(kept))
		kept = append(kept, Instruction{
			Result: Id(len(kept)),
			Op:     inst.Op.MapOperands(func(a Id) Id { return renumber[a] }),
		})
	}
	p.Instructions = kept
}

// Clone returns a deep copy of p.
func (p *Program) Clone() *Program {
	c := &Program{
		Instructions: make([]Instruction, len(p.Instructions)),
		inputs:       append([]Matrix(nil), p.inputs...),
	}
	for i, inst := range p.Instructions {
		c.Instructions[i] = Instruction{Result: inst.Result, Op: inst.Op.MapOperands(func(a Id) Id { return a })}
	}
	return c
}

// evaluate builds the value of every instruction from the input values and
// returns the value of the last one.
func (p *Program) evaluate(eb *smt.ExprBuilder, inputs []Value, cfg Config) (Value, error) {
	if len(inputs) != p.Arity() {
		return Value{}, errors.Wrapf(ErrArityMismatch, "program takes %d inputs, got %d", p.Arity(), len(inputs))
	}
	values := make([]Value, len(p.Instructions))
	for i, inst := range p.Instructions {
		switch inst.Op.Kind {
		case OpVar:
			values[i] = inputs[i]
		case OpConst:
			v, err := ConstValue(eb, *inst.Op.Value, cfg)
			if err != nil {
				return Value{}, errors.Wrapf(err, "%s", inst.Result)
			}
			values[i] = v
		default:
			comp, err := ComponentFor(inst.Op.Kind)
			if err != nil {
				return Value{}, err
			}
			operands := make([]Value, len(inst.Op.Args))
			for j, a := range inst.Op.Args {
				operands[j] = values[a]
			}
			v, err := comp.MakeExpression(eb, nil, operands, cfg)
			if err != nil {
				return Value{}, errors.Wrapf(err, "%s", inst.Result)
			}
			values[i] = v
		}
	}
	return values[len(values)-1], nil
}

// Run executes p on concrete inputs. The result is materialized at the
// full bound of cfg.
func (p *Program) Run(eb *smt.ExprBuilder, cfg Config, inputs []Matrix) (Matrix, error) {
	values := make([]Value, len(inputs))
	for i, in := range inputs {
		v, err := ConstValue(eb, in, cfg)
		if err != nil {
			return Matrix{}, errors.Wrapf(err, "input %d", i)
		}
		values[i] = v
	}
	out, err := p.evaluate(eb, values, cfg)
	if err != nil {
		return Matrix{}, err
	}
	return out.Matrix()
}

// MakeExpression lets a Program serve as a Specification: the output must
// equal the program's value over the full bound.
func (p *Program) MakeExpression(eb *smt.ExprBuilder, inputs []Value, output Value, cfg Config) (*smt.BoolExprPtr, error) {
	v, err := p.evaluate(eb, inputs, cfg)
	if err != nil {
		return nil, err
	}
	return output.Equal(eb, v)
}

// ProgramBuilder assigns ids in construction order. The first error is
// kept and reported by Finish.
type ProgramBuilder struct {
	program Program
	err     error
}

func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{}
}

func (b *ProgramBuilder) push(op Operator) Id {
	id := Id(len(b.program.Instructions))
	b.program.Instructions = append(b.program.Instructions, Instruction{Result: id, Op: op})
	return id
}

func (b *ProgramBuilder) Var() Id {
	return b.push(Operator{Kind: OpVar})
}

func (b *ProgramBuilder) Const(m Matrix) Id {
	v := Matrix{Rows: m.Rows, Cols: m.Cols, Data: append([]int64(nil), m.Data...)}
	return b.push(Operator{Kind: OpConst, Value: &v})
}

func (b *ProgramBuilder) Op(kind OpKind, args ...Id) Id {
	if b.err == nil && !kind.IsSemantic() {
		b.err = errors.Wrapf(ErrMalformedProgram, "%s is not an operation", kind)
	}
	return b.push(Operator{Kind: kind, Args: append([]Id(nil), args...)})
}

func (b *ProgramBuilder) Add(x, y Id) Id {
	return b.Op(OpTfAdd, x, y)
}

func (b *ProgramBuilder) Sub(x, y Id) Id {
	return b.Op(OpTfSub, x, y)
}

func (b *ProgramBuilder) Mul(x, y Id) Id {
	return b.Op(OpTfMul, x, y)
}

func (b *ProgramBuilder) Where(cond, x, y Id) Id {
	return b.Op(OpTfWhere, cond, x, y)
}

// WithInputs attaches the example inputs used when the program serves as a
// Specification.
func (b *ProgramBuilder) WithInputs(inputs ...Matrix) *ProgramBuilder {
	b.program.inputs = append([]Matrix(nil), inputs...)
	return b
}

func (b *ProgramBuilder) Finish() (*Program, error) {
	if b.err != nil {
		return nil, b.err
	}
	p := b.program
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
