package synth

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Assignments is a decoded model: the solved immediates and the line of
// every param, every component result and the output.
type Assignments struct {
	Immediates []Matrix
	Params     []uint
	Results    []uint
	Output     uint
}

func (a *Assignments) String() string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "params=%v results=%v output=%d", a.Params, a.Results, a.Output)
	if len(a.Immediates) > 0 {
		imms := make([]string, len(a.Immediates))
		for i, m := range a.Immediates {
			imms[i] = m.String()
		}
		fmt.Fprintf(&b, " immediates=[%s]", strings.Join(imms, ", "))
	}
	return b.String()
}

// ToProgram renders the assignment as a Program ending at the output line.
// Components placed after the output line are dropped.
func (a *Assignments) ToProgram(lib *Library, arity int, inputs []Matrix) (*Program, error) {
	ranges := newComponentRanges(lib)
	if len(a.Results) != lib.Len() || len(a.Params) != ranges.numParams || len(a.Immediates) != ranges.numImms {
		return nil, errors.Wrapf(ErrMalformedProgram, "assignment does not match a library of %d components", lib.Len())
	}
	lines := arity + lib.Len()
	if int(a.Output) < arity || int(a.Output) >= lines {
		return nil, errors.Wrapf(ErrMalformedProgram, "output line %d outside [%d, %d)", a.Output, arity, lines)
	}

	atLine := make([]int, lines)
	for i := range atLine {
		atLine[i] = -1
	}
	for k, r := range a.Results {
		if int(r) < arity || int(r) >= lines {
			return nil, errors.Wrapf(ErrMalformedProgram, "component %d on line %d outside [%d, %d)", k, r, arity, lines)
		}
		if atLine[r] >= 0 {
			return nil, errors.Wrapf(ErrMalformedProgram, "components %d and %d share line %d", atLine[r], k, r)
		}
		atLine[r] = k
	}

	b := NewProgramBuilder()
	for i := 0; i < arity; i++ {
		b.Var()
	}
	components := lib.Components()
	for line := arity; line <= int(a.Output); line++ {
		k := atLine[line]
		ps, is := ranges.params[k], ranges.immediates[k]
		operands := make([]Id, 0, ps.length)
		for _, p := range a.Params[ps.offset:ps.end()] {
			if int(p) >= line {
				return nil, errors.Wrapf(ErrMalformedProgram, "component %d on line %d reads line %d", k, line, p)
			}
			operands = append(operands, Id(p))
		}
		b.push(components[k].MakeOperator(a.Immediates[is.offset:is.end()], operands))
	}
	if len(inputs) > 0 {
		b.WithInputs(inputs...)
	}
	return b.Finish()
}
