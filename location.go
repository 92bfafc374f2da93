package synth

import (
	"fmt"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

// LocationVars holds one symbolic line number per input, per component
// operand ("param"), per component result and for the output, together
// with the constraints making any assignment of them a well-formed
// program. They are built once per library and arity.
type LocationVars struct {
	arity int
	lines int
	width uint

	Inputs  []*smt.BVExprPtr
	Params  []*smt.BVExprPtr
	Results []*smt.BVExprPtr
	Output  *smt.BVExprPtr

	ranges  componentRanges
	invalid map[[2]int]bool

	wellFormed *smt.BoolExprPtr
}

// locationWidth is the number of bits needed to address lines [0, lines].
func locationWidth(lines int) uint {
	return uint(bits.Len(uint(lines)))
}

func NewLocationVars(eb *smt.ExprBuilder, lib *Library, arity int) (*LocationVars, error) {
	if err := lib.Validate(); err != nil {
		return nil, err
	}
	ranges := newComponentRanges(lib)
	if err := ranges.check(); err != nil {
		return nil, err
	}

	lv := &LocationVars{
		arity:  arity,
		lines:  arity + lib.Len(),
		ranges: ranges,
	}
	lv.width = locationWidth(lv.lines)

	for i := 0; i < arity; i++ {
		lv.Inputs = append(lv.Inputs, eb.BVS(fmt.Sprintf("loc_in_%d", i), lv.width))
	}
	for i := 0; i < ranges.numParams; i++ {
		lv.Params = append(lv.Params, eb.BVS(fmt.Sprintf("loc_param_%d", i), lv.width))
	}
	for k := range ranges.params {
		lv.Results = append(lv.Results, eb.BVS(fmt.Sprintf("loc_res_%d", k), lv.width))
	}
	lv.Output = eb.BVS("loc_out", lv.width)

	lv.invalid = lv.invalidConnections()

	wf, err := lv.buildWellFormed(eb)
	if err != nil {
		return nil, errors.Wrap(err, "building well-formedness constraint")
	}
	lv.wellFormed = wf
	return lv, nil
}

func (lv *LocationVars) Width() uint {
	return lv.width
}

// Lines is the longest program the locations can describe.
func (lv *LocationVars) Lines() int {
	return lv.lines
}

func (lv *LocationVars) WellFormed() *smt.BoolExprPtr {
	return lv.wellFormed
}

func (lv *LocationVars) lit(eb *smt.ExprBuilder, n int) *smt.BVExprPtr {
	return eb.BVV(int64(n), lv.width)
}

func (lv *LocationVars) buildWellFormed(eb *smt.ExprBuilder) (*smt.BoolExprPtr, error) {
	var cs []*smt.BoolExprPtr
	add := func(c *smt.BoolExprPtr, err error) error {
		if err != nil {
			return err
		}
		cs = append(cs, c)
		return nil
	}
	lines := lv.lit(eb, lv.lines)
	first := lv.lit(eb, lv.arity)

	// inputs sit on their own line
	for i, in := range lv.Inputs {
		if err := add(eb.Eq(in, lv.lit(eb, i))); err != nil {
			return nil, err
		}
	}

	// params may reference any line, results and output only
	// component lines
	for _, p := range lv.Params {
		if err := add(eb.Ult(p, lines)); err != nil {
			return nil, err
		}
	}
	for _, l := range append(append([]*smt.BVExprPtr(nil), lv.Results...), lv.Output) {
		if err := add(eb.Ule(first, l)); err != nil {
			return nil, err
		}
		if err := add(eb.Ult(l, lines)); err != nil {
			return nil, err
		}
	}

	// consistency
	for i := 0; i < len(lv.Results); i++ {
		for j := i + 1; j < len(lv.Results); j++ {
			eq, err := eb.Eq(lv.Results[i], lv.Results[j])
			if err != nil {
				return nil, err
			}
			if err := add(eb.BoolNot(eq)); err != nil {
				return nil, err
			}
		}
	}

	// acyclicity
	for k, s := range lv.ranges.params {
		for i := s.offset; i < s.end(); i++ {
			if err := add(eb.Ult(lv.Params[i], lv.Results[k])); err != nil {
				return nil, err
			}
		}
	}

	return eb.BoolAndAll(cs...)
}

// Flat location order used by connectivity: inputs, output, params,
// results.
func (lv *LocationVars) all() []*smt.BVExprPtr {
	locs := make([]*smt.BVExprPtr, 0, len(lv.Inputs)+1+len(lv.Params)+len(lv.Results))
	locs = append(locs, lv.Inputs...)
	locs = append(locs, lv.Output)
	locs = append(locs, lv.Params...)
	locs = append(locs, lv.Results...)
	return locs
}

func (lv *LocationVars) outputIndex() int {
	return lv.arity
}

func (lv *LocationVars) paramIndex(i int) int {
	return lv.arity + 1 + i
}

func (lv *LocationVars) resultIndex(k int) int {
	return lv.arity + 1 + len(lv.Params) + k
}

// invalidConnections lists flat location pairs that can never be equal in
// a well-formed program, so connectivity skips them.
func (lv *LocationVars) invalidConnections() map[[2]int]bool {
	invalid := make(map[[2]int]bool)
	mark := func(i, j int) {
		if i > j {
			i, j = j, i
		}
		invalid[[2]int{i, j}] = true
	}

	for i := 0; i < lv.arity; i++ {
		for j := i + 1; j < lv.arity; j++ {
			mark(i, j)
		}
		mark(lv.outputIndex(), i)
	}
	for k, s := range lv.ranges.params {
		for i := s.offset; i < s.end(); i++ {
			for j := i + 1; j < s.end(); j++ {
				mark(lv.paramIndex(i), lv.paramIndex(j))
			}
			mark(lv.resultIndex(k), lv.paramIndex(i))
		}
	}
	return invalid
}

// Connectivity asserts that equal locations hold equal values. values
// must follow the flat location order.
func (lv *LocationVars) Connectivity(eb *smt.ExprBuilder, values []Value) (*smt.BoolExprPtr, error) {
	locs := lv.all()
	if len(values) != len(locs) {
		return nil, errors.Errorf("%d values for %d locations", len(values), len(locs))
	}

	var cs []*smt.BoolExprPtr
	for i := 0; i < len(locs); i++ {
		for j := i + 1; j < len(locs); j++ {
			if lv.invalid[[2]int{i, j}] {
				continue
			}
			sameLine, err := eb.Eq(locs[i], locs[j])
			if err != nil {
				return nil, err
			}
			sameValue, err := values[i].Equal(eb, values[j])
			if err != nil {
				return nil, err
			}
			c, err := eb.BoolImplies(sameLine, sameValue)
			if err != nil {
				return nil, err
			}
			cs = append(cs, c)
		}
	}
	return eb.BoolAndAll(cs...)
}
