package synth

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Library is an ordered multiset of components. A component listed twice
// may be used twice in one program.
type Library struct {
	components []Component
}

func NewLibrary(components ...Component) *Library {
	return &Library{components: append([]Component(nil), components...)}
}

// StandardLibrary holds one component per semantic operator.
func StandardLibrary() *Library {
	lib := &Library{}
	for _, k := range SemanticKinds() {
		c, _ := ComponentFor(k)
		lib.components = append(lib.components, c)
	}
	return lib
}

func (l *Library) Len() int {
	return len(l.components)
}

func (l *Library) Components() []Component {
	return l.components
}

func (l *Library) Add(c Component) {
	l.components = append(l.components, c)
}

// FreeConstants returns a copy of l in which every constant, fixed or
// not, is left for the solver to choose.
func (l *Library) FreeConstants() *Library {
	free := &Library{components: make([]Component, len(l.components))}
	for i, c := range l.components {
		if _, ok := c.(constComponent); ok {
			c = Const(nil)
		}
		free.components[i] = c
	}
	return free
}

func (l *Library) Validate() error {
	if l == nil || len(l.components) == 0 {
		return ErrNoComponents
	}
	for i, c := range l.components {
		if c == nil {
			return errors.Errorf("component %d is nil", i)
		}
	}
	return nil
}

func (l *Library) String() string {
	names := make([]string, len(l.components))
	for i, c := range l.components {
		names[i] = fmt.Sprint(c)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// span is a contiguous range of a shared value pool.
type span struct {
	offset int
	length int
}

func (s span) end() int {
	return s.offset + s.length
}

// componentRanges gives every component its share of the param and
// immediate pools, in library order.
type componentRanges struct {
	params     []span
	immediates []span
	numParams  int
	numImms    int
}

func newComponentRanges(l *Library) componentRanges {
	r := componentRanges{
		params:     make([]span, len(l.components)),
		immediates: make([]span, len(l.components)),
	}
	for i, c := range l.components {
		r.params[i] = span{offset: r.numParams, length: c.OperandArity()}
		r.immediates[i] = span{offset: r.numImms, length: c.ImmediateArity()}
		r.numParams += c.OperandArity()
		r.numImms += c.ImmediateArity()
	}
	return r
}

// check verifies the spans partition both pools.
func (r componentRanges) check() error {
	for _, pool := range []struct {
		name  string
		spans []span
		total int
	}{
		{"params", r.params, r.numParams},
		{"immediates", r.immediates, r.numImms},
	} {
		next := 0
		for i, s := range pool.spans {
			if s.offset != next || s.length < 0 {
				return errors.Errorf("%s range of component %d does not follow its predecessor", pool.name, i)
			}
			next = s.end()
		}
		if next != pool.total {
			return errors.Errorf("%s ranges cover %d of %d slots", pool.name, next, pool.total)
		}
	}
	return nil
}
