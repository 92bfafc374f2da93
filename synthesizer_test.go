package synth

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

var (
	exampleA = NewMatrix([][]int64{{1, 2}, {3, 4}})
	exampleB = NewMatrix([][]int64{{5, 6}, {7, 8}})
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.DebugLevel)
	return log
}

func addSpec(t *testing.T) *Program {
	t.Helper()
	b := NewProgramBuilder()
	x := b.Var()
	y := b.Var()
	b.Add(x, y)
	p, err := b.WithInputs(exampleA, exampleB).Finish()
	require.NoError(t, err)
	return p
}

func library(t *testing.T, kinds ...OpKind) *Library {
	t.Helper()
	lib := NewLibrary()
	for _, k := range kinds {
		c, err := ComponentFor(k)
		require.NoError(t, err)
		lib.Add(c)
	}
	return lib
}

func requireSameOutput(t *testing.T, eb *smt.ExprBuilder, want, got *Program, inputs []Matrix) {
	t.Helper()
	cfg := DefaultConfig()
	w, err := want.Run(eb, cfg, inputs)
	require.NoError(t, err)
	g, err := got.Run(eb, cfg, inputs)
	require.NoError(t, err)
	require.Equal(t, w.String(), g.String())
}

func TestSynthesizeAdd(t *testing.T) {
	eb := smt.NewExprBuilder()
	spec := addSpec(t)
	s, err := New(eb, library(t, OpTfAdd), spec, WithLogger(testLogger()))
	require.NoError(t, err)

	p, err := s.Synthesize()
	require.NoError(t, err)
	require.Len(t, p.Instructions, 3)
	assert.Equal(t, 2, p.Arity())
	assert.Equal(t, OpTfAdd, p.Instructions[2].Op.Kind)
	assert.ElementsMatch(t, []Id{0, 1}, p.Instructions[2].Op.Args)
	require.NoError(t, p.Validate())
	requireSameOutput(t, eb, spec, p, spec.Inputs())
}

func TestNewEmptyLibrary(t *testing.T) {
	_, err := New(smt.NewExprBuilder(), NewLibrary(), addSpec(t))
	require.ErrorIs(t, err, ErrNoComponents)
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(smt.NewExprBuilder(), library(t, OpTfAdd), addSpec(t), WithConfig(Config{}))
	require.Error(t, err)
}

func TestSynthesizeMissingComponent(t *testing.T) {
	s, err := New(smt.NewExprBuilder(), library(t, OpTfSub), addSpec(t))
	require.NoError(t, err)

	_, err = s.Synthesize()
	require.ErrorIs(t, err, ErrSynthesisUnsatisfiable)
}

func TestSynthesizeArityMismatch(t *testing.T) {
	b := NewProgramBuilder()
	b.Add(b.Var(), b.Var())
	spec, err := b.Finish()
	require.NoError(t, err)

	s, err := New(smt.NewExprBuilder(), library(t, OpTfAdd), spec)
	require.NoError(t, err)
	_, err = s.Synthesize()
	require.ErrorIs(t, err, ErrArityMismatch)
}

func TestSynthesizeMinimal(t *testing.T) {
	eb := smt.NewExprBuilder()
	spec := addSpec(t)
	s, err := New(eb, library(t, OpTfAdd, OpTfNeg, OpTfSub), spec, WithMinimalPrograms(true))
	require.NoError(t, err)

	p, err := s.Synthesize()
	require.NoError(t, err)
	require.Len(t, p.Instructions, 3)
	requireSameOutput(t, eb, spec, p, spec.Inputs())
}

func TestSynthesizeDCEProducesCanonicalProgram(t *testing.T) {
	eb := smt.NewExprBuilder()
	spec := addSpec(t)
	s, err := New(eb, library(t, OpTfAdd, OpTfNeg, OpTfSub), spec)
	require.NoError(t, err)

	p, err := s.Synthesize()
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	before := p.Clone()
	p.DCE()
	require.Equal(t, before.String(), p.String())
	requireSameOutput(t, eb, spec, p, spec.Inputs())
}

func TestSynthesizeFreeConstant(t *testing.T) {
	eb := smt.NewExprBuilder()
	three := NewMatrix([][]int64{{3, 3}, {3, 3}})

	b := NewProgramBuilder()
	x := b.Var()
	b.Add(x, b.Const(three))
	spec, err := b.WithInputs(exampleA).Finish()
	require.NoError(t, err)

	lib := library(t, OpTfAdd)
	lib.Add(Const(nil))
	s, err := New(eb, lib, spec)
	require.NoError(t, err)

	p, err := s.Synthesize()
	require.NoError(t, err)

	var consts []Matrix
	for _, inst := range p.Instructions {
		if inst.Op.Kind == OpConst {
			consts = append(consts, *inst.Op.Value)
		}
	}
	require.Len(t, consts, 1)
	// a single example can also be met by returning the expected output
	// as a constant
	switch len(p.Instructions) {
	case 3:
		assert.Equal(t, three.String(), consts[0].String())
	case 2:
		assert.Equal(t, "[[4 5] [6 7]]", consts[0].String())
	default:
		t.Fatalf("unexpected program\n%s", p)
	}
	requireSameOutput(t, eb, spec, p, spec.Inputs())
}

func TestSynthesizeFixedConstant(t *testing.T) {
	eb := smt.NewExprBuilder()
	two := NewMatrix([][]int64{{2, 2}, {2, 2}})

	b := NewProgramBuilder()
	x := b.Var()
	b.Mul(x, b.Const(two))
	spec, err := b.WithInputs(exampleA).Finish()
	require.NoError(t, err)

	lib := library(t, OpTfMul)
	lib.Add(Const(&two))
	s, err := New(eb, lib, spec)
	require.NoError(t, err)

	p, err := s.Synthesize()
	require.NoError(t, err)
	requireSameOutput(t, eb, spec, p, spec.Inputs())
}

func TestSynthesizeWrongFixedConstant(t *testing.T) {
	two := NewMatrix([][]int64{{2, 2}, {2, 2}})
	three := NewMatrix([][]int64{{3, 3}, {3, 3}})

	b := NewProgramBuilder()
	x := b.Var()
	b.Mul(x, b.Const(two))
	spec, err := b.WithInputs(exampleA).Finish()
	require.NoError(t, err)

	lib := library(t, OpTfMul)
	lib.Add(Const(&three))
	s, err := New(smt.NewExprBuilder(), lib, spec)
	require.NoError(t, err)

	_, err = s.Synthesize()
	require.ErrorIs(t, err, ErrSynthesisUnsatisfiable)
}

func TestSynthesizeRightShift(t *testing.T) {
	eb := smt.NewExprBuilder()
	one := NewMatrix([][]int64{{1, 1}, {1, 1}})
	in := NewMatrix([][]int64{{-8, 6}, {3, -1}})

	b := NewProgramBuilder()
	x := b.Var()
	b.Op(OpTfRightShift, x, b.Const(one))
	spec, err := b.WithInputs(in).Finish()
	require.NoError(t, err)

	lib := library(t, OpTfRightShift, OpTfTruncateDiv)
	lib.Add(Const(&one))
	s, err := New(eb, lib, spec, WithMinimalPrograms(true))
	require.NoError(t, err)

	p, err := s.Synthesize()
	require.NoError(t, err)
	require.Len(t, p.Instructions, 3)
	requireSameOutput(t, eb, spec, p, spec.Inputs())
}

func TestFiniteSynthesisOrdersComponents(t *testing.T) {
	spec := addSpec(t)
	s, err := New(smt.NewExprBuilder(), library(t, OpTfAdd, OpTfNeg, OpTfSub, OpTfMul), spec)
	require.NoError(t, err)

	for line := 2; line <= 5; line++ {
		a, err := s.finiteSynthesis(spec.Inputs(), line)
		require.NoError(t, err, "output on line %d", line)
		assert.Equal(t, uint(line), a.Output)
		require.Len(t, a.Results, 4)

		for k, ps := range s.locs.ranges.params {
			for i := ps.offset; i < ps.end(); i++ {
				assert.Less(t, a.Params[i], a.Results[k], "line %d: param %d of component %d", line, i, k)
			}
		}
		seen := map[uint]bool{}
		for k, r := range a.Results {
			assert.False(t, seen[r], "line %d: component %d shares result line %d", line, k, r)
			seen[r] = true
			assert.GreaterOrEqual(t, r, uint(spec.Arity()))
		}
	}
}

// knobSpec adds a symbol of its own that concrete inputs cannot fix.
type knobSpec struct {
	*Program
}

func (k knobSpec) MakeExpression(eb *smt.ExprBuilder, inputs []Value, output Value, cfg Config) (*smt.BoolExprPtr, error) {
	c, err := k.Program.MakeExpression(eb, inputs, output, cfg)
	if err != nil {
		return nil, err
	}
	knob, err := eb.Eq(eb.BVS("knob", cfg.BitWidth), eb.BVV(1, cfg.BitWidth))
	if err != nil {
		return nil, err
	}
	return eb.BoolAnd(c, knob)
}

func TestVerifyRejectsSymbolicSpecification(t *testing.T) {
	s, err := New(smt.NewExprBuilder(), library(t, OpTfAdd), knobSpec{addSpec(t)})
	require.NoError(t, err)

	_, err = s.Synthesize()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSynthesisUnsatisfiable)
	assert.Contains(t, err.Error(), "does not fold to a constant")
}

func TestSynthesizeExpiredBudget(t *testing.T) {
	s, err := New(smt.NewExprBuilder(), library(t, OpTfAdd), addSpec(t), WithTimeout(time.Nanosecond))
	require.NoError(t, err)

	_, err = s.Synthesize()
	require.ErrorIs(t, err, ErrSynthesisUnknown)
}

func TestBlockedAssignmentsAreExcluded(t *testing.T) {
	spec := addSpec(t)
	s, err := New(smt.NewExprBuilder(), library(t, OpTfAdd), spec)
	require.NoError(t, err)

	// add(%0, %1) and add(%1, %0) are the only programs
	first, err := s.finiteSynthesis(spec.Inputs(), 2)
	require.NoError(t, err)
	s.blocked = append(s.blocked, first)

	second, err := s.finiteSynthesis(spec.Inputs(), 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.Params, second.Params)
	s.blocked = append(s.blocked, second)

	_, err = s.finiteSynthesis(spec.Inputs(), 2)
	require.ErrorIs(t, err, ErrSynthesisUnsatisfiable)
}

func TestAttemptsUseFreshSymbols(t *testing.T) {
	spec := addSpec(t)
	s, err := New(smt.NewExprBuilder(), library(t, OpTfAdd), spec)
	require.NoError(t, err)

	a := s.freshValues()
	b := s.freshValues()
	assert.NotEqual(t, a.output.At(0, 0).String(), b.output.At(0, 0).String())
	assert.NotEqual(t, a.params[0].At(0, 0).String(), b.params[0].At(0, 0).String())
}

func TestSynthesizeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	s, err := New(smt.NewExprBuilder(), library(t, OpTfAdd), addSpec(t), WithMetrics(m))
	require.NoError(t, err)
	_, err = s.Synthesize()
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolverChecks.WithLabelValues("sat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProgramsFound))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RejectedPrograms))
	assert.Equal(t, 1, testutil.CollectAndCount(m.CheckDuration))

	_, err = NewMetrics(reg)
	require.Error(t, err, "registering twice must fail")
}
