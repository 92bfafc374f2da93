package synth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

func TestProgramBuilderRejectsForwardReference(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	b.Op(OpTfAdd, x, Id(2))
	_, err := b.Finish()
	require.ErrorIs(t, err, ErrMalformedProgram)
}

func TestProgramBuilderRejectsLateVar(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	b.Op(OpTfNeg, x)
	b.Var()
	_, err := b.Finish()
	require.ErrorIs(t, err, ErrMalformedProgram)
}

func TestProgramBuilderRejectsWrongArity(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	b.Op(OpTfAdd, x)
	_, err := b.Finish()
	require.ErrorIs(t, err, ErrMalformedProgram)
}

func TestProgramBuilderRejectsVarAsOperation(t *testing.T) {
	b := NewProgramBuilder()
	b.Op(OpVar)
	_, err := b.Finish()
	require.ErrorIs(t, err, ErrMalformedProgram)
}

func TestProgramString(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	y := b.Var()
	b.Add(x, y)
	p, err := b.Finish()
	require.NoError(t, err)

	assert.Equal(t, 2, p.Arity())
	assert.Equal(t, "%0 ← Var\n%1 ← Var\n%2 ← TfAdd(%0, %1)", p.String())
}

func TestProgramStringConst(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	c := b.Const(NewMatrix([][]int64{{1, 2}, {3, 4}}))
	b.Mul(x, c)
	p, err := b.Finish()
	require.NoError(t, err)

	assert.Equal(t, "%0 ← Var\n%1 ← Const([[1 2] [3 4]])\n%2 ← TfMul(%0, %1)", p.String())
}

func TestDCE(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	y := b.Var()
	b.Const(Scalar(1))
	s := b.Add(x, y)
	b.Mul(x, x)
	b.Op(OpTfNeg, s)
	p, err := b.Finish()
	require.NoError(t, err)

	p.DCE()
	want := []Instruction{
		{Result: 0, Op: Operator{Kind: OpVar}},
		{Result: 1, Op: Operator{Kind: OpVar}},
		{Result: 2, Op: Operator{Kind: OpTfAdd, Args: []Id{0, 1}}},
		{Result: 3, Op: Operator{Kind: OpTfNeg, Args: []Id{2}}},
	}
	if diff := cmp.Diff(want, p.Instructions); diff != "" {
		t.Errorf("DCE mismatch (-want +got):\n%s", diff)
	}
	require.NoError(t, p.Validate())
}

func TestDCEKeepsVars(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	b.Var()
	b.Var()
	b.Op(OpTfNeg, x)
	p, err := b.Finish()
	require.NoError(t, err)

	p.DCE()
	require.Len(t, p.Instructions, 4)
	assert.Equal(t, 3, p.Arity())
}

func TestDCEIdempotent(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	y := b.Var()
	d := b.Sub(x, y)
	b.Mul(d, d)
	b.Op(OpTfAbs, d)
	p, err := b.Finish()
	require.NoError(t, err)

	p.DCE()
	once := p.Clone()
	p.DCE()
	if diff := cmp.Diff(once.Instructions, p.Instructions); diff != "" {
		t.Errorf("second DCE changed the program (-once +twice):\n%s", diff)
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := NewProgramBuilder()
	x := b.Var()
	b.Op(OpTfNeg, x)
	p, err := b.Finish()
	require.NoError(t, err)

	c := p.Clone()
	c.Instructions[1].Op.Args[0] = 7
	assert.Equal(t, Id(0), p.Instructions[1].Op.Args[0])
}

func runOp(t *testing.T, kind OpKind, args ...Matrix) Matrix {
	t.Helper()
	b := NewProgramBuilder()
	ids := make([]Id, len(args))
	for i := range args {
		ids[i] = b.Var()
	}
	b.Op(kind, ids...)
	p, err := b.Finish()
	require.NoError(t, err)

	out, err := p.Run(smt.NewExprBuilder(), DefaultConfig(), args)
	require.NoError(t, err)
	return out
}

func TestSemantics(t *testing.T) {
	m := func(rows ...[]int64) Matrix { return NewMatrix(rows) }
	tests := []struct {
		name string
		kind OpKind
		args []Matrix
		want Matrix
	}{
		{"add", OpTfAdd, []Matrix{m([]int64{1, 2}, []int64{3, 4}), m([]int64{5, 6}, []int64{7, 8})}, m([]int64{6, 8}, []int64{10, 12})},
		{"sub", OpTfSub, []Matrix{m([]int64{1, 2}, []int64{3, 4}), m([]int64{5, 6}, []int64{7, 8})}, m([]int64{-4, -4}, []int64{-4, -4})},
		{"mul wraps", OpTfMul, []Matrix{Scalar(16), Scalar(17)}, m([]int64{16, 0}, []int64{0, 0})},
		{"abs", OpTfAbs, []Matrix{m([]int64{-1, 2}, []int64{-3, 4})}, m([]int64{1, 2}, []int64{3, 4})},
		{"neg", OpTfNeg, []Matrix{m([]int64{1, -2})}, m([]int64{-1, 2}, []int64{0, 0})},
		{"square", OpTfSquare, []Matrix{m([]int64{3, -4})}, m([]int64{9, 16}, []int64{0, 0})},
		{"ones like", OpTfOnesLike, []Matrix{Scalar(5)}, m([]int64{1, 1}, []int64{1, 1})},
		{"zeros like", OpTfZerosLike, []Matrix{Scalar(5)}, m([]int64{0, 0}, []int64{0, 0})},
		{"logical not", OpTfLogicalNot, []Matrix{m([]int64{0, 3})}, m([]int64{1, 0}, []int64{1, 1})},
		{"transpose", OpTfTranspose, []Matrix{m([]int64{1, 2}, []int64{3, 4})}, m([]int64{1, 3}, []int64{2, 4})},
		{"reduce sum 0", OpTfReduceSum0, []Matrix{m([]int64{1, 2}, []int64{3, 4})}, m([]int64{4, 6}, []int64{0, 0})},
		{"reduce sum 1", OpTfReduceSum1, []Matrix{m([]int64{1, 2}, []int64{3, 4})}, m([]int64{3, 0}, []int64{7, 0})},
		{"cumsum 1", OpTfCumSum1, []Matrix{m([]int64{1, 2}, []int64{3, 4})}, m([]int64{1, 3}, []int64{3, 7})},
		{"maximum", OpTfMaximum, []Matrix{m([]int64{-1, 5}), m([]int64{2, -5})}, m([]int64{2, 5}, []int64{0, 0})},
		{"minimum", OpTfMinimum, []Matrix{m([]int64{-1, 5}), m([]int64{2, -5})}, m([]int64{-1, -5}, []int64{0, 0})},
		{"equal", OpTfEqual, []Matrix{m([]int64{1, 2}), m([]int64{1, 3})}, m([]int64{1, 0}, []int64{1, 1})},
		{"not equal", OpTfNotEqual, []Matrix{m([]int64{1, 2}), m([]int64{1, 3})}, m([]int64{0, 1}, []int64{0, 0})},
		{"greater is signed", OpTfGreater, []Matrix{m([]int64{1, 5}), m([]int64{-2, 5})}, m([]int64{1, 0}, []int64{0, 0})},
		{"greater equal", OpTfGreaterEqual, []Matrix{m([]int64{1, 5}), m([]int64{2, 5})}, m([]int64{0, 1}, []int64{1, 1})},
		{"bitwise and", OpTfBitwiseAnd, []Matrix{Scalar(12), Scalar(10)}, m([]int64{8, 0}, []int64{0, 0})},
		{"bitwise or", OpTfBitwiseOr, []Matrix{Scalar(12), Scalar(10)}, m([]int64{14, 0}, []int64{0, 0})},
		{"bitwise xor", OpTfBitwiseXor, []Matrix{Scalar(12), Scalar(10)}, m([]int64{6, 0}, []int64{0, 0})},
		{"truncate div", OpTfTruncateDiv, []Matrix{m([]int64{-7, 7}, []int64{9, 5}), m([]int64{2, 2}, []int64{-4, 1})}, m([]int64{-3, 3}, []int64{-2, 5})},
		{"truncate div by zero", OpTfTruncateDiv, []Matrix{m([]int64{-7, 7}), Scalar(0)}, m([]int64{1, -1}, []int64{-1, -1})},
		{"truncate mod", OpTfTruncateMod, []Matrix{m([]int64{-7, 7}), m([]int64{2, 0})}, m([]int64{-1, 7}, []int64{0, 0})},
		{"left shift", OpTfLeftShift, []Matrix{m([]int64{3, 1}), m([]int64{2, 9})}, m([]int64{12, 0}, []int64{0, 0})},
		{"right shift is arithmetic", OpTfRightShift, []Matrix{m([]int64{-8, 8}), m([]int64{1, 2})}, m([]int64{-4, 2}, []int64{0, 0})},
		{
			"where", OpTfWhere,
			[]Matrix{m([]int64{1, 0}, []int64{0, 1}), m([]int64{1, 2}, []int64{3, 4}), m([]int64{5, 6}, []int64{7, 8})},
			m([]int64{1, 6}, []int64{7, 4}),
		},
		{
			"clip", OpTfClipByValue,
			[]Matrix{m([]int64{-5, 2}, []int64{3, 9}), Scalar(0), Scalar(4)},
			m([]int64{0, 2}, []int64{3, 4}),
		},
		{
			"one hot", OpTfOneHot,
			[]Matrix{m([]int64{1}, []int64{0}), Scalar(2), Scalar(1), Scalar(0)},
			m([]int64{0, 1}, []int64{1, 0}),
		},
		{
			"one hot respects depth", OpTfOneHot,
			[]Matrix{m([]int64{1}, []int64{0}), Scalar(1), Scalar(7), Scalar(-1)},
			m([]int64{-1, -1}, []int64{7, -1}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runOp(t, tt.kind, tt.args...)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestRunRejectsOversizedInput(t *testing.T) {
	b := NewProgramBuilder()
	b.Op(OpTfNeg, b.Var())
	p, err := b.Finish()
	require.NoError(t, err)

	_, err = p.Run(smt.NewExprBuilder(), DefaultConfig(), []Matrix{Zeros(3, 1)})
	require.ErrorIs(t, err, ErrShapeOutOfBounds)
}

func TestRunArityMismatch(t *testing.T) {
	b := NewProgramBuilder()
	b.Op(OpTfNeg, b.Var())
	p, err := b.Finish()
	require.NoError(t, err)

	_, err = p.Run(smt.NewExprBuilder(), DefaultConfig(), nil)
	require.ErrorIs(t, err, ErrArityMismatch)
}

func TestProgramAsSpecification(t *testing.T) {
	eb := smt.NewExprBuilder()
	cfg := DefaultConfig()
	in := NewMatrix([][]int64{{1, 2}, {3, 4}})

	b := NewProgramBuilder()
	b.Op(OpTfNeg, b.Var())
	p, err := b.WithInputs(in).Finish()
	require.NoError(t, err)

	var spec Specification = p
	assert.Equal(t, 1, spec.Arity())
	require.Len(t, spec.Inputs(), 1)

	inValue, err := ConstValue(eb, in, cfg)
	require.NoError(t, err)

	good, err := ConstValue(eb, NewMatrix([][]int64{{-1, -2}, {-3, -4}}), cfg)
	require.NoError(t, err)
	c, err := spec.MakeExpression(eb, []Value{inValue}, good, cfg)
	require.NoError(t, err)
	ok, err := c.GetConst()
	require.NoError(t, err)
	assert.True(t, ok)

	bad, err := ConstValue(eb, in, cfg)
	require.NoError(t, err)
	c, err = spec.MakeExpression(eb, []Value{inValue}, bad, cfg)
	require.NoError(t, err)
	ok, err = c.GetConst()
	require.NoError(t, err)
	assert.False(t, ok)
}
