package synth

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAssignmentsToProgram(t *testing.T) {
	a := &Assignments{Params: []uint{0, 1, 2}, Results: []uint{2, 3}, Output: 3}
	p, err := a.ToProgram(addNegLibrary(t), 2, nil)
	require.NoError(t, err)

	want := []Instruction{
		{Result: 0, Op: Operator{Kind: OpVar}},
		{Result: 1, Op: Operator{Kind: OpVar}},
		{Result: 2, Op: Operator{Kind: OpTfAdd, Args: []Id{0, 1}}},
		{Result: 3, Op: Operator{Kind: OpTfNeg, Args: []Id{2}}},
	}
	if diff := cmp.Diff(want, p.Instructions); diff != "" {
		t.Errorf("decoded program mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignmentsToProgramTruncatesAtOutput(t *testing.T) {
	a := &Assignments{Params: []uint{0, 1, 0}, Results: []uint{3, 2}, Output: 2}
	p, err := a.ToProgram(addNegLibrary(t), 2, nil)
	require.NoError(t, err)
	require.Len(t, p.Instructions, 3)
	require.Equal(t, OpTfNeg, p.Instructions[2].Op.Kind)
}

func TestAssignmentsToProgramWithImmediates(t *testing.T) {
	add, err := ComponentFor(OpTfAdd)
	require.NoError(t, err)
	lib := NewLibrary(Const(nil), add)

	a := &Assignments{
		Immediates: []Matrix{Scalar(3)},
		Params:     []uint{0, 1},
		Results:    []uint{1, 2},
		Output:     2,
	}
	p, err := a.ToProgram(lib, 1, []Matrix{Scalar(1)})
	require.NoError(t, err)
	require.Equal(t, "%0 ← Var\n%1 ← Const([[3]])\n%2 ← TfAdd(%0, %1)", p.String())
	require.Len(t, p.Inputs(), 1)
}

func TestAssignmentsToProgramRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		a    Assignments
	}{
		{"cycle", Assignments{Params: []uint{0, 3, 2}, Results: []uint{2, 3}, Output: 3}},
		{"shared line", Assignments{Params: []uint{0, 1, 0}, Results: []uint{2, 2}, Output: 2}},
		{"output on input", Assignments{Params: []uint{0, 1, 2}, Results: []uint{2, 3}, Output: 1}},
		{"result out of range", Assignments{Params: []uint{0, 1, 2}, Results: []uint{2, 4}, Output: 3}},
		{"wrong shape", Assignments{Params: []uint{0, 1}, Results: []uint{2, 3}, Output: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.a.ToProgram(addNegLibrary(t), 2, nil)
			require.ErrorIs(t, err, ErrMalformedProgram)
		})
	}
}
