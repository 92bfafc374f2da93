package bench

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	synth "github.com/carbonium14/my-synth-loop-free-prog-sub000"
	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

func TestBenchmarksAreWellFormed(t *testing.T) {
	eb := smt.NewExprBuilder()
	cfg := synth.DefaultConfig()
	for _, b := range All() {
		t.Run(b.Name, func(t *testing.T) {
			require.NoError(t, b.Program.Validate())
			assert.Equal(t, b.Program.Arity(), len(b.Program.Inputs()))

			_, err := b.Program.Run(eb, cfg, b.Program.Inputs())
			require.NoError(t, err)

			lines := len(b.Program.Instructions) - b.Program.Arity()
			assert.Equal(t, lines, b.Library(false).Len())
			assert.Equal(t, lines, b.Library(true).Len())
		})
	}
}

func TestLookup(t *testing.T) {
	b, ok := Lookup("relu")
	require.True(t, ok)
	assert.Equal(t, "[TfMaximum, Const([[0]])]", b.Library(false).String())
	assert.Equal(t, "[TfMaximum, Const(?)]", b.Library(true).String())

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	require.Len(t, names, len(All()))
	assert.IsNonDecreasing(t, names)
}

func TestReferenceOutputs(t *testing.T) {
	tests := map[string]string{
		"add":           "[[6 4] [-4 6]]",
		"max-where":     "[[5 6] [3 4]]",
		"abs-diff":      "[[4 8] [10 2]]",
		"square-sum":    "[[5 0] [25 0]]",
		"row-sums":      "[[-1 0] [7 0]]",
		"transpose-add": "[[2 1] [1 8]]",
		"relu":          "[[1 0] [3 4]]",
		"add-const":     "[[2 -1] [4 5]]",
		"clip":          "[[1 0] [3 3]]",
		"one-hot":       "[[0 1] [1 0]]",
	}
	eb := smt.NewExprBuilder()
	for name, want := range tests {
		b, ok := Lookup(name)
		require.True(t, ok, name)
		out, err := b.Program.Run(eb, synth.DefaultConfig(), b.Program.Inputs())
		require.NoError(t, err, name)
		assert.Equal(t, want, out.String(), name)
	}
}

func TestNewBenchmarkRejectsMalformedProgram(t *testing.T) {
	_, err := newBenchmark("bad", "operand from the future", []synth.Matrix{exampleA}, nil,
		func(b *synth.ProgramBuilder, _ []synth.Id) {
			b.Add(0, 5)
		})
	require.ErrorIs(t, err, synth.ErrMalformedProgram)
	assert.Contains(t, err.Error(), "benchmark bad")
}

func TestSynthesizeBenchmarks(t *testing.T) {
	tests := []struct {
		name                string
		synthesizeConstants bool
	}{
		{"add", false},
		{"row-sums", false},
		{"abs-diff", false},
		{"relu", false},
		{"add", true},
		{"relu", true},
		{"add-const", true},
		{"clip", true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/free-constants=%t", tt.name, tt.synthesizeConstants), func(t *testing.T) {
			b, ok := Lookup(tt.name)
			require.True(t, ok)

			eb := smt.NewExprBuilder()
			lib := b.Library(tt.synthesizeConstants)
			s, err := synth.New(eb, lib, b.Program, synth.WithMinimalPrograms(true))
			require.NoError(t, err)
			p, err := s.Synthesize()
			require.NoError(t, err, "library %s", lib)
			require.NoError(t, p.Validate())

			cfg := synth.DefaultConfig()
			want, err := b.Program.Run(eb, cfg, b.Program.Inputs())
			require.NoError(t, err)
			got, err := p.Run(eb, cfg, b.Program.Inputs())
			require.NoError(t, err)
			assert.Equal(t, want.String(), got.String())
			assert.LessOrEqual(t, len(p.Instructions), len(b.Program.Instructions))
		})
	}
}
