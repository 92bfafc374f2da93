// Package bench holds named synthesis problems. Each one is a reference
// program, used as its own specification, plus the library it is built
// from.
package bench

import (
	"sort"

	"github.com/pkg/errors"

	synth "github.com/carbonium14/my-synth-loop-free-prog-sub000"
)

type Benchmark struct {
	Name        string
	Description string
	// Program computes the intended function and carries the example
	// inputs.
	Program    *synth.Program
	components []synth.Component
	consts     []synth.Matrix
}

// Library returns the components the reference program is made of. With
// synthesizeConstants every constant becomes a free one the solver has to
// find.
func (b Benchmark) Library(synthesizeConstants bool) *synth.Library {
	lib := synth.NewLibrary()
	for _, c := range b.components {
		lib.Add(c)
	}
	for i := range b.consts {
		lib.Add(synth.Const(&b.consts[i]))
	}
	if synthesizeConstants {
		return lib.FreeConstants()
	}
	return lib
}

var (
	exampleA = synth.NewMatrix([][]int64{{1, -2}, {3, 4}})
	exampleB = synth.NewMatrix([][]int64{{5, 6}, {-7, 2}})
	indices  = synth.NewMatrix([][]int64{{1}, {0}})
)

type builderFunc func(b *synth.ProgramBuilder, consts []synth.Id)

// newBenchmark builds the reference program and resolves its components.
func newBenchmark(name, description string, inputs []synth.Matrix, consts []synth.Matrix, body builderFunc) (Benchmark, error) {
	b := synth.NewProgramBuilder()
	for range inputs {
		b.Var()
	}
	ids := make([]synth.Id, len(consts))
	for i, c := range consts {
		ids[i] = b.Const(c)
	}
	body(b, ids)
	p, err := b.WithInputs(inputs...).Finish()
	if err != nil {
		return Benchmark{}, errors.Wrapf(err, "benchmark %s", name)
	}

	var components []synth.Component
	for _, inst := range p.Instructions {
		if !inst.Op.Kind.IsSemantic() {
			continue
		}
		c, err := synth.ComponentFor(inst.Op.Kind)
		if err != nil {
			return Benchmark{}, errors.Wrapf(err, "benchmark %s", name)
		}
		components = append(components, c)
	}
	return Benchmark{Name: name, Description: description, Program: p, components: components, consts: consts}, nil
}

// mustBenchmark is newBenchmark for the package-level table; a malformed
// entry stops the program at init.
func mustBenchmark(name, description string, inputs []synth.Matrix, consts []synth.Matrix, body builderFunc) Benchmark {
	b, err := newBenchmark(name, description, inputs, consts, body)
	if err != nil {
		panic(err)
	}
	return b
}

var benchmarks = []Benchmark{
	mustBenchmark("add", "elementwise sum of two matrices", []synth.Matrix{exampleA, exampleB}, nil,
		func(b *synth.ProgramBuilder, _ []synth.Id) {
			b.Add(0, 1)
		}),
	mustBenchmark("max-where", "elementwise maximum through a select", []synth.Matrix{exampleA, exampleB}, nil,
		func(b *synth.ProgramBuilder, _ []synth.Id) {
			gt := b.Op(synth.OpTfGreater, 0, 1)
			b.Where(gt, 0, 1)
		}),
	mustBenchmark("abs-diff", "absolute difference", []synth.Matrix{exampleA, exampleB}, nil,
		func(b *synth.ProgramBuilder, _ []synth.Id) {
			d := b.Sub(0, 1)
			b.Op(synth.OpTfAbs, d)
		}),
	mustBenchmark("square-sum", "row sums of squares", []synth.Matrix{exampleA}, nil,
		func(b *synth.ProgramBuilder, _ []synth.Id) {
			sq := b.Op(synth.OpTfSquare, 0)
			b.Op(synth.OpTfReduceSum1, sq)
		}),
	mustBenchmark("row-sums", "sum of every row", []synth.Matrix{exampleA}, nil,
		func(b *synth.ProgramBuilder, _ []synth.Id) {
			b.Op(synth.OpTfReduceSum1, 0)
		}),
	mustBenchmark("transpose-add", "matrix plus its transpose", []synth.Matrix{exampleA}, nil,
		func(b *synth.ProgramBuilder, _ []synth.Id) {
			tr := b.Op(synth.OpTfTranspose, 0)
			b.Add(0, tr)
		}),
	mustBenchmark("relu", "maximum with zero", []synth.Matrix{exampleA},
		[]synth.Matrix{synth.Scalar(0)},
		func(b *synth.ProgramBuilder, c []synth.Id) {
			b.Op(synth.OpTfMaximum, 0, c[0])
		}),
	mustBenchmark("add-const", "add one to every cell", []synth.Matrix{exampleA},
		[]synth.Matrix{synth.NewMatrix([][]int64{{1, 1}, {1, 1}})},
		func(b *synth.ProgramBuilder, c []synth.Id) {
			b.Add(0, c[0])
		}),
	mustBenchmark("clip", "clip into [0, 3]", []synth.Matrix{exampleA},
		[]synth.Matrix{synth.Scalar(0), synth.Scalar(3)},
		func(b *synth.ProgramBuilder, c []synth.Id) {
			b.Op(synth.OpTfClipByValue, 0, c[0], c[1])
		}),
	mustBenchmark("one-hot", "one-hot rows of a column of indices", []synth.Matrix{indices},
		[]synth.Matrix{synth.Scalar(2), synth.Scalar(1), synth.Scalar(0)},
		func(b *synth.ProgramBuilder, c []synth.Id) {
			b.Op(synth.OpTfOneHot, 0, c[0], c[1], c[2])
		}),
}

func All() []Benchmark {
	return append([]Benchmark(nil), benchmarks...)
}

func Lookup(name string) (Benchmark, bool) {
	for _, b := range benchmarks {
		if b.Name == name {
			return b, true
		}
	}
	return Benchmark{}, false
}

// Names returns the benchmark names in lexical order.
func Names() []string {
	names := make([]string, len(benchmarks))
	for i, b := range benchmarks {
		names[i] = b.Name
	}
	sort.Strings(names)
	return names
}
