package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/internal/bench"
)

func newBenchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bench [name...]",
		Short: "Synthesize built-in benchmarks, all of them when no name is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = bench.Names()
			}
			benchmarks := make([]bench.Benchmark, len(names))
			for i, name := range names {
				b, ok := bench.Lookup(name)
				if !ok {
					return fmt.Errorf("unknown benchmark %q, see %q", name, "synth list")
				}
				benchmarks[i] = b
			}

			results := make([]*result, len(benchmarks))
			var g errgroup.Group
			g.SetLimit(o.jobs)
			for i, b := range benchmarks {
				i, b := i, b
				g.Go(func() error {
					r, err := o.synthesize(b.Name, b.Library(o.synthesizeConstants), b.Program, o.config(), o.timeout, o.minimal)
					if err != nil {
						return fmt.Errorf("%s: %w", b.Name, err)
					}
					results[i] = r
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return o.report(cmd.OutOrStdout(), "benchmarks", results)
		},
	}
}
