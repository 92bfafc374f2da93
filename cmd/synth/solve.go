package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/problem"
)

func newSolveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "solve <file>...",
		Short: "Synthesize the problems described by YAML files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			problems := make([]*problem.Problem, len(args))
			for i, path := range args {
				p, err := problem.Load(path)
				if err != nil {
					return err
				}
				if p.Name == "" {
					p.Name = path
				}
				o.override(cmd, p)
				problems[i] = p
			}

			results := make([]*result, len(problems))
			var g errgroup.Group
			g.SetLimit(o.jobs)
			for i, p := range problems {
				i, p := i, p
				g.Go(func() error {
					r, err := o.synthesize(p.Name, p.Library, p.Spec, p.Config, p.Timeout, p.Minimal)
					if err != nil {
						return fmt.Errorf("%s: %w", p.Name, err)
					}
					results[i] = r
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			return o.report(cmd.OutOrStdout(), "problems", results)
		},
	}
}

// override applies the flags set on the command line over the values
// read from the problem file.
func (o *options) override(cmd *cobra.Command, p *problem.Problem) {
	flags := cmd.Flags()
	if flags.Changed("width") {
		p.Config.BitWidth = o.width
	}
	if flags.Changed("rows") {
		p.Config.Rows = o.rows
	}
	if flags.Changed("cols") {
		p.Config.Cols = o.cols
	}
	if flags.Changed("timeout") {
		p.Timeout = o.timeout
	}
	if flags.Changed("minimal") {
		p.Minimal = o.minimal
	}
	if o.synthesizeConstants {
		p.Library = p.Library.FreeConstants()
	}
}
