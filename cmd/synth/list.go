package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/internal/bench"
)

func newListCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in benchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range bench.Names() {
				b, _ := bench.Lookup(name)
				fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.Description, b.Library(o.synthesizeConstants))
			}
			return w.Flush()
		},
	}
}
