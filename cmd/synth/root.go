package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	synth "github.com/carbonium14/my-synth-loop-free-prog-sub000"
	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

type options struct {
	timeout             time.Duration
	minimal             bool
	synthesizeConstants bool
	width               uint
	rows                int
	cols                int
	jobs                int
	verbose             int
	stats               bool

	logger   *logrus.Logger
	registry *prometheus.Registry
	metrics  *synth.Metrics
}

func newRootCmd() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:          "synth",
		Short:        "Synthesize loop-free programs from a library of components",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.complete()
		},
	}
	o.addFlags(cmd.PersistentFlags())

	cmd.AddCommand(newListCmd(o), newBenchCmd(o), newSolveCmd(o))
	return cmd
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	def := synth.DefaultConfig()
	fs.DurationVar(&o.timeout, "timeout", 0, "time budget per problem, 0 means no limit")
	fs.BoolVar(&o.minimal, "minimal", false, "keep searching for shorter programs after the first one")
	fs.BoolVar(&o.synthesizeConstants, "synthesize-constants", false, "let the solver choose every constant")
	fs.UintVar(&o.width, "width", def.BitWidth, "bit width of every value cell")
	fs.IntVar(&o.rows, "rows", def.Rows, "row bound of every value")
	fs.IntVar(&o.cols, "cols", def.Cols, "column bound of every value")
	fs.IntVarP(&o.jobs, "jobs", "j", 1, "problems solved in parallel")
	fs.CountVarP(&o.verbose, "verbose", "v", "log more, repeat for trace output")
	fs.BoolVar(&o.stats, "stats", false, "print solver metrics when done")
}

func (o *options) complete() error {
	if o.jobs < 1 {
		return fmt.Errorf("--jobs must be positive, got %d", o.jobs)
	}
	if err := o.config().Validate(); err != nil {
		return err
	}

	o.logger = logrus.New()
	o.logger.SetOutput(os.Stderr)
	switch {
	case o.verbose >= 2:
		o.logger.SetLevel(logrus.TraceLevel)
	case o.verbose == 1:
		o.logger.SetLevel(logrus.DebugLevel)
	default:
		o.logger.SetLevel(logrus.InfoLevel)
	}

	o.registry = prometheus.NewRegistry()
	m, err := synth.NewMetrics(o.registry)
	if err != nil {
		return err
	}
	o.metrics = m
	return nil
}

func (o *options) config() synth.Config {
	return synth.Config{BitWidth: o.width, Rows: o.rows, Cols: o.cols}
}

// synthesize runs one problem on its own expression builder.
func (o *options) synthesize(name string, lib *synth.Library, spec synth.Specification, cfg synth.Config, timeout time.Duration, minimal bool) (*result, error) {
	eb := smt.NewExprBuilder()
	log := o.logger.WithField("problem", name)
	s, err := synth.New(eb, lib, spec,
		synth.WithConfig(cfg),
		synth.WithLogger(log),
		synth.WithMetrics(o.metrics),
		synth.WithTimeout(timeout),
		synth.WithMinimalPrograms(minimal),
	)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	p, err := s.Synthesize()
	r := &result{name: name, program: p, err: err, elapsed: time.Since(start), eb: eb}
	log.WithField("elapsed", r.elapsed).Info("done")
	return r, nil
}

type result struct {
	name    string
	program *synth.Program
	err     error
	elapsed time.Duration
	eb      *smt.ExprBuilder
}

func (r *result) print(w io.Writer) {
	fmt.Fprintf(w, "== %s (%s)\n", r.name, r.elapsed.Round(time.Millisecond))
	if r.err != nil {
		fmt.Fprintf(w, "error: %v\n", r.err)
		return
	}
	fmt.Fprintln(w, r.program)
}

// report prints every result and the stats, then fails if any run did not
// produce a program.
func (o *options) report(w io.Writer, what string, results []*result) error {
	failed := 0
	for _, r := range results {
		r.print(w)
		if r.err != nil {
			failed++
		}
	}
	if err := o.printStats(w, results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d %s failed", failed, len(results), what)
	}
	return nil
}

func (o *options) printStats(w io.Writer, results []*result) error {
	if !o.stats {
		return nil
	}
	fmt.Fprintln(w, "== stats")
	for _, r := range results {
		fmt.Fprintf(w, "%s:\n", r.name)
		r.eb.PrintStats(w)
	}

	families, err := o.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			sort.Strings(labels)
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%gs\n", name, h.GetSampleCount(), h.GetSampleSum())
			case m.GetSummary() != nil:
				s := m.GetSummary()
				fmt.Fprintf(w, "%s count=%d sum=%gs\n", name, s.GetSampleCount(), s.GetSampleSum())
			}
		}
	}
	return nil
}
