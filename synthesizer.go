package synth

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

// Synthesizer searches for a program built from a library that satisfies a
// specification. It is not safe for concurrent use; independent
// Synthesizers may run in parallel.
type Synthesizer struct {
	eb      *smt.ExprBuilder
	lib     *Library
	spec    Specification
	cfg     Config
	log     logrus.FieldLogger
	metrics *Metrics

	timeout  time.Duration
	deadline time.Time
	minimal  bool

	locs    *LocationVars
	attempt int
	blocked []*Assignments
}

type Option func(*Synthesizer) error

func WithConfig(cfg Config) Option {
	return func(s *Synthesizer) error {
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "invalid config")
		}
		s.cfg = cfg
		return nil
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Synthesizer) error {
		s.log = log
		return nil
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Synthesizer) error {
		s.metrics = m
		return nil
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) error {
		s.SetTimeout(d)
		return nil
	}
}

func WithMinimalPrograms(minimal bool) Option {
	return func(s *Synthesizer) error {
		s.SetMinimalPrograms(minimal)
		return nil
	}
}

var defaults = []Option{
	func(s *Synthesizer) error {
		if s.log == nil {
			s.log = logrus.StandardLogger()
		}
		return nil
	},
}

// New prepares a search. It fails with ErrNoComponents when lib is empty.
func New(eb *smt.ExprBuilder, lib *Library, spec Specification, opts ...Option) (*Synthesizer, error) {
	if lib == nil || lib.Len() == 0 {
		return nil, ErrNoComponents
	}
	s := &Synthesizer{
		eb:   eb,
		lib:  lib,
		spec: spec,
		cfg:  DefaultConfig(),
	}
	for _, opt := range append(opts, defaults...) {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	locs, err := NewLocationVars(eb, lib, spec.Arity())
	if err != nil {
		return nil, err
	}
	s.locs = locs
	return s, nil
}

// SetTimeout bounds the whole search. The budget becomes a deadline on the
// next call to Synthesize. A non-positive duration means no bound.
func (s *Synthesizer) SetTimeout(d time.Duration) {
	s.timeout = d
	s.deadline = time.Time{}
}

// SetMinimalPrograms makes Synthesize keep shrinking the program after the
// first success.
func (s *Synthesizer) SetMinimalPrograms(minimal bool) {
	s.minimal = minimal
}

func (s *Synthesizer) Config() Config {
	return s.cfg
}

// Synthesize tries decreasing program lengths starting from the longest
// one the library allows. Each success is dead-code eliminated and the
// next attempt is one line shorter than the result. The shortest program
// found is returned; if the first attempt fails its error is returned.
func (s *Synthesizer) Synthesize() (*Program, error) {
	start := time.Now()
	p, err := s.synthesize()
	outcome := "found"
	switch {
	case errors.Is(err, ErrSynthesisUnsatisfiable):
		outcome = "unsat"
	case errors.Is(err, ErrSynthesisUnknown):
		outcome = "unknown"
	case err != nil:
		outcome = "error"
	}
	s.metrics.observeSynthesis(outcome, time.Since(start))
	return p, err
}

func (s *Synthesizer) synthesize() (*Program, error) {
	if s.timeout > 0 && s.deadline.IsZero() {
		s.deadline = time.Now().Add(s.timeout)
	}

	inputs := s.spec.Inputs()
	arity := s.spec.Arity()
	if len(inputs) != arity {
		return nil, errors.Wrapf(ErrArityMismatch, "specification has arity %d but %d inputs", arity, len(inputs))
	}

	var best *Program
	for length := arity + s.lib.Len(); length > arity; {
		s.blocked = nil
		log := s.log.WithField("length", length)
		log.Debug("trying program length")

		p, err := s.synthesizeLength(inputs, length)
		if err != nil {
			log.WithError(err).Debug("no program at this length")
			if best != nil {
				return best, nil
			}
			return nil, err
		}

		p.DCE()
		log.WithField("dce-length", len(p.Instructions)).Debugf("found program\n%s", p)
		best = p
		if !s.minimal {
			break
		}
		length = len(p.Instructions) - 1
	}
	return best, nil
}

// synthesizeLength runs finite synthesis with the output pinned to the
// last line, blocking decoded programs that fail concrete verification.
func (s *Synthesizer) synthesizeLength(inputs []Matrix, length int) (*Program, error) {
	for {
		a, err := s.finiteSynthesis(inputs, length-1)
		if err != nil {
			return nil, err
		}
		p, err := a.ToProgram(s.lib, s.spec.Arity(), inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s", a)
		}
		ok, err := s.verify(p, inputs)
		if err != nil {
			return nil, err
		}
		if ok {
			s.metrics.programFound()
			return p, nil
		}
		s.log.WithField("assignment", a.String()).Warn("decoded program does not satisfy the specification, blocking it")
		s.metrics.programRejected()
		s.blocked = append(s.blocked, a)
	}
}

// verify runs p on the example inputs and checks the specification on the
// concrete result. A specification that keeps free symbols once inputs and
// output are concrete cannot be checked and is an error.
func (s *Synthesizer) verify(p *Program, inputs []Matrix) (bool, error) {
	out, err := p.Run(s.eb, s.cfg, inputs)
	if err != nil {
		return false, errors.Wrap(err, "running decoded program")
	}
	outValue, err := ConstValue(s.eb, out, s.cfg)
	if err != nil {
		return false, err
	}
	inValues, err := s.constValues(inputs)
	if err != nil {
		return false, err
	}
	c, err := s.spec.MakeExpression(s.eb, inValues, outValue, s.cfg)
	if err != nil {
		return false, err
	}
	if !c.IsConst() {
		return false, errors.Errorf("specification does not fold to a constant on concrete values: %s", c)
	}
	return c.GetConst()
}

func (s *Synthesizer) constValues(ms []Matrix) ([]Value, error) {
	values := make([]Value, len(ms))
	for i, m := range ms {
		v, err := ConstValue(s.eb, m, s.cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
		values[i] = v
	}
	return values, nil
}

// remaining returns the time left for the next check, zero meaning no
// bound.
func (s *Synthesizer) remaining() (time.Duration, error) {
	if s.timeout <= 0 {
		return 0, nil
	}
	left := time.Until(s.deadline)
	if left <= 0 {
		return 0, errors.Wrap(ErrSynthesisUnknown, "time budget exhausted")
	}
	return left, nil
}

// attemptValues are the symbolic values of one finite synthesis. Their
// symbols are named after the attempt so no two attempts share them.
type attemptValues struct {
	immediates []Value
	params     []Value
	results    []Value
	output     Value
}

func (s *Synthesizer) freshValues() attemptValues {
	s.attempt++
	ranges := s.locs.ranges
	fresh := func(kind string, n int) []Value {
		vs := make([]Value, n)
		for i := range vs {
			vs[i] = FreshValue(s.eb, fmt.Sprintf("%s_a%d_%d", kind, s.attempt, i), s.cfg)
		}
		return vs
	}
	return attemptValues{
		immediates: fresh("imm", ranges.numImms),
		params:     fresh("param", ranges.numParams),
		results:    fresh("res", s.lib.Len()),
		output:     FreshValue(s.eb, fmt.Sprintf("out_a%d", s.attempt), s.cfg),
	}
}

// libraryConstraint ties every component's result value to its semantics
// applied to its params and immediates.
func (s *Synthesizer) libraryConstraint(av attemptValues) (*smt.BoolExprPtr, error) {
	ranges := s.locs.ranges
	cs := make([]*smt.BoolExprPtr, 0, s.lib.Len())
	for k, c := range s.lib.Components() {
		ps, is := ranges.params[k], ranges.immediates[k]
		v, err := c.MakeExpression(s.eb, av.immediates[is.offset:is.end()], av.params[ps.offset:ps.end()], s.cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "component %d (%v)", k, c)
		}
		eq, err := av.results[k].Equal(s.eb, v)
		if err != nil {
			return nil, err
		}
		cs = append(cs, eq)
	}
	return s.eb.BoolAndAll(cs...)
}

// blockingConstraint excludes the exact assignment a.
func (s *Synthesizer) blockingConstraint(a *Assignments, av attemptValues) (*smt.BoolExprPtr, error) {
	var cs []*smt.BoolExprPtr
	eqLine := func(loc *smt.BVExprPtr, line uint) error {
		eq, err := s.eb.Eq(loc, s.locs.lit(s.eb, int(line)))
		if err != nil {
			return err
		}
		cs = append(cs, eq)
		return nil
	}
	for i, p := range a.Params {
		if err := eqLine(s.locs.Params[i], p); err != nil {
			return nil, err
		}
	}
	for k, r := range a.Results {
		if err := eqLine(s.locs.Results[k], r); err != nil {
			return nil, err
		}
	}
	for i, m := range a.Immediates {
		v, err := ConstValue(s.eb, m, s.cfg)
		if err != nil {
			return nil, err
		}
		eq, err := av.immediates[i].Equal(s.eb, v)
		if err != nil {
			return nil, err
		}
		cs = append(cs, eq)
	}
	same, err := s.eb.BoolAndAll(cs...)
	if err != nil {
		return nil, err
	}
	return s.eb.BoolNot(same)
}

// finiteSynthesis looks for a program whose output sits on outputLine.
func (s *Synthesizer) finiteSynthesis(inputs []Matrix, outputLine int) (*Assignments, error) {
	av := s.freshValues()
	log := s.log.WithFields(logrus.Fields{"attempt": s.attempt, "output-line": outputLine})

	inValues, err := s.constValues(inputs)
	if err != nil {
		return nil, err
	}

	constraints := []*smt.BoolExprPtr{s.locs.WellFormed()}
	add := func(name string, build func() (*smt.BoolExprPtr, error)) error {
		c, err := build()
		if err != nil {
			return errors.Wrapf(err, "building %s constraint", name)
		}
		constraints = append(constraints, c)
		return nil
	}

	if err := add("library", func() (*smt.BoolExprPtr, error) {
		return s.libraryConstraint(av)
	}); err != nil {
		return nil, err
	}

	values := make([]Value, 0, len(inValues)+1+len(av.params)+len(av.results))
	values = append(values, inValues...)
	values = append(values, av.output)
	values = append(values, av.params...)
	values = append(values, av.results...)
	if err := add("connectivity", func() (*smt.BoolExprPtr, error) {
		return s.locs.Connectivity(s.eb, values)
	}); err != nil {
		return nil, err
	}

	if err := add("specification", func() (*smt.BoolExprPtr, error) {
		return s.spec.MakeExpression(s.eb, inValues, av.output, s.cfg)
	}); err != nil {
		return nil, err
	}

	for _, a := range s.blocked {
		a := a
		if err := add("blocking", func() (*smt.BoolExprPtr, error) {
			return s.blockingConstraint(a, av)
		}); err != nil {
			return nil, err
		}
	}

	if err := add("output", func() (*smt.BoolExprPtr, error) {
		return s.eb.Eq(s.locs.Output, s.locs.lit(s.eb, outputLine))
	}); err != nil {
		return nil, err
	}

	budget, err := s.remaining()
	if err != nil {
		return nil, err
	}
	solver := smt.NewZ3Solver(s.eb, smt.WithTimeout(budget))
	for _, c := range constraints {
		solver.Add(c)
	}

	start := time.Now()
	res, err := solver.Satisfiable()
	elapsed := time.Since(start)
	s.metrics.observeCheck(res.String(), elapsed)
	log.WithFields(logrus.Fields{"result": res, "elapsed": elapsed}).Trace("solver check")
	if err != nil {
		return nil, errors.Wrap(err, "checking satisfiability")
	}

	switch res {
	case smt.RESULT_SAT:
		return s.decode(solver, av, outputLine)
	case smt.RESULT_UNSAT:
		return nil, errors.Wrapf(ErrSynthesisUnsatisfiable, "output on line %d", outputLine)
	}
	return nil, errors.Wrapf(ErrSynthesisUnknown, "output on line %d", outputLine)
}

func (s *Synthesizer) decode(solver *smt.Solver, av attemptValues, outputLine int) (*Assignments, error) {
	interp, err := solver.Model()
	if err != nil {
		return nil, err
	}
	line := func(loc *smt.BVExprPtr) (uint, error) {
		v, err := s.eb.EvalBV(loc, interp)
		if err != nil {
			return 0, err
		}
		c, err := v.GetConst()
		if err != nil {
			return 0, errors.Errorf("model does not assign %s", loc)
		}
		return uint(c.AsULong()), nil
	}

	a := &Assignments{
		Immediates: make([]Matrix, len(av.immediates)),
		Params:     make([]uint, len(s.locs.Params)),
		Results:    make([]uint, len(s.locs.Results)),
	}
	for i, imm := range av.immediates {
		m, err := imm.Concretize(s.eb, interp)
		if err != nil {
			return nil, errors.Wrapf(err, "immediate %d", i)
		}
		a.Immediates[i] = m
	}
	for i, p := range s.locs.Params {
		if a.Params[i], err = line(p); err != nil {
			return nil, err
		}
	}
	for k, r := range s.locs.Results {
		if a.Results[k], err = line(r); err != nil {
			return nil, err
		}
	}
	if a.Output, err = line(s.locs.Output); err != nil {
		return nil, err
	}
	if int(a.Output) != outputLine {
		return nil, errors.Errorf("model puts the output on line %d, expected %d", a.Output, outputLine)
	}
	return a, nil
}
