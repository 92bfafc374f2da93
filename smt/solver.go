package smt

import (
	"fmt"
	"time"
)

type CheckResult int

const (
	RESULT_ERROR   CheckResult = 0
	RESULT_SAT     CheckResult = 1
	RESULT_UNSAT   CheckResult = 2
	RESULT_UNKNOWN CheckResult = 3
)

func (r CheckResult) String() string {
	switch r {
	case RESULT_SAT:
		return "sat"
	case RESULT_UNSAT:
		return "unsat"
	case RESULT_UNKNOWN:
		return "unknown"
	}
	return "error"
}

type solverBackend interface {
	check(query *BoolExprPtr) CheckResult
	model() Interpretation
}

// Solver accumulates constraints over expressions of one ExprBuilder and
// decides them with a backend. It is not safe for concurrent use.
type Solver struct {
	eb      *ExprBuilder
	backend solverBackend
	timeout time.Duration

	constraints map[uintptr]*BoolExprPtr
	order       []*BoolExprPtr
}

type SolverOption func(*Solver)

// WithTimeout bounds every check of the solver. A non-positive duration
// means no bound.
func WithTimeout(d time.Duration) SolverOption {
	return func(s *Solver) {
		s.timeout = d
	}
}

func NewZ3Solver(eb *ExprBuilder, opts ...SolverOption) *Solver {
	s := &Solver{
		eb:          eb,
		constraints: make(map[uintptr]*BoolExprPtr),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.backend = newZ3Backend(s.timeout)
	return s
}

// Add asserts constraint. Trivially true and repeated constraints are
// dropped.
func (s *Solver) Add(constraint *BoolExprPtr) {
	if _, ok := s.constraints[constraint.Id()]; ok {
		return
	}
	if constraint.IsConst() {
		if c, _ := constraint.GetConst(); c {
			return
		}
	}
	s.constraints[constraint.Id()] = constraint
	s.order = append(s.order, constraint)
}

// Pi returns the conjunction of every asserted constraint.
func (s *Solver) Pi() (*BoolExprPtr, error) {
	return s.eb.BoolAndAll(s.order...)
}

func (s *Solver) Satisfiable() (CheckResult, error) {
	pi, err := s.Pi()
	if err != nil {
		return RESULT_ERROR, err
	}
	return s.backend.check(pi), nil
}

// Model returns the assignment found by the last satisfiable check, keyed
// by symbol name. Every symbol of the last query is assigned.
func (s *Solver) Model() (Interpretation, error) {
	m := s.backend.model()
	if m == nil {
		return nil, fmt.Errorf("no model available")
	}
	return m, nil
}
