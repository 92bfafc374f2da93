package smt

import (
	"fmt"
	"time"

	"github.com/aclements/go-z3/z3"
)

type z3symbol struct {
	bv   z3.BV
	size uint
}

// z3backend owns one Z3 context. The timeout is a context parameter, so a
// backend with a different budget needs a fresh context.
type z3backend struct {
	ctx    *z3.Context
	cfg    *z3.Config
	solver *z3.Solver

	lastSymbols map[string]z3symbol
}

func newZ3Backend(timeout time.Duration) *z3backend {
	cfg := z3.NewContextConfig()
	if timeout > 0 {
		ms := uint(timeout / time.Millisecond)
		if ms == 0 {
			ms = 1
		}
		cfg.SetUint("timeout", ms)
	}
	ctx := z3.NewContext(cfg)
	return &z3backend{
		ctx:    ctx,
		cfg:    cfg,
		solver: z3.NewSolver(ctx),
	}
}

func (s *z3backend) assert(query *BoolExprPtr, cache map[uintptr]z3.Value) {
	if query.Kind() == TY_BOOL_AND {
		andQuery := query.e.(*internalBoolExprNaryOp)
		for _, c := range andQuery.children {
			s.solver.Assert(s.convert(c.e, cache).(z3.Bool))
		}
		return
	}
	s.solver.Assert(s.convert(query.e, cache).(z3.Bool))
}

func (s *z3backend) check(query *BoolExprPtr) CheckResult {
	s.solver.Reset()
	s.lastSymbols = make(map[string]z3symbol)

	s.assert(query, make(map[uintptr]z3.Value))

	r, err := s.solver.Check()
	if err != nil {
		return RESULT_UNKNOWN
	}
	if r {
		return RESULT_SAT
	}
	return RESULT_UNSAT
}

func convertZ3Const(c z3.BV, size uint) (*BVConst, error) {
	v, ok := c.AsBigUnsigned()
	if !ok {
		return nil, fmt.Errorf("not a constant: %s", c.String())
	}
	return MakeBVConstFromBigint(v, size), nil
}

func (s *z3backend) model() Interpretation {
	m := s.solver.Model()
	if m == nil {
		return nil
	}

	res := make(Interpretation, len(s.lastSymbols))
	for name, sym := range s.lastSymbols {
		// completion assigns symbols the solver left unconstrained
		v := m.Eval(sym.bv, true).(z3.BV)
		c, err := convertZ3Const(v, sym.size)
		if err != nil {
			return nil
		}
		res[name] = c
	}
	return res
}

func (s *z3backend) convertBinary(knd int, lhs, rhs z3.BV) z3.BV {
	switch knd {
	case TY_AND:
		return lhs.And(rhs)
	case TY_OR:
		return lhs.Or(rhs)
	case TY_XOR:
		return lhs.Xor(rhs)
	case TY_ADD:
		return lhs.Add(rhs)
	case TY_MUL:
		return lhs.Mul(rhs)
	case TY_SHL:
		return lhs.Lsh(rhs)
	case TY_ASHR:
		return lhs.SRsh(rhs)
	case TY_SDIV:
		return lhs.SDiv(rhs)
	case TY_SREM:
		return lhs.SRem(rhs)
	}
	panic(fmt.Sprintf("invalid arithmetic kind %d", knd))
}

func (s *z3backend) convertCmp(knd int, lhs, rhs z3.BV) z3.Bool {
	switch knd {
	case TY_ULT:
		return lhs.ULT(rhs)
	case TY_ULE:
		return lhs.ULE(rhs)
	case TY_UGT:
		return lhs.UGT(rhs)
	case TY_UGE:
		return lhs.UGE(rhs)
	case TY_SLT:
		return lhs.SLT(rhs)
	case TY_SLE:
		return lhs.SLE(rhs)
	case TY_SGT:
		return lhs.SGT(rhs)
	case TY_SGE:
		return lhs.SGE(rhs)
	case TY_EQ:
		return lhs.Eq(rhs)
	}
	panic(fmt.Sprintf("invalid comparison kind %d", knd))
}

func (s *z3backend) convert(e internalExpr, cache map[uintptr]z3.Value) z3.Value {
	if v, ok := cache[e.rawPtr()]; ok {
		return v
	}

	var result z3.Value
	switch e := e.(type) {
	case *internalBVS:
		bv := s.ctx.BVConst(e.name, int(e.sz))
		s.lastSymbols[e.name] = z3symbol{bv: bv, size: e.sz}
		result = bv
	case *internalBVV:
		result = s.ctx.FromBigInt(e.Value.value, s.ctx.BVSort(int(e.size())))
	case *internalBVExprITE:
		guard := s.convert(e.cond.e, cache).(z3.Bool)
		iftrue := s.convert(e.iftrue.e, cache).(z3.BV)
		iffalse := s.convert(e.iffalse.e, cache).(z3.BV)
		result = guard.IfThenElse(iftrue, iffalse)
	case *internalBVExprUnary:
		child := s.convert(e.child.e, cache).(z3.BV)
		if e.kind() == TY_NOT {
			result = child.Not()
		} else {
			result = child.Neg()
		}
	case *internalBVExprArithmetic:
		res := s.convert(e.children[0].e, cache).(z3.BV)
		for i := 1; i < len(e.children); i++ {
			child := s.convert(e.children[i].e, cache).(z3.BV)
			res = s.convertBinary(e.kind(), res, child)
		}
		result = res
	case *internalBoolExprCmp:
		lhs := s.convert(e.lhs.e, cache).(z3.BV)
		rhs := s.convert(e.rhs.e, cache).(z3.BV)
		result = s.convertCmp(e.kind(), lhs, rhs)
	case *internalBoolVal:
		result = s.ctx.FromBool(e.Value.Value)
	case *internalBoolNot:
		child := s.convert(e.child.e, cache).(z3.Bool)
		result = child.Not()
	case *internalBoolExprNaryOp:
		children := make([]z3.Bool, 0, len(e.children)-1)
		for i := 1; i < len(e.children); i++ {
			children = append(children, s.convert(e.children[i].e, cache).(z3.Bool))
		}
		first := s.convert(e.children[0].e, cache).(z3.Bool)
		if e.kind() == TY_BOOL_AND {
			result = first.And(children...)
		} else {
			result = first.Or(children...)
		}
	default:
		panic("invalid expression type")
	}

	cache[e.rawPtr()] = result
	return result
}
