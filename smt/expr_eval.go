package smt

import "fmt"

// Interpretation assigns concrete values to symbols by name.
type Interpretation map[string]*BVConst

type bvBinaryFn func(eb *ExprBuilder, lhs, rhs *BVExprPtr) (*BVExprPtr, error)
type bvCmpFn func(eb *ExprBuilder, lhs, rhs *BVExprPtr) (*BoolExprPtr, error)

var bvBinaryOps = map[int]bvBinaryFn{
	TY_AND:  (*ExprBuilder).And,
	TY_OR:   (*ExprBuilder).Or,
	TY_XOR:  (*ExprBuilder).Xor,
	TY_ADD:  (*ExprBuilder).Add,
	TY_MUL:  (*ExprBuilder).Mul,
	TY_SHL:  (*ExprBuilder).Shl,
	TY_ASHR: (*ExprBuilder).AShr,
	TY_SDIV: (*ExprBuilder).SDiv,
	TY_SREM: (*ExprBuilder).SRem,
}

var bvCmpOps = map[int]bvCmpFn{
	TY_ULT: (*ExprBuilder).Ult,
	TY_ULE: (*ExprBuilder).Ule,
	TY_UGT: (*ExprBuilder).UGt,
	TY_UGE: (*ExprBuilder).UGe,
	TY_SLT: (*ExprBuilder).SLt,
	TY_SLE: (*ExprBuilder).SLe,
	TY_SGT: (*ExprBuilder).SGt,
	TY_SGE: (*ExprBuilder).SGe,
	TY_EQ:  (*ExprBuilder).Eq,
}

// EvalBV substitutes interp into e and simplifies. Symbols missing from
// interp are left in place, so the result is constant only when every
// involved input is assigned.
func (eb *ExprBuilder) EvalBV(e *BVExprPtr, interp Interpretation) (*BVExprPtr, error) {
	ev := evaluator{eb: eb, interp: interp, bvs: map[uintptr]*BVExprPtr{}, bools: map[uintptr]*BoolExprPtr{}}
	return ev.bv(e)
}

// EvalBool is EvalBV for boolean expressions.
func (eb *ExprBuilder) EvalBool(e *BoolExprPtr, interp Interpretation) (*BoolExprPtr, error) {
	ev := evaluator{eb: eb, interp: interp, bvs: map[uintptr]*BVExprPtr{}, bools: map[uintptr]*BoolExprPtr{}}
	return ev.bool(e)
}

type evaluator struct {
	eb     *ExprBuilder
	interp Interpretation
	bvs    map[uintptr]*BVExprPtr
	bools  map[uintptr]*BoolExprPtr
}

func (ev *evaluator) bv(eptr *BVExprPtr) (*BVExprPtr, error) {
	if r, ok := ev.bvs[eptr.Id()]; ok {
		return r, nil
	}

	var result *BVExprPtr
	var err error
	switch e := eptr.e.(type) {
	case *internalBVS:
		c, ok := ev.interp[e.name]
		if !ok {
			return eptr, nil
		}
		if c.Size != e.sz {
			return nil, fmt.Errorf("EvalBV(): symbol %s has size %d, got %d", e.name, e.sz, c.Size)
		}
		result = ev.eb.BVVFromConst(c)
	case *internalBVV:
		return eptr, nil
	case *internalBVExprUnary:
		child, err := ev.bv(e.child)
		if err != nil {
			return nil, err
		}
		if e.kind() == TY_NOT {
			result = ev.eb.Not(child)
		} else {
			result = ev.eb.Neg(child)
		}
	case *internalBVExprArithmetic:
		op, ok := bvBinaryOps[e.kind()]
		if !ok {
			return nil, fmt.Errorf("EvalBV(): unexpected kind %d", e.kind())
		}
		result, err = ev.bv(e.children[0])
		for i := 1; err == nil && i < len(e.children); i++ {
			var child *BVExprPtr
			child, err = ev.bv(e.children[i])
			if err == nil {
				result, err = op(ev.eb, result, child)
			}
		}
	case *internalBVExprITE:
		var guard *BoolExprPtr
		var iftrue, iffalse *BVExprPtr
		if guard, err = ev.bool(e.cond); err != nil {
			return nil, err
		}
		if iftrue, err = ev.bv(e.iftrue); err != nil {
			return nil, err
		}
		if iffalse, err = ev.bv(e.iffalse); err != nil {
			return nil, err
		}
		result, err = ev.eb.ITE(guard, iftrue, iffalse)
	default:
		return nil, fmt.Errorf("EvalBV(): unexpected kind %d", eptr.Kind())
	}
	if err != nil {
		return nil, err
	}

	ev.bvs[eptr.Id()] = result
	return result, nil
}

func (ev *evaluator) bool(eptr *BoolExprPtr) (*BoolExprPtr, error) {
	if r, ok := ev.bools[eptr.Id()]; ok {
		return r, nil
	}

	var result *BoolExprPtr
	var err error
	switch e := eptr.e.(type) {
	case *internalBoolVal:
		return eptr, nil
	case *internalBoolExprCmp:
		op, ok := bvCmpOps[e.kind()]
		if !ok {
			return nil, fmt.Errorf("EvalBool(): unexpected kind %d", e.kind())
		}
		var lhs, rhs *BVExprPtr
		if lhs, err = ev.bv(e.lhs); err != nil {
			return nil, err
		}
		if rhs, err = ev.bv(e.rhs); err != nil {
			return nil, err
		}
		result, err = op(ev.eb, lhs, rhs)
	case *internalBoolNot:
		var child *BoolExprPtr
		if child, err = ev.bool(e.child); err != nil {
			return nil, err
		}
		result, err = ev.eb.BoolNot(child)
	case *internalBoolExprNaryOp:
		children := make([]*BoolExprPtr, 0, len(e.children))
		for _, c := range e.children {
			child, err := ev.bool(c)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if e.kind() == TY_BOOL_AND {
			result, err = ev.eb.BoolAndAll(children...)
		} else {
			result, err = ev.eb.BoolOrAll(children...)
		}
	default:
		return nil, fmt.Errorf("EvalBool(): unexpected kind %d", eptr.Kind())
	}
	if err != nil {
		return nil, err
	}

	ev.bools[eptr.Id()] = result
	return result, nil
}
