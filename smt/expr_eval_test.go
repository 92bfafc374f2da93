package smt

import (
	"testing"
)

func TestEvalPartial(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 32)
	b := eb.BVS("b", 32)

	e, _ := eb.Add(a, b)
	evaluated, err := eb.EvalBV(e, Interpretation{"a": MakeBVConst(42, 32)})
	if err != nil {
		t.Error(err)
		return
	}
	if evaluated.IsConst() {
		t.Error("b is unassigned")
		return
	}

	want, _ := eb.Add(b, eb.BVV(42, 32))
	if evaluated.Id() != want.Id() {
		t.Errorf("invalid eval %s", evaluated)
	}
}

func TestEvalFull(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 8)
	b := eb.BVS("b", 8)

	lt, _ := eb.SLt(a, b)
	neg := eb.Neg(a)
	e, _ := eb.ITE(lt, neg, b)

	interp := Interpretation{
		"a": MakeBVConst(-3, 8),
		"b": MakeBVConst(2, 8),
	}
	r, err := eb.EvalBV(e, interp)
	if err != nil {
		t.Error(err)
		return
	}
	c, err := r.GetConst()
	if err != nil || c.AsLong() != 3 {
		t.Errorf("expected 3, got %s", r)
	}

	cond, err := eb.EvalBool(lt, interp)
	if err != nil {
		t.Error(err)
		return
	}
	if v, err := cond.GetConst(); err != nil || !v {
		t.Error("-3 s< 2 should hold")
	}
}

func TestEvalSizeMismatch(t *testing.T) {
	eb := NewExprBuilder()
	a := eb.BVS("a", 8)
	if _, err := eb.EvalBV(a, Interpretation{"a": MakeBVConst(1, 16)}); err == nil {
		t.Error("should return an error")
	}
}
