package smt_test

import (
	"testing"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

func TestBV(t *testing.T) {
	bv := smt.MakeBVConst(-1294871, 32)
	if bv.String() != "<BV32 0xffec3de9>" {
		t.Errorf("incorrect BV")
	}
}

func TestBVAdd(t *testing.T) {
	bv1 := smt.MakeBVConst(-10, 32)
	bv2 := smt.MakeBVConst(128, 32)
	bv1.Add(bv2)

	if bv1.AsULong() != 118 {
		t.Errorf("incorrect BV")
	}
}

func TestBVSub(t *testing.T) {
	bv1 := smt.MakeBVConst(-10, 32)
	bv2 := smt.MakeBVConst(128, 32)
	bv1.Sub(bv2)

	if bv1.AsLong() != -138 {
		t.Errorf("incorrect BV")
	}
}

func TestNonstandardSizes(t *testing.T) {
	bv := smt.MakeBVConst(1, 3)
	bv.Add(smt.MakeBVConst(7, 3))
	if bv.AsULong() != 0 {
		t.Errorf("incorrect BV")
	}

	bv = smt.MakeBVConst(-3, 3)
	if bv.AsULong() != 5 || bv.AsLong() != -3 {
		t.Errorf("incorrect BV %s", bv)
	}
}

func TestWrongSizes(t *testing.T) {
	err := smt.MakeBVConst(1, 3).Add(smt.MakeBVConst(1, 4))
	if err == nil {
		t.Errorf("should return an error")
	}
}

func TestEqComparesValues(t *testing.T) {
	v, err := smt.MakeBVConst(7, 8).Eq(smt.MakeBVConst(7, 8))
	if err != nil || !v.Value {
		t.Errorf("distinct constants with the same value should be equal")
	}
	v, err = smt.MakeBVConst(7, 8).NEq(smt.MakeBVConst(-7, 8))
	if err != nil || !v.Value {
		t.Errorf("7 and -7 should differ")
	}
}

func TestAShr(t *testing.T) {
	bv := smt.MakeBVConst(-1, 32)
	bv.AShr(13)

	if bv.AsLong() != -1 {
		t.Errorf("incorrect BV")
	}

	bv = smt.MakeBVConst(-2, 32)
	bv.AShr(1)

	if bv.AsLong() != -1 {
		t.Errorf("incorrect BV")
	}

	bv = smt.MakeBVConst(-128, 8)
	bv.AShr(9)
	if bv.AsLong() != -1 {
		t.Errorf("incorrect BV")
	}
}

func TestShifts(t *testing.T) {
	bv := smt.MakeBVConst(0x81, 8)
	bv.Shl(1)
	if bv.AsULong() != 0x02 {
		t.Errorf("Shl should drop the high bit, got %s", bv)
	}

	bv = smt.MakeBVConst(0x81, 8)
	bv.AShr(1)
	if bv.AsULong() != 0xc0 {
		t.Errorf("AShr should fill with the sign bit, got %s", bv)
	}
}

func TestNeg(t *testing.T) {
	bv := smt.MakeBVConst(-42, 18)

	bv.Neg()
	if bv.AsLong() != 42 {
		t.Errorf("incorrect BV")
	}
	bv.Neg()
	if bv.AsLong() != -42 {
		t.Errorf("incorrect BV")
	}
}

func TestCmp(t *testing.T) {
	bv1 := smt.MakeBVConst(-10, 32)
	bv2 := smt.MakeBVConst(-11, 32)
	bv3 := smt.MakeBVConst(1, 32)

	v, err := bv1.SGt(bv2)
	if err != nil || !v.Value {
		t.Errorf("[%s s> %s = %s] incorrect SGt result", bv1, bv2, v)
	}

	v, err = bv1.SGe(bv2)
	if err != nil || !v.Value {
		t.Errorf("[%s s>= %s = %s] incorrect SGe result", bv1, bv2, v)
	}

	v, err = bv1.SLt(bv2)
	if err != nil || v.Value {
		t.Errorf("[%s s< %s = %s] incorrect SLt result", bv1, bv2, v)
	}

	v, err = bv1.SLe(bv2)
	if err != nil || v.Value {
		t.Errorf("[%s s<= %s = %s] incorrect SLe result", bv1, bv2, v)
	}

	v, err = bv1.Ult(bv3)
	if err != nil || v.Value {
		t.Errorf("[%s u< %s = %s] incorrect Ult result", bv1, bv3, v)
	}
}

func TestDiv(t *testing.T) {
	bv1 := smt.MakeBVConst(-10, 32)
	bv2 := smt.MakeBVConst(3, 32)
	resSdiv := bv1.Copy()
	resSdiv.SDiv(bv2)
	if resSdiv.AsLong() != -3 {
		t.Error("invalid division")
	}

	resSrem := bv1.Copy()
	resSrem.SRem(bv2)
	if resSrem.AsLong() != -1 {
		t.Error("invalid remainder")
	}
}

func TestDivByZero(t *testing.T) {
	z := smt.MakeBVConst(0, 8)

	u := smt.MakeBVConst(5, 8)
	u.SDiv(z)
	if !u.HasAllBitsSet() {
		t.Errorf("sdiv of a non-negative by zero should be -1, got %s", u)
	}

	s := smt.MakeBVConst(-5, 8)
	s.SDiv(z)
	if s.AsLong() != 1 {
		t.Errorf("sdiv of a negative by zero should be 1, got %s", s)
	}

	r := smt.MakeBVConst(5, 8)
	r.SRem(z)
	if r.AsULong() != 5 {
		t.Errorf("srem by zero should keep the dividend, got %s", r)
	}
}
