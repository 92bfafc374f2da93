package smt

import (
	"fmt"
	"math/big"
)

var zero = big.NewInt(0)
var one = big.NewInt(1)

// BVConst is a concrete bit-vector of a fixed size. Operations mutate the
// receiver and keep the value masked to Size bits.
type BVConst struct {
	Size  uint
	mask  *big.Int
	value *big.Int
}

func makeMask(size uint) *big.Int {
	m := new(big.Int).Lsh(one, size)
	return m.Sub(m, one)
}

func MakeBVConst(value int64, size uint) *BVConst {
	return MakeBVConstFromBigint(big.NewInt(value), size)
}

// MakeBVConstFromBigint wraps value into size bits using two's complement
// for negative inputs. The argument is not retained.
func MakeBVConstFromBigint(value *big.Int, size uint) *BVConst {
	if size == 0 {
		return nil
	}

	mask := makeMask(size)
	v := new(big.Int).Set(value)
	v.And(v, mask)
	return &BVConst{Size: size, mask: mask, value: v}
}

func (bv *BVConst) IsNegative() bool {
	return bv.value.Bit(int(bv.Size)-1) == 1
}

func (bv *BVConst) IsZero() bool {
	return bv.value.Sign() == 0
}

func (bv *BVConst) IsOne() bool {
	return bv.value.Cmp(one) == 0
}

func (bv *BVConst) HasAllBitsSet() bool {
	return bv.value.Cmp(bv.mask) == 0
}

func (bv *BVConst) Copy() *BVConst {
	return &BVConst{
		Size:  bv.Size,
		mask:  new(big.Int).Set(bv.mask),
		value: new(big.Int).Set(bv.value),
	}
}

func (bv *BVConst) String() string {
	return fmt.Sprintf("<BV%d 0x%x>", bv.Size, bv.value)
}

func (bv *BVConst) FitInLong() bool {
	return bv.value.BitLen() <= 64
}

func (bv *BVConst) AsULong() uint64 {
	// if it does not `FitInLong`, result is undefined
	return bv.value.Uint64()
}

// AsLong returns the signed interpretation of the value.
func (bv *BVConst) AsLong() int64 {
	// if it does not `FitInLong`, result is undefined
	if !bv.IsNegative() {
		return bv.value.Int64()
	}
	v := new(big.Int).Sub(bv.value, new(big.Int).Add(bv.mask, one))
	return v.Int64()
}

func (bv *BVConst) BigInt() *big.Int {
	return new(big.Int).Set(bv.value)
}

func (bv *BVConst) checkSize(o *BVConst) error {
	if bv.Size != o.Size {
		return fmt.Errorf("different sizes %d and %d", bv.Size, o.Size)
	}
	return nil
}

func (bv *BVConst) Not() {
	bv.value.Not(bv.value)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) Neg() {
	bv.value.Neg(bv.value)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) Add(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Add(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) Sub(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Sub(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

func (bv *BVConst) Mul(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Mul(bv.value, o.value)
	bv.value.And(bv.value, bv.mask)
	return nil
}

// signed returns the signed interpretation as a fresh big.Int.
func (bv *BVConst) signed() *big.Int {
	if !bv.IsNegative() {
		return new(big.Int).Set(bv.value)
	}
	return new(big.Int).Sub(bv.value, new(big.Int).Add(bv.mask, one))
}

func (bv *BVConst) setSigned(v *big.Int) {
	bv.value = v.And(v, bv.mask)
}

// SDiv truncates toward zero; division by zero yields -1 for non-negative
// dividends and 1 otherwise.
func (bv *BVConst) SDiv(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	if o.IsZero() {
		if bv.IsNegative() {
			bv.setSigned(big.NewInt(1))
		} else {
			bv.setSigned(big.NewInt(-1))
		}
		return nil
	}
	c1 := bv.signed()
	bv.setSigned(c1.Quo(c1, o.signed()))
	return nil
}

// SRem takes the sign of the dividend; by zero it leaves the dividend unchanged.
func (bv *BVConst) SRem(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	if o.IsZero() {
		return nil
	}
	c1 := bv.signed()
	bv.setSigned(c1.Rem(c1, o.signed()))
	return nil
}

func (bv *BVConst) And(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.And(bv.value, o.value)
	return nil
}

func (bv *BVConst) Or(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Or(bv.value, o.value)
	return nil
}

func (bv *BVConst) Xor(o *BVConst) error {
	if err := bv.checkSize(o); err != nil {
		return err
	}
	bv.value.Xor(bv.value, o.value)
	return nil
}

func (bv *BVConst) AShr(n uint) {
	if n == 0 {
		return
	}
	neg := bv.IsNegative()
	if n >= bv.Size {
		if neg {
			bv.value.Set(bv.mask)
		} else {
			bv.value.SetInt64(0)
		}
		return
	}

	bv.value.Rsh(bv.value, n)
	if neg {
		fill := makeMask(n)
		fill.Lsh(fill, bv.Size-n)
		bv.value.Or(bv.value, fill)
	}
}

func (bv *BVConst) Shl(n uint) {
	if n >= bv.Size {
		bv.value.SetInt64(0)
		return
	}
	bv.value.Lsh(bv.value, n)
	bv.value.And(bv.value, bv.mask)
}

func (bv *BVConst) Eq(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}
	return BoolConst{bv.value.Cmp(o.value) == 0}, nil
}

func (bv *BVConst) NEq(o *BVConst) (BoolConst, error) {
	v, err := bv.Eq(o)
	return v.Not(), err
}

func (bv *BVConst) UGt(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}
	return BoolConst{bv.value.Cmp(o.value) > 0}, nil
}

func (bv *BVConst) UGe(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}
	return BoolConst{bv.value.Cmp(o.value) >= 0}, nil
}

func (bv *BVConst) Ult(o *BVConst) (BoolConst, error) {
	v, err := bv.UGe(o)
	return v.Not(), err
}

func (bv *BVConst) Ule(o *BVConst) (BoolConst, error) {
	v, err := bv.UGt(o)
	return v.Not(), err
}

func (bv *BVConst) SGt(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}
	return BoolConst{bv.signed().Cmp(o.signed()) > 0}, nil
}

func (bv *BVConst) SGe(o *BVConst) (BoolConst, error) {
	if err := bv.checkSize(o); err != nil {
		return BoolFalse(), err
	}
	return BoolConst{bv.signed().Cmp(o.signed()) >= 0}, nil
}

func (bv *BVConst) SLt(o *BVConst) (BoolConst, error) {
	v, err := bv.SGe(o)
	return v.Not(), err
}

func (bv *BVConst) SLe(o *BVConst) (BoolConst, error) {
	v, err := bv.SGt(o)
	return v.Not(), err
}
