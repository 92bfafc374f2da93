package smt

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

const (
	TY_SYM   = 1
	TY_CONST = 2
	TY_ITE   = 3

	TY_NOT  = 8
	TY_NEG  = 9
	TY_SHL  = 10
	TY_ASHR = 12
	TY_AND  = 13
	TY_OR   = 14
	TY_XOR  = 15
	TY_ADD  = 16
	TY_MUL  = 17
	TY_SDIV = 18
	TY_SREM = 20

	TY_ULT = 22
	TY_ULE = 23
	TY_UGT = 24
	TY_UGE = 25
	TY_SLT = 26
	TY_SLE = 27
	TY_SGT = 28
	TY_SGE = 29
	TY_EQ  = 30

	TY_BOOL_CONST = 31
	TY_BOOL_NOT   = 32
	TY_BOOL_AND   = 33
	TY_BOOL_OR    = 34
)

/*
 *   Public Interface
 */

// ExprPtr is implemented by *BVExprPtr and *BoolExprPtr.
type ExprPtr interface {
	String() string
	Id() uintptr
	Kind() int

	getInternal() internalExpr
}

type BVExprPtr struct {
	e internalBVExpr
}

func (bv *BVExprPtr) getInternal() internalExpr {
	return bv.e
}

func (bv *BVExprPtr) IsConst() bool {
	return bv.e.kind() == TY_CONST
}

func (bv *BVExprPtr) GetConst() (*BVConst, error) {
	if bv.e.kind() != TY_CONST {
		return nil, fmt.Errorf("not a constant")
	}
	c := bv.e.(*internalBVV)
	return c.Value.Copy(), nil
}

func (bv *BVExprPtr) IsZero() bool {
	if !bv.IsConst() {
		return false
	}
	return bv.e.(*internalBVV).Value.IsZero()
}

func (bv *BVExprPtr) IsOne() bool {
	if !bv.IsConst() {
		return false
	}
	return bv.e.(*internalBVV).Value.IsOne()
}

func (bv *BVExprPtr) HasAllBitsSet() bool {
	if !bv.IsConst() {
		return false
	}
	return bv.e.(*internalBVV).Value.HasAllBitsSet()
}

func (bv *BVExprPtr) IsOppositeOf(o *BVExprPtr) bool {
	if bv.Kind() == TY_NEG {
		negBv := bv.e.(*internalBVExprUnary)
		if o.Id() == negBv.child.Id() {
			return true
		}
	}
	if o.Kind() == TY_NEG {
		negO := o.e.(*internalBVExprUnary)
		return bv.Id() == negO.child.Id()
	}
	return false
}

func (bv *BVExprPtr) Size() uint {
	return bv.e.size()
}

func (bv *BVExprPtr) String() string {
	return bv.e.String()
}

func (bv *BVExprPtr) Id() uintptr {
	return bv.e.rawPtr()
}

func (bv *BVExprPtr) Kind() int {
	return bv.e.kind()
}

type BoolExprPtr struct {
	e internalBoolExpr
}

func (e *BoolExprPtr) getInternal() internalExpr {
	return e.e
}

func (e *BoolExprPtr) IsConst() bool {
	return e.e.kind() == TY_BOOL_CONST
}

func (e *BoolExprPtr) GetConst() (bool, error) {
	if e.e.kind() != TY_BOOL_CONST {
		return false, fmt.Errorf("not a constant")
	}
	c := e.e.(*internalBoolVal)
	return c.Value.Value, nil
}

func (e *BoolExprPtr) String() string {
	return e.e.String()
}

func (e *BoolExprPtr) Id() uintptr {
	return e.e.rawPtr()
}

func (e *BoolExprPtr) Kind() int {
	return e.e.kind()
}

/*
 *   Private Interface
 */

type internalExpr interface {
	String() string

	kind() int
	hash() uint64
	isLeaf() bool
	rawPtr() uintptr
	subexprs() []internalExpr
}

type internalBVExpr interface {
	internalExpr

	size() uint
	shallowEq(internalBVExpr) bool
}

type internalBoolExpr interface {
	internalExpr

	shallowEq(internalBoolExpr) bool
}

// hashNode mixes an operator symbol with the identities of the children.
// Children are hash-consed, so pointer identity is structural identity.
func hashNode(symbol string, children ...internalExpr) uint64 {
	h := xxhash.New()
	h.WriteString(symbol)
	raw := make([]byte, 8)
	for _, c := range children {
		binary.BigEndian.PutUint64(raw, uint64(c.rawPtr()))
		h.Write(raw)
	}
	return h.Sum64()
}

func wrapString(e internalExpr) string {
	if e.isLeaf() {
		return e.String()
	}
	return fmt.Sprintf("(%s)", e.String())
}

/*
 *  TY_CONST
 */

type internalBVV struct {
	Value BVConst
}

func mkinternalBVV(value int64, size uint) *internalBVV {
	return &internalBVV{Value: *MakeBVConst(value, size)}
}

func mkinternalBVVFromConst(c BVConst) *internalBVV {
	return &internalBVV{Value: c}
}

func (bvv *internalBVV) String() string {
	return fmt.Sprintf("0x%x", bvv.Value.value)
}

func (bvv *internalBVV) size() uint {
	return bvv.Value.Size
}

func (bvv *internalBVV) subexprs() []internalExpr {
	return nil
}

func (bvv *internalBVV) kind() int {
	return TY_CONST
}

func (bvv *internalBVV) hash() uint64 {
	h := xxhash.New()
	h.Write(bvv.Value.value.Bytes())
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, uint64(bvv.Value.Size))
	h.Write(raw)
	return h.Sum64()
}

func (bvv *internalBVV) shallowEq(other internalBVExpr) bool {
	if other.kind() != TY_CONST {
		return false
	}
	obvv := other.(*internalBVV)
	res, err := bvv.Value.Eq(&obvv.Value)
	return err == nil && res.Value
}

func (bvv *internalBVV) isLeaf() bool {
	return true
}

func (bvv *internalBVV) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(bvv))
}

/*
 *  TY_SYM
 */

type internalBVS struct {
	name string
	sz   uint
}

func mkinternalBVS(name string, size uint) *internalBVS {
	return &internalBVS{name: name, sz: size}
}

func (bvs *internalBVS) String() string {
	return bvs.name
}

func (bvs *internalBVS) size() uint {
	return bvs.sz
}

func (bvs *internalBVS) subexprs() []internalExpr {
	return nil
}

func (bvs *internalBVS) kind() int {
	return TY_SYM
}

func (bvs *internalBVS) hash() uint64 {
	return xxhash.Sum64String(bvs.name)
}

func (bvs *internalBVS) shallowEq(other internalBVExpr) bool {
	if other.kind() != TY_SYM {
		return false
	}
	obvs := other.(*internalBVS)
	return obvs.sz == bvs.sz && obvs.name == bvs.name
}

func (bvs *internalBVS) isLeaf() bool {
	return true
}

func (bvs *internalBVS) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(bvs))
}

/*
 * TY_AND, TY_OR, TY_XOR, TY_ADD, TY_MUL (n-ary)
 * TY_SDIV, TY_SREM, TY_SHL, TY_ASHR (binary)
 */

type internalBVExprArithmetic struct {
	knd      uint8
	symbol   string
	children []*BVExprPtr
}

func mkBVArithmeticExpr(children []*BVExprPtr, kind int, symbol string) (*internalBVExprArithmetic, error) {
	if len(children) < 2 {
		return nil, fmt.Errorf("mkBVArithmeticExpr(): not enough children")
	}
	for i := 1; i < len(children); i++ {
		if children[i].Size() != children[0].Size() {
			return nil, fmt.Errorf("mkBVArithmeticExpr(): invalid sizes")
		}
	}
	return &internalBVExprArithmetic{knd: uint8(kind), symbol: symbol, children: children}, nil
}

func mkBVBinaryExpr(lhs, rhs *BVExprPtr, kind int, symbol string) (*internalBVExprArithmetic, error) {
	return mkBVArithmeticExpr([]*BVExprPtr{lhs, rhs}, kind, symbol)
}

func (e *internalBVExprArithmetic) String() string {
	b := strings.Builder{}
	b.WriteString(wrapString(e.children[0].e))
	for i := 1; i < len(e.children); i++ {
		fmt.Fprintf(&b, " %s %s", e.symbol, wrapString(e.children[i].e))
	}
	return b.String()
}

func (e *internalBVExprArithmetic) size() uint {
	return e.children[0].Size()
}

func (e *internalBVExprArithmetic) subexprs() []internalExpr {
	res := make([]internalExpr, 0, len(e.children))
	for _, c := range e.children {
		res = append(res, c.e)
	}
	return res
}

func (e *internalBVExprArithmetic) kind() int {
	return int(e.knd)
}

func (e *internalBVExprArithmetic) hash() uint64 {
	return hashNode(e.symbol, e.subexprs()...)
}

func (e *internalBVExprArithmetic) shallowEq(other internalBVExpr) bool {
	if other.kind() != e.kind() {
		return false
	}
	oe := other.(*internalBVExprArithmetic)
	if len(oe.children) != len(e.children) {
		return false
	}
	for i := range e.children {
		if e.children[i].e.rawPtr() != oe.children[i].e.rawPtr() {
			return false
		}
	}
	return true
}

func (e *internalBVExprArithmetic) isLeaf() bool {
	return false
}

func (e *internalBVExprArithmetic) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}

func mkinternalBVExprAnd(children []*BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVArithmeticExpr(children, TY_AND, "&")
}
func mkinternalBVExprOr(children []*BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVArithmeticExpr(children, TY_OR, "|")
}
func mkinternalBVExprXor(children []*BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVArithmeticExpr(children, TY_XOR, "^")
}
func mkinternalBVExprAdd(children []*BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVArithmeticExpr(children, TY_ADD, "+")
}
func mkinternalBVExprMul(children []*BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVArithmeticExpr(children, TY_MUL, "*")
}
func mkinternalBVExprSdiv(lhs, rhs *BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVBinaryExpr(lhs, rhs, TY_SDIV, "s/")
}
func mkinternalBVExprSrem(lhs, rhs *BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVBinaryExpr(lhs, rhs, TY_SREM, "s%")
}
func mkinternalBVExprShl(lhs, rhs *BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVBinaryExpr(lhs, rhs, TY_SHL, "<<")
}
func mkinternalBVExprAshr(lhs, rhs *BVExprPtr) (*internalBVExprArithmetic, error) {
	return mkBVBinaryExpr(lhs, rhs, TY_ASHR, "a>>")
}

/*
 * TY_NOT, TY_NEG
 */

type internalBVExprUnary struct {
	knd    uint8
	symbol string
	child  *BVExprPtr
}

func (e *internalBVExprUnary) String() string {
	return e.symbol + wrapString(e.child.e)
}

func (e *internalBVExprUnary) size() uint {
	return e.child.Size()
}

func (e *internalBVExprUnary) subexprs() []internalExpr {
	return []internalExpr{e.child.e}
}

func (e *internalBVExprUnary) kind() int {
	return int(e.knd)
}

func (e *internalBVExprUnary) hash() uint64 {
	return hashNode(e.symbol, e.child.e)
}

func (e *internalBVExprUnary) shallowEq(other internalBVExpr) bool {
	if other.kind() != e.kind() {
		return false
	}
	oe := other.(*internalBVExprUnary)
	return e.child.e.rawPtr() == oe.child.e.rawPtr()
}

func (e *internalBVExprUnary) isLeaf() bool {
	return false
}

func (e *internalBVExprUnary) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}

func mkinternalBVExprNot(e *BVExprPtr) *internalBVExprUnary {
	return &internalBVExprUnary{knd: TY_NOT, symbol: "~", child: e}
}
func mkinternalBVExprNeg(e *BVExprPtr) *internalBVExprUnary {
	return &internalBVExprUnary{knd: TY_NEG, symbol: "-", child: e}
}

/*
 * TY_ITE
 */

type internalBVExprITE struct {
	cond    *BoolExprPtr
	iftrue  *BVExprPtr
	iffalse *BVExprPtr
}

func mkinternalBVExprITE(cond *BoolExprPtr, iftrue *BVExprPtr, iffalse *BVExprPtr) (*internalBVExprITE, error) {
	if iftrue.Size() != iffalse.Size() {
		return nil, fmt.Errorf("mkinternalBVExprITE(): invalid sizes")
	}
	return &internalBVExprITE{cond: cond, iftrue: iftrue, iffalse: iffalse}, nil
}

func (e *internalBVExprITE) String() string {
	return fmt.Sprintf("ITE(%s, %s, %s)", e.cond.String(), e.iftrue.String(), e.iffalse.String())
}

func (e *internalBVExprITE) size() uint {
	return e.iftrue.Size()
}

func (e *internalBVExprITE) subexprs() []internalExpr {
	return []internalExpr{e.cond.e, e.iftrue.e, e.iffalse.e}
}

func (e *internalBVExprITE) kind() int {
	return TY_ITE
}

func (e *internalBVExprITE) hash() uint64 {
	return hashNode("ite", e.subexprs()...)
}

func (e *internalBVExprITE) shallowEq(other internalBVExpr) bool {
	if other.kind() != TY_ITE {
		return false
	}
	oe := other.(*internalBVExprITE)
	return e.cond.e.rawPtr() == oe.cond.e.rawPtr() &&
		e.iftrue.e.rawPtr() == oe.iftrue.e.rawPtr() &&
		e.iffalse.e.rawPtr() == oe.iffalse.e.rawPtr()
}

func (e *internalBVExprITE) isLeaf() bool {
	return false
}

func (e *internalBVExprITE) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}

/*
 *  TY_BOOL_CONST
 */

type internalBoolVal struct {
	Value BoolConst
}

func mkinternalBoolConst(value bool) *internalBoolVal {
	return &internalBoolVal{Value: BoolConst{value}}
}

func (b *internalBoolVal) String() string {
	return b.Value.String()
}

func (b *internalBoolVal) subexprs() []internalExpr {
	return nil
}

func (b *internalBoolVal) kind() int {
	return TY_BOOL_CONST
}

func (b *internalBoolVal) hash() uint64 {
	if b.Value.Value {
		return 1
	}
	return 0
}

func (b *internalBoolVal) shallowEq(other internalBoolExpr) bool {
	if other.kind() != TY_BOOL_CONST {
		return false
	}
	return other.(*internalBoolVal).Value.Value == b.Value.Value
}

func (b *internalBoolVal) isLeaf() bool {
	return true
}

func (b *internalBoolVal) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(b))
}

/*
 * TY_ULT, TY_ULE, TY_UGT, TY_UGE, TY_SLT, TY_SLE, TY_SGT, TY_SGE, TY_EQ
 */

type internalBoolExprCmp struct {
	knd      uint8
	symbol   string
	lhs, rhs *BVExprPtr
}

func mkinternalBoolExprCmp(lhs, rhs *BVExprPtr, kind int, symbol string) (*internalBoolExprCmp, error) {
	if rhs.Size() != lhs.Size() {
		return nil, fmt.Errorf("mkinternalBoolExprCmp(): invalid sizes")
	}
	return &internalBoolExprCmp{knd: uint8(kind), symbol: symbol, lhs: lhs, rhs: rhs}, nil
}

func (e *internalBoolExprCmp) String() string {
	return fmt.Sprintf("%s %s %s", wrapString(e.lhs.e), e.symbol, wrapString(e.rhs.e))
}

func (e *internalBoolExprCmp) subexprs() []internalExpr {
	return []internalExpr{e.lhs.e, e.rhs.e}
}

func (e *internalBoolExprCmp) kind() int {
	return int(e.knd)
}

func (e *internalBoolExprCmp) hash() uint64 {
	return hashNode(e.symbol, e.lhs.e, e.rhs.e)
}

func (e *internalBoolExprCmp) shallowEq(other internalBoolExpr) bool {
	if other.kind() != e.kind() {
		return false
	}
	oe := other.(*internalBoolExprCmp)
	return e.lhs.e.rawPtr() == oe.lhs.e.rawPtr() && e.rhs.e.rawPtr() == oe.rhs.e.rawPtr()
}

func (e *internalBoolExprCmp) isLeaf() bool {
	return false
}

func (e *internalBoolExprCmp) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}

func mkinternalBoolExprUlt(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_ULT, "u<")
}
func mkinternalBoolExprUle(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_ULE, "u<=")
}
func mkinternalBoolExprUgt(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_UGT, "u>")
}
func mkinternalBoolExprUge(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_UGE, "u>=")
}
func mkinternalBoolExprSlt(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_SLT, "s<")
}
func mkinternalBoolExprSle(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_SLE, "s<=")
}
func mkinternalBoolExprSgt(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_SGT, "s>")
}
func mkinternalBoolExprSge(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_SGE, "s>=")
}
func mkinternalBoolExprEq(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error) {
	return mkinternalBoolExprCmp(lhs, rhs, TY_EQ, "==")
}

/*
 * TY_BOOL_AND, TY_BOOL_OR
 */

type internalBoolExprNaryOp struct {
	knd      uint8
	symbol   string
	children []*BoolExprPtr
}

func mkinternalBoolExprNaryOp(children []*BoolExprPtr, kind int, symbol string) (*internalBoolExprNaryOp, error) {
	if len(children) < 2 {
		return nil, fmt.Errorf("mkinternalBoolExprNaryOp(): not enough children")
	}
	return &internalBoolExprNaryOp{knd: uint8(kind), symbol: symbol, children: children}, nil
}

func (e *internalBoolExprNaryOp) String() string {
	b := strings.Builder{}
	b.WriteString(wrapString(e.children[0].e))
	for i := 1; i < len(e.children); i++ {
		fmt.Fprintf(&b, " %s %s", e.symbol, wrapString(e.children[i].e))
	}
	return b.String()
}

func (e *internalBoolExprNaryOp) subexprs() []internalExpr {
	res := make([]internalExpr, 0, len(e.children))
	for _, c := range e.children {
		res = append(res, c.e)
	}
	return res
}

func (e *internalBoolExprNaryOp) kind() int {
	return int(e.knd)
}

func (e *internalBoolExprNaryOp) hash() uint64 {
	return hashNode(e.symbol, e.subexprs()...)
}

func (e *internalBoolExprNaryOp) shallowEq(other internalBoolExpr) bool {
	if other.kind() != e.kind() {
		return false
	}
	oe := other.(*internalBoolExprNaryOp)
	if len(oe.children) != len(e.children) {
		return false
	}
	for i := range e.children {
		if e.children[i].e.rawPtr() != oe.children[i].e.rawPtr() {
			return false
		}
	}
	return true
}

func (e *internalBoolExprNaryOp) isLeaf() bool {
	return false
}

func (e *internalBoolExprNaryOp) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}

func mkinternalBoolExprAnd(children []*BoolExprPtr) (*internalBoolExprNaryOp, error) {
	return mkinternalBoolExprNaryOp(children, TY_BOOL_AND, "&&")
}
func mkinternalBoolExprOr(children []*BoolExprPtr) (*internalBoolExprNaryOp, error) {
	return mkinternalBoolExprNaryOp(children, TY_BOOL_OR, "||")
}

/*
 * TY_BOOL_NOT
 */

type internalBoolNot struct {
	child *BoolExprPtr
}

func mkinternalBoolNot(e *BoolExprPtr) *internalBoolNot {
	return &internalBoolNot{child: e}
}

func (e *internalBoolNot) String() string {
	return "!" + wrapString(e.child.e)
}

func (e *internalBoolNot) subexprs() []internalExpr {
	return []internalExpr{e.child.e}
}

func (e *internalBoolNot) kind() int {
	return TY_BOOL_NOT
}

func (e *internalBoolNot) hash() uint64 {
	return hashNode("!", e.child.e)
}

func (e *internalBoolNot) shallowEq(other internalBoolExpr) bool {
	if other.kind() != TY_BOOL_NOT {
		return false
	}
	return other.(*internalBoolNot).child.e.rawPtr() == e.child.e.rawPtr()
}

func (e *internalBoolNot) isLeaf() bool {
	return false
}

func (e *internalBoolNot) rawPtr() uintptr {
	return uintptr(unsafe.Pointer(e))
}
