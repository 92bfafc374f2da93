package smt

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
)

type bvexpr struct {
	exp     internalBVExpr
	counter int
}

type boolexpr struct {
	exp     internalBoolExpr
	counter int
}

type ExprBuilderStats struct {
	CacheHits    uint
	CacheLookups uint
	CachedBVs    uint
	CachedBools  uint
}

// ExprBuilder creates hash-consed, simplified expressions. Structurally equal
// expressions built through the same ExprBuilder share one node, so Id()
// equality is structural equality. Nodes are evicted from the cache when
// the last wrapper referencing them is collected.
type ExprBuilder struct {
	lock      sync.RWMutex
	bvcache   map[uint64][]bvexpr
	boolcache map[uint64][]boolexpr

	Stats ExprBuilderStats
}

func NewExprBuilder() *ExprBuilder {
	return &ExprBuilder{
		bvcache:   map[uint64][]bvexpr{},
		boolcache: map[uint64][]boolexpr{},
	}
}

func (eb *ExprBuilder) GetStats() ExprBuilderStats {
	eb.lock.RLock()
	defer eb.lock.RUnlock()
	return eb.Stats
}

func (eb *ExprBuilder) PrintStats(w io.Writer) {
	st := eb.GetStats()

	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w, "  ExprBuilder Stats")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "hits:       %d\n", st.CacheHits)
	if st.CacheLookups > 0 {
		fmt.Fprintf(w, "hit ratio:  %.03f %%\n", float64(st.CacheHits)/float64(st.CacheLookups)*100)
	}
	fmt.Fprintf(w, "num cached: %d\n", st.CachedBVs+st.CachedBools)
	fmt.Fprintln(w, "=====================")
}

func (eb *ExprBuilder) bvFinalizer(e *BVExprPtr) {
	eb.lock.Lock()
	defer eb.lock.Unlock()

	h := e.e.hash()
	buck, ok := eb.bvcache[h]
	if !ok {
		return
	}
	newBuck := buck[:0]
	for i := 0; i < len(buck); i++ {
		if buck[i].exp.rawPtr() == e.e.rawPtr() {
			buck[i].counter -= 1
			if buck[i].counter <= 0 {
				eb.Stats.CachedBVs -= 1
				continue
			}
		}
		newBuck = append(newBuck, buck[i])
	}
	if len(newBuck) == 0 {
		delete(eb.bvcache, h)
		return
	}
	eb.bvcache[h] = newBuck
}

func (eb *ExprBuilder) boolFinalizer(e *BoolExprPtr) {
	eb.lock.Lock()
	defer eb.lock.Unlock()

	h := e.e.hash()
	buck, ok := eb.boolcache[h]
	if !ok {
		return
	}
	newBuck := buck[:0]
	for i := 0; i < len(buck); i++ {
		if buck[i].exp.rawPtr() == e.e.rawPtr() {
			buck[i].counter -= 1
			if buck[i].counter <= 0 {
				eb.Stats.CachedBools -= 1
				continue
			}
		}
		newBuck = append(newBuck, buck[i])
	}
	if len(newBuck) == 0 {
		delete(eb.boolcache, h)
		return
	}
	eb.boolcache[h] = newBuck
}

func (eb *ExprBuilder) getOrCreateBV(e internalBVExpr) *BVExprPtr {
	eb.lock.Lock()
	defer eb.lock.Unlock()
	eb.Stats.CacheLookups += 1

	h := e.hash()
	bucket := eb.bvcache[h]
	for i := 0; i < len(bucket); i++ {
		if bucket[i].exp.shallowEq(e) {
			eb.Stats.CacheHits += 1

			bucket[i].counter += 1
			r := &BVExprPtr{bucket[i].exp}
			runtime.SetFinalizer(r, eb.bvFinalizer)
			return r
		}
	}
	eb.Stats.CachedBVs += 1

	eb.bvcache[h] = append(bucket, bvexpr{e, 1})
	r := &BVExprPtr{e}
	runtime.SetFinalizer(r, eb.bvFinalizer)
	return r
}

func (eb *ExprBuilder) getOrCreateBool(e internalBoolExpr) *BoolExprPtr {
	eb.lock.Lock()
	defer eb.lock.Unlock()
	eb.Stats.CacheLookups += 1

	h := e.hash()
	bucket := eb.boolcache[h]
	for i := 0; i < len(bucket); i++ {
		if bucket[i].exp.shallowEq(e) {
			eb.Stats.CacheHits += 1

			bucket[i].counter += 1
			r := &BoolExprPtr{bucket[i].exp}
			runtime.SetFinalizer(r, eb.boolFinalizer)
			return r
		}
	}
	eb.Stats.CachedBools += 1

	eb.boolcache[h] = append(bucket, boolexpr{e, 1})
	r := &BoolExprPtr{e}
	runtime.SetFinalizer(r, eb.boolFinalizer)
	return r
}

// InvolvedInputs returns the symbols e depends on.
func (eb *ExprBuilder) InvolvedInputs(e ExprPtr) []*BVExprPtr {
	queue := []internalExpr{e.getInternal()}
	visited := make(map[uintptr]bool)
	symbols := make([]*BVExprPtr, 0)

	for len(queue) > 0 {
		el := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if visited[el.rawPtr()] {
			continue
		}
		visited[el.rawPtr()] = true

		if el.kind() == TY_SYM {
			symbols = append(symbols, eb.getOrCreateBV(el.(internalBVExpr)))
			continue
		}
		queue = append(queue, el.subexprs()...)
	}
	return symbols
}

// *** Constructors ***

func flattenOrAddArithmeticArg(e *BVExprPtr, ty int, children []*BVExprPtr) []*BVExprPtr {
	if e.Kind() == ty {
		inner := e.e.(*internalBVExprArithmetic)
		return append(children, inner.children...)
	}
	return append(children, e)
}

func removeOneIf(exprs []*BVExprPtr, cmpFun func(*BVExprPtr, *BVExprPtr) bool) []*BVExprPtr {
	exprsPruned := make([]*BVExprPtr, 0, len(exprs))
	for i := 0; i < len(exprs); i++ {
		shouldRemove := false
		for j := i + 1; j < len(exprs); j++ {
			if cmpFun(exprs[i], exprs[j]) {
				shouldRemove = true
				break
			}
		}
		if !shouldRemove {
			exprsPruned = append(exprsPruned, exprs[i])
		}
	}
	return exprsPruned
}

func removeBothIf(exprs []*BVExprPtr, cmpFun func(*BVExprPtr, *BVExprPtr) bool) []*BVExprPtr {
	removed := make(map[int]bool)
	exprsPruned := make([]*BVExprPtr, 0, len(exprs))
	for i := 0; i < len(exprs); i++ {
		if removed[i] {
			continue
		}

		oppositeId := -1
		for j := i + 1; j < len(exprs); j++ {
			if !removed[j] && cmpFun(exprs[i], exprs[j]) {
				oppositeId = j
				break
			}
		}
		if oppositeId >= 0 {
			removed[i] = true
			removed[oppositeId] = true
			continue
		}
		exprsPruned = append(exprsPruned, exprs[i])
	}
	return exprsPruned
}

func sortById(children []*BVExprPtr) {
	sort.Slice(children, func(i, j int) bool { return children[i].Id() < children[j].Id() })
}

func (eb *ExprBuilder) BVV(val int64, size uint) *BVExprPtr {
	return eb.getOrCreateBV(mkinternalBVV(val, size))
}

func (eb *ExprBuilder) BVVFromConst(c *BVConst) *BVExprPtr {
	return eb.getOrCreateBV(mkinternalBVVFromConst(*c.Copy()))
}

func (eb *ExprBuilder) BVS(name string, size uint) *BVExprPtr {
	return eb.getOrCreateBV(mkinternalBVS(name, size))
}

func (eb *ExprBuilder) Neg(e *BVExprPtr) *BVExprPtr {
	// Constant propagation
	if e.IsConst() {
		c, _ := e.GetConst()
		c.Neg()
		return eb.getOrCreateBV(mkinternalBVVFromConst(*c))
	}

	// Neg of Neg
	if e.Kind() == TY_NEG {
		return e.e.(*internalBVExprUnary).child
	}

	return eb.getOrCreateBV(mkinternalBVExprNeg(e))
}

func (eb *ExprBuilder) Not(e *BVExprPtr) *BVExprPtr {
	// Constant propagation
	if e.IsConst() {
		c, _ := e.GetConst()
		c.Not()
		return eb.getOrCreateBV(mkinternalBVVFromConst(*c))
	}

	// Not of Not
	if e.Kind() == TY_NOT {
		return e.e.(*internalBVExprUnary).child
	}

	return eb.getOrCreateBV(mkinternalBVExprNot(e))
}

func (eb *ExprBuilder) Add(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	if lhs.Size() != rhs.Size() {
		return nil, fmt.Errorf("different sizes")
	}

	// Remove zeroes
	if lhs.IsZero() {
		return rhs, nil
	}
	if rhs.IsZero() {
		return lhs, nil
	}

	// Remove add with opposite
	if lhs.IsOppositeOf(rhs) {
		return eb.BVV(0, lhs.Size()), nil
	}

	childrenFlattened := make([]*BVExprPtr, 0)
	childrenFlattened = flattenOrAddArithmeticArg(lhs, TY_ADD, childrenFlattened)
	childrenFlattened = flattenOrAddArithmeticArg(rhs, TY_ADD, childrenFlattened)

	// Constant propagation
	children := make([]*BVExprPtr, 0, len(childrenFlattened))
	cVal := MakeBVConst(0, lhs.Size())
	for _, child := range childrenFlattened {
		if child.IsConst() {
			childConst, _ := child.GetConst()
			cVal.Add(childConst)
		} else {
			children = append(children, child)
		}
	}

	// Remove add with opposite on flattened
	if len(children) > 1 {
		children = removeBothIf(children, func(bp1, bp2 *BVExprPtr) bool { return bp1.IsOppositeOf(bp2) })
	}
	if !cVal.IsZero() {
		children = append(children, eb.getOrCreateBV(mkinternalBVVFromConst(*cVal)))
	}
	if len(children) == 0 {
		return eb.BVV(0, lhs.Size()), nil
	}
	if len(children) == 1 {
		return children[0], nil
	}

	sortById(children)
	ex, err := mkinternalBVExprAdd(children)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

func (eb *ExprBuilder) Sub(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	return eb.Add(lhs, eb.Neg(rhs))
}

func (eb *ExprBuilder) Mul(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	if lhs.Size() != rhs.Size() {
		return nil, fmt.Errorf("different sizes")
	}

	// Remove ones
	if lhs.IsOne() {
		return rhs, nil
	}
	if rhs.IsOne() {
		return lhs, nil
	}

	// Check zero
	if lhs.IsZero() {
		return lhs, nil
	}
	if rhs.IsZero() {
		return rhs, nil
	}

	childrenFlattened := make([]*BVExprPtr, 0)
	childrenFlattened = flattenOrAddArithmeticArg(lhs, TY_MUL, childrenFlattened)
	childrenFlattened = flattenOrAddArithmeticArg(rhs, TY_MUL, childrenFlattened)

	// Constant propagation
	children := make([]*BVExprPtr, 0, len(childrenFlattened))
	cVal := MakeBVConst(1, lhs.Size())
	for _, child := range childrenFlattened {
		if child.IsConst() {
			childConst, _ := child.GetConst()
			cVal.Mul(childConst)
		} else {
			children = append(children, child)
		}
	}
	if cVal.IsZero() {
		return eb.BVV(0, lhs.Size()), nil
	}
	if !cVal.IsOne() {
		children = append(children, eb.getOrCreateBV(mkinternalBVVFromConst(*cVal)))
	}
	if len(children) == 0 {
		return eb.BVV(1, lhs.Size()), nil
	}
	if len(children) == 1 {
		return children[0], nil
	}

	sortById(children)
	ex, err := mkinternalBVExprMul(children)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

func (eb *ExprBuilder) And(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	if lhs.Size() != rhs.Size() {
		return nil, fmt.Errorf("different sizes")
	}

	// Check zero
	if lhs.IsZero() {
		return lhs, nil
	}
	if rhs.IsZero() {
		return rhs, nil
	}

	// Check if all bit set
	if lhs.HasAllBitsSet() {
		return rhs, nil
	}
	if rhs.HasAllBitsSet() {
		return lhs, nil
	}

	// Check if lhs == rhs
	if lhs.Id() == rhs.Id() {
		return lhs, nil
	}

	childrenFlattened := make([]*BVExprPtr, 0)
	childrenFlattened = flattenOrAddArithmeticArg(lhs, TY_AND, childrenFlattened)
	childrenFlattened = flattenOrAddArithmeticArg(rhs, TY_AND, childrenFlattened)

	// Constant propagation
	children := make([]*BVExprPtr, 0, len(childrenFlattened))
	cVal := MakeBVConst(-1, lhs.Size())
	for _, child := range childrenFlattened {
		if child.IsConst() {
			childConst, _ := child.GetConst()
			cVal.And(childConst)
		} else {
			children = append(children, child)
		}
	}
	if cVal.IsZero() {
		return eb.BVV(0, lhs.Size()), nil
	}
	children = removeOneIf(children, func(bp1, bp2 *BVExprPtr) bool { return bp1.Id() == bp2.Id() })
	if !cVal.HasAllBitsSet() {
		children = append(children, eb.getOrCreateBV(mkinternalBVVFromConst(*cVal)))
	}
	if len(children) == 0 {
		return eb.BVV(-1, lhs.Size()), nil
	}
	if len(children) == 1 {
		return children[0], nil
	}

	sortById(children)
	ex, err := mkinternalBVExprAnd(children)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

func (eb *ExprBuilder) Or(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	if lhs.Size() != rhs.Size() {
		return nil, fmt.Errorf("different sizes")
	}

	// Check zero
	if lhs.IsZero() {
		return rhs, nil
	}
	if rhs.IsZero() {
		return lhs, nil
	}

	// Check if all bit set
	if lhs.HasAllBitsSet() {
		return lhs, nil
	}
	if rhs.HasAllBitsSet() {
		return rhs, nil
	}

	// Check if lhs == rhs
	if lhs.Id() == rhs.Id() {
		return lhs, nil
	}

	childrenFlattened := make([]*BVExprPtr, 0)
	childrenFlattened = flattenOrAddArithmeticArg(lhs, TY_OR, childrenFlattened)
	childrenFlattened = flattenOrAddArithmeticArg(rhs, TY_OR, childrenFlattened)

	// Constant propagation
	children := make([]*BVExprPtr, 0, len(childrenFlattened))
	cVal := MakeBVConst(0, lhs.Size())
	for _, child := range childrenFlattened {
		if child.IsConst() {
			childConst, _ := child.GetConst()
			cVal.Or(childConst)
		} else {
			children = append(children, child)
		}
	}
	if cVal.HasAllBitsSet() {
		return eb.BVV(-1, lhs.Size()), nil
	}
	children = removeOneIf(children, func(bp1, bp2 *BVExprPtr) bool { return bp1.Id() == bp2.Id() })
	if !cVal.IsZero() {
		children = append(children, eb.getOrCreateBV(mkinternalBVVFromConst(*cVal)))
	}
	if len(children) == 0 {
		return eb.BVV(0, lhs.Size()), nil
	}
	if len(children) == 1 {
		return children[0], nil
	}

	sortById(children)
	ex, err := mkinternalBVExprOr(children)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

func (eb *ExprBuilder) Xor(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	if lhs.Size() != rhs.Size() {
		return nil, fmt.Errorf("different sizes")
	}

	// Check zero
	if lhs.IsZero() {
		return rhs, nil
	}
	if rhs.IsZero() {
		return lhs, nil
	}

	// Check if same
	if lhs.Id() == rhs.Id() {
		return eb.BVV(0, lhs.Size()), nil
	}

	childrenFlattened := make([]*BVExprPtr, 0)
	childrenFlattened = flattenOrAddArithmeticArg(lhs, TY_XOR, childrenFlattened)
	childrenFlattened = flattenOrAddArithmeticArg(rhs, TY_XOR, childrenFlattened)

	// Constant propagation
	children := make([]*BVExprPtr, 0, len(childrenFlattened))
	cVal := MakeBVConst(0, lhs.Size())
	for _, child := range childrenFlattened {
		if child.IsConst() {
			childConst, _ := child.GetConst()
			cVal.Xor(childConst)
		} else {
			children = append(children, child)
		}
	}

	// Remove couples of same expression on flattened
	children = removeBothIf(children, func(bp1, bp2 *BVExprPtr) bool { return bp1.Id() == bp2.Id() })
	if !cVal.IsZero() {
		children = append(children, eb.getOrCreateBV(mkinternalBVVFromConst(*cVal)))
	}
	if len(children) == 0 {
		return eb.BVV(0, lhs.Size()), nil
	}
	if len(children) == 1 {
		return children[0], nil
	}

	sortById(children)
	ex, err := mkinternalBVExprXor(children)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

type shiftFn func(c *BVConst, n uint)

// shift folds constant shifts. Shift amounts at or beyond the width
// saturate as in SMT-LIB.
func (eb *ExprBuilder) shift(lhs, rhs *BVExprPtr, fold shiftFn, mk func(lhs, rhs *BVExprPtr) (*internalBVExprArithmetic, error)) (*BVExprPtr, error) {
	if lhs.Size() != rhs.Size() {
		return nil, fmt.Errorf("different sizes")
	}

	if rhs.IsConst() {
		n, _ := rhs.GetConst()
		if n.IsZero() {
			return lhs, nil
		}
		if lhs.IsConst() {
			c, _ := lhs.GetConst()
			amount := lhs.Size()
			if n.FitInLong() && n.AsULong() < uint64(lhs.Size()) {
				amount = uint(n.AsULong())
			}
			fold(c, amount)
			return eb.getOrCreateBV(mkinternalBVVFromConst(*c)), nil
		}
	}

	ex, err := mk(lhs, rhs)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

func (eb *ExprBuilder) Shl(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	return eb.shift(lhs, rhs, (*BVConst).Shl, mkinternalBVExprShl)
}

func (eb *ExprBuilder) AShr(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	return eb.shift(lhs, rhs, (*BVConst).AShr, mkinternalBVExprAshr)
}

type divFn func(c, o *BVConst) error

func (eb *ExprBuilder) division(lhs, rhs *BVExprPtr, fold divFn, mk func(lhs, rhs *BVExprPtr) (*internalBVExprArithmetic, error)) (*BVExprPtr, error) {
	if lhs.Size() != rhs.Size() {
		return nil, fmt.Errorf("different sizes")
	}

	// Constant propagation
	if lhs.IsConst() && rhs.IsConst() {
		c1, _ := lhs.GetConst()
		c2, _ := rhs.GetConst()
		if err := fold(c1, c2); err != nil {
			return nil, err
		}
		return eb.getOrCreateBV(mkinternalBVVFromConst(*c1)), nil
	}

	ex, err := mk(lhs, rhs)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

func (eb *ExprBuilder) SDiv(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	if rhs.IsOne() {
		return lhs, nil
	}
	return eb.division(lhs, rhs, (*BVConst).SDiv, mkinternalBVExprSdiv)
}

func (eb *ExprBuilder) SRem(lhs, rhs *BVExprPtr) (*BVExprPtr, error) {
	// Rem by one
	if rhs.IsOne() && lhs.Size() == rhs.Size() {
		return eb.BVV(0, lhs.Size()), nil
	}
	return eb.division(lhs, rhs, (*BVConst).SRem, mkinternalBVExprSrem)
}

func (eb *ExprBuilder) ITE(guard *BoolExprPtr, iftrue *BVExprPtr, iffalse *BVExprPtr) (*BVExprPtr, error) {
	if iftrue.Size() != iffalse.Size() {
		return nil, fmt.Errorf("invalid sizes in ITE")
	}

	// Constant propagation
	if guard.IsConst() {
		g, _ := guard.GetConst()
		if g {
			return iftrue, nil
		}
		return iffalse, nil
	}

	// Same branches
	if iftrue.Id() == iffalse.Id() {
		return iftrue, nil
	}

	ex, err := mkinternalBVExprITE(guard, iftrue, iffalse)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBV(ex), nil
}

type cmpFn func(c, o *BVConst) (BoolConst, error)

func (eb *ExprBuilder) compare(lhs, rhs *BVExprPtr, fold cmpFn, mk func(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error)) (*BoolExprPtr, error) {
	if lhs.Size() != rhs.Size() {
		return nil, fmt.Errorf("different sizes")
	}

	// Constant propagation
	if lhs.IsConst() && rhs.IsConst() {
		c1, _ := lhs.GetConst()
		c2, _ := rhs.GetConst()
		r, err := fold(c1, c2)
		if err != nil {
			return nil, err
		}
		return eb.BoolVal(r.Value), nil
	}

	ex, err := mk(lhs, rhs)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBool(ex), nil
}

func (eb *ExprBuilder) Ult(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	return eb.compare(lhs, rhs, (*BVConst).Ult, mkinternalBoolExprUlt)
}

func (eb *ExprBuilder) Ule(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	return eb.compare(lhs, rhs, (*BVConst).Ule, mkinternalBoolExprUle)
}

func (eb *ExprBuilder) UGt(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	return eb.compare(lhs, rhs, (*BVConst).UGt, mkinternalBoolExprUgt)
}

func (eb *ExprBuilder) UGe(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	return eb.compare(lhs, rhs, (*BVConst).UGe, mkinternalBoolExprUge)
}

func (eb *ExprBuilder) SLt(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	return eb.compare(lhs, rhs, (*BVConst).SLt, mkinternalBoolExprSlt)
}

func (eb *ExprBuilder) SLe(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	return eb.compare(lhs, rhs, (*BVConst).SLe, mkinternalBoolExprSle)
}

func (eb *ExprBuilder) SGt(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	return eb.compare(lhs, rhs, (*BVConst).SGt, mkinternalBoolExprSgt)
}

func (eb *ExprBuilder) SGe(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	return eb.compare(lhs, rhs, (*BVConst).SGe, mkinternalBoolExprSge)
}

func (eb *ExprBuilder) Eq(lhs, rhs *BVExprPtr) (*BoolExprPtr, error) {
	if lhs.Size() == rhs.Size() && lhs.Id() == rhs.Id() {
		return eb.BoolVal(true), nil
	}
	return eb.compare(lhs, rhs, (*BVConst).Eq, mkinternalBoolExprEq)
}

func (eb *ExprBuilder) BoolVal(v bool) *BoolExprPtr {
	return eb.getOrCreateBool(mkinternalBoolConst(v))
}

// negatedCmp maps a comparison kind to the kind of its negation.
var negatedCmp = map[int]func(lhs, rhs *BVExprPtr) (*internalBoolExprCmp, error){
	TY_ULE: mkinternalBoolExprUgt,
	TY_ULT: mkinternalBoolExprUge,
	TY_UGE: mkinternalBoolExprUlt,
	TY_UGT: mkinternalBoolExprUle,
	TY_SLE: mkinternalBoolExprSgt,
	TY_SLT: mkinternalBoolExprSge,
	TY_SGE: mkinternalBoolExprSlt,
	TY_SGT: mkinternalBoolExprSle,
}

func (eb *ExprBuilder) BoolNot(e *BoolExprPtr) (*BoolExprPtr, error) {
	// Constant propagation
	if e.IsConst() {
		v, _ := e.GetConst()
		return eb.BoolVal(!v), nil
	}

	// Not of Not
	if e.Kind() == TY_BOOL_NOT {
		return e.e.(*internalBoolNot).child, nil
	}

	// Not of { Ule, Ult, Uge, Ugt, Sle, Slt, Sge, Sgt }
	if mk, ok := negatedCmp[e.Kind()]; ok {
		eInt := e.e.(*internalBoolExprCmp)
		ex, err := mk(eInt.lhs, eInt.rhs)
		if err != nil {
			return nil, err
		}
		return eb.getOrCreateBool(ex), nil
	}

	return eb.getOrCreateBool(mkinternalBoolNot(e)), nil
}

// boolNary flattens children of kind ty, drops the neutral element and
// short-circuits on the absorbing one.
func (eb *ExprBuilder) boolNary(ty int, neutral bool, args []*BoolExprPtr, mk func([]*BoolExprPtr) (*internalBoolExprNaryOp, error)) (*BoolExprPtr, error) {
	children := make([]*BoolExprPtr, 0, len(args))
	seen := make(map[uintptr]bool, len(args))
	var add func(e *BoolExprPtr) bool
	add = func(e *BoolExprPtr) bool {
		if e.IsConst() {
			v, _ := e.GetConst()
			return v == neutral
		}
		if e.Kind() == ty {
			for _, c := range e.e.(*internalBoolExprNaryOp).children {
				if !add(c) {
					return false
				}
			}
			return true
		}
		if !seen[e.Id()] {
			seen[e.Id()] = true
			children = append(children, e)
		}
		return true
	}
	for _, a := range args {
		if !add(a) {
			return eb.BoolVal(!neutral), nil
		}
	}

	if len(children) == 0 {
		return eb.BoolVal(neutral), nil
	}
	if len(children) == 1 {
		return children[0], nil
	}

	sort.Slice(children, func(i, j int) bool { return children[i].Id() < children[j].Id() })
	ex, err := mk(children)
	if err != nil {
		return nil, err
	}
	return eb.getOrCreateBool(ex), nil
}

func (eb *ExprBuilder) BoolAnd(lhs, rhs *BoolExprPtr) (*BoolExprPtr, error) {
	return eb.boolNary(TY_BOOL_AND, true, []*BoolExprPtr{lhs, rhs}, mkinternalBoolExprAnd)
}

func (eb *ExprBuilder) BoolOr(lhs, rhs *BoolExprPtr) (*BoolExprPtr, error) {
	return eb.boolNary(TY_BOOL_OR, false, []*BoolExprPtr{lhs, rhs}, mkinternalBoolExprOr)
}

// BoolAndAll builds the conjunction of all es in one node. The empty
// conjunction is true.
func (eb *ExprBuilder) BoolAndAll(es ...*BoolExprPtr) (*BoolExprPtr, error) {
	return eb.boolNary(TY_BOOL_AND, true, es, mkinternalBoolExprAnd)
}

// BoolOrAll builds the disjunction of all es in one node. The empty
// disjunction is false.
func (eb *ExprBuilder) BoolOrAll(es ...*BoolExprPtr) (*BoolExprPtr, error) {
	return eb.boolNary(TY_BOOL_OR, false, es, mkinternalBoolExprOr)
}

func (eb *ExprBuilder) BoolImplies(lhs, rhs *BoolExprPtr) (*BoolExprPtr, error) {
	notLhs, err := eb.BoolNot(lhs)
	if err != nil {
		return nil, err
	}
	return eb.BoolOr(notLhs, rhs)
}
