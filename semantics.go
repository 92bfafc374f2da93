package synth

import (
	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

// cellBuilder wraps the expression builder for the operator catalog. The
// first error sticks; later calls return nil until it is inspected.
type cellBuilder struct {
	eb  *smt.ExprBuilder
	cfg Config
	err error
}

type bvResult func() (*smt.BVExprPtr, error)
type boolResult func() (*smt.BoolExprPtr, error)

func (b *cellBuilder) bv(f bvResult) *smt.BVExprPtr {
	if b.err != nil {
		return nil
	}
	r, err := f()
	if err != nil {
		b.err = err
		return nil
	}
	return r
}

func (b *cellBuilder) bool(f boolResult) *smt.BoolExprPtr {
	if b.err != nil {
		return nil
	}
	r, err := f()
	if err != nil {
		b.err = err
		return nil
	}
	return r
}

func (b *cellBuilder) lit(v int64) *smt.BVExprPtr {
	return b.eb.BVV(v, b.cfg.BitWidth)
}

func (b *cellBuilder) add(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.Add(x, y) })
}

func (b *cellBuilder) sub(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.Sub(x, y) })
}

func (b *cellBuilder) mul(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.Mul(x, y) })
}

func (b *cellBuilder) and(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.And(x, y) })
}

func (b *cellBuilder) or(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.Or(x, y) })
}

func (b *cellBuilder) xor(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.Xor(x, y) })
}

func (b *cellBuilder) sdiv(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.SDiv(x, y) })
}

func (b *cellBuilder) srem(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.SRem(x, y) })
}

func (b *cellBuilder) shl(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.Shl(x, y) })
}

func (b *cellBuilder) ashr(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.AShr(x, y) })
}

func (b *cellBuilder) neg(x *smt.BVExprPtr) *smt.BVExprPtr {
	if b.err != nil {
		return nil
	}
	return b.eb.Neg(x)
}

func (b *cellBuilder) ite(g *smt.BoolExprPtr, x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.bv(func() (*smt.BVExprPtr, error) { return b.eb.ITE(g, x, y) })
}

func (b *cellBuilder) eq(x, y *smt.BVExprPtr) *smt.BoolExprPtr {
	return b.bool(func() (*smt.BoolExprPtr, error) { return b.eb.Eq(x, y) })
}

func (b *cellBuilder) slt(x, y *smt.BVExprPtr) *smt.BoolExprPtr {
	return b.bool(func() (*smt.BoolExprPtr, error) { return b.eb.SLt(x, y) })
}

func (b *cellBuilder) sle(x, y *smt.BVExprPtr) *smt.BoolExprPtr {
	return b.bool(func() (*smt.BoolExprPtr, error) { return b.eb.SLe(x, y) })
}

func (b *cellBuilder) both(x, y *smt.BoolExprPtr) *smt.BoolExprPtr {
	return b.bool(func() (*smt.BoolExprPtr, error) { return b.eb.BoolAnd(x, y) })
}

// truth turns a condition into a 1/0 cell.
func (b *cellBuilder) truth(g *smt.BoolExprPtr) *smt.BVExprPtr {
	return b.ite(g, b.lit(1), b.lit(0))
}

func (b *cellBuilder) max(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.ite(b.slt(x, y), y, x)
}

func (b *cellBuilder) min(x, y *smt.BVExprPtr) *smt.BVExprPtr {
	return b.ite(b.slt(x, y), x, y)
}

func (b *cellBuilder) generate(cell func(r, c int) *smt.BVExprPtr) Value {
	return generate(b.cfg, cell)
}

func (b *cellBuilder) map1(x Value, f func(x *smt.BVExprPtr) *smt.BVExprPtr) Value {
	return b.generate(func(r, c int) *smt.BVExprPtr { return f(x.At(r, c)) })
}

func (b *cellBuilder) map2(x, y Value, f func(x, y *smt.BVExprPtr) *smt.BVExprPtr) Value {
	return b.generate(func(r, c int) *smt.BVExprPtr { return f(x.At(r, c), y.At(r, c)) })
}

func unary(f func(b *cellBuilder, x *smt.BVExprPtr) *smt.BVExprPtr) func(*cellBuilder, []Value) Value {
	return func(b *cellBuilder, args []Value) Value {
		return b.map1(args[0], func(x *smt.BVExprPtr) *smt.BVExprPtr { return f(b, x) })
	}
}

func binary(f func(b *cellBuilder, x, y *smt.BVExprPtr) *smt.BVExprPtr) func(*cellBuilder, []Value) Value {
	return func(b *cellBuilder, args []Value) Value {
		return b.map2(args[0], args[1], func(x, y *smt.BVExprPtr) *smt.BVExprPtr { return f(b, x, y) })
	}
}

// semantics holds the elementwise meaning of every semantic operator over
// signed cells. Comparisons yield 1 or 0.
var semantics = map[OpKind]func(b *cellBuilder, args []Value) Value{
	OpTfAbs: unary(func(b *cellBuilder, x *smt.BVExprPtr) *smt.BVExprPtr {
		return b.ite(b.slt(x, b.lit(0)), b.neg(x), x)
	}),
	OpTfNeg: unary(func(b *cellBuilder, x *smt.BVExprPtr) *smt.BVExprPtr {
		return b.neg(x)
	}),
	OpTfSquare: unary(func(b *cellBuilder, x *smt.BVExprPtr) *smt.BVExprPtr {
		return b.mul(x, x)
	}),
	OpTfOnesLike: unary(func(b *cellBuilder, _ *smt.BVExprPtr) *smt.BVExprPtr {
		return b.lit(1)
	}),
	OpTfZerosLike: unary(func(b *cellBuilder, _ *smt.BVExprPtr) *smt.BVExprPtr {
		return b.lit(0)
	}),
	OpTfLogicalNot: unary(func(b *cellBuilder, x *smt.BVExprPtr) *smt.BVExprPtr {
		return b.truth(b.eq(x, b.lit(0)))
	}),
	OpTfTranspose: func(b *cellBuilder, args []Value) Value {
		x := args[0]
		return b.generate(func(r, c int) *smt.BVExprPtr {
			if c < x.Rows && r < x.Cols {
				return x.At(c, r)
			}
			return b.lit(0)
		})
	},
	OpTfReduceSum0: func(b *cellBuilder, args []Value) Value {
		x := args[0]
		return b.generate(func(r, c int) *smt.BVExprPtr {
			if r != 0 {
				return b.lit(0)
			}
			sum := b.lit(0)
			for k := 0; k < x.Rows; k++ {
				sum = b.add(sum, x.At(k, c))
			}
			return sum
		})
	},
	OpTfReduceSum1: func(b *cellBuilder, args []Value) Value {
		x := args[0]
		return b.generate(func(r, c int) *smt.BVExprPtr {
			if c != 0 {
				return b.lit(0)
			}
			sum := b.lit(0)
			for k := 0; k < x.Cols; k++ {
				sum = b.add(sum, x.At(r, k))
			}
			return sum
		})
	},
	OpTfCumSum1: func(b *cellBuilder, args []Value) Value {
		x := args[0]
		return b.generate(func(r, c int) *smt.BVExprPtr {
			sum := b.lit(0)
			for k := 0; k <= c; k++ {
				sum = b.add(sum, x.At(r, k))
			}
			return sum
		})
	},

	OpTfAdd:     binary((*cellBuilder).add),
	OpTfSub:     binary((*cellBuilder).sub),
	OpTfMul:     binary((*cellBuilder).mul),
	OpTfMaximum: binary((*cellBuilder).max),
	OpTfMinimum: binary((*cellBuilder).min),
	OpTfEqual: binary(func(b *cellBuilder, x, y *smt.BVExprPtr) *smt.BVExprPtr {
		return b.truth(b.eq(x, y))
	}),
	OpTfNotEqual: binary(func(b *cellBuilder, x, y *smt.BVExprPtr) *smt.BVExprPtr {
		return b.ite(b.eq(x, y), b.lit(0), b.lit(1))
	}),
	OpTfGreater: binary(func(b *cellBuilder, x, y *smt.BVExprPtr) *smt.BVExprPtr {
		return b.truth(b.slt(y, x))
	}),
	OpTfGreaterEqual: binary(func(b *cellBuilder, x, y *smt.BVExprPtr) *smt.BVExprPtr {
		return b.truth(b.sle(y, x))
	}),
	OpTfBitwiseAnd: binary((*cellBuilder).and),
	OpTfBitwiseOr:  binary((*cellBuilder).or),
	OpTfBitwiseXor: binary((*cellBuilder).xor),

	// Division truncates toward zero. A zero divisor gives -1 (1 for a
	// negative dividend) and a zero modulus keeps the dividend.
	OpTfTruncateDiv: binary((*cellBuilder).sdiv),
	OpTfTruncateMod: binary((*cellBuilder).srem),
	// Shift amounts are read as unsigned; at or beyond the width the
	// result saturates.
	OpTfLeftShift:  binary((*cellBuilder).shl),
	OpTfRightShift: binary((*cellBuilder).ashr),

	OpTfWhere: func(b *cellBuilder, args []Value) Value {
		cond, x, y := args[0], args[1], args[2]
		return b.generate(func(r, c int) *smt.BVExprPtr {
			return b.ite(b.eq(cond.At(r, c), b.lit(0)), y.At(r, c), x.At(r, c))
		})
	},
	OpTfClipByValue: func(b *cellBuilder, args []Value) Value {
		lo, hi := args[1].At(0, 0), args[2].At(0, 0)
		return b.map1(args[0], func(x *smt.BVExprPtr) *smt.BVExprPtr {
			return b.min(b.max(x, lo), hi)
		})
	},

	// TfOneHot(indices, depth, on, off): cell (r, c) is on when
	// indices(r, 0) == c and c < depth, off otherwise.
	OpTfOneHot: func(b *cellBuilder, args []Value) Value {
		indices, depth := args[0], args[1].At(0, 0)
		on, off := args[2].At(0, 0), args[3].At(0, 0)
		return b.generate(func(r, c int) *smt.BVExprPtr {
			col := b.lit(int64(c))
			hot := b.both(b.eq(indices.At(r, 0), col), b.slt(col, depth))
			return b.ite(hot, on, off)
		})
	},
}
