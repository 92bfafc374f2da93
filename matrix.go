package synth

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/carbonium14/my-synth-loop-free-prog-sub000/smt"
)

// Matrix is concrete row-major data. Cells are read as two's complement
// numbers at the configured bit width.
type Matrix struct {
	Rows int
	Cols int
	Data []int64
}

// NewMatrix builds a Matrix from rows. Short rows are zero-filled up to the
// longest one.
func NewMatrix(rows [][]int64) Matrix {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	m := Zeros(len(rows), cols)
	for i, r := range rows {
		copy(m.Data[i*cols:], r)
	}
	return m
}

func Scalar(v int64) Matrix {
	return Matrix{Rows: 1, Cols: 1, Data: []int64{v}}
}

func Zeros(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]int64, rows*cols)}
}

func (m Matrix) At(r, c int) int64 {
	return m.Data[r*m.Cols+c]
}

func (m Matrix) Set(r, c int, v int64) {
	m.Data[r*m.Cols+c] = v
}

// Slice returns the top-left rows x cols rectangle of m.
func (m Matrix) Slice(rows, cols int) Matrix {
	res := Zeros(rows, cols)
	for r := 0; r < rows && r < m.Rows; r++ {
		for c := 0; c < cols && c < m.Cols; c++ {
			res.Set(r, c, m.At(r, c))
		}
	}
	return res
}

func (m Matrix) Equal(o Matrix) bool {
	if m.Rows != o.Rows || m.Cols != o.Cols {
		return false
	}
	for i := range m.Data {
		if m.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

func (m Matrix) String() string {
	b := strings.Builder{}
	b.WriteString("[")
	for r := 0; r < m.Rows; r++ {
		if r > 0 {
			b.WriteString(" ")
		}
		b.WriteString("[")
		for c := 0; c < m.Cols; c++ {
			if c > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%d", m.At(r, c))
		}
		b.WriteString("]")
	}
	b.WriteString("]")
	return b.String()
}

// Value is a symbolic matrix materialized at the full configured bound, one
// bit-vector expression per cell.
type Value struct {
	Rows  int
	Cols  int
	Cells []*smt.BVExprPtr
}

// FreshValue creates a Value of fresh symbols named name_r_c.
func FreshValue(eb *smt.ExprBuilder, name string, cfg Config) Value {
	v := Value{Rows: cfg.Rows, Cols: cfg.Cols, Cells: make([]*smt.BVExprPtr, cfg.cells())}
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			v.Cells[r*cfg.Cols+c] = eb.BVS(fmt.Sprintf("%s_%d_%d", name, r, c), cfg.BitWidth)
		}
	}
	return v
}

// ConstValue lifts m to the full bound. Cells outside m are zero.
func ConstValue(eb *smt.ExprBuilder, m Matrix, cfg Config) (Value, error) {
	if m.Rows > cfg.Rows || m.Cols > cfg.Cols {
		return Value{}, errors.Wrapf(ErrShapeOutOfBounds, "%dx%d does not fit %dx%d", m.Rows, m.Cols, cfg.Rows, cfg.Cols)
	}
	return generate(cfg, func(r, c int) *smt.BVExprPtr {
		if r < m.Rows && c < m.Cols {
			return eb.BVV(m.At(r, c), cfg.BitWidth)
		}
		return eb.BVV(0, cfg.BitWidth)
	}), nil
}

func generate(cfg Config, cell func(r, c int) *smt.BVExprPtr) Value {
	v := Value{Rows: cfg.Rows, Cols: cfg.Cols, Cells: make([]*smt.BVExprPtr, cfg.cells())}
	for r := 0; r < cfg.Rows; r++ {
		for c := 0; c < cfg.Cols; c++ {
			v.Cells[r*cfg.Cols+c] = cell(r, c)
		}
	}
	return v
}

func (v Value) At(r, c int) *smt.BVExprPtr {
	return v.Cells[r*v.Cols+c]
}

// Equal is the cell-by-cell conjunction over the full bound.
func (v Value) Equal(eb *smt.ExprBuilder, o Value) (*smt.BoolExprPtr, error) {
	if v.Rows != o.Rows || v.Cols != o.Cols {
		return nil, errors.Errorf("cannot compare %dx%d with %dx%d", v.Rows, v.Cols, o.Rows, o.Cols)
	}
	eqs := make([]*smt.BoolExprPtr, 0, len(v.Cells))
	for i := range v.Cells {
		eq, err := eb.Eq(v.Cells[i], o.Cells[i])
		if err != nil {
			return nil, err
		}
		eqs = append(eqs, eq)
	}
	return eb.BoolAndAll(eqs...)
}

// Matrix converts a fully constant Value to a Matrix at the full bound.
func (v Value) Matrix() (Matrix, error) {
	m := Zeros(v.Rows, v.Cols)
	for i, cell := range v.Cells {
		c, err := cell.GetConst()
		if err != nil {
			return Matrix{}, errors.Errorf("cell %d is not constant: %s", i, cell)
		}
		m.Data[i] = c.AsLong()
	}
	return m, nil
}

// Concretize evaluates v under interp. Symbols interp does not assign
// default to zero.
func (v Value) Concretize(eb *smt.ExprBuilder, interp smt.Interpretation) (Matrix, error) {
	cells := make([]*smt.BVExprPtr, len(v.Cells))
	for i, cell := range v.Cells {
		r, err := eb.EvalBV(cell, interp)
		if err != nil {
			return Matrix{}, err
		}
		if !r.IsConst() {
			zeros := smt.Interpretation{}
			for _, sym := range eb.InvolvedInputs(r) {
				zeros[sym.String()] = smt.MakeBVConst(0, sym.Size())
			}
			if r, err = eb.EvalBV(r, zeros); err != nil {
				return Matrix{}, err
			}
		}
		cells[i] = r
	}
	return Value{Rows: v.Rows, Cols: v.Cols, Cells: cells}.Matrix()
}
