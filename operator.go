package synth

import (
	"fmt"
	"strings"
)

// Id names the instruction producing a value. Ids are dense and 0-based.
type Id uint32

func (id Id) String() string {
	return fmt.Sprintf("%%%d", uint32(id))
}

type OpKind uint8

const (
	OpVar OpKind = iota
	OpConst

	OpTfAbs
	OpTfNeg
	OpTfSquare
	OpTfOnesLike
	OpTfZerosLike
	OpTfLogicalNot
	OpTfTranspose
	OpTfReduceSum0
	OpTfReduceSum1
	OpTfCumSum1

	OpTfAdd
	OpTfSub
	OpTfMul
	OpTfMaximum
	OpTfMinimum
	OpTfEqual
	OpTfNotEqual
	OpTfGreater
	OpTfGreaterEqual
	OpTfBitwiseAnd
	OpTfBitwiseOr
	OpTfBitwiseXor
	OpTfTruncateDiv
	OpTfTruncateMod
	OpTfLeftShift
	OpTfRightShift

	OpTfWhere
	OpTfClipByValue

	OpTfOneHot

	numOpKinds
)

type opInfo struct {
	name  string
	arity int
}

var opInfos = [numOpKinds]opInfo{
	OpVar:   {"Var", 0},
	OpConst: {"Const", 0},

	OpTfAbs:        {"TfAbs", 1},
	OpTfNeg:        {"TfNeg", 1},
	OpTfSquare:     {"TfSquare", 1},
	OpTfOnesLike:   {"TfOnesLike", 1},
	OpTfZerosLike:  {"TfZerosLike", 1},
	OpTfLogicalNot: {"TfLogicalNot", 1},
	OpTfTranspose:  {"TfTranspose", 1},
	OpTfReduceSum0: {"TfReduceSum0", 1},
	OpTfReduceSum1: {"TfReduceSum1", 1},
	OpTfCumSum1:    {"TfCumSum1", 1},

	OpTfAdd:          {"TfAdd", 2},
	OpTfSub:          {"TfSub", 2},
	OpTfMul:          {"TfMul", 2},
	OpTfMaximum:      {"TfMaximum", 2},
	OpTfMinimum:      {"TfMinimum", 2},
	OpTfEqual:        {"TfEqual", 2},
	OpTfNotEqual:     {"TfNotEqual", 2},
	OpTfGreater:      {"TfGreater", 2},
	OpTfGreaterEqual: {"TfGreaterEqual", 2},
	OpTfBitwiseAnd:   {"TfBitwiseAnd", 2},
	OpTfBitwiseOr:    {"TfBitwiseOr", 2},
	OpTfBitwiseXor:   {"TfBitwiseXor", 2},
	OpTfTruncateDiv:  {"TfTruncateDiv", 2},
	OpTfTruncateMod:  {"TfTruncateMod", 2},
	OpTfLeftShift:    {"TfLeftShift", 2},
	OpTfRightShift:   {"TfRightShift", 2},

	OpTfWhere:       {"TfWhere", 3},
	OpTfClipByValue: {"TfClipByValue", 3},

	OpTfOneHot: {"TfOneHot", 4},
}

func (k OpKind) String() string {
	if k >= numOpKinds {
		return fmt.Sprintf("OpKind(%d)", uint8(k))
	}
	return opInfos[k].name
}

// Arity is the fixed number of operands of k.
func (k OpKind) Arity() int {
	if k >= numOpKinds {
		return 0
	}
	return opInfos[k].arity
}

// IsSemantic reports whether k computes a value from operands, as opposed
// to Var and Const.
func (k OpKind) IsSemantic() bool {
	return k > OpConst && k < numOpKinds
}

// SemanticKinds lists every operator with a component, in catalog order.
func SemanticKinds() []OpKind {
	kinds := make([]OpKind, 0, numOpKinds-OpTfAbs)
	for k := OpTfAbs; k < numOpKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseOpKind resolves an operator name as printed by OpKind.String.
func ParseOpKind(name string) (OpKind, bool) {
	for k := OpKind(0); k < numOpKinds; k++ {
		if strings.EqualFold(opInfos[k].name, name) {
			return k, true
		}
	}
	return 0, false
}

// Operator is the decoded form of one instruction. Args holds exactly
// Kind.Arity() operands; Value is set only for OpConst.
type Operator struct {
	Kind  OpKind
	Args  []Id
	Value *Matrix
}

func (o Operator) Arity() int {
	return o.Kind.Arity()
}

func (o Operator) Operands() []Id {
	return o.Args
}

// MapOperands returns a copy of o with every operand rewritten by f.
func (o Operator) MapOperands(f func(Id) Id) Operator {
	res := Operator{Kind: o.Kind, Value: o.Value}
	if len(o.Args) > 0 {
		res.Args = make([]Id, len(o.Args))
		for i, a := range o.Args {
			res.Args[i] = f(a)
		}
	}
	return res
}

func (o Operator) String() string {
	switch o.Kind {
	case OpVar:
		return "Var"
	case OpConst:
		if o.Value == nil {
			return "Const(?)"
		}
		return fmt.Sprintf("Const(%s)", o.Value)
	}
	args := make([]string, len(o.Args))
	for i, a := range o.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", o.Kind, strings.Join(args, ", "))
}

type Instruction struct {
	Result Id
	Op     Operator
}

func (i Instruction) String() string {
	return fmt.Sprintf("%s ← %s", i.Result, i.Op)
}
