package interp

import (
	"strconv"

	"amylang/internal/symbols"
)

type ValueKind int

const (
	VUnit ValueKind = iota
	VBool
	VInt
	VString
	VCase
)

// Value is one runtime value. Strings and case-class instances are boxed
// so that equality can compare the boxes, matching the compiled
// representation's pointer equality.
type Value struct {
	K ValueKind
	I int32
	B bool
	S *StringBox
	C *CaseBox
}

type StringBox struct {
	Str string
}

type CaseBox struct {
	Constr symbols.Id
	Fields []Value
}

func unit() Value         { return Value{K: VUnit} }
func intV(i int32) Value  { return Value{K: VInt, I: i} }
func boolV(b bool) Value  { return Value{K: VBool, B: b} }
func strV(s string) Value { return Value{K: VString, S: &StringBox{Str: s}} }

// equal implements Amy equality: value equality for primitives, reference
// equality for strings and case-class instances. The type checker has
// already guaranteed both sides share a type.
func equal(a, b Value) bool {
	switch a.K {
	case VUnit:
		return true
	case VBool:
		return a.B == b.B
	case VInt:
		return a.I == b.I
	case VString:
		return a.S == b.S
	case VCase:
		return a.C == b.C
	default:
		return false
	}
}

func (v Value) display() string {
	switch v.K {
	case VUnit:
		return "()"
	case VBool:
		return strconv.FormatBool(v.B)
	case VInt:
		return strconv.FormatInt(int64(v.I), 10)
	case VString:
		return v.S.Str
	case VCase:
		return "<object>"
	default:
		return "<value>"
	}
}
