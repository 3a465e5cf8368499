package wasm

import (
	"strings"
	"testing"
)

func TestWatPreamble(t *testing.T) {
	m := &Module{Name: "t", Imports: DefaultImports()}
	out := m.WatString()
	for _, want := range []string{
		`(import "system" "mem" (memory 100))`,
		`(import "system" "printInt" (func $Std_printInt (param i32) (result i32)))`,
		`(import "system" "printString" (func $Std_printString (param i32) (result i32)))`,
		`(import "system" "readInt" (func $Std_readInt (result i32)))`,
		`(import "system" "readString0" (func $js_readString0 (param i32) (result i32)))`,
		`(global (mut i32) i32.const 0)`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWatFunction(t *testing.T) {
	f := &Func{
		Name:   "M_f",
		Params: 1,
		Result: true,
		Locals: 1,
		Body: []Instr{
			LocalGet(0), I32Const(1), Add, LocalSet(1),
			LocalGet(1),
		},
	}
	m := &Module{Name: "t", Imports: DefaultImports(), Funcs: []*Func{f}}
	out := m.WatString()
	for _, want := range []string{
		"(func $M_f (param i32) (result i32) (local i32)",
		"local.get 0",
		"i32.const 1",
		"i32.add",
		"local.set 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWatExportAndControl(t *testing.T) {
	f := &Func{
		Name:   "M_main",
		Export: true,
		Body: []Instr{
			I32Const(1),
			If{
				Result: true,
				Then:   []Instr{I32Const(42)},
				Else:   []Instr{I32Const(0), Unreachable{}},
			},
			Drop{},
		},
	}
	m := &Module{Name: "t", Imports: DefaultImports(), Funcs: []*Func{f}}
	out := m.WatString()
	for _, want := range []string{
		`(func $M_main (export "M_main")`,
		"(if (result i32)",
		"(then",
		"(else",
		"unreachable",
		"drop",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWatLoopAndMemory(t *testing.T) {
	f := &Func{
		Name:   "copy",
		Params: 1,
		Result: true,
		Body: []Instr{
			Block{Body: []Instr{Loop{Body: []Instr{
				LocalGet(0), Load8U{}, Eqz, BrIf(1),
				LocalGet(0), I32Const(0), Store8{Offset: 4},
				Br(0),
			}}}},
			LocalGet(0), Load{Offset: 8},
		},
	}
	m := &Module{Name: "t", Imports: DefaultImports(), Funcs: []*Func{f}}
	out := m.WatString()
	for _, want := range []string{
		"(block", "(loop", "br_if 1", "br 0",
		"i32.load8_u", "i32.store8 offset=4", "i32.load offset=8",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestBalancedParens(t *testing.T) {
	m := &Module{Name: "t", Imports: DefaultImports(), Funcs: []*Func{
		{Name: "f", Result: true, Body: []Instr{
			I32Const(1),
			If{Result: true, Then: []Instr{I32Const(1)}, Else: []Instr{I32Const(0)}},
		}},
	}}
	out := m.WatString()
	depth := 0
	for _, ch := range out {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth < 0 {
			t.Fatalf("unbalanced parens:\n%s", out)
		}
	}
	if depth != 0 {
		t.Fatalf("parens do not balance (%d):\n%s", depth, out)
	}
}
