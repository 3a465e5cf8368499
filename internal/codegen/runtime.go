package codegen

import "amylang/internal/wasm"

// The runtime support functions emitted into every module: string
// concatenation over NUL-terminated byte runs, the two Int-to-String
// conversions, and the readString wrapper over the readString0 import.

func (cg *codegen) runtimeFuncs() []*wasm.Func {
	return []*wasm.Func{
		stringConcat(),
		digitToString(),
		intToString(),
		readString(),
	}
}

// stringConcat copies both strings byte-by-byte to the current heap
// pointer, NUL-terminates, advances the global to the next 4-byte
// boundary and returns the start of the copy.
//
// Locals: 0=a 1=b (params), 2=dst cursor, 3=src cursor, 4=current byte,
// 5=base.
func stringConcat() *wasm.Func {
	const (
		a    = 0
		b    = 1
		dst  = 2
		src  = 3
		ch   = 4
		base = 5
	)
	copyLoop := func(from int) []wasm.Instr {
		return []wasm.Instr{
			wasm.LocalGet(from), wasm.LocalSet(src),
			wasm.Block{Body: []wasm.Instr{
				wasm.Loop{Body: []wasm.Instr{
					wasm.LocalGet(src), wasm.Load8U{}, wasm.LocalSet(ch),
					wasm.LocalGet(ch), wasm.Eqz, wasm.BrIf(1),
					wasm.LocalGet(dst), wasm.LocalGet(ch), wasm.Store8{},
					wasm.LocalGet(dst), wasm.I32Const(1), wasm.Add, wasm.LocalSet(dst),
					wasm.LocalGet(src), wasm.I32Const(1), wasm.Add, wasm.LocalSet(src),
					wasm.Br(0),
				}},
			}},
		}
	}
	body := []wasm.Instr{
		wasm.GlobalGet(0), wasm.LocalSet(base),
		wasm.GlobalGet(0), wasm.LocalSet(dst),
	}
	body = append(body, copyLoop(a)...)
	body = append(body, copyLoop(b)...)
	body = append(body,
		// Terminate and pad with zeros up to the 4-byte boundary; the
		// fresh region is already zeroed, one explicit NUL suffices.
		wasm.LocalGet(dst), wasm.I32Const(0), wasm.Store8{},
		// new heap = (dst + 1 + 3) & ^3
		wasm.LocalGet(dst), wasm.I32Const(4), wasm.Add,
		wasm.I32Const(-4), wasm.And, wasm.GlobalSet(0),
		wasm.LocalGet(base),
	)
	return &wasm.Func{Name: "String_concat", Params: 2, Result: true, Locals: 4, Body: body}
}

// digitToString allocates a fresh 4-byte string holding one decimal digit.
func digitToString() *wasm.Func {
	return &wasm.Func{
		Name:   "Std_digitToString",
		Params: 1,
		Result: true,
		Body: []wasm.Instr{
			wasm.GlobalGet(0), wasm.LocalGet(0), wasm.I32Const('0'), wasm.Add, wasm.Store8{},
			wasm.GlobalGet(0),
			wasm.GlobalGet(0), wasm.I32Const(4), wasm.Add, wasm.GlobalSet(0),
		},
	}
}

// intToString converts recursively: a sign prefix for negatives, then one
// digit per division step, joined with String_concat.
func intToString() *wasm.Func {
	minus := stringLiteral("-")
	body := []wasm.Instr{
		wasm.LocalGet(0), wasm.I32Const(0), wasm.LtS,
		wasm.If{
			Result: true,
			Then: append(minus,
				wasm.I32Const(0), wasm.LocalGet(0), wasm.Sub,
				wasm.Call("Std_intToString"),
				wasm.Call("String_concat"),
			),
			Else: []wasm.Instr{
				wasm.LocalGet(0), wasm.I32Const(10), wasm.LtS,
				wasm.If{
					Result: true,
					Then: []wasm.Instr{
						wasm.LocalGet(0), wasm.Call("Std_digitToString"),
					},
					Else: []wasm.Instr{
						wasm.LocalGet(0), wasm.I32Const(10), wasm.DivS, wasm.Call("Std_intToString"),
						wasm.LocalGet(0), wasm.I32Const(10), wasm.RemS, wasm.Call("Std_digitToString"),
						wasm.Call("String_concat"),
					},
				},
			},
		},
	}
	return &wasm.Func{Name: "Std_intToString", Params: 1, Result: true, Body: body}
}

// readString hands the current heap pointer to the host, which writes the
// line NUL-padded to a 4-byte boundary and returns the new heap pointer.
func readString() *wasm.Func {
	return &wasm.Func{
		Name:   "Std_readString",
		Result: true,
		Body: []wasm.Instr{
			wasm.GlobalGet(0),
			wasm.GlobalGet(0), wasm.Call("js_readString0"), wasm.GlobalSet(0),
		},
	}
}
