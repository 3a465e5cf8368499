package codegen

import (
	"fmt"

	"amylang/internal/symbolic"
	"amylang/internal/symbols"
	"amylang/internal/wasm"
)

// Compile lowers a type-checked symbolic program to one wasm module.
// All lowering is deterministic: functions are emitted in source order,
// runtime helpers first.
func Compile(prog *symbolic.Program, table *symbols.Table, name string) *wasm.Module {
	cg := &codegen{table: table}
	m := &wasm.Module{Name: name, Imports: wasm.DefaultImports()}
	m.Funcs = append(m.Funcs, cg.runtimeFuncs()...)
	for _, mod := range prog.Modules {
		modName, _ := table.ModuleName(mod.Id)
		for _, d := range mod.Defs {
			fd, ok := d.(*symbolic.FunDef)
			if !ok {
				continue
			}
			m.Funcs = append(m.Funcs, cg.compileFun(modName, fd))
		}
		if mod.Expr != nil {
			fg := &funcGen{cg: cg, locals: 0, env: map[symbols.Id]int{}}
			body := fg.genExpr(mod.Expr)
			body = append(body, wasm.Drop{})
			m.Funcs = append(m.Funcs, &wasm.Func{
				Name:   modName + "_main",
				Export: true,
				Locals: fg.locals,
				Body:   body,
			})
		}
	}
	return m
}

type codegen struct {
	table *symbols.Table
}

// funcName renders the WAT-level name of a function or constructor.
func (cg *codegen) funcName(id symbols.Id) string {
	sig, ok := cg.table.Function(id)
	if !ok {
		panic(fmt.Sprintf("codegen: no function signature for %s", cg.table.Name(id)))
	}
	owner, _ := cg.table.ModuleName(sig.Owner)
	return owner + "_" + cg.table.Name(id)
}

func (cg *codegen) compileFun(modName string, fd *symbolic.FunDef) *wasm.Func {
	fg := &funcGen{cg: cg, env: map[symbols.Id]int{}}
	for _, p := range fd.Params {
		fg.env[p.Id] = fg.locals
		fg.locals++
	}
	params := fg.locals
	body := fg.genExpr(fd.Body)
	return &wasm.Func{
		Name:   modName + "_" + cg.table.Name(fd.Id),
		Params: params,
		Result: true,
		Locals: fg.locals - params,
		Body:   body,
	}
}

// funcGen tracks per-function state: the local index space (parameters
// first) and the identifier-to-local binding.
type funcGen struct {
	cg     *codegen
	locals int
	env    map[symbols.Id]int
}

func (fg *funcGen) newLocal() int {
	l := fg.locals
	fg.locals++
	return l
}

func (fg *funcGen) genExpr(e symbolic.Expr) []wasm.Instr {
	switch n := e.(type) {
	case *symbolic.Variable:
		return []wasm.Instr{wasm.LocalGet(fg.env[n.Id])}
	case *symbolic.IntLiteral:
		return []wasm.Instr{wasm.I32Const(n.Value)}
	case *symbolic.BooleanLiteral:
		if n.Value {
			return []wasm.Instr{wasm.I32Const(1)}
		}
		return []wasm.Instr{wasm.I32Const(0)}
	case *symbolic.UnitLiteral:
		return []wasm.Instr{wasm.I32Const(0)}
	case *symbolic.StringLiteral:
		return stringLiteral(n.Value)
	case *symbolic.BinaryExpr:
		return fg.genBinary(n)
	case *symbolic.UnaryExpr:
		operand := fg.genExpr(n.Expr)
		switch n.Op {
		case "-":
			// -e lowers to 0 - e.
			return append([]wasm.Instr{wasm.I32Const(0)}, append(operand, wasm.Instr(wasm.Sub))...)
		case "!":
			return append(operand, wasm.I32Const(1), wasm.Xor)
		default:
			panic("codegen: unknown unary operator " + n.Op)
		}
	case *symbolic.Call:
		return fg.genCall(n)
	case *symbolic.Sequence:
		out := fg.genExpr(n.First)
		out = append(out, wasm.Drop{})
		return append(out, fg.genExpr(n.Second)...)
	case *symbolic.Let:
		out := fg.genExpr(n.Value)
		l := fg.newLocal()
		fg.env[n.Param.Id] = l
		out = append(out, wasm.LocalSet(l))
		return append(out, fg.genExpr(n.Body)...)
	case *symbolic.Ite:
		out := fg.genExpr(n.Cond)
		return append(out, wasm.If{
			Result: true,
			Then:   fg.genExpr(n.Then),
			Else:   fg.genExpr(n.Else),
		})
	case *symbolic.Match:
		return fg.genMatch(n)
	case *symbolic.Error:
		out := fg.genExpr(n.Msg)
		return append(out, wasm.Call("Std_printString"), wasm.Drop{}, wasm.Unreachable{})
	default:
		panic(fmt.Sprintf("codegen: unsupported expression %T", e))
	}
}

func (fg *funcGen) genBinary(n *symbolic.BinaryExpr) []wasm.Instr {
	switch n.Op {
	case "&&":
		// Short-circuit: false && _ is false without evaluating the rhs.
		out := fg.genExpr(n.Left)
		return append(out, wasm.If{
			Result: true,
			Then:   fg.genExpr(n.Right),
			Else:   []wasm.Instr{wasm.I32Const(0)},
		})
	case "||":
		out := fg.genExpr(n.Left)
		return append(out, wasm.If{
			Result: true,
			Then:   []wasm.Instr{wasm.I32Const(1)},
			Else:   fg.genExpr(n.Right),
		})
	case "++":
		out := fg.genExpr(n.Left)
		out = append(out, fg.genExpr(n.Right)...)
		return append(out, wasm.Call("String_concat"))
	}
	out := fg.genExpr(n.Left)
	out = append(out, fg.genExpr(n.Right)...)
	switch n.Op {
	case "+":
		return append(out, wasm.Add)
	case "-":
		return append(out, wasm.Sub)
	case "*":
		return append(out, wasm.Mul)
	case "/":
		return append(out, wasm.DivS)
	case "%":
		return append(out, wasm.RemS)
	case "<":
		return append(out, wasm.LtS)
	case "<=":
		return append(out, wasm.LeS)
	case "==":
		// Pointer equality for heap values, value equality for the rest;
		// both are i32.eq on the representation.
		return append(out, wasm.Eq)
	default:
		panic("codegen: unknown binary operator " + n.Op)
	}
}

func (fg *funcGen) genCall(n *symbolic.Call) []wasm.Instr {
	if sig, ok := fg.cg.table.Constructor(n.Callee); ok {
		return fg.genConstruct(n, sig)
	}
	var out []wasm.Instr
	for _, a := range n.Args {
		out = append(out, fg.genExpr(a)...)
	}
	return append(out, wasm.Call(fg.cg.funcName(n.Callee)))
}

// genConstruct allocates a tagged record: word 0 holds the constructor's
// sibling index, words 1..n the field values. The heap pointer is bumped
// before the arguments run, since they may allocate themselves.
func (fg *funcGen) genConstruct(n *symbolic.Call, sig symbols.ConstrSig) []wasm.Instr {
	base := fg.newLocal()
	size := 4 * (1 + len(n.Args))
	out := []wasm.Instr{
		wasm.GlobalGet(0), wasm.LocalSet(base),
		wasm.GlobalGet(0), wasm.I32Const(int32(size)), wasm.Add, wasm.GlobalSet(0),
		wasm.LocalGet(base), wasm.I32Const(int32(sig.Index)), wasm.Store{},
	}
	for i, a := range n.Args {
		out = append(out, wasm.LocalGet(base))
		out = append(out, fg.genExpr(a)...)
		out = append(out, wasm.Store{Offset: 4 * (i + 1)})
	}
	return append(out, wasm.LocalGet(base))
}

// genMatch lowers a match to a chain of tests over a local holding the
// scrutinee. Arms are tried in order; when none matches the program
// prints a message and traps.
func (fg *funcGen) genMatch(n *symbolic.Match) []wasm.Instr {
	scrut := fg.newLocal()
	out := fg.genExpr(n.Scrut)
	out = append(out, wasm.LocalSet(scrut))

	var arm func(i int) []wasm.Instr
	arm = func(i int) []wasm.Instr {
		if i == len(n.Cases) {
			fail := stringLiteral("Match error!")
			fail = append(fail, wasm.Call("Std_printString"), wasm.Drop{}, wasm.Unreachable{})
			return fail
		}
		c := n.Cases[i]
		test := fg.genPatternTest(c.Pat, scrut)
		return append(test, wasm.If{
			Result: true,
			Then:   fg.genExpr(c.Expr),
			Else:   arm(i + 1),
		})
	}
	return append(out, arm(0)...)
}

// genPatternTest leaves 1 on the stack when the pattern matches the value
// in the given local, 0 otherwise. Binders store into fresh locals as a
// side effect of a (possibly partial) test.
func (fg *funcGen) genPatternTest(p symbolic.Pattern, scrut int) []wasm.Instr {
	switch n := p.(type) {
	case *symbolic.WildcardPattern:
		return []wasm.Instr{wasm.I32Const(1)}
	case *symbolic.IdPattern:
		l := fg.newLocal()
		fg.env[n.Id] = l
		return []wasm.Instr{wasm.LocalGet(scrut), wasm.LocalSet(l), wasm.I32Const(1)}
	case *symbolic.LiteralPattern:
		out := []wasm.Instr{wasm.LocalGet(scrut)}
		out = append(out, fg.genExpr(n.Lit)...)
		return append(out, wasm.Eq)
	case *symbolic.CaseClassPattern:
		sig, ok := fg.cg.table.Constructor(n.Constr)
		if !ok {
			panic("codegen: pattern names no constructor")
		}
		out := []wasm.Instr{
			wasm.LocalGet(scrut), wasm.Load{}, wasm.I32Const(int32(sig.Index)), wasm.Eq,
		}
		if len(n.Args) == 0 {
			return out
		}
		// Tag matched: load each field into a local and test the
		// sub-patterns, combined with short-circuit and.
		var sub func(i int) []wasm.Instr
		sub = func(i int) []wasm.Instr {
			field := fg.newLocal()
			instrs := []wasm.Instr{
				wasm.LocalGet(scrut), wasm.Load{Offset: 4 * (i + 1)}, wasm.LocalSet(field),
			}
			instrs = append(instrs, fg.genPatternTest(n.Args[i], field)...)
			if i == len(n.Args)-1 {
				return instrs
			}
			return append(instrs, wasm.If{
				Result: true,
				Then:   sub(i + 1),
				Else:   []wasm.Instr{wasm.I32Const(0)},
			})
		}
		return append(out, wasm.If{
			Result: true,
			Then:   sub(0),
			Else:   []wasm.Instr{wasm.I32Const(0)},
		})
	default:
		panic(fmt.Sprintf("codegen: unsupported pattern %T", p))
	}
}

// stringLiteral materializes a constant string at the heap pointer and
// leaves the base address on the stack. Content bytes and the NUL are
// stored; the fresh region's padding is already zero. The pointer
// advances to the next 4-byte boundary.
func stringLiteral(s string) []wasm.Instr {
	var out []wasm.Instr
	for i := 0; i < len(s); i++ {
		out = append(out, wasm.GlobalGet(0), wasm.I32Const(int32(s[i])), wasm.Store8{Offset: i})
	}
	out = append(out, wasm.GlobalGet(0), wasm.I32Const(0), wasm.Store8{Offset: len(s)})
	out = append(out,
		wasm.GlobalGet(0),
		wasm.GlobalGet(0), wasm.I32Const(int32(align4(len(s)+1))), wasm.Add, wasm.GlobalSet(0),
	)
	return out
}

func align4(n int) int { return (n + 3) &^ 3 }
