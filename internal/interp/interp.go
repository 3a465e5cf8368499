package interp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"amylang/internal/symbolic"
	"amylang/internal/symbols"
)

// Run executes the program's module top-level expressions in order,
// reading from in and writing to out. Runtime failures (explicit
// error(...), match failure, division by zero, bad input) are returned
// as errors.
func Run(prog *symbolic.Program, table *symbols.Table, in io.Reader, out io.Writer) error {
	rt := &runtime{
		table:    table,
		funcs:    map[symbols.Id]*symbolic.FunDef{},
		builtins: map[symbols.Id]string{},
		in:       bufio.NewScanner(in),
		out:      out,
	}
	for _, name := range []string{"printInt", "printString", "readInt", "readString", "intToString", "digitToString"} {
		if id, ok := table.LookupFunction("Std", name); ok {
			rt.builtins[id] = name
		}
	}
	for _, m := range prog.Modules {
		for _, d := range m.Defs {
			if fd, ok := d.(*symbolic.FunDef); ok {
				rt.funcs[fd.Id] = fd
			}
		}
	}
	for _, m := range prog.Modules {
		if m.Expr == nil {
			continue
		}
		if _, err := rt.eval(m.Expr, map[symbols.Id]Value{}); err != nil {
			return err
		}
	}
	return nil
}

type runtime struct {
	table    *symbols.Table
	funcs    map[symbols.Id]*symbolic.FunDef
	builtins map[symbols.Id]string
	in       *bufio.Scanner
	out      io.Writer
}

func (rt *runtime) eval(e symbolic.Expr, env map[symbols.Id]Value) (Value, error) {
	switch n := e.(type) {
	case *symbolic.Variable:
		return env[n.Id], nil
	case *symbolic.IntLiteral:
		return intV(n.Value), nil
	case *symbolic.BooleanLiteral:
		return boolV(n.Value), nil
	case *symbolic.StringLiteral:
		return strV(n.Value), nil
	case *symbolic.UnitLiteral:
		return unit(), nil
	case *symbolic.BinaryExpr:
		return rt.evalBinary(n, env)
	case *symbolic.UnaryExpr:
		v, err := rt.eval(n.Expr, env)
		if err != nil {
			return Value{}, err
		}
		if n.Op == "-" {
			return intV(-v.I), nil
		}
		return boolV(!v.B), nil
	case *symbolic.Call:
		return rt.evalCall(n, env)
	case *symbolic.Sequence:
		if _, err := rt.eval(n.First, env); err != nil {
			return Value{}, err
		}
		return rt.eval(n.Second, env)
	case *symbolic.Let:
		v, err := rt.eval(n.Value, env)
		if err != nil {
			return Value{}, err
		}
		bodyEnv := copyEnv(env)
		bodyEnv[n.Param.Id] = v
		return rt.eval(n.Body, bodyEnv)
	case *symbolic.Ite:
		c, err := rt.eval(n.Cond, env)
		if err != nil {
			return Value{}, err
		}
		if c.B {
			return rt.eval(n.Then, env)
		}
		return rt.eval(n.Else, env)
	case *symbolic.Match:
		v, err := rt.eval(n.Scrut, env)
		if err != nil {
			return Value{}, err
		}
		for _, c := range n.Cases {
			binds := map[symbols.Id]Value{}
			if matchPattern(c.Pat, v, binds) {
				caseEnv := copyEnv(env)
				for id, bv := range binds {
					caseEnv[id] = bv
				}
				return rt.eval(c.Expr, caseEnv)
			}
		}
		return Value{}, fmt.Errorf("match error: no case matched %s", v.display())
	case *symbolic.Error:
		msg, err := rt.eval(n.Msg, env)
		if err != nil {
			return Value{}, err
		}
		return Value{}, fmt.Errorf("error: %s", msg.S.Str)
	default:
		return Value{}, fmt.Errorf("interp: unsupported expression %T", e)
	}
}

func (rt *runtime) evalBinary(n *symbolic.BinaryExpr, env map[symbols.Id]Value) (Value, error) {
	// && and || short-circuit before the rhs runs.
	if n.Op == "&&" || n.Op == "||" {
		l, err := rt.eval(n.Left, env)
		if err != nil {
			return Value{}, err
		}
		if n.Op == "&&" && !l.B {
			return boolV(false), nil
		}
		if n.Op == "||" && l.B {
			return boolV(true), nil
		}
		return rt.eval(n.Right, env)
	}
	l, err := rt.eval(n.Left, env)
	if err != nil {
		return Value{}, err
	}
	r, err := rt.eval(n.Right, env)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case "+":
		return intV(l.I + r.I), nil
	case "-":
		return intV(l.I - r.I), nil
	case "*":
		return intV(l.I * r.I), nil
	case "/":
		if r.I == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return intV(l.I / r.I), nil
	case "%":
		if r.I == 0 {
			return Value{}, fmt.Errorf("modulo by zero")
		}
		return intV(l.I % r.I), nil
	case "<":
		return boolV(l.I < r.I), nil
	case "<=":
		return boolV(l.I <= r.I), nil
	case "==":
		return boolV(equal(l, r)), nil
	case "++":
		return strV(l.S.Str + r.S.Str), nil
	default:
		return Value{}, fmt.Errorf("interp: unknown operator %s", n.Op)
	}
}

func (rt *runtime) evalCall(n *symbolic.Call, env map[symbols.Id]Value) (Value, error) {
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := rt.eval(a, env)
		if err != nil {
			return Value{}, err
		}
		args = append(args, v)
	}
	if _, ok := rt.table.Constructor(n.Callee); ok {
		return Value{K: VCase, C: &CaseBox{Constr: n.Callee, Fields: args}}, nil
	}
	if name, ok := rt.builtins[n.Callee]; ok {
		return rt.callBuiltin(name, args)
	}
	fd, ok := rt.funcs[n.Callee]
	if !ok {
		return Value{}, fmt.Errorf("interp: call to unknown function %s", rt.table.FullName(n.Callee))
	}
	frame := map[symbols.Id]Value{}
	for i, p := range fd.Params {
		frame[p.Id] = args[i]
	}
	return rt.eval(fd.Body, frame)
}

func (rt *runtime) callBuiltin(name string, args []Value) (Value, error) {
	switch name {
	case "printInt":
		fmt.Fprintln(rt.out, args[0].I)
		return unit(), nil
	case "printString":
		fmt.Fprintln(rt.out, args[0].S.Str)
		return unit(), nil
	case "readInt":
		line, err := rt.readLine()
		if err != nil {
			return Value{}, err
		}
		v, err := strconv.ParseInt(strings.TrimSpace(line), 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("readInt: invalid input: %q", line)
		}
		return intV(int32(v)), nil
	case "readString":
		line, err := rt.readLine()
		if err != nil {
			return Value{}, err
		}
		return strV(line), nil
	case "intToString":
		return strV(strconv.FormatInt(int64(args[0].I), 10)), nil
	case "digitToString":
		return strV(string(rune('0' + args[0].I))), nil
	default:
		return Value{}, fmt.Errorf("interp: unknown builtin %s", name)
	}
}

func (rt *runtime) readLine() (string, error) {
	if !rt.in.Scan() {
		if err := rt.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return rt.in.Text(), nil
}

func matchPattern(p symbolic.Pattern, v Value, binds map[symbols.Id]Value) bool {
	switch n := p.(type) {
	case *symbolic.WildcardPattern:
		return true
	case *symbolic.IdPattern:
		binds[n.Id] = v
		return true
	case *symbolic.LiteralPattern:
		switch lit := n.Lit.(type) {
		case *symbolic.IntLiteral:
			return v.K == VInt && v.I == lit.Value
		case *symbolic.BooleanLiteral:
			return v.K == VBool && v.B == lit.Value
		case *symbolic.StringLiteral:
			// Reference equality: a fresh literal box never equals the
			// scrutinee.
			return false
		case *symbolic.UnitLiteral:
			return v.K == VUnit
		default:
			return false
		}
	case *symbolic.CaseClassPattern:
		if v.K != VCase || v.C.Constr != n.Constr {
			return false
		}
		if len(n.Args) != len(v.C.Fields) {
			return false
		}
		for i, sub := range n.Args {
			if !matchPattern(sub, v.C.Fields[i], binds) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func copyEnv(env map[symbols.Id]Value) map[symbols.Id]Value {
	out := make(map[symbols.Id]Value, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
