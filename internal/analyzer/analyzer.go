package analyzer

import (
	"amylang/internal/ast"
	"amylang/internal/diag"
	"amylang/internal/source"
	"amylang/internal/symbolic"
	"amylang/internal/symbols"
)

// Analyze resolves every name in the program to a unique identifier,
// producing the symbolic AST and the frozen symbol table. Name errors are
// collected rather than stopping at the first; duplicate module names are
// fatal.
func Analyze(prog *ast.Program) (*symbolic.Program, *symbols.Table, *diag.Bag) {
	a := &analyzer{table: symbols.NewTable(), diags: &diag.Bag{}}
	a.registerStd()
	a.registerModules(prog)
	if a.diags.HasFatal() {
		return nil, nil, a.diags
	}
	a.registerAbstractClasses(prog)
	a.registerCaseClasses(prog)
	a.registerFunctions(prog)
	out := a.rewriteProgram(prog)
	a.table.Freeze()
	if a.diags.Failed() {
		return nil, nil, a.diags
	}
	return out, a.table, a.diags
}

type analyzer struct {
	table *symbols.Table
	diags *diag.Bag
}

// StdModule is the name of the built-in module.
const StdModule = "Std"

func (a *analyzer) registerStd() {
	std, _ := a.table.AddModule(StdModule)
	in := func(ts ...symbols.Type) []symbols.Type { return ts }
	a.table.AddFunction(std, "printInt", in(symbols.IntType()), symbols.UnitType())
	a.table.AddFunction(std, "printString", in(symbols.StringType()), symbols.UnitType())
	a.table.AddFunction(std, "readInt", in(), symbols.IntType())
	a.table.AddFunction(std, "readString", in(), symbols.StringType())
	a.table.AddFunction(std, "intToString", in(symbols.IntType()), symbols.StringType())
	a.table.AddFunction(std, "digitToString", in(symbols.IntType()), symbols.StringType())
}

// Pass 1: module registration.
func (a *analyzer) registerModules(prog *ast.Program) {
	for _, m := range prog.Modules {
		if _, ok := a.table.AddModule(m.Name); !ok {
			a.diags.Fatalf(m.S, "duplicate module: %s", m.Name)
		}
	}
}

// Pass 2: signatures, in source order per kind. Abstract classes are
// registered before case classes so that parents and abstract-class field
// types may be referenced from anywhere in the program. Case classes are
// registered in source order, so a case class used as a field type must be
// declared before the case class that uses it.
func (a *analyzer) registerAbstractClasses(prog *ast.Program) {
	for _, m := range prog.Modules {
		mid, _ := a.table.Module(m.Name)
		for _, d := range m.Defs {
			ac, ok := d.(*ast.AbstractClassDef)
			if !ok {
				continue
			}
			if _, ok := a.table.AddAbstractClass(mid, ac.Name); !ok {
				a.diags.Errorf(ac.S, "duplicate type: %s.%s", m.Name, ac.Name)
			}
		}
	}
}

func (a *analyzer) registerCaseClasses(prog *ast.Program) {
	for _, m := range prog.Modules {
		mid, _ := a.table.Module(m.Name)
		for _, d := range m.Defs {
			cc, ok := d.(*ast.CaseClassDef)
			if !ok {
				continue
			}
			parent, ok := a.table.LookupType(m.Name, cc.Parent)
			if !ok {
				a.diags.Errorf(cc.S, "unknown parent class: %s", cc.Parent)
				continue
			}
			if !a.table.IsAbstract(parent) {
				a.diags.Errorf(cc.S, "parent %s is not an abstract class", cc.Parent)
				continue
			}
			fields := make([]symbols.Type, 0, len(cc.Fields))
			for _, f := range cc.Fields {
				fields = append(fields, a.resolveType(f, m.Name))
			}
			if _, ok := a.table.AddCaseClass(mid, cc.Name, fields, parent); !ok {
				a.diags.Errorf(cc.S, "duplicate type: %s.%s", m.Name, cc.Name)
			}
		}
	}
}

func (a *analyzer) registerFunctions(prog *ast.Program) {
	for _, m := range prog.Modules {
		mid, _ := a.table.Module(m.Name)
		for _, d := range m.Defs {
			fd, ok := d.(*ast.FunDef)
			if !ok {
				continue
			}
			seen := map[string]bool{}
			params := make([]symbols.Type, 0, len(fd.Params))
			for _, p := range fd.Params {
				if seen[p.Name] {
					a.diags.Errorf(p.S, "duplicate parameter name: %s", p.Name)
				}
				seen[p.Name] = true
				params = append(params, a.resolveType(p.Type, m.Name))
			}
			ret := a.resolveType(fd.Ret, m.Name)
			if _, ok := a.table.AddFunction(mid, fd.Name, params, ret); !ok {
				a.diags.Errorf(fd.S, "duplicate function: %s.%s", m.Name, fd.Name)
			}
		}
	}
}

// resolveType maps a syntactic type tree to a symbolic type. Class
// references resolve in the named module, or in the current module when
// unqualified.
func (a *analyzer) resolveType(t ast.TypeTree, curModule string) symbols.Type {
	switch tt := t.(type) {
	case *ast.PrimType:
		switch tt.Kind {
		case ast.PrimInt:
			return symbols.IntType()
		case ast.PrimString:
			return symbols.StringType()
		case ast.PrimBoolean:
			return symbols.BooleanType()
		default:
			return symbols.UnitType()
		}
	case *ast.ClassTypeTree:
		module := tt.Name.Module
		if module == "" {
			module = curModule
		}
		id, ok := a.table.LookupType(module, tt.Name.Name)
		if !ok {
			a.diags.Errorf(tt.S, "unknown type: %s", tt.Name)
			return symbols.UnitType()
		}
		return symbols.ClassType(id)
	default:
		a.diags.Errorf(t.Span(), "unsupported type")
		return symbols.UnitType()
	}
}

// Pass 3: expression rewriting.

// env maps visible textual names to identifiers. It is threaded
// functionally: extension returns a child without mutating the parent.
type env struct {
	parent *env
	name   string
	id     symbols.Id
}

func (e *env) bind(name string, id symbols.Id) *env {
	return &env{parent: e, name: name, id: id}
}

func (e *env) lookup(name string) (symbols.Id, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.id, true
		}
	}
	return symbols.NoId, false
}

func (a *analyzer) rewriteProgram(prog *ast.Program) *symbolic.Program {
	out := &symbolic.Program{}
	for _, m := range prog.Modules {
		mid, _ := a.table.Module(m.Name)
		sm := &symbolic.ModuleDef{Id: mid, S: m.S}
		for _, d := range m.Defs {
			switch dd := d.(type) {
			case *ast.AbstractClassDef:
				id, _ := a.table.LookupType(m.Name, dd.Name)
				sm.Defs = append(sm.Defs, &symbolic.AbstractClassDef{Id: id, S: dd.S})
			case *ast.CaseClassDef:
				id, _ := a.table.LookupType(m.Name, dd.Name)
				sm.Defs = append(sm.Defs, &symbolic.CaseClassDef{Id: id, S: dd.S})
			case *ast.FunDef:
				sm.Defs = append(sm.Defs, a.rewriteFun(dd, m.Name))
			}
		}
		if m.Expr != nil {
			sm.Expr = a.rewriteExpr(m.Expr, nil, m.Name)
		}
		out.Modules = append(out.Modules, sm)
	}
	return out
}

func (a *analyzer) rewriteFun(fd *ast.FunDef, module string) *symbolic.FunDef {
	fid, ok := a.table.LookupFunction(module, fd.Name)
	if !ok {
		// Registration failed (duplicate); still rewrite the body so its
		// errors are reported.
		fid = symbols.NoId
	}
	var e *env
	var params []symbolic.ParamDef
	for _, p := range fd.Params {
		ty := a.resolveType(p.Type, module)
		pid := a.table.FreshLocal(p.Name)
		params = append(params, symbolic.ParamDef{Id: pid, Type: ty, S: p.S})
		e = e.bind(p.Name, pid)
	}
	body := a.rewriteExpr(fd.Body, e, module)
	return &symbolic.FunDef{Id: fid, Params: params, Body: body, S: fd.S}
}

func (a *analyzer) rewriteExpr(ex ast.Expr, e *env, module string) symbolic.Expr {
	switch n := ex.(type) {
	case *ast.Variable:
		if id, ok := e.lookup(n.Name); ok {
			return &symbolic.Variable{Id: id, S: n.S}
		}
		a.diags.Errorf(n.S, "undefined variable: %s", n.Name)
		return &symbolic.Variable{Id: symbols.NoId, S: n.S}
	case *ast.IntLiteral:
		return &symbolic.IntLiteral{Value: n.Value, S: n.S}
	case *ast.BooleanLiteral:
		return &symbolic.BooleanLiteral{Value: n.Value, S: n.S}
	case *ast.StringLiteral:
		return &symbolic.StringLiteral{Value: n.Value, S: n.S}
	case *ast.UnitLiteral:
		return &symbolic.UnitLiteral{S: n.S}
	case *ast.BinaryExpr:
		return &symbolic.BinaryExpr{
			Op:    n.Op,
			Left:  a.rewriteExpr(n.Left, e, module),
			Right: a.rewriteExpr(n.Right, e, module),
			S:     n.S,
		}
	case *ast.UnaryExpr:
		return &symbolic.UnaryExpr{Op: n.Op, Expr: a.rewriteExpr(n.Expr, e, module), S: n.S}
	case *ast.Call:
		id := a.resolveCallee(n.Callee, n.S, module)
		args := make([]symbolic.Expr, 0, len(n.Args))
		for _, arg := range n.Args {
			args = append(args, a.rewriteExpr(arg, e, module))
		}
		return &symbolic.Call{Callee: id, Args: args, S: n.S}
	case *ast.Sequence:
		return &symbolic.Sequence{
			First:  a.rewriteExpr(n.First, e, module),
			Second: a.rewriteExpr(n.Second, e, module),
			S:      n.S,
		}
	case *ast.Let:
		value := a.rewriteExpr(n.Value, e, module)
		ty := a.resolveType(n.Param.Type, module)
		pid := a.table.FreshLocal(n.Param.Name)
		// The binding is visible in the body only.
		body := a.rewriteExpr(n.Body, e.bind(n.Param.Name, pid), module)
		return &symbolic.Let{
			Param: symbolic.ParamDef{Id: pid, Type: ty, S: n.Param.S},
			Value: value,
			Body:  body,
			S:     n.S,
		}
	case *ast.Ite:
		return &symbolic.Ite{
			Cond: a.rewriteExpr(n.Cond, e, module),
			Then: a.rewriteExpr(n.Then, e, module),
			Else: a.rewriteExpr(n.Else, e, module),
			S:    n.S,
		}
	case *ast.Match:
		scrut := a.rewriteExpr(n.Scrut, e, module)
		cases := make([]symbolic.MatchCase, 0, len(n.Cases))
		for _, c := range n.Cases {
			// Each case extends the environment independently.
			pat, caseEnv := a.rewritePattern(c.Pat, e, module)
			body := a.rewriteExpr(c.Expr, caseEnv, module)
			cases = append(cases, symbolic.MatchCase{Pat: pat, Expr: body, S: c.S})
		}
		return &symbolic.Match{Scrut: scrut, Cases: cases, S: n.S}
	case *ast.Error:
		return &symbolic.Error{Msg: a.rewriteExpr(n.Msg, e, module), S: n.S}
	default:
		a.diags.Errorf(ex.Span(), "unsupported expression")
		return &symbolic.UnitLiteral{S: ex.Span()}
	}
}

// resolveCallee resolves a call target: functions first, then
// constructors, in the named module or the current one.
func (a *analyzer) resolveCallee(qn ast.QualifiedName, s source.Span, curModule string) symbols.Id {
	module := qn.Module
	if module == "" {
		module = curModule
	} else if _, ok := a.table.Module(module); !ok {
		a.diags.Errorf(s, "unknown module: %s", module)
		return symbols.NoId
	}
	if id, ok := a.table.LookupFunction(module, qn.Name); ok {
		return id
	}
	if id, ok := a.table.LookupConstructor(module, qn.Name); ok {
		return id
	}
	a.diags.Errorf(s, "unknown function or constructor: %s.%s", module, qn.Name)
	return symbols.NoId
}

// rewritePattern resolves a pattern, minting binder ids, and returns the
// environment extended with the bindings. Duplicate binders within one
// pattern are an error.
func (a *analyzer) rewritePattern(pat ast.Pattern, e *env, module string) (symbolic.Pattern, *env) {
	seen := map[string]bool{}
	var walk func(pat ast.Pattern) symbolic.Pattern
	walk = func(pat ast.Pattern) symbolic.Pattern {
		switch p := pat.(type) {
		case *ast.WildcardPattern:
			return &symbolic.WildcardPattern{S: p.S}
		case *ast.IdPattern:
			// Always a binder, never a nullary constructor.
			if seen[p.Name] {
				a.diags.Errorf(p.S, "duplicate binder in pattern: %s", p.Name)
			}
			seen[p.Name] = true
			id := a.table.FreshLocal(p.Name)
			e = e.bind(p.Name, id)
			return &symbolic.IdPattern{Id: id, S: p.S}
		case *ast.LiteralPattern:
			var lit symbolic.Expr
			switch l := p.Lit.(type) {
			case *ast.IntLiteral:
				lit = &symbolic.IntLiteral{Value: l.Value, S: l.S}
			case *ast.BooleanLiteral:
				lit = &symbolic.BooleanLiteral{Value: l.Value, S: l.S}
			case *ast.StringLiteral:
				lit = &symbolic.StringLiteral{Value: l.Value, S: l.S}
			default:
				lit = &symbolic.UnitLiteral{S: p.S}
			}
			return &symbolic.LiteralPattern{Lit: lit, S: p.S}
		case *ast.CaseClassPattern:
			cmod := p.Constr.Module
			if cmod == "" {
				cmod = module
			} else if _, ok := a.table.Module(cmod); !ok {
				a.diags.Errorf(p.S, "unknown module: %s", cmod)
			}
			id, ok := a.table.LookupConstructor(cmod, p.Constr.Name)
			if !ok {
				a.diags.Errorf(p.S, "unknown constructor: %s.%s", cmod, p.Constr.Name)
			}
			args := make([]symbolic.Pattern, 0, len(p.Args))
			for _, sub := range p.Args {
				args = append(args, walk(sub))
			}
			return &symbolic.CaseClassPattern{Constr: id, Args: args, S: p.S}
		default:
			a.diags.Errorf(pat.Span(), "unsupported pattern")
			return &symbolic.WildcardPattern{S: pat.Span()}
		}
	}
	out := walk(pat)
	return out, e
}
