package typer

import (
	"amylang/internal/diag"
	"amylang/internal/source"
	"amylang/internal/symbolic"
	"amylang/internal/symbols"
)

// Check verifies the program against Amy's monomorphic type discipline by
// generating equality constraints and solving them by unification. The
// solver runs once per function body and once per module top-level
// expression; type errors are collected across runs.
func Check(prog *symbolic.Program, table *symbols.Table) *diag.Bag {
	c := &checker{table: table, diags: &diag.Bag{}}
	for _, m := range prog.Modules {
		for _, d := range m.Defs {
			fd, ok := d.(*symbolic.FunDef)
			if !ok {
				continue
			}
			sig, ok := table.Function(fd.Id)
			if !ok {
				continue
			}
			env := map[symbols.Id]typeOrVar{}
			for i, p := range fd.Params {
				if i < len(sig.Params) {
					env[p.Id] = concrete(sig.Params[i])
				}
			}
			c.solve(c.genConstraints(fd.Body, concrete(sig.Ret), env))
		}
		if m.Expr != nil {
			// A module initializer's type is free.
			c.solve(c.genConstraints(m.Expr, c.freshVar(), map[symbols.Id]typeOrVar{}))
		}
	}
	return c.diags
}

type checker struct {
	table   *symbols.Table
	diags   *diag.Bag
	nextVar int
}

// typeOrVar is either a concrete type or a type variable that exists only
// while checking; variables never leak into the post-check AST.
type typeOrVar struct {
	isVar bool
	v     int
	ty    symbols.Type
}

func concrete(t symbols.Type) typeOrVar { return typeOrVar{ty: t} }

func (c *checker) freshVar() typeOrVar {
	c.nextVar++
	return typeOrVar{isVar: true, v: c.nextVar}
}

// constraint demands found = expected, reported at s on failure.
type constraint struct {
	found    typeOrVar
	expected typeOrVar
	s        source.Span
}

// genConstraints emits the top-level constraint for e plus the recursive
// constraints of its subterms. env maps local identifiers to their types.
func (c *checker) genConstraints(e symbolic.Expr, expected typeOrVar, env map[symbols.Id]typeOrVar) []constraint {
	top := func(found typeOrVar) constraint {
		return constraint{found: found, expected: expected, s: e.Span()}
	}
	switch n := e.(type) {
	case *symbolic.Variable:
		ty, ok := env[n.Id]
		if !ok {
			// Name analysis already reported this; keep the solver quiet.
			ty = c.freshVar()
		}
		return []constraint{top(ty)}
	case *symbolic.IntLiteral:
		return []constraint{top(concrete(symbols.IntType()))}
	case *symbolic.BooleanLiteral:
		return []constraint{top(concrete(symbols.BooleanType()))}
	case *symbolic.StringLiteral:
		return []constraint{top(concrete(symbols.StringType()))}
	case *symbolic.UnitLiteral:
		return []constraint{top(concrete(symbols.UnitType()))}
	case *symbolic.BinaryExpr:
		var cs []constraint
		switch n.Op {
		case "+", "-", "*", "/", "%":
			cs = append(cs, c.genConstraints(n.Left, concrete(symbols.IntType()), env)...)
			cs = append(cs, c.genConstraints(n.Right, concrete(symbols.IntType()), env)...)
			cs = append(cs, top(concrete(symbols.IntType())))
		case "<", "<=":
			cs = append(cs, c.genConstraints(n.Left, concrete(symbols.IntType()), env)...)
			cs = append(cs, c.genConstraints(n.Right, concrete(symbols.IntType()), env)...)
			cs = append(cs, top(concrete(symbols.BooleanType())))
		case "&&", "||":
			cs = append(cs, c.genConstraints(n.Left, concrete(symbols.BooleanType()), env)...)
			cs = append(cs, c.genConstraints(n.Right, concrete(symbols.BooleanType()), env)...)
			cs = append(cs, top(concrete(symbols.BooleanType())))
		case "==":
			// The operands must agree; their common type is otherwise free.
			alpha := c.freshVar()
			cs = append(cs, c.genConstraints(n.Left, alpha, env)...)
			cs = append(cs, c.genConstraints(n.Right, alpha, env)...)
			cs = append(cs, top(concrete(symbols.BooleanType())))
		case "++":
			cs = append(cs, c.genConstraints(n.Left, concrete(symbols.StringType()), env)...)
			cs = append(cs, c.genConstraints(n.Right, concrete(symbols.StringType()), env)...)
			cs = append(cs, top(concrete(symbols.StringType())))
		default:
			c.diags.Errorf(n.S, "unknown operator: %s", n.Op)
		}
		return cs
	case *symbolic.UnaryExpr:
		var cs []constraint
		switch n.Op {
		case "-":
			cs = append(cs, c.genConstraints(n.Expr, concrete(symbols.IntType()), env)...)
			cs = append(cs, top(concrete(symbols.IntType())))
		case "!":
			cs = append(cs, c.genConstraints(n.Expr, concrete(symbols.BooleanType()), env)...)
			cs = append(cs, top(concrete(symbols.BooleanType())))
		default:
			c.diags.Errorf(n.S, "unknown operator: %s", n.Op)
		}
		return cs
	case *symbolic.Call:
		params, ret, ok := c.calleeSig(n.Callee)
		if !ok {
			return nil
		}
		if len(n.Args) != len(params) {
			c.diags.Errorf(n.S, "wrong number of arguments for %s: expected %d, found %d",
				c.table.FullName(n.Callee), len(params), len(n.Args))
		}
		var cs []constraint
		for i, arg := range n.Args {
			if i < len(params) {
				cs = append(cs, c.genConstraints(arg, concrete(params[i]), env)...)
			}
		}
		cs = append(cs, top(concrete(ret)))
		return cs
	case *symbolic.Sequence:
		var cs []constraint
		cs = append(cs, c.genConstraints(n.First, c.freshVar(), env)...)
		cs = append(cs, c.genConstraints(n.Second, expected, env)...)
		return cs
	case *symbolic.Let:
		var cs []constraint
		cs = append(cs, c.genConstraints(n.Value, concrete(n.Param.Type), env)...)
		bodyEnv := copyEnv(env)
		bodyEnv[n.Param.Id] = concrete(n.Param.Type)
		cs = append(cs, c.genConstraints(n.Body, expected, bodyEnv)...)
		return cs
	case *symbolic.Ite:
		var cs []constraint
		cs = append(cs, c.genConstraints(n.Cond, concrete(symbols.BooleanType()), env)...)
		cs = append(cs, c.genConstraints(n.Then, expected, env)...)
		cs = append(cs, c.genConstraints(n.Else, expected, env)...)
		return cs
	case *symbolic.Match:
		sigma := c.freshVar()
		cs := c.genConstraints(n.Scrut, sigma, env)
		for _, mc := range n.Cases {
			caseEnv := copyEnv(env)
			cs = append(cs, c.genPatternConstraints(mc.Pat, sigma, caseEnv)...)
			cs = append(cs, c.genConstraints(mc.Expr, expected, caseEnv)...)
		}
		return cs
	case *symbolic.Error:
		// error(...) diverges, so it satisfies any expectation.
		return c.genConstraints(n.Msg, concrete(symbols.StringType()), env)
	default:
		c.diags.Errorf(e.Span(), "unsupported expression")
		return nil
	}
}

// genPatternConstraints emits constraints for a pattern matched against
// the expected scrutinee type and installs its binders into env.
func (c *checker) genPatternConstraints(p symbolic.Pattern, expected typeOrVar, env map[symbols.Id]typeOrVar) []constraint {
	switch n := p.(type) {
	case *symbolic.WildcardPattern:
		return nil
	case *symbolic.IdPattern:
		env[n.Id] = expected
		return nil
	case *symbolic.LiteralPattern:
		return c.genConstraints(n.Lit, expected, env)
	case *symbolic.CaseClassPattern:
		sig, ok := c.table.Constructor(n.Constr)
		if !ok {
			return nil
		}
		if len(n.Args) != len(sig.Params) {
			c.diags.Errorf(n.S, "wrong number of sub-patterns for %s: expected %d, found %d",
				c.table.FullName(n.Constr), len(sig.Params), len(n.Args))
		}
		cs := []constraint{{found: concrete(symbols.ClassType(sig.Parent)), expected: expected, s: n.S}}
		for i, sub := range n.Args {
			if i < len(sig.Params) {
				cs = append(cs, c.genPatternConstraints(sub, concrete(sig.Params[i]), env)...)
			}
		}
		return cs
	default:
		c.diags.Errorf(p.Span(), "unsupported pattern")
		return nil
	}
}

// calleeSig returns the parameter and result types of a function or
// constructor. A constructor's result is its parent class type.
func (c *checker) calleeSig(id symbols.Id) ([]symbols.Type, symbols.Type, bool) {
	if sig, ok := c.table.Function(id); ok {
		return sig.Params, sig.Ret, true
	}
	if sig, ok := c.table.Constructor(id); ok {
		return sig.Params, symbols.ClassType(sig.Parent), true
	}
	return nil, symbols.Type{}, false
}

// solve unifies the constraints head-first: a variable on either side is
// substituted with the other side throughout the remaining constraints;
// identical concrete types are discarded; anything else is a type error
// at the constraint's position. Types are first-order and non-recursive,
// so no occurs check is needed.
func (c *checker) solve(cs []constraint) {
	for len(cs) > 0 {
		con := cs[0]
		cs = cs[1:]
		f, e := con.found, con.expected
		switch {
		case f.isVar && e.isVar && f.v == e.v:
			// trivially satisfied
		case f.isVar:
			substitute(cs, f.v, e)
		case e.isVar:
			substitute(cs, e.v, f)
		case f.ty.Equals(e.ty):
			// satisfied
		default:
			c.diags.Errorf(con.s, "type error: expected %s, found %s",
				c.table.TypeString(e.ty), c.table.TypeString(f.ty))
		}
	}
}

func substitute(cs []constraint, v int, with typeOrVar) {
	for i := range cs {
		if cs[i].found.isVar && cs[i].found.v == v {
			cs[i].found = with
		}
		if cs[i].expected.isVar && cs[i].expected.v == v {
			cs[i].expected = with
		}
	}
}

func copyEnv(env map[symbols.Id]typeOrVar) map[symbols.Id]typeOrVar {
	out := make(map[symbols.Id]typeOrVar, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}
