package parser

import (
	"testing"

	"amylang/internal/ast"
	"amylang/internal/lexer"
	"amylang/internal/source"
)

func parseString(t *testing.T, src string) (*ast.Program, bool) {
	t.Helper()
	toks, diags := lexer.Lex(source.NewFile("test.amy", src))
	if diags.Failed() {
		t.Fatalf("lex failure: %+v", diags.Items)
	}
	prog, diags := Parse(toks)
	return prog, diags.Failed()
}

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, failed := parseString(t, src)
	if failed {
		t.Fatalf("unexpected parse failure for %q", src)
	}
	return prog
}

func TestParseSimpleModule(t *testing.T) {
	prog := mustParse(t, `object H { def f(x: Int): Int = { x + 1 }; f(41) }`)
	if len(prog.Modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(prog.Modules))
	}
	m := prog.Modules[0]
	if m.Name != "H" {
		t.Fatalf("expected module H, got %q", m.Name)
	}
	if len(m.Defs) != 1 {
		t.Fatalf("expected 1 def, got %d", len(m.Defs))
	}
	fd, ok := m.Defs[0].(*ast.FunDef)
	if !ok || fd.Name != "f" || len(fd.Params) != 1 {
		t.Fatalf("unexpected fun def: %#v", m.Defs[0])
	}
	call, ok := m.Expr.(*ast.Call)
	if !ok || call.Callee.Name != "f" || len(call.Args) != 1 {
		t.Fatalf("expected top-level call f(41), got %#v", m.Expr)
	}
}

func TestParseClassHierarchy(t *testing.T) {
	prog := mustParse(t, `object M {
  abstract class L
  case class N() extends L
  case class C(h: Int, t: L) extends L
  C(1, C(2, N()))
}`)
	m := prog.Modules[0]
	if len(m.Defs) != 3 {
		t.Fatalf("expected 3 defs, got %d", len(m.Defs))
	}
	cc, ok := m.Defs[2].(*ast.CaseClassDef)
	if !ok || cc.Name != "C" || cc.Parent != "L" || len(cc.Fields) != 2 {
		t.Fatalf("unexpected case class: %#v", m.Defs[2])
	}
	if _, ok := cc.Fields[1].(*ast.ClassTypeTree); !ok {
		t.Fatalf("expected class type field, got %#v", cc.Fields[1])
	}
}

func TestPrecedenceAndAssociativity(t *testing.T) {
	prog := mustParse(t, `object P { 1 + 2 * 3 < 4 - 5 - 6 && true || false }`)
	// || is loosest: (expr && true) || false
	or, ok := prog.Modules[0].Expr.(*ast.BinaryExpr)
	if !ok || or.Op != "||" {
		t.Fatalf("expected || at the root, got %#v", prog.Modules[0].Expr)
	}
	and, ok := or.Left.(*ast.BinaryExpr)
	if !ok || and.Op != "&&" {
		t.Fatalf("expected && under ||, got %#v", or.Left)
	}
	lt, ok := and.Left.(*ast.BinaryExpr)
	if !ok || lt.Op != "<" {
		t.Fatalf("expected < under &&, got %#v", and.Left)
	}
	// 1 + 2*3: + with a * on the right
	add, ok := lt.Left.(*ast.BinaryExpr)
	if !ok || add.Op != "+" {
		t.Fatalf("expected +, got %#v", lt.Left)
	}
	if mul, ok := add.Right.(*ast.BinaryExpr); !ok || mul.Op != "*" {
		t.Fatalf("expected * on the right of +, got %#v", add.Right)
	}
	// 4 - 5 - 6 is left-associative: (4-5)-6
	sub, ok := lt.Right.(*ast.BinaryExpr)
	if !ok || sub.Op != "-" {
		t.Fatalf("expected -, got %#v", lt.Right)
	}
	if inner, ok := sub.Left.(*ast.BinaryExpr); !ok || inner.Op != "-" {
		t.Fatalf("subtraction should left-fold, got %#v", sub.Left)
	}
}

func TestUnitLiteralVersusGrouping(t *testing.T) {
	prog := mustParse(t, `object U { () }`)
	if _, ok := prog.Modules[0].Expr.(*ast.UnitLiteral); !ok {
		t.Fatalf("expected unit literal, got %#v", prog.Modules[0].Expr)
	}
	prog = mustParse(t, `object U { (1 + 2) * 3 }`)
	mul, ok := prog.Modules[0].Expr.(*ast.BinaryExpr)
	if !ok || mul.Op != "*" {
		t.Fatalf("expected * at the root, got %#v", prog.Modules[0].Expr)
	}
}

func TestMatchChains(t *testing.T) {
	prog := mustParse(t, `object M { x match { case _ => 1 } match { case _ => 2 } }`)
	outer, ok := prog.Modules[0].Expr.(*ast.Match)
	if !ok {
		t.Fatalf("expected match, got %#v", prog.Modules[0].Expr)
	}
	if _, ok := outer.Scrut.(*ast.Match); !ok {
		t.Fatalf("match chain should left-fold, got %#v", outer.Scrut)
	}
}

func TestMatchBindsLooserThanOperators(t *testing.T) {
	prog := mustParse(t, `object M { 1 + 2 match { case _ => 0 } }`)
	m, ok := prog.Modules[0].Expr.(*ast.Match)
	if !ok {
		t.Fatalf("expected match at the root, got %#v", prog.Modules[0].Expr)
	}
	if add, ok := m.Scrut.(*ast.BinaryExpr); !ok || add.Op != "+" {
		t.Fatalf("scrutinee should be the sum, got %#v", m.Scrut)
	}
}

func TestValAndSequence(t *testing.T) {
	prog := mustParse(t, `object V { val x: Int = 1; x + 1; 2 }`)
	let, ok := prog.Modules[0].Expr.(*ast.Let)
	if !ok {
		t.Fatalf("expected let, got %#v", prog.Modules[0].Expr)
	}
	if _, ok := let.Body.(*ast.Sequence); !ok {
		t.Fatalf("let body should be a sequence, got %#v", let.Body)
	}
}

func TestPatterns(t *testing.T) {
	prog := mustParse(t, `object P {
  x match {
    case 0 => 1
    case "s" => 2
    case true => 3
    case () => 4
    case _ => 5
    case y => y
    case C(0, t) => 6
    case M.C(h, _) => 7
  }
}`)
	m := prog.Modules[0].Expr.(*ast.Match)
	if len(m.Cases) != 8 {
		t.Fatalf("expected 8 cases, got %d", len(m.Cases))
	}
	if _, ok := m.Cases[5].Pat.(*ast.IdPattern); !ok {
		t.Fatalf("a bare identifier pattern is a binder, got %#v", m.Cases[5].Pat)
	}
	cc, ok := m.Cases[7].Pat.(*ast.CaseClassPattern)
	if !ok || cc.Constr.Module != "M" || cc.Constr.Name != "C" {
		t.Fatalf("expected qualified constructor pattern, got %#v", m.Cases[7].Pat)
	}
}

func TestQualifiedCall(t *testing.T) {
	prog := mustParse(t, `object Q { Std.printInt(1) }`)
	call, ok := prog.Modules[0].Expr.(*ast.Call)
	if !ok || call.Callee.Module != "Std" || call.Callee.Name != "printInt" {
		t.Fatalf("expected qualified call, got %#v", prog.Modules[0].Expr)
	}
}

func TestErrorExpression(t *testing.T) {
	prog := mustParse(t, `object E { error("boom") }`)
	if _, ok := prog.Modules[0].Expr.(*ast.Error); !ok {
		t.Fatalf("expected error expression, got %#v", prog.Modules[0].Expr)
	}
}

func TestParseErrorsAreFatal(t *testing.T) {
	for _, src := range []string{
		`object {}`,
		`object X { def f(: Int): Int = { 1 } }`,
		`object X { 1 + }`,
		`object X { if (true) { 1 } }`,
		`object X`,
	} {
		toks, diags := lexer.Lex(source.NewFile("test.amy", src))
		if diags.Failed() {
			continue
		}
		prog, diags := Parse(toks)
		if !diags.HasFatal() {
			t.Errorf("expected fatal parse error for %q", src)
		}
		if prog != nil {
			t.Errorf("failed parse should not return a program for %q", src)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	srcs := []string{
		`object H { def f(x: Int): Int = { x + 1 }; f(41) }`,
		`object M {
  abstract class L
  case class N() extends L
  case class C(h: Int, t: L) extends L
  def sum(l: L): Int = {
    l match {
      case N() => 0
      case C(h, t) => h + sum(t)
    }
  }
  Std.printInt(sum(C(1, C(2, N()))))
}`,
		`object S { val x: String = "ab" ++ "cd"; if (true && false) { x } else { "y" } }`,
		`object U { -1 + !true match { case _ => () } }`,
	}
	for _, src := range srcs {
		first := mustParse(t, src)
		printed := ast.String(first)
		second, failed := parseString(t, printed)
		if failed {
			t.Fatalf("printed form does not reparse:\n%s", printed)
		}
		if ast.String(second) != printed {
			t.Errorf("round trip mismatch:\n--- printed\n%s\n--- reprinted\n%s", printed, ast.String(second))
		}
	}
}
