package analyzer

import (
	"testing"

	"amylang/internal/ast"
	"amylang/internal/diag"
	"amylang/internal/lexer"
	"amylang/internal/parser"
	"amylang/internal/source"
	"amylang/internal/symbolic"
	"amylang/internal/symbols"
)

func analyzeString(t *testing.T, src string) (*symbolic.Program, *symbols.Table, *diag.Bag) {
	t.Helper()
	toks, diags := lexer.Lex(source.NewFile("test.amy", src))
	if diags.Failed() {
		t.Fatalf("lex failure: %+v", diags.Items)
	}
	prog, diags := parser.Parse(toks)
	if diags.Failed() {
		t.Fatalf("parse failure: %+v", diags.Items)
	}
	return Analyze(prog)
}

func mustAnalyze(t *testing.T, src string) (*symbolic.Program, *symbols.Table) {
	t.Helper()
	sprog, table, diags := analyzeString(t, src)
	if diags.Failed() {
		t.Fatalf("unexpected analysis failure: %+v", diags.Items)
	}
	return sprog, table
}

const hierarchySrc = `object M {
  abstract class L
  case class N() extends L
  case class C(h: Int, t: L) extends L
  def sum(l: L): Int = {
    l match {
      case N() => 0
      case C(h, t) => h + sum(t)
    }
  }
  sum(C(1, C(2, N())))
}`

func TestResolvesHierarchyAndAssignsTags(t *testing.T) {
	_, table := mustAnalyze(t, hierarchySrc)
	nid, ok := table.LookupConstructor("M", "N")
	if !ok {
		t.Fatalf("constructor N not registered")
	}
	cid, ok := table.LookupConstructor("M", "C")
	if !ok {
		t.Fatalf("constructor C not registered")
	}
	ns, _ := table.Constructor(nid)
	cs, _ := table.Constructor(cid)
	if ns.Index != 0 || cs.Index != 1 {
		t.Fatalf("tags: N=%d C=%d, want 0 and 1", ns.Index, cs.Index)
	}
	lid, _ := table.LookupType("M", "L")
	if ns.Parent != lid || cs.Parent != lid {
		t.Fatalf("both constructors must extend L")
	}
	if len(cs.Params) != 2 || !cs.Params[1].Equals(symbols.ClassType(lid)) {
		t.Fatalf("C's second field must be L, got %+v", cs.Params)
	}
}

func TestStdIsPredeclared(t *testing.T) {
	_, table := mustAnalyze(t, `object A { Std.printInt(Std.readInt()) }`)
	for _, name := range []string{"printInt", "printString", "readInt", "readString", "intToString", "digitToString"} {
		if _, ok := table.LookupFunction("Std", name); !ok {
			t.Errorf("Std.%s not registered", name)
		}
	}
}

func TestDuplicateModuleIsFatal(t *testing.T) {
	_, _, diags := analyzeString(t, `object A { () } object A { () }`)
	if !diags.HasFatal() {
		t.Fatalf("expected fatal diagnostic for duplicate module")
	}
}

func TestUserModuleNamedStdIsFatal(t *testing.T) {
	_, _, diags := analyzeString(t, `object Std { () }`)
	if !diags.HasFatal() {
		t.Fatalf("redefining Std must be fatal")
	}
}

func TestNameErrorsAreCollected(t *testing.T) {
	_, _, diags := analyzeString(t, `object A {
  case class C(x: Int) extends Missing
  def f(a: Int, a: Int): Unknown = { b }
  unknownFun(1)
}`)
	if diags.HasFatal() {
		t.Fatalf("collected name errors must not be fatal")
	}
	if !diags.Failed() {
		t.Fatalf("expected errors")
	}
	if len(diags.Items) < 5 {
		t.Fatalf("expected at least 5 errors (parent, dup param, unknown type, unknown var, unknown fun), got %d: %+v",
			len(diags.Items), diags.Items)
	}
}

func TestParentMustBeAbstract(t *testing.T) {
	_, _, diags := analyzeString(t, `object A {
  abstract class L
  case class C() extends L
  case class D() extends C
}`)
	if !diags.Failed() {
		t.Fatalf("extending a case class must be an error")
	}
}

func TestLetScopesToBodyOnly(t *testing.T) {
	// x is visible in the let body but not in the initializer.
	_, _, diags := analyzeString(t, `object A { val x: Int = x; x }`)
	if !diags.Failed() {
		t.Fatalf("x must not be visible in its own initializer")
	}
	mustAnalyze(t, `object A { val x: Int = 1; x }`)
}

func TestCaseBranchesAreIndependent(t *testing.T) {
	_, _, diags := analyzeString(t, `object A {
  abstract class L
  case class C(h: Int) extends L
  def f(l: L): Int = {
    l match {
      case C(h) => h
      case _ => h
    }
  }
}`)
	if !diags.Failed() {
		t.Fatalf("a binder must not leak into the following case")
	}
}

func TestDuplicateBindersInOnePattern(t *testing.T) {
	_, _, diags := analyzeString(t, `object A {
  abstract class L
  case class C(h: Int, t: Int) extends L
  def f(l: L): Int = {
    l match {
      case C(x, x) => x
    }
  }
}`)
	if !diags.Failed() {
		t.Fatalf("duplicate binders in one pattern must be an error")
	}
}

func TestIdPatternIsAlwaysABinder(t *testing.T) {
	sprog, _ := mustAnalyze(t, `object A {
  abstract class L
  case class N() extends L
  def f(l: L): Int = {
    l match {
      case N => 1
    }
  }
}`)
	fd := sprog.Modules[0].Defs[2].(*symbolic.FunDef)
	m := fd.Body.(*symbolic.Match)
	if _, ok := m.Cases[0].Pat.(*symbolic.IdPattern); !ok {
		t.Fatalf("a bare name in pattern position binds, got %#v", m.Cases[0].Pat)
	}
}

func TestQualifiedResolution(t *testing.T) {
	sprog, table := mustAnalyze(t, `object A {
  def f(): Int = { 1 }
}
object B {
  A.f() + Std.readInt()
}`)
	seq := sprog.Modules[1].Expr.(*symbolic.BinaryExpr)
	call := seq.Left.(*symbolic.Call)
	fid, _ := table.LookupFunction("A", "f")
	if call.Callee != fid {
		t.Fatalf("A.f must resolve to the registered id")
	}
}

func TestDeterministicIds(t *testing.T) {
	run := func() []symbols.Id {
		sprog, table := mustAnalyze(t, hierarchySrc)
		_ = table
		var ids []symbols.Id
		var walkExpr func(e symbolic.Expr)
		walkExpr = func(e symbolic.Expr) {
			switch n := e.(type) {
			case *symbolic.Variable:
				ids = append(ids, n.Id)
			case *symbolic.Call:
				ids = append(ids, n.Callee)
				for _, a := range n.Args {
					walkExpr(a)
				}
			case *symbolic.BinaryExpr:
				walkExpr(n.Left)
				walkExpr(n.Right)
			case *symbolic.Match:
				walkExpr(n.Scrut)
				for _, c := range n.Cases {
					walkExpr(c.Expr)
				}
			}
		}
		for _, m := range sprog.Modules {
			for _, d := range m.Defs {
				if fd, ok := d.(*symbolic.FunDef); ok {
					ids = append(ids, fd.Id)
					walkExpr(fd.Body)
				}
			}
			if m.Expr != nil {
				walkExpr(m.Expr)
			}
		}
		return ids
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("two runs resolved different id counts: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("id %d differs across runs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestTableIsFrozen(t *testing.T) {
	_, table := mustAnalyze(t, `object A { () }`)
	defer func() {
		if recover() == nil {
			t.Fatalf("the returned table must be frozen")
		}
	}()
	table.AddModule("X")
}

func TestNominalAstUntouched(t *testing.T) {
	toks, _ := lexer.Lex(source.NewFile("test.amy", `object A { val x: Int = 1; x }`))
	prog, _ := parser.Parse(toks)
	before := ast.String(prog)
	Analyze(prog)
	if ast.String(prog) != before {
		t.Fatalf("analysis must not mutate the nominal AST")
	}
}
