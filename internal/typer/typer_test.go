package typer

import (
	"strings"
	"testing"

	"amylang/internal/analyzer"
	"amylang/internal/diag"
	"amylang/internal/lexer"
	"amylang/internal/parser"
	"amylang/internal/source"
)

func checkString(t *testing.T, src string) *diag.Bag {
	t.Helper()
	toks, diags := lexer.Lex(source.NewFile("test.amy", src))
	if diags.Failed() {
		t.Fatalf("lex failure: %+v", diags.Items)
	}
	prog, diags := parser.Parse(toks)
	if diags.Failed() {
		t.Fatalf("parse failure: %+v", diags.Items)
	}
	sprog, table, diags := analyzer.Analyze(prog)
	if diags.Failed() {
		t.Fatalf("analysis failure: %+v", diags.Items)
	}
	return Check(sprog, table)
}

func wellTyped(t *testing.T, src string) {
	t.Helper()
	if diags := checkString(t, src); diags.Failed() {
		t.Fatalf("expected %q to type check, got %+v", src, diags.Items)
	}
}

func illTyped(t *testing.T, src string, wantMsg string) {
	t.Helper()
	diags := checkString(t, src)
	if !diags.Failed() {
		t.Fatalf("expected a type error for %q", src)
	}
	if wantMsg == "" {
		return
	}
	for _, it := range diags.Items {
		if strings.Contains(it.Msg, wantMsg) {
			return
		}
	}
	t.Fatalf("no diagnostic contains %q: %+v", wantMsg, diags.Items)
}

func TestWellTypedPrograms(t *testing.T) {
	srcs := []string{
		`object A { def f(x: Int): Int = { x + 1 }; f(41) }`,
		`object A { val x: Int = 2 * 21; Std.printInt(x) }`,
		`object A { val s: String = "ab" ++ Std.intToString(7); Std.printString(s) }`,
		`object A { if (1 < 2) { 1 } else { 2 } }`,
		`object A { 1 == 2 }`,
		`object A { "a" == "b" }`,
		`object A { () == () }`,
		`object A { !(true && false) || 1 <= 2 }`,
		`object A { error("gone") + 1 }`,
		`object A { val u: Unit = Std.printString("x"); u }`,
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
  sum(C(1, C(2, N())))
}`,
		`object A { val x: Int = 1; x match { case 0 => "zero" case _ => "other" } }`,
	}
	for _, src := range srcs {
		wellTyped(t, src)
	}
}

func TestBranchesMustAgree(t *testing.T) {
	illTyped(t, `object A { if (true) { 1 } else { "x" } }`, "expected Int, found String")
}

func TestValInitializerMismatch(t *testing.T) {
	illTyped(t, `object A { val x: Int = "oops"; x }`, "expected Int, found String")
}

func TestConditionMustBeBoolean(t *testing.T) {
	illTyped(t, `object A { if (1) { 2 } else { 3 } }`, "expected Boolean, found Int")
}

func TestEqualityOperandsMustAgree(t *testing.T) {
	illTyped(t, `object A { 1 == "one" }`, "")
}

func TestArithmeticRequiresInts(t *testing.T) {
	illTyped(t, `object A { 1 + "a" }`, "expected Int, found String")
	illTyped(t, `object A { "a" ++ 1 }`, "expected String, found Int")
}

func TestCallArity(t *testing.T) {
	illTyped(t, `object A { def f(x: Int): Int = { x }; f(1, 2) }`, "wrong number of arguments")
}

func TestCallArgumentTypes(t *testing.T) {
	illTyped(t, `object A { Std.printInt("nope") }`, "expected Int, found String")
}

func TestReturnTypeChecked(t *testing.T) {
	illTyped(t, `object A { def f(x: Int): String = { x } }`, "expected String, found Int")
}

func TestMatchCasesShareScrutineeType(t *testing.T) {
	illTyped(t, `object A {
  val x: Int = 1;
  x match {
    case 0 => 1
    case "s" => 2
  }
}`, "")
}

func TestPatternArity(t *testing.T) {
	illTyped(t, `object M {
  abstract class L
  case class C(h: Int, t: L) extends L
  def f(l: L): Int = {
    l match {
      case C(h) => h
    }
  }
}`, "wrong number of sub-patterns")
}

func TestConstructorFieldTypes(t *testing.T) {
	illTyped(t, `object M {
  abstract class L
  case class C(h: Int) extends L
  val x: L = C("no");
  0
}`, "expected Int, found String")
}

func TestClassTypesAreNominal(t *testing.T) {
	illTyped(t, `object M {
  abstract class A
  abstract class B
  case class CA() extends A
  val x: B = CA();
  0
}`, "expected M.B, found M.A")
}

func TestModuleInitializerTypeIsFree(t *testing.T) {
	wellTyped(t, `object A { 42 }`)
	wellTyped(t, `object A { "free" }`)
	wellTyped(t, `object A { () }`)
}

func TestErrorsAreCollectedAcrossFunctions(t *testing.T) {
	diags := checkString(t, `object A {
  def f(): Int = { "a" }
  def g(): String = { 1 }
}`)
	var count int
	for _, it := range diags.Items {
		if strings.Contains(it.Msg, "type error") {
			count++
		}
	}
	if count < 2 {
		t.Fatalf("expected two independent type errors, got %+v", diags.Items)
	}
}
