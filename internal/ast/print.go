package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Print renders a program back to parseable source. Operator printing is
// fully parenthesized, so reparsing the output yields the same tree up to
// positions.
func Print(w io.Writer, p *Program) {
	for i, m := range p.Modules {
		if i > 0 {
			fmt.Fprintln(w)
		}
		printModule(w, m)
	}
}

// String returns the printed form of a program.
func String(p *Program) string {
	var sb strings.Builder
	Print(&sb, p)
	return sb.String()
}

func printModule(w io.Writer, m *ModuleDef) {
	fmt.Fprintf(w, "object %s {\n", m.Name)
	for _, d := range m.Defs {
		printDef(w, d)
	}
	if m.Expr != nil {
		fmt.Fprintf(w, "  %s\n", exprString(m.Expr))
	}
	fmt.Fprintln(w, "}")
}

func printDef(w io.Writer, d Def) {
	switch dd := d.(type) {
	case *AbstractClassDef:
		fmt.Fprintf(w, "  abstract class %s\n", dd.Name)
	case *CaseClassDef:
		fields := make([]string, len(dd.Fields))
		for i, f := range dd.Fields {
			fields[i] = fmt.Sprintf("v%d: %s", i, typeString(f))
		}
		fmt.Fprintf(w, "  case class %s(%s) extends %s\n", dd.Name, strings.Join(fields, ", "), dd.Parent)
	case *FunDef:
		params := make([]string, len(dd.Params))
		for i, p := range dd.Params {
			params[i] = p.Name + ": " + typeString(p.Type)
		}
		fmt.Fprintf(w, "  def %s(%s): %s = {\n    %s\n  }\n",
			dd.Name, strings.Join(params, ", "), typeString(dd.Ret), exprString(dd.Body))
	}
}

func typeString(t TypeTree) string {
	switch tt := t.(type) {
	case *PrimType:
		return tt.Kind.String()
	case *ClassTypeTree:
		return tt.Name.String()
	default:
		return "<type>"
	}
}

func exprString(e Expr) string {
	switch ex := e.(type) {
	case *Variable:
		return ex.Name
	case *IntLiteral:
		return strconv.FormatInt(int64(ex.Value), 10)
	case *BooleanLiteral:
		return strconv.FormatBool(ex.Value)
	case *StringLiteral:
		return `"` + ex.Value + `"`
	case *UnitLiteral:
		return "()"
	case *BinaryExpr:
		return "(" + exprString(ex.Left) + " " + ex.Op + " " + exprString(ex.Right) + ")"
	case *UnaryExpr:
		return "(" + ex.Op + exprString(ex.Expr) + ")"
	case *Call:
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = exprString(a)
		}
		return ex.Callee.String() + "(" + strings.Join(args, ", ") + ")"
	case *Sequence:
		return "(" + exprString(ex.First) + "; " + exprString(ex.Second) + ")"
	case *Let:
		return "(val " + ex.Param.Name + ": " + typeString(ex.Param.Type) + " = " +
			exprString(ex.Value) + "; " + exprString(ex.Body) + ")"
	case *Ite:
		return "(if (" + exprString(ex.Cond) + ") { " + exprString(ex.Then) + " } else { " + exprString(ex.Else) + " })"
	case *Match:
		var sb strings.Builder
		sb.WriteString(exprString(ex.Scrut))
		sb.WriteString(" match {")
		for _, c := range ex.Cases {
			sb.WriteString(" case ")
			sb.WriteString(patString(c.Pat))
			sb.WriteString(" => ")
			sb.WriteString(exprString(c.Expr))
		}
		sb.WriteString(" }")
		return "(" + sb.String() + ")"
	case *Error:
		return "error(" + exprString(ex.Msg) + ")"
	default:
		return "<expr>"
	}
}

func patString(p Pattern) string {
	switch pp := p.(type) {
	case *WildcardPattern:
		return "_"
	case *IdPattern:
		return pp.Name
	case *LiteralPattern:
		return exprString(pp.Lit)
	case *CaseClassPattern:
		args := make([]string, len(pp.Args))
		for i, a := range pp.Args {
			args[i] = patString(a)
		}
		return pp.Constr.String() + "(" + strings.Join(args, ", ") + ")"
	default:
		return "<pattern>"
	}
}
