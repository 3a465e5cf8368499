package ast

import "amylang/internal/source"

// The nominal AST: trees over textual names, as produced by the parser.
// Name analysis rewrites it into the symbolic form and discards it.

type Program struct {
	Modules []*ModuleDef
}

type ModuleDef struct {
	Name string
	Defs []Def
	Expr Expr // optional top-level expression
	S    source.Span
}

func (m *ModuleDef) Span() source.Span { return m.S }

// QualifiedName is an optional module prefix plus a local name.
// Module is empty for unqualified references.
type QualifiedName struct {
	Module string
	Name   string
}

func (q QualifiedName) String() string {
	if q.Module == "" {
		return q.Name
	}
	return q.Module + "." + q.Name
}

type Def interface {
	defNode()
	Span() source.Span
}

type FunDef struct {
	Name   string
	Params []ParamDef
	Ret    TypeTree
	Body   Expr
	S      source.Span
}

func (*FunDef) defNode()            {}
func (d *FunDef) Span() source.Span { return d.S }

type AbstractClassDef struct {
	Name string
	S    source.Span
}

func (*AbstractClassDef) defNode()            {}
func (d *AbstractClassDef) Span() source.Span { return d.S }

type CaseClassDef struct {
	Name   string
	Fields []TypeTree
	Parent string
	S      source.Span
}

func (*CaseClassDef) defNode()            {}
func (d *CaseClassDef) Span() source.Span { return d.S }

type ParamDef struct {
	Name string
	Type TypeTree
	S    source.Span
}

// TypeTree is a syntactic type: a primitive or a (possibly qualified)
// class reference.
type TypeTree interface {
	typeNode()
	Span() source.Span
}

type PrimKind int

const (
	PrimInt PrimKind = iota
	PrimString
	PrimBoolean
	PrimUnit
)

func (k PrimKind) String() string {
	switch k {
	case PrimInt:
		return "Int"
	case PrimString:
		return "String"
	case PrimBoolean:
		return "Boolean"
	default:
		return "Unit"
	}
}

type PrimType struct {
	Kind PrimKind
	S    source.Span
}

func (*PrimType) typeNode()           {}
func (t *PrimType) Span() source.Span { return t.S }

type ClassTypeTree struct {
	Name QualifiedName
	S    source.Span
}

func (*ClassTypeTree) typeNode()           {}
func (t *ClassTypeTree) Span() source.Span { return t.S }

// Expr

type Expr interface {
	exprNode()
	Span() source.Span
}

type Variable struct {
	Name string
	S    source.Span
}

func (*Variable) exprNode()           {}
func (e *Variable) Span() source.Span { return e.S }

type IntLiteral struct {
	Value int32
	S     source.Span
}

func (*IntLiteral) exprNode()           {}
func (e *IntLiteral) Span() source.Span { return e.S }

type BooleanLiteral struct {
	Value bool
	S     source.Span
}

func (*BooleanLiteral) exprNode()           {}
func (e *BooleanLiteral) Span() source.Span { return e.S }

type StringLiteral struct {
	Value string
	S     source.Span
}

func (*StringLiteral) exprNode()           {}
func (e *StringLiteral) Span() source.Span { return e.S }

type UnitLiteral struct {
	S source.Span
}

func (*UnitLiteral) exprNode()           {}
func (e *UnitLiteral) Span() source.Span { return e.S }

// BinaryExpr covers + - * / % < <= == && || and string ++.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	S     source.Span
}

func (*BinaryExpr) exprNode()           {}
func (e *BinaryExpr) Span() source.Span { return e.S }

// UnaryExpr covers unary - and !.
type UnaryExpr struct {
	Op   string
	Expr Expr
	S    source.Span
}

func (*UnaryExpr) exprNode()           {}
func (e *UnaryExpr) Span() source.Span { return e.S }

// Call is a function or constructor application, possibly qualified.
type Call struct {
	Callee QualifiedName
	Args   []Expr
	S      source.Span
}

func (*Call) exprNode()           {}
func (e *Call) Span() source.Span { return e.S }

type Sequence struct {
	First  Expr
	Second Expr
	S      source.Span
}

func (*Sequence) exprNode()           {}
func (e *Sequence) Span() source.Span { return e.S }

type Let struct {
	Param ParamDef
	Value Expr
	Body  Expr
	S     source.Span
}

func (*Let) exprNode()           {}
func (e *Let) Span() source.Span { return e.S }

type Ite struct {
	Cond Expr
	Then Expr
	Else Expr
	S    source.Span
}

func (*Ite) exprNode()           {}
func (e *Ite) Span() source.Span { return e.S }

type Match struct {
	Scrut Expr
	Cases []MatchCase
	S     source.Span
}

func (*Match) exprNode()           {}
func (e *Match) Span() source.Span { return e.S }

type MatchCase struct {
	Pat  Pattern
	Expr Expr
	S    source.Span
}

// Error is the `error(msg)` expression: prints and diverges.
type Error struct {
	Msg Expr
	S   source.Span
}

func (*Error) exprNode()           {}
func (e *Error) Span() source.Span { return e.S }

// Patterns

type Pattern interface {
	patNode()
	Span() source.Span
}

type WildcardPattern struct {
	S source.Span
}

func (*WildcardPattern) patNode()            {}
func (p *WildcardPattern) Span() source.Span { return p.S }

// IdPattern is always a binder, never a nullary constructor.
type IdPattern struct {
	Name string
	S    source.Span
}

func (*IdPattern) patNode()            {}
func (p *IdPattern) Span() source.Span { return p.S }

// LiteralPattern holds an IntLiteral, BooleanLiteral, StringLiteral or
// UnitLiteral.
type LiteralPattern struct {
	Lit Expr
	S   source.Span
}

func (*LiteralPattern) patNode()            {}
func (p *LiteralPattern) Span() source.Span { return p.S }

type CaseClassPattern struct {
	Constr QualifiedName
	Args   []Pattern
	S      source.Span
}

func (*CaseClassPattern) patNode()            {}
func (p *CaseClassPattern) Span() source.Span { return p.S }
