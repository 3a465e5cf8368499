package symbolic

import (
	"amylang/internal/source"
	"amylang/internal/symbols"
)

// The symbolic AST: structurally the nominal AST, with every name
// replaced by a unique identifier. Built by the name analyzer, traversed
// read-only by the type checker and the code generator.

type Program struct {
	Modules []*ModuleDef
}

type ModuleDef struct {
	Id   symbols.Id
	Defs []Def
	Expr Expr // optional top-level expression
	S    source.Span
}

type Def interface {
	defNode()
	Span() source.Span
}

type FunDef struct {
	Id     symbols.Id
	Params []ParamDef
	Body   Expr
	S      source.Span
}

func (*FunDef) defNode()            {}
func (d *FunDef) Span() source.Span { return d.S }

type AbstractClassDef struct {
	Id symbols.Id
	S  source.Span
}

func (*AbstractClassDef) defNode()            {}
func (d *AbstractClassDef) Span() source.Span { return d.S }

type CaseClassDef struct {
	Id symbols.Id
	S  source.Span
}

func (*CaseClassDef) defNode()            {}
func (d *CaseClassDef) Span() source.Span { return d.S }

type ParamDef struct {
	Id   symbols.Id
	Type symbols.Type
	S    source.Span
}

// Expr

type Expr interface {
	exprNode()
	Span() source.Span
}

type Variable struct {
	Id symbols.Id
	S  source.Span
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

type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	S     source.Span
}

func (*BinaryExpr) exprNode()           {}
func (e *BinaryExpr) Span() source.Span { return e.S }

type UnaryExpr struct {
	Op   string
	Expr Expr
	S    source.Span
}

func (*UnaryExpr) exprNode()           {}
func (e *UnaryExpr) Span() source.Span { return e.S }

// Call applies a function or a constructor; the two are distinguished via
// the symbol table.
type Call struct {
	Callee symbols.Id
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

type IdPattern struct {
	Id symbols.Id
	S  source.Span
}

func (*IdPattern) patNode()            {}
func (p *IdPattern) Span() source.Span { return p.S }

type LiteralPattern struct {
	Lit Expr
	S   source.Span
}

func (*LiteralPattern) patNode()            {}
func (p *LiteralPattern) Span() source.Span { return p.S }

type CaseClassPattern struct {
	Constr symbols.Id
	Args   []Pattern
	S      source.Span
}

func (*CaseClassPattern) patNode()            {}
func (p *CaseClassPattern) Span() source.Span { return p.S }
