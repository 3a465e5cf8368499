package parser

import (
	"strings"

	"amylang/internal/ast"
	"amylang/internal/diag"
	"amylang/internal/lexer"
	"amylang/internal/source"
)

// Parse consumes a trivia-free token stream and produces a Program. The
// grammar is validated for LL(1)-ness once per process before any parse.
// All parse errors are fatal: the first one aborts the parse.
func Parse(toks []lexer.Token) (*ast.Program, *diag.Bag) {
	p := &parser{toks: toks, diags: &diag.Bag{}}
	if err := checkGrammar(); err != nil {
		p.diags.Fatalf(source.Span{}, "internal: %v", err)
		return nil, p.diags
	}
	prog := p.parse()
	if p.diags.HasFatal() {
		return nil, p.diags
	}
	return prog, p.diags
}

type parser struct {
	toks  []lexer.Token
	pos   int
	diags *diag.Bag
}

// bailout unwinds the parser on the first (fatal) parse error.
type bailout struct{}

func (p *parser) parse() (prog *ast.Program) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			prog = nil
		}
	}()
	prog = &ast.Program{}
	prog.Modules = append(prog.Modules, p.parseModule())
	for !p.at(lexer.KindEOF) {
		prog.Modules = append(prog.Modules, p.parseModule())
	}
	return prog
}

func (p *parser) parseModule() *ast.ModuleDef {
	start := p.expect(lexer.KindObject)
	name := p.expect(lexer.KindIdent)
	p.expect(lexer.KindLBrace)
	var defs []ast.Def
defLoop:
	for {
		switch p.peek().Kind {
		case lexer.KindDef:
			defs = append(defs, p.parseFunDef())
		case lexer.KindAbstract:
			defs = append(defs, p.parseAbstractDef())
		case lexer.KindCase:
			defs = append(defs, p.parseCaseDef())
		default:
			break defLoop
		}
		// Definitions may be separated by an optional semicolon.
		p.match(lexer.KindSemicolon)
	}
	var expr ast.Expr
	if !p.at(lexer.KindRBrace) {
		expr = p.parseExpr()
	}
	end := p.expect(lexer.KindRBrace)
	return &ast.ModuleDef{
		Name: name.Lexeme,
		Defs: defs,
		Expr: expr,
		S:    source.Join(start.Span, end.Span),
	}
}

func (p *parser) parseFunDef() *ast.FunDef {
	start := p.expect(lexer.KindDef)
	name := p.expect(lexer.KindIdent)
	p.expect(lexer.KindLParen)
	params := p.parseParams()
	p.expect(lexer.KindRParen)
	p.expect(lexer.KindColon)
	ret := p.parseType()
	p.expect(lexer.KindEq)
	p.expect(lexer.KindLBrace)
	body := p.parseExpr()
	end := p.expect(lexer.KindRBrace)
	return &ast.FunDef{
		Name:   name.Lexeme,
		Params: params,
		Ret:    ret,
		Body:   body,
		S:      source.Join(start.Span, end.Span),
	}
}

func (p *parser) parseAbstractDef() *ast.AbstractClassDef {
	start := p.expect(lexer.KindAbstract)
	p.expect(lexer.KindClass)
	name := p.expect(lexer.KindIdent)
	return &ast.AbstractClassDef{Name: name.Lexeme, S: source.Join(start.Span, name.Span)}
}

func (p *parser) parseCaseDef() *ast.CaseClassDef {
	start := p.expect(lexer.KindCase)
	p.expect(lexer.KindClass)
	name := p.expect(lexer.KindIdent)
	p.expect(lexer.KindLParen)
	// Fields are written as named params; only the types are recorded.
	params := p.parseParams()
	fields := make([]ast.TypeTree, 0, len(params))
	for _, prm := range params {
		fields = append(fields, prm.Type)
	}
	p.expect(lexer.KindRParen)
	p.expect(lexer.KindExtends)
	parent := p.expect(lexer.KindIdent)
	return &ast.CaseClassDef{
		Name:   name.Lexeme,
		Fields: fields,
		Parent: parent.Lexeme,
		S:      source.Join(start.Span, parent.Span),
	}
}

func (p *parser) parseParams() []ast.ParamDef {
	var params []ast.ParamDef
	if !p.at(lexer.KindIdent) {
		return params
	}
	params = append(params, p.parseParam())
	for p.match(lexer.KindComma) {
		params = append(params, p.parseParam())
	}
	return params
}

func (p *parser) parseParam() ast.ParamDef {
	name := p.expect(lexer.KindIdent)
	p.expect(lexer.KindColon)
	ty := p.parseType()
	return ast.ParamDef{Name: name.Lexeme, Type: ty, S: source.Join(name.Span, ty.Span())}
}

func (p *parser) parseType() ast.TypeTree {
	tok := p.peek()
	switch tok.Kind {
	case lexer.KindTInt:
		p.advance()
		return &ast.PrimType{Kind: ast.PrimInt, S: tok.Span}
	case lexer.KindTString:
		p.advance()
		return &ast.PrimType{Kind: ast.PrimString, S: tok.Span}
	case lexer.KindTBoolean:
		p.advance()
		return &ast.PrimType{Kind: ast.PrimBoolean, S: tok.Span}
	case lexer.KindTUnit:
		p.advance()
		return &ast.PrimType{Kind: ast.PrimUnit, S: tok.Span}
	case lexer.KindIdent:
		p.advance()
		qn, end := p.parseQNameRest(tok)
		return &ast.ClassTypeTree{Name: qn, S: source.Join(tok.Span, end)}
	default:
		p.errorExpected(tok, "a type")
		panic(bailout{})
	}
}

// parseQNameRest finishes `Id ('.' Id)?` given the already-consumed head.
func (p *parser) parseQNameRest(head lexer.Token) (ast.QualifiedName, source.Span) {
	if p.match(lexer.KindDot) {
		name := p.expect(lexer.KindIdent)
		return ast.QualifiedName{Module: head.Lexeme, Name: name.Lexeme}, name.Span
	}
	return ast.QualifiedName{Name: head.Lexeme}, head.Span
}

// Expressions. The level structure mirrors grammar.go:
// Expr > MatchExpr > Or > And > Eq > Comp > Add > Mul > Unary > Simple.

func (p *parser) parseExpr() ast.Expr {
	if p.at(lexer.KindVal) {
		start := p.advance()
		param := p.parseParam()
		p.expect(lexer.KindEq)
		value := p.parseMatchExpr()
		p.expect(lexer.KindSemicolon)
		body := p.parseExpr()
		return &ast.Let{Param: param, Value: value, Body: body, S: source.Join(start.Span, body.Span())}
	}
	first := p.parseMatchExpr()
	if p.match(lexer.KindSemicolon) {
		second := p.parseExpr()
		return &ast.Sequence{First: first, Second: second, S: source.Join(first.Span(), second.Span())}
	}
	return first
}

func (p *parser) parseMatchExpr() ast.Expr {
	var lhs ast.Expr
	if p.at(lexer.KindIf) {
		lhs = p.parseIte()
	} else {
		lhs = p.parseOr()
	}
	// `a match {…} match {…}` left-folds.
	for p.at(lexer.KindMatch) {
		p.advance()
		p.expect(lexer.KindLBrace)
		var cases []ast.MatchCase
		cases = append(cases, p.parseCase())
		for p.at(lexer.KindCase) {
			cases = append(cases, p.parseCase())
		}
		end := p.expect(lexer.KindRBrace)
		lhs = &ast.Match{Scrut: lhs, Cases: cases, S: source.Join(lhs.Span(), end.Span)}
	}
	return lhs
}

func (p *parser) parseIte() ast.Expr {
	start := p.expect(lexer.KindIf)
	p.expect(lexer.KindLParen)
	cond := p.parseExpr()
	p.expect(lexer.KindRParen)
	p.expect(lexer.KindLBrace)
	then := p.parseExpr()
	p.expect(lexer.KindRBrace)
	p.expect(lexer.KindElse)
	p.expect(lexer.KindLBrace)
	els := p.parseExpr()
	end := p.expect(lexer.KindRBrace)
	return &ast.Ite{Cond: cond, Then: then, Else: els, S: source.Join(start.Span, end.Span)}
}

func (p *parser) parseCase() ast.MatchCase {
	start := p.expect(lexer.KindCase)
	pat := p.parsePattern()
	p.expect(lexer.KindFatArrow)
	expr := p.parseExpr()
	return ast.MatchCase{Pat: pat, Expr: expr, S: source.Join(start.Span, expr.Span())}
}

// binaryLevel parses a left-associative run of the given operator tokens.
func (p *parser) binaryLevel(next func() ast.Expr, ops ...lexer.Kind) ast.Expr {
	left := next()
	for {
		tok := p.peek()
		found := false
		for _, k := range ops {
			if tok.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return left
		}
		p.advance()
		right := next()
		left = &ast.BinaryExpr{Op: tok.Lexeme, Left: left, Right: right, S: source.Join(left.Span(), right.Span())}
	}
}

func (p *parser) parseOr() ast.Expr {
	return p.binaryLevel(p.parseAnd, lexer.KindOrOr)
}

func (p *parser) parseAnd() ast.Expr {
	return p.binaryLevel(p.parseEq, lexer.KindAndAnd)
}

func (p *parser) parseEq() ast.Expr {
	return p.binaryLevel(p.parseComp, lexer.KindEqEq)
}

func (p *parser) parseComp() ast.Expr {
	return p.binaryLevel(p.parseAdd, lexer.KindLt, lexer.KindLtEq)
}

func (p *parser) parseAdd() ast.Expr {
	return p.binaryLevel(p.parseMul, lexer.KindPlus, lexer.KindMinus, lexer.KindConcat)
}

func (p *parser) parseMul() ast.Expr {
	return p.binaryLevel(p.parseUnary, lexer.KindStar, lexer.KindSlash, lexer.KindPercent)
}

func (p *parser) parseUnary() ast.Expr {
	tok := p.peek()
	if tok.Kind == lexer.KindMinus || tok.Kind == lexer.KindBang {
		p.advance()
		operand := p.parseSimple()
		return &ast.UnaryExpr{Op: tok.Lexeme, Expr: operand, S: source.Join(tok.Span, operand.Span())}
	}
	return p.parseSimple()
}

func (p *parser) parseSimple() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case lexer.KindInt:
		p.advance()
		return &ast.IntLiteral{Value: tok.Int, S: tok.Span}
	case lexer.KindString:
		p.advance()
		return &ast.StringLiteral{Value: unquote(tok.Lexeme), S: tok.Span}
	case lexer.KindTrue, lexer.KindFalse:
		p.advance()
		return &ast.BooleanLiteral{Value: tok.Kind == lexer.KindTrue, S: tok.Span}
	case lexer.KindError:
		p.advance()
		p.expect(lexer.KindLParen)
		msg := p.parseExpr()
		end := p.expect(lexer.KindRParen)
		return &ast.Error{Msg: msg, S: source.Join(tok.Span, end.Span)}
	case lexer.KindLParen:
		p.advance()
		if p.at(lexer.KindRParen) {
			end := p.advance()
			return &ast.UnitLiteral{S: source.Join(tok.Span, end.Span)}
		}
		inner := p.parseExpr()
		p.expect(lexer.KindRParen)
		return inner
	case lexer.KindIdent:
		p.advance()
		return p.parseVarOrCall(tok)
	default:
		p.errorExpected(tok, "an expression")
		panic(bailout{})
	}
}

// parseVarOrCall finishes `Id ('.' Id)? ('(' Args ')')?`. A bare name is a
// variable; with an argument list it is a call. A qualified name without an
// argument list is a fatal parse error.
func (p *parser) parseVarOrCall(head lexer.Token) ast.Expr {
	qn, end := p.parseQNameRest(head)
	if p.at(lexer.KindLParen) {
		p.advance()
		var args []ast.Expr
		if !p.at(lexer.KindRParen) {
			args = append(args, p.parseExpr())
			for p.match(lexer.KindComma) {
				args = append(args, p.parseExpr())
			}
		}
		rp := p.expect(lexer.KindRParen)
		return &ast.Call{Callee: qn, Args: args, S: source.Join(head.Span, rp.Span)}
	}
	if qn.Module != "" {
		// A qualified name with no arguments still refers to a module
		// member, which is only legal as a call.
		p.diags.Fatalf(source.Join(head.Span, end), "expected `(` after qualified name %s", qn)
		panic(bailout{})
	}
	return &ast.Variable{Name: qn.Name, S: head.Span}
}

func (p *parser) parsePattern() ast.Pattern {
	tok := p.peek()
	switch tok.Kind {
	case lexer.KindUnderscore:
		p.advance()
		return &ast.WildcardPattern{S: tok.Span}
	case lexer.KindInt:
		p.advance()
		return &ast.LiteralPattern{Lit: &ast.IntLiteral{Value: tok.Int, S: tok.Span}, S: tok.Span}
	case lexer.KindString:
		p.advance()
		return &ast.LiteralPattern{Lit: &ast.StringLiteral{Value: unquote(tok.Lexeme), S: tok.Span}, S: tok.Span}
	case lexer.KindTrue, lexer.KindFalse:
		p.advance()
		return &ast.LiteralPattern{Lit: &ast.BooleanLiteral{Value: tok.Kind == lexer.KindTrue, S: tok.Span}, S: tok.Span}
	case lexer.KindLParen:
		p.advance()
		end := p.expect(lexer.KindRParen)
		s := source.Join(tok.Span, end.Span)
		return &ast.LiteralPattern{Lit: &ast.UnitLiteral{S: s}, S: s}
	case lexer.KindIdent:
		p.advance()
		qn, end := p.parseQNameRest(tok)
		if p.at(lexer.KindLParen) {
			p.advance()
			var args []ast.Pattern
			if !p.at(lexer.KindRParen) {
				args = append(args, p.parsePattern())
				for p.match(lexer.KindComma) {
					args = append(args, p.parsePattern())
				}
			}
			rp := p.expect(lexer.KindRParen)
			return &ast.CaseClassPattern{Constr: qn, Args: args, S: source.Join(tok.Span, rp.Span)}
		}
		if qn.Module != "" {
			// `M.C` without parentheses: constructor patterns require them.
			p.diags.Fatalf(source.Join(tok.Span, end), "expected `(` after qualified constructor pattern %s", qn)
			panic(bailout{})
		}
		return &ast.IdPattern{Name: qn.Name, S: tok.Span}
	default:
		p.errorExpected(tok, "a pattern")
		panic(bailout{})
	}
}

// helpers

func (p *parser) peek() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) at(k lexer.Kind) bool { return p.peek().Kind == k }

func (p *parser) match(k lexer.Kind) bool {
	if p.at(k) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) advance() lexer.Token {
	t := p.peek()
	if t.Kind != lexer.KindEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k lexer.Kind) lexer.Token {
	if p.at(k) {
		return p.advance()
	}
	tok := p.peek()
	if tok.Kind == lexer.KindEOF {
		p.diags.Fatalf(tok.Span, "unexpected end of file, expected %s", k)
	} else {
		p.diags.Fatalf(tok.Span, "unexpected %s, expected %s", tok.Kind, k)
	}
	panic(bailout{})
}

func (p *parser) errorExpected(tok lexer.Token, what string) {
	if tok.Kind == lexer.KindEOF {
		p.diags.Fatalf(tok.Span, "unexpected end of file, expected %s", what)
		return
	}
	p.diags.Fatalf(tok.Span, "unexpected %s, expected %s", tok.Kind, what)
}

func unquote(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
}
