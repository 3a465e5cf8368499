package lexer

import (
	"strconv"

	"amylang/internal/diag"
	"amylang/internal/source"
)

// Lex tokenizes one file, drops whitespace and comments, and reports every
// bad token as a fatal diagnostic. The stream always ends with exactly one EOF.
func Lex(file *source.File) ([]Token, *diag.Bag) {
	all := LexKeepTrivia(file)
	diags := &diag.Bag{}
	toks := make([]Token, 0, len(all))
	for _, t := range all {
		if t.IsTrivia() {
			continue
		}
		if t.Kind == KindBad {
			diags.Fatalf(t.Span, "%s", t.Msg)
		}
		toks = append(toks, t)
	}
	return toks, diags
}

// LexFiles lexes each file independently (positions restart per file) and
// concatenates the streams, keeping only the final EOF.
func LexFiles(files []*source.File) ([]Token, *diag.Bag) {
	var toks []Token
	diags := &diag.Bag{}
	for i, f := range files {
		ft, d := Lex(f)
		diags.Merge(d)
		if i < len(files)-1 && len(ft) > 0 {
			ft = ft[:len(ft)-1] // drop intermediate EOF
		}
		toks = append(toks, ft...)
	}
	if len(files) == 0 {
		toks = append(toks, Token{Kind: KindEOF})
	}
	return toks, diags
}

// LexKeepTrivia returns the raw token stream including whitespace and
// comment tokens. Used by the token dump and by tests.
func LexKeepTrivia(file *source.File) []Token {
	lx := &lexer{file: file, input: file.Input}
	for {
		start := lx.pos
		if lx.pos >= len(lx.input) {
			lx.emit(KindEOF, "", start)
			break
		}
		ch := lx.input[lx.pos]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.lexSpace()
		case ch == '/' && lx.pos+1 < len(lx.input) && lx.input[lx.pos+1] == '/':
			lx.lexLineComment()
		case ch == '/' && lx.pos+1 < len(lx.input) && lx.input[lx.pos+1] == '*':
			lx.lexBlockComment()
		case isLetter(ch):
			lx.lexIdentOrKeyword()
		case isDigit(ch):
			lx.lexInt()
		case ch == '"':
			lx.lexString()
		default:
			lx.lexPunct()
		}
	}
	return lx.tokens
}

type lexer struct {
	file   *source.File
	input  string
	pos    int
	tokens []Token
}

func (lx *lexer) emit(k Kind, lex string, start int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:   k,
		Lexeme: lex,
		Span:   source.Span{File: lx.file, Start: start, End: lx.pos},
	})
}

func (lx *lexer) emitBad(msg string, start int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:   KindBad,
		Lexeme: lx.input[start:lx.pos],
		Msg:    msg,
		Span:   source.Span{File: lx.file, Start: start, End: lx.pos},
	})
}

func (lx *lexer) lexSpace() {
	start := lx.pos
	for lx.pos < len(lx.input) {
		switch lx.input[lx.pos] {
		case ' ', '\t', '\n', '\r':
			lx.pos++
			continue
		}
		break
	}
	lx.emit(KindSpace, lx.input[start:lx.pos], start)
}

func (lx *lexer) lexLineComment() {
	start := lx.pos
	lx.pos += 2
	for lx.pos < len(lx.input) && lx.input[lx.pos] != '\n' {
		lx.pos++
	}
	lx.emit(KindComment, lx.input[start:lx.pos], start)
}

// Block comments do not nest: the first `*/` closes the comment.
func (lx *lexer) lexBlockComment() {
	start := lx.pos
	lx.pos += 2
	for lx.pos+1 < len(lx.input) {
		if lx.input[lx.pos] == '*' && lx.input[lx.pos+1] == '/' {
			lx.pos += 2
			lx.emit(KindComment, lx.input[start:lx.pos], start)
			return
		}
		lx.pos++
	}
	lx.pos = len(lx.input)
	lx.emitBad("unclosed comment", start)
}

func (lx *lexer) lexIdentOrKeyword() {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.input) && isIdentContinue(lx.input[lx.pos]) {
		lx.pos++
	}
	lex := lx.input[start:lx.pos]
	if k, ok := keywords[lex]; ok {
		lx.emit(k, lex, start)
		return
	}
	lx.emit(KindIdent, lex, start)
}

func (lx *lexer) lexInt() {
	start := lx.pos
	for lx.pos < len(lx.input) && isDigit(lx.input[lx.pos]) {
		lx.pos++
	}
	lex := lx.input[start:lx.pos]
	v, err := strconv.ParseInt(lex, 10, 32)
	if err != nil {
		lx.emitBad("integer literal out of range: "+lex, start)
		return
	}
	lx.tokens = append(lx.tokens, Token{
		Kind:   KindInt,
		Lexeme: lex,
		Int:    int32(v),
		Span:   source.Span{File: lx.file, Start: start, End: lx.pos},
	})
}

// String literals run to the closing quote with no escape processing and
// may not span lines.
func (lx *lexer) lexString() {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		if ch == '"' {
			lx.pos++
			lx.emit(KindString, lx.input[start:lx.pos], start)
			return
		}
		if ch == '\n' {
			break
		}
		lx.pos++
	}
	lx.emitBad("unterminated string literal", start)
}

func (lx *lexer) lexPunct() {
	start := lx.pos
	ch := lx.input[lx.pos]
	lx.pos++
	two := ""
	if lx.pos < len(lx.input) {
		two = lx.input[start : lx.pos+1]
	}
	// Multi-character operators and `=>` win by longest match.
	switch two {
	case "==":
		lx.pos++
		lx.emit(KindEqEq, two, start)
		return
	case "++":
		lx.pos++
		lx.emit(KindConcat, two, start)
		return
	case "||":
		lx.pos++
		lx.emit(KindOrOr, two, start)
		return
	case "&&":
		lx.pos++
		lx.emit(KindAndAnd, two, start)
		return
	case "<=":
		lx.pos++
		lx.emit(KindLtEq, two, start)
		return
	case "=>":
		lx.pos++
		lx.emit(KindFatArrow, two, start)
		return
	}
	switch ch {
	case '+':
		lx.emit(KindPlus, "+", start)
	case '-':
		lx.emit(KindMinus, "-", start)
	case '*':
		lx.emit(KindStar, "*", start)
	case '/':
		lx.emit(KindSlash, "/", start)
	case '%':
		lx.emit(KindPercent, "%", start)
	case '<':
		lx.emit(KindLt, "<", start)
	case '!':
		lx.emit(KindBang, "!", start)
	case '.':
		lx.emit(KindDot, ".", start)
	case ',':
		lx.emit(KindComma, ",", start)
	case ':':
		lx.emit(KindColon, ":", start)
	case ';':
		lx.emit(KindSemicolon, ";", start)
	case '(':
		lx.emit(KindLParen, "(", start)
	case ')':
		lx.emit(KindRParen, ")", start)
	case '[':
		lx.emit(KindLBracket, "[", start)
	case ']':
		lx.emit(KindRBracket, "]", start)
	case '{':
		lx.emit(KindLBrace, "{", start)
	case '}':
		lx.emit(KindRBrace, "}", start)
	case '=':
		lx.emit(KindEq, "=", start)
	case '_':
		lx.emit(KindUnderscore, "_", start)
	default:
		lx.emitBad("unexpected character: "+strconv.Quote(string(ch)), start)
	}
}

func isDigit(ch byte) bool  { return ch >= '0' && ch <= '9' }
func isLetter(ch byte) bool { return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' }

func isIdentContinue(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_'
}
