package parser

import (
	"fmt"
	"sort"
	"sync"

	"amylang/internal/lexer"
)

// The concrete grammar, written down as data so it can be checked for
// LL(1)-ness before any parse runs. The recursive-descent functions in
// parser.go mirror these productions; keep the two in sync. One difference:
// the table lets a qualified name (IdRest, PatRest) omit its argument list,
// while parser.go rejects that form with a fatal diagnostic.

type sym struct {
	term bool
	tok  lexer.Kind // when term
	nt   string     // when !term
}

func term(k lexer.Kind) sym { return sym{term: true, tok: k} }
func nt(name string) sym    { return sym{nt: name} }

type production []sym

var amyGrammar = map[string][]production{
	"Program":     {{nt("Module"), nt("ProgramRest")}},
	"ProgramRest": {{nt("Module"), nt("ProgramRest")}, {}},
	"Module": {{term(lexer.KindObject), term(lexer.KindIdent), term(lexer.KindLBrace),
		nt("Defs"), nt("OptExpr"), term(lexer.KindRBrace)}},
	"Defs":        {{nt("Def"), nt("OptSemi"), nt("Defs")}, {}},
	"OptSemi":     {{term(lexer.KindSemicolon)}, {}},
	"Def":         {{nt("FunDef")}, {nt("AbstractDef")}, {nt("CaseDef")}},
	"FunDef": {{term(lexer.KindDef), term(lexer.KindIdent), term(lexer.KindLParen), nt("Params"),
		term(lexer.KindRParen), term(lexer.KindColon), nt("Type"), term(lexer.KindEq),
		term(lexer.KindLBrace), nt("Expr"), term(lexer.KindRBrace)}},
	"AbstractDef": {{term(lexer.KindAbstract), term(lexer.KindClass), term(lexer.KindIdent)}},
	"CaseDef": {{term(lexer.KindCase), term(lexer.KindClass), term(lexer.KindIdent),
		term(lexer.KindLParen), nt("Params"), term(lexer.KindRParen),
		term(lexer.KindExtends), term(lexer.KindIdent)}},
	"Params":     {{nt("Param"), nt("ParamsRest")}, {}},
	"ParamsRest": {{term(lexer.KindComma), nt("Param"), nt("ParamsRest")}, {}},
	"Param":      {{term(lexer.KindIdent), term(lexer.KindColon), nt("Type")}},
	"Type": {{term(lexer.KindTInt)}, {term(lexer.KindTString)}, {term(lexer.KindTBoolean)},
		{term(lexer.KindTUnit)}, {term(lexer.KindIdent), nt("QNameRest")}},
	"QNameRest": {{term(lexer.KindDot), term(lexer.KindIdent)}, {}},
	"OptExpr":   {{nt("Expr")}, {}},

	"Expr": {{term(lexer.KindVal), nt("Param"), term(lexer.KindEq), nt("MatchExpr"),
		term(lexer.KindSemicolon), nt("Expr")},
		{nt("MatchExpr"), nt("ExprRest")}},
	"ExprRest":  {{term(lexer.KindSemicolon), nt("Expr")}, {}},
	"MatchExpr": {{nt("MatchLhs"), nt("MatchRest")}},
	"MatchLhs":  {{nt("IteExpr")}, {nt("OrExpr")}},
	"MatchRest": {{term(lexer.KindMatch), term(lexer.KindLBrace), nt("Cases"),
		term(lexer.KindRBrace), nt("MatchRest")}, {}},
	"IteExpr": {{term(lexer.KindIf), term(lexer.KindLParen), nt("Expr"), term(lexer.KindRParen),
		term(lexer.KindLBrace), nt("Expr"), term(lexer.KindRBrace), term(lexer.KindElse),
		term(lexer.KindLBrace), nt("Expr"), term(lexer.KindRBrace)}},
	"Cases":     {{nt("Case"), nt("CasesRest")}},
	"CasesRest": {{nt("Case"), nt("CasesRest")}, {}},
	"Case":      {{term(lexer.KindCase), nt("Pattern"), term(lexer.KindFatArrow), nt("Expr")}},

	"OrExpr":   {{nt("AndExpr"), nt("OrRest")}},
	"OrRest":   {{term(lexer.KindOrOr), nt("AndExpr"), nt("OrRest")}, {}},
	"AndExpr":  {{nt("EqExpr"), nt("AndRest")}},
	"AndRest":  {{term(lexer.KindAndAnd), nt("EqExpr"), nt("AndRest")}, {}},
	"EqExpr":   {{nt("CompExpr"), nt("EqRest")}},
	"EqRest":   {{term(lexer.KindEqEq), nt("CompExpr"), nt("EqRest")}, {}},
	"CompExpr": {{nt("AddExpr"), nt("CompRest")}},
	"CompRest": {{term(lexer.KindLt), nt("AddExpr"), nt("CompRest")},
		{term(lexer.KindLtEq), nt("AddExpr"), nt("CompRest")}, {}},
	"AddExpr": {{nt("MulExpr"), nt("AddRest")}},
	"AddRest": {{term(lexer.KindPlus), nt("MulExpr"), nt("AddRest")},
		{term(lexer.KindMinus), nt("MulExpr"), nt("AddRest")},
		{term(lexer.KindConcat), nt("MulExpr"), nt("AddRest")}, {}},
	"MulExpr": {{nt("UnaryExpr"), nt("MulRest")}},
	"MulRest": {{term(lexer.KindStar), nt("UnaryExpr"), nt("MulRest")},
		{term(lexer.KindSlash), nt("UnaryExpr"), nt("MulRest")},
		{term(lexer.KindPercent), nt("UnaryExpr"), nt("MulRest")}, {}},
	"UnaryExpr": {{term(lexer.KindMinus), nt("Simple")},
		{term(lexer.KindBang), nt("Simple")}, {nt("Simple")}},

	"Simple": {{term(lexer.KindInt)}, {term(lexer.KindString)}, {term(lexer.KindTrue)},
		{term(lexer.KindFalse)},
		{term(lexer.KindError), term(lexer.KindLParen), nt("Expr"), term(lexer.KindRParen)},
		{term(lexer.KindLParen), nt("ParenRest")},
		{term(lexer.KindIdent), nt("IdRest")}},
	"ParenRest": {{term(lexer.KindRParen)}, {nt("Expr"), term(lexer.KindRParen)}},
	"IdRest":    {{term(lexer.KindDot), term(lexer.KindIdent), nt("CallRest")}, {nt("CallRest")}},
	"CallRest":  {{term(lexer.KindLParen), nt("Args"), term(lexer.KindRParen)}, {}},
	"Args":      {{nt("Expr"), nt("ArgsRest")}, {}},
	"ArgsRest":  {{term(lexer.KindComma), nt("Expr"), nt("ArgsRest")}, {}},

	"Pattern": {{term(lexer.KindInt)}, {term(lexer.KindString)}, {term(lexer.KindTrue)},
		{term(lexer.KindFalse)}, {term(lexer.KindUnderscore)},
		{term(lexer.KindLParen), term(lexer.KindRParen)},
		{term(lexer.KindIdent), nt("PatRest")}},
	"PatRest":    {{term(lexer.KindDot), term(lexer.KindIdent), nt("PatCallOpt")}, {nt("PatCallOpt")}},
	"PatCallOpt": {{term(lexer.KindLParen), nt("Patterns"), term(lexer.KindRParen)}, {}},
	"Patterns":   {{nt("Pattern"), nt("PatternsRest")}, {}},
	"PatternsRest": {{term(lexer.KindComma), nt("Pattern"), nt("PatternsRest")}, {}},
}

const startSymbol = "Program"

// validateLL1 computes nullable/FIRST/FOLLOW over the grammar and checks
// that each nonterminal's productions have pairwise disjoint predict sets.
func validateLL1(g map[string][]production, start string) error {
	for name, prods := range g {
		for _, p := range prods {
			for _, s := range p {
				if !s.term {
					if _, ok := g[s.nt]; !ok {
						return fmt.Errorf("grammar: undefined nonterminal %s in %s", s.nt, name)
					}
				}
			}
		}
	}

	nullable := map[string]bool{}
	first := map[string]map[lexer.Kind]bool{}
	follow := map[string]map[lexer.Kind]bool{}
	for name := range g {
		first[name] = map[lexer.Kind]bool{}
		follow[name] = map[lexer.Kind]bool{}
	}
	follow[start][lexer.KindEOF] = true

	changed := true
	for changed {
		changed = false
		for name, prods := range g {
			for _, p := range prods {
				allNullable := true
				for _, s := range p {
					if s.term {
						if !first[name][s.tok] {
							first[name][s.tok] = true
							changed = true
						}
						allNullable = false
						break
					}
					for k := range first[s.nt] {
						if !first[name][k] {
							first[name][k] = true
							changed = true
						}
					}
					if !nullable[s.nt] {
						allNullable = false
						break
					}
				}
				if allNullable && !nullable[name] {
					nullable[name] = true
					changed = true
				}
			}
		}
	}

	changed = true
	for changed {
		changed = false
		for name, prods := range g {
			for _, p := range prods {
				for i, s := range p {
					if s.term {
						continue
					}
					tailNullable := true
					for _, u := range p[i+1:] {
						if u.term {
							if !follow[s.nt][u.tok] {
								follow[s.nt][u.tok] = true
								changed = true
							}
							tailNullable = false
							break
						}
						for k := range first[u.nt] {
							if !follow[s.nt][k] {
								follow[s.nt][k] = true
								changed = true
							}
						}
						if !nullable[u.nt] {
							tailNullable = false
							break
						}
					}
					if tailNullable {
						for k := range follow[name] {
							if !follow[s.nt][k] {
								follow[s.nt][k] = true
								changed = true
							}
						}
					}
				}
			}
		}
	}

	predict := func(name string, p production) map[lexer.Kind]bool {
		set := map[lexer.Kind]bool{}
		allNullable := true
		for _, s := range p {
			if s.term {
				set[s.tok] = true
				allNullable = false
				break
			}
			for k := range first[s.nt] {
				set[k] = true
			}
			if !nullable[s.nt] {
				allNullable = false
				break
			}
		}
		if allNullable {
			for k := range follow[name] {
				set[k] = true
			}
		}
		return set
	}

	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		prods := g[name]
		sets := make([]map[lexer.Kind]bool, len(prods))
		for i, p := range prods {
			sets[i] = predict(name, p)
		}
		for i := 0; i < len(prods); i++ {
			for j := i + 1; j < len(prods); j++ {
				for k := range sets[i] {
					if sets[j][k] {
						return fmt.Errorf("grammar is not LL(1): %s has a predict conflict on %s", name, k)
					}
				}
			}
		}
	}
	return nil
}

var (
	grammarOnce sync.Once
	grammarErr  error
)

// checkGrammar validates the Amy grammar once per process.
func checkGrammar() error {
	grammarOnce.Do(func() {
		grammarErr = validateLL1(amyGrammar, startSymbol)
	})
	return grammarErr
}
