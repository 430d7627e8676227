// Package frontend implements component (A) of spec.md: the .apy
// lexer and recursive-descent parser that produce a model.Grammar (or
// a list of SyntaxErrors). It follows the lexer/parser split and the
// accumulate-and-recover error style of btouchard-gmx's
// internal/compiler/{lexer,parser} packages (New(l), Errors(),
// synchronize()), generalized to .apy's block/keyword grammar instead
// of gmx's brace-delimited one.
package frontend

import (
	"strconv"

	"github.com/Andres95123/acanthopys/internal/gerrors"
	"github.com/Andres95123/acanthopys/internal/model"
)

// Parser consumes .apy source and builds the Grammar model. It keeps
// a single current token plus a lazily-filled one-token lookahead
// (peekToken), never both populated ahead of a raw-text read — the
// tokens: pattern and check guard fragments bypass normal
// tokenization entirely (see Lexer.RestOfLine / RawUntilKeyword /
// RawGuardStmt), and the invariant that makes that safe is that
// advance() and peekToken() are never called between recognizing the
// triggering keyword and performing the raw read.
type Parser struct {
	lex    *Lexer
	cur    Token
	peeked *Token
	diags  gerrors.Bag
}

// NewParser creates a Parser over src and primes its first token.
func NewParser(src string) *Parser {
	p := &Parser{lex: NewLexer(src)}
	p.advance()
	return p
}

// ParseSource parses a complete .apy file, returning every top-level
// grammar block found and the accumulated diagnostics. Front-end
// errors never stop the scan early: parsing resumes at the next
// top-level keyword so multiple errors can be reported in one pass
// (spec.md §4.A).
func ParseSource(src string) ([]*model.Grammar, *gerrors.Bag) {
	p := NewParser(src)
	grammars := p.parseFile()
	return grammars, &p.diags
}

func (p *Parser) advance() {
	if p.peeked != nil {
		p.cur = *p.peeked
		p.peeked = nil
		return
	}
	p.cur = p.lex.NextToken()
}

func (p *Parser) peekToken() Token {
	if p.peeked == nil {
		t := p.lex.NextToken()
		p.peeked = &t
	}
	return *p.peeked
}

func (p *Parser) errorf(pos model.Position, format string, args ...interface{}) {
	p.diags.Addf(gerrors.SyntaxError, pos, format, args...)
}

// syncUntil advances past tokens until cur is one of kinds (or EOF).
func (p *Parser) syncUntil(kinds ...Kind) {
	for {
		if p.cur.Kind == EOF {
			return
		}
		for _, k := range kinds {
			if p.cur.Kind == k {
				return
			}
		}
		p.advance()
	}
}

var topLevelKinds = []Kind{KwGrammar}
var grammarBodyKinds = []Kind{KwTokens, KwRule, KwStart, KwTest, KwEnd}

func (p *Parser) parseFile() []*model.Grammar {
	var out []*model.Grammar
	for p.cur.Kind != EOF {
		if p.cur.Kind == KwGrammar {
			out = append(out, p.parseGrammar())
			continue
		}
		p.errorf(p.cur.Pos, "expected %q, got %q", KwGrammar, p.cur.Text)
		p.syncUntil(topLevelKinds...)
		if p.cur.Kind != KwGrammar {
			// nothing left to recover onto
			break
		}
	}
	return out
}

func (p *Parser) parseGrammar() *model.Grammar {
	p.advance() // consume 'grammar'

	nameTok := p.cur
	if nameTok.Kind != IDENT && nameTok.Kind != UIDENT {
		p.errorf(nameTok.Pos, "expected grammar name, got %q", nameTok.Text)
	} else {
		p.advance()
	}

	if p.cur.Kind != COLON {
		p.errorf(p.cur.Pos, "expected ':' after grammar name, got %q", p.cur.Text)
	} else {
		p.advance()
	}

	g := &model.Grammar{Name: nameTok.Text, StartRule: -1}

	for p.cur.Kind != KwEnd && p.cur.Kind != EOF {
		switch p.cur.Kind {
		case KwTokens:
			p.parseTokensBlock(g)
		case KwRule, KwStart:
			p.parseRule(g)
		case KwTest:
			p.parseTestSuite(g)
		default:
			p.errorf(p.cur.Pos, "unexpected %q inside grammar %s", p.cur.Text, g.Name)
			p.advance()
			p.syncUntil(grammarBodyKinds...)
		}
	}

	if p.cur.Kind == KwEnd {
		p.advance()
	} else {
		p.errorf(p.cur.Pos, "expected 'end' to close grammar %s", g.Name)
	}
	return g
}

// parseTokensBlock parses "tokens:" followed by zero or more
// "NAME: [skip] PATTERN" lines and, when present, the block's closing
// "end"; a block without "end" stops at the first line that does not
// start with an uppercase token name. Each pattern is read with
// Lexer.RestOfLine once the parser has confirmed (via the raw-mode
// invariant documented on Parser) that the lexer's scan position sits
// immediately after the per-token colon.
func (p *Parser) parseTokensBlock(g *model.Grammar) {
	p.advance() // consume 'tokens'
	if p.cur.Kind != COLON {
		p.errorf(p.cur.Pos, "expected ':' after 'tokens'")
		return
	}
	p.advance() // consume ':' -> cur is the first token name, or a keyword ending the block

	for p.cur.Kind == UIDENT {
		nameTok := p.cur
		p.advance() // cur should now be the per-token ':'
		if p.cur.Kind != COLON {
			p.errorf(p.cur.Pos, "expected ':' after token name %s", nameTok.Text)
			p.syncUntil(KwTokens, KwRule, KwStart, KwTest, KwEnd, UIDENT)
			continue
		}
		skip := p.lex.tryConsumeSkipKeyword()
		pattern, pos := p.lex.RestOfLine()
		g.Tokens = append(g.Tokens, &model.Token{
			Name:    nameTok.Text,
			Pattern: pattern,
			Skip:    skip,
			Pos:     pos,
		})
		p.advance() // resync: next token name, or a block-ending keyword
	}
	if p.cur.Kind == KwEnd {
		p.advance() // consume the block's closing 'end'
	}
}

func (p *Parser) parseRule(g *model.Grammar) {
	isStart := false
	if p.cur.Kind == KwStart {
		isStart = true
		p.advance()
	}
	if p.cur.Kind != KwRule {
		p.errorf(p.cur.Pos, "expected 'rule', got %q", p.cur.Text)
		p.syncUntil(grammarBodyKinds...)
		return
	}
	p.advance() // consume 'rule'

	nameTok := p.cur
	if nameTok.Kind != IDENT && nameTok.Kind != UIDENT {
		p.errorf(nameTok.Pos, "expected rule name, got %q", nameTok.Text)
		p.syncUntil(grammarBodyKinds...)
		return
	}
	p.advance()

	if p.cur.Kind != COLON {
		p.errorf(p.cur.Pos, "expected ':' after rule name %s", nameTok.Text)
	} else {
		p.advance()
	}

	rule := &model.Rule{Name: nameTok.Text, IsStart: isStart, Pos: nameTok.Pos}

	for p.cur.Kind == PIPE {
		p.advance()
		rule.Expressions = append(rule.Expressions, p.parseExpression())
	}

	if len(rule.Expressions) == 0 {
		p.errorf(nameTok.Pos, "rule %s has no alternatives", nameTok.Text)
	}

	if p.cur.Kind == KwEnd {
		p.advance()
	} else {
		p.errorf(p.cur.Pos, "expected 'end' to close rule %s", nameTok.Text)
		p.syncUntil(grammarBodyKinds...)
	}

	g.Rules = append(g.Rules, rule)
}

func (p *Parser) parseExpression() *model.Expression {
	pos := p.cur.Pos
	var terms []*model.Term
	for p.cur.Kind != ARROW && p.cur.Kind != EOF && p.cur.Kind != PIPE && p.cur.Kind != KwEnd {
		terms = append(terms, p.parseTerm())
	}
	if p.cur.Kind != ARROW {
		p.errorf(p.cur.Pos, "expected '->' in alternative, got %q", p.cur.Text)
		return &model.Expression{Terms: terms, Action: &model.Action{Kind: model.ActionPass, Pos: pos}, Pos: pos}
	}
	p.advance() // consume '->'

	action := p.parseAction()

	var guard *model.CheckGuard
	if p.cur.Kind == KwCheck {
		guard = p.parseGuard()
	}

	return &model.Expression{Terms: terms, Action: action, Guard: guard, Pos: pos}
}

func (p *Parser) parseTerm() *model.Term {
	binding := ""
	if p.cur.Kind == IDENT && p.peekToken().Kind == COLON {
		binding = p.cur.Text
		p.advance() // consume identifier (cur becomes the peeked ':')
		p.advance() // consume ':' (cur becomes the real next token)
	}

	term := p.parseBaseTerm()

	if p.cur.Kind == QUESTION || p.cur.Kind == STAR || p.cur.Kind == PLUS {
		q := model.Quantifier(p.cur.Text[0])
		p.advance()
		term = model.NewRepetitionTerm(term, q)
	}

	term.Binding = binding
	return term
}

func (p *Parser) parseBaseTerm() *model.Term {
	tok := p.cur
	switch tok.Kind {
	case STRING:
		p.advance()
		return model.NewLiteralTerm(tok.Text, tok.Pos)
	case IDENT, UIDENT:
		p.advance()
		return model.NewReferenceTerm(tok.Text, tok.Pos)
	default:
		p.errorf(tok.Pos, "expected a term (identifier or literal), got %q", tok.Text)
		p.advance()
		return model.NewReferenceTerm("", tok.Pos)
	}
}

func (p *Parser) parseAction() *model.Action {
	pos := p.cur.Pos
	if p.cur.Kind == KwPass {
		p.advance()
		return &model.Action{Kind: model.ActionPass, Pos: pos}
	}
	if p.cur.Kind != IDENT {
		p.errorf(pos, "expected 'pass' or a constructor name, got %q", p.cur.Text)
		return &model.Action{Kind: model.ActionPass, Pos: pos}
	}
	node := p.cur.Text
	p.advance()

	if p.cur.Kind != LPAREN {
		p.errorf(p.cur.Pos, "expected '(' after constructor name %s", node)
		return &model.Action{Kind: model.ActionConstructor, Node: node, Pos: pos}
	}
	p.advance()

	var args []model.ActionArg
	for p.cur.Kind != RPAREN && p.cur.Kind != EOF {
		args = append(args, p.parseActionArg())
		if p.cur.Kind == COMMA {
			p.advance()
		}
	}
	if p.cur.Kind == RPAREN {
		p.advance()
	} else {
		p.errorf(p.cur.Pos, "expected ')' to close constructor %s", node)
	}
	return &model.Action{Kind: model.ActionConstructor, Node: node, Args: args, Pos: pos}
}

func (p *Parser) parseActionArg() model.ActionArg {
	tok := p.cur
	switch tok.Kind {
	case STRING:
		p.advance()
		return model.ActionArg{Kind: model.ArgString, String: tok.Text}
	case NUMBER:
		p.advance()
		n, _ := strconv.ParseInt(tok.Text, 10, 64)
		return model.ActionArg{Kind: model.ArgInt, Int: n}
	case IDENT:
		name := tok.Text
		p.advance()
		if p.cur.Kind == LPAREN {
			p.advance()
			inner := p.cur.Text
			p.advance()
			if p.cur.Kind == RPAREN {
				p.advance()
			} else {
				p.errorf(p.cur.Pos, "expected ')' to close call %s(...)", name)
			}
			return model.ActionArg{Kind: model.ArgCall, Fn: name, Ident: inner}
		}
		return model.ActionArg{Kind: model.ArgIdent, Ident: name}
	default:
		p.errorf(tok.Pos, "expected an action argument, got %q", tok.Text)
		p.advance()
		return model.ActionArg{Kind: model.ArgIdent, Ident: ""}
	}
}

// parseGuard parses "check COND then STMT [else then STMT]". It must
// be called with p.cur.Kind == KwCheck and must not call advance() or
// peekToken() before the first raw read — see the Parser doc comment.
func (p *Parser) parseGuard() *model.CheckGuard {
	pos := p.cur.Pos

	cond, _ := p.lex.RawUntilKeyword("then")
	stmt, hitElse := p.lex.RawGuardStmt()

	g := &model.CheckGuard{Cond: cond, Then: stmt, Pos: pos}
	if hitElse {
		p.lex.RawUntilKeyword("then")
		elseStmt, _ := p.lex.RawGuardStmt()
		g.Else = elseStmt
		g.HasElse = true
	}

	p.advance() // resync: cur is the real next token (e.g. '|' or 'end')
	return g
}

func (p *Parser) parseTestSuite(g *model.Grammar) {
	p.advance() // consume 'test'

	nameTok := p.cur
	if nameTok.Kind != IDENT && nameTok.Kind != UIDENT {
		p.errorf(nameTok.Pos, "expected test suite name, got %q", nameTok.Text)
		p.syncUntil(grammarBodyKinds...)
		return
	}
	p.advance()

	target := ""
	if p.cur.Kind != COLON {
		target = p.cur.Text
		p.advance()
	}

	if p.cur.Kind != COLON {
		p.errorf(p.cur.Pos, "expected ':' to open test suite %s", nameTok.Text)
	} else {
		p.advance()
	}

	suite := &model.TestSuite{Name: nameTok.Text, TargetRule: target, Pos: nameTok.Pos}

	for p.cur.Kind == STRING {
		suite.Cases = append(suite.Cases, p.parseTestCase())
	}

	if p.cur.Kind == KwEnd {
		p.advance()
	} else {
		p.errorf(p.cur.Pos, "expected 'end' to close test suite %s", nameTok.Text)
		p.syncUntil(grammarBodyKinds...)
	}

	g.TestSuites = append(g.TestSuites, suite)
}

func (p *Parser) parseTestCase() *model.TestCase {
	inputTok := p.cur
	p.advance()

	if p.cur.Kind != FATARROW {
		p.errorf(p.cur.Pos, "expected '=>' after test input")
	} else {
		p.advance()
	}

	tc := &model.TestCase{Input: inputTok.Text, Pos: inputTok.Pos}
	switch p.cur.Kind {
	case KwSuccess:
		tc.Expectation = model.ExpectSuccess
		p.advance()
	case KwFail:
		tc.Expectation = model.ExpectFail
		p.advance()
	case KwYields:
		p.advance()
		if p.cur.Kind != LPAREN {
			p.errorf(p.cur.Pos, "expected '(' after 'Yields'")
		} else {
			p.advance()
		}
		tc.Expectation = model.ExpectYields
		tc.Pattern = p.parsePattern()
		if p.cur.Kind == RPAREN {
			p.advance()
		} else {
			p.errorf(p.cur.Pos, "expected ')' to close Yields(...)")
		}
	default:
		p.errorf(p.cur.Pos, "expected Success, Fail or Yields(...), got %q", p.cur.Text)
	}
	return tc
}

func (p *Parser) parsePattern() *model.Pattern {
	tok := p.cur
	switch tok.Kind {
	case DOTS:
		p.advance()
		return &model.Pattern{Wildcard: true}
	case NUMBER:
		p.advance()
		n, _ := strconv.ParseFloat(tok.Text, 64)
		return &model.Pattern{IsNumber: true, Number: n}
	case STRING:
		p.advance()
		return &model.Pattern{IsString: true, String: tok.Text}
	case IDENT, UIDENT:
		p.advance()
		pat := &model.Pattern{Node: tok.Text}
		if p.cur.Kind != LPAREN {
			p.errorf(p.cur.Pos, "expected '(' after constructor %s in pattern", tok.Text)
			return pat
		}
		p.advance()
		for p.cur.Kind != RPAREN && p.cur.Kind != EOF {
			pat.Args = append(pat.Args, p.parsePattern())
			if p.cur.Kind == COMMA {
				p.advance()
			}
		}
		if p.cur.Kind == RPAREN {
			p.advance()
		} else {
			p.errorf(p.cur.Pos, "expected ')' to close pattern %s(...)", tok.Text)
		}
		return pat
	default:
		p.errorf(tok.Pos, "expected a pattern term, got %q", tok.Text)
		p.advance()
		return &model.Pattern{Wildcard: true}
	}
}
