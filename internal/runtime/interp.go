package runtime

import (
	"fmt"
	"io"

	"github.com/Andres95123/acanthopys/internal/model"
)

// Parser drives a packrat parse of a single Grammar. It owns the
// compiled Lexer and the derived sync-token set; a fresh interp (the
// actual recursive matcher, with its own memo table) is created for
// every call so parses never share mutable state, per spec.md §5's
// single-threaded, non-shared-state concurrency model.
type Parser struct {
	g          *model.Grammar
	lexer      *Lexer
	debug      bool
	trace      io.Writer
	recovery   bool
	syncTokens map[string]bool
}

// NewParser compiles g's token table and derives its static
// synchronization set.
func NewParser(g *model.Grammar, opts ...Option) (*Parser, error) {
	lx, err := NewLexer(g.Tokens)
	if err != nil {
		return nil, err
	}
	p := &Parser{g: g, lexer: lx, recovery: true, trace: io.Discard}
	for _, opt := range opts {
		opt(p)
	}
	p.syncTokens = deriveSyncTokens(g)
	return p, nil
}

// deriveSyncTokens implements spec.md §4.D: "Synchronization tokens
// are derived statically during emission as any token that appears as
// a rule's first or last token."
func deriveSyncTokens(g *model.Grammar) map[string]bool {
	sync := map[string]bool{}
	tokenNameOf := func(t *model.Term) (string, bool) {
		for t.Kind == model.TermRepetition {
			t = t.Base
		}
		if t.Kind == model.TermReference && g.TokenByName(t.Reference) != nil {
			return t.Reference, true
		}
		return "", false
	}
	for _, r := range g.Rules {
		for _, expr := range r.Expressions {
			if len(expr.Terms) == 0 {
				continue
			}
			if name, ok := tokenNameOf(expr.Terms[0]); ok {
				sync[name] = true
			}
			if name, ok := tokenNameOf(expr.Terms[len(expr.Terms)-1]); ok {
				sync[name] = true
			}
		}
	}
	return sync
}

// Parse runs the grammar's start rule over input.
func (p *Parser) Parse(input string) *ParseResult {
	return p.ParseRule(p.g.StartRuleName(), input)
}

// ParseRule runs a specific rule over input, supporting the generated
// API's per-rule entry points (spec.md §6) and the test runner's
// "target rule" test suites.
func (p *Parser) ParseRule(ruleName string, input string) *ParseResult {
	toks, lexErrs := p.lexer.Lex(input)

	in := &interp{
		g:           p.g,
		toks:        toks,
		recovery:    p.recovery,
		syncTokens:  p.syncTokens,
		debug:       p.debug,
		trace:       p.trace,
		memo:        map[memoKey]*memoEntry{},
		growing:     map[memoKey]*seedState{},
		farthestPos: -1,
	}
	value, end, ok := in.parseRule(ruleName, 0)

	var errs []*ParseError
	for _, le := range lexErrs {
		errs = append(errs, &ParseError{Message: le.Message, Line: le.Line, Column: le.Column})
	}
	errs = append(errs, in.errs...)

	consumedAll := end >= len(toks)-1 // the EOF sentinel is always the last token
	if (!ok || !consumedAll) && len(errs) == 0 {
		pos := end
		msg := "unexpected end of input"
		if in.farthestPos >= 0 {
			pos = in.farthestPos
			if in.farthestMsg != "" {
				msg = in.farthestMsg
			}
		}
		tok := in.tokAt(pos)
		errs = append(errs, &ParseError{Message: msg, Line: tok.Line, Column: tok.Col})
	}

	return &ParseResult{AST: value, Errors: errs, Tokens: toks, IsValid: len(errs) == 0}
}

type memoKey struct {
	rule string
	pos  int
}

type memoEntry struct {
	value interface{}
	end   int
	ok    bool
}

// seedState holds the growing-seed record for one left-recursive rule
// invocation, keyed the same as memoEntry (spec.md §9 "growing-seed
// state").
type seedState struct {
	value interface{}
	end   int
	ok    bool
}

// termValue pairs a matched term's value with whether the term was a
// literal, for "pass"'s "single non-literal term value" fallback.
type termValue struct {
	value   interface{}
	literal bool
}

// interp is the recursive matcher for a single parse invocation: it
// owns the memo table, the in-progress left-recursion seeds, and the
// accumulated runtime errors, mirroring the per-call state the
// teacher's ϡvm holds (position stack, memoized results) but walking
// the Grammar model directly instead of a compiled bytecode program.
type interp struct {
	g          *model.Grammar
	toks       []Token
	recovery   bool
	syncTokens map[string]bool
	debug      bool
	trace      io.Writer

	memo    map[memoKey]*memoEntry
	growing map[memoKey]*seedState
	errs    []*ParseError

	// farthestPos/farthestMsg track the rightmost failure seen during
	// the parse, the way the teacher's ϡffp tracks farthest failure
	// position — used only to phrase the single fallback ParseError
	// when no rule or guard raised one explicitly.
	farthestPos int
	farthestMsg string
}

func (in *interp) tokAt(pos int) Token {
	if pos >= len(in.toks) {
		return in.toks[len(in.toks)-1]
	}
	return in.toks[pos]
}

func (in *interp) recordFailure(pos int, msg string) {
	if pos >= in.farthestPos {
		in.farthestPos = pos
		in.farthestMsg = msg
	}
}

func (in *interp) parseRule(name string, pos int) (interface{}, int, bool) {
	rule := in.g.RuleByName(name)
	if rule == nil {
		t := in.tokAt(pos)
		in.errs = append(in.errs, &ParseError{Message: fmt.Sprintf("undefined rule %s", name), Line: t.Line, Column: t.Col})
		return nil, pos, false
	}

	key := memoKey{name, pos}
	if e, found := in.memo[key]; found {
		in.tracef("MEMO  %s @%d -> ok=%v end=%d", name, pos, e.ok, e.end)
		return e.value, e.end, e.ok
	}

	in.tracef("ENTER %s @%d", name, pos)
	var value interface{}
	var end int
	var ok bool
	if rule.LeftRecursive {
		value, end, ok = in.parseLeftRecursive(rule, pos)
	} else {
		value, end, ok = in.evalAlternatives(rule, pos)
		in.memo[key] = &memoEntry{value, end, ok}
	}
	in.tracef("EXIT  %s @%d -> ok=%v end=%d", name, pos, ok, end)
	return value, end, ok
}

// tracef writes a rule entry/exit trace line when debug tracing is
// enabled (spec.md §9 / SPEC_FULL.md §2's "-v"/debug trace). It is a
// no-op unless both Debug(true) and Trace(w) were supplied: the
// writer defaults to io.Discard, so enabling debug alone stays silent
// until the caller also names a destination.
func (in *interp) tracef(format string, args ...interface{}) {
	if !in.debug {
		return
	}
	fmt.Fprintf(in.trace, format+"\n", args...)
}

// parseLeftRecursive implements spec.md §4.D's seed-growing algorithm
// for direct left recursion.
func (in *interp) parseLeftRecursive(rule *model.Rule, pos int) (interface{}, int, bool) {
	key := memoKey{rule.Name, pos}
	if seed, growing := in.growing[key]; growing {
		return seed.value, seed.end, seed.ok
	}

	seed := &seedState{ok: false, end: pos}
	in.growing[key] = seed
	for {
		value, end, ok := in.evalAlternatives(rule, pos)
		if !ok || end <= seed.end {
			break
		}
		seed.value, seed.end, seed.ok = value, end, true
	}
	delete(in.growing, key)

	in.memo[key] = &memoEntry{seed.value, seed.end, seed.ok}
	return seed.value, seed.end, seed.ok
}

func (in *interp) evalAlternatives(rule *model.Rule, pos int) (interface{}, int, bool) {
	for _, expr := range rule.Expressions {
		if value, end, ok := in.evalExpression(expr, pos); ok {
			return value, end, true
		}
	}
	in.recordFailure(pos, fmt.Sprintf("no alternative of %s matched", rule.Name))
	return nil, pos, false
}

func (in *interp) evalExpression(expr *model.Expression, pos int) (interface{}, int, bool) {
	cur := pos
	scope := map[string]interface{}{}
	values := make([]termValue, 0, len(expr.Terms))

	for _, t := range expr.Terms {
		v, newPos, ok := in.evalTerm(t, cur)
		if !ok {
			return nil, pos, false
		}
		cur = newPos
		if t.Binding != "" {
			scope[t.Binding] = v
		}
		values = append(values, termValue{value: v, literal: t.Kind == model.TermLiteral})
	}

	result := in.evalAction(expr.Action, scope, values)

	if expr.Guard != nil {
		scope["v"] = result
		if evalGuardCond(expr.Guard.Cond, scope) {
			outcome := evalGuardStmt(expr.Guard.Then, scope, result)
			if !outcome.ok {
				in.recordFailure(cur, outcome.message)
				return nil, pos, false
			}
			result = outcome.value
		} else if expr.Guard.HasElse {
			outcome := evalGuardStmt(expr.Guard.Else, scope, result)
			if !outcome.ok {
				in.recordFailure(cur, outcome.message)
				return nil, pos, false
			}
			result = outcome.value
		}
	}

	return result, cur, true
}

func (in *interp) evalAction(action *model.Action, scope map[string]interface{}, values []termValue) interface{} {
	if action == nil {
		return nil
	}
	switch action.Kind {
	case model.ActionPass:
		if len(scope) == 1 {
			for _, v := range scope {
				return v
			}
		}
		var nonLiteral []interface{}
		for _, tv := range values {
			if !tv.literal {
				nonLiteral = append(nonLiteral, tv.value)
			}
		}
		if len(nonLiteral) == 1 {
			return nonLiteral[0]
		}
		return nil
	case model.ActionConstructor:
		node := &Node{Constructor: action.Node}
		for _, arg := range action.Args {
			node.Args = append(node.Args, evalActionArg(arg, scope))
		}
		return node
	default:
		return nil
	}
}

func (in *interp) evalTerm(t *model.Term, pos int) (interface{}, int, bool) {
	switch t.Kind {
	case model.TermReference:
		if tok := in.g.TokenByName(t.Reference); tok != nil {
			return in.evalTokenRef(t.Reference, pos)
		}
		return in.parseRule(t.Reference, pos)
	case model.TermLiteral:
		// The checker promotes every literal term to a synthetic token
		// reference; this branch only covers a grammar model built by
		// hand (e.g. in a test) that skipped that pass.
		cur := in.tokAt(pos)
		if pos < len(in.toks)-1 && cur.Text == t.Literal {
			return cur.Text, pos + 1, true
		}
		in.recordFailure(pos, fmt.Sprintf("expected %q", t.Literal))
		return nil, pos, false
	case model.TermRepetition:
		return in.evalRepetition(t, pos)
	default:
		return nil, pos, false
	}
}

func (in *interp) evalTokenRef(name string, pos int) (interface{}, int, bool) {
	if pos >= len(in.toks)-1 {
		in.recordFailure(pos, fmt.Sprintf("expected %s, got end of input", name))
		return nil, pos, false
	}
	cur := in.toks[pos]
	if cur.Name != name {
		in.recordFailure(pos, fmt.Sprintf("expected %s, got %s", name, cur.Name))
		return nil, pos, false
	}
	return cur.Text, pos + 1, true
}

func (in *interp) evalRepetition(t *model.Term, pos int) (interface{}, int, bool) {
	if t.Quant == model.QuantOpt {
		v, newPos, ok := in.evalTerm(t.Base, pos)
		if !ok {
			return nil, pos, true
		}
		return v, newPos, true
	}

	var list []interface{}
	cur := pos
	for {
		start := cur
		v, newPos, ok := in.evalTerm(t.Base, cur)
		if !ok {
			if in.recovery {
				if node, afterPos, recovered := in.attemptRecovery(cur); recovered {
					list = append(list, node)
					cur = afterPos
					continue
				}
			}
			break
		}
		list = append(list, v)
		cur = newPos
		if newPos == start {
			// e matched empty: one iteration only (spec.md §4.D).
			break
		}
	}

	if t.Quant == model.QuantPlus && len(list) == 0 {
		return nil, pos, false
	}
	return list, cur, true
}

// attemptRecovery implements panic-mode synchronization within a
// repetition (spec.md §4.D): it records a ParseError at the failing
// position, skips tokens up to and including the next statically
// derived sync token, and hands back an ErrorNode so the enclosing
// repetition can keep matching subsequent iterations.
func (in *interp) attemptRecovery(pos int) (*ErrorNode, int, bool) {
	if pos >= len(in.toks)-1 {
		return nil, pos, false
	}
	start := in.tokAt(pos)
	cur := pos
	for cur < len(in.toks)-1 {
		if in.syncTokens[in.toks[cur].Name] {
			cur++
			break
		}
		cur++
	}
	if cur == pos {
		return nil, pos, false
	}

	msg := fmt.Sprintf("unexpected token %s %q", start.Name, start.Text)
	in.errs = append(in.errs, &ParseError{Message: msg, Line: start.Line, Column: start.Col})
	return &ErrorNode{Message: msg, Line: start.Line, Col: start.Col}, cur, true
}
