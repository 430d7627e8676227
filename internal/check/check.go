// Package check implements component (B) of spec.md: the semantic
// checker that walks a parsed model.Grammar and reports duplicate
// declarations, resolves the start rule, resolves rule/token
// references (suggesting a nearby name via Levenshtein distance when
// one is undefined, grounded on open-policy-agent-opa's
// internal/levenshtein.ClosestStrings), marks direct left recursion,
// and raises the advisory checks spec.md §7 lists (naming
// conventions, unused/shadowed tokens, unreachable rules, orphan
// constructors, unnecessary pass captures).
//
// The recursive descent over imports in btouchard-gmx's
// internal/compiler/resolver.Resolver (loading/circular-detection via
// a name->bool map, one addError per failure) is the shape this
// package's reachability walk and its own "loading" set borrow for
// cycle-safe traversal.
package check

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/Andres95123/acanthopys/internal/gerrors"
	"github.com/Andres95123/acanthopys/internal/model"
)

// Checker runs the full semantic pass over a single Grammar.
type Checker struct {
	g     *model.Grammar
	diags gerrors.Bag

	ruleNames  map[string]bool
	tokenNames map[string]bool
}

// Run performs every semantic check spec.md §4.B and §7 describe and
// returns the accumulated diagnostics. It mutates g in place
// (Rule.LeftRecursive, Rule.Reachable, Token.Unused, Token.Shadowed,
// Grammar.StartRule, Grammar.StartImplicit) the way the teacher's
// generated parser mutates none of its (immutable) model but the
// checker here plays the role pigeon's `buildRulesTable` + duplicate
// checks play ahead of code generation.
func Run(g *model.Grammar) *gerrors.Bag {
	c := &Checker{g: g, ruleNames: map[string]bool{}, tokenNames: map[string]bool{}}
	c.synthesizeLiteralTokens()
	c.checkDuplicateTokens()
	c.checkDuplicateRules()
	c.resolveStartRule()
	c.resolveReferences()
	c.markLeftRecursion()
	c.checkReachability()
	c.checkAdvisory()
	return &c.diags
}

func (c *Checker) errf(sev gerrors.Severity, pos model.Position, rule, format string, args ...interface{}) {
	c.diags.Add(&gerrors.Diagnostic{Severity: sev, Pos: pos, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// synthesizeLiteralTokens rewrites every inline quoted-literal term
// ("if", "then", ...) into a reference to a synthetic token, creating
// that token the first time a given literal text is seen (spec.md §8
// scenario 5: `"if" Expr "then" Stmt` "compiles by synthesizing tokens
// for \"if\" and \"then\"").
//
// New tokens are inserted right after the last declared token whose
// pattern is a bare word (no regex metacharacters — a "keyword"
// token), or at the top of the table when no declared token is
// keyword-like, resolving the ordering spec.md §9 leaves as an open
// question: synthetics sort with the keyword-like tokens rather than
// behind the whole declared table. A broader pattern declared before
// the last keyword-like token still comes ahead of them.
func (c *Checker) synthesizeLiteralTokens() {
	// Declared names are seeded so synthetic names never collide with
	// them; the set is cleared afterwards so checkDuplicateTokens sees
	// every token, declared or synthetic, exactly once.
	for _, t := range c.g.Tokens {
		c.tokenNames[t.Name] = true
	}
	defer func() { c.tokenNames = map[string]bool{} }()

	insertAt := 0
	for i, t := range c.g.Tokens {
		if isKeywordLikePattern(t.Pattern) {
			insertAt = i + 1
		}
	}

	byLiteral := map[string]string{}
	var synthetic []*model.Token

	var walk func(t *model.Term)
	walk = func(t *model.Term) {
		switch t.Kind {
		case model.TermRepetition:
			walk(t.Base)
		case model.TermLiteral:
			name, ok := byLiteral[t.Literal]
			if !ok {
				name = c.newSyntheticTokenName(t.Literal)
				byLiteral[t.Literal] = name
				c.tokenNames[name] = true
				synthetic = append(synthetic, &model.Token{
					Name:      name,
					Pattern:   regexp.QuoteMeta(t.Literal),
					Synthetic: true,
					Pos:       t.Pos,
				})
			}
			t.Kind = model.TermReference
			t.Reference = name
		}
	}

	for _, r := range c.g.Rules {
		for _, expr := range r.Expressions {
			for _, t := range expr.Terms {
				walk(t)
			}
		}
	}

	if len(synthetic) == 0 {
		return
	}
	merged := make([]*model.Token, 0, len(c.g.Tokens)+len(synthetic))
	merged = append(merged, c.g.Tokens[:insertAt]...)
	merged = append(merged, synthetic...)
	merged = append(merged, c.g.Tokens[insertAt:]...)
	c.g.Tokens = merged
}

func isKeywordLikePattern(pattern string) bool {
	if pattern == "" {
		return false
	}
	for _, r := range pattern {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}

// newSyntheticTokenName derives an UPPER_SNAKE_CASE token name from a
// literal's text, disambiguating against any name already declared or
// synthesized.
func (c *Checker) newSyntheticTokenName(lit string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(lit) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	base := strings.Trim(b.String(), "_")
	if base == "" {
		base = "LIT"
	}
	name := base
	for i := 2; c.tokenNames[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	return name
}

func (c *Checker) checkDuplicateTokens() {
	for _, t := range c.g.Tokens {
		if c.tokenNames[t.Name] {
			c.errf(gerrors.SemanticError, t.Pos, "", "token %s is declared more than once", t.Name)
			continue
		}
		c.tokenNames[t.Name] = true
	}
}

func (c *Checker) checkDuplicateRules() {
	for _, r := range c.g.Rules {
		if c.ruleNames[r.Name] {
			c.errf(gerrors.SemanticError, r.Pos, "", "rule %s is declared more than once", r.Name)
			continue
		}
		c.ruleNames[r.Name] = true
	}
}

// resolveStartRule implements spec.md §4.B's start-rule resolution:
// an explicit "start rule" wins; with none, the first declared rule
// is used and StartImplicit records that an advisory should follow;
// more than one "start rule" is a SemanticError.
func (c *Checker) resolveStartRule() {
	start := -1
	for i, r := range c.g.Rules {
		if !r.IsStart {
			continue
		}
		if start != -1 {
			c.errf(gerrors.SemanticError, r.Pos, r.Name, "grammar %s declares more than one start rule (%s and %s)",
				c.g.Name, c.g.Rules[start].Name, r.Name)
			continue
		}
		start = i
	}
	if start == -1 {
		if len(c.g.Rules) == 0 {
			c.errf(gerrors.SemanticError, model.Position{}, "", "grammar %s declares no rules", c.g.Name)
			return
		}
		start = 0
		c.g.StartImplicit = true
		c.errf(gerrors.Advisory, c.g.Rules[0].Pos, c.g.Rules[0].Name,
			"no rule is marked 'start'; using the first declared rule %s", c.g.Rules[0].Name)
	}
	c.g.StartRule = start
}

// resolveReferences walks every Term and reports UndefinedReference
// for any name that names neither a rule nor a token, suggesting the
// closest declared name by Levenshtein distance when one is within a
// reasonable edit distance (mirrors
// internal/levenshtein.ClosestStrings in the open-policy-agent-opa
// example, adapted from an iter.Seq candidate source to a plain
// slice).
func (c *Checker) resolveReferences() {
	var names []string
	for _, r := range c.g.Rules {
		names = append(names, r.Name)
	}
	for _, t := range c.g.Tokens {
		names = append(names, t.Name)
	}

	var walk func(t *model.Term, ruleName string)
	walk = func(t *model.Term, ruleName string) {
		switch t.Kind {
		case model.TermRepetition:
			walk(t.Base, ruleName)
		case model.TermReference:
			if c.ruleNames[t.Reference] || c.tokenNames[t.Reference] {
				return
			}
			msg := fmt.Sprintf("%s does not name a rule or token", t.Reference)
			if suggestion := closestName(t.Reference, names); suggestion != "" {
				msg += fmt.Sprintf(" (did you mean %s?)", suggestion)
			}
			c.errf(gerrors.SemanticError, t.Pos, ruleName, "%s", msg)
		}
	}

	for _, r := range c.g.Rules {
		for _, expr := range r.Expressions {
			for _, t := range expr.Terms {
				walk(t, r.Name)
			}
		}
	}
}

// closestName returns the candidate in candidates with the smallest
// Levenshtein distance to target, provided that distance is no more
// than a third of target's length (floor 2) — close enough to be a
// plausible typo, not so loose that unrelated names get suggested.
func closestName(target string, candidates []string) string {
	best := ""
	bestDist := -1
	limit := len(target) / 3
	if limit < 2 {
		limit = 2
	}
	for _, cand := range candidates {
		d := levenshtein.ComputeDistance(target, cand)
		if d > limit {
			continue
		}
		if bestDist == -1 || d < bestDist || (d == bestDist && cand < best) {
			best = cand
			bestDist = d
		}
	}
	return best
}

// markLeftRecursion sets Rule.LeftRecursive when some alternative's
// first term (after stripping any binding, which does not change
// evaluation order) is a reference back to the same rule. This is
// direct left recursion only; spec.md §4.D and §9 explicitly scope
// indirect/mutual left recursion out (Non-goals), so a cycle spanning
// more than one rule is left undetected here and, if present, makes
// the runtime recurse without bound at parse time (it has no
// recursion guard).
func (c *Checker) markLeftRecursion() {
	for _, r := range c.g.Rules {
		for _, expr := range r.Expressions {
			if len(expr.Terms) == 0 {
				continue
			}
			first := expr.Terms[0]
			if first.Kind == model.TermReference && first.Reference == r.Name {
				r.LeftRecursive = true
			}
		}
	}
}

// checkReachability marks every rule reachable from the start rule,
// then raises an Advisory for each that is not — grounded on the same
// depth-first "loading" guard resolver.Resolver uses for circular
// import detection, here reused for cycle-safe graph traversal rather
// than cycle rejection.
func (c *Checker) checkReachability() {
	if c.g.StartRule < 0 || c.g.StartRule >= len(c.g.Rules) {
		return
	}
	visited := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		r := c.g.RuleByName(name)
		if r == nil {
			return
		}
		for _, expr := range r.Expressions {
			for _, t := range expr.Terms {
				markTermReachable(t, visit)
			}
		}
	}
	visit(c.g.StartRuleName())

	for _, r := range c.g.Rules {
		r.Reachable = visited[r.Name]
		if !r.Reachable {
			c.errf(gerrors.Advisory, r.Pos, r.Name, "rule %s is unreachable from the start rule", r.Name)
		}
	}
}

func markTermReachable(t *model.Term, visit func(string)) {
	switch t.Kind {
	case model.TermRepetition:
		markTermReachable(t.Base, visit)
	case model.TermReference:
		visit(t.Reference)
	}
}

// checkAdvisory raises the remaining stylistic/non-fatal checks
// spec.md §7 lists: UPPER_SNAKE_CASE token names, unused non-skip
// tokens, a token shadowed by an identical or broader earlier pattern
// (since the lexer tries patterns in declaration order and keeps the
// first match), "pass" actions with more than one term (ambiguous
// which binding is returned), and orphan AST constructors (the same
// constructor name used at different arities across rules).
func (c *Checker) checkAdvisory() {
	used := map[string]bool{}
	var walk func(t *model.Term)
	walk = func(t *model.Term) {
		switch t.Kind {
		case model.TermRepetition:
			walk(t.Base)
		case model.TermReference:
			used[t.Reference] = true
		}
	}

	// ctorArity records, per constructor name, the arity of its first
	// occurrence and where it was first seen, so a later occurrence at
	// a different arity can be reported as an orphan constructor
	// (spec.md §4.B.5 / §7.1: "orphan AST constructors (same name used
	// with differing arities across rules)"). internal/emit's
	// collectNodeTypes relies on this check having already run: it
	// takes the first-seen arity per name and trusts it to be the only
	// one in use.
	type ctorSeen struct {
		rule  string
		arity int
		pos   model.Position
	}
	ctorArity := map[string]ctorSeen{}

	for _, r := range c.g.Rules {
		for _, expr := range r.Expressions {
			for _, t := range expr.Terms {
				walk(t)
			}
			if expr.Action != nil && expr.Action.Kind == model.ActionPass && len(expr.Terms) > 1 {
				c.errf(gerrors.Advisory, expr.Pos, r.Name,
					"'pass' with %d terms is ambiguous about which binding is returned", len(expr.Terms))
			}
			if expr.Action != nil && expr.Action.Kind == model.ActionConstructor {
				name := expr.Action.Node
				arity := len(expr.Action.Args)
				if seen, ok := ctorArity[name]; !ok {
					ctorArity[name] = ctorSeen{rule: r.Name, arity: arity, pos: expr.Action.Pos}
				} else if seen.arity != arity {
					c.errf(gerrors.Advisory, expr.Action.Pos, r.Name,
						"constructor %s(...) is used with %d argument(s) here but %d argument(s) in rule %s",
						name, arity, seen.arity, seen.rule)
				}
			}
		}
	}

	for i, t := range c.g.Tokens {
		if strings.ToUpper(t.Name) != t.Name {
			c.errf(gerrors.Advisory, t.Pos, "", "token name %s should be UPPER_SNAKE_CASE by convention", t.Name)
		}
		if !t.Skip && !used[t.Name] {
			t.Unused = true
			c.errf(gerrors.Advisory, t.Pos, "", "token %s is never referenced by any rule", t.Name)
		}
		for _, earlier := range c.g.Tokens[:i] {
			if earlier.Pattern == "" {
				continue
			}
			if earlier.Pattern == t.Pattern {
				t.Shadowed = true
				c.errf(gerrors.Advisory, t.Pos, "", "token %s has the same pattern as earlier token %s and can never match",
					t.Name, earlier.Name)
				continue
			}
			// spec.md §4.B.5: "a broader pattern preceding a stricter
			// one that would never match" -- the common real case is a
			// broad identifier/number pattern declared ahead of a bare
			// keyword it also matches (e.g. an ID token before an IF
			// keyword token). Detect it by checking whether the
			// earlier, broader pattern also matches the later token's
			// own literal text, when that later token is itself a bare
			// keyword.
			if isKeywordLikePattern(t.Pattern) && patternMatchesWhole(earlier.Pattern, t.Pattern) {
				t.Shadowed = true
				c.errf(gerrors.Advisory, t.Pos, "", "token %s is shadowed by the broader, earlier token %s and can never match",
					t.Name, earlier.Name)
			}
		}
	}
}

// patternMatchesWhole reports whether the regular expression pattern
// matches lit in its entirety, used to detect a broader earlier token
// pattern that would also consume a later, stricter keyword token's
// exact text.
func patternMatchesWhole(pattern, lit string) bool {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false
	}
	return re.MatchString(lit)
}
