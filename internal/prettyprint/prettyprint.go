// Package prettyprint renders a compiled model.Grammar back to .apy
// source text. It backs the "fmt" CLI command and the round-trip
// testable property spec.md §8 names ("for any valid grammar G,
// emit(parse_grammar(emit_textual_form(G))) ≡ G structurally"):
// internal/frontend can re-ingest this package's output and recover
// an equivalent model.Grammar.
//
// There is no teacher equivalent — pigeon ships no grammar
// pretty-printer, only a parser generator — so this package is
// grounded on the general shape of the front-end's own grammar
// (internal/frontend/parser.go) read in reverse: it emits exactly the
// keywords and block terminators that package parses.
package prettyprint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Andres95123/acanthopys/internal/model"
)

// Print renders g as .apy source text.
func Print(g *model.Grammar) string {
	var b strings.Builder
	fmt.Fprintf(&b, "grammar %s:\n", g.Name)

	if declared := declaredTokens(g.Tokens); len(declared) > 0 {
		b.WriteString("\ntokens:\n")
		for _, t := range declared {
			if t.Skip {
				fmt.Fprintf(&b, "    %s: skip %s\n", t.Name, t.Pattern)
			} else {
				fmt.Fprintf(&b, "    %s: %s\n", t.Name, t.Pattern)
			}
		}
		b.WriteString("end\n")
	}

	for _, r := range g.Rules {
		b.WriteString("\n")
		if r.IsStart {
			b.WriteString("start ")
		}
		fmt.Fprintf(&b, "rule %s:\n", r.Name)
		for _, e := range r.Expressions {
			printExpression(&b, e)
		}
		b.WriteString("end\n")
	}

	for _, suite := range g.TestSuites {
		b.WriteString("\n")
		if suite.TargetRule != "" {
			fmt.Fprintf(&b, "test %s %s:\n", suite.Name, suite.TargetRule)
		} else {
			fmt.Fprintf(&b, "test %s:\n", suite.Name)
		}
		for _, tc := range suite.Cases {
			printTestCase(&b, tc)
		}
		b.WriteString("end\n")
	}

	b.WriteString("\nend\n")
	return b.String()
}

// declaredTokens drops synthetic tokens created from inline literals:
// they are not part of the author's tokens: block and printing them
// back would duplicate the literal declaration that produced them.
func declaredTokens(tokens []*model.Token) []*model.Token {
	var out []*model.Token
	for _, t := range tokens {
		if !t.Synthetic {
			out = append(out, t)
		}
	}
	return out
}

func printExpression(b *strings.Builder, e *model.Expression) {
	b.WriteString("    |")
	for _, t := range e.Terms {
		b.WriteString(" ")
		printTerm(b, t)
	}
	b.WriteString(" -> ")
	printAction(b, e.Action)
	if e.Guard != nil {
		printGuard(b, e.Guard)
	}
	b.WriteString("\n")
}

func printTerm(b *strings.Builder, t *model.Term) {
	if t.Binding != "" {
		fmt.Fprintf(b, "%s:", t.Binding)
	}
	switch t.Kind {
	case model.TermReference:
		b.WriteString(t.Reference)
	case model.TermLiteral:
		fmt.Fprintf(b, "%q", t.Literal)
	case model.TermRepetition:
		printTerm(b, t.Base)
		b.WriteByte(byte(t.Quant))
	}
}

func printAction(b *strings.Builder, a *model.Action) {
	if a == nil || a.Kind == model.ActionPass {
		b.WriteString("pass")
		return
	}
	b.WriteString(a.Node)
	b.WriteString("(")
	for i, arg := range a.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		printActionArg(b, arg)
	}
	b.WriteString(")")
}

func printActionArg(b *strings.Builder, a model.ActionArg) {
	switch a.Kind {
	case model.ArgIdent:
		b.WriteString(a.Ident)
	case model.ArgInt:
		b.WriteString(strconv.FormatInt(a.Int, 10))
	case model.ArgString:
		fmt.Fprintf(b, "%q", a.String)
	case model.ArgCall:
		fmt.Fprintf(b, "%s(%s)", a.Fn, a.Ident)
	}
}

func printGuard(b *strings.Builder, g *model.CheckGuard) {
	fmt.Fprintf(b, " check %s then %s", g.Cond, g.Then)
	if g.HasElse {
		fmt.Fprintf(b, " else then %s", g.Else)
	}
}

func printTestCase(b *strings.Builder, tc *model.TestCase) {
	fmt.Fprintf(b, "    %q => ", tc.Input)
	switch tc.Expectation {
	case model.ExpectSuccess:
		b.WriteString("Success")
	case model.ExpectFail:
		b.WriteString("Fail")
	case model.ExpectYields:
		b.WriteString("Yields(")
		printPattern(b, tc.Pattern)
		b.WriteString(")")
	}
	b.WriteString("\n")
}

func printPattern(b *strings.Builder, p *model.Pattern) {
	switch {
	case p == nil:
		b.WriteString("null")
	case p.Wildcard:
		b.WriteString("...")
	case p.IsNumber:
		b.WriteString(strconv.FormatFloat(p.Number, 'g', -1, 64))
	case p.IsString:
		fmt.Fprintf(b, "'%s'", p.String)
	default:
		b.WriteString(p.Node)
		b.WriteString("(")
		for i, arg := range p.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			printPattern(b, arg)
		}
		b.WriteString(")")
	}
}
