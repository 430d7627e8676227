// Package runtime implements component (D) of spec.md: the generic
// PEG parse engine — a regex-driven lexer plus a packrat interpreter
// with left-recursion growing, ordered choice, repetition and
// panic-mode recovery. It is grounded on the teacher's vm/static_code.go
// runtime template: the position/current shape (Token here), the
// functional-options pattern (Option/Debug/Recover), and the public
// Parse/ParseFile entry-point style, generalized from pigeon's
// single generated-grammar bytecode VM to an interpreter that walks
// any model.Grammar directly — the per-grammar source files that
// internal/emit generates import this package and drive it.
package runtime

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/Andres95123/acanthopys/internal/model"
)

// Token is one lexical token surfaced on ParseResult.Tokens, matching
// the Token{name, text, line, column} shape spec.md §6 requires of the
// generated parser API.
type Token struct {
	Name   string
	Text   string
	Line   int
	Col    int
	Offset int
}

const eofTokenName = "EOF"

// errorTokenName names the synthetic token the lexer emits at a
// position where no declared token matches (spec.md §4.D: "emits a
// synthetic ErrorToken spanning one character and advances by one").
const errorTokenName = "ErrorToken"

type tokenRule struct {
	name string
	re   *regexp.Regexp
	skip bool
}

// Lexer tokenizes input against an ordered table built from a
// Grammar's declared (and checker-synthesized) tokens.
type Lexer struct {
	rules []tokenRule
}

// NewLexer compiles every token's pattern, anchored to match only at
// the current scan position (spec.md §4.D step 1: "tries each token
// in definition order... starting at p").
func NewLexer(tokens []*model.Token) (*Lexer, error) {
	rules := make([]tokenRule, 0, len(tokens))
	for _, t := range tokens {
		re, err := regexp.Compile(`\A(?:` + t.Pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("token %s: invalid pattern %q: %w", t.Name, t.Pattern, err)
		}
		rules = append(rules, tokenRule{name: t.Name, re: re, skip: t.Skip})
	}
	return &Lexer{rules: rules}, nil
}

// LexError reports a position the lexer could not tokenize.
type LexError struct {
	Message string
	Line    int
	Column  int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Lex scans input into a token stream (skip tokens omitted, per
// spec.md §4.D step 3) terminated by an EOF sentinel token, along with
// any LexErrors raised for positions where no token pattern matched.
func (l *Lexer) Lex(input string) ([]Token, []*LexError) {
	var toks []Token
	var errs []*LexError

	pos := 0
	line, col := 1, 1
	advance := func(text string) {
		for _, r := range text {
			if r == '\n' {
				line++
				col = 1
			} else {
				col++
			}
		}
	}

	for pos < len(input) {
		var matched *tokenRule
		matchLen := 0
		for i := range l.rules {
			loc := l.rules[i].re.FindStringIndex(input[pos:])
			if loc != nil && loc[1] > 0 {
				matched = &l.rules[i]
				matchLen = loc[1]
				break
			}
		}

		if matched == nil {
			r, size := utf8.DecodeRuneInString(input[pos:])
			errs = append(errs, &LexError{Message: fmt.Sprintf("unexpected character %q", r), Line: line, Column: col})
			toks = append(toks, Token{Name: errorTokenName, Text: string(r), Line: line, Col: col, Offset: pos})
			advance(string(r))
			pos += size
			continue
		}

		text := input[pos : pos+matchLen]
		if !matched.skip {
			toks = append(toks, Token{Name: matched.name, Text: text, Line: line, Col: col, Offset: pos})
		}
		advance(text)
		pos += matchLen
	}

	toks = append(toks, Token{Name: eofTokenName, Text: "", Line: line, Col: col, Offset: pos})
	return toks, errs
}
