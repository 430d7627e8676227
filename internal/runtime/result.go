package runtime

import (
	"fmt"
	"io"
)

// Node is an interpreted AST node: a constructor tag plus its
// evaluated argument list. Arguments are, depending on what the
// grammar bound them to: a string (token text), an int64/float64/bool
// (via a builtin call), a *Node (a sub-rule's result), an *ErrorNode
// (a recovered parse error), or a []interface{} (a repetition's
// matched list).
type Node struct {
	Constructor string
	Args        []interface{}
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(...)", n.Constructor)
}

// ErrorNode stands in for a rule that failed and was skipped over by
// panic-mode recovery (spec.md §4.D).
type ErrorNode struct {
	Message string
	Line    int
	Col     int
}

// ParseError is one runtime diagnostic, surfaced on ParseResult and
// never propagated as a Go error past the public API (spec.md §7).
type ParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// ParseResult is the generated parser's public return shape
// (spec.md §6): the AST (nil on total failure), the accumulated
// errors, the full token stream, and whether the parse is clean.
type ParseResult struct {
	AST     interface{}
	Errors  []*ParseError
	Tokens  []Token
	IsValid bool
}

// Option configures a Parser, returning the previous setting so
// callers can restore it — the functional-options shape of the
// teacher's vm/static_code.go (Option/Debug/Memoize/Recover).
type Option func(*Parser) Option

// Debug toggles verbose tracing of rule entry/exit during parsing.
// Trace lines are written to whatever io.Writer Trace configured
// (default io.Discard, so Debug(true) alone is silent) -- see Trace.
func Debug(b bool) Option {
	return func(p *Parser) Option {
		old := p.debug
		p.debug = b
		return Debug(old)
	}
}

// Trace sets the io.Writer that rule entry/exit tracing is written to
// when Debug(true) is in effect. The default is io.Discard: tracing
// never writes to a global logger, only to a writer the caller
// explicitly supplies (spec.md §9 / SPEC_FULL.md §2's ambient-stack
// section on the "-v"/debug trace).
func Trace(w io.Writer) Option {
	return func(p *Parser) Option {
		old := p.trace
		p.trace = w
		return Trace(old)
	}
}

// Recover toggles panic-mode error recovery (spec.md §4.D). Default
// true, matching the generated parser API's enable_recovery default.
func Recover(b bool) Option {
	return func(p *Parser) Option {
		old := p.recovery
		p.recovery = b
		return Recover(old)
	}
}
