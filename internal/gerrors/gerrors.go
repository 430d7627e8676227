// Package gerrors implements the diagnostic taxonomy of spec.md §7:
// Advisory, TestFailure, SemanticError and SyntaxError, in increasing
// severity. It generalizes the teacher's errList/parserError
// (vm/static_code.go) — a Bag accumulates Diagnostics the way errList
// accumulates errors and implements error the same way — and borrows
// the Position/phase shape of btouchard-gmx's
// internal/compiler/errors.ErrorList.
package gerrors

import (
	"bytes"
	"fmt"

	"github.com/Andres95123/acanthopys/internal/model"
)

// Severity orders diagnostics from least to most fatal.
type Severity int

const (
	Advisory Severity = iota
	TestFailure
	SemanticError
	SyntaxError
)

func (s Severity) String() string {
	switch s {
	case Advisory:
		return "advisory"
	case TestFailure:
		return "test failure"
	case SemanticError:
		return "semantic error"
	case SyntaxError:
		return "syntax error"
	default:
		return "error"
	}
}

// Diagnostic is one reported condition, carrying enough context to be
// rendered by Error as "line:col (offset): severity: message".
type Diagnostic struct {
	Severity Severity
	Pos      model.Position
	Message  string

	// Rule names the containing rule, when applicable ("" otherwise).
	Rule string
}

// Error implements error so a Diagnostic can be used standalone.
func (d *Diagnostic) Error() string {
	if d.Rule != "" {
		return fmt.Sprintf("%s: %s: %s (in rule %s)", d.Pos, d.Severity, d.Message, d.Rule)
	}
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// Fatal reports whether the diagnostic severity stops the pipeline
// (SemanticError and SyntaxError always do; TestFailure does only for
// the build command's default flags, decided by the caller).
func (d *Diagnostic) Fatal() bool {
	return d.Severity == SemanticError || d.Severity == SyntaxError
}

// Bag accumulates diagnostics the way the teacher's errList
// accumulates parse errors, and is itself an error once non-empty.
type Bag struct {
	items []*Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d *Diagnostic) {
	b.items = append(b.items, d)
}

// Addf builds and appends a Diagnostic in one call.
func (b *Bag) Addf(sev Severity, pos model.Position, format string, args ...interface{}) {
	b.Add(&Diagnostic{Severity: sev, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// All returns every accumulated diagnostic, in report order.
func (b *Bag) All() []*Diagnostic {
	return b.items
}

// HasFatal reports whether any accumulated diagnostic is fatal
// (SemanticError or SyntaxError).
func (b *Bag) HasFatal() bool {
	for _, d := range b.items {
		if d.Fatal() {
			return true
		}
	}
	return false
}

// HasSeverity reports whether any accumulated diagnostic has at least
// the given severity.
func (b *Bag) HasSeverity(min Severity) bool {
	for _, d := range b.items {
		if d.Severity >= min {
			return true
		}
	}
	return false
}

// Err returns the bag as an error, or nil if it is empty. Mirrors
// errList.err() in the teacher.
func (b *Bag) Err() error {
	if len(b.items) == 0 {
		return nil
	}
	return b
}

// Error implements the error interface for Bag.
func (b *Bag) Error() string {
	var buf bytes.Buffer
	for i, d := range b.items {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(d.Error())
	}
	return buf.String()
}
