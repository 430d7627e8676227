// Package testrunner implements component (C) of spec.md: it builds
// an in-memory interpreter over a checked Grammar model and runs every
// declared TestSuite's TestCases against it before code is emitted,
// the way the teacher's bootstrap grammar exercises itself through
// vm_test.go tables before trusting generated output.
package testrunner

import (
	"fmt"
	"strconv"

	"github.com/Andres95123/acanthopys/internal/model"
	"github.com/Andres95123/acanthopys/internal/runtime"
)

// CaseResult reports the outcome of one TestCase.
type CaseResult struct {
	Suite    string
	Input    string
	Expected model.Expectation
	Passed   bool
	Message  string
}

// SuiteResult collects every CaseResult for one TestSuite.
type SuiteResult struct {
	Suite   string
	Rule    string
	Results []CaseResult
}

// Passed reports whether every case in the suite passed.
func (s SuiteResult) Passed() bool {
	for _, r := range s.Results {
		if !r.Passed {
			return false
		}
	}
	return true
}

// Run builds a runtime.Parser over g and executes every TestSuite
// declared on it, returning one SuiteResult per suite in declaration
// order. opts is forwarded to runtime.NewParser, letting callers (the
// build CLI's --no-recovery flag) disable panic-mode recovery for the
// test phase too.
func Run(g *model.Grammar, opts ...runtime.Option) ([]SuiteResult, error) {
	p, err := runtime.NewParser(g, opts...)
	if err != nil {
		return nil, fmt.Errorf("building test runtime: %w", err)
	}

	results := make([]SuiteResult, 0, len(g.TestSuites))
	for _, suite := range g.TestSuites {
		sr := SuiteResult{Suite: suite.Name, Rule: suite.TargetRule}
		ruleName := suite.TargetRule
		if ruleName == "" {
			ruleName = g.StartRuleName()
		}
		for _, tc := range suite.Cases {
			sr.Results = append(sr.Results, runCase(p, ruleName, suite.Name, tc))
		}
		results = append(results, sr)
	}
	return results, nil
}

// AllPassed reports whether every suite in results passed, the signal
// the build pipeline uses to decide whether to fail the overall build
// (spec.md §4.C: "the overall test phase fails the build if any case
// fails").
func AllPassed(results []SuiteResult) bool {
	for _, r := range results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

func runCase(p *runtime.Parser, ruleName, suiteName string, tc *model.TestCase) CaseResult {
	res := p.ParseRule(ruleName, tc.Input)
	cr := CaseResult{Suite: suiteName, Input: tc.Input, Expected: tc.Expectation}

	switch tc.Expectation {
	case model.ExpectSuccess:
		cr.Passed = res.IsValid
		if !cr.Passed {
			cr.Message = fmt.Sprintf("expected success, got errors: %v", res.Errors)
		}
	case model.ExpectFail:
		cr.Passed = !res.IsValid
		if !cr.Passed {
			cr.Message = "expected failure, but the parse succeeded"
		}
	case model.ExpectYields:
		if !res.IsValid {
			cr.Message = fmt.Sprintf("expected a match for the yields pattern, got errors: %v", res.Errors)
			break
		}
		if !MatchPattern(tc.Pattern, res.AST) {
			cr.Message = fmt.Sprintf("AST %v did not match pattern", res.AST)
			break
		}
		cr.Passed = true
	}
	return cr
}

// MatchPattern implements spec.md §4.C's structural Yields match:
// constructor-name equality, argument-count equality (except a
// trailing wildcard meaning "ignore remaining"), recursive matching of
// nested constructor patterns, and value equality for number/string
// leaves (string patterns compare against captured token text).
func MatchPattern(p *model.Pattern, v interface{}) bool {
	if p == nil {
		return v == nil
	}
	switch {
	case p.Wildcard:
		return true
	case p.IsNumber:
		f, ok := numericValue(v)
		return ok && f == p.Number
	case p.IsString:
		s, ok := v.(string)
		return ok && s == p.String
	default:
		node, ok := v.(*runtime.Node)
		if !ok || node.Constructor != p.Node {
			return false
		}
		return matchArgs(p.Args, node.Args)
	}
}

func matchArgs(patterns []*model.Pattern, values []interface{}) bool {
	if n := len(patterns); n > 0 && patterns[n-1].Wildcard {
		if len(values) < n-1 {
			return false
		}
		for i := 0; i < n-1; i++ {
			if !MatchPattern(patterns[i], values[i]) {
				return false
			}
		}
		return true
	}
	if len(patterns) != len(values) {
		return false
	}
	for i, pat := range patterns {
		if !MatchPattern(pat, values[i]) {
			return false
		}
	}
	return true
}

func numericValue(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
