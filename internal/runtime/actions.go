package runtime

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Andres95123/acanthopys/internal/model"
)

// evalActionArg evaluates one restricted constructor argument
// (spec.md §9 "Action execution sandbox": identifier, integer/string
// literal, or a single fn(x) call where fn is int/float/str/len)
// against the current binding scope.
func evalActionArg(arg model.ActionArg, scope map[string]interface{}) interface{} {
	switch arg.Kind {
	case model.ArgIdent:
		return scope[arg.Ident]
	case model.ArgInt:
		return arg.Int
	case model.ArgString:
		return arg.String
	case model.ArgCall:
		return callBuiltin(arg.Fn, scope[arg.Ident])
	}
	return nil
}

func callBuiltin(fn string, v interface{}) interface{} {
	switch fn {
	case "int":
		return toInt(v)
	case "float":
		return toFloat(v)
	case "str":
		return toStr(v)
	case "len":
		return toLen(v)
	default:
		return v
	}
}

func toInt(v interface{}) int64 {
	switch x := v.(type) {
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n
	case int64:
		return x
	case float64:
		return int64(x)
	default:
		return 0
	}
}

func toFloat(v interface{}) float64 {
	switch x := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f
	case int64:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

func toStr(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case *Node:
		return x.Constructor
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", x)
	}
}

func toLen(v interface{}) int64 {
	switch x := v.(type) {
	case string:
		return int64(len(x))
	case []interface{}:
		return int64(len(x))
	default:
		return 0
	}
}

func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case nil:
		return false
	default:
		return true
	}
}

// evalGuardCond and evalGuardStmt implement spec.md §9's second
// strategy for opaque guard fragments: "restrict them to a small
// whitelisted expression grammar (identifier, call, arithmetic,
// comparison) that the emitter can translate per target". Here there
// is no target to translate to — the test runner needs to execute
// guards directly — so that whitelisted grammar is interpreted in
// place by a small recursive-descent evaluator (exprScanner/exprParser
// below) rather than compiled.
//
// COND is evaluated as a single boolean-ish expression. STMT is either
// literally "pass" (return the action's value unchanged), a call
// error(EXPR) (fails the alternative with EXPR's string value as the
// diagnostic message), or any other expression (evaluated and
// returned as the alternative's new value).
func evalGuardCond(src string, scope map[string]interface{}) bool {
	v, err := evalExpr(src, scope)
	if err != nil {
		return false
	}
	return truthy(v)
}

// guardOutcome is the result of running a guard's Then or Else
// branch: either a new value for the alternative, or a failure
// message.
type guardOutcome struct {
	value   interface{}
	ok      bool
	message string
}

func evalGuardStmt(stmt string, scope map[string]interface{}, v interface{}) guardOutcome {
	s := strings.TrimSpace(stmt)
	if s == "" || s == "pass" {
		return guardOutcome{value: v, ok: true}
	}
	if inner, isError := parseErrorCall(s); isError {
		msgVal, err := evalExpr(inner, scope)
		if err != nil {
			return guardOutcome{ok: false, message: inner}
		}
		return guardOutcome{ok: false, message: toStr(msgVal)}
	}
	val, err := evalExpr(s, scope)
	if err != nil {
		return guardOutcome{value: v, ok: true}
	}
	return guardOutcome{value: val, ok: true}
}

func parseErrorCall(s string) (inner string, ok bool) {
	if !strings.HasPrefix(s, "error(") || !strings.HasSuffix(s, ")") {
		return "", false
	}
	return s[len("error("):len(s)-1], true
}

// --- restricted expression evaluator ---
//
// expr       := comparison
// comparison := additive (( '>' | '<' | '>=' | '<=' | '==' | '!=' ) additive)?
// additive   := multiplicative (('+' | '-') multiplicative)*
// multiplicative := unary (('*' | '/') unary)*
// unary      := '-' unary | primary
// primary    := IDENT | IDENT '(' expr ')' | NUMBER | STRING | '(' expr ')'

type exprParser struct {
	src    string
	pos    int
	scope  map[string]interface{}
}

func evalExpr(src string, scope map[string]interface{}) (interface{}, error) {
	p := &exprParser{src: src, scope: scope}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("empty expression")
	}
	v, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("unexpected trailing text %q", p.src[p.pos:])
	}
	return v, nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *exprParser) peekOp(ops ...string) string {
	p.skipSpace()
	for _, op := range ops {
		if strings.HasPrefix(p.src[p.pos:], op) {
			return op
		}
	}
	return ""
}

func (p *exprParser) parseComparison() (interface{}, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	op := p.peekOp(">=", "<=", "==", "!=", ">", "<")
	if op == "" {
		return left, nil
	}
	p.pos += len(op)
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return compare(op, left, right), nil
}

func (p *exprParser) parseAdditive() (interface{}, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peekOp("+", "-")
		if op == "" {
			return left, nil
		}
		p.pos += len(op)
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = arith(op, left, right)
	}
}

func (p *exprParser) parseMultiplicative() (interface{}, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peekOp("*", "/")
		if op == "" {
			return left, nil
		}
		p.pos += len(op)
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = arith(op, left, right)
	}
}

func (p *exprParser) parseUnary() (interface{}, error) {
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '-' {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return arith("-", int64(0), v), nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (interface{}, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	ch := p.src[p.pos]

	switch {
	case ch == '(':
		p.pos++
		v, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, fmt.Errorf("expected ')'")
		}
		p.pos++
		return v, nil
	case ch == '"' || ch == '\'':
		return p.parseString(ch)
	case ch >= '0' && ch <= '9':
		return p.parseNumber()
	case isIdentStart(rune(ch)):
		return p.parseIdentOrCall()
	default:
		return nil, fmt.Errorf("unexpected character %q", ch)
	}
}

func (p *exprParser) parseString(quote byte) (interface{}, error) {
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != quote {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("unterminated string literal")
	}
	s := p.src[start:p.pos]
	p.pos++
	return s, nil
}

func (p *exprParser) parseNumber() (interface{}, error) {
	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9') {
		p.pos++
	}
	isFloat := false
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		isFloat = true
		p.pos++
		for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9') {
			p.pos++
		}
	}
	text := p.src[start:p.pos]
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		return f, nil
	}
	n, _ := strconv.ParseInt(text, 10, 64)
	return n, nil
}

func (p *exprParser) parseIdentOrCall() (interface{}, error) {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(rune(p.src[p.pos])) {
		p.pos++
	}
	name := p.src[start:p.pos]

	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		p.pos++
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, fmt.Errorf("expected ')' after call to %s", name)
		}
		p.pos++
		return callBuiltin(name, arg), nil
	}

	switch name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return p.scope[name], nil
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func compare(op string, a, b interface{}) bool {
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if aok && bok {
		switch op {
		case ">":
			return af > bf
		case "<":
			return af < bf
		case ">=":
			return af >= bf
		case "<=":
			return af <= bf
		case "==":
			return af == bf
		case "!=":
			return af != bf
		}
	}
	as, bs := toStr(a), toStr(b)
	switch op {
	case "==":
		return as == bs
	case "!=":
		return as != bs
	case ">":
		return as > bs
	case "<":
		return as < bs
	case ">=":
		return as >= bs
	case "<=":
		return as <= bs
	}
	return false
}

func numeric(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func arith(op string, a, b interface{}) interface{} {
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if !aok || !bok {
		return nil
	}
	_, aIsInt := a.(int64)
	_, bIsInt := b.(int64)
	var result float64
	switch op {
	case "+":
		result = af + bf
	case "-":
		result = af - bf
	case "*":
		result = af * bf
	case "/":
		if bf == 0 {
			return int64(0)
		}
		result = af / bf
	}
	if aIsInt && bIsInt && op != "/" {
		return int64(result)
	}
	return result
}
