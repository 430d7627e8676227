package runtime

import (
	"reflect"
	"testing"

	"github.com/Andres95123/acanthopys/internal/check"
	"github.com/Andres95123/acanthopys/internal/frontend"
	"github.com/Andres95123/acanthopys/internal/model"
)

// buildParser parses and checks src, then compiles a Parser from the
// resulting grammar, failing the test on any error.
func buildParser(t *testing.T, src string) *Parser {
	t.Helper()
	grammars, diags := frontend.ParseSource(src)
	if len(diags.All()) > 0 {
		t.Fatalf("parse diagnostics: %v", diags.All())
	}
	if len(grammars) != 1 {
		t.Fatalf("want 1 grammar, got %d", len(grammars))
	}
	g := grammars[0]
	checkDiags := check.Run(g)
	if checkDiags.HasFatal() {
		t.Fatalf("check diagnostics: %v", checkDiags.All())
	}
	p, err := NewParser(g)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	return p
}

const calcGrammar = `
grammar Calc:
  tokens:
    NUMBER: [0-9]+
    PLUS: \+
  start rule Expr:
    | left:Expr PLUS right:NUMBER -> Add(left, right)
    | n:NUMBER -> pass
  end
end
`

func TestParseNumberLiteral(t *testing.T) {
	p := buildParser(t, calcGrammar)
	res := p.Parse("42")
	if !res.IsValid {
		t.Fatalf("expected valid parse, got errors: %v", res.Errors)
	}
	if got, want := res.AST, "42"; got != want {
		t.Errorf("AST = %#v, want %#v", got, want)
	}
}

func TestLeftRecursionIsLeftAssociative(t *testing.T) {
	p := buildParser(t, calcGrammar)
	res := p.Parse("1+2+3")
	if !res.IsValid {
		t.Fatalf("expected valid parse, got errors: %v", res.Errors)
	}
	want := &Node{Constructor: "Add", Args: []interface{}{
		&Node{Constructor: "Add", Args: []interface{}{"1", "2"}},
		"3",
	}}
	if !reflect.DeepEqual(res.AST, want) {
		t.Errorf("AST = %#v, want %#v", res.AST, want)
	}
}

func TestParseFailureReportsError(t *testing.T) {
	p := buildParser(t, calcGrammar)
	res := p.Parse("1+")
	if res.IsValid {
		t.Fatalf("expected an invalid parse")
	}
	if len(res.Errors) == 0 {
		t.Fatalf("expected at least one ParseError")
	}
}

const ifThenGrammar = `
grammar Cond:
  tokens:
    NUMBER: [0-9]+
    WS: skip \s+
  start rule Stmt:
    | "if" c:NUMBER "then" b:NUMBER -> If(c, b)
  end
end
`

func TestInlineLiteralsAreSynthesizedAndMatched(t *testing.T) {
	p := buildParser(t, ifThenGrammar)
	res := p.Parse("if 1 then 2")
	if !res.IsValid {
		t.Fatalf("expected valid parse, got errors: %v", res.Errors)
	}
	want := &Node{Constructor: "If", Args: []interface{}{"1", "2"}}
	if !reflect.DeepEqual(res.AST, want) {
		t.Errorf("AST = %#v, want %#v", res.AST, want)
	}
}

const listGrammar = `
grammar List:
  tokens:
    NUMBER: [0-9]+
    COMMA: ,
  start rule Nums:
    | first:NUMBER rest:Tail* -> pass
  end
  rule Tail:
    | COMMA n:NUMBER -> pass
  end
end
`

func TestRepetitionCollectsZeroOrMore(t *testing.T) {
	p := buildParser(t, listGrammar)
	res := p.Parse("1")
	if !res.IsValid {
		t.Fatalf("expected valid parse on input with zero repetitions, got errors: %v", res.Errors)
	}
}

const statementsGrammar = `
grammar Stmts:
  tokens:
    NUMBER: [0-9]+
    SEMI: ;
    GARBAGE: [a-z]+
  start rule Program:
    | stmts:Stmt* -> pass
  end
  rule Stmt:
    | n:NUMBER SEMI -> pass
  end
end
`

func TestPanicModeRecoverySkipsToSyncTokenWithinRepetition(t *testing.T) {
	p := buildParser(t, statementsGrammar)
	res := p.ParseRule("Program", "1;garbage;2;")
	if res.AST == nil {
		t.Fatalf("expected a non-nil AST even with recovered errors")
	}
	if len(res.Errors) == 0 {
		t.Fatalf("expected at least one recovery ParseError")
	}
	list, ok := res.AST.([]interface{})
	if !ok {
		t.Fatalf("AST = %#v, want []interface{}", res.AST)
	}
	foundErrorNode := false
	for _, item := range list {
		if _, ok := item.(*ErrorNode); ok {
			foundErrorNode = true
		}
	}
	if !foundErrorNode {
		t.Errorf("expected an *ErrorNode among recovered statements, got %#v", list)
	}
}

func TestRecoveryDisabledStopsAtFirstFailure(t *testing.T) {
	p := buildParser(t, statementsGrammar)
	opt := Recover(false)
	_ = opt
	g := p.g
	np, err := NewParser(g, Recover(false))
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	res := np.ParseRule("Program", "1;garbage;2;")
	if res.IsValid {
		t.Fatalf("expected recovery-disabled parse to be invalid")
	}
}

func TestGuardClauseCanRejectAlternative(t *testing.T) {
	src := `
grammar Guarded:
  tokens:
    NUMBER: [0-9]+
  start rule Small:
    | n:NUMBER -> pass
      check int(n) < 10 then pass else then error(n)
  end
end
`
	p := buildParser(t, src)

	res := p.Parse("5")
	if !res.IsValid {
		t.Fatalf("expected 5 to pass the guard, got errors: %v", res.Errors)
	}

	res = p.Parse("50")
	if res.IsValid {
		t.Fatalf("expected 50 to fail the guard")
	}
}

func TestLongLeftRecursiveChainParsesToNode(t *testing.T) {
	p := buildParser(t, calcGrammar)
	res := p.Parse("9+9+9+9")
	if !res.IsValid {
		t.Fatalf("expected valid parse, got errors: %v", res.Errors)
	}
	if _, ok := res.AST.(*Node); !ok {
		t.Fatalf("AST = %#v, want *Node", res.AST)
	}
}

func TestDeriveSyncTokensPicksFirstAndLastTermTokens(t *testing.T) {
	grammars, diags := frontend.ParseSource(statementsGrammar)
	if len(diags.All()) > 0 {
		t.Fatalf("parse diagnostics: %v", diags.All())
	}
	g := grammars[0]
	check.Run(g)
	sync := deriveSyncTokens(g)
	if !sync["SEMI"] {
		t.Errorf("expected SEMI to be derived as a sync token, got %v", sync)
	}
}

var _ = model.QuantStar
