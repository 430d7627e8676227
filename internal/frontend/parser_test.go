package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres95123/acanthopys/internal/model"
)

const calcSource = `
grammar Calc:
  tokens:
    NUMBER: [0-9]+
    PLUS: \+
    WS: skip [ \t]+

  start rule Expr:
    | left:Term PLUS right:Term -> Add(left, right)
    | t:Term -> pass
  end

  rule Term:
    | n:NUMBER -> Num(int(n))
  end

  test Basics Expr:
    "1+2" => Yields(Add(Num(1), Num(2)))
    "7" => Yields(Num(7))
    "+" => Fail
  end
end
`

func TestParseSourceCalcGrammar(t *testing.T) {
	grammars, diags := ParseSource(calcSource)
	require.Empty(t, diags.All(), "unexpected diagnostics: %v", diags.All())
	require.Len(t, grammars, 1)

	g := grammars[0]
	assert.Equal(t, "Calc", g.Name)
	require.Len(t, g.Tokens, 3)
	assert.Equal(t, "NUMBER", g.Tokens[0].Name)
	assert.Equal(t, "[0-9]+", g.Tokens[0].Pattern)
	assert.False(t, g.Tokens[0].Skip)
	assert.True(t, g.Tokens[2].Skip)
	assert.Equal(t, `[ \t]+`, g.Tokens[2].Pattern)

	require.Len(t, g.Rules, 2)
	expr := g.RuleByName("Expr")
	require.NotNil(t, expr)
	assert.True(t, expr.IsStart)
	require.Len(t, expr.Expressions, 2)

	first := expr.Expressions[0]
	require.Len(t, first.Terms, 3)
	assert.Equal(t, "left", first.Terms[0].Binding)
	assert.Equal(t, model.TermReference, first.Terms[0].Kind)
	assert.Equal(t, "Term", first.Terms[0].Reference)
	assert.Equal(t, "right", first.Terms[2].Binding)

	require.NotNil(t, first.Action)
	assert.Equal(t, model.ActionConstructor, first.Action.Kind)
	assert.Equal(t, "Add", first.Action.Node)
	require.Len(t, first.Action.Args, 2)
	assert.Equal(t, model.ArgIdent, first.Action.Args[0].Kind)
	assert.Equal(t, "left", first.Action.Args[0].Ident)

	second := expr.Expressions[1]
	assert.Equal(t, model.ActionPass, second.Action.Kind)

	term := g.RuleByName("Term")
	require.NotNil(t, term)
	require.Len(t, term.Expressions, 1)
	numArg := term.Expressions[0].Action.Args[0]
	assert.Equal(t, model.ArgCall, numArg.Kind)
	assert.Equal(t, "int", numArg.Fn)
	assert.Equal(t, "n", numArg.Ident)

	require.Len(t, g.TestSuites, 1)
	suite := g.TestSuites[0]
	assert.Equal(t, "Basics", suite.Name)
	assert.Equal(t, "Expr", suite.TargetRule)
	require.Len(t, suite.Cases, 3)

	yieldsCase := suite.Cases[0]
	assert.Equal(t, "1+2", yieldsCase.Input)
	assert.Equal(t, model.ExpectYields, yieldsCase.Expectation)
	require.NotNil(t, yieldsCase.Pattern)
	assert.Equal(t, "Add", yieldsCase.Pattern.Node)
	require.Len(t, yieldsCase.Pattern.Args, 2)
	assert.Equal(t, "Num", yieldsCase.Pattern.Args[0].Node)
	assert.True(t, yieldsCase.Pattern.Args[0].Args[0].IsNumber)
	assert.Equal(t, float64(1), yieldsCase.Pattern.Args[0].Args[0].Number)

	failCase := suite.Cases[2]
	assert.Equal(t, model.ExpectFail, failCase.Expectation)
}

func TestParseGuardClause(t *testing.T) {
	src := `
grammar G:
  start rule R:
    | n:NUMBER -> Num(n) check int(n) > 0 then pass else then pushError("must be positive")
  end
end
`
	grammars, diags := ParseSource(src)
	require.Empty(t, diags.All())
	require.Len(t, grammars, 1)
	rule := grammars[0].RuleByName("R")
	require.NotNil(t, rule)
	guard := rule.Expressions[0].Guard
	require.NotNil(t, guard)
	assert.Equal(t, "int(n) > 0", guard.Cond)
	assert.Equal(t, "pass", guard.Then)
	assert.True(t, guard.HasElse)
	assert.Equal(t, `pushError("must be positive")`, guard.Else)
}

func TestParseRepetitionAndWildcardPattern(t *testing.T) {
	src := `
grammar G:
  start rule List:
    | vals:Item* -> Items(vals)
  end
  rule Item:
    | n:NUMBER -> pass
  end
  test T List:
    "" => Yields(Items(...))
  end
end
`
	grammars, diags := ParseSource(src)
	require.Empty(t, diags.All())
	list := grammars[0].RuleByName("List")
	require.NotNil(t, list)
	term := list.Expressions[0].Terms[0]
	assert.Equal(t, model.TermRepetition, term.Kind)
	assert.Equal(t, model.QuantStar, term.Quant)
	assert.Equal(t, "vals", term.Binding)
	assert.Equal(t, "Item", term.Base.Reference)

	pat := grammars[0].TestSuites[0].Cases[0].Pattern
	require.Len(t, pat.Args, 1)
	assert.True(t, pat.Args[0].Wildcard)
}

func TestParseRecoversFromMalformedRuleAndReportsSyntaxError(t *testing.T) {
	src := `
grammar G:
  rule Broken
    | n:NUMBER -> pass
  end
  rule Good:
    | n:NUMBER -> pass
  end
end
`
	grammars, diags := ParseSource(src)
	require.NotEmpty(t, diags.All())
	require.Len(t, grammars, 1)
	assert.NotNil(t, grammars[0].RuleByName("Good"))
}
