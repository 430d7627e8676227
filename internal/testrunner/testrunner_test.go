package testrunner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres95123/acanthopys/internal/check"
	"github.com/Andres95123/acanthopys/internal/frontend"
)

func mustRun(t *testing.T, src string) []SuiteResult {
	t.Helper()
	grammars, diags := frontend.ParseSource(src)
	require.Empty(t, diags.All())
	require.Len(t, grammars, 1)
	g := grammars[0]

	checkDiags := check.Run(g)
	require.False(t, checkDiags.HasFatal(), "check diagnostics: %v", checkDiags.All())

	results, err := Run(g)
	require.NoError(t, err)
	return results
}

const calcGrammarWithTests = `
grammar Calc:
  tokens:
    NUMBER: [0-9]+
    PLUS: \+
  start rule Expr:
    | left:Expr PLUS right:NUMBER -> Add(left, right)
    | n:NUMBER -> pass
  end

  test Basics Expr:
    "1" => Success
    "1+2" => Yields(Add(1, 2))
    "1+" => Fail
    "1+2+3" => Yields(Add(Add(1, 2), 3))
  end
end
`

func TestRunPassesAllDeclaredCases(t *testing.T) {
	results := mustRun(t, calcGrammarWithTests)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed(), "suite should pass: %+v", results[0].Results)
	assert.True(t, AllPassed(results))
}

const failingSuiteGrammar = `
grammar Calc:
  tokens:
    NUMBER: [0-9]+
  start rule Expr:
    | n:NUMBER -> pass
  end

  test Broken Expr:
    "1" => Yields(Wrong(9))
  end
end
`

func TestRunReportsFailingCase(t *testing.T) {
	results := mustRun(t, failingSuiteGrammar)
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed())
	assert.False(t, AllPassed(results))
	require.Len(t, results[0].Results, 1)
	assert.NotEmpty(t, results[0].Results[0].Message)
}

const wildcardGrammar = `
grammar List:
  tokens:
    NUMBER: [0-9]+
    COMMA: ,
  start rule Pair:
    | a:NUMBER COMMA b:NUMBER -> Pair(a, b)
  end

  test Wildcards Pair:
    "1,2" => Yields(Pair(...))
  end
end
`

func TestRunMatchesTrailingWildcardIgnoringRemainingArgs(t *testing.T) {
	results := mustRun(t, wildcardGrammar)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed(), "suite should pass: %+v", results[0].Results)
}
