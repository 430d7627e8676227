package check

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Andres95123/acanthopys/internal/frontend"
	"github.com/Andres95123/acanthopys/internal/gerrors"
	"github.com/Andres95123/acanthopys/internal/model"
)

func mustParse(t *testing.T, src string) *model.Grammar {
	t.Helper()
	grammars, diags := frontend.ParseSource(src)
	require.Empty(t, diags.All())
	require.Len(t, grammars, 1)
	return grammars[0]
}

func TestRunResolvesImplicitStartRuleWithAdvisory(t *testing.T) {
	g := mustParse(t, `
grammar G:
  rule A:
    | n:NUMBER -> pass
  end
end
`)
	diags := Run(g)
	assert.Equal(t, 0, g.StartRule)
	assert.True(t, g.StartImplicit)

	found := false
	for _, d := range diags.All() {
		if d.Severity == gerrors.Advisory {
			found = true
		}
	}
	assert.True(t, found, "expected an advisory about the implicit start rule")
}

func TestRunFlagsMultipleStartRules(t *testing.T) {
	g := mustParse(t, `
grammar G:
  start rule A:
    | n:NUMBER -> pass
  end
  start rule B:
    | n:NUMBER -> pass
  end
end
`)
	diags := Run(g)
	assert.True(t, diags.HasSeverity(gerrors.SemanticError))
}

func TestRunFlagsDuplicateRuleAndToken(t *testing.T) {
	g := mustParse(t, `
grammar G:
  tokens:
    NUMBER: [0-9]+
    NUMBER: [0-9]+
  start rule A:
    | n:NUMBER -> pass
  end
  rule A:
    | n:NUMBER -> pass
  end
end
`)
	diags := Run(g)
	var messages []string
	for _, d := range diags.All() {
		if d.Severity == gerrors.SemanticError {
			messages = append(messages, d.Message)
		}
	}
	assert.Contains(t, messages, "token NUMBER is declared more than once")
	assert.Contains(t, messages, "rule A is declared more than once")
}

func TestRunUndefinedReferenceSuggestsClosestName(t *testing.T) {
	g := mustParse(t, `
grammar G:
  tokens:
    NUMBER: [0-9]+
  start rule Expr:
    | n:NUBMER -> pass
  end
end
`)
	diags := Run(g)
	var found bool
	for _, d := range diags.All() {
		if d.Severity == gerrors.SemanticError && strings.Contains(d.Message, "did you mean NUMBER?") {
			found = true
		}
	}
	assert.True(t, found, "expected an undefined-reference diagnostic suggesting NUMBER: %v", diags.All())
}

func TestRunMarksDirectLeftRecursion(t *testing.T) {
	g := mustParse(t, `
grammar G:
  tokens:
    NUMBER: [0-9]+
    PLUS: '+'
  start rule Expr:
    | left:Expr PLUS right:NUMBER -> Add(left, right)
    | n:NUMBER -> pass
  end
end
`)
	Run(g)
	rule := g.RuleByName("Expr")
	require.NotNil(t, rule)
	assert.True(t, rule.LeftRecursive)
}

func TestRunSynthesizesTokensForInlineLiterals(t *testing.T) {
	g := mustParse(t, `
grammar G:
  tokens:
    NUMBER: [0-9]+
  start rule Stmt:
    | "if" c:NUMBER "then" b:NUMBER -> If(c, b)
  end
end
`)
	Run(g)
	stmt := g.RuleByName("Stmt")
	require.NotNil(t, stmt)
	terms := stmt.Expressions[0].Terms
	require.Len(t, terms, 4)
	assert.Equal(t, model.TermReference, terms[0].Kind)
	assert.Equal(t, model.TermReference, terms[2].Kind)
	assert.NotEqual(t, terms[0].Reference, terms[2].Reference)

	ifTok := g.TokenByName(terms[0].Reference)
	require.NotNil(t, ifTok)
	assert.True(t, ifTok.Synthetic)
	assert.Equal(t, "if", ifTok.Pattern)
}

func TestRunMarksUnreachableRuleAndUnusedToken(t *testing.T) {
	g := mustParse(t, `
grammar G:
  tokens:
    NUMBER: [0-9]+
    UNUSED: 'x'
  start rule Expr:
    | n:NUMBER -> pass
  end
  rule Dead:
    | n:NUMBER -> pass
  end
end
`)
	diags := Run(g)
	dead := g.RuleByName("Dead")
	require.NotNil(t, dead)
	assert.False(t, dead.Reachable)

	unused := g.TokenByName("UNUSED")
	require.NotNil(t, unused)
	assert.True(t, unused.Unused)

	var advisories int
	for _, d := range diags.All() {
		if d.Severity == gerrors.Advisory {
			advisories++
		}
	}
	assert.GreaterOrEqual(t, advisories, 2)
}
