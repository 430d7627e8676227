package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTokenKeywordsAndPunctuation(t *testing.T) {
	src := `grammar Calc: tokens: rule start test end check then else pass Success Fail Yields -> => ... | ( ) , ? * +`
	l := NewLexer(src)

	want := []Kind{
		KwGrammar, IDENT, COLON, KwTokens, COLON, KwRule, KwStart, KwTest, KwEnd,
		KwCheck, KwThen, KwElse, KwPass, KwSuccess, KwFail, KwYields,
		ARROW, FATARROW, DOTS, PIPE, LPAREN, RPAREN, COMMA, QUESTION, STAR, PLUS, EOF,
	}
	for i, k := range want {
		tok := l.NextToken()
		assert.Equalf(t, k, tok.Kind, "token %d: text %q", i, tok.Text)
	}
}

func TestNextTokenIdentClassification(t *testing.T) {
	l := NewLexer("Expr NUMBER add")
	assert.Equal(t, IDENT, l.NextToken().Kind)
	assert.Equal(t, UIDENT, l.NextToken().Kind)
	assert.Equal(t, IDENT, l.NextToken().Kind)
}

func TestReadStringQuoteDoubling(t *testing.T) {
	l := NewLexer(`'it''s' "say ""hi"""`)
	tok := l.NextToken()
	require.Equal(t, STRING, tok.Kind)
	assert.Equal(t, "it's", tok.Text)

	tok = l.NextToken()
	require.Equal(t, STRING, tok.Kind)
	assert.Equal(t, `say "hi"`, tok.Text)
}

func TestReadNumber(t *testing.T) {
	l := NewLexer("42 3.14")
	tok := l.NextToken()
	assert.Equal(t, "42", tok.Text)
	tok = l.NextToken()
	assert.Equal(t, "3.14", tok.Text)
}

func TestSkipComments(t *testing.T) {
	l := NewLexer("rule # a comment\nend")
	assert.Equal(t, KwRule, l.NextToken().Kind)
	assert.Equal(t, KwEnd, l.NextToken().Kind)
}

func TestRestOfLine(t *testing.T) {
	l := NewLexer("NUMBER: [0-9]+  \nPLUS: skip '+'")
	nameTok := l.NextToken()
	require.Equal(t, UIDENT, nameTok.Kind)
	colon := l.NextToken()
	require.Equal(t, COLON, colon.Kind)

	pattern, _ := l.RestOfLine()
	assert.Equal(t, "[0-9]+", pattern)

	nameTok = l.NextToken()
	require.Equal(t, UIDENT, nameTok.Kind)
	assert.Equal(t, "PLUS", nameTok.Text)
}

func TestTryConsumeSkipKeyword(t *testing.T) {
	l := NewLexer(": skip '+'")
	colon := l.NextToken()
	require.Equal(t, COLON, colon.Kind)
	assert.True(t, l.tryConsumeSkipKeyword())
	pattern, _ := l.RestOfLine()
	assert.Equal(t, "'+'", pattern)
}

func TestRawUntilKeywordAndRawGuardStmt(t *testing.T) {
	l := NewLexer("check len(xs) > 0 then pushWarning(\"ok\") else then pushError(\"bad\")\nend")
	require.Equal(t, KwCheck, l.NextToken().Kind)

	cond, kw := l.RawUntilKeyword("then")
	assert.Equal(t, "len(xs) > 0", cond)
	assert.Equal(t, "then", kw)

	stmt, hitElse := l.RawGuardStmt()
	assert.Equal(t, `pushWarning("ok")`, stmt)
	assert.True(t, hitElse)

	_, kw = l.RawUntilKeyword("then")
	assert.Equal(t, "then", kw)

	elseStmt, hitElse2 := l.RawGuardStmt()
	assert.Equal(t, `pushError("bad")`, elseStmt)
	assert.False(t, hitElse2)

	assert.Equal(t, KwEnd, l.NextToken().Kind)
}

func TestRawGuardStmtMultilineContinuesPastBareNewline(t *testing.T) {
	l := NewLexer("check ok then\n  doFirst()\n  doSecond()\nend")
	require.Equal(t, KwCheck, l.NextToken().Kind)
	l.RawUntilKeyword("then")
	stmt, hitElse := l.RawGuardStmt()
	assert.False(t, hitElse)
	assert.Equal(t, "doFirst()\n  doSecond()", stmt)
}
