package frontend

import "github.com/Andres95123/acanthopys/internal/model"

// Kind enumerates the lexical token kinds produced for .apy source,
// following the TokenType-as-named-string convention of
// btouchard-gmx's internal/compiler/token package.
type Kind string

const (
	EOF     Kind = "EOF"
	ILLEGAL Kind = "ILLEGAL"

	IDENT  Kind = "IDENT"  // lower/mixed-case identifier
	UIDENT Kind = "UIDENT" // uppercase identifier (token names)
	STRING Kind = "STRING" // quoted literal, quotes stripped
	REGEX  Kind = "REGEX"  // rest-of-line token pattern text

	// Keywords.
	KwGrammar Kind = "grammar"
	KwEnd     Kind = "end"
	KwTokens  Kind = "tokens"
	KwSkip    Kind = "skip"
	KwRule    Kind = "rule"
	KwStart   Kind = "start"
	KwTest    Kind = "test"
	KwPass    Kind = "pass"
	KwCheck   Kind = "check"
	KwThen    Kind = "then"
	KwElse    Kind = "else"
	KwSuccess Kind = "Success"
	KwFail    Kind = "Fail"
	KwYields  Kind = "Yields"

	// Punctuation.
	COLON    Kind = ":"
	PIPE     Kind = "|"
	ARROW    Kind = "->"
	LPAREN   Kind = "("
	RPAREN   Kind = ")"
	COMMA    Kind = ","
	QUESTION Kind = "?"
	STAR     Kind = "*"
	PLUS     Kind = "+"
	FATARROW Kind = "=>"
	DOTS     Kind = "..."
	NUMBER   Kind = "NUMBER"
)

var keywords = map[string]Kind{
	"grammar": KwGrammar,
	"end":     KwEnd,
	"tokens":  KwTokens,
	"skip":    KwSkip,
	"rule":    KwRule,
	"start":   KwStart,
	"test":    KwTest,
	"pass":    KwPass,
	"check":   KwCheck,
	"then":    KwThen,
	"else":    KwElse,
	"Success": KwSuccess,
	"Fail":    KwFail,
	"Yields":  KwYields,
}

// Token is one lexical token with its source position.
type Token struct {
	Kind Kind
	Text string
	Pos  model.Position
}
