/*
Command acanthopys generates Go PEG parsers from a `.apy` grammar.

A PEG (Parsing Expression Grammar) is a formalism in which a rule's
alternatives are tried in declaration order and the first one that
matches wins — there is no ambiguity to resolve, unlike a
context-free grammar. acanthopys compiles a `.apy` grammar into a Go
source file holding the compiled grammar, an AST node set, and Parse
entry points that drive this module's lexer and packrat runtime
(internal/runtime), which implements ordered choice, repetition,
direct left recursion (via Warth et al.'s seed-growing technique) and
panic-mode error recovery. The generated file imports this module's
internal packages, so it builds only inside this module.
Before emitting code it runs the grammar's own embedded "test" blocks
and fails the build if any of them does not hold.

Command-line usage

	acanthopys init NAME                 scaffold a new NAME.apy grammar
	acanthopys build GRAMMAR_FILE         run tests, then emit a parser
	acanthopys check GRAMMAR_FILE         run the front-end + checker only
	acanthopys test GRAMMAR_FILE          run the grammar's embedded tests
	acanthopys fmt GRAMMAR_FILE           round-trip a grammar through the pretty-printer
	acanthopys repl GRAMMAR_FILE          (stub, see the repl command's help)

build accepts:

	-o, --output DIR   output directory for the generated parser (default ".")
	    --no-tests     skip running embedded tests
	    --tests        run embedded tests only, do not emit a parser
	    --no-recovery  disable panic-mode error recovery in the generated parser
	    --dry-run      run the full pipeline without writing the generated file
	-v, --verbose      trace rule entry/exit while running embedded tests

Exit codes: 0 success, 1 tests failed, 2 grammar errors, 3 I/O error,
4 usage error.

Grammar syntax

A `.apy` file holds one or more `grammar Name: ... end` blocks.
Comments begin with `#` and run to end of line; indentation is purely
stylistic. Inside a grammar block:

	grammar Calculator:

	tokens:
	    NUMBER: \d+
	    PLUS: \+
	    WS: skip \s+
	end

	start rule Expr:
	    | l:Expr PLUS r:Term -> Add(l, r)
	    | Term -> pass
	end

	rule Term:
	    | n:NUMBER -> Num(int(n))
	end

	test Basics:
	    "10 + 20" => Yields(Add(Num(10), Num(20)))
	    "1+" => Fail
	end

	end

Tokens

The `tokens:` block declares the lexer table, one entry per line:
`NAME: PATTERN` or `NAME: skip PATTERN`. NAME is conventionally
uppercase and must be unique; PATTERN is a regular expression in the
host regex dialect and runs to the end of the line (embedded
whitespace in the pattern is taken literally). At each input position
the lexer tries every token in declaration order and takes the first
one whose pattern matches — there is no "longest match across tokens"
rule, because PEG ordering governs lexing the same way it governs
parsing. A `skip` token is consumed but never reaches the parser
(typically whitespace and comments).

Rules

A `[start] rule Name: ... end` block holds one or more `|`-prefixed
alternatives, tried in order. Each alternative is a sequence of terms
followed by `->` and an action, with an optional trailing guard.
Exactly one rule in the grammar is the start rule: mark it explicitly
with `start rule`, or leave it implicit and the first declared rule is
used (with an advisory warning).

A term is one of:

	Identifier       a reference to a rule or a token
	"literal" 'lit'  an inline literal, promoted to a synthetic token
	name:term        a binding — captures term's match as "name"
	term?  term*  term+   a quantified repetition of term

`e?` always succeeds, yielding the match or null. `e*` greedily
matches zero or more, yielding a list; it terminates after one
iteration if `e` matches the empty string, so repetition is always
well-founded. `e+` is `e e*` and fails if the first `e` fails.

A rule with an alternative that begins (after any binding prefix) with
a reference to that same rule is direct-left-recursive; the generated
parser grows such rules with Warth's seed-growing algorithm instead of
recursing forever, which is what lets

	rule Expr:
	    | l:Expr PLUS r:Term -> Add(l, r)
	    | Term -> pass
	end

parse "1+2+3" as a left-associative Add(Add(Num(1), Num(2)), Num(3))
rather than overflowing the call stack. Indirect or mutual left
recursion is not detected and will not terminate — see the Non-goals
below.

Actions

An action is either `pass` or `Ctor(arg1, ..., argN)`. `pass` returns
the expression's single binding if there is exactly one, else its
single non-literal term's value if there is exactly one, else null.
A constructor call builds an AST node tagged `Ctor` with the evaluated
argument list; each argument is restricted to an identifier, an
integer or string literal, or a single call `fn(x)` where fn is one of
`int`, `float`, `str` or `len` — this keeps action arguments
translatable to any target language without embedding an arbitrary
host-language expression evaluator in the core.

Guards

`check COND then STMT [else then STMT]`, attached after an action,
lets a rule reject a structurally valid match on a semantic condition.
COND and STMT are opaque fragments copied into the generated parser
verbatim; a STMT that calls `error("message")` converts the
alternative into a recoverable parse failure carrying that message.

Tests

A `test Name [Rule]: ... end` block lists `"input" => Expectation`
lines, checked against the optional target rule (default: the
grammar's start rule) before a parser is ever emitted:

	"input" => Success
	"input" => Fail
	"input" => Yields(Ctor(arg, ...))

Yields patterns use single-quoted strings for captured token text,
bare numbers for numeric leaves, nested `Ctor(...)` for sub-structure,
and a trailing `...` to mean "ignore any remaining arguments".

Error recovery

When recovery is enabled (the default; disable with --no-recovery), a
failed iteration of a `*` or `+` repetition is recorded as a
ParseError and the parser resynchronizes by skipping tokens up to and
including the next sync token (any token that is the first or last
term of some rule alternative), then continues the repetition with an
ErrorNode in place of the failed item. This lets one malformed
statement in a block-structured input produce a single diagnostic
instead of aborting the whole parse. A failure outside a repetition
is not recovered: it fails the enclosing rule.

Non-goals

Indirect or mutual left recursion, non-regular lexing (a tokens:
pattern must be expressible as a single regular expression), grammar
modularity across multiple files, incremental reparsing, and Unicode
character-class shortcuts beyond what the host regex engine already
supports are all out of scope for this tool.
*/
package main
