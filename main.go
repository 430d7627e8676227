// Command acanthopys is the CLI front end for the PEG parser
// generator: it wires the grammar front-end (internal/frontend), the
// semantic checker (internal/check), the embedded test driver
// (internal/testrunner) and the code emitter (internal/emit) into the
// init/build/check/test/fmt/repl subcommands spec.md §6 names as the
// core's external contract.
//
// The subcommand layout and the Run-returns-exit-code shape
// (cmd.Run wraps a runX helper and calls os.Exit) follow
// open-policy-agent-opa's cmd package (cmd/commands.go, cmd/check.go):
// one cobra.Command builder function per subcommand, flags bound to a
// params struct, Args validates the argument count and RunE does the
// work.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Andres95123/acanthopys/internal/check"
	"github.com/Andres95123/acanthopys/internal/emit"
	"github.com/Andres95123/acanthopys/internal/frontend"
	"github.com/Andres95123/acanthopys/internal/gerrors"
	"github.com/Andres95123/acanthopys/internal/model"
	"github.com/Andres95123/acanthopys/internal/prettyprint"
	"github.com/Andres95123/acanthopys/internal/runtime"
	"github.com/Andres95123/acanthopys/internal/testrunner"
)

// Exit codes, per spec.md §6: "0 success; 1 tests failed; 2 grammar
// errors; 3 I/O error; 4 usage error."
const (
	exitOK           = 0
	exitTestsFailed  = 1
	exitGrammarError = 2
	exitIOError      = 3
	exitUsageError   = 4
)

func main() {
	root := &cobra.Command{
		Use:   "acanthopys",
		Short: "acanthopys generates PEG parsers from .apy grammars",
		Long: `acanthopys compiles a .apy grammar into a Go parser source file:
the compiled grammar, an AST node set and entry points into this
module's packrat runtime, which implements ordered choice,
repetition, direct left recursion (seed growing) and panic-mode error
recovery. It runs the grammar's embedded "test"
blocks before emitting code.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newInitCmd(), newBuildCmd(), newCheckCmd(), newTestCmd(), newFmtCmd(), newReplCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitUsageError)
	}
}

// loadGrammar runs the front-end (A) over path and returns its first
// grammar. Multiple grammar blocks per file are allowed by spec.md
// §4.A; the CLI operates on the first one, matching the teacher's
// one-parser-per-invocation shape.
//
// A file with no grammar block at all (empty, or comment-only) is
// reported as a fatal SyntaxError rather than returning a nil
// grammar: every caller treats "no fatal diagnostics" as a license to
// run the checker over the result, and a nil *model.Grammar would
// reach check.Run and panic past the API boundary spec.md §7
// promises never to cross.
func loadGrammar(path string) (*model.Grammar, *gerrors.Bag, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	grammars, diags := frontend.ParseSource(string(src))
	if len(grammars) == 0 {
		diags.Addf(gerrors.SyntaxError, model.Position{Line: 1, Col: 1}, "no grammar block found in %s", path)
		return nil, diags, nil
	}
	return grammars[0], diags, nil
}

func printDiagnostics(cmd *cobra.Command, diags *gerrors.Bag) {
	if diags == nil {
		return
	}
	for _, d := range diags.All() {
		fmt.Fprintln(cmd.ErrOrStderr(), d.Error())
	}
}

// ---- build ----

type buildParams struct {
	outDir     string
	noTests    bool
	testsOnly  bool
	noRecovery bool
	dryRun     bool
	verbose    bool
}

func newBuildCmd() *cobra.Command {
	var p buildParams
	cmd := &cobra.Command{
		Use:   "build GRAMMAR_FILE",
		Short: "Compile a .apy grammar into a generated parser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runBuild(cmd, args[0], p))
			return nil
		},
	}
	cmd.Flags().StringVarP(&p.outDir, "output", "o", ".", "output directory for the generated parser")
	cmd.Flags().BoolVar(&p.noTests, "no-tests", false, "skip running embedded grammar tests")
	cmd.Flags().BoolVar(&p.testsOnly, "tests", false, "run embedded tests only, do not emit a parser")
	cmd.Flags().BoolVar(&p.noRecovery, "no-recovery", false, "disable panic-mode error recovery in the generated parser")
	cmd.Flags().BoolVar(&p.dryRun, "dry-run", false, "run the full pipeline without writing the generated file")
	cmd.Flags().BoolVarP(&p.verbose, "verbose", "v", false, "trace rule entry/exit while running embedded tests")
	return cmd
}

func runBuild(cmd *cobra.Command, path string, p buildParams) int {
	g, diags, err := loadGrammar(path)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	printDiagnostics(cmd, diags)
	if diags.HasFatal() {
		return exitGrammarError
	}

	checkDiags := check.Run(g)
	printDiagnostics(cmd, checkDiags)
	if checkDiags.HasFatal() {
		return exitGrammarError
	}

	if !p.noTests {
		opts := []runtime.Option{runtime.Recover(!p.noRecovery), runtime.Debug(p.verbose), runtime.Trace(cmd.ErrOrStderr())}
		results, err := testrunner.Run(g, opts...)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return exitIOError
		}
		reportTestResults(cmd, results)
		if !testrunner.AllPassed(results) {
			return exitTestsFailed
		}
	}

	if p.testsOnly {
		return exitOK
	}

	out, err := emit.Emit(g, emit.Options{NoRecovery: p.noRecovery})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}

	if p.dryRun {
		return exitOK
	}

	if err := os.MkdirAll(p.outDir, 0o755); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	outPath := filepath.Join(p.outDir, emit.Filename(g))
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	fmt.Fprintln(cmd.OutOrStdout(), outPath)
	return exitOK
}

func reportTestResults(cmd *cobra.Command, results []testrunner.SuiteResult) {
	for _, suite := range results {
		for _, c := range suite.Results {
			if c.Passed {
				continue
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s %q: %s\n", suite.Suite, c.Input, c.Message)
		}
	}
}

// ---- check ----

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check GRAMMAR_FILE",
		Short: "Run the front-end and semantic checker without emitting a parser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runCheck(cmd, args[0]))
			return nil
		},
	}
}

func runCheck(cmd *cobra.Command, path string) int {
	g, diags, err := loadGrammar(path)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	printDiagnostics(cmd, diags)
	if diags.HasFatal() {
		return exitGrammarError
	}
	checkDiags := check.Run(g)
	printDiagnostics(cmd, checkDiags)
	if checkDiags.HasFatal() {
		return exitGrammarError
	}
	return exitOK
}

// ---- test ----

func newTestCmd() *cobra.Command {
	var noRecovery bool
	var verbose bool
	cmd := &cobra.Command{
		Use:   "test GRAMMAR_FILE",
		Short: "Run a grammar's embedded test blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runTest(cmd, args[0], noRecovery, verbose))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noRecovery, "no-recovery", false, "disable panic-mode error recovery")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "trace rule entry/exit")
	return cmd
}

func runTest(cmd *cobra.Command, path string, noRecovery, verbose bool) int {
	g, diags, err := loadGrammar(path)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	printDiagnostics(cmd, diags)
	if diags.HasFatal() {
		return exitGrammarError
	}
	checkDiags := check.Run(g)
	printDiagnostics(cmd, checkDiags)
	if checkDiags.HasFatal() {
		return exitGrammarError
	}

	results, err := testrunner.Run(g, runtime.Recover(!noRecovery), runtime.Debug(verbose), runtime.Trace(cmd.ErrOrStderr()))
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	reportTestResults(cmd, results)
	// spec.md §7: test failures are "non-fatal for test (still exits
	// non-zero)" -- unlike build, a failing test command still reports
	// every suite rather than stopping at the first fatal diagnostic.
	if !testrunner.AllPassed(results) {
		return exitTestsFailed
	}
	return exitOK
}

// ---- fmt ----

func newFmtCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "fmt GRAMMAR_FILE",
		Short: "Round-trip a grammar through the front-end and pretty-printer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runFmt(cmd, args[0], outPath))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write formatted grammar here instead of stdout")
	return cmd
}

func runFmt(cmd *cobra.Command, path, outPath string) int {
	g, diags, err := loadGrammar(path)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	printDiagnostics(cmd, diags)
	if diags.HasFatal() {
		return exitGrammarError
	}

	formatted := prettyprint.Print(g)
	if outPath == "" {
		fmt.Fprint(cmd.OutOrStdout(), formatted)
		return exitOK
	}
	if err := os.WriteFile(outPath, []byte(formatted), 0o644); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	return exitOK
}

// ---- init ----

// titleCase upper-cases the first rune of s, leaving the rest as-is,
// so "calculator" becomes the grammar name "Calculator".
func titleCase(s string) string {
	if s == "" {
		return "Grammar"
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}

const initTemplate = `grammar %s:

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
    "1+2+3" => Yields(Add(Add(Num(1), Num(2)), Num(3)))
    "1+" => Fail
end

end
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init NAME",
		Short: "Scaffold a new .apy grammar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(runInit(cmd, args[0]))
			return nil
		},
	}
}

func runInit(cmd *cobra.Command, name string) int {
	grammarName := titleCase(strings.TrimSuffix(filepath.Base(name), ".apy"))
	path := name
	if !strings.HasSuffix(path, ".apy") {
		path += ".apy"
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s already exists\n", path)
		return exitIOError
	}
	content := fmt.Sprintf(initTemplate, grammarName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return exitIOError
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return exitOK
}

// ---- repl ----

// newReplCmd is a documented stub. An interactive grammar REPL is an
// editor-style collaborator (spec.md §1 lists it among the pieces the
// core only exposes an interface to, not implements) -- a real one
// would need incremental reparsing of partial input and a line editor,
// neither of which this module's single-shot ParseSource/Parser API
// supports yet.
func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl GRAMMAR_FILE",
		Short: "(stub) interactively parse input against a grammar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "repl is not part of the parser-generator core; "+
				"it would read lines from stdin, run them through runtime.NewParser against "+
				"the loaded grammar's start rule, and print the resulting ParseResult after "+
				"each line. Use 'acanthopys test' to run a grammar's embedded tests instead.")
			return nil
		},
	}
}
