package tinkerpad

import (
	"errors"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Heuristic validation messages.
const (
	MsgMarkupInvalid = "markup appears invalid"
	MsgStyleInvalid  = "style appears invalid"
	MsgScriptSyntax  = "script contains a syntax error"
)

// Validate inspects the three snippets heuristically. Every rule runs; an
// empty result means no obvious problem was found, not that the code is
// correct. Blank snippets are never reported.
func Validate(markup, style, script string) []Problem {
	var problems []Problem

	if !isBlank(markup) && !strings.Contains(markup, "<") {
		problems = append(problems, Problem{Language: HTML, Message: MsgMarkupInvalid})
	}

	if !isBlank(style) && !strings.Contains(style, "{") {
		problems = append(problems, Problem{Language: CSS, Message: MsgStyleInvalid})
	}

	if !isBlank(script) {
		if err := CheckScript(script); err != nil {
			problems = append(problems, scriptProblem(err))
		}
	}

	return problems
}

// errFunctionBody reports a body that closes the wrapping function early,
// e.g. "}); other(); (function() {".
var errFunctionBody = errors.New("source is not a single function body")

// SyntaxError is a parse failure at a position of the script, counted from 1.
// Line and Column are 0 when the parser gave no position.
type SyntaxError struct {
	Line   int
	Column int
	Text   string
	cause  error
}

func (e *SyntaxError) Error() string {
	return e.Text
}

func (e *SyntaxError) Unwrap() error {
	return e.cause
}

// CheckScript parses script as the body of a standalone function, the way
// the Function constructor does. The source is only parsed: nothing is
// bundled, executed or fetched.
//
// Two parses are needed. Inside a function wrapper the body gets function
// semantics (return, non-async await). On its own the body must also parse,
// which rules out text that closes the wrapper and reopens it.
func CheckScript(script string) error {
	if err := parseScript("(function() {\n"+script+"\n})", 1); err != nil {
		return err
	}
	if err := parseScript(script, 0); err != nil {
		var syn *SyntaxError
		if errors.As(err, &syn) {
			syn.cause = errFunctionBody
		}
		return err
	}
	return nil
}

// parseScript runs esbuild's JavaScript parser over src and reports the
// first error. lineOffset is the number of wrapper lines before the body.
func parseScript(src string, lineOffset int) error {
	result := api.Transform(src, api.TransformOptions{
		Loader:   api.LoaderJS,
		LogLevel: api.LogLevelSilent,
	})
	if len(result.Errors) == 0 {
		return nil
	}

	msg := result.Errors[0]
	err := &SyntaxError{Text: msg.Text}
	if loc := msg.Location; loc != nil && loc.Line > lineOffset {
		err.Line = loc.Line - lineOffset
		err.Column = loc.Column + 1
	}
	return err
}

// scriptProblem converts a parse failure into a Problem.
func scriptProblem(err error) Problem {
	p := Problem{Language: JavaScript, Message: MsgScriptSyntax, Detail: err.Error()}

	var syn *SyntaxError
	if errors.As(err, &syn) {
		p.Line = syn.Line
		p.Column = syn.Column
	}
	return p
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
