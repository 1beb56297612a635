package tinkerpad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		style  string
		script string
		want   []Language
	}{
		{"all empty", "", "", "", nil},
		{"whitespace only", " \n\t", "   ", "\n\n", nil},
		{"valid snippets", "<p>hi</p>", "p{color:red}", "console.log(1)", nil},
		{"markup without tag", "hello", "", "", []Language{HTML}},
		{"style without brace", "", "color: red;", "", []Language{CSS}},
		{"script syntax error", "", "", "function(", []Language{JavaScript}},
		{"all invalid", "hello", "color: red", "let = ;", []Language{HTML, CSS, JavaScript}},
		{"brace in comment passes", "", "/* { */ color: red", "", nil},
		{"lone angle bracket passes", "1 < 2", "", "", nil},
		{"top-level return is a valid body", "", "", "return 42", nil},
		{"body escaping the function", "", "", "}); alert(1); (function() {", []Language{JavaScript}},
		{"body turning into a sequence", "", "", "}, 1, (function() {", []Language{JavaScript}},
		{"unterminated string", "", "", "var s = 'abc", []Language{JavaScript}},
		{"dynamic import", "", "", "import('x')", nil},
		{"async generator with for await", "", "", "async function* g(y) { for await (const x of y) { yield x } }", nil},
		{"legacy html comment", "", "", "<!-- hidden from old browsers\nvar a = 1", nil},
		{"optional chaining and nullish", "", "", "const v = a?.b ?? c?.[0]", nil},
		{"class fields", "", "", "class A { #x = 1; static y = 2; get x() { return this.#x } }", nil},
		{"static import is not a body", "", "", "import x from 'y'", []Language{JavaScript}},
		{"await outside async", "", "", "await fetch('/x')", []Language{JavaScript}},
		{"escape via unary plus", "", "", "} + function() {", []Language{JavaScript}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Validate(tt.markup, tt.style, tt.script)

			var got []Language
			for _, p := range problems {
				got = append(got, p.Language)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateMessages(t *testing.T) {
	problems := Validate("hello", "color: red", "function(")
	require.Len(t, problems, 3)

	assert.Equal(t, MsgMarkupInvalid, problems[0].Message)
	assert.Equal(t, MsgStyleInvalid, problems[1].Message)
	assert.Equal(t, MsgScriptSyntax, problems[2].Message)
	assert.Equal(t, "markup appears invalid, style appears invalid, script contains a syntax error", JoinProblems(problems))
}

func TestValidateIsIdempotent(t *testing.T) {
	inputs := [][3]string{
		{"hello", "p{}", "function("},
		{"<b>x</b>", "nope", "let x = 1"},
		{"", "", ""},
	}
	for _, in := range inputs {
		first := Validate(in[0], in[1], in[2])
		second := Validate(in[0], in[1], in[2])
		assert.Equal(t, first, second)
	}
}

func TestValidateScriptIsNotExecuted(t *testing.T) {
	// An infinite loop would hang the test if the script ran.
	problems := Validate("", "", "while (true) {}")
	assert.Empty(t, problems)

	problems = Validate("", "", "throw new Error('boom')")
	assert.Empty(t, problems)
}

func TestScriptProblemPosition(t *testing.T) {
	problems := Validate("", "", "var a = 1;\nvar b = ;")
	require.Len(t, problems, 1)

	p := problems[0]
	assert.Equal(t, JavaScript, p.Language)
	assert.Equal(t, 2, p.Line)
	assert.Positive(t, p.Column)
	assert.NotEmpty(t, p.Detail)
}

func TestCheckScript(t *testing.T) {
	assert.NoError(t, CheckScript("const add = (a, b) => a + b;\nreturn add(1, 2);"))
	assert.NoError(t, CheckScript("return 1\n//# sourceMappingURL=/does/not/exist.map"))
	assert.NoError(t, CheckScript("import('x')"))
	assert.NoError(t, CheckScript("async function* g(){ for await (const x of y) {} }"))
	assert.Error(t, CheckScript("if ("))
	assert.ErrorIs(t, CheckScript("}); x(); (function() {"), errFunctionBody)
	assert.ErrorIs(t, CheckScript("} + function() {"), errFunctionBody)
}

func TestCheckScriptSyntaxError(t *testing.T) {
	err := CheckScript("let ok = 1;\n  let = ;")

	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 2, syn.Line)
	assert.Positive(t, syn.Column)
	assert.NotEmpty(t, syn.Text)
	assert.NotErrorIs(t, err, errFunctionBody)
}
