package tinkerpad

import (
	"errors"
	"strings"
	"testing"
)

func TestProblemFormat(t *testing.T) {
	p := Problem{Language: JavaScript, Message: MsgScriptSyntax, Line: 3, Column: 7, Detail: "Unexpected token ;"}

	got := p.Format()
	if !strings.HasPrefix(got, "JavaScript: script contains a syntax error (line 3, column 7)") {
		t.Errorf("unexpected header: %q", got)
	}
	if !strings.Contains(got, "Unexpected token ;") {
		t.Errorf("Format should include parser detail, got %q", got)
	}

	plain := Problem{Language: HTML, Message: MsgMarkupInvalid}
	if plain.Format() != "HTML: markup appears invalid" {
		t.Errorf("unexpected format %q", plain.Format())
	}
}

func TestProblemExcerpt(t *testing.T) {
	snippet := "a\nb\nc = ;\nd\ne\nf"
	p := Problem{Language: JavaScript, Line: 3, Column: 5}

	got := p.Excerpt(snippet)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")

	// lines 1-5 plus the caret line
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d:\n%s", len(lines), got)
	}
	if !strings.HasSuffix(lines[3], "^") {
		t.Errorf("caret line missing: %q", lines[3])
	}
	if (Problem{Line: 10}).Excerpt(snippet) != "" {
		t.Error("out of range line should give an empty excerpt")
	}
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"html": HTML, "markup": HTML, "CSS": CSS, "style": CSS,
		"js": JavaScript, "JavaScript": JavaScript, " script ": JavaScript,
	}
	for in, want := range tests {
		got, err := ParseLanguage(in)
		if err != nil || got != want {
			t.Errorf("ParseLanguage(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseLanguage("python"); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("expected ErrUnknownLanguage, got %v", err)
	}
}
