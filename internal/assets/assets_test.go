package assets

import (
	"io/fs"
	"strings"
	"testing"
)

func TestGetEditorJS(t *testing.T) {
	data, err := GetEditorJS()
	if err != nil {
		t.Fatalf("GetEditorJS failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("GetEditorJS returned empty data")
	}
}

func TestGetEditorCSS(t *testing.T) {
	data, err := GetEditorCSS()
	if err != nil {
		t.Fatalf("GetEditorCSS failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("GetEditorCSS returned empty data")
	}
}

func TestClientFS(t *testing.T) {
	for _, name := range []string{"editor.html.tmpl", "editor.js", "editor.css", "help.md"} {
		if _, err := fs.Stat(ClientFS(), name); err != nil {
			t.Errorf("missing embedded file %s: %v", name, err)
		}
	}
}

func TestPageTemplate(t *testing.T) {
	tmpl, err := PageTemplate()
	if err != nil {
		t.Fatalf("PageTemplate failed: %v", err)
	}
	if tmpl.Lookup("editor.html.tmpl") == nil {
		t.Error("template editor.html.tmpl not defined")
	}
}

func TestHelpHTML(t *testing.T) {
	html, err := HelpHTML()
	if err != nil {
		t.Fatalf("HelpHTML failed: %v", err)
	}
	if !strings.Contains(string(html), "<h3>How it works</h3>") {
		t.Errorf("expected rendered heading, got %q", html)
	}
	if !strings.Contains(string(html), "<strong>Preview</strong>") {
		t.Errorf("expected bold Preview, got %q", html)
	}

	again, _ := HelpHTML()
	if again != html {
		t.Error("HelpHTML should return the cached rendering")
	}
}

func TestRenderMarkdownEscapesRawHTML(t *testing.T) {
	html, err := RenderMarkdown([]byte("hello <script>alert(1)</script>"))
	if err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Errorf("raw HTML should not pass through: %q", html)
	}
}
