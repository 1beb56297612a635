// Package tinkerpad provides the core of a three-pane snippet editor: HTML,
// CSS and JavaScript snippets, a heuristic validator, a preview assembler and
// a file exporter.
package tinkerpad

import (
	"fmt"
	"strings"
)

// Language identifies one of the three editor panes.
type Language string

const (
	HTML       Language = "html"
	CSS        Language = "css"
	JavaScript Language = "js"
)

// Languages lists the panes in tab (and export) order.
var Languages = []Language{HTML, CSS, JavaScript}

// Default output file names for the style and script panes.
const (
	DefaultStyleFile  = "styles.css"
	DefaultScriptFile = "script.js"
)

// ParseLanguage accepts the pane ids plus their long names.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "markup":
		return HTML, nil
	case "css", "style":
		return CSS, nil
	case "js", "script", "javascript":
		return JavaScript, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
}

// Valid reports whether l is one of the three panes.
func (l Language) Valid() bool {
	return l == HTML || l == CSS || l == JavaScript
}

// Label is the tab label shown by the editor.
func (l Language) Label() string {
	switch l {
	case HTML:
		return "HTML"
	case CSS:
		return "CSS"
	case JavaScript:
		return "JavaScript"
	}
	return string(l)
}

// Heading is the title shown above the pane's text area.
func (l Language) Heading() string {
	switch l {
	case HTML:
		return "HTML code"
	case CSS:
		return "CSS styles"
	case JavaScript:
		return "JavaScript code"
	}
	return ""
}

// Placeholder is the hint shown in an empty pane.
func (l Language) Placeholder() string {
	switch l {
	case HTML:
		return "Enter your HTML here..."
	case CSS:
		return "Enter your CSS styles here..."
	case JavaScript:
		return "Enter your JavaScript here..."
	}
	return ""
}

// Extension is the canonical file extension, including the dot.
func (l Language) Extension() string {
	switch l {
	case HTML:
		return ".html"
	case CSS:
		return ".css"
	case JavaScript:
		return ".js"
	}
	return ""
}

// Project is the authored content: one snippet per pane, the project name
// and the editable output file names. Nothing is validated on write.
type Project struct {
	Name       string
	Markup     string
	Style      string
	Script     string
	StyleFile  string
	ScriptFile string
}

// NewProject returns an empty project with the default file names.
func NewProject() Project {
	return Project{
		StyleFile:  DefaultStyleFile,
		ScriptFile: DefaultScriptFile,
	}
}

// Snippet returns the text of the given pane.
func (p Project) Snippet(l Language) string {
	switch l {
	case HTML:
		return p.Markup
	case CSS:
		return p.Style
	case JavaScript:
		return p.Script
	}
	return ""
}

// SetSnippet replaces the text of the given pane.
func (p *Project) SetSnippet(l Language, text string) {
	switch l {
	case HTML:
		p.Markup = text
	case CSS:
		p.Style = text
	case JavaScript:
		p.Script = text
	}
}

// FileName returns the output file name for a pane. The markup file is
// always derived from the project name.
func (p Project) FileName(l Language) string {
	switch l {
	case HTML:
		return p.Name + HTML.Extension()
	case CSS:
		return p.StyleFile
	case JavaScript:
		return p.ScriptFile
	}
	return ""
}

// HasName reports whether the project name has non-whitespace content.
func (p Project) HasName() bool {
	return strings.TrimSpace(p.Name) != ""
}

// Validate runs the heuristic checks over all three snippets.
func (p Project) Validate() []Problem {
	return Validate(p.Markup, p.Style, p.Script)
}

// Assemble builds the preview document from all three snippets.
func (p Project) Assemble() string {
	return Assemble(p.Markup, p.Style, p.Script)
}

// StatusKind is the outcome of the last user-triggered operation.
type StatusKind string

const (
	StatusIdle    StatusKind = "idle"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the inline notice shown by the editor.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

// IsError reports whether the status is an error notice.
func (s Status) IsError() bool {
	return s.Kind == StatusError
}

func successStatus(msg string) Status {
	return Status{Kind: StatusSuccess, Message: msg}
}

func errorStatus(msg string) Status {
	return Status{Kind: StatusError, Message: msg}
}
