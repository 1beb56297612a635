package tinkerpad

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProjectNameRequired refuses an export while the project name is blank.
	ErrProjectNameRequired = errors.New("a project name is required before saving")

	// ErrFileNameNotEditable is returned when renaming the markup file, whose
	// name is always derived from the project name.
	ErrFileNameNotEditable = errors.New("the HTML file name is derived from the project name")

	// ErrUnknownLanguage is returned for pane ids other than html, css and js.
	ErrUnknownLanguage = errors.New("unknown language")
)

// Problem is a single heuristic validation finding.
type Problem struct {
	Language Language `json:"language"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`   // 1-indexed within the snippet, 0 when unknown
	Column   int      `json:"column,omitempty"` // 1-indexed, 0 when unknown
	Detail   string   `json:"detail,omitempty"` // parser description, script only
}

// Error implements the error interface.
func (p Problem) Error() string {
	return p.Message
}

// Format renders the problem with its position and parser detail.
func (p Problem) Format() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s: %s", p.Language.Label(), p.Message))
	if p.Line > 0 {
		b.WriteString(fmt.Sprintf(" (line %d", p.Line))
		if p.Column > 0 {
			b.WriteString(fmt.Sprintf(", column %d", p.Column))
		}
		b.WriteString(")")
	}
	if p.Detail != "" {
		b.WriteString(fmt.Sprintf("\n  %s", p.Detail))
	}

	return b.String()
}

// Excerpt returns up to two lines either side of the problem line from the
// snippet, with a caret under the column when known.
func (p Problem) Excerpt(snippet string) string {
	if p.Line < 1 {
		return ""
	}
	lines := strings.Split(snippet, "\n")
	if p.Line > len(lines) {
		return ""
	}

	var b strings.Builder
	start := max(1, p.Line-2)
	end := min(len(lines), p.Line+2)
	for i := start; i <= end; i++ {
		prefix := fmt.Sprintf("  %2d | ", i)
		b.WriteString(prefix + lines[i-1] + "\n")
		if i == p.Line && p.Column > 0 {
			b.WriteString(strings.Repeat(" ", len(prefix)+p.Column-1) + "^\n")
		}
	}
	return b.String()
}

// JoinProblems combines the problem messages into the single notice shown by
// the editor.
func JoinProblems(problems []Problem) string {
	msgs := make([]string, len(problems))
	for i, p := range problems {
		msgs[i] = p.Message
	}
	return strings.Join(msgs, ", ")
}
