package tinkerpad

import (
	"errors"
	"fmt"
	"sync"
)

// Success notices.
const (
	MsgPreviewReady  = "preview ready"
	MsgAllDownloaded = "files downloaded successfully"
)

// Editor is the in-memory state of one editing session: the project, the
// active tab, the preview overlay and the last operation status. Every
// method runs to completion under the editor's lock, so concurrent surfaces
// behave as a single writer.
type Editor struct {
	mu sync.Mutex

	project     Project
	activeTab   Language
	previewOpen bool
	previewDoc  string
	status      Status
	exporter    *Exporter
}

// Option configures an Editor.
type Option func(*Editor)

// WithSaver sets the collaborator that receives downloaded files.
func WithSaver(s Saver) Option {
	return func(e *Editor) {
		e.exporter = NewExporter(s)
	}
}

// WithFileNames overrides the default style and script file names. Values
// are normalized to their canonical extension; empty values are ignored.
func WithFileNames(style, script string) Option {
	return func(e *Editor) {
		if style != "" {
			e.project.StyleFile = NormalizeFileName(CSS, style)
		}
		if script != "" {
			e.project.ScriptFile = NormalizeFileName(JavaScript, script)
		}
	}
}

// WithProjectName pre-fills the project name.
func WithProjectName(name string) Option {
	return func(e *Editor) {
		e.project.Name = name
	}
}

// WithActiveTab selects the initial tab. Unknown languages are ignored.
func WithActiveTab(l Language) Option {
	return func(e *Editor) {
		if l.Valid() {
			e.activeTab = l
		}
	}
}

// NewEditor creates an editor on the HTML tab with an empty project.
func NewEditor(opts ...Option) *Editor {
	e := &Editor{
		project:   NewProject(),
		activeTab: HTML,
		status:    Status{Kind: StatusIdle},
		exporter:  NewExporter(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SelectTab switches the pane shown and edited.
func (e *Editor) SelectTab(l Language) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, l)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeTab = l
	return nil
}

// ActiveTab returns the selected pane.
func (e *Editor) ActiveTab() Language {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeTab
}

// SetSnippet replaces the text of a pane. It never closes or refreshes an
// open preview.
func (e *Editor) SetSnippet(l Language, text string) error {
	if !l.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownLanguage, l)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.project.SetSnippet(l, text)
	return nil
}

// EditActive replaces the text of the active pane.
func (e *Editor) EditActive(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.project.SetSnippet(e.activeTab, text)
}

// Snippet returns the text of a pane.
func (e *Editor) Snippet(l Language) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.Snippet(l)
}

// SetProjectName stores the project name as typed.
func (e *Editor) SetProjectName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.project.Name = name
}

// SetFileName stores a new output file name for the CSS or JavaScript pane,
// forcing the canonical extension. It returns the stored name.
func (e *Editor) SetFileName(l Language, value string) (string, error) {
	switch l {
	case HTML:
		return "", ErrFileNameNotEditable
	case CSS, JavaScript:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, l)
	}

	name := NormalizeFileName(l, value)

	e.mu.Lock()
	defer e.mu.Unlock()
	if l == CSS {
		e.project.StyleFile = name
	} else {
		e.project.ScriptFile = name
	}
	return name, nil
}

// FileName returns the output file name of a pane.
func (e *Editor) FileName(l Language) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project.FileName(l)
}

// Project returns a copy of the authored content.
func (e *Editor) Project() Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project
}

// Preview validates the snippets and, when nothing is reported, captures the
// assembled document and opens the preview. On problems the preview is left
// as it was and the status carries the joined messages.
func (e *Editor) Preview() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if problems := e.project.Validate(); len(problems) > 0 {
		e.status = errorStatus(JoinProblems(problems))
		return e.status
	}

	e.previewDoc = e.project.Assemble()
	e.previewOpen = true
	e.status = successStatus(MsgPreviewReady)
	return e.status
}

// ClosePreview hides the preview. The status is left untouched.
func (e *Editor) ClosePreview() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.previewOpen = false
}

// PreviewDocument returns the document captured by the last successful
// Preview, and whether the preview is currently open.
func (e *Editor) PreviewDocument() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.previewOpen {
		return "", false
	}
	return e.previewDoc, true
}

// PreviewOpen reports whether the preview overlay is shown.
func (e *Editor) PreviewOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.previewOpen
}

// Download saves the snippet of one pane.
func (e *Editor) Download(l Language) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.exporter.ExportOne(e.project, l); err != nil {
		e.status = exportErrorStatus(err)
		return e.status
	}
	e.status = successStatus("saved " + e.project.FileName(l))
	return e.status
}

// DownloadAll saves the HTML, CSS and JavaScript files in that order.
func (e *Editor) DownloadAll() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.exporter.ExportAll(e.project); err != nil {
		e.status = exportErrorStatus(err)
		return e.status
	}
	e.status = successStatus(MsgAllDownloaded)
	return e.status
}

func exportErrorStatus(err error) Status {
	if errors.Is(err, ErrProjectNameRequired) {
		return errorStatus(ErrProjectNameRequired.Error())
	}
	return errorStatus(err.Error())
}

// Status returns the last operation status.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Snapshot is a read-out of the editor for rendering surfaces.
type Snapshot struct {
	ActiveTab   Language `json:"activeTab"`
	ProjectName string   `json:"projectName"`
	Markup      string   `json:"html"`
	Style       string   `json:"css"`
	Script      string   `json:"js"`
	MarkupFile  string   `json:"htmlFile"`
	StyleFile   string   `json:"cssFile"`
	ScriptFile  string   `json:"jsFile"`
	PreviewOpen bool     `json:"previewOpen"`
	Status      Status   `json:"status"`
}

// Snapshot returns the current state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		ActiveTab:   e.activeTab,
		ProjectName: e.project.Name,
		Markup:      e.project.Markup,
		Style:       e.project.Style,
		Script:      e.project.Script,
		MarkupFile:  e.project.FileName(HTML),
		StyleFile:   e.project.StyleFile,
		ScriptFile:  e.project.ScriptFile,
		PreviewOpen: e.previewOpen,
		Status:      e.status,
	}
}

// Snippet returns the text of a pane in the snapshot.
func (s Snapshot) Snippet(l Language) string {
	switch l {
	case HTML:
		return s.Markup
	case CSS:
		return s.Style
	case JavaScript:
		return s.Script
	}
	return ""
}

// FileName returns the output file name of a pane in the snapshot.
func (s Snapshot) FileName(l Language) string {
	switch l {
	case HTML:
		return s.MarkupFile
	case CSS:
		return s.StyleFile
	case JavaScript:
		return s.ScriptFile
	}
	return ""
}
