// Package assets embeds the editor page, its JavaScript and CSS, and the help text
package assets

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed client/*
var clientFS embed.FS

// ClientFS returns the embedded client files
func ClientFS() fs.FS {
	sub, err := fs.Sub(clientFS, "client")
	if err != nil {
		panic(err)
	}
	return sub
}

// GetEditorJS returns the browser script of the editor page
func GetEditorJS() ([]byte, error) {
	return clientFS.ReadFile("client/editor.js")
}

// GetEditorCSS returns the stylesheet of the editor page
func GetEditorCSS() ([]byte, error) {
	return clientFS.ReadFile("client/editor.css")
}

// GetHelpMarkdown returns the help panel source
func GetHelpMarkdown() ([]byte, error) {
	return clientFS.ReadFile("client/help.md")
}

// PageTemplate parses the editor page template
func PageTemplate() (*template.Template, error) {
	return template.ParseFS(clientFS, "client/editor.html.tmpl")
}

var (
	helpOnce sync.Once
	helpHTML template.HTML
	helpErr  error
)

// HelpHTML renders the help panel Markdown once and caches the result
func HelpHTML() (template.HTML, error) {
	helpOnce.Do(func() {
		src, err := GetHelpMarkdown()
		if err != nil {
			helpErr = err
			return
		}
		helpHTML, helpErr = RenderMarkdown(src)
	})
	return helpHTML, helpErr
}

// RenderMarkdown converts Markdown to HTML. Raw HTML in the source is
// escaped, not passed through.
func RenderMarkdown(src []byte) (template.HTML, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
