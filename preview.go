package tinkerpad

import "strings"

// Assemble combines the snippets into one standalone document: style in the
// head, markup in the body, then the script. Nothing is escaped; the
// document is only safe to show inside a sandboxed renderer.
func Assemble(markup, style, script string) string {
	var b strings.Builder
	b.Grow(len(markup) + len(style) + len(script) + 160)

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html>\n")
	b.WriteString("  <head>\n")
	b.WriteString("    <meta charset=\"utf-8\">\n")
	b.WriteString("    <style>" + style + "</style>\n")
	b.WriteString("  </head>\n")
	b.WriteString("  <body>\n")
	b.WriteString("    " + markup + "\n")
	b.WriteString("    <script>" + script + "</script>\n")
	b.WriteString("  </body>\n")
	b.WriteString("</html>\n")

	return b.String()
}
