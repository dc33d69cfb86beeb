// Package render serializes parsed trees to HTML, Markdown and back to
// org text.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gerunddev/orgtree/ast"
)

// Renderer turns a Document tree into output text.
type Renderer interface {
	Render(doc *ast.Node) (string, error)
}

// Format names an output format.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "md"
	FormatOrg      Format = "org"
)

// ErrNotDocument is returned when a renderer is handed a node that is
// not the root of a tree.
var ErrNotDocument = errors.New("render: root node is not a Document")

// ParseFormat accepts the names used on the command line and in config.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "html", "htm":
		return FormatHTML, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "org":
		return FormatOrg, nil
	}
	return "", fmt.Errorf("unknown format %q (want html, md or org)", s)
}

// Ext returns the file extension for f, with the dot.
func (f Format) Ext() string {
	switch f {
	case FormatHTML:
		return ".html"
	case FormatMarkdown:
		return ".md"
	}
	return ".org"
}

// Options configures every renderer New can build.
type Options struct {
	HTML     HTMLOptions
	Markdown MarkdownOptions
}

// New returns the renderer for f. Unknown formats fall back to org.
func New(f Format, opts Options) Renderer {
	switch f {
	case FormatHTML:
		return NewHTML(opts.HTML)
	case FormatMarkdown:
		return NewMarkdown(opts.Markdown)
	}
	return NewOrg()
}

func checkRoot(doc *ast.Node) error {
	if doc == nil || doc.Kind != ast.Document {
		return ErrNotDocument
	}
	return nil
}

// title returns the document title property or "".
func title(doc *ast.Node) string {
	t, _ := doc.Property("title")
	return t
}

// splitDone splits a #+TODO: style value into its done keywords, the ones
// after "|". Without a bar the last keyword is the done state.
func splitDone(value string) []string {
	var fields []string
	for _, f := range strings.Fields(value) {
		if i := strings.IndexByte(f, '('); i > 0 {
			f = f[:i]
		}
		fields = append(fields, f)
	}
	for i, f := range fields {
		if f == "|" {
			return fields[i+1:]
		}
	}
	if len(fields) > 0 {
		return fields[len(fields)-1:]
	}
	return nil
}

// doneKeywords returns the keywords that mark a finished task in doc.
func doneKeywords(doc *ast.Node) map[string]bool {
	done := map[string]bool{"DONE": true}
	for _, key := range []string{"todo", "seq_todo", "typ_todo"} {
		if v, ok := doc.Property(key); ok {
			for _, kw := range splitDone(v) {
				done[kw] = true
			}
		}
	}
	return done
}

// fileProperties returns the PROPERTIES drawer that precedes the first
// heading, if any.
func fileProperties(doc *ast.Node) *ast.Node {
	for _, c := range doc.Children {
		switch {
		case c.Kind == ast.Heading:
			return nil
		case c.Kind == ast.Drawer && strings.EqualFold(c.Name, "PROPERTIES"):
			return c
		}
	}
	return nil
}

func footnotes(doc *ast.Node) []*ast.Node {
	return doc.Collect(ast.Footnote)
}
