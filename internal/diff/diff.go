// Package diff checks that a file survives a parse and org render
// unchanged, and shows a unified diff where it does not.
package diff

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/gerunddev/orgtree/ast"
	"github.com/gerunddev/orgtree/parser"
	"github.com/gerunddev/orgtree/render"
)

// Report is the outcome of a round-trip check.
type Report struct {
	File string

	// Original is the source text, Rendered its canonical org rendering.
	Original string
	Rendered string

	// TreeEqual reports whether Rendered parses back to the same tree.
	TreeEqual bool

	Unified      gotextdiff.Unified
	ChangedLines int
}

// Clean reports whether the source is already in canonical form.
func (r *Report) Clean() bool {
	return r.TreeEqual && r.ChangedLines == 0
}

// Text returns the unified diff as plain text.
func (r *Report) Text() string {
	if r.ChangedLines == 0 {
		return ""
	}
	return fmt.Sprint(r.Unified)
}

// CheckFile runs Check on the contents of path.
func CheckFile(p *parser.Parser, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Check(p, filepath.Base(path), string(data))
}

// Check parses source, renders it back to org and parses the result
// again. The report carries a unified diff from source to rendering.
func Check(p *parser.Parser, name, source string) (*Report, error) {
	doc, err := p.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	rendered, err := render.NewOrg().Render(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}

	again, err := p.Parse(rendered)
	if err != nil {
		return nil, fmt.Errorf("failed to reparse rendered %s: %w", name, err)
	}

	edits := myers.ComputeEdits(span.URIFromPath(name), source, rendered)
	unified := gotextdiff.ToUnified(name, name+" (rendered)", source, edits)

	return &Report{
		File:         name,
		Original:     source,
		Rendered:     rendered,
		TreeEqual:    ast.Equal(doc, again),
		Unified:      unified,
		ChangedLines: changedLines(unified),
	}, nil
}

func changedLines(u gotextdiff.Unified) int {
	n := 0
	for _, h := range u.Hunks {
		for _, l := range h.Lines {
			if l.Kind != gotextdiff.Equal {
				n++
			}
		}
	}
	return n
}

// Render wraps the diff of r in a markdown diff fence and renders it for
// the terminal. It falls back to the plain fence if glamour fails.
func Render(r *Report, width int) string {
	text := r.Text()
	if text == "" {
		return ""
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	fenced := fmt.Sprintf("```diff\n%s```\n", text)

	if width <= 0 {
		width = 120
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fenced
	}

	out, err := renderer.Render(fenced)
	if err != nil {
		return fenced
	}
	return out
}
