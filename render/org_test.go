package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerunddev/orgtree/ast"
	"github.com/gerunddev/orgtree/parser"
)

const sampleOrg = `#+TITLE: Sample Notes
#+TODO: TODO NEXT | DONE CANCELLED
:PROPERTIES:
:ID: 123e4567-e89b-12d3-a456-426614174000
:ROAM_ALIASES: "Sample" "Notes sample"
:END:

Intro with *bold*, /italic/, _under_, +strike+, ~code~ and =verbatim=.
Second line with a [[https://go.dev][link]] and https://example.com/x.

* TODO [#A] Write the parser   :work:go:
Body of the task, see [fn:1].

** NEXT Nested <2024-01-15 Mon>
- first
- [X] second
    continued
  1. nested one
  2) nested two
- term :: description

- after one blank line

  - rebased
- [-] partial

* Tables and blocks
| Name | Value |
|------+-------|
| a    | *1*   |
| b    |

#+BEGIN_SRC go :tangle yes
func main() {
	fmt.Println("*not bold*")
}
#+END_SRC

#+begin_example
* not a heading
#+end_example

-----
# a comment
:LOGBOOK:
- State "DONE" from "TODO" [2024-01-16 Tue]
:END:

[fn:1] The footnote
spans two lines.
`

func roundTrip(t *testing.T, src string, opts parser.Options) {
	t.Helper()

	first, err := parser.ParseWith(src, opts)
	require.NoError(t, err)

	out, err := NewOrg().Render(first)
	require.NoError(t, err)

	second, err := parser.ParseWith(out, opts)
	require.NoError(t, err, "re-parsing:\n%s", out)
	if !ast.Equal(first, second) {
		t.Errorf("round trip changed the tree.\n\nRendered:\n%s\n\nFirst:\n%s\nSecond:\n%s", out, first, second)
	}

	again, err := NewOrg().Render(second)
	require.NoError(t, err)
	assert.Equal(t, out, again, "rendering is not stable")
}

func TestOrgRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "sample document", input: sampleOrg},
		{name: "empty", input: ""},
		{name: "headings only", input: "* A\n** B\n*** C\n* D\n**** E"},
		{name: "heading edge cases", input: "* TODO\n* DONE TODO\n* [#B]\n* TODO [#C]\n* :notags:\n* "},
		{name: "heading scenario", input: "* Heading 1\nSome text.\n** Heading 1.1\nMore.\n* Heading 2\nOther."},
		{name: "list scenario", input: "- Item 1\n- Item 2\n  - Nested\n- Item 3"},
		{name: "irregular indentation", input: "   - a\n - b\n       - c\n     - d\n - e"},
		{name: "star bullets", input: "  * one\n  * two\n    + inner"},
		{name: "adjacent lists", input: "- a\n\n\n- b\n\n1. c"},
		{name: "empty items", input: "- \n- [ ]\n- term ::\n10. ten\n    more"},
		{name: "table scenario", input: "| A | B |\n|---+---|\n| 1 | 2 |"},
		{name: "table without header", input: "| x |\n| y | z |\n|  |"},
		{name: "two header rows", input: "| a |\n|---|\n| b |\n|---|\n| c |"},
		{name: "empty blocks", input: "#+BEGIN_SRC\n#+END_SRC\n#+BEGIN_EXAMPLE\n\n#+END_EXAMPLE"},
		{name: "drawers", input: ":PROPERTIES:\n:EMPTY:\n:END:\n:NOTES:\n:END:\n* H\n:DRAWER:\nsome *text*\n\n| t |\n:END:"},
		{name: "comments", input: "#\n#  indented\n# plain"},
		{name: "footnotes", input: "[fn:a]\n\n[fn:b] text [fn:a]"},
		{name: "bracket link with url description", input: "[[https://x.org][https://x.org]] [[file:a.org]]"},
		{name: "unterminated drawer", input: ":OPEN:\ntext"},
		{name: "separator lines only", input: "|---+---|\n|-|\ntext"},
		{name: "row starting with a dash", input: "|-5|x|"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, tt.input, parser.DefaultOptions())
		})
	}
}

func TestOrgRoundTripStrict(t *testing.T) {
	opts := parser.DefaultOptions()
	opts.Strict = true
	roundTrip(t, "- a\n1. b\n- c\n  - d\n  1. e\n- [-] f", opts)
	roundTrip(t, "1. o\n    + c\n  2) p", opts)
}

func TestOrgRenderShape(t *testing.T) {
	doc, err := parser.Parse("#+title: T\n* TODO [#A] Task :x:\n- [X] done\n  more\n  - sub")
	require.NoError(t, err)

	out, err := NewOrg().Render(doc)
	require.NoError(t, err)
	assert.Equal(t, "#+title: T\n\n* TODO [#A] Task :x:\n\n- [X] done\n  more\n  - sub\n", out)
}

func TestRenderRejectsNonDocument(t *testing.T) {
	for _, r := range []Renderer{NewOrg(), NewHTML(HTMLOptions{}), NewMarkdown(MarkdownOptions{})} {
		_, err := r.Render(ast.NewNode(ast.Paragraph))
		assert.ErrorIs(t, err, ErrNotDocument)
		_, err = r.Render(nil)
		assert.ErrorIs(t, err, ErrNotDocument)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
		ext   string
	}{
		{"html", FormatHTML, ".html"},
		{"Markdown", FormatMarkdown, ".md"},
		{" md ", FormatMarkdown, ".md"},
		{"org", FormatOrg, ".org"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f)
			assert.Equal(t, tt.ext, f.Ext())
		})
	}

	_, err := ParseFormat("pdf")
	assert.Error(t, err)

	assert.IsType(t, &OrgRenderer{}, New(Format("unknown"), Options{}))
	assert.IsType(t, &HTMLRenderer{}, New(FormatHTML, Options{}))
}
