package parser

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gerunddev/orgtree/ast"
)

// flat renders segmenter output as kind:text pairs.
func flat(nodes []*ast.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, fmt.Sprintf("%s:%s", n.Kind, n.TextContent()))
	}
	return out
}

func TestSegment(t *testing.T) {
	p, err := New(DefaultOptions())
	require.NoError(t, err)
	ctx := &Context{Options: p.opts, Logger: discardLogger()}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "bold in the middle",
			input: "plain *bold* plain",
			want:  []string{"Text:plain ", "Bold:bold", "Text: plain"},
		},
		{
			name:  "unterminated",
			input: "*unterminated",
			want:  []string{"Text:*unterminated"},
		},
		{
			name:  "every emphasis kind",
			input: "/it/ _u_ +s+ ~c~ =v=",
			want: []string{
				"Italic:it", "Text: ", "Underline:u", "Text: ", "Strikethrough:s",
				"Text: ", "Code:c", "Text: ", "Verbatim:v",
			},
		},
		{
			name:  "delimiter inside a word",
			input: "2*3*4",
			want:  []string{"Text:2*3*4"},
		},
		{
			name:  "opening delimiter after a letter",
			input: "x*y*",
			want:  []string{"Text:x*y*"},
		},
		{
			name:  "doubled delimiters",
			input: "**x**",
			want:  []string{"Text:**x**"},
		},
		{
			name:  "whitespace inside delimiters",
			input: "* spaced *",
			want:  []string{"Text:* spaced *"},
		},
		{
			name:  "adjacent spans",
			input: "*a* *b*",
			want:  []string{"Bold:a", "Text: ", "Bold:b"},
		},
		{
			name:  "no nesting across kinds",
			input: "*bold with ~code~*",
			want:  []string{"Bold:bold with ~code~"},
		},
		{
			name:  "verbatim shields later kinds only",
			input: "=a*b*c=",
			want:  []string{"Verbatim:a*b*c"},
		},
		{
			name:  "closing punctuation",
			input: "(*yes*), ok",
			want:  []string{"Text:(", "Bold:yes", "Text:), ok"},
		},
		{
			name:  "described link",
			input: "go [[https://go.dev][the site]] now",
			want:  []string{"Text:go ", "Link:the site", "Text: now"},
		},
		{
			name:  "bare link drops trailing period",
			input: "see https://go.dev.",
			want:  []string{"Text:see ", "Link:https://go.dev", "Text:."},
		},
		{
			name:  "emphasis does not split links",
			input: "[[https://x.org/a_b_c][*x*]]",
			want:  []string{"Link:*x*"},
		},
		{
			name:  "timestamps",
			input: "<2024-01-15 Mon> and [2024-01-16]",
			want:  []string{"Timestamp:2024-01-15 Mon", "Text: and ", "Timestamp:2024-01-16"},
		},
		{
			name:  "multi-line paragraph",
			input: "first *line\nsecond* line",
			want:  []string{"Text:first *line\nsecond* line"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flat(p.segment(tt.input, ctx)))
		})
	}
}

func TestLinkData(t *testing.T) {
	p, err := New(DefaultOptions())
	require.NoError(t, err)
	ctx := &Context{Options: p.opts, Logger: discardLogger()}

	nodes := p.segment("[[file:notes.org]] https://example.com/x", ctx)
	require.Len(t, nodes, 3)

	assert.Equal(t, "file:notes.org", nodes[0].URL)
	assert.Equal(t, "file:notes.org", nodes[0].Description)
	assert.False(t, nodes[0].Bare)

	assert.Equal(t, "https://example.com/x", nodes[2].URL)
	assert.True(t, nodes[2].Bare)

	ts := p.segment("<2024-01-15>", ctx)
	require.Len(t, ts, 1)
	assert.True(t, ts[0].Active)
}

func TestLinksDisabledKeepsEmphasis(t *testing.T) {
	opts := DefaultOptions()
	opts.ParseLinks = false
	p, err := New(opts)
	require.NoError(t, err)

	got := flat(p.segment("[[x][y]] *b*", &Context{Options: opts, Logger: discardLogger()}))
	assert.Equal(t, []string{"Text:[[x][y]] ", "Bold:b"}, got)
}
