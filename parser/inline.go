package parser

import (
	"regexp"
	"strings"

	"github.com/gerunddev/orgtree/ast"
)

var (
	bracketLinkRe = regexp.MustCompile(`\[\[([^\[\]\n]+)\](?:\[([^\[\]\n]+)\])?\]`)
	bareLinkRe    = regexp.MustCompile(`\b(?:https?|ftp)://[^\s<>\[\]"]+`)
	footnoteRefRe = regexp.MustCompile(`\[fn:([\w-]+)\]`)
	timestampRe   = regexp.MustCompile(`<\d{4}-\d{2}-\d{2}(?: [^<>\[\]\n]*)?>|\[\d{4}-\d{2}-\d{2}(?: [^<>\[\]\n]*)?\]`)
)

// markup is one emphasis pass: a delimiter character and the kind of node
// it produces.
type markup struct {
	delim byte
	kind  ast.Kind
}

// markups lists the emphasis passes in the order they run.
var markups = []markup{
	{'*', ast.Bold},
	{'/', ast.Italic},
	{'_', ast.Underline},
	{'+', ast.Strikethrough},
	{'~', ast.Code},
	{'=', ast.Verbatim},
}

// span is a claimed byte range of a Text value and its replacement.
type span struct {
	start, end int
	node       *ast.Node
}

type finder func(s string) []span

// segment splits text into inline nodes. Each pass only looks at the Text
// nodes left by the passes before it.
func (p *Parser) segment(text string, ctx *Context) []*ast.Node {
	nodes := []*ast.Node{ast.NewText(text)}

	for _, tk := range p.tokenizers {
		nodes = splitText(nodes, tokenizerFinder(tk, ctx))
	}
	if p.opts.ParseLinks {
		nodes = splitText(nodes, findBracketLinks)
		nodes = splitText(nodes, findBareLinks)
	}
	if p.opts.ParseInlineFormatting {
		nodes = splitText(nodes, findFootnoteRefs)
		nodes = splitText(nodes, findTimestamps)
		for _, m := range markups {
			nodes = splitText(nodes, m.find)
		}
	}
	return nodes
}

// splitText replaces every Text node that find claims spans in with the
// surrounding text and the span nodes. Other nodes pass through.
func splitText(nodes []*ast.Node, find finder) []*ast.Node {
	out := make([]*ast.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != ast.Text {
			out = append(out, n)
			continue
		}
		spans := find(n.Value)
		if len(spans) == 0 {
			out = append(out, n)
			continue
		}
		last := 0
		for _, sp := range spans {
			if sp.start > last {
				out = append(out, ast.NewText(n.Value[last:sp.start]))
			}
			out = append(out, sp.node)
			last = sp.end
		}
		if last < len(n.Value) {
			out = append(out, ast.NewText(n.Value[last:]))
		}
	}
	return out
}

func tokenizerFinder(tk Tokenizer, ctx *Context) finder {
	return func(s string) []span {
		var spans []span
		for _, loc := range tk.Pattern.FindAllStringIndex(s, -1) {
			if loc[0] == loc[1] {
				continue
			}
			if n := tk.Process(s[loc[0]:loc[1]], ctx); n != nil {
				spans = append(spans, span{loc[0], loc[1], n})
			}
		}
		return spans
	}
}

func findBracketLinks(s string) []span {
	var spans []span
	for _, m := range bracketLinkRe.FindAllStringSubmatchIndex(s, -1) {
		url := s[m[2]:m[3]]
		desc := url
		if m[4] >= 0 {
			desc = s[m[4]:m[5]]
		}
		spans = append(spans, span{m[0], m[1], newLink(url, desc, false)})
	}
	return spans
}

func findBareLinks(s string) []span {
	var spans []span
	for _, loc := range bareLinkRe.FindAllStringIndex(s, -1) {
		url := strings.TrimRight(s[loc[0]:loc[1]], ".,;:!?')")
		spans = append(spans, span{loc[0], loc[0] + len(url), newLink(url, url, true)})
	}
	return spans
}

func newLink(url, desc string, bare bool) *ast.Node {
	l := ast.NewNode(ast.Link)
	l.URL = url
	l.Description = desc
	l.Bare = bare
	l.AppendChild(ast.NewText(desc))
	return l
}

func findFootnoteRefs(s string) []span {
	var spans []span
	for _, m := range footnoteRefRe.FindAllStringSubmatchIndex(s, -1) {
		spans = append(spans, span{m[0], m[1], ast.NewLeaf(ast.FootnoteRef, s[m[2]:m[3]])})
	}
	return spans
}

func findTimestamps(s string) []span {
	var spans []span
	for _, loc := range timestampRe.FindAllStringIndex(s, -1) {
		ts := ast.NewLeaf(ast.Timestamp, s[loc[0]+1:loc[1]-1])
		ts.Active = s[loc[0]] == '<'
		spans = append(spans, span{loc[0], loc[1], ts})
	}
	return spans
}

// find claims delimiter pairs. The content is non-empty, holds neither
// the delimiter nor a newline, and does not start or end with whitespace.
// The opening delimiter follows start of text, whitespace or opening
// punctuation; the closing one precedes end of text, whitespace or
// closing punctuation. Unmatched delimiters stay literal.
func (m markup) find(s string) []span {
	var spans []span
	for i := 0; i < len(s); i++ {
		if s[i] != m.delim || !opensAt(s, i) {
			continue
		}
		if i+1 >= len(s) || isSpace(s[i+1]) || s[i+1] == m.delim {
			continue
		}
		j := strings.IndexAny(s[i+1:], string(m.delim)+"\n")
		if j < 0 {
			break
		}
		j += i + 1
		if s[j] == '\n' {
			i = j
			continue
		}
		if isSpace(s[j-1]) || !closesAt(s, j) {
			continue
		}
		spans = append(spans, span{i, j + 1, m.node(s[i+1 : j])})
		i = j
	}
	return spans
}

func (m markup) node(content string) *ast.Node {
	if m.kind == ast.Code || m.kind == ast.Verbatim {
		return ast.NewLeaf(m.kind, content)
	}
	n := ast.NewNode(m.kind)
	n.AppendChild(ast.NewText(content))
	return n
}

func opensAt(s string, i int) bool {
	return i == 0 || strings.IndexByte(" \t\n-({'\"", s[i-1]) >= 0
}

func closesAt(s string, j int) bool {
	return j+1 == len(s) || strings.IndexByte(" \t\n-.,;:!?')}\"", s[j+1]) >= 0
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}
