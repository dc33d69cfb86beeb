package render

import (
	"fmt"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shurcooL/sanitized_anchor_name"
	"golang.org/x/net/html"

	"github.com/gerunddev/orgtree/ast"
)

// HTMLOptions controls HTML output.
type HTMLOptions struct {
	// HeadingIDs adds an id anchor derived from the title to each heading.
	HeadingIDs bool
	// Highlight colors source blocks whose language chroma knows.
	Highlight bool
	// HighlightStyle is a chroma style name. Defaults to monokai.
	HighlightStyle string
	// Sanitize passes the body through a user-generated-content policy.
	Sanitize bool
	// Standalone wraps the body in a complete page.
	Standalone bool
}

type HTMLRenderer struct {
	opts      HTMLOptions
	formatter *chromahtml.Formatter
	style     *chroma.Style
	policy    *bluemonday.Policy
}

func NewHTML(opts HTMLOptions) *HTMLRenderer {
	r := &HTMLRenderer{opts: opts}
	if opts.Highlight {
		r.formatter = chromahtml.New(chromahtml.WithClasses(true))
		name := opts.HighlightStyle
		if name == "" {
			name = "monokai"
		}
		r.style = styles.Get(name)
	}
	if opts.Sanitize {
		r.policy = bluemonday.UGCPolicy()
		r.policy.AllowAttrs("class").Globally()
	}
	return r
}

// htmlState is the per-render state. Renderers are reused across
// documents.
type htmlState struct {
	b    strings.Builder
	done map[string]bool
	ids  map[string]int
}

func (r *HTMLRenderer) Render(doc *ast.Node) (string, error) {
	if err := checkRoot(doc); err != nil {
		return "", err
	}

	st := &htmlState{done: doneKeywords(doc), ids: make(map[string]int)}
	if err := r.blocks(st, doc.Children); err != nil {
		return "", err
	}
	if err := r.footnotes(st, doc); err != nil {
		return "", err
	}

	body := st.b.String()
	if r.policy != nil {
		body = r.policy.Sanitize(body)
	}
	if !r.opts.Standalone {
		return body, nil
	}
	return r.page(title(doc), body)
}

func (r *HTMLRenderer) page(t, body string) (string, error) {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	if t != "" {
		fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(t))
	}
	if r.formatter != nil {
		b.WriteString("<style>\n")
		if err := r.formatter.WriteCSS(&b, r.style); err != nil {
			return "", fmt.Errorf("failed to write highlight css: %w", err)
		}
		b.WriteString("</style>\n")
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func (r *HTMLRenderer) blocks(st *htmlState, nodes []*ast.Node) error {
	for _, n := range nodes {
		if err := r.block(st, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *HTMLRenderer) block(st *htmlState, n *ast.Node) error {
	b := &st.b
	switch n.Kind {
	case ast.Heading:
		r.heading(st, n)
		return r.blocks(st, n.Children)
	case ast.Paragraph:
		b.WriteString("<p>")
		htmlInline(b, n.Children)
		b.WriteString("</p>\n")
	case ast.List:
		return r.list(st, n)
	case ast.Table:
		htmlTable(b, n)
	case ast.CodeBlock:
		return r.codeBlock(b, n)
	case ast.HorizontalRule:
		b.WriteString("<hr>\n")
	case ast.Comment, ast.Drawer, ast.Footnote:
		// Drawers and comments are not exported; footnotes go last.
	default:
		htmlInline(b, []*ast.Node{n})
	}
	return nil
}

func (r *HTMLRenderer) heading(st *htmlState, h *ast.Node) {
	b := &st.b
	level := min(h.Level, 6)
	fmt.Fprintf(b, "<h%d", level)
	if r.opts.HeadingIDs {
		fmt.Fprintf(b, " id=\"%s\"", html.EscapeString(st.anchor(h)))
	}
	b.WriteByte('>')

	if h.TodoKeyword != "" {
		class := "todo"
		if st.done[h.TodoKeyword] {
			class = "done"
		}
		fmt.Fprintf(b, "<span class=\"%s %s\">%s</span> ", class, html.EscapeString(h.TodoKeyword), html.EscapeString(h.TodoKeyword))
	}
	if h.Priority != "" {
		fmt.Fprintf(b, "<span class=\"priority\">[%s]</span> ", html.EscapeString(h.Priority))
	}
	htmlInline(b, h.Inline)
	if len(h.Tags) > 0 {
		b.WriteString(" <span class=\"tags\">")
		for _, tag := range h.Tags {
			fmt.Fprintf(b, "<span class=\"tag\">%s</span>", html.EscapeString(tag))
		}
		b.WriteString("</span>")
	}
	fmt.Fprintf(b, "</h%d>\n", level)
}

// anchor returns a unique id for h within the document.
func (st *htmlState) anchor(h *ast.Node) string {
	var text strings.Builder
	for _, n := range h.Inline {
		text.WriteString(n.TextContent())
	}
	id := sanitized_anchor_name.Create(text.String())
	if id == "" {
		id = "section"
	}
	n := st.ids[id]
	st.ids[id]++
	if n > 0 {
		return fmt.Sprintf("%s-%d", id, n)
	}
	return id
}

func (r *HTMLRenderer) list(st *htmlState, l *ast.Node) error {
	b := &st.b
	tag := "ul"
	switch l.ListType {
	case ast.Ordered:
		tag = "ol"
	case ast.Descriptive:
		tag = "dl"
	}
	fmt.Fprintf(b, "<%s>\n", tag)

	for _, it := range l.Children {
		if l.ListType == ast.Descriptive {
			b.WriteString("<dt>")
			b.WriteString(html.EscapeString(it.Term))
			b.WriteString("</dt><dd>")
		} else {
			switch it.Checkbox {
			case ast.Unchecked:
				b.WriteString("<li class=\"off\"><code>[ ]</code> ")
			case ast.Checked:
				b.WriteString("<li class=\"on\"><code>[X]</code> ")
			case ast.Partial:
				b.WriteString("<li class=\"trans\"><code>[-]</code> ")
			default:
				b.WriteString("<li>")
			}
		}

		htmlInline(b, it.Inline)
		if len(it.Children) > 0 {
			b.WriteByte('\n')
			if err := r.blocks(st, it.Children); err != nil {
				return err
			}
		}

		if l.ListType == ast.Descriptive {
			b.WriteString("</dd>\n")
		} else {
			b.WriteString("</li>\n")
		}
	}

	fmt.Fprintf(b, "</%s>\n", tag)
	return nil
}

func htmlTable(b *strings.Builder, t *ast.Node) {
	b.WriteString("<table>\n")
	inHead := len(t.Children) > 0 && t.Children[0].IsHeader
	if inHead {
		b.WriteString("<thead>\n")
	} else {
		b.WriteString("<tbody>\n")
	}

	for _, row := range t.Children {
		if inHead && !row.IsHeader {
			b.WriteString("</thead>\n<tbody>\n")
			inHead = false
		}
		b.WriteString("<tr>")
		for _, c := range row.Children {
			tag := "td"
			if c.IsHeader {
				tag = "th"
			}
			fmt.Fprintf(b, "<%s>", tag)
			htmlInline(b, c.Children)
			fmt.Fprintf(b, "</%s>", tag)
		}
		b.WriteString("</tr>\n")
	}

	if inHead {
		b.WriteString("</thead>\n")
	} else {
		b.WriteString("</tbody>\n")
	}
	b.WriteString("</table>\n")
}

func (r *HTMLRenderer) codeBlock(b *strings.Builder, n *ast.Node) error {
	if n.BlockType == "EXAMPLE" {
		fmt.Fprintf(b, "<pre class=\"example\">%s\n</pre>\n", html.EscapeString(n.Value))
		return nil
	}

	if r.formatter != nil && n.Language != "" {
		if lexer := lexers.Get(n.Language); lexer != nil {
			it, err := chroma.Coalesce(lexer).Tokenise(nil, n.Value+"\n")
			if err != nil {
				return fmt.Errorf("failed to tokenise %s block: %w", n.Language, err)
			}
			if err := r.formatter.Format(b, r.style, it); err != nil {
				return fmt.Errorf("failed to highlight %s block: %w", n.Language, err)
			}
			b.WriteByte('\n')
			return nil
		}
	}

	b.WriteString("<pre><code")
	if n.Language != "" {
		fmt.Fprintf(b, " class=\"language-%s\"", html.EscapeString(n.Language))
	}
	fmt.Fprintf(b, ">%s\n</code></pre>\n", html.EscapeString(n.Value))
	return nil
}

func (r *HTMLRenderer) footnotes(st *htmlState, doc *ast.Node) error {
	fns := footnotes(doc)
	if len(fns) == 0 {
		return nil
	}
	b := &st.b
	b.WriteString("<div class=\"footnotes\">\n<h2>Footnotes</h2>\n")
	for _, fn := range fns {
		label := html.EscapeString(fn.Label)
		fmt.Fprintf(b, "<div class=\"footdef\"><sup><a id=\"fn.%s\" href=\"#fnr.%s\">%s</a></sup>\n", label, label, label)
		if err := r.blocks(st, fn.Children); err != nil {
			return err
		}
		b.WriteString("</div>\n")
	}
	b.WriteString("</div>\n")
	return nil
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".webp": true,
}

// linkTarget maps an org link to an href. Links to other org files point
// at their exported page.
func linkTarget(url string) string {
	if p, ok := strings.CutPrefix(url, "file:"); ok {
		if path.Ext(p) == ".org" {
			return strings.TrimSuffix(p, ".org") + ".html"
		}
		return p
	}
	return url
}

func htmlInline(b *strings.Builder, nodes []*ast.Node) {
	for _, n := range nodes {
		wrap := func(tag string) {
			fmt.Fprintf(b, "<%s>", tag)
			htmlInline(b, n.Children)
			fmt.Fprintf(b, "</%s>", tag)
		}

		switch n.Kind {
		case ast.Text:
			b.WriteString(html.EscapeString(n.Value))
		case ast.Bold:
			wrap("strong")
		case ast.Italic:
			wrap("em")
		case ast.Underline:
			wrap("u")
		case ast.Strikethrough:
			wrap("del")
		case ast.Code, ast.Verbatim:
			fmt.Fprintf(b, "<code>%s</code>", html.EscapeString(n.Value))
		case ast.Link:
			href := html.EscapeString(linkTarget(n.URL))
			if imageExts[strings.ToLower(path.Ext(n.URL))] && (n.Bare || n.Description == n.URL) {
				fmt.Fprintf(b, "<img src=\"%s\" alt=\"%s\">", href, html.EscapeString(path.Base(linkTarget(n.URL))))
				continue
			}
			fmt.Fprintf(b, "<a href=\"%s\">", href)
			htmlInline(b, n.Children)
			b.WriteString("</a>")
		case ast.FootnoteRef:
			label := html.EscapeString(n.Value)
			fmt.Fprintf(b, "<sup><a id=\"fnr.%s\" href=\"#fn.%s\">%s</a></sup>", label, label, label)
		case ast.Timestamp:
			ts := "[" + n.Value + "]"
			if n.Active {
				ts = "<" + n.Value + ">"
			}
			fmt.Fprintf(b, "<span class=\"timestamp\">%s</span>", html.EscapeString(ts))
		default:
			b.WriteString(html.EscapeString(n.TextContent()))
		}
	}
}
