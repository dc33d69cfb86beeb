package render

import (
	"sort"
	"strings"

	"github.com/gerunddev/orgtree/ast"
)

// OrgRenderer writes a tree back as org text. Parsing its output with
// the options that produced the tree yields an equal tree; source
// positions and whitespace that carries no structure are not preserved.
type OrgRenderer struct{}

func NewOrg() *OrgRenderer {
	return &OrgRenderer{}
}

func (r *OrgRenderer) Render(doc *ast.Node) (string, error) {
	if err := checkRoot(doc); err != nil {
		return "", err
	}

	var blocks []string
	if len(doc.Properties) > 0 {
		keys := make([]string, 0, len(doc.Properties))
		for k := range doc.Properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(keywordLine(k, doc.Properties[k]))
		}
		blocks = append(blocks, b.String())
	}
	blocks = append(blocks, r.blocks(doc.Children)...)

	return strings.Join(blocks, "\n\n") + "\n", nil
}

func keywordLine(key, value string) string {
	if value == "" {
		return "#+" + key + ":"
	}
	return "#+" + key + ": " + value
}

// blocks renders each child block. Two adjacent lists are kept apart by
// an extra blank line so they do not merge into one.
func (r *OrgRenderer) blocks(nodes []*ast.Node) []string {
	var out []string
	for i, n := range nodes {
		s := r.block(n)
		if s == "" {
			continue
		}
		if i > 0 && n.Kind == ast.List && nodes[i-1].Kind == ast.List {
			s = "\n" + s
		}
		out = append(out, s)
	}
	return out
}

func (r *OrgRenderer) block(n *ast.Node) string {
	switch n.Kind {
	case ast.Heading:
		return r.heading(n)
	case ast.Paragraph:
		return orgInline(n.Children)
	case ast.List:
		indent := 0
		for _, it := range n.Children {
			if it.Bullet == "*" {
				indent = 1
			}
		}
		var b strings.Builder
		r.list(&b, n, indent)
		return strings.TrimRight(b.String(), "\n")
	case ast.Table:
		return r.table(n)
	case ast.CodeBlock:
		head := "#+BEGIN_" + n.BlockType
		for _, arg := range []string{n.Language, n.Params} {
			if arg != "" {
				head += " " + arg
			}
		}
		body := ""
		if n.Value != "" {
			body = n.Value + "\n"
		}
		return head + "\n" + body + "#+END_" + n.BlockType
	case ast.HorizontalRule:
		return "-----"
	case ast.Comment:
		if n.Value == "" {
			return "#"
		}
		return "# " + n.Value
	case ast.Drawer:
		return r.drawer(n)
	case ast.Footnote:
		s := "[fn:" + n.Label + "]"
		if body := r.blocks(n.Children); len(body) > 0 {
			s += " " + strings.Join(body, "\n")
		}
		return s
	}
	return orgInline([]*ast.Node{n})
}

func (r *OrgRenderer) heading(h *ast.Node) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("*", h.Level))
	b.WriteByte(' ')

	var parts []string
	if h.TodoKeyword != "" {
		parts = append(parts, h.TodoKeyword)
	}
	if h.Priority != "" {
		parts = append(parts, "[#"+h.Priority+"]")
	}
	if t := orgInline(h.Inline); t != "" {
		parts = append(parts, t)
	}
	if len(h.Tags) > 0 {
		parts = append(parts, ":"+strings.Join(h.Tags, ":")+":")
	}
	b.WriteString(strings.Join(parts, " "))

	if body := r.blocks(h.Children); len(body) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(body, "\n\n"))
	}
	return b.String()
}

func (r *OrgRenderer) list(b *strings.Builder, list *ast.Node, indent int) {
	pad := strings.Repeat(" ", indent)
	for _, it := range list.Children {
		b.WriteString(pad)
		b.WriteString(it.Bullet)
		b.WriteByte(' ')

		switch it.Checkbox {
		case ast.Unchecked:
			b.WriteString("[ ] ")
		case ast.Checked:
			b.WriteString("[X] ")
		case ast.Partial:
			b.WriteString("[-] ")
		}

		text := orgInline(it.Inline)
		if it.Term != "" {
			if text == "" {
				text = it.Term + " ::"
			} else {
				text = it.Term + " :: " + text
			}
		}
		cont := "\n" + pad + "  "
		b.WriteString(strings.ReplaceAll(text, "\n", cont))
		b.WriteByte('\n')

		for _, c := range it.Children {
			if c.Kind == ast.List {
				r.list(b, c, indent+2)
			}
		}
	}
}

func (r *OrgRenderer) table(t *ast.Node) string {
	var rows []string
	for _, row := range t.Children {
		cells := make([]string, 0, len(row.Children))
		for _, c := range row.Children {
			cells = append(cells, orgInline(c.Children))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if row.IsHeader {
			seps := make([]string, len(cells))
			for i, c := range cells {
				seps[i] = strings.Repeat("-", max(len(c), 1)+2)
			}
			rows = append(rows, "|"+strings.Join(seps, "+")+"|")
		}
	}
	return strings.Join(rows, "\n")
}

func (r *OrgRenderer) drawer(d *ast.Node) string {
	lines := []string{":" + d.Name + ":"}
	for _, p := range d.Entries {
		if p.Value == "" {
			lines = append(lines, ":"+p.Key+":")
		} else {
			lines = append(lines, ":"+p.Key+": "+p.Value)
		}
	}
	if body := r.blocks(d.Children); len(body) > 0 {
		lines = append(lines, strings.Join(body, "\n\n"))
	}
	lines = append(lines, ":END:")
	return strings.Join(lines, "\n")
}

// orgInline writes inline nodes back in the markup that produced them.
func orgInline(nodes []*ast.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeOrgInline(&b, n)
	}
	return b.String()
}

func writeOrgInline(b *strings.Builder, n *ast.Node) {
	wrap := func(delim string) {
		b.WriteString(delim)
		b.WriteString(orgInline(n.Children))
		b.WriteString(delim)
	}

	switch n.Kind {
	case ast.Text:
		b.WriteString(n.Value)
	case ast.Bold:
		wrap("*")
	case ast.Italic:
		wrap("/")
	case ast.Underline:
		wrap("_")
	case ast.Strikethrough:
		wrap("+")
	case ast.Code:
		b.WriteString("~" + n.Value + "~")
	case ast.Verbatim:
		b.WriteString("=" + n.Value + "=")
	case ast.Link:
		switch {
		case n.Bare:
			b.WriteString(n.URL)
		case n.Description == "" || n.Description == n.URL:
			b.WriteString("[[" + n.URL + "]]")
		default:
			b.WriteString("[[" + n.URL + "][" + n.Description + "]]")
		}
	case ast.FootnoteRef:
		b.WriteString("[fn:" + n.Value + "]")
	case ast.Timestamp:
		if n.Active {
			b.WriteString("<" + n.Value + ">")
		} else {
			b.WriteString("[" + n.Value + "]")
		}
	default:
		b.WriteString(n.TextContent())
	}
}
