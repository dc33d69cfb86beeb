package render

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gerunddev/orgtree/ast"
)

// MarkdownOptions controls Markdown output.
type MarkdownOptions struct {
	// IDMap resolves id: link targets to note names for wikilinks.
	// Unknown ids are used as the name.
	IDMap map[string]string
}

// MarkdownRenderer writes GitHub flavored Markdown with Obsidian style
// wikilinks, embeds and task headings.
type MarkdownRenderer struct {
	opts MarkdownOptions
}

func NewMarkdown(opts MarkdownOptions) *MarkdownRenderer {
	return &MarkdownRenderer{opts: opts}
}

// frontMatter is the YAML header. Known keys come first in a fixed order,
// everything else follows sorted.
type frontMatter struct {
	ID      string            `yaml:"id,omitempty"`
	Title   string            `yaml:"title,omitempty"`
	Author  string            `yaml:"author,omitempty"`
	Date    string            `yaml:"date,omitempty"`
	Aliases []string          `yaml:"aliases,omitempty"`
	Tags    []string          `yaml:"tags,omitempty"`
	Refs    []string          `yaml:"refs,omitempty"`
	Extra   map[string]string `yaml:",inline"`
}

var quotedRe = regexp.MustCompile(`"([^"]+)"`)

// parseAliases reads `"alias one" "alias two"`, or bare words.
func parseAliases(s string) []string {
	var aliases []string
	for _, m := range quotedRe.FindAllStringSubmatch(s, -1) {
		aliases = append(aliases, m[1])
	}
	if len(aliases) == 0 {
		return strings.Fields(s)
	}
	return aliases
}

// parseTags reads :tag1:tag2: or space separated tags.
func parseTags(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == ' ' })
}

func buildFrontMatter(doc *ast.Node) frontMatter {
	fm := frontMatter{Extra: make(map[string]string)}
	for k, v := range doc.Properties {
		switch k {
		case "title":
			fm.Title = v
		case "author":
			fm.Author = v
		case "date":
			fm.Date = v
		case "filetags":
			fm.Tags = parseTags(v)
		case "todo", "seq_todo", "typ_todo":
		default:
			fm.Extra[k] = v
		}
	}

	if d := fileProperties(doc); d != nil {
		for _, p := range d.Entries {
			switch strings.ToUpper(p.Key) {
			case "ID":
				fm.ID = p.Value
			case "ROAM_ALIASES":
				fm.Aliases = parseAliases(p.Value)
			case "ROAM_REFS":
				fm.Refs = strings.Fields(p.Value)
			default:
				fm.Extra[strings.ToLower(p.Key)] = p.Value
			}
		}
	}
	return fm
}

func (r *MarkdownRenderer) Render(doc *ast.Node) (string, error) {
	if err := checkRoot(doc); err != nil {
		return "", err
	}

	var md strings.Builder
	fm := buildFrontMatter(doc)
	out, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("failed to marshal front matter: %w", err)
	}
	if s := string(out); s != "{}\n" {
		md.WriteString("---\n")
		md.WriteString(s)
		md.WriteString("---\n\n")
	}

	done := doneKeywords(doc)
	md.WriteString(strings.Join(r.blocks(doc.Children, done), "\n\n"))
	return strings.TrimSpace(md.String()) + "\n", nil
}

func (r *MarkdownRenderer) blocks(nodes []*ast.Node, done map[string]bool) []string {
	var out []string
	for _, n := range nodes {
		if s := r.block(n, done); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *MarkdownRenderer) block(n *ast.Node, done map[string]bool) string {
	switch n.Kind {
	case ast.Heading:
		return r.heading(n, done)
	case ast.Paragraph:
		return r.inline(n.Children)
	case ast.List:
		return r.list(n, done)
	case ast.Table:
		return r.table(n)
	case ast.CodeBlock:
		lang := n.Language
		if n.BlockType == "EXAMPLE" {
			lang = ""
		}
		return "```" + lang + "\n" + n.Value + "\n```"
	case ast.HorizontalRule:
		return "---"
	case ast.Footnote:
		return "[^" + n.Label + "]: " + strings.Join(r.blocks(n.Children, done), "\n")
	case ast.Comment, ast.Drawer:
		return ""
	}
	return r.inline([]*ast.Node{n})
}

// heading writes TODO headings as task checkboxes with the priority on
// the following line.
func (r *MarkdownRenderer) heading(h *ast.Node, done map[string]bool) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("#", min(h.Level, 6)))
	b.WriteByte(' ')

	if h.TodoKeyword != "" {
		if done[h.TodoKeyword] {
			b.WriteString("- [x] ")
		} else {
			b.WriteString("- [ ] ")
		}
	}
	b.WriteString(r.inline(h.Inline))
	for _, tag := range h.Tags {
		b.WriteString(" #" + tag)
	}

	if h.TodoKeyword != "" && h.Priority != "" {
		level := "medium"
		switch h.Priority {
		case "A":
			level = "high"
		case "C":
			level = "low"
		}
		b.WriteString("\nPriority: " + level)
	}

	if body := r.blocks(h.Children, done); len(body) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(body, "\n\n"))
	}
	return b.String()
}

func (r *MarkdownRenderer) list(l *ast.Node, done map[string]bool) string {
	var lines []string
	for i, it := range l.Children {
		marker := "-"
		if l.ListType == ast.Ordered {
			marker = fmt.Sprintf("%d.", i+1)
		}
		pad := strings.Repeat(" ", len(marker)+1)

		text := r.inline(it.Inline)
		switch it.Checkbox {
		case ast.Unchecked, ast.Partial:
			text = "[ ] " + text
		case ast.Checked:
			text = "[x] " + text
		}
		if it.Term != "" {
			text = "**" + it.Term + "**: " + text
		}
		lines = append(lines, marker+" "+strings.ReplaceAll(text, "\n", "\n"+pad))

		for _, c := range r.blocks(it.Children, done) {
			lines = append(lines, pad+strings.ReplaceAll(c, "\n", "\n"+pad))
		}
	}
	return strings.Join(lines, "\n")
}

// table writes a GFM table. GFM needs a header, so the first row is used
// when the table has none.
func (r *MarkdownRenderer) table(t *ast.Node) string {
	var rows []string
	for i, row := range t.Children {
		cells := make([]string, 0, len(row.Children))
		for _, c := range row.Children {
			cells = append(cells, strings.ReplaceAll(r.inline(c.Children), "|", `\|`))
		}
		rows = append(rows, "| "+strings.Join(cells, " | ")+" |")
		if i == 0 {
			seps := make([]string, len(cells))
			for j := range seps {
				seps[j] = "---"
			}
			rows = append(rows, "| "+strings.Join(seps, " | ")+" |")
		}
	}
	return strings.Join(rows, "\n")
}

func (r *MarkdownRenderer) inline(nodes []*ast.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		r.writeInline(&b, n)
	}
	return b.String()
}

func (r *MarkdownRenderer) writeInline(b *strings.Builder, n *ast.Node) {
	wrap := func(pre, post string) {
		b.WriteString(pre)
		b.WriteString(r.inline(n.Children))
		b.WriteString(post)
	}

	switch n.Kind {
	case ast.Text:
		b.WriteString(n.Value)
	case ast.Bold:
		wrap("**", "**")
	case ast.Italic:
		wrap("*", "*")
	case ast.Underline:
		wrap("<u>", "</u>")
	case ast.Strikethrough:
		wrap("~~", "~~")
	case ast.Code, ast.Verbatim:
		if strings.Contains(n.Value, "`") {
			b.WriteString("`` " + n.Value + " ``")
		} else {
			b.WriteString("`" + n.Value + "`")
		}
	case ast.Link:
		b.WriteString(r.link(n))
	case ast.FootnoteRef:
		b.WriteString("[^" + n.Value + "]")
	case ast.Timestamp:
		b.WriteString(n.Value)
	default:
		b.WriteString(n.TextContent())
	}
}

// link converts id: links to wikilinks and file: images to embeds.
func (r *MarkdownRenderer) link(n *ast.Node) string {
	desc := r.inline(n.Children)
	plain := n.Description == "" || n.Description == n.URL

	if id, ok := strings.CutPrefix(n.URL, "id:"); ok {
		name, found := r.opts.IDMap[id]
		if !found {
			name = id
		}
		if plain {
			return "[[" + name + "]]"
		}
		return "[[" + name + "|" + desc + "]]"
	}

	if file, ok := strings.CutPrefix(n.URL, "file:"); ok {
		if imageExts[strings.ToLower(path.Ext(file))] && plain {
			return "![[" + file + "]]"
		}
		if path.Ext(file) == ".org" {
			file = strings.TrimSuffix(file, ".org") + ".md"
		}
		if plain {
			return "[" + file + "](" + file + ")"
		}
		return "[" + desc + "](" + file + ")"
	}

	if n.Bare || plain {
		return n.URL
	}
	return "[" + desc + "](" + n.URL + ")"
}
