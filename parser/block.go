package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/charmbracelet/log"

	"github.com/gerunddev/orgtree/ast"
)

// Line-level grammar. A heading or list marker must be followed by
// whitespace, which keeps *bold* and +strike+ at the start of a line from
// being read as structure.
var (
	headingRe     = regexp.MustCompile(`^(\*+)[ \t]+(.*)$`)
	listItemRe    = regexp.MustCompile(`^([ \t]*)([-+*]|\d+[.)])[ \t]+(.*)$`)
	checkboxRe    = regexp.MustCompile(`^\[([ xX-])\](?:[ \t]+(.*))?$`)
	tableRowRe    = regexp.MustCompile(`^[ \t]*\|`)
	tableSepRe    = regexp.MustCompile(`^[ \t]*\|-[-+|: \t]*$`)
	blockBeginRe  = regexp.MustCompile(`(?i)^[ \t]*#\+begin_(src|example)(?:[ \t]+(.*))?$`)
	keywordRe     = regexp.MustCompile(`^[ \t]*#\+(\w[\w-]*):[ \t]*(.*?)[ \t]*$`)
	hruleRe       = regexp.MustCompile(`^[ \t]*-{5,}[ \t]*$`)
	drawerRe      = regexp.MustCompile(`^[ \t]*:([\w-]+):[ \t]*$`)
	drawerEndRe   = regexp.MustCompile(`(?i)^[ \t]*:end:[ \t]*$`)
	propertyRe    = regexp.MustCompile(`^[ \t]*:([^:\s]+):(?:[ \t]+(.*?))?[ \t]*$`)
	commentRe     = regexp.MustCompile(`^[ \t]*#(?:[ \t](.*))?$`)
	footnoteDefRe = regexp.MustCompile(`^\[fn:([\w-]+)\](?:[ \t]+(.*))?$`)
	tagsRe        = regexp.MustCompile(`^(.*?)(?:[ \t]+(:(?:[\w@#%]+:)+))?[ \t]*$`)
	priorityRe    = regexp.MustCompile(`^\[#([A-Za-z0-9])\](?:[ \t]+(.*))?$`)
	todoLikeRe    = regexp.MustCompile(`^[A-Z]{2,}$`)

	blockEndRe = map[string]*regexp.Regexp{
		"SRC":     regexp.MustCompile(`(?i)^[ \t]*#\+end_src[ \t]*$`),
		"EXAMPLE": regexp.MustCompile(`(?i)^[ \t]*#\+end_example[ \t]*$`),
	}
)

// blockParser runs the structural grammar over a slice of lines.
type blockParser struct {
	p        *Parser
	log      *log.Logger
	lines    []line
	pos      int
	keywords map[string]bool
	props    map[string]string
}

// parseDocument builds the Document. Headings open sections: a heading of
// level N becomes a child of the nearest preceding heading with a level
// below N, or of the document.
func (bp *blockParser) parseDocument() (*ast.Node, error) {
	doc := ast.NewNode(ast.Document)
	if len(bp.lines) > 0 {
		doc.Pos = bp.span(0, len(bp.lines)-1)
	}

	sections := []*ast.Node{doc}
	for bp.pos < len(bp.lines) {
		if h := bp.parseHeading(); h != nil {
			for len(sections) > 1 && sections[len(sections)-1].Level >= h.Level {
				sections = sections[:len(sections)-1]
			}
			sections[len(sections)-1].AppendChild(h)
			sections = append(sections, h)
			continue
		}

		n, err := bp.parseBlock()
		if err != nil {
			return nil, err
		}
		if n != nil {
			sections[len(sections)-1].AppendChild(n)
		}
	}
	return doc, nil
}

// parseBlocks appends every block of the remaining lines to container.
// It is used for drawer bodies, which never contain headings.
func (bp *blockParser) parseBlocks(container *ast.Node) error {
	for bp.pos < len(bp.lines) {
		n, err := bp.parseBlock()
		if err != nil {
			return err
		}
		if n != nil {
			container.AppendChild(n)
		}
	}
	return nil
}

// parseBlock consumes the block starting at the current line. Rules are
// tried in priority order and the first match wins. It returns nil for
// lines that produce no node.
func (bp *blockParser) parseBlock() (*ast.Node, error) {
	l := bp.lines[bp.pos]
	opts := bp.p.opts

	switch {
	case strings.TrimSpace(l.text) == "":
		bp.pos++
		return nil, nil
	case opts.ParseLists && isListItem(l.text):
		return bp.parseList(), nil
	case opts.ParseTables && tableRowRe.MatchString(l.text):
		return bp.parseTable(), nil
	case opts.ParseCodeBlocks && blockBeginRe.MatchString(l.text):
		return bp.parseCodeBlock()
	case keywordRe.MatchString(l.text):
		m := keywordRe.FindStringSubmatch(l.text)
		bp.props[strings.ToLower(m[1])] = m[2]
		bp.pos++
		return nil, nil
	case hruleRe.MatchString(l.text):
		hr := ast.NewNode(ast.HorizontalRule)
		hr.Pos = bp.span(bp.pos, bp.pos)
		bp.pos++
		return hr, nil
	case drawerRe.MatchString(l.text) && bp.drawerEnd(bp.pos) > 0:
		return bp.parseDrawer()
	case commentRe.MatchString(l.text):
		m := commentRe.FindStringSubmatch(l.text)
		c := ast.NewLeaf(ast.Comment, m[1])
		c.Pos = bp.span(bp.pos, bp.pos)
		bp.pos++
		return c, nil
	case footnoteDefRe.MatchString(l.text):
		return bp.parseFootnote(), nil
	}

	if drawerRe.MatchString(l.text) {
		bp.log.Debug("drawer without :END:, kept as text", "line", l.num)
	}
	return bp.parseParagraph(), nil
}

// startsBlock reports whether line i would be claimed by a rule other than
// the paragraph rule.
func (bp *blockParser) startsBlock(i int) bool {
	t := bp.lines[i].text
	opts := bp.p.opts
	switch {
	case headingRe.MatchString(t):
		return true
	case opts.ParseLists && isListItem(t):
		return true
	case opts.ParseTables && tableRowRe.MatchString(t):
		return true
	case opts.ParseCodeBlocks && blockBeginRe.MatchString(t):
		return true
	case keywordRe.MatchString(t), hruleRe.MatchString(t), commentRe.MatchString(t), footnoteDefRe.MatchString(t):
		return true
	case drawerRe.MatchString(t):
		return bp.drawerEnd(i) > 0
	}
	return false
}

// parseHeading consumes a heading line, or returns nil.
func (bp *blockParser) parseHeading() *ast.Node {
	l := bp.lines[bp.pos]
	m := headingRe.FindStringSubmatch(l.text)
	if m == nil {
		return nil
	}

	h := ast.NewNode(ast.Heading)
	h.Level = len(m[1])
	h.Pos = bp.span(bp.pos, bp.pos)
	bp.pos++

	rest := strings.TrimSpace(m[2])
	kw, after, found := rest, "", false
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		kw, after, found = rest[:i], rest[i:], true
	}
	switch {
	case found && bp.keywords[kw]:
		h.TodoKeyword = kw
		rest = strings.TrimSpace(after)
	case !bp.keywords[kw] && todoLikeRe.MatchString(kw):
		bp.log.Debug("unknown TODO-like keyword kept in title", "line", l.num, "keyword", kw)
	}
	if pm := priorityRe.FindStringSubmatch(rest); pm != nil {
		h.Priority = pm[1]
		rest = pm[2]
	}
	tm := tagsRe.FindStringSubmatch(rest)
	h.Title = tm[1]
	if tm[2] != "" {
		h.Tags = strings.Split(strings.Trim(tm[2], ":"), ":")
	}
	if h.Title != "" {
		h.AppendInline(ast.NewText(h.Title))
	}
	return h
}

func (bp *blockParser) parseParagraph() *ast.Node {
	start := bp.pos
	var text []string
	for bp.pos < len(bp.lines) {
		t := bp.lines[bp.pos].text
		if strings.TrimSpace(t) == "" || (bp.pos > start && bp.startsBlock(bp.pos)) {
			break
		}
		text = append(text, strings.TrimSpace(t))
		bp.pos++
	}

	para := ast.NewNode(ast.Paragraph)
	para.Pos = bp.span(start, bp.pos-1)
	para.AppendChild(ast.NewText(strings.Join(text, "\n")))
	return para
}

func (bp *blockParser) parseTable() *ast.Node {
	start := bp.pos
	table := ast.NewNode(ast.Table)
	width := 0

	for bp.pos < len(bp.lines) && tableRowRe.MatchString(bp.lines[bp.pos].text) {
		t := bp.lines[bp.pos].text
		if tableSepRe.MatchString(t) {
			if len(table.Children) > 0 {
				markHeader(table.Children[len(table.Children)-1])
			}
			bp.pos++
			continue
		}

		row := ast.NewNode(ast.TableRow)
		row.Pos = bp.span(bp.pos, bp.pos)
		for _, cell := range splitRow(t) {
			c := ast.NewNode(ast.TableCell)
			if cell != "" {
				c.AppendChild(ast.NewText(cell))
			}
			row.AppendChild(c)
		}
		width = max(width, len(row.Children))
		table.AppendChild(row)
		bp.pos++
	}

	if len(table.Children) == 0 {
		bp.log.Debug("table without cells kept as text", "line", bp.lines[start].num)
		return bp.literal(start)
	}

	for _, row := range table.Children {
		if len(row.Children) < width {
			bp.log.Debug("table row padded with empty cells", "line", row.Pos.Start.Line,
				"cells", len(row.Children), "width", width)
		}
		for len(row.Children) < width {
			c := ast.NewNode(ast.TableCell)
			c.IsHeader = row.IsHeader
			row.AppendChild(c)
		}
	}

	table.Pos = bp.span(start, bp.pos-1)
	return table
}

// literal turns the lines from start up to the current line into a
// paragraph of their trimmed text.
func (bp *blockParser) literal(start int) *ast.Node {
	text := make([]string, 0, bp.pos-start)
	for _, l := range bp.lines[start:bp.pos] {
		text = append(text, strings.TrimSpace(l.text))
	}
	para := ast.NewNode(ast.Paragraph)
	para.Pos = bp.span(start, bp.pos-1)
	para.AppendChild(ast.NewText(strings.Join(text, "\n")))
	return para
}

func markHeader(row *ast.Node) {
	row.IsHeader = true
	for _, c := range row.Children {
		c.IsHeader = true
	}
}

// splitRow splits "| a | b |" into trimmed cells. The closing pipe is
// optional.
func splitRow(t string) []string {
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "|")
	t = strings.TrimSuffix(t, "|")
	cells := strings.Split(t, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func (bp *blockParser) parseCodeBlock() (*ast.Node, error) {
	start := bp.pos
	l := bp.lines[start]
	m := blockBeginRe.FindStringSubmatch(l.text)
	typ := strings.ToUpper(m[1])
	args := strings.Fields(m[2])

	end := -1
	for i := start + 1; i < len(bp.lines); i++ {
		if blockEndRe[typ].MatchString(bp.lines[i].text) {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, &UnterminatedBlockError{Block: typ, Line: l.num}
	}

	cb := ast.NewNode(ast.CodeBlock)
	cb.BlockType = typ
	if typ == "SRC" && len(args) > 0 {
		cb.Language = args[0]
		args = args[1:]
	}
	cb.Params = strings.Join(args, " ")

	body := make([]string, 0, end-start-1)
	for _, bl := range bp.lines[start+1 : end] {
		body = append(body, bl.text)
	}
	cb.Value = strings.Join(body, "\n")
	cb.Pos = bp.span(start, end)
	bp.pos = end + 1
	return cb, nil
}

// drawerEnd returns the index of the :END: line closing the drawer opened
// at line i, or -1. Drawers never span headings.
func (bp *blockParser) drawerEnd(i int) int {
	for j := i + 1; j < len(bp.lines); j++ {
		t := bp.lines[j].text
		if drawerEndRe.MatchString(t) {
			return j
		}
		if headingRe.MatchString(t) {
			return -1
		}
	}
	return -1
}

func (bp *blockParser) parseDrawer() (*ast.Node, error) {
	start := bp.pos
	end := bp.drawerEnd(start)
	m := drawerRe.FindStringSubmatch(bp.lines[start].text)

	d := ast.NewNode(ast.Drawer)
	d.Name = m[1]
	d.Pos = bp.span(start, end)
	bp.pos = end + 1

	body := bp.lines[start+1 : end]
	if strings.EqualFold(d.Name, "PROPERTIES") {
		for _, l := range body {
			pm := propertyRe.FindStringSubmatch(l.text)
			if pm == nil {
				if strings.TrimSpace(l.text) != "" {
					bp.log.Debug("ignoring malformed property line", "line", l.num)
				}
				continue
			}
			d.Entries = append(d.Entries, ast.Property{Key: pm[1], Value: pm[2]})
		}
		return d, nil
	}

	sub := &blockParser{p: bp.p, log: bp.log, lines: body, keywords: bp.keywords, props: bp.props}
	if err := sub.parseBlocks(d); err != nil {
		return nil, err
	}
	return d, nil
}

func (bp *blockParser) parseFootnote() *ast.Node {
	start := bp.pos
	m := footnoteDefRe.FindStringSubmatch(bp.lines[start].text)
	fn := ast.NewNode(ast.Footnote)
	fn.Label = m[1]
	bp.pos++

	text := []string{}
	if s := strings.TrimSpace(m[2]); s != "" {
		text = append(text, s)
	}
	for bp.pos < len(bp.lines) {
		t := bp.lines[bp.pos].text
		if strings.TrimSpace(t) == "" || bp.startsBlock(bp.pos) {
			break
		}
		text = append(text, strings.TrimSpace(t))
		bp.pos++
	}
	if len(text) > 0 {
		para := ast.NewNode(ast.Paragraph)
		para.Pos = bp.span(start, bp.pos-1)
		para.AppendChild(ast.NewText(strings.Join(text, "\n")))
		fn.AppendChild(para)
	}
	fn.Pos = bp.span(start, bp.pos-1)
	return fn
}

// span returns the position covering lines first through last.
func (bp *blockParser) span(first, last int) *ast.Position {
	f, l := bp.lines[first], bp.lines[last]
	indent := len(f.text) - len(strings.TrimLeft(f.text, " \t"))
	return &ast.Position{
		Start: ast.Point{Line: f.num, Column: indent + 1, Offset: f.offset + indent},
		End:   ast.Point{Line: l.num, Column: len(l.text) + 1, Offset: l.offset + len(l.text)},
	}
}
