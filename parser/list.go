package parser

import (
	"strings"

	"github.com/gerunddev/orgtree/ast"
)

const tabWidth = 8

// rawItem is one list item as the grammar sees it: flat, with the
// indentation of its marker.
type rawItem struct {
	indent   int
	bullet   string
	checkbox ast.Checkbox
	term     string
	text     string
	first    int // line index
	last     int
}

// isListItem reports whether t opens a list item. A star bullet needs
// indentation, otherwise it is a heading.
func isListItem(t string) bool {
	m := listItemRe.FindStringSubmatch(t)
	return m != nil && (m[2] != "*" || m[1] != "")
}

func indentOf(t string) int {
	n := 0
	for _, r := range t {
		switch r {
		case ' ':
			n++
		case '\t':
			n += tabWidth - n%tabWidth
		default:
			return n
		}
	}
	return n
}

// parseList collects the run of list items starting at the current line
// and rebuilds their nesting.
func (bp *blockParser) parseList() *ast.Node {
	items := bp.collectItems()
	list := reconstruct(items, bp.p.opts.Strict)
	list.Pos = bp.span(items[0].first, items[len(items)-1].last)
	return list
}

// collectItems reads item lines and their continuation lines. A single
// blank line between items keeps the run going; two blank lines, or a
// line that is not indented past the first marker, end it.
func (bp *blockParser) collectItems() []*rawItem {
	var items []*rawItem
	base := indentOf(bp.lines[bp.pos].text)

	for bp.pos < len(bp.lines) {
		t := bp.lines[bp.pos].text

		if isListItem(t) {
			if bp.p.opts.Strict && len(items) > 0 && indentOf(t) <= base && ordered(t) != items[0].ordered() {
				break
			}
			items = append(items, bp.readItem())
			continue
		}

		if strings.TrimSpace(t) == "" {
			next := bp.pos + 1
			if next < len(bp.lines) && isListItem(bp.lines[next].text) {
				bp.pos = next
				continue
			}
			break
		}

		last := items[len(items)-1]
		if indentOf(t) > base && !bp.startsBlock(bp.pos) {
			last.text += "\n" + strings.TrimSpace(t)
			last.last = bp.pos
			bp.pos++
			continue
		}
		break
	}
	return items
}

func (bp *blockParser) readItem() *rawItem {
	l := bp.lines[bp.pos]
	m := listItemRe.FindStringSubmatch(l.text)
	it := &rawItem{
		indent: indentOf(m[1]),
		bullet: m[2],
		text:   strings.TrimSpace(m[3]),
		first:  bp.pos,
		last:   bp.pos,
	}
	bp.pos++

	if cm := checkboxRe.FindStringSubmatch(it.text); cm != nil {
		switch cm[1] {
		case " ":
			it.checkbox = ast.Unchecked
		case "x", "X":
			it.checkbox = ast.Checked
		case "-":
			if !bp.p.opts.Strict {
				it.checkbox = ast.Partial
			}
		}
		it.text = cm[2]
	}

	if !it.ordered() {
		if term, desc, ok := strings.Cut(it.text, " :: "); ok {
			it.term = strings.TrimSpace(term)
			it.text = strings.TrimSpace(desc)
		} else if term, ok := strings.CutSuffix(it.text, " ::"); ok {
			it.term = strings.TrimSpace(term)
			it.text = ""
		}
	}
	return it
}

func (it *rawItem) ordered() bool {
	return isDigit(it.bullet[0])
}

// ordered reports whether the item line t carries a numbered marker.
func ordered(t string) bool {
	m := listItemRe.FindStringSubmatch(t)
	return m != nil && isDigit(m[2][0])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func (it *rawItem) listType() ast.ListType {
	switch {
	case it.ordered():
		return ast.Ordered
	case it.term != "":
		return ast.Descriptive
	default:
		return ast.Unordered
	}
}

func (it *rawItem) node() *ast.Node {
	n := ast.NewNode(ast.ListItem)
	n.Bullet = it.bullet
	n.Checkbox = it.checkbox
	n.Term = it.term
	if it.text != "" {
		n.AppendInline(ast.NewText(it.text))
	}
	return n
}

func newList(it *rawItem) *ast.Node {
	l := ast.NewNode(ast.List)
	l.ListType = it.listType()
	return l
}

// frame is an open list at a given indentation.
type frame struct {
	depth int
	list  *ast.Node
}

// reconstruct rebuilds nesting from indentation. An item indented deeper
// than the innermost open list nests inside the last item of that list;
// a shallower item closes lists until the innermost one is at or above
// its depth. Irregular dedents that match no open list are accepted as
// they are. In strict mode a nested item whose marker kind differs from
// its list starts a sibling list; the outermost run is split by
// collectItems instead.
func reconstruct(items []*rawItem, strict bool) *ast.Node {
	root := newList(items[0])
	stack := []frame{{depth: items[0].indent, list: root}}

	for _, it := range items {
		d := it.indent
		for len(stack) > 1 && stack[len(stack)-1].depth > d {
			stack = stack[:len(stack)-1]
		}
		top := &stack[len(stack)-1]

		switch {
		case d > top.depth && len(top.list.Children) > 0:
			parent := top.list.Children[len(top.list.Children)-1]
			nested := lastList(parent)
			if nested == nil || (strict && it.ordered() != (nested.ListType == ast.Ordered)) {
				nested = newList(it)
				parent.AppendChild(nested)
			}
			stack = append(stack, frame{depth: d, list: nested})
		case d < top.depth:
			// Dedent below the outermost list.
			top.depth = d
		case strict && top.list.Parent != nil && it.ordered() != (top.list.ListType == ast.Ordered):
			split := newList(it)
			top.list.Parent.AppendChild(split)
			top.list = split
		}

		stack[len(stack)-1].list.AppendChild(it.node())
	}
	return root
}

func lastList(item *ast.Node) *ast.Node {
	if n := len(item.Children); n > 0 && item.Children[n-1].Kind == ast.List {
		return item.Children[n-1]
	}
	return nil
}
