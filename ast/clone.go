package ast

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ShallowClone copies n without its children. The copy is detached.
func (n *Node) ShallowClone() *Node {
	c := *n
	c.Parent = nil
	c.Children = nil
	c.Inline = nil
	if n.Pos != nil {
		pos := *n.Pos
		c.Pos = &pos
	}
	if n.Properties != nil {
		c.Properties = maps.Clone(n.Properties)
	}
	c.Tags = slices.Clone(n.Tags)
	c.Entries = slices.Clone(n.Entries)
	return &c
}

// Clone deep-copies the tree rooted at n. Children of the copy point back
// to the copy, never to the original; the copy itself is detached.
func (n *Node) Clone() *Node {
	c := n.ShallowClone()
	for _, child := range n.Inline {
		cc := child.Clone()
		cc.Parent = c
		c.Inline = append(c.Inline, cc)
	}
	for _, child := range n.Children {
		cc := child.Clone()
		cc.Parent = c
		c.Children = append(c.Children, cc)
	}
	return c
}

// Equal reports whether two trees have the same shape and data. Positions
// and parent pointers are ignored.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Value != b.Value {
		return false
	}
	if !maps.Equal(a.Properties, b.Properties) {
		return false
	}
	if a.Level != b.Level || a.Title != b.Title || a.TodoKeyword != b.TodoKeyword ||
		a.Priority != b.Priority || !slices.Equal(a.Tags, b.Tags) {
		return false
	}
	if a.ListData != b.ListData || a.ListItemData != b.ListItemData || a.LinkData != b.LinkData ||
		a.TableCellData != b.TableCellData || a.CodeBlockData != b.CodeBlockData ||
		a.FootnoteData != b.FootnoteData || a.TimestampData != b.TimestampData {
		return false
	}
	if a.Name != b.Name || !slices.Equal(a.Entries, b.Entries) {
		return false
	}
	return equalAll(a.Inline, b.Inline) && equalAll(a.Children, b.Children)
}

func equalAll(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// String dumps the tree rooted at n, one node per line.
func (n *Node) String() string {
	var buf bytes.Buffer
	dump(&buf, n, 0, "")
	return buf.String()
}

func dump(buf *bytes.Buffer, n *Node, depth int, mark string) {
	fmt.Fprintf(buf, "%s%s%s%s\n", strings.Repeat("\t", depth), mark, n.Kind, describe(n))
	for _, c := range n.Inline {
		dump(buf, c, depth+1, "~")
	}
	for _, c := range n.Children {
		dump(buf, c, depth+1, "")
	}
}

func describe(n *Node) string {
	switch n.Kind {
	case Document:
		if len(n.Properties) == 0 {
			return ""
		}
		keys := slices.Sorted(maps.Keys(n.Properties))
		return fmt.Sprintf(" %v", keys)
	case Heading:
		s := fmt.Sprintf("(%d %q", n.Level, n.Title)
		if n.TodoKeyword != "" {
			s += " " + n.TodoKeyword
		}
		if len(n.Tags) > 0 {
			s += " :" + strings.Join(n.Tags, ":") + ":"
		}
		return s + ")"
	case List:
		return "(" + n.ListType.String() + ")"
	case ListItem:
		return fmt.Sprintf("(%s)", n.Bullet)
	case Link:
		return fmt.Sprintf("(%q %q)", n.URL, n.Description)
	case TableRow, TableCell:
		if n.IsHeader {
			return "(header)"
		}
	case CodeBlock:
		return fmt.Sprintf("(%s %s %q)", n.BlockType, n.Language, n.Value)
	case Drawer:
		return "(" + n.Name + ")"
	case Footnote:
		return "(" + n.Label + ")"
	}
	if n.IsLeaf() {
		return fmt.Sprintf("(%q)", n.Value)
	}
	return ""
}
