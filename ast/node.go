// Package ast defines the tree produced by the parser: typed nodes that
// own their children and keep a back reference to their parent.
package ast

import "fmt"

// Kind identifies the variant of a Node.
type Kind int

const (
	Document Kind = iota
	Heading
	Paragraph
	Text
	Bold
	Italic
	Underline
	Strikethrough
	Code
	Verbatim
	Link
	List
	ListItem
	Table
	TableRow
	TableCell
	CodeBlock
	Comment
	HorizontalRule
	Drawer
	Footnote
	FootnoteRef
	Timestamp
)

var kindNames = []string{
	Document:       "Document",
	Heading:        "Heading",
	Paragraph:      "Paragraph",
	Text:           "Text",
	Bold:           "Bold",
	Italic:         "Italic",
	Underline:      "Underline",
	Strikethrough:  "Strikethrough",
	Code:           "Code",
	Verbatim:       "Verbatim",
	Link:           "Link",
	List:           "List",
	ListItem:       "ListItem",
	Table:          "Table",
	TableRow:       "TableRow",
	TableCell:      "TableCell",
	CodeBlock:      "CodeBlock",
	Comment:        "Comment",
	HorizontalRule: "HorizontalRule",
	Drawer:         "Drawer",
	Footnote:       "Footnote",
	FootnoteRef:    "FootnoteRef",
	Timestamp:      "Timestamp",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsLeaf reports whether nodes of this kind never have children.
func (k Kind) IsLeaf() bool {
	switch k {
	case Text, Code, Verbatim, CodeBlock, HorizontalRule, Comment, FootnoteRef, Timestamp:
		return true
	}
	return false
}

// ListType is the flavour of a List, decided by its first item.
type ListType int

const (
	Unordered ListType = iota
	Ordered
	Descriptive
)

func (t ListType) String() string {
	switch t {
	case Ordered:
		return "Ordered"
	case Descriptive:
		return "Descriptive"
	default:
		return "Unordered"
	}
}

// Checkbox is the state of a list item checkbox.
type Checkbox int

const (
	NoCheckbox Checkbox = iota
	Unchecked
	Checked
	Partial
)

// Point is a location in the source text. Line and Column are 1-based.
type Point struct {
	Line   int
	Column int
	Offset int
}

// Position spans a node's source text. It is informational only.
type Position struct {
	Start Point
	End   Point
}

// Property is a single key/value pair of a properties drawer.
type Property struct {
	Key   string
	Value string
}

type DocumentData struct {
	Properties map[string]string // #+KEY: value lines, keys lower-cased
}

type HeadingData struct {
	Level       int      // Number of leading stars
	Title       string   // Raw title text without keyword, priority and tags
	TodoKeyword string   // Empty when the heading carries no TODO keyword
	Priority    string   // Priority cookie letter, e.g. "A"
	Tags        []string // Trailing :tag1:tag2: run
}

type ListData struct {
	ListType ListType
}

type ListItemData struct {
	Bullet   string   // Literal marker: "-", "+", "*", "1." or "1)"
	Checkbox Checkbox // Checkbox state, NoCheckbox if absent
	Term     string   // Term of a descriptive item
}

type LinkData struct {
	URL         string
	Description string // Defaults to URL
	Bare        bool   // Plain URL in running text rather than [[...]]
}

type TableCellData struct {
	IsHeader bool // Set on header rows and their cells
}

type CodeBlockData struct {
	BlockType string // "SRC" or "EXAMPLE"
	Language  string
	Params    string // Header arguments following the language
}

type DrawerData struct {
	Name    string
	Entries []Property // Populated for PROPERTIES drawers
}

type FootnoteData struct {
	Label string
}

type TimestampData struct {
	Active bool // <...> rather than [...]
}

// Node is a single element of the document tree. Children are owned by
// their parent; Parent is a back-reference only used for traversal and
// removal.
type Node struct {
	Kind     Kind
	Parent   *Node
	Children []*Node

	// Inline holds the segmented title of a Heading or the first line of
	// a ListItem. Those kinds keep block content in Children.
	Inline []*Node

	Value string    // Payload of leaf kinds
	Pos   *Position // Optional source span

	DocumentData  // Populated if Kind == Document
	HeadingData   // Populated if Kind == Heading
	ListData      // Populated if Kind == List
	ListItemData  // Populated if Kind == ListItem
	LinkData      // Populated if Kind == Link
	TableCellData // Populated if Kind == TableRow or Kind == TableCell
	CodeBlockData // Populated if Kind == CodeBlock
	DrawerData    // Populated if Kind == Drawer
	FootnoteData  // Populated if Kind == Footnote
	TimestampData // Populated if Kind == Timestamp
}

// NewNode returns an empty node of the given kind.
func NewNode(kind Kind) *Node {
	n := &Node{Kind: kind}
	if kind == Document {
		n.Properties = make(map[string]string)
	}
	return n
}

// NewText returns a Text leaf holding s.
func NewText(s string) *Node {
	n := NewNode(Text)
	n.Value = s
	return n
}

// NewLeaf returns a leaf of the given kind holding value.
func NewLeaf(kind Kind, value string) *Node {
	n := NewNode(kind)
	n.Value = value
	return n
}

// IsLeaf reports whether n is of a leaf kind.
func (n *Node) IsLeaf() bool {
	return n.Kind.IsLeaf()
}

// AppendChild adds child as the last child of n, detaching it from any
// previous parent first.
func (n *Node) AppendChild(child *Node) {
	if n.IsLeaf() {
		panic(fmt.Sprintf("ast: cannot append child to leaf %s", n.Kind))
	}
	child.Remove()
	child.Parent = n
	n.Children = append(n.Children, child)
}

// AppendInline adds child to the inline title run of n.
func (n *Node) AppendInline(child *Node) {
	child.Remove()
	child.Parent = n
	n.Inline = append(n.Inline, child)
}

// Remove detaches n from its parent. It is a no-op for detached nodes.
func (n *Node) Remove() {
	p := n.Parent
	if p == nil {
		return
	}
	if i := indexOf(p.Children, n); i >= 0 {
		p.Children = append(p.Children[:i], p.Children[i+1:]...)
	} else if i := indexOf(p.Inline, n); i >= 0 {
		p.Inline = append(p.Inline[:i], p.Inline[i+1:]...)
	}
	n.Parent = nil
}

// ReplaceWith puts other into the slot occupied by n and detaches n.
func (n *Node) ReplaceWith(other *Node) {
	p := n.Parent
	if p == nil || other == n {
		return
	}
	other.Remove()
	if i := indexOf(p.Children, n); i >= 0 {
		p.Children[i] = other
	} else if i := indexOf(p.Inline, n); i >= 0 {
		p.Inline[i] = other
	} else {
		return
	}
	other.Parent = p
	n.Parent = nil
}

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// Property returns a document property.
func (n *Node) Property(key string) (string, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

// TextContent concatenates the values of all leaves below n, inline runs
// included.
func (n *Node) TextContent() string {
	if n.IsLeaf() {
		return n.Value
	}
	var s string
	for _, c := range n.Inline {
		s += c.TextContent()
	}
	for _, c := range n.Children {
		s += c.TextContent()
	}
	return s
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}
