package ast

// WalkStatus allows a NodeVisitor to have some control over the tree
// traversal. It is returned from NodeVisitor and different values allow
// Walk to decide which node to go to next.
type WalkStatus int

const (
	GoToNext     WalkStatus = iota // The default traversal of every node.
	SkipChildren                   // Skips all children of current node.
	Terminate                      // Terminates the traversal.
)

// NodeVisitor is a callback to be called when traversing the syntax tree.
// Called twice for every node: once with entering=true when the branch is
// first visited, then with entering=false after all the children are done.
// The inline run of a Heading or ListItem is visited before its children.
type NodeVisitor func(node *Node, entering bool) WalkStatus

// Walk traverses the tree rooted at n depth-first.
func (n *Node) Walk(visitor NodeVisitor) {
	walk(n, visitor)
}

func walk(n *Node, visitor NodeVisitor) WalkStatus {
	status := visitor(n, true)
	switch status {
	case Terminate:
		return Terminate
	case SkipChildren:
		return GoToNext
	}
	for _, group := range [][]*Node{n.Inline, n.Children} {
		// Copy so visitors may detach the node they are looking at.
		for _, c := range append([]*Node(nil), group...) {
			if walk(c, visitor) == Terminate {
				return Terminate
			}
		}
	}
	if visitor(n, false) == Terminate {
		return Terminate
	}
	return GoToNext
}

// Collect returns every node below and including n whose kind is k, in
// document order.
func (n *Node) Collect(k Kind) []*Node {
	var found []*Node
	n.Walk(func(node *Node, entering bool) WalkStatus {
		if entering && node.Kind == k {
			found = append(found, node)
		}
		return GoToNext
	})
	return found
}

// Relink sets the Parent of every node below n to the node whose slot it
// occupies.
func Relink(n *Node) {
	for _, c := range n.Inline {
		c.Parent = n
		Relink(c)
	}
	for _, c := range n.Children {
		c.Parent = n
		Relink(c)
	}
}
