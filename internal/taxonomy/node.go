package taxonomy

// Node is one taxonomy entry. The root of a Tree is a level-0 node with an
// empty ID; it is never exposed.
type Node struct {
	ID    string
	Name  string
	Level Level

	parent   *Node
	children []*Node
}

// Children returns the node's children in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// ChildNames returns the names of the node's children in insertion order.
func (n *Node) ChildNames() []string {
	names := make([]string, len(n.children))
	for i, c := range n.children {
		names[i] = c.Name
	}
	return names
}

// Path returns the full ancestor chain of the node.
func (n *Node) Path() Path {
	var p Path
	for cur := n; cur != nil && cur.Level > 0; cur = cur.parent {
		p = append(Path{cur.Name}, p...)
	}
	return p
}

// ParentID returns the parent's ID; top-level categories report "".
func (n *Node) ParentID() string {
	if n.parent == nil {
		return ""
	}
	return n.parent.ID
}

func (n *Node) child(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) walk(fn func(*Node)) {
	for _, c := range n.children {
		fn(c)
		c.walk(fn)
	}
}
