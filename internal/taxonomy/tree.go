// Package taxonomy holds the three-level category tree that expense records
// are filed under. Every node carries a stable identifier for the lifetime
// of the tree; names are unique among siblings and children keep insertion
// order.
package taxonomy

import (
	"strings"

	"github.com/google/uuid"

	"github.com/msahsan119/finman/internal/ledgererr"
)

// Tree is the category hierarchy. It is not safe for concurrent use; the
// session serializes access to it.
type Tree struct {
	root  *Node
	byID  map[string]*Node
	newID func() string
}

// New returns an empty tree that assigns random UUIDs to new nodes.
func New() *Tree {
	return NewWithIDs(uuid.NewString)
}

// NewWithIDs returns an empty tree using gen to assign node identifiers.
func NewWithIDs(gen func() string) *Tree {
	return &Tree{
		root:  &Node{},
		byID:  make(map[string]*Node),
		newID: gen,
	}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.byID) }

// AddCategory adds a top-level category.
func (t *Tree) AddCategory(name string) (*Event, error) {
	return t.Add(Path{name})
}

// AddSubcategory adds a subcategory under an existing category.
func (t *Tree) AddSubcategory(category, name string) (*Event, error) {
	return t.Add(Path{category, name})
}

// AddSubsubcategory adds a leaf under an existing subcategory.
func (t *Tree) AddSubsubcategory(category, subcategory, name string) (*Event, error) {
	return t.Add(Path{category, subcategory, name})
}

// Add creates the node named by path. All ancestors must exist.
func (t *Tree) Add(path Path) (*Event, error) {
	if len(path) == 0 || len(path) > MaxDepth {
		return nil, &ledgererr.UnknownPathError{Path: path}
	}
	name, err := cleanName(path.Name())
	if err != nil {
		return nil, err
	}
	parent, err := t.find(path.Parent())
	if err != nil {
		return nil, err
	}
	if parent.child(name) != nil {
		return nil, &ledgererr.DuplicateNameError{Parent: parent.Path(), Name: name}
	}

	node := &Node{
		ID:     t.newID(),
		Name:   name,
		Level:  parent.Level + 1,
		parent: parent,
	}
	parent.children = append(parent.children, node)
	t.byID[node.ID] = node

	return &Event{
		Kind:     EventAdded,
		Level:    node.Level,
		Path:     node.Path(),
		NodeID:   node.ID,
		ParentID: parent.ID,
		Subtree:  []string{node.ID},
	}, nil
}

// Rename gives the node at path a new name. Renaming a node to its current
// name is a no-op and returns a nil event.
func (t *Tree) Rename(path Path, newName string) (*Event, error) {
	node, err := t.Find(path)
	if err != nil {
		return nil, err
	}
	name, err := cleanName(newName)
	if err != nil {
		return nil, err
	}
	if name == node.Name {
		return nil, nil
	}
	if node.parent.child(name) != nil {
		return nil, &ledgererr.DuplicateNameError{Parent: node.parent.Path(), Name: name}
	}

	ev := &Event{
		Kind:     EventRenamed,
		Level:    node.Level,
		Path:     node.Path(),
		NewName:  name,
		NodeID:   node.ID,
		ParentID: node.parent.ID,
		Subtree:  t.Subtree(node),
	}
	node.Name = name
	return ev, nil
}

// Delete removes the node at path together with all its descendants.
func (t *Tree) Delete(path Path) (*Event, error) {
	node, err := t.Find(path)
	if err != nil {
		return nil, err
	}

	ev := &Event{
		Kind:     EventDeleted,
		Level:    node.Level,
		Path:     node.Path(),
		NodeID:   node.ID,
		ParentID: node.parent.ID,
		Subtree:  t.Subtree(node),
	}
	parent := node.parent
	if i := parent.indexOf(node); i >= 0 {
		parent.children = append(parent.children[:i], parent.children[i+1:]...)
	}
	for _, id := range ev.Subtree {
		delete(t.byID, id)
	}
	node.parent = nil
	return ev, nil
}

// Find returns the node named by path.
func (t *Tree) Find(path Path) (*Node, error) {
	if len(path) == 0 || len(path) > MaxDepth {
		return nil, &ledgererr.UnknownPathError{Path: path}
	}
	return t.find(path)
}

// Contains reports whether path names an existing node.
func (t *Tree) Contains(path Path) bool {
	_, err := t.Find(path)
	return err == nil
}

// Lookup returns the node with the given identifier.
func (t *Tree) Lookup(id string) (*Node, bool) {
	n, ok := t.byID[id]
	return n, ok
}

// Resolve walks names from the top and returns the deepest node that
// exists, or nil when the category itself is unknown.
func (t *Tree) Resolve(names []string) *Node {
	var deepest *Node
	cur := t.root
	for _, name := range names {
		if name == "" {
			break
		}
		next := cur.child(name)
		if next == nil {
			break
		}
		deepest, cur = next, next
		if cur.Level == MaxDepth {
			break
		}
	}
	return deepest
}

// ResolveID is Resolve returning the node identifier, "" for orphans.
func (t *Tree) ResolveID(names []string) string {
	if n := t.Resolve(names); n != nil {
		return n.ID
	}
	return ""
}

// Children returns the child names under path in insertion order. The empty
// path lists the top-level categories.
func (t *Tree) Children(path Path) ([]string, error) {
	if len(path) >= MaxDepth {
		return nil, &ledgererr.UnknownPathError{Path: path}
	}
	node, err := t.find(path)
	if err != nil {
		return nil, err
	}
	return node.ChildNames(), nil
}

// Categories lists the top-level category names.
func (t *Tree) Categories() []string {
	return t.root.ChildNames()
}

// Subcategories lists the subcategories of category.
func (t *Tree) Subcategories(category string) ([]string, error) {
	return t.Children(Path{category})
}

// Subsubcategories lists the leaves under category > subcategory.
func (t *Tree) Subsubcategories(category, subcategory string) ([]string, error) {
	return t.Children(Path{category, subcategory})
}

// Subtree returns the IDs of n and every descendant, pre-order.
func (t *Tree) Subtree(n *Node) []string {
	ids := []string{n.ID}
	n.walk(func(c *Node) { ids = append(ids, c.ID) })
	return ids
}

// Walk visits every node pre-order. Returning an error stops the walk.
func (t *Tree) Walk(fn func(*Node) error) error {
	var err error
	t.root.walk(func(n *Node) {
		if err == nil {
			err = fn(n)
		}
	})
	return err
}

func (t *Tree) find(path Path) (*Node, error) {
	cur := t.root
	for i, name := range path {
		next := cur.child(name)
		if next == nil {
			if i == 0 {
				return nil, &ledgererr.UnknownCategoryError{Category: name}
			}
			return nil, &ledgererr.UnknownPathError{Path: path}
		}
		cur = next
	}
	return cur, nil
}

func cleanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &ledgererr.InvalidNameError{Name: name, Reason: "name cannot be empty"}
	}
	return trimmed, nil
}
