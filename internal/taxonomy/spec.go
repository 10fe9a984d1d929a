package taxonomy

import (
	"errors"

	"github.com/msahsan119/finman/internal/ledgererr"
)

// CategorySpec is the name-only, ordered description of one category and
// everything below it. It is the form the tree takes in snapshots and seed
// files.
type CategorySpec struct {
	Name          string            `yaml:"name" json:"name"`
	Subcategories []SubcategorySpec `yaml:"subcategories,omitempty" json:"subcategories,omitempty"`
}

// SubcategorySpec describes a subcategory and its leaves.
type SubcategorySpec struct {
	Name  string   `yaml:"name" json:"name"`
	Items []string `yaml:"items,omitempty" json:"items,omitempty"`
}

// Spec returns the tree as ordered specs.
func (t *Tree) Spec() []CategorySpec {
	specs := make([]CategorySpec, 0, len(t.root.children))
	for _, cat := range t.root.children {
		cs := CategorySpec{Name: cat.Name}
		for _, sub := range cat.children {
			cs.Subcategories = append(cs.Subcategories, SubcategorySpec{
				Name:  sub.Name,
				Items: sub.ChildNames(),
			})
		}
		specs = append(specs, cs)
	}
	return specs
}

// FromSpec builds a tree from specs. Duplicate sibling names are merged so
// that hand-edited files load; any other failure is returned.
func FromSpec(specs []CategorySpec) (*Tree, error) {
	t := New()
	if err := t.Merge(specs); err != nil {
		return nil, err
	}
	return t, nil
}

// Merge adds every node in specs that the tree does not already have.
func (t *Tree) Merge(specs []CategorySpec) error {
	for _, cs := range specs {
		if err := t.ensure(Path{cs.Name}); err != nil {
			return err
		}
		for _, ss := range cs.Subcategories {
			if err := t.ensure(Path{cs.Name, ss.Name}); err != nil {
				return err
			}
			for _, item := range ss.Items {
				if err := t.ensure(Path{cs.Name, ss.Name, item}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// LoadSpec builds a tree from persisted specs, keeping every node it can.
// A node whose name is invalid is skipped together with everything below
// it, and onSkip, when set, is told which path was dropped and why.
func LoadSpec(specs []CategorySpec, onSkip func(Path, error)) *Tree {
	t := New()
	skip := func(path Path, err error) {
		if onSkip != nil {
			onSkip(path, err)
		}
	}
	for _, cs := range specs {
		cat, err := t.ensureClean(Path{}, cs.Name)
		if err != nil {
			skip(Path{cs.Name}, err)
			continue
		}
		for _, ss := range cs.Subcategories {
			sub, err := t.ensureClean(cat, ss.Name)
			if err != nil {
				skip(cat.Child(ss.Name), err)
				continue
			}
			for _, item := range ss.Items {
				if _, err := t.ensureClean(sub, item); err != nil {
					skip(sub.Child(item), err)
				}
			}
		}
	}
	return t
}

// ensureClean adds name under parent unless present and returns the path
// of the node under its trimmed name.
func (t *Tree) ensureClean(parent Path, name string) (Path, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	path := parent.Child(clean)
	return path, t.ensure(path)
}

func (t *Tree) ensure(path Path) error {
	_, err := t.Add(path)
	if errors.Is(err, ledgererr.ErrDuplicateName) {
		return nil
	}
	return err
}
