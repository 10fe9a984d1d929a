package taxonomy

import (
	"fmt"
	"strings"
)

// Level is the depth of a node in the taxonomy.
type Level int

const (
	LevelCategory       Level = 1
	LevelSubcategory    Level = 2
	LevelSubsubcategory Level = 3
)

// MaxDepth is the number of significant levels in the tree.
const MaxDepth = 3

func (l Level) String() string {
	switch l {
	case LevelCategory:
		return "category"
	case LevelSubcategory:
		return "subcategory"
	case LevelSubsubcategory:
		return "sub-subcategory"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel accepts the level names used on the command line.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "category", "cat", "1":
		return LevelCategory, nil
	case "subcategory", "sub", "2":
		return LevelSubcategory, nil
	case "sub-subcategory", "subsubcategory", "subsub", "3":
		return LevelSubsubcategory, nil
	default:
		return 0, fmt.Errorf("unknown taxonomy level %q", s)
	}
}

// Path identifies a node by its ancestor chain, category first.
type Path []string

// NewPath builds a path, dropping trailing empty names.
func NewPath(names ...string) Path {
	for len(names) > 0 && strings.TrimSpace(names[len(names)-1]) == "" {
		names = names[:len(names)-1]
	}
	p := make(Path, len(names))
	copy(p, names)
	return p
}

// Level returns the level of the node the path names.
func (p Path) Level() Level { return Level(len(p)) }

// Name returns the last element, or "" for the empty path.
func (p Path) Name() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its last element.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Child returns a new path extended by name.
func (p Path) Child(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Equal compares two paths element-wise.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string { return strings.Join(p, " > ") }
