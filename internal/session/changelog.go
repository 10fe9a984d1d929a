package session

import (
	"fmt"
	"strings"

	"github.com/msahsan119/finman/internal/taxonomy"
)

// Operation names a kind of change.
type Operation string

const (
	OpAddNode       Operation = "add_node"
	OpRenameNode    Operation = "rename_node"
	OpDeleteNode    Operation = "delete_node"
	OpCascadeRename Operation = "cascade_rename"
	OpCascadeDelete Operation = "cascade_delete"
	OpAdopt         Operation = "adopt"
	OpAppend        Operation = "append"
	OpRemove        Operation = "remove"
	OpSetting       Operation = "setting"
)

// Change is one entry of a change log.
type Change struct {
	Op     Operation
	Target string
	Count  int
	Detail string
}

func (c Change) String() string {
	var b strings.Builder
	b.WriteString(string(c.Op))
	if c.Target != "" {
		fmt.Fprintf(&b, " %s", c.Target)
	}
	if c.Detail != "" {
		fmt.Fprintf(&b, ": %s", c.Detail)
	}
	if c.Count > 0 {
		fmt.Fprintf(&b, " (%d)", c.Count)
	}
	return b.String()
}

// ChangeLog lists what a mutating operation did. An empty log means nothing
// changed and nothing needs saving.
type ChangeLog []Change

// Empty reports whether the log records no change.
func (l ChangeLog) Empty() bool { return len(l) == 0 }

// Count sums the counts of entries with the given operation.
func (l ChangeLog) Count(op Operation) int {
	n := 0
	for _, c := range l {
		if c.Op == op {
			n += c.Count
		}
	}
	return n
}

func (l ChangeLog) String() string {
	parts := make([]string, len(l))
	for i, c := range l {
		parts[i] = c.String()
	}
	return strings.Join(parts, "\n")
}

func pathTarget(p taxonomy.Path) string { return p.String() }
