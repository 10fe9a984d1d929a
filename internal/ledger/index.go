package ledger

import (
	"slices"

	"github.com/msahsan119/finman/internal/models"
)

// NodeIndex maps taxonomy node identifiers to the expense records attached
// to them. Orphan records are indexed under the empty identifier. Each record
// also gets an arrival number so index hits can be returned in collection
// order without walking the collection.
type NodeIndex struct {
	byNode map[string]map[*models.Expense]struct{}
	seq    map[*models.Expense]uint64
	next   uint64
}

func newNodeIndex() *NodeIndex {
	return &NodeIndex{
		byNode: make(map[string]map[*models.Expense]struct{}),
		seq:    make(map[*models.Expense]uint64),
	}
}

func (ix *NodeIndex) add(e *models.Expense) {
	if _, ok := ix.seq[e]; !ok {
		ix.seq[e] = ix.next
		ix.next++
	}
	ix.link(e)
}

func (ix *NodeIndex) remove(e *models.Expense) {
	ix.unlink(e)
	delete(ix.seq, e)
}

func (ix *NodeIndex) link(e *models.Expense) {
	set, ok := ix.byNode[e.NodeID]
	if !ok {
		set = make(map[*models.Expense]struct{})
		ix.byNode[e.NodeID] = set
	}
	set[e] = struct{}{}
}

func (ix *NodeIndex) unlink(e *models.Expense) {
	set := ix.byNode[e.NodeID]
	delete(set, e)
	if len(set) == 0 {
		delete(ix.byNode, e.NodeID)
	}
}

// move re-files e under nodeID, keeping its arrival number.
func (ix *NodeIndex) move(e *models.Expense, nodeID string) {
	if e.NodeID == nodeID {
		return
	}
	ix.unlink(e)
	e.NodeID = nodeID
	ix.link(e)
}

// Count returns the number of records attached to nodeID.
func (ix *NodeIndex) Count(nodeID string) int {
	return len(ix.byNode[nodeID])
}

// Contains reports whether e is indexed under its current node.
func (ix *NodeIndex) Contains(e *models.Expense) bool {
	_, ok := ix.byNode[e.NodeID][e]
	return ok
}

func (ix *NodeIndex) attachedTo(ids []string) map[*models.Expense]struct{} {
	out := make(map[*models.Expense]struct{})
	for _, id := range ids {
		for e := range ix.byNode[id] {
			out[e] = struct{}{}
		}
	}
	return out
}

// inOrder sorts set by arrival. Records are only ever appended and removal
// keeps relative order, so arrival order is collection order.
func (ix *NodeIndex) inOrder(set map[*models.Expense]struct{}) []*models.Expense {
	if len(set) == 0 {
		return nil
	}
	out := make([]*models.Expense, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *models.Expense) int {
		switch sa, sb := ix.seq[a], ix.seq[b]; {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	})
	return out
}
