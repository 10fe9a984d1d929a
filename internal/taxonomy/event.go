package taxonomy

// EventKind names a structural edit.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventRenamed EventKind = "renamed"
	EventDeleted EventKind = "deleted"
)

// Event describes a completed structural edit. Rename and delete events must
// be handed to the cascade before the edit is considered done.
type Event struct {
	Kind     EventKind
	Level    Level
	Path     Path // path before the edit
	NewName  string
	NodeID   string
	ParentID string
	// Subtree holds the IDs of the node and all its descendants.
	Subtree []string
}
