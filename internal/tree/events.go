package tree

// Every event carries Seq, the model revision right after the change.

// Added is emitted after a node has been inserted at Index.
type Added struct {
	Node  Node
	Index int
	Seq   uint64
}

// Removed is emitted for a node that was at Index before its removal.
type Removed struct {
	Node  Node
	Index int
	Seq   uint64
}

// Updated is emitted after a node's flags or expansion changed in place.
type Updated struct {
	Node  Node
	Index int
	Seq   uint64
}

// Reset is emitted when the model was cleared for a bulk rebuild. Item
// events are suppressed until the matching Rebuilt.
type Reset struct{ Seq uint64 }

// Rebuilt is emitted at the end of the first sync after a Reset.
type Rebuilt struct{ Seq uint64 }

func (Added) EventName() string   { return "item.add" }
func (Removed) EventName() string { return "item.remove" }
func (Updated) EventName() string { return "item.update" }
func (Reset) EventName() string   { return "tree.reset" }
func (Rebuilt) EventName() string { return "tree.rebuilt" }
