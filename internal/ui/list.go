package ui

import (
	"strings"

	"github.com/Akashdeep-Patra/gitsync/internal/event"
	"github.com/Akashdeep-Patra/gitsync/internal/tree"
)

// List mirrors the working-tree model as a flat pre-order row slice. It
// is kept current by applying the model's positional events.
type List struct {
	rows []tree.Node
	rev  uint64 // model revision the rows reflect
}

// NewList returns a list holding nodes taken at revision rev.
func NewList(nodes []tree.Node, rev uint64) *List {
	l := &List{}
	l.Reload(nodes, rev)
	return l
}

// Reload replaces every row with nodes taken at revision rev.
func (l *List) Reload(nodes []tree.Node, rev uint64) {
	l.rows = append(l.rows[:0], nodes...)
	l.rev = rev
}

// Revision returns the model revision the rows reflect.
func (l *List) Revision() uint64 { return l.rev }

// Apply splices one tree event into the list. Events the rows already
// reflect are skipped. It reports false when the event does not fit the
// current rows, in which case the caller should Reload.
func (l *List) Apply(e event.Event) bool {
	seq, ok := itemSeq(e)
	if !ok {
		return false
	}
	if seq <= l.rev {
		return true
	}
	if !l.splice(e) {
		return false
	}
	l.rev = seq
	return true
}

func itemSeq(e event.Event) (uint64, bool) {
	switch e := e.(type) {
	case tree.Added:
		return e.Seq, true
	case tree.Removed:
		return e.Seq, true
	case tree.Updated:
		return e.Seq, true
	default:
		return 0, false
	}
}

func (l *List) splice(e event.Event) bool {
	switch e := e.(type) {
	case tree.Added:
		if e.Index < 0 || e.Index > len(l.rows) {
			return false
		}
		l.rows = append(l.rows, tree.Node{})
		copy(l.rows[e.Index+1:], l.rows[e.Index:])
		l.rows[e.Index] = e.Node
	case tree.Removed:
		if !l.matches(e.Index, e.Node) {
			return false
		}
		l.rows = append(l.rows[:e.Index], l.rows[e.Index+1:]...)
	case tree.Updated:
		if !l.matches(e.Index, e.Node) {
			return false
		}
		l.rows[e.Index] = e.Node
	default:
		return false
	}
	return true
}

func (l *List) matches(i int, n tree.Node) bool {
	return i >= 0 && i < len(l.rows) && l.rows[i].ID == n.ID
}

// Len returns the number of rows, hidden ones included.
func (l *List) Len() int { return len(l.rows) }

// Rows returns the rows in pre-order.
func (l *List) Rows() []tree.Node { return l.rows }

// Visible returns the rows not inside a collapsed folder.
func (l *List) Visible() []tree.Node {
	out := make([]tree.Node, 0, len(l.rows))
	collapsed := ""
	for _, n := range l.rows {
		if collapsed != "" && strings.HasPrefix(n.Path, collapsed) {
			continue
		}
		collapsed = ""
		out = append(out, n)
		if n.IsFolder() && !n.Expanded {
			collapsed = n.Path + "/"
		}
	}
	return out
}
