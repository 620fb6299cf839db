package git

import "strings"

// FileStatusKind is a single state a tracked path can be in.
type FileStatusKind uint16

// File status kinds. StatusStaged composes with exactly one of the others.
const (
	StatusStaged FileStatusKind = 1 << iota
	StatusUnmodified
	StatusIgnored
	StatusUntracked
	StatusModified
	StatusAdded
	StatusDeleted
	StatusRenamed
	StatusCopied
	StatusUnmerged
)

// allKinds lists every kind in declaration order.
var allKinds = []FileStatusKind{
	StatusStaged,
	StatusUnmodified,
	StatusIgnored,
	StatusUntracked,
	StatusModified,
	StatusAdded,
	StatusDeleted,
	StatusRenamed,
	StatusCopied,
	StatusUnmerged,
}

// String returns the upper-case name of the kind.
func (k FileStatusKind) String() string {
	switch k {
	case StatusStaged:
		return "STAGED"
	case StatusUnmodified:
		return "UNMODIFIED"
	case StatusIgnored:
		return "IGNORED"
	case StatusUntracked:
		return "UNTRACKED"
	case StatusModified:
		return "MODIFIED"
	case StatusAdded:
		return "ADDED"
	case StatusDeleted:
		return "DELETED"
	case StatusRenamed:
		return "RENAMED"
	case StatusCopied:
		return "COPIED"
	case StatusUnmerged:
		return "UNMERGED"
	default:
		return ""
	}
}

// Label returns a human-readable description of the kind.
func (k FileStatusKind) Label() string {
	switch k {
	case StatusStaged:
		return "Staged"
	case StatusUnmodified:
		return "Unmodified"
	case StatusIgnored:
		return "Ignored"
	case StatusUntracked:
		return "Untracked"
	case StatusModified:
		return "Modified"
	case StatusAdded:
		return "New file"
	case StatusDeleted:
		return "Deleted"
	case StatusRenamed:
		return "Renamed"
	case StatusCopied:
		return "Copied"
	case StatusUnmerged:
		return "Unmerged"
	default:
		return ""
	}
}

// Flags is a closed set of FileStatusKind values.
type Flags uint16

// NewFlags builds a set from the given kinds.
func NewFlags(kinds ...FileStatusKind) Flags {
	var f Flags
	for _, k := range kinds {
		f |= Flags(k)
	}
	return f
}

// Has reports whether k is in the set.
func (f Flags) Has(k FileStatusKind) bool { return f&Flags(k) != 0 }

// With returns a copy of the set with k added.
func (f Flags) With(k FileStatusKind) Flags { return f | Flags(k) }

// Without returns a copy of the set with k removed.
func (f Flags) Without(k FileStatusKind) Flags { return f &^ Flags(k) }

// Kinds returns the members of the set in declaration order.
func (f Flags) Kinds() []FileStatusKind {
	out := make([]FileStatusKind, 0, 2)
	for _, k := range allKinds {
		if f.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Primary returns the non-staged kind of the set, or 0 if there is none.
func (f Flags) Primary() FileStatusKind {
	for _, k := range allKinds[1:] {
		if f.Has(k) {
			return k
		}
	}
	return 0
}

// IsStaged reports whether the path has staged changes.
func (f Flags) IsStaged() bool { return f.Has(StatusStaged) }

// CanDiff reports whether a textual diff is meaningful for the path.
func (f Flags) CanDiff() bool {
	return !f.Has(StatusUntracked) && !f.Has(StatusRenamed) && !f.Has(StatusDeleted)
}

// CanDelete reports whether discarding the path removes it from disk.
func (f Flags) CanDelete() bool {
	return f.Has(StatusUntracked) || (f.Has(StatusStaged) && f.Has(StatusAdded))
}

// CanUndo reports whether discarding the path restores its committed content.
func (f Flags) CanUndo() bool { return !f.CanDelete() }

// String renders the set as "STAGED|ADDED".
func (f Flags) String() string {
	kinds := f.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}

// StatusEntry is a single path reported by git status.
type StatusEntry struct {
	Path        string
	DisplayPath string // "old -> new" for renames, otherwise Path.
	Flags       Flags
}

// ParsedStatus is the result of parsing one porcelain status query.
type ParsedStatus struct {
	Branch        string // Empty when no branch header was parsed.
	Entries       []StatusEntry
	NeedReconcile []string
}

// Branch is a local or remote-tracking branch.
type Branch struct {
	Name      string
	Remote    string
	IsCurrent bool
}

// IsMaster reports whether this is the conventional default branch.
func (b Branch) IsMaster() bool { return b.Name == "master" }

// Remote is a configured git remote.
type Remote struct {
	Name       string
	URL        string
	IsSelected bool
}

// IsOrigin reports whether this is the conventional default remote.
func (r Remote) IsOrigin() bool { return r.Name == "origin" }
