// Package diff turns unified diff text into a line table that is safe to
// render: every retained line carries old/new line numbers and its
// content split into sanitized segments.
package diff

// LineKind classifies a rendered diff line.
type LineKind int

// Line kinds.
const (
	LineHeader    LineKind = iota // @@ -a,b +c,d @@ hunk header
	LineUnchanged                 // context line
	LineAdded
	LineRemoved
	LineEOF  // \ No newline at end of file
	LineMeta // index/---/+++ and other extended headers (verbose only)
)

// String returns the lower-case kind name.
func (k LineKind) String() string {
	switch k {
	case LineHeader:
		return "header"
	case LineUnchanged:
		return "unchanged"
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	case LineEOF:
		return "eof"
	case LineMeta:
		return "meta"
	default:
		return ""
	}
}

// SegmentKind classifies a piece of sanitized line content.
type SegmentKind int

// Segment kinds.
const (
	SegmentText     SegmentKind = iota // printable Basic Latin text
	SegmentEscape                      // <U+XXXX> stand-in for a hidden or non-ASCII rune
	SegmentTab                         // expanded tab placeholder
	SegmentTrailing                    // trailing whitespace run
)

// Segment is a run of sanitized content.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Line is a single retained diff line. Line numbers start at 1; zero
// means the number is not reported for this kind of line.
type Line struct {
	OldLineNo int
	NewLineNo int
	Kind      LineKind
	Text      string // Sanitized plain text, the concatenation of Segments.
	Segments  []Segment
}

// File is the rendered diff of one path.
type File struct {
	Name      string
	IsNew     bool
	IsDeleted bool
	TooLong   bool // Placeholder returned by the size guard.
	Lines     []Line
}
