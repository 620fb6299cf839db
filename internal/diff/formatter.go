package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// Defaults used by Render.
const (
	DefaultMaxLines = 2000
	DefaultTabWidth = 4
)

// TooLongMessage is the text of the placeholder returned for oversized diffs.
const TooLongMessage = "diff is too long"

var (
	hunkRe = regexp.MustCompile(`^@@ -(\d+)(?:,\d+)? \+(\d+)(?:,\d+)? @@`)
	// Combined hunks, as printed for unmerged paths: one "-" range per parent.
	combinedHunkRe = regexp.MustCompile(`^(@{3,}) -(\d+)(?:,\d+)?(?: -\d+(?:,\d+)?)* \+(\d+)(?:,\d+)? @{3,}`)
)

// Formatter renders unified diff text. The zero value uses the defaults.
type Formatter struct {
	MaxLines int // Inputs with more lines yield a placeholder.
	TabWidth int
}

// Render formats diffText with the default Formatter.
func Render(diffText string, verbose bool) []File {
	return Formatter{}.Render(diffText, verbose)
}

// Render parses the output of `git diff` into per-file line tables.
// Extended headers are only retained when verbose is set.
func (f Formatter) Render(diffText string, verbose bool) []File {
	maxLines := f.MaxLines
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	raw := strings.Split(strings.TrimSuffix(diffText, "\n"), "\n")
	if diffText == "" {
		raw = nil
	}
	if len(raw) > maxLines {
		return []File{tooLong()}
	}

	p := parser{tabWidth: f.TabWidth, verbose: verbose}
	for _, line := range raw {
		p.feed(strings.TrimSuffix(line, "\r"))
	}
	return p.files
}

func tooLong() File {
	return File{
		TooLong: true,
		Lines: []Line{{
			Kind:     LineHeader,
			Text:     TooLongMessage,
			Segments: []Segment{{Kind: SegmentText, Text: TooLongMessage}},
		}},
	}
}

// parser is the line-kind state machine behind Render.
type parser struct {
	tabWidth int
	verbose  bool

	files  []File
	cur    *File
	inHunk bool
	cols   int // prefix columns per line: 1, or one per parent in combined diffs
	oldNo  int
	newNo  int
}

func (p *parser) feed(line string) {
	if name, ok := fileStart(line); ok {
		p.files = append(p.files, File{Name: name})
		p.cur = &p.files[len(p.files)-1]
		p.inHunk = false
		return
	}
	if p.cur == nil {
		return
	}

	if m := hunkRe.FindStringSubmatch(line); m != nil {
		p.startHunk(line, m[1], m[2], 1)
		return
	}
	if m := combinedHunkRe.FindStringSubmatch(line); m != nil {
		p.startHunk(line, m[2], m[3], len(m[1])-1)
		return
	}

	if !p.inHunk {
		p.header(line)
		return
	}

	if p.cols > 1 {
		p.combined(line)
		return
	}

	switch {
	case strings.HasPrefix(line, "+"):
		p.newNo++
		p.emit(LineAdded, line[1:], 0, p.newNo)
	case strings.HasPrefix(line, "-"):
		p.oldNo++
		p.emit(LineRemoved, line[1:], p.oldNo, 0)
	case line == "" || strings.HasPrefix(line, " "):
		p.oldNo++
		p.newNo++
		p.emit(LineUnchanged, strings.TrimPrefix(line, " "), p.oldNo, p.newNo)
	case strings.HasPrefix(line, `\`):
		p.emit(LineEOF, line, 0, 0)
	case p.verbose:
		p.emit(LineMeta, line, 0, 0)
	}
}

func (p *parser) startHunk(line, oldStart, newStart string, cols int) {
	o, _ := strconv.Atoi(oldStart)
	n, _ := strconv.Atoi(newStart)
	p.oldNo, p.newNo = o-1, n-1
	p.cols = cols
	p.inHunk = true
	p.emit(LineHeader, line, 0, 0)
}

// combined classifies a combined-diff line by its per-parent columns. Old
// line numbers follow the first parent.
func (p *parser) combined(line string) {
	if strings.HasPrefix(line, `\`) {
		p.emit(LineEOF, line, 0, 0)
		return
	}
	prefix, content := line, ""
	if len(line) >= p.cols {
		prefix, content = line[:p.cols], line[p.cols:]
	}
	switch {
	case strings.Contains(prefix, "+"):
		p.newNo++
		p.emit(LineAdded, content, 0, p.newNo)
	case strings.Contains(prefix, "-"):
		if prefix[0] == '-' {
			p.oldNo++
		}
		p.emit(LineRemoved, content, p.oldNo, 0)
	case strings.TrimSpace(prefix) == "":
		p.oldNo++
		p.newNo++
		p.emit(LineUnchanged, content, p.oldNo, p.newNo)
	case p.verbose:
		p.emit(LineMeta, line, 0, 0)
	}
}

// header handles an extended header line between "diff --git" and the
// first hunk.
func (p *parser) header(line string) {
	switch {
	case strings.HasPrefix(line, "new file mode"):
		p.cur.IsNew = true
	case strings.HasPrefix(line, "deleted file mode"):
		p.cur.IsDeleted = true
	case strings.HasPrefix(line, "Binary files "):
		p.emit(LineMeta, line, 0, 0)
		return
	}
	if line == "" || !p.verbose {
		return
	}
	p.emit(LineMeta, line, 0, 0)
}

func (p *parser) emit(kind LineKind, content string, oldNo, newNo int) {
	segs := Sanitize(content, p.tabWidth)
	p.cur.Lines = append(p.cur.Lines, Line{
		OldLineNo: oldNo,
		NewLineNo: newNo,
		Kind:      kind,
		Text:      joinSegments(segs),
		Segments:  segs,
	})
}

// fileStart reports whether line opens a new file section and returns its
// path. Unmerged paths are introduced by "diff --cc" or "diff --combined".
func fileStart(line string) (string, bool) {
	if strings.HasPrefix(line, "diff --git ") {
		return fileName(line), true
	}
	for _, prefix := range []string{"diff --cc ", "diff --combined "} {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.Trim(rest, `"`), true
		}
	}
	return "", false
}

// fileName extracts the path following "b/" in a "diff --git" line.
func fileName(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	if i := strings.LastIndex(rest, ` "b/`); i != -1 {
		return strings.TrimSuffix(rest[i+len(` "b/`):], `"`)
	}
	if i := strings.LastIndex(rest, " b/"); i != -1 {
		return rest[i+len(" b/"):]
	}
	return rest
}
