package ui

import (
	"fmt"
	"strings"

	"github.com/Akashdeep-Patra/gitsync/internal/diff"
	"github.com/Akashdeep-Patra/gitsync/internal/tree"
)

// RenderRow renders one tree row: indentation by depth, then a folder
// marker or a coloured status letter, then the name.
func RenderRow(styles Styles, n tree.Node, width int, selected bool) string {
	indent := strings.Repeat("  ", n.Depth)

	var label string
	if n.IsFolder() {
		marker := "▾"
		if !n.Expanded {
			marker = "▸"
		}
		label = styles.Folder.Render(marker + " " + n.Name + "/")
	} else {
		st, code := styles.FileStyle(n.Flags)
		stage := " "
		if n.Flags.IsStaged() {
			stage = styles.FileStaged.Render("●")
		}
		label = stage + st.Render(code) + " " + st.Render(n.Name)
	}

	row := indent + label
	if width <= 0 {
		return styles.ListItem.Render(row)
	}
	if selected {
		return styles.ListSelected.Render(Truncate("▸"+row, width-1))
	}
	return styles.ListItem.Render(Truncate(row, width-2))
}

// RenderTree renders every node without a selection. A width of zero
// disables truncation.
func RenderTree(styles Styles, nodes []tree.Node, width int) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(RenderRow(styles, n, width, false))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderDiff renders formatted diff files with line-number gutters.
func RenderDiff(styles Styles, files []diff.File) string {
	if len(files) == 0 {
		return styles.Muted.Render("No diff content")
	}
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n")
		}
		if f.TooLong {
			b.WriteString(styles.Muted.Render(diff.TooLongMessage))
			b.WriteString("\n")
			continue
		}

		tag := "Changed"
		switch {
		case f.IsNew:
			tag = "New file"
		case f.IsDeleted:
			tag = "Deleted"
		}
		b.WriteString(styles.DiffFile.Render(f.Name) + " " + styles.Muted.Render("("+tag+")"))
		b.WriteString("\n")

		for _, l := range f.Lines {
			b.WriteString(renderDiffLine(styles, l))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderDiffLine(styles Styles, l diff.Line) string {
	gutter := styles.DiffLineNum.Render(lineNo(l.OldLineNo)) + styles.DiffLineNum.Render(lineNo(l.NewLineNo)) + " "

	var body, sign = styles.DiffContext, " "
	switch l.Kind {
	case diff.LineHeader:
		return gutter + styles.DiffHunkHeader.Render(l.Text)
	case diff.LineMeta, diff.LineEOF:
		return gutter + styles.DiffMeta.Render(l.Text)
	case diff.LineAdded:
		body, sign = styles.DiffAdded, "+"
	case diff.LineRemoved:
		body, sign = styles.DiffRemoved, "-"
	}

	var b strings.Builder
	b.WriteString(gutter)
	b.WriteString(body.Render(sign))
	for _, seg := range l.Segments {
		switch seg.Kind {
		case diff.SegmentEscape:
			b.WriteString(styles.DiffEscape.Render(seg.Text))
		case diff.SegmentTrailing:
			b.WriteString(styles.DiffTrailing.Render(seg.Text))
		default:
			b.WriteString(body.Render(seg.Text))
		}
	}
	return b.String()
}

func lineNo(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}
