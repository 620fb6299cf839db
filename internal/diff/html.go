package diff

import (
	"html"
	"strconv"
	"strings"
)

// RenderHTML renders files as table rows for embedding in a
// <table><tbody> element. Every piece of line content is escaped, and
// escapes, tabs and trailing whitespace are wrapped in spans so they can
// be styled.
func RenderHTML(files []File) string {
	var b strings.Builder
	for _, f := range files {
		if !f.TooLong {
			tag, label := "changed", "Changed"
			if f.IsNew {
				tag, label = "new", "New file"
			}
			b.WriteString(`<tr class="meta-file"><th colspan="3">`)
			b.WriteString(html.EscapeString(f.Name))
			b.WriteString(` <div class="file-tag file-` + tag + `">` + label + `</div></th></tr>`)
			b.WriteString(`<tr class="separator"></tr>`)
		}
		for _, l := range f.Lines {
			b.WriteString(`<tr class="line-` + l.Kind.String() + `"><td class="old">`)
			b.WriteString(lineNo(l.OldLineNo))
			b.WriteString(`</td><td class="new">`)
			b.WriteString(lineNo(l.NewLineNo))
			b.WriteString(`</td><td class="text">`)
			writeSegmentsHTML(&b, l.Segments)
			b.WriteString("</td></tr>")
		}
	}
	return b.String()
}

func writeSegmentsHTML(b *strings.Builder, segs []Segment) {
	for _, s := range segs {
		text := html.EscapeString(s.Text)
		switch s.Kind {
		case SegmentEscape:
			b.WriteString(`<span class="escape">` + text + `</span>`)
		case SegmentTab:
			b.WriteString(`<span class="tab">` + text + `</span>`)
		case SegmentTrailing:
			b.WriteString(`<span class="trailing">` + text + `</span>`)
		default:
			b.WriteString(text)
		}
	}
}

func lineNo(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
