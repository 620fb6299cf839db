package diff

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const byteOrderMark = '\uFEFF'

// Sanitize splits line content into display-safe segments. Byte order
// marks are dropped, tabs become tabWidth spaces, runes outside printable
// Basic Latin become <U+XXXX> escapes and the trailing whitespace run is
// isolated so it can be highlighted.
func Sanitize(content string, tabWidth int) []Segment {
	if tabWidth < 1 {
		tabWidth = DefaultTabWidth
	}
	content = strings.ReplaceAll(content, string(byteOrderMark), "")
	if content == "" {
		return nil
	}

	body := strings.TrimRight(content, " \t")
	trailing := content[len(body):]
	tab := strings.Repeat(" ", tabWidth)

	var segs []Segment
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			segs = append(segs, Segment{Kind: SegmentText, Text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(body); {
		r, size := utf8.DecodeRuneInString(body[i:])
		i += size
		switch {
		case r == '\t':
			flush()
			segs = append(segs, Segment{Kind: SegmentTab, Text: tab})
		case r < 0x20 || r >= 0x7F:
			flush()
			segs = append(segs, Segment{Kind: SegmentEscape, Text: escapeRune(r)})
		default:
			text.WriteRune(r)
		}
	}
	flush()

	if trailing != "" {
		segs = append(segs, Segment{
			Kind: SegmentTrailing,
			Text: strings.ReplaceAll(trailing, "\t", tab),
		})
	}
	return segs
}

// escapeRune renders r as a visible code point marker. Invalid UTF-8
// decodes to utf8.RuneError and is shown as <U+FFFD>.
func escapeRune(r rune) string {
	return fmt.Sprintf("<U+%04X>", r)
}

// joinSegments concatenates segment texts.
func joinSegments(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}
