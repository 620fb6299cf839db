package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Segment
	}{
		{"plain", "hello", []Segment{{SegmentText, "hello"}}},
		{"empty", "", nil},
		{"bom stripped", "\uFEFFpackage main", []Segment{{SegmentText, "package main"}}},
		{"zero width space", "a\u200Bb", []Segment{
			{SegmentText, "a"}, {SegmentEscape, "<U+200B>"}, {SegmentText, "b"},
		}},
		{"non ascii", "café", []Segment{{SegmentText, "caf"}, {SegmentEscape, "<U+00E9>"}}},
		{"control", "a\x1b[31m", []Segment{{SegmentText, "a"}, {SegmentEscape, "<U+001B>"}, {SegmentText, "[31m"}}},
		{"invalid utf8", "a\xff", []Segment{{SegmentText, "a"}, {SegmentEscape, "<U+FFFD>"}}},
		{"tab", "\tx", []Segment{{SegmentTab, "    "}, {SegmentText, "x"}}},
		{"trailing", "x = 1 \t", []Segment{{SegmentText, "x = 1"}, {SegmentTrailing, "     "}}},
		{"whitespace only", "  ", []Segment{{SegmentTrailing, "  "}}},
		{"markup kept verbatim", "<b>&</b>", []Segment{{SegmentText, "<b>&</b>"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in, 4))
		})
	}
}

func TestSanitizeTabWidth(t *testing.T) {
	assert.Equal(t, []Segment{{SegmentTab, "  "}, {SegmentText, "x"}}, Sanitize("\tx", 2))
	assert.Equal(t, []Segment{{SegmentTab, "    "}, {SegmentText, "x"}}, Sanitize("\tx", 0))
}

func TestRenderHTML(t *testing.T) {
	files := Render("diff --git a/<x>.txt b/<x>.txt\nnew file mode 100644\n@@ -0,0 +1 @@\n+<script>é \n", false)
	out := RenderHTML(files)

	assert.Contains(t, out, `<th colspan="3">&lt;x&gt;.txt <div class="file-tag file-new">New file</div></th>`)
	assert.Contains(t, out, `<tr class="line-added"><td class="old"></td><td class="new">1</td>`)
	assert.Contains(t, out, `&lt;script&gt;<span class="escape">&lt;U+00E9&gt;</span><span class="trailing"> </span>`)
	assert.NotContains(t, out, "<script>")
}
