package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/x.txt b/x.txt
index 3b18e51..a042389 100644
--- a/x.txt
+++ b/x.txt
@@ -1,2 +1,3 @@
 unchanged
-removed
+added
+added2
`

type numbered struct {
	kind     LineKind
	old, new int
}

func shape(lines []Line) []numbered {
	out := make([]numbered, len(lines))
	for i, l := range lines {
		out[i] = numbered{l.Kind, l.OldLineNo, l.NewLineNo}
	}
	return out
}

func TestRenderScenario(t *testing.T) {
	files := Render("diff --git a/x.txt b/x.txt\n@@ -1,2 +1,3 @@\n unchanged\n-removed\n+added\n+added2", false)

	require.Len(t, files, 1)
	assert.Equal(t, "x.txt", files[0].Name)
	lines := files[0].Lines
	require.Len(t, lines, 5)
	assert.Equal(t, LineHeader, lines[0].Kind)
	assert.Equal(t, []numbered{
		{LineUnchanged, 1, 1},
		{LineRemoved, 2, 0},
		{LineAdded, 0, 2},
		{LineAdded, 0, 3},
	}, shape(lines[1:]))
	assert.Equal(t, "unchanged", lines[1].Text)
	assert.Equal(t, "added2", lines[4].Text)
}

func TestRenderVerbose(t *testing.T) {
	isMeta := func(l Line) bool {
		return strings.HasPrefix(l.Text, "index ") || strings.HasPrefix(l.Text, "--- ") || strings.HasPrefix(l.Text, "+++ ")
	}

	quiet := Render(sampleDiff, false)
	require.Len(t, quiet, 1)
	for _, l := range quiet[0].Lines {
		assert.False(t, isMeta(l), "unexpected metadata line %q", l.Text)
	}

	verbose := Render(sampleDiff, true)
	require.Len(t, verbose, 1)
	var meta []string
	for _, l := range verbose[0].Lines {
		if l.Kind == LineMeta {
			meta = append(meta, l.Text)
		}
	}
	assert.Equal(t, []string{"index 3b18e51..a042389 100644", "--- a/x.txt", "+++ b/x.txt"}, meta)
}

func TestRenderRemovedLineLookingLikeHeader(t *testing.T) {
	files := Render("diff --git a/a b/a\n@@ -1 +0,0 @@\n--- not a header\n", false)
	require.Len(t, files, 1)
	require.Len(t, files[0].Lines, 2)
	assert.Equal(t, LineRemoved, files[0].Lines[1].Kind)
	assert.Equal(t, "-- not a header", files[0].Lines[1].Text)
	assert.Equal(t, 1, files[0].Lines[1].OldLineNo)
}

func TestRenderTooLong(t *testing.T) {
	var b strings.Builder
	b.WriteString("diff --git a/big b/big\n@@ -1,2001 +1,2001 @@\n")
	for i := 0; i < 2001; i++ {
		b.WriteString(" line\n")
	}

	files := Render(b.String(), false)
	require.Len(t, files, 1)
	assert.True(t, files[0].TooLong)
	require.Len(t, files[0].Lines, 1)
	assert.Equal(t, TooLongMessage, files[0].Lines[0].Text)

	t.Run("limit is configurable", func(t *testing.T) {
		files := Formatter{MaxLines: 3}.Render("a\nb\nc\nd", false)
		assert.True(t, files[0].TooLong)
		assert.Empty(t, Formatter{MaxLines: 4}.Render("a\nb\nc\nd", false))
	})
}

func TestRenderMultipleFilesAndEOF(t *testing.T) {
	text := "diff --git a/one.txt b/one.txt\n" +
		"new file mode 100644\n" +
		"index 0000000..e69de29\n" +
		"--- /dev/null\n" +
		"+++ b/one.txt\n" +
		"@@ -0,0 +1 @@\n" +
		"+first\n" +
		"\\ No newline at end of file\n" +
		"diff --git a/dir/two.txt b/dir/two.txt\n" +
		"@@ -10,3 +10,2 @@ func context()\n" +
		" keep\n" +
		"\n" +
		"-gone\n" +
		"diff --git a/img.png b/img.png\n" +
		"Binary files a/img.png and b/img.png differ\n"

	files := Render(text, false)
	require.Len(t, files, 3)

	assert.Equal(t, "one.txt", files[0].Name)
	assert.True(t, files[0].IsNew)
	assert.Equal(t, []numbered{{LineHeader, 0, 0}, {LineAdded, 0, 1}, {LineEOF, 0, 0}}, shape(files[0].Lines))

	assert.Equal(t, "dir/two.txt", files[1].Name)
	assert.False(t, files[1].IsNew)
	assert.Equal(t, []numbered{{LineHeader, 0, 0}, {LineUnchanged, 10, 10}, {LineUnchanged, 11, 11}, {LineRemoved, 12, 0}}, shape(files[1].Lines))

	require.Len(t, files[2].Lines, 1)
	assert.Equal(t, LineMeta, files[2].Lines[0].Kind)
}

func TestRenderQuotedName(t *testing.T) {
	files := Render(`diff --git "a/with space.txt" "b/with space.txt"`, false)
	require.Len(t, files, 1)
	assert.Equal(t, "with space.txt", files[0].Name)
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, Render("", false))
	assert.Empty(t, Render("garbage before any header\n@@ -1 +1 @@\n+x\n", false))
}

func TestRenderCombinedDiff(t *testing.T) {
	text := "diff --cc conflict.txt\n" +
		"index 1a2b3c4,5d6e7f8..0000000\n" +
		"--- a/conflict.txt\n" +
		"+++ b/conflict.txt\n" +
		"@@@ -1,3 -1,3 +1,7 @@@\n" +
		"  start\n" +
		"++<<<<<<< HEAD\n" +
		" +ours\n" +
		"++=======\n" +
		"+ theirs\n" +
		"++>>>>>>> feature\n" +
		"- old\n" +
		" - old2\n" +
		"  end\n" +
		"\\ No newline at end of file\n"

	files := Render(text, false)
	require.Len(t, files, 1)
	assert.Equal(t, "conflict.txt", files[0].Name)

	lines := files[0].Lines
	require.Len(t, lines, 11)
	assert.Equal(t, LineHeader, lines[0].Kind)
	assert.Equal(t, []numbered{
		{LineUnchanged, 1, 1},
		{LineAdded, 0, 2},
		{LineAdded, 0, 3},
		{LineAdded, 0, 4},
		{LineAdded, 0, 5},
		{LineAdded, 0, 6},
		{LineRemoved, 2, 0},
		{LineRemoved, 2, 0},
		{LineUnchanged, 3, 7},
	}, shape(lines[1:10]))
	assert.Equal(t, "ours", lines[3].Text)
	assert.Equal(t, "theirs", lines[5].Text)
	assert.Equal(t, LineEOF, lines[10].Kind)
}
