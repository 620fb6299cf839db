package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akashdeep-Patra/gitsync/internal/diff"
	"github.com/Akashdeep-Patra/gitsync/internal/git"
	"github.com/Akashdeep-Patra/gitsync/internal/tree"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "ab   ", PadRight("ab", 5))
}

func TestRenderRow(t *testing.T) {
	styles := DefaultStyles()

	folder := RenderRow(styles, tree.Node{Kind: tree.KindFolder, Name: "src", Path: "src", Expanded: true}, 40, false)
	assert.Contains(t, folder, "▾ src/")

	collapsed := RenderRow(styles, tree.Node{Kind: tree.KindFolder, Name: "src", Path: "src"}, 40, false)
	assert.Contains(t, collapsed, "▸ src/")

	file := RenderRow(styles, tree.Node{
		Kind:  tree.KindFile,
		Name:  "main.go",
		Path:  "src/main.go",
		Depth: 1,
		Flags: git.NewFlags(git.StatusStaged, git.StatusModified),
	}, 40, false)
	assert.Contains(t, file, "●")
	assert.Contains(t, file, "M")
	assert.Contains(t, file, "main.go")

	long := RenderRow(styles, tree.Node{Kind: tree.KindFile, Name: strings.Repeat("x", 100)}, 20, true)
	assert.LessOrEqual(t, lipgloss.Width(long), 20)
}

func TestRenderDiff(t *testing.T) {
	styles := DefaultStyles()
	assert.Contains(t, RenderDiff(styles, nil), "No diff content")

	files := diff.Render("diff --git a/x.txt b/x.txt\nnew file mode 100644\n@@ -0,0 +1,2 @@\n+one\n+two\t ", false)
	out := RenderDiff(styles, files)
	require.NotEmpty(t, out)
	assert.Contains(t, out, "x.txt")
	assert.Contains(t, out, "New file")
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "@@ -0,0 +1,2 @@")

	tooLong := RenderDiff(styles, []diff.File{{TooLong: true}})
	assert.Contains(t, tooLong, diff.TooLongMessage)
}
