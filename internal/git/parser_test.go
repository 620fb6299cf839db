package git

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusScenario(t *testing.T) {
	parsed := ParseStatus("## master\n M foo.txt\nA  bar.txt\n?? baz.txt", true)

	assert.Equal(t, "master", parsed.Branch)
	assert.Empty(t, parsed.NeedReconcile)
	require.Len(t, parsed.Entries, 3)
	assert.Equal(t, StatusEntry{Path: "foo.txt", DisplayPath: "foo.txt", Flags: NewFlags(StatusModified)}, parsed.Entries[0])
	assert.Equal(t, StatusEntry{Path: "bar.txt", DisplayPath: "bar.txt", Flags: NewFlags(StatusStaged, StatusAdded)}, parsed.Entries[1])
	assert.Equal(t, StatusEntry{Path: "baz.txt", DisplayPath: "baz.txt", Flags: NewFlags(StatusUntracked)}, parsed.Entries[2])
}

func TestParseStatusSingleColumnTable(t *testing.T) {
	columns := map[byte]FileStatusKind{
		' ': StatusUnmodified,
		'!': StatusIgnored,
		'?': StatusUntracked,
		'M': StatusModified,
		'A': StatusAdded,
		'D': StatusDeleted,
		'R': StatusRenamed,
		'C': StatusCopied,
		'U': StatusUnmerged,
	}
	passive := []byte{' ', '?'}

	for c0, k0 := range columns {
		for c1, k1 := range columns {
			line := string([]byte{c0, c1}) + " file.txt"
			t.Run(line, func(t *testing.T) {
				parsed := ParseStatus(line, false)
				c0Passive := c0 == passive[0] || c0 == passive[1]
				c1Passive := c1 == passive[0] || c1 == passive[1]

				switch {
				case !c0Passive && !c1Passive:
					assert.Empty(t, parsed.Entries)
					assert.Equal(t, []string{"file.txt"}, parsed.NeedReconcile)
				case !c0Passive:
					require.Len(t, parsed.Entries, 1)
					assert.Equal(t, NewFlags(StatusStaged, k0), parsed.Entries[0].Flags)
					assert.Empty(t, parsed.NeedReconcile)
				default:
					require.Len(t, parsed.Entries, 1)
					assert.Equal(t, NewFlags(k1), parsed.Entries[0].Flags)
					assert.Empty(t, parsed.NeedReconcile)
				}
			})
		}
	}
}

func TestParseStatusRenames(t *testing.T) {
	t.Run("staged rename", func(t *testing.T) {
		parsed := ParseStatus(`R  "old name.txt" -> "new name.txt"`, false)
		require.Len(t, parsed.Entries, 1)
		assert.Equal(t, "new name.txt", parsed.Entries[0].Path)
		assert.Equal(t, "old name.txt -> new name.txt", parsed.Entries[0].DisplayPath)
		assert.Equal(t, NewFlags(StatusStaged, StatusRenamed), parsed.Entries[0].Flags)
	})

	t.Run("renamed then edited needs reconcile", func(t *testing.T) {
		parsed := ParseStatus("RM old.txt -> dir/new.txt", false)
		assert.Empty(t, parsed.Entries)
		assert.Equal(t, []string{"dir/new.txt"}, parsed.NeedReconcile)
	})
}

func TestParseStatusBranchHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"plain", "## master", "master"},
		{"tracking", "## feature/x...origin/feature/x [ahead 2]", "feature/x"},
		{"initial commit", "## Initial commit on main", "main"},
		{"no commits yet", "## No commits yet on trunk", "trunk"},
		{"dotted stops at dot", "## release.1", "release"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.header+"\n", true).Branch)
		})
	}

	t.Run("header ignored when not requested", func(t *testing.T) {
		parsed := ParseStatus("## master\n M a.txt", false)
		assert.Empty(t, parsed.Branch)
		// "## master" is parsed as a status line with a dual state.
		assert.Equal(t, []string{"master"}, parsed.NeedReconcile)
		require.Len(t, parsed.Entries, 1)
	})
}

func TestParseStatusSkipsMalformed(t *testing.T) {
	parsed := ParseStatus("\nM\n??\n M ok.txt\r\n", false)
	require.Len(t, parsed.Entries, 1)
	assert.Equal(t, "ok.txt", parsed.Entries[0].Path)
}

func TestParseBranches(t *testing.T) {
	out := "  develop\n* main\n  remotes/origin/HEAD -> origin/main\n  remotes/origin/main\n"
	branches := ParseBranches(out)

	require.Len(t, branches, 3)
	assert.Equal(t, Branch{Name: "develop"}, branches[0])
	assert.Equal(t, Branch{Name: "main", IsCurrent: true}, branches[1])
	assert.Equal(t, Branch{Name: "origin/main", Remote: "origin"}, branches[2])
	assert.Equal(t, "main", CurrentBranch(branches))

	t.Run("empty repository assumes master", func(t *testing.T) {
		assert.Equal(t, []Branch{{Name: "master", IsCurrent: true}}, ParseBranches(""))
	})
}

func TestParseRemoteBranches(t *testing.T) {
	out := "  origin/HEAD -> origin/main\n  origin/main\n  origin/dev\n  upstream/main\n"
	assert.Equal(t, []string{"main", "dev"}, ParseRemoteBranches(out, "origin"))
}

func TestParseRemotes(t *testing.T) {
	out := "upstream\tgit@example.com:u/r.git (fetch)\n" +
		"upstream\tgit@example.com:u/r.git (push)\n" +
		"backup\t/srv/backup.git (fetch)\n" +
		"origin\thttps://example.com/r.git (fetch)\n"

	remotes := ParseRemotes(out)
	require.Len(t, remotes, 3)
	assert.Equal(t, Remote{Name: "origin", URL: "https://example.com/r.git"}, remotes[0])
	assert.Equal(t, "backup", remotes[1].Name)
	assert.Equal(t, "upstream", remotes[2].Name)

	assert.Equal(t, 0, RemoteInsertIndex(remotes, Remote{Name: "origin"}))
	assert.Equal(t, 1, RemoteInsertIndex(remotes, Remote{Name: "backup"}))
	assert.Equal(t, 2, RemoteInsertIndex(remotes, Remote{Name: "upstream"}))
	assert.Equal(t, 2, RemoteInsertIndex(remotes, Remote{Name: "fork"}))
	assert.Equal(t, 3, RemoteInsertIndex(remotes, Remote{Name: "zeta"}))
}

func TestFlags(t *testing.T) {
	f := NewFlags(StatusStaged, StatusAdded)

	assert.True(t, f.IsStaged())
	assert.Equal(t, StatusAdded, f.Primary())
	assert.Equal(t, "STAGED|ADDED", f.String())
	assert.True(t, f.CanDelete())
	assert.False(t, f.CanUndo())
	assert.True(t, f.CanDiff())

	assert.False(t, NewFlags(StatusUntracked).CanDiff())
	assert.True(t, NewFlags(StatusUntracked).CanDelete())
	assert.True(t, NewFlags(StatusModified).CanUndo())
	assert.Equal(t, NewFlags(StatusModified), f.Without(StatusStaged).Without(StatusAdded).With(StatusModified))
	assert.Equal(t, "New file", StatusAdded.Label())
}
