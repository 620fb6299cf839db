package repo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akashdeep-Patra/gitsync/internal/event"
	"github.com/Akashdeep-Patra/gitsync/internal/git"
	"github.com/Akashdeep-Patra/gitsync/internal/tree"
)

// fakeRunner records every command and answers through fn.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fn    func(argv []string) (string, error)
}

func (f *fakeRunner) Execute(_ context.Context, _, _ string, argv []string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, strings.Join(argv, " "))
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return "", nil
	}
	return fn(argv)
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRunner) count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// script answers commands by their space-joined argv.
func script(outputs map[string]string) func([]string) (string, error) {
	return func(argv []string) (string, error) {
		return outputs[strings.Join(argv, " ")], nil
	}
}

const sampleStatus = "## master\n M foo.txt\nA  bar.txt\n?? baz.txt"

func newRepo(t *testing.T, fn func([]string) (string, error)) (*Repository, *fakeRunner) {
	t.Helper()
	runner := &fakeRunner{fn: fn}
	r := New(Options{WorkspaceID: "ws", Dir: "/work", Runner: runner})
	t.Cleanup(r.Close)
	return r, runner
}

func loaded(t *testing.T, extra map[string]string) (*Repository, *fakeRunner) {
	t.Helper()
	outputs := map[string]string{"status -u -b --porcelain": sampleStatus}
	for k, v := range extra {
		outputs[k] = v
	}
	r, runner := newRepo(t, script(outputs))
	require.NoError(t, r.Status(context.Background(), false))
	return r, runner
}

func names(events []event.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.EventName()
	}
	return out
}

func subscribe(r *Repository) *[]event.Event {
	var mu sync.Mutex
	events := &[]event.Event{}
	r.Bus().Subscribe(func(e event.Event) {
		mu.Lock()
		*events = append(*events, e)
		mu.Unlock()
	})
	return events
}

func filePaths(m *tree.Model) []string {
	var out []string
	for _, n := range m.Files() {
		out = append(out, n.Path)
	}
	return out
}

func TestStatusLoadsState(t *testing.T) {
	r, _ := newRepo(t, script(map[string]string{"status -u -b --porcelain": sampleStatus}))
	events := subscribe(r)
	assert.Equal(t, Loading, r.State())

	require.NoError(t, r.Status(context.Background(), false))

	assert.Equal(t, Initialised, r.State())
	assert.Equal(t, "master", r.CurrentBranch())
	assert.Equal(t, []string{"bar.txt", "baz.txt", "foo.txt"}, filePaths(r.Tree()))

	n, ok := r.Tree().Node("bar.txt")
	require.True(t, ok)
	assert.Equal(t, git.NewFlags(git.StatusStaged, git.StatusAdded), n.Flags)

	assert.Equal(t, []string{"state", "branch", "item.add", "item.add", "item.add", "update"}, names(*events))
}

func TestHardStatusRebuilds(t *testing.T) {
	r, _ := loaded(t, nil)
	events := subscribe(r)

	require.NoError(t, r.Status(context.Background(), true))

	assert.Equal(t, []string{"state", "tree.reset", "update", "state", "tree.rebuilt", "update"}, names(*events))
	assert.Equal(t, 3, r.Tree().Len())
}

func TestStatusFailure(t *testing.T) {
	cmdErr := git.NewCommandError([]string{"status"}, "fatal: not a git repository", errors.New("exit status 128"))
	r, _ := newRepo(t, func([]string) (string, error) { return "", cmdErr })

	err := r.Status(context.Background(), false)

	var ce *git.CommandError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "not a git repository", ce.Error())
	assert.Equal(t, NotInitialised, r.State())
	assert.Equal(t, err, r.LastError())
}

func TestReconcile(t *testing.T) {
	r, runner := newRepo(t, script(map[string]string{
		"status -u -b --porcelain":       "## main\nRM a.txt -> b.txt\n M c.txt",
		"status -u --porcelain -- b.txt": "?? b.txt",
		"reset -- b.txt":                 "",
	}))

	require.NoError(t, r.Status(context.Background(), false))

	assert.Equal(t, []string{
		"status -u -b --porcelain",
		"reset -- b.txt",
		"status -u --porcelain -- b.txt",
	}, runner.Calls())
	assert.Equal(t, []string{"b.txt", "c.txt"}, filePaths(r.Tree()))
	n, _ := r.Tree().Node("b.txt")
	assert.Equal(t, git.NewFlags(git.StatusUntracked), n.Flags)
}

func TestReconcileExhausted(t *testing.T) {
	runner := &fakeRunner{fn: func(argv []string) (string, error) {
		if argv[0] == "status" {
			return "MM x.txt\n M y.txt", nil
		}
		return "", nil
	}}
	r := New(Options{Runner: runner, MaxReconcilePasses: 3})
	defer r.Close()

	err := r.StatusFiles(context.Background(), "x.txt", "y.txt")

	require.ErrorIs(t, err, ErrReconcileExhausted)
	var re *ReconcileError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"x.txt"}, re.Paths)
	assert.Equal(t, 3, re.Passes)
	assert.Equal(t, 3, runner.count("reset --"))
	assert.Equal(t, []string{"y.txt"}, filePaths(r.Tree()))
}

func TestStatusCoalesced(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	r, runner := newRepo(t, func(argv []string) (string, error) {
		once.Do(func() { close(started) })
		<-release
		return sampleStatus, nil
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); assert.NoError(t, r.Status(context.Background(), false)) }()
	<-started
	go func() { defer wg.Done(); assert.NoError(t, r.Status(context.Background(), false)) }()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, runner.count("status"))
}

func TestCommandsAreSerialized(t *testing.T) {
	var inflight, peak int32
	r, _ := newRepo(t, func([]string) (string, error) {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return "", nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.FetchRemote(context.Background(), "origin"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestGateHonoursContext(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	r, _ := newRepo(t, func([]string) (string, error) {
		close(started)
		<-release
		return "", nil
	})
	go func() { _ = r.FetchRemote(context.Background(), "origin") }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.FetchRemote(ctx, "origin")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
}

func TestCloseDiscardsLateResults(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	r, _ := loaded(t, nil)
	r.runner = &fakeRunner{fn: func([]string) (string, error) {
		close(started)
		<-release
		return "M  foo.txt", nil
	}}
	events := subscribe(r)

	done := make(chan error, 1)
	go func() { done <- r.Stage(context.Background(), "foo.txt") }()
	<-started
	r.Close()
	close(release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.Empty(t, *events)
	assert.Equal(t, 0, r.Bus().Len())
	n, _ := r.Tree().Node("foo.txt")
	assert.False(t, n.Flags.IsStaged())

	assert.ErrorIs(t, r.Status(context.Background(), false), ErrClosed)
	_, err := r.Diff(context.Background(), "foo.txt", false)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestToggleStage(t *testing.T) {
	r, runner := loaded(t, map[string]string{
		"status -u --porcelain -- foo.txt": "M  foo.txt",
		"status -u --porcelain -- bar.txt": "?? bar.txt",
	})
	ctx := context.Background()

	require.NoError(t, r.ToggleStage(ctx, "foo.txt"))
	n, _ := r.Tree().Node("foo.txt")
	assert.Equal(t, git.NewFlags(git.StatusStaged, git.StatusModified), n.Flags)

	require.NoError(t, r.ToggleStage(ctx, "bar.txt"))
	n, _ = r.Tree().Node("bar.txt")
	assert.Equal(t, git.NewFlags(git.StatusUntracked), n.Flags)

	assert.Equal(t, []string{
		"status -u -b --porcelain",
		"add -A -- foo.txt",
		"status -u --porcelain -- foo.txt",
		"reset -- bar.txt",
		"status -u --porcelain -- bar.txt",
	}, runner.Calls())

	assert.ErrorIs(t, r.ToggleStage(ctx, "missing.txt"), ErrUnknownPath)
}

func TestToggleStageFolder(t *testing.T) {
	r, runner := newRepo(t, script(map[string]string{
		"status -u -b --porcelain":     "## master\nM  src/a.go\n M src/b.go",
		"status -u --porcelain -- src": "M  src/a.go\nM  src/b.go",
	}))
	require.NoError(t, r.Status(context.Background(), false))

	require.NoError(t, r.ToggleStage(context.Background(), "src"))

	assert.Contains(t, runner.Calls(), "add -A -- src")
	for _, f := range r.Tree().Files() {
		assert.True(t, f.Flags.IsStaged(), f.Path)
	}
}

func TestDiscard(t *testing.T) {
	r, runner := loaded(t, nil)
	ctx := context.Background()

	require.NoError(t, r.Discard(ctx, "foo.txt"))
	require.NoError(t, r.Discard(ctx, "baz.txt"))
	require.NoError(t, r.Discard(ctx, "bar.txt"))

	assert.Equal(t, []string{
		"status -u -b --porcelain",
		"reset -- foo.txt",
		"checkout -- foo.txt",
		"clean -f -- baz.txt",
		"reset -- bar.txt",
		"clean -f -- bar.txt",
	}, runner.Calls())
	assert.Equal(t, 0, r.Tree().Len())
}

func TestDiff(t *testing.T) {
	const text = "diff --git a/bar.txt b/bar.txt\nnew file mode 100644\n@@ -0,0 +1 @@\n+hello"
	r, runner := loaded(t, map[string]string{
		"diff --no-ext-diff --no-color --staged -- bar.txt": text,
		"diff --no-ext-diff --no-color -- foo.txt":          "",
	})
	ctx := context.Background()

	files, err := r.Diff(ctx, "bar.txt", false)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "bar.txt", files[0].Name)
	assert.True(t, files[0].IsNew)

	files, err = r.Diff(ctx, "foo.txt", false)
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = r.DiffStaged(ctx, "foo.txt", false)
	require.NoError(t, err)
	assert.Contains(t, runner.Calls(), "diff --no-ext-diff --no-color --staged -- foo.txt")
}

func TestCommit(t *testing.T) {
	runner := &fakeRunner{fn: script(map[string]string{
		"log -1 --pretty=%B": "subject\n\nbody\n\n",
	})}
	r := New(Options{Runner: runner, AuthorName: "Jane", AuthorEmail: "jane@example.com"})
	defer r.Close()
	ctx := context.Background()

	require.NoError(t, r.Commit(ctx, "fix it", true))
	msg, err := r.LastCommitMessage(ctx)
	require.NoError(t, err)

	assert.Equal(t, "subject\n\nbody", msg)
	assert.Equal(t, []string{
		"commit -m fix it --amend --author=Jane <jane@example.com>",
		"status -u -b --porcelain",
		"log -1 --pretty=%B",
	}, runner.Calls())
}

func TestInitFailure(t *testing.T) {
	r, _ := newRepo(t, func([]string) (string, error) { return "", errors.New("boom") })
	events := subscribe(r)

	require.Error(t, r.Init(context.Background()))
	assert.Equal(t, NotInitialised, r.State())
	assert.Equal(t, []string{"update", "state", "update"}, names(*events))
}

func TestBranchBookkeeping(t *testing.T) {
	r, runner := newRepo(t, script(map[string]string{
		"branch --no-color": "  develop\n* master\n  zeta",
	}))
	ctx := context.Background()

	branches, err := r.Branches(ctx)
	require.NoError(t, err)
	require.Len(t, branches, 3)
	assert.Equal(t, "master", r.CurrentBranch())

	events := subscribe(r)
	require.NoError(t, r.CreateBranch(ctx, "feature", ""))

	require.Len(t, *events, 4)
	add := (*events)[0].(BranchAdded)
	assert.Equal(t, "feature", add.Branch.Name)
	assert.Equal(t, 1, add.Index)
	old := (*events)[1].(BranchUpdated)
	assert.Equal(t, "master", old.Branch.Name)
	assert.False(t, old.Branch.IsCurrent)
	cur := (*events)[2].(BranchUpdated)
	assert.Equal(t, BranchUpdated{Branch: git.Branch{Name: "feature", IsCurrent: true}, Index: 1}, cur)
	assert.Equal(t, BranchChanged{Name: "feature"}, (*events)[3])

	*events = nil
	require.NoError(t, r.DeleteBranch(ctx, "zeta", true))
	assert.Equal(t, []event.Event{BranchRemoved{Branch: git.Branch{Name: "zeta"}, Index: 3}}, *events)

	*events = nil
	r.ApplySharedBranch("develop")
	assert.Equal(t, "develop", r.CurrentBranch())
	assert.Equal(t, []string{"branch.update", "branch.update", "branch"}, names(*events))

	assert.Contains(t, runner.Calls(), "checkout -b feature")
	assert.Contains(t, runner.Calls(), "branch --no-color -D zeta")
}

func TestRemoteBookkeeping(t *testing.T) {
	r, runner := newRepo(t, script(map[string]string{
		"remote -v":            "upstream\thttps://u (fetch)\nupstream\thttps://u (push)\norigin\thttps://o (fetch)\norigin\thttps://o (push)",
		"branch -r --no-color": "  origin/HEAD -> origin/master\n  origin/master\n  origin/dev\n  upstream/master",
	}))
	ctx := context.Background()

	remotes, err := r.Remotes(ctx)
	require.NoError(t, err)
	require.Len(t, remotes, 2)
	assert.Equal(t, "origin", remotes[0].Name)

	events := subscribe(r)
	require.NoError(t, r.CreateRemote(ctx, "backup", "https://b"))
	assert.Equal(t, []event.Event{
		RemoteAdded{Remote: git.Remote{Name: "backup", URL: "https://b"}, Index: 1},
		RemoteUpdated{Remote: git.Remote{Name: "backup", URL: "https://b", IsSelected: true}, Index: 1},
	}, *events)

	*events = nil
	require.NoError(t, r.CreateRemote(ctx, "backup", "https://b"))
	assert.Empty(t, *events, "an existing remote is not added twice")
	assert.Len(t, r.RemoteList(), 3)

	*events = nil
	r.SelectRemote("origin")
	assert.Equal(t, []string{"remote.update", "remote.update"}, names(*events))
	sel, idx, ok := r.SelectedRemote()
	require.True(t, ok)
	assert.Equal(t, "origin", sel.Name)
	assert.Equal(t, 0, idx)

	// Selection survives a re-list.
	_, err = r.Remotes(ctx)
	require.NoError(t, err)
	sel, _, _ = r.SelectedRemote()
	assert.Equal(t, "origin", sel.Name)

	branchNames, err := r.RemoteBranches(ctx, "origin")
	require.NoError(t, err)
	assert.Equal(t, []string{"master", "dev"}, branchNames)

	require.NoError(t, r.SetRemoteURL(ctx, "origin", "https://o2"))
	assert.Equal(t, "https://o2", r.RemoteList()[0].URL)

	require.NoError(t, r.MergeRemote(ctx, "origin", "dev", true, true))
	_, err = r.PushRemote(ctx, "origin", "dev", true, true)
	require.NoError(t, err)
	require.NoError(t, r.ResetRemote(ctx, "origin", "master"))

	calls := runner.Calls()
	assert.Contains(t, calls, "remote add backup https://b")
	assert.Contains(t, calls, "remote set-url origin https://o2")
	assert.Contains(t, calls, "merge --ff-only --no-commit --no-ff origin/dev")
	assert.Contains(t, calls, "push origin dev --porcelain --force --delete")
	assert.Contains(t, calls, "reset --soft origin/master")
}
