// Package repo holds the state of one git working directory: lifecycle,
// current branch, branch and remote lists, and the working-tree model.
// Actions run one at a time through the command runner and re-synchronize
// that state afterwards.
package repo

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/untillpro/goutils/logger"
	"golang.org/x/sync/singleflight"

	"github.com/Akashdeep-Patra/gitsync/internal/diff"
	"github.com/Akashdeep-Patra/gitsync/internal/event"
	"github.com/Akashdeep-Patra/gitsync/internal/git"
	"github.com/Akashdeep-Patra/gitsync/internal/tree"
)

// DefaultMaxReconcilePasses bounds the reconciliation loop.
const DefaultMaxReconcilePasses = 5

// State is the lifecycle state of a repository.
type State int

const (
	Loading State = iota
	Initialised
	NotInitialised
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Initialised:
		return "initialised"
	case NotInitialised:
		return "not initialised"
	default:
		return "unknown"
	}
}

// Options configures a Repository.
type Options struct {
	WorkspaceID        string // Generated when empty.
	Dir                string
	Runner             git.Runner // Local git with the default timeout when nil.
	Bus                *event.Bus
	MaxReconcilePasses int
	Formatter          diff.Formatter
	AuthorName         string
	AuthorEmail        string
}

// Repository is the synchronized state of one working directory.
type Repository struct {
	workspaceID string
	runner      git.Runner
	bus         *event.Bus
	tree        *tree.Model
	formatter   diff.Formatter
	maxPasses   int
	author      string

	gate      gate
	group     singleflight.Group
	done      chan struct{}
	closeOnce sync.Once

	mu       sync.RWMutex
	dir      string
	state    State
	lastErr  error
	branch   string
	branches []git.Branch
	remotes  []git.Remote
}

// New returns a repository in the Loading state. Nothing runs until the
// first Status.
func New(opts Options) *Repository {
	if opts.WorkspaceID == "" {
		opts.WorkspaceID = uuid.NewString()
	}
	if opts.Runner == nil {
		opts.Runner = git.NewExecRunner(git.DefaultTimeout)
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}
	if opts.MaxReconcilePasses <= 0 {
		opts.MaxReconcilePasses = DefaultMaxReconcilePasses
	}

	r := &Repository{
		workspaceID: opts.WorkspaceID,
		runner:      opts.Runner,
		bus:         opts.Bus,
		tree:        tree.New(opts.Bus),
		formatter:   opts.Formatter,
		maxPasses:   opts.MaxReconcilePasses,
		gate:        newGate(),
		done:        make(chan struct{}),
		dir:         opts.Dir,
		state:       Loading,
	}
	if opts.AuthorName != "" && opts.AuthorEmail != "" {
		r.author = opts.AuthorName + " <" + opts.AuthorEmail + ">"
	}
	return r
}

// ── Accessors ───────────────────────────────────────────────────────────────

func (r *Repository) WorkspaceID() string { return r.workspaceID }

// Bus carries both repository and tree events.
func (r *Repository) Bus() *event.Bus { return r.bus }

func (r *Repository) Tree() *tree.Model { return r.tree }

func (r *Repository) Dir() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dir
}

func (r *Repository) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// LastError returns the failure that put the repository in NotInitialised.
func (r *Repository) LastError() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}

func (r *Repository) CurrentBranch() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.branch
}

// BranchList returns the last listed branches.
func (r *Repository) BranchList() []git.Branch {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]git.Branch(nil), r.branches...)
}

// RemoteList returns the last listed remotes.
func (r *Repository) RemoteList() []git.Remote {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]git.Remote(nil), r.remotes...)
}

// ── Lifecycle ───────────────────────────────────────────────────────────────

// Close detaches every listener. Commands still in flight complete but
// their results are dropped, and every later call returns ErrClosed.
func (r *Repository) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
		r.bus.Close()
	})
}

func (r *Repository) closed() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// SetDirectory points the repository at dir and reloads it.
func (r *Repository) SetDirectory(ctx context.Context, dir string) error {
	if r.closed() {
		return ErrClosed
	}
	r.mu.Lock()
	r.dir = dir
	r.branches = nil
	r.remotes = nil
	r.mu.Unlock()
	return r.Status(ctx, true)
}

// ── Command plumbing ────────────────────────────────────────────────────────

// do runs fn while holding the repository's command gate.
func (r *Repository) do(ctx context.Context, fn func(context.Context) error) error {
	if r.closed() {
		return ErrClosed
	}
	if err := r.gate.acquire(ctx, r.done); err != nil {
		return err
	}
	defer r.gate.release()
	if r.closed() {
		return ErrClosed
	}
	return fn(ctx)
}

// exec runs one git command. It must be called from within do.
func (r *Repository) exec(ctx context.Context, argv ...string) (string, error) {
	out, err := r.runner.Execute(ctx, r.workspaceID, r.Dir(), argv)
	if r.closed() {
		logger.Verbose("repo: discarding result after close:", argv)
		return "", ErrClosed
	}
	return out, err
}

// run is do+exec for a single command.
func (r *Repository) run(ctx context.Context, argv ...string) (string, error) {
	var out string
	err := r.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.exec(ctx, argv...)
		return err
	})
	return out, err
}

func (r *Repository) emit(events []event.Event) {
	for _, e := range events {
		r.bus.Emit(e)
	}
}

// ── State bookkeeping (callers hold r.mu) ──────────────────────────────────

func (r *Repository) setStateLocked(s State, err error) []event.Event {
	r.lastErr = err
	if r.state == s {
		return nil
	}
	r.state = s
	return []event.Event{StateChanged{State: s, Err: err}}
}

func (r *Repository) setState(s State, err error) {
	r.mu.Lock()
	events := r.setStateLocked(s, err)
	r.mu.Unlock()
	r.emit(events)
}

// ── Status ──────────────────────────────────────────────────────────────────

// Status re-reads the whole working tree. A hard refresh first resets the
// tree so listeners rebuild once instead of applying item events.
// Concurrent calls with the same hardness share one query.
func (r *Repository) Status(ctx context.Context, hard bool) error {
	key := "status"
	if hard {
		key = "status:hard"
	}
	_, err, shared := r.group.Do(key, func() (any, error) {
		return nil, r.do(ctx, func(ctx context.Context) error {
			return r.status(ctx, hard)
		})
	})
	if shared {
		logger.Verbose("repo: coalesced status query")
	}
	return err
}

func (r *Repository) status(ctx context.Context, hard bool) error {
	if hard {
		r.setState(Loading, nil)
		r.tree.Reset()
		r.bus.Emit(Updated{})
	}

	out, err := r.exec(ctx, "status", "-u", "-b", "--porcelain")
	if err != nil {
		if errors.Is(err, ErrClosed) {
			return err
		}
		logger.Error("repo: status failed:", err)
		r.setState(NotInitialised, err)
		r.bus.Emit(Updated{})
		return err
	}

	parsed := git.ParseStatus(out, true)
	r.mu.Lock()
	events := r.setStateLocked(Initialised, nil)
	if parsed.Branch != "" {
		events = append(events, r.setCurrentBranchLocked(parsed.Branch)...)
	}
	r.mu.Unlock()
	r.emit(events)

	resolved, err := r.reconcile(ctx, parsed.NeedReconcile)
	if errors.Is(err, ErrClosed) {
		return err
	}
	r.tree.Sync(append(parsed.Entries, resolved...), nil)
	r.bus.Emit(Updated{})
	return err
}

// StatusFiles re-reads only the given paths. Paths not reported back are
// removed from the tree; the rest of the tree is left alone.
func (r *Repository) StatusFiles(ctx context.Context, paths ...string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.statusFiles(ctx, paths)
	})
}

func (r *Repository) statusFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	out, err := r.exec(ctx, append([]string{"status", "-u", "--porcelain", "--"}, paths...)...)
	if err != nil {
		return err
	}
	parsed := git.ParseStatus(out, false)

	resolved, err := r.reconcile(ctx, parsed.NeedReconcile)
	if errors.Is(err, ErrClosed) {
		return err
	}
	r.tree.Sync(append(parsed.Entries, resolved...), paths)
	return err
}

// reconcile unstages paths whose index and worktree columns both changed
// and re-queries them until each collapses to a single state, at most
// maxPasses times.
func (r *Repository) reconcile(ctx context.Context, paths []string) ([]git.StatusEntry, error) {
	var resolved []git.StatusEntry
	for pass := 1; len(paths) > 0; pass++ {
		if pass > r.maxPasses {
			return resolved, &ReconcileError{Paths: paths, Passes: r.maxPasses}
		}
		logger.Verbose("repo: reconcile pass", pass, paths)

		if _, err := r.exec(ctx, append([]string{"reset", "--"}, paths...)...); err != nil {
			return resolved, err
		}
		out, err := r.exec(ctx, append([]string{"status", "-u", "--porcelain", "--"}, paths...)...)
		if err != nil {
			return resolved, err
		}
		parsed := git.ParseStatus(out, false)
		resolved = append(resolved, parsed.Entries...)
		paths = parsed.NeedReconcile
	}
	return resolved, nil
}
