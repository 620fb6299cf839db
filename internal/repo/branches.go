package repo

import (
	"context"
	"sort"

	"github.com/Akashdeep-Patra/gitsync/internal/event"
	"github.com/Akashdeep-Patra/gitsync/internal/git"
)

// Branches lists local branches and records the current one.
func (r *Repository) Branches(ctx context.Context) ([]git.Branch, error) {
	out, err := r.run(ctx, "branch", "--no-color")
	if err != nil {
		return nil, err
	}
	branches := git.ParseBranches(out)

	r.mu.Lock()
	r.branches = branches
	var events []event.Event
	if current := git.CurrentBranch(branches); current != "" && current != r.branch {
		r.branch = current
		events = append(events, BranchChanged{Name: current})
	}
	r.mu.Unlock()
	r.emit(events)

	return append([]git.Branch(nil), branches...), nil
}

// Checkout switches to branch and reloads the tree.
func (r *Repository) Checkout(ctx context.Context, branch string) error {
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, "checkout", branch, "--"); err != nil {
			return err
		}
		r.applyCurrentBranch(branch)
		return r.status(ctx, false)
	})
}

// CreateBranch creates and switches to branch, starting at origin when set.
func (r *Repository) CreateBranch(ctx context.Context, branch, origin string) error {
	argv := []string{"checkout", "-b", branch}
	if origin != "" {
		argv = append(argv, origin)
	}
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, argv...); err != nil {
			return err
		}
		r.mu.Lock()
		events := r.addBranchLocked(branch)
		events = append(events, r.setCurrentBranchLocked(branch)...)
		r.mu.Unlock()
		r.emit(events)
		return nil
	})
}

// DeleteBranch deletes branch; force allows unmerged branches.
func (r *Repository) DeleteBranch(ctx context.Context, branch string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, "branch", "--no-color", flag, branch); err != nil {
			return err
		}
		r.mu.Lock()
		events := r.removeBranchLocked(branch)
		r.mu.Unlock()
		r.emit(events)
		return nil
	})
}

// MergeBranch merges branch into the current one.
func (r *Repository) MergeBranch(ctx context.Context, branch, message string, noFF bool) error {
	argv := []string{"merge"}
	if noFF {
		argv = append(argv, "--no-ff")
	}
	if message != "" {
		argv = append(argv, "-m", message)
	}
	argv = append(argv, branch)
	return r.mutate(ctx, argv...)
}

// RebaseBranch rebases the current branch onto branch.
func (r *Repository) RebaseBranch(ctx context.Context, branch string) error {
	return r.mutate(ctx, "rebase", "--ignore-date", branch)
}

// ApplySharedBranch records a branch switch reported by a collaborator
// without running anything.
func (r *Repository) ApplySharedBranch(name string) {
	if r.closed() || name == "" {
		return
	}
	r.applyCurrentBranch(name)
}

// mutate runs a history-changing command and reloads the tree.
func (r *Repository) mutate(ctx context.Context, argv ...string) error {
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, argv...); err != nil {
			return err
		}
		return r.status(ctx, false)
	})
}

func (r *Repository) applyCurrentBranch(name string) {
	r.mu.Lock()
	events := r.setCurrentBranchLocked(name)
	r.mu.Unlock()
	r.emit(events)
}

func (r *Repository) setCurrentBranchLocked(name string) []event.Event {
	if r.branch == name {
		return nil
	}
	var events []event.Event
	for i := range r.branches {
		if b := &r.branches[i]; b.IsCurrent {
			b.IsCurrent = false
			events = append(events, BranchUpdated{Branch: *b, Index: i})
		}
	}
	for i := range r.branches {
		if b := &r.branches[i]; b.Name == name && b.Remote == "" {
			b.IsCurrent = true
			events = append(events, BranchUpdated{Branch: *b, Index: i})
			break
		}
	}
	r.branch = name
	return append(events, BranchChanged{Name: name})
}

func (r *Repository) addBranchLocked(name string) []event.Event {
	for _, b := range r.branches {
		if b.Name == name {
			return nil
		}
	}
	i := sort.Search(len(r.branches), func(i int) bool { return name < r.branches[i].Name })
	b := git.Branch{Name: name}
	r.branches = append(r.branches, git.Branch{})
	copy(r.branches[i+1:], r.branches[i:])
	r.branches[i] = b
	return []event.Event{BranchAdded{Branch: b, Index: i}}
}

func (r *Repository) removeBranchLocked(name string) []event.Event {
	for i, b := range r.branches {
		if b.Name == name {
			r.branches = append(r.branches[:i], r.branches[i+1:]...)
			return []event.Event{BranchRemoved{Branch: b, Index: i}}
		}
	}
	return nil
}
