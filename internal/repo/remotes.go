package repo

import (
	"context"

	"github.com/Akashdeep-Patra/gitsync/internal/event"
	"github.com/Akashdeep-Patra/gitsync/internal/git"
)

// Remotes lists configured remotes, origin first. The selection survives
// a re-list when the selected remote still exists.
func (r *Repository) Remotes(ctx context.Context) ([]git.Remote, error) {
	out, err := r.run(ctx, "remote", "-v")
	if err != nil {
		return nil, err
	}
	remotes := git.ParseRemotes(out)

	r.mu.Lock()
	for _, old := range r.remotes {
		if !old.IsSelected {
			continue
		}
		for i := range remotes {
			if remotes[i].Name == old.Name {
				remotes[i].IsSelected = true
			}
		}
	}
	r.remotes = remotes
	r.mu.Unlock()

	return append([]git.Remote(nil), remotes...), nil
}

// RemoteBranches lists the branch names of remote.
func (r *Repository) RemoteBranches(ctx context.Context, remote string) ([]string, error) {
	out, err := r.run(ctx, "branch", "-r", "--no-color")
	if err != nil {
		return nil, err
	}
	return git.ParseRemoteBranches(out, remote), nil
}

// CreateRemote adds and selects a remote.
func (r *Repository) CreateRemote(ctx context.Context, name, url string) error {
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, "remote", "add", name, url); err != nil {
			return err
		}
		r.mu.Lock()
		events := r.addRemoteLocked(name, url)
		events = append(events, r.selectRemoteLocked(name)...)
		r.mu.Unlock()
		r.emit(events)
		return nil
	})
}

// DeleteRemote removes a remote.
func (r *Repository) DeleteRemote(ctx context.Context, name string) error {
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, "remote", "rm", name); err != nil {
			return err
		}
		r.mu.Lock()
		events := r.removeRemoteLocked(name)
		r.mu.Unlock()
		r.emit(events)
		return nil
	})
}

// SetRemoteURL changes the url of a remote.
func (r *Repository) SetRemoteURL(ctx context.Context, name, url string) error {
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, "remote", "set-url", name, url); err != nil {
			return err
		}
		r.mu.Lock()
		var events []event.Event
		for i := range r.remotes {
			if rm := &r.remotes[i]; rm.Name == name {
				rm.URL = url
				events = append(events, RemoteUpdated{Remote: *rm, Index: i})
			}
		}
		r.mu.Unlock()
		r.emit(events)
		return nil
	})
}

// FetchRemote fetches from a remote.
func (r *Repository) FetchRemote(ctx context.Context, name string) error {
	_, err := r.run(ctx, "fetch", name)
	return err
}

// MergeRemote merges remote/branch into the current branch.
func (r *Repository) MergeRemote(ctx context.Context, remote, branch string, ffOnly, noCommit bool) error {
	argv := []string{"merge"}
	if ffOnly {
		argv = append(argv, "--ff-only")
	}
	if noCommit {
		argv = append(argv, "--no-commit", "--no-ff")
	}
	argv = append(argv, remote+"/"+branch)
	return r.mutate(ctx, argv...)
}

// RebaseRemote rebases the current branch onto remote/branch.
func (r *Repository) RebaseRemote(ctx context.Context, remote, branch string) error {
	return r.mutate(ctx, "rebase", remote+"/"+branch)
}

// ResetRemote moves HEAD to remote/branch, keeping the index and worktree.
func (r *Repository) ResetRemote(ctx context.Context, remote, branch string) error {
	return r.mutate(ctx, "reset", "--soft", remote+"/"+branch)
}

// PushRemote pushes branch to remote and returns git's porcelain report.
func (r *Repository) PushRemote(ctx context.Context, remote, branch string, force, remove bool) (string, error) {
	argv := []string{"push", remote, branch, "--porcelain"}
	if force {
		argv = append(argv, "--force")
	}
	if remove {
		argv = append(argv, "--delete")
	}
	return r.run(ctx, argv...)
}

// SelectRemote marks name as the selected remote.
func (r *Repository) SelectRemote(name string) {
	if r.closed() {
		return
	}
	r.mu.Lock()
	events := r.selectRemoteLocked(name)
	r.mu.Unlock()
	r.emit(events)
}

// SelectedRemote returns the selected remote and its index.
func (r *Repository) SelectedRemote() (git.Remote, int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, rm := range r.remotes {
		if rm.IsSelected {
			return rm, i, true
		}
	}
	return git.Remote{}, -1, false
}

func (r *Repository) selectRemoteLocked(name string) []event.Event {
	var events []event.Event
	for i := range r.remotes {
		rm := &r.remotes[i]
		if !rm.IsSelected {
			continue
		}
		if rm.Name == name {
			return nil
		}
		rm.IsSelected = false
		events = append(events, RemoteUpdated{Remote: *rm, Index: i})
	}
	for i := range r.remotes {
		if rm := &r.remotes[i]; rm.Name == name {
			rm.IsSelected = true
			events = append(events, RemoteUpdated{Remote: *rm, Index: i})
			break
		}
	}
	return events
}

func (r *Repository) addRemoteLocked(name, url string) []event.Event {
	for _, rm := range r.remotes {
		if rm.Name == name {
			return nil
		}
	}
	rm := git.Remote{Name: name, URL: url}
	i := git.RemoteInsertIndex(r.remotes, rm)
	r.remotes = append(r.remotes, git.Remote{})
	copy(r.remotes[i+1:], r.remotes[i:])
	r.remotes[i] = rm
	return []event.Event{RemoteAdded{Remote: rm, Index: i}}
}

func (r *Repository) removeRemoteLocked(name string) []event.Event {
	for i, rm := range r.remotes {
		if rm.Name == name {
			r.remotes = append(r.remotes[:i], r.remotes[i+1:]...)
			return []event.Event{RemoteRemoved{Remote: rm, Index: i}}
		}
	}
	return nil
}
