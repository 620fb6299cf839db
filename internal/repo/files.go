package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Akashdeep-Patra/gitsync/internal/diff"
	"github.com/Akashdeep-Patra/gitsync/internal/tree"
)

// Init creates a repository in the working directory and loads it.
func (r *Repository) Init(ctx context.Context) error {
	return r.do(ctx, func(ctx context.Context) error {
		r.setState(Loading, nil)
		r.bus.Emit(Updated{})
		if _, err := r.exec(ctx, "init"); err != nil {
			r.setState(NotInitialised, err)
			r.bus.Emit(Updated{})
			return err
		}
		return r.status(ctx, false)
	})
}

// Clone clones url into the working directory and loads it.
func (r *Repository) Clone(ctx context.Context, url string) error {
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, "clone", url, "."); err != nil {
			return err
		}
		return r.status(ctx, false)
	})
}

// Stage adds paths to the index and refreshes them.
func (r *Repository) Stage(ctx context.Context, paths ...string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.stage(ctx, paths)
	})
}

// Unstage removes paths from the index and refreshes them.
func (r *Repository) Unstage(ctx context.Context, paths ...string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.unstage(ctx, paths)
	})
}

func (r *Repository) stage(ctx context.Context, paths []string) error {
	if _, err := r.exec(ctx, append([]string{"add", "-A", "--"}, paths...)...); err != nil {
		return err
	}
	return r.statusFiles(ctx, paths)
}

func (r *Repository) unstage(ctx context.Context, paths []string) error {
	if _, err := r.exec(ctx, append([]string{"reset", "--"}, paths...)...); err != nil {
		return err
	}
	return r.statusFiles(ctx, paths)
}

// ToggleStage stages p when it has unstaged changes and unstages it
// otherwise. A folder counts as staged only when every file below it is.
func (r *Repository) ToggleStage(ctx context.Context, p string) error {
	n, ok := r.tree.Node(p)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, p)
	}
	staged := n.Flags.IsStaged()
	if n.IsFolder() {
		staged = r.folderStaged(p)
	}
	return r.do(ctx, func(ctx context.Context) error {
		if staged {
			return r.unstage(ctx, []string{p})
		}
		return r.stage(ctx, []string{p})
	})
}

func (r *Repository) folderStaged(dir string) bool {
	prefix := dir + "/"
	for _, f := range r.tree.Files() {
		if strings.HasPrefix(f.Path, prefix) && !f.Flags.IsStaged() {
			return false
		}
	}
	return true
}

// Discard throws away the changes to p and drops it from the tree. Files
// that only exist in the worktree or index are deleted, the rest are
// restored from HEAD.
func (r *Repository) Discard(ctx context.Context, p string) error {
	n, ok := r.tree.Node(p)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPath, p)
	}
	return r.do(ctx, func(ctx context.Context) error {
		if !n.IsFolder() && n.Flags.CanDelete() {
			if n.Flags.IsStaged() {
				if _, err := r.exec(ctx, "reset", "--", p); err != nil {
					return err
				}
			}
			if _, err := r.exec(ctx, "clean", "-f", "--", p); err != nil {
				return err
			}
		} else {
			if _, err := r.exec(ctx, "reset", "--", p); err != nil {
				return err
			}
			if _, err := r.exec(ctx, "checkout", "--", p); err != nil {
				return err
			}
		}
		r.tree.Sync(nil, []string{p})
		return nil
	})
}

// CheckoutFiles restores paths from the index.
func (r *Repository) CheckoutFiles(ctx context.Context, paths ...string) error {
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, append([]string{"checkout", "--"}, paths...)...); err != nil {
			return err
		}
		return r.statusFiles(ctx, paths)
	})
}

// Diff renders the diff of p against the index, or against HEAD when p
// is staged.
func (r *Repository) Diff(ctx context.Context, p string, verbose bool) ([]diff.File, error) {
	n, ok := r.tree.Node(p)
	return r.diff(ctx, p, ok && isStaged(n), verbose)
}

// DiffStaged renders the staged diff of p regardless of the tree.
func (r *Repository) DiffStaged(ctx context.Context, p string, verbose bool) ([]diff.File, error) {
	return r.diff(ctx, p, true, verbose)
}

func (r *Repository) diff(ctx context.Context, p string, staged, verbose bool) ([]diff.File, error) {
	argv := []string{"diff", "--no-ext-diff", "--no-color"}
	if staged {
		argv = append(argv, "--staged")
	}
	argv = append(argv, "--", p)

	out, err := r.run(ctx, argv...)
	if err != nil {
		return nil, err
	}
	return r.formatter.Render(out, verbose), nil
}

func isStaged(n tree.Node) bool { return !n.IsFolder() && n.Flags.IsStaged() }

// Commit records the index and reloads the tree.
func (r *Repository) Commit(ctx context.Context, message string, amend bool) error {
	argv := []string{"commit", "-m", message}
	if amend {
		argv = append(argv, "--amend")
	}
	if r.author != "" {
		argv = append(argv, "--author="+r.author)
	}
	return r.do(ctx, func(ctx context.Context) error {
		if _, err := r.exec(ctx, argv...); err != nil {
			return err
		}
		return r.status(ctx, false)
	})
}

// LastCommitMessage returns the message of HEAD, for amending.
func (r *Repository) LastCommitMessage(ctx context.Context) (string, error) {
	out, err := r.run(ctx, "log", "-1", "--pretty=%B")
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
