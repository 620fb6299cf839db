// Package watcher triggers repository refreshes when git's own state
// changes. Only a handful of paths inside the git directory are watched
// (index, HEAD, refs and the merge/rebase markers) so large working trees
// do not exhaust inotify/kqueue watches. Working-tree edits are picked up
// by the next explicit or index-triggered refresh.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/untillpro/goutils/logger"
)

// DefaultDebounce is the quiet period before a burst of changes fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls OnChange once per debounced burst of git state changes.
type Watcher struct {
	fs       *fsnotify.Watcher
	gitDir   string
	debounce time.Duration
	onChange func()

	done      chan struct{}
	closeOnce sync.Once
}

// New watches gitDir. Call Run to start delivering callbacks.
func New(gitDir string, debounce time.Duration, onChange func()) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watcher: nil callback")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}

	added := 0
	for _, t := range targets(gitDir) {
		if err := fw.Add(t); err != nil {
			logger.Verbose("watcher: skipping", t, err)
			continue
		}
		added++
	}
	if added == 0 {
		_ = fw.Close()
		return nil, fmt.Errorf("watcher: nothing to watch in %s", gitDir)
	}

	return &Watcher{
		fs:       fw,
		gitDir:   gitDir,
		debounce: debounce,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// targets lists the directories to watch. Watching gitDir itself covers
// HEAD, index, packed-refs and the MERGE_HEAD/REBASE_HEAD/FETCH_HEAD files.
func targets(gitDir string) []string {
	out := []string{
		gitDir,
		filepath.Join(gitDir, "refs"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
	}
	remotes := filepath.Join(gitDir, "refs", "remotes")
	if entries, err := os.ReadDir(remotes); err == nil {
		out = append(out, remotes)
		for _, e := range entries {
			if e.IsDir() {
				out = append(out, filepath.Join(remotes, e.Name()))
			}
		}
	}

	dirs := out[:0]
	for _, t := range out {
		if info, err := os.Stat(t); err == nil && info.IsDir() {
			dirs = append(dirs, t)
		}
	}
	return dirs
}

// Run delivers callbacks until ctx is done or Close is called. The
// debounce window gets up to 50% random jitter so several instances
// watching one repository do not refresh in lockstep.
func (w *Watcher) Run(ctx context.Context) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	jitter := int64(w.debounce / 2)

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if shouldIgnore(ev.Name) {
				continue
			}
			d := w.debounce
			if jitter > 0 {
				d += time.Duration(rand.Int64N(jitter))
			}
			if timer == nil {
				timer = time.NewTimer(d)
			} else {
				timer.Reset(d)
			}
		case <-timerChan(timer):
			timer = nil
			logger.Verbose("watcher: git state changed in", w.gitDir)
			w.onChange()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Verbose("watcher:", err)
		case <-ctx.Done():
			return
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}

func timerChan(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// shouldIgnore reports whether a change to path is noise. Lock files
// appear while git itself holds the index; refreshing then would contend
// for the lock.
func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasSuffix(base, ".lock"):
		return true
	case strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swo"),
		strings.HasSuffix(base, "~"), strings.HasPrefix(base, ".#"):
		return true
	case base == "COMMIT_EDITMSG", base == "gc.log", strings.HasPrefix(base, "fsmonitor"):
		return true
	default:
		return false
	}
}

// ResolveGitDir returns the git directory of the working tree at dir,
// following the "gitdir:" pointer that linked worktrees and submodules
// use in place of a .git directory.
func ResolveGitDir(dir string) (string, error) {
	dotGit := filepath.Join(dir, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", fmt.Errorf("resolve git dir: %w", err)
	}
	if info.IsDir() {
		return dotGit, nil
	}

	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", fmt.Errorf("resolve git dir: %w", err)
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("resolve git dir: unexpected contents in %s", dotGit)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return filepath.Clean(target), nil
}
