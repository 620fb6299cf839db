package repo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrClosed is returned by every action once the repository is closed.
	ErrClosed = errors.New("repository closed")

	// ErrReconcileExhausted matches ReconcileError with errors.Is.
	ErrReconcileExhausted = errors.New("status reconciliation did not converge")

	// ErrUnknownPath is returned for paths absent from the working tree.
	ErrUnknownPath = errors.New("path not in working tree")
)

// ReconcileError lists the paths still in a dual index/worktree state
// after the last reconciliation pass.
type ReconcileError struct {
	Paths  []string
	Passes int
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("%s after %d passes: %s", ErrReconcileExhausted, e.Passes, strings.Join(e.Paths, ", "))
}

func (e *ReconcileError) Is(target error) bool { return target == ErrReconcileExhausted }
