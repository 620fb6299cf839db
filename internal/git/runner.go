package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/untillpro/goutils/logger"
)

// DefaultTimeout is the maximum duration any single git command may run.
const DefaultTimeout = 30 * time.Second

// Runner executes git commands for a workspace. argv excludes the leading
// "git". Implementations return stdout on success and a *CommandError when
// git exits non-zero or the command cannot complete.
type Runner interface {
	Execute(ctx context.Context, workspaceID, dir string, argv []string) (string, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, workspaceID, dir string, argv []string) (string, error)

// Execute calls f.
func (f RunnerFunc) Execute(ctx context.Context, workspaceID, dir string, argv []string) (string, error) {
	return f(ctx, workspaceID, dir, argv)
}

// CommandError is a failed git command. Its message is git's stderr with
// the leading "error: " or "fatal: " removed.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return e.Stderr
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "git " + strings.Join(e.Args, " ") + " failed"
}

// Unwrap returns the underlying exit, timeout or transport error.
func (e *CommandError) Unwrap() error { return e.Err }

var stderrPrefixRe = regexp.MustCompile(`(?i)^(error|fatal): `)

// NewCommandError builds a CommandError, normalising the stderr text.
func NewCommandError(args []string, stderr string, err error) *CommandError {
	return &CommandError{
		Args:   append([]string(nil), args...),
		Stderr: stderrPrefixRe.ReplaceAllString(strings.TrimSpace(stderr), ""),
		Err:    err,
	}
}

// readOnlyCommands never take the index lock; they run with optional
// locks disabled so concurrent readers do not stall each other.
var readOnlyCommands = map[string]bool{
	"status": true,
	"diff":   true,
	"log":    true,
	"show":   true,
}

// ExecRunner executes git as a local subprocess.
type ExecRunner struct {
	Binary  string        // Defaults to "git".
	Timeout time.Duration // Defaults to DefaultTimeout.
}

// Compile-time check.
var _ Runner = (*ExecRunner)(nil)

// NewExecRunner returns an ExecRunner bounded by timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Binary: "git", Timeout: timeout}
}

// Execute runs git in dir. The workspace id is only used for logging.
func (r *ExecRunner) Execute(ctx context.Context, workspaceID, dir string, argv []string) (string, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	binary := r.Binary
	if binary == "" {
		binary = "git"
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, argv...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second
	if len(argv) > 0 && readOnlyCommands[argv[0]] {
		cmd.Env = append(os.Environ(), "GIT_OPTIONAL_LOCKS=0")
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Verbose(fmt.Sprintf("[%s] git %s", workspaceID, strings.Join(argv, " ")))

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("git %s: timed out after %s: %w", strings.Join(argv, " "), timeout, context.DeadlineExceeded)
		}
		msg := stderr.String()
		if strings.TrimSpace(msg) == "" {
			msg = stdout.String()
		}
		return "", NewCommandError(argv, msg, err)
	}
	return stdout.String(), nil
}
