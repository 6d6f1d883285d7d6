package tunnel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	wwerrors "github.com/heycatch/wirewizard/internal/errors"
)

// DefaultCommandTimeout bounds every wg-quick invocation. The command
// hands off to scripts and resolvers that can hang indefinitely, so
// the caller enforces the deadline rather than trusting the child.
const DefaultCommandTimeout = 20 * time.Second

// Result carries the full record of one external command invocation.
// It is populated even when the command fails so the activity log can
// keep failed attempts.
type Result struct {
	Command []string
	Stdout  string
	Stderr  string
}

// Runner executes tunnel activation commands.
type Runner interface {
	Run(ctx context.Context, verb, name string) (Result, error)
}

// wgQuickRunner shells out to wg-quick. Success is exit status zero;
// everything else, including a hit deadline, is an error.
type wgQuickRunner struct {
	path    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewRunner creates a Runner invoking the wg-quick binary at path.
// A zero or negative timeout falls back to DefaultCommandTimeout.
func NewRunner(path string, timeout time.Duration, logger *slog.Logger) (Runner, error) {
	if path == "" {
		return nil, fmt.Errorf("new runner: wg-quick path is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("new runner: logger is required")
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &wgQuickRunner{
		path:    path,
		timeout: timeout,
		logger:  logger.With("component", "runner"),
	}, nil
}

func (r *wgQuickRunner) Run(ctx context.Context, verb, name string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res := Result{Command: []string{r.path, verb, name}}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.path, verb, name)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("run %s: timed out after %s: %w",
				strings.Join(res.Command, " "), r.timeout, context.DeadlineExceeded)
		} else {
			err = fmt.Errorf("run %s: %w", strings.Join(res.Command, " "), err)
		}
		r.logger.Error("command_failed",
			"command", strings.Join(res.Command, " "),
			"elapsed", elapsed.String(),
			"stderr", res.Stderr,
			"error", err,
			"code", wwerrors.CodeOf(err),
		)
		return res, err
	}

	r.logger.Debug("command_finished",
		"command", strings.Join(res.Command, " "),
		"elapsed", elapsed.String(),
	)
	return res, nil
}
