package tunnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/heycatch/wirewizard/internal/activity"
	"github.com/heycatch/wirewizard/internal/conf"
	"github.com/heycatch/wirewizard/internal/logging"
	"github.com/heycatch/wirewizard/internal/wg"
)

// ErrDeactivateFailed marks a lifecycle operation aborted because a
// required wg-quick down did not succeed.
var ErrDeactivateFailed = errors.New("deactivate failed")

// Controller owns tunnel lifecycle transitions. It is the only caller
// of the activation command; everything else reads state through the
// bridge. Check-then-act sequences hold mu so concurrent operations
// cannot both observe "nothing active" and activate two tunnels.
type Controller struct {
	bridge wg.Bridge
	runner Runner
	store  *conf.Store
	log    *activity.Log
	logger *slog.Logger

	mu sync.Mutex
}

// NewController creates a Controller with the given dependencies.
func NewController(bridge wg.Bridge, runner Runner, store *conf.Store, log *activity.Log, logger *slog.Logger) (*Controller, error) {
	if bridge == nil {
		return nil, fmt.Errorf("new controller: bridge is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("new controller: runner is required")
	}
	if store == nil {
		return nil, fmt.Errorf("new controller: store is required")
	}
	if log == nil {
		return nil, fmt.Errorf("new controller: activity log is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("new controller: logger is required")
	}
	return &Controller{
		bridge: bridge,
		runner: runner,
		store:  store,
		log:    log,
		logger: logger.With("component", "tunnel"),
	}, nil
}

// ActiveTunnel returns the name of the currently active tunnel, or ""
// when none is active. Activity is always re-read from the bridge; a
// nonzero listen port is the sole signal.
func (c *Controller) ActiveTunnel() string {
	for _, name := range c.bridge.InterfaceNames() {
		if c.bridge.ReadConfig(name).Active() {
			return name
		}
	}
	return ""
}

// Up activates a tunnel. Any other active tunnel is brought down
// first; if that fails the activation is aborted so two tunnels can
// never route at once. Activating an already-active tunnel is a no-op.
func (c *Controller) Up(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up(ctx, name)
}

func (c *Controller) up(ctx context.Context, name string) error {
	ctx = logging.WithOpID(ctx, logging.GenerateOpID("up"))
	l := c.ctxLogger(ctx)

	if _, err := c.store.Path(name); err != nil {
		return fmt.Errorf("up %s: %w", name, err)
	}

	if c.bridge.ReadConfig(name).Active() {
		l.Debug("already_active", "tunnel", name, "operation", "up")
		return nil
	}

	for _, other := range c.bridge.InterfaceNames() {
		if other == name || !c.bridge.ReadConfig(other).Active() {
			continue
		}
		l.Info("deactivating_other", "tunnel", other, "operation", "up")
		if err := c.invoke(ctx, "down", other); err != nil {
			l.Error("deactivate_other_failed",
				"tunnel", other,
				"operation", "up",
				"error", err,
			)
			return fmt.Errorf("up %s: bring down %s: %w", name, other, errors.Join(ErrDeactivateFailed, err))
		}
	}

	if err := c.invoke(ctx, "up", name); err != nil {
		l.Error("activate_failed",
			"tunnel", name,
			"operation", "up",
			"error", err,
			"hint", wg.ClassifyControlError(err),
		)
		return fmt.Errorf("up %s: %w", name, err)
	}

	l.Info("tunnel_up", "tunnel", name, "operation", "up")
	return nil
}

// Down deactivates a tunnel. Deactivating an inactive tunnel is a
// no-op.
func (c *Controller) Down(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.down(ctx, name)
}

func (c *Controller) down(ctx context.Context, name string) error {
	ctx = logging.WithOpID(ctx, logging.GenerateOpID("down"))
	l := c.ctxLogger(ctx)

	if !c.bridge.ReadConfig(name).Active() {
		l.Debug("already_inactive", "tunnel", name, "operation", "down")
		return nil
	}

	if err := c.invoke(ctx, "down", name); err != nil {
		l.Error("deactivate_failed",
			"tunnel", name,
			"operation", "down",
			"error", err,
			"hint", wg.ClassifyControlError(err),
		)
		return fmt.Errorf("down %s: %w", name, err)
	}

	l.Info("tunnel_down", "tunnel", name, "operation", "down")
	return nil
}

// Toggle flips a tunnel between active and inactive based on a fresh
// read of its state.
func (c *Controller) Toggle(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bridge.ReadConfig(name).Active() {
		return c.down(ctx, name)
	}
	return c.up(ctx, name)
}

// Rename renames a tunnel definition. An active tunnel is deactivated
// first; a failed deactivation aborts the rename. When the rename
// itself fails after deactivation the tunnel stays stopped, the file
// keeps its old name, and the error reports both facts.
func (c *Controller) Rename(ctx context.Context, oldName, newName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = logging.WithOpID(ctx, logging.GenerateOpID("rename"))
	l := c.ctxLogger(ctx)

	wasActive := c.bridge.ReadConfig(oldName).Active()
	if wasActive {
		if err := c.down(ctx, oldName); err != nil {
			return fmt.Errorf("rename %s: %w", oldName, errors.Join(ErrDeactivateFailed, err))
		}
	}

	if err := c.store.Rename(oldName, newName); err != nil {
		if wasActive {
			l.Warn("rename_failed_after_deactivate",
				"tunnel", oldName,
				"new_name", newName,
				"operation", "rename",
			)
			return fmt.Errorf("rename %s to %s: tunnel left deactivated: %w", oldName, newName, err)
		}
		return fmt.Errorf("rename %s to %s: %w", oldName, newName, err)
	}

	l.Info("tunnel_renamed",
		"tunnel", oldName,
		"new_name", newName,
		"was_active", wasActive,
		"operation", "rename",
	)
	return nil
}

// Delete removes a tunnel definition. An active tunnel is deactivated
// first; a failed deactivation aborts the delete.
func (c *Controller) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = logging.WithOpID(ctx, logging.GenerateOpID("delete"))
	l := c.ctxLogger(ctx)

	if c.bridge.ReadConfig(name).Active() {
		if err := c.down(ctx, name); err != nil {
			return fmt.Errorf("delete %s: %w", name, errors.Join(ErrDeactivateFailed, err))
		}
	}

	if err := c.store.Delete(name); err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}

	l.Info("tunnel_deleted", "tunnel", name, "operation", "delete")
	return nil
}

// Shutdown brings every active tunnel down. Failures are collected,
// not fatal; remaining tunnels are still attempted.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = logging.WithOpID(ctx, logging.GenerateOpID("shutdown"))
	l := c.ctxLogger(ctx)

	var errs []error
	for _, name := range c.bridge.InterfaceNames() {
		if !c.bridge.ReadConfig(name).Active() {
			continue
		}
		if err := c.invoke(ctx, "down", name); err != nil {
			l.Warn("shutdown_down_failed",
				"tunnel", name,
				"operation", "shutdown",
				"error", err,
			)
			errs = append(errs, fmt.Errorf("down %s: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown: %w", errors.Join(errs...))
	}

	l.Info("shutdown_complete", "operation", "shutdown")
	return nil
}

// WatchStats invokes fn with fresh stats every interval until ctx
// ends or the tunnel goes inactive. The first read happens
// immediately.
func (c *Controller) WatchStats(ctx context.Context, name string, interval time.Duration, fn func(*wg.TunnelStats)) error {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !c.bridge.ReadConfig(name).Active() {
			c.logger.Debug("watch_stopped_inactive", "tunnel", name, "operation", "watch_stats")
			return nil
		}
		fn(c.bridge.ReadStats(name))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// invoke runs one wg-quick command and records it in the activity log
// whether it succeeded or not.
func (c *Controller) invoke(ctx context.Context, verb, name string) error {
	res, err := c.runner.Run(ctx, verb, name)
	c.log.Append(activity.Entry{
		Command: res.Command,
		Stdout:  res.Stdout,
		Stderr:  res.Stderr,
	})
	return err
}

func (c *Controller) ctxLogger(ctx context.Context) *slog.Logger {
	attrs := logging.LogAttrsFromContext(ctx)
	if len(attrs) == 0 {
		return c.logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return c.logger.With(args...)
}
