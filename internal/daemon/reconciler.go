package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/stacktile/internal/winsys"
)

// Tracker is the engine surface the reconciler drives: the set of managed
// windows and the event entry point used to report drift.
type Tracker interface {
	TrackedWindows() []winsys.WindowID
	Dispatch(ev winsys.Event)
}

// WindowChecker reports whether a window still exists on the host.
type WindowChecker interface {
	Window(id winsys.WindowID) (winsys.Window, bool)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks the engine's tracked windows against the
// host and synthesizes close events for windows that vanished without a
// destroy notification (crashed clients, missed events).
type Reconciler struct {
	interval time.Duration
	tracker  Tracker
	checker  WindowChecker
	logger   *slog.Logger
}

// NewReconciler creates a reconciler over the given engine and host.
func NewReconciler(cfg ReconcilerConfig, tracker Tracker, checker WindowChecker) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &Reconciler{
		interval: interval,
		tracker:  tracker,
		checker:  checker,
		logger:   cfg.Logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	for _, id := range r.tracker.TrackedWindows() {
		if _, ok := r.checker.Window(id); ok {
			continue
		}
		r.logger.Info("reconciler: tracked window vanished", "window_id", id)
		r.tracker.Dispatch(winsys.WindowClosing{ID: id})
	}
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() {
	r.reconcile()
}
