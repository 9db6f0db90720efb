package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"
)

const DefaultReconcileInterval = 2 * time.Second

// Rebinder re-resolves the managed window. It reports whether the
// controller was replaced.
type Rebinder interface {
	Rebind() (bool, error)
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks that the managed window still exists and
// rebinds when it was destroyed, replaced, or appeared late.
type Reconciler struct {
	interval time.Duration
	target   Rebinder
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, target Rebinder) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Reconciler{
		interval: interval,
		target:   target,
		logger:   logger,
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
func (r *Reconciler) reconcile() (rebound bool) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
			rebound = false
		}
	}()

	rebound, err := r.target.Rebind()
	if err != nil {
		r.logger.Warn("reconciler: rebind failed", "error", err)
	}
	if rebound {
		r.logger.Info("reconciler: managed window changed")
	}
	return rebound
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() bool {
	return r.reconcile()
}
