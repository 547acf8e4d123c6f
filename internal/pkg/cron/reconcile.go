package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

const (
	JobReconcileToday   = "reconcile_today"
	JobReconcileCatchup = "reconcile_catchup"
)

// ReconcileJobs keeps the ledger in step with the time clock: today's window
// on a short interval, and a wider catch-up window that picks up
// retroactive corrections.
type ReconcileJobs struct {
	reconcileService ledger.ReconcileService
	translator       *timezone.Translator
	todayInterval    time.Duration
	catchupInterval  time.Duration
	catchupDays      int
	now              func() time.Time
}

func NewReconcileJobs(
	reconcileService ledger.ReconcileService,
	translator *timezone.Translator,
	todayInterval, catchupInterval time.Duration,
	catchupDays int,
) *ReconcileJobs {
	return &ReconcileJobs{
		reconcileService: reconcileService,
		translator:       translator,
		todayInterval:    todayInterval,
		catchupInterval:  catchupInterval,
		catchupDays:      catchupDays,
		now:              time.Now,
	}
}

func (j *ReconcileJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobReconcileToday, j.todayInterval, j.ReconcileToday)
	scheduler.AddJob(JobReconcileCatchup, j.catchupInterval, j.ReconcileCatchup)
}

func (j *ReconcileJobs) ReconcileToday(ctx context.Context) error {
	return j.run(ctx, timezone.SingleDay(j.translator.Today(j.now())))
}

func (j *ReconcileJobs) ReconcileCatchup(ctx context.Context) error {
	return j.run(ctx, j.translator.LastDays(j.now(), j.catchupDays))
}

func (j *ReconcileJobs) run(ctx context.Context, window timezone.DateRange) error {
	stats, err := j.reconcileService.Reconcile(ctx, window)
	if err != nil {
		if errors.Is(err, ledger.ErrLockContention) {
			slog.Info("Cron: Reconciliation already running, deferring to next tick", "window", window.String())
			return nil
		}
		return fmt.Errorf("reconcile %s: %w", window, err)
	}

	if stats.Partial || stats.FetchFailures > 0 {
		slog.Warn("Cron: Reconciliation incomplete", "window", window.String(),
			"partial", stats.Partial, "fetch_failures", stats.FetchFailures)
	}
	return nil
}
