package cron

import (
	"context"
	"testing"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/idle"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/productivity"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tr = timezone.MustTranslator(timezone.DefaultZone)

type stubReconciler struct {
	windows []string
	err     error
	stats   ledger.ReconcileStats
}

func (s *stubReconciler) Reconcile(ctx context.Context, window timezone.DateRange) (ledger.ReconcileStats, error) {
	s.windows = append(s.windows, window.String())
	return s.stats, s.err
}

func (s *stubReconciler) ReconcileShifts(ctx context.Context, window timezone.DateRange, shifts []ledger.Shift) (ledger.ReconcileStats, error) {
	return ledger.ReconcileStats{}, nil
}

type stubIdle struct {
	idle.IdleService
	calls int
	err   error
}

func (s *stubIdle) CheckAllClockedIn(ctx context.Context) ([]idle.IdleStatus, error) {
	s.calls++
	return nil, s.err
}

type stubProductivity struct {
	productivity.ProductivityService
	days []string
}

func (s *stubProductivity) RecomputeDailyScores(ctx context.Context, date time.Time) (productivity.RecomputeResponse, error) {
	s.days = append(s.days, timezone.FormatDate(date))
	return productivity.RecomputeResponse{}, nil
}

// 2025-03-10 02:30 UTC is still 2025-03-09 in Chicago.
var tick = time.Date(2025, 3, 10, 2, 30, 0, 0, time.UTC)

func TestReconcileJobs_Windows(t *testing.T) {
	svc := &stubReconciler{}
	jobs := NewReconcileJobs(svc, tr, 5*time.Minute, time.Hour, 7)
	jobs.now = func() time.Time { return tick }

	require.NoError(t, jobs.ReconcileToday(context.Background()))
	require.NoError(t, jobs.ReconcileCatchup(context.Background()))

	assert.Equal(t, []string{"2025-03-09..2025-03-09", "2025-03-03..2025-03-09"}, svc.windows)
}

func TestReconcileJobs_LockContentionIsNotAFailure(t *testing.T) {
	svc := &stubReconciler{err: ledger.ErrLockContention}
	jobs := NewReconcileJobs(svc, tr, 5*time.Minute, time.Hour, 7)

	assert.NoError(t, jobs.ReconcileToday(context.Background()))
}

func TestReconcileJobs_OtherErrorsFail(t *testing.T) {
	svc := &stubReconciler{err: assert.AnError}
	jobs := NewReconcileJobs(svc, tr, 5*time.Minute, time.Hour, 7)

	assert.ErrorIs(t, jobs.ReconcileToday(context.Background()), assert.AnError)
}

func TestIdleJobs(t *testing.T) {
	svc := &stubIdle{}
	s := NewScheduler()
	NewIdleJobs(svc, time.Minute).RegisterJobs(s)

	s.RunOnce(context.Background())
	assert.Equal(t, 1, svc.calls)

	svc.err = assert.AnError
	assert.ErrorIs(t, NewIdleJobs(svc, time.Minute).CheckIdle(context.Background()), assert.AnError)
}

func TestScoreJobs_YesterdayAndToday(t *testing.T) {
	svc := &stubProductivity{}
	jobs := NewScoreJobs(svc, tr, time.Hour)
	jobs.now = func() time.Time { return tick }

	require.NoError(t, jobs.RecomputeDailyScores(context.Background()))
	assert.Equal(t, []string{"2025-03-08", "2025-03-09"}, svc.days)
}

func TestRegisterJobs_Names(t *testing.T) {
	s := NewScheduler()
	NewReconcileJobs(&stubReconciler{}, tr, 5*time.Minute, time.Hour, 7).RegisterJobs(s)
	NewIdleJobs(&stubIdle{}, time.Minute).RegisterJobs(s)
	NewScoreJobs(&stubProductivity{}, tr, time.Hour).RegisterJobs(s)

	for _, name := range []string{JobReconcileToday, JobReconcileCatchup, JobCheckIdle, JobRecomputeDailyScores} {
		assert.NoError(t, s.Trigger(name), name)
	}
}
