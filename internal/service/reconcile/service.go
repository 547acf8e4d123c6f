package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/employee"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/metrics"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

const (
	DefaultLockName           = "clock_reconcile"
	DefaultStaleAfter         = 10 * time.Minute
	DefaultMaxDuration        = 4 * time.Minute
	DefaultRetryBackoff       = 2 * time.Second
	DefaultDuplicateTolerance = time.Minute

	// fetchShare is the part of the run budget the fetch phase may spend; the
	// rest is left for applying what was fetched.
	fetchShare = 0.75
)

type Config struct {
	LockName           string
	StaleAfter         time.Duration
	MaxDuration        time.Duration
	RetryBackoff       time.Duration
	DuplicateTolerance time.Duration
}

func (c Config) withDefaults() Config {
	if c.LockName == "" {
		c.LockName = DefaultLockName
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = DefaultMaxDuration
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	if c.DuplicateTolerance <= 0 {
		c.DuplicateTolerance = DefaultDuplicateTolerance
	}
	return c
}

type ReconcileServiceImpl struct {
	ledger.ClockIntervalRepository
	lockRepo   ledger.SyncLockRepository
	source     ledger.ShiftSource
	directory  employee.Directory
	translator *timezone.Translator
	metrics    *metrics.Metrics
	cfg        Config
	now        func() time.Time
}

func NewReconcileService(
	intervalRepo ledger.ClockIntervalRepository,
	lockRepo ledger.SyncLockRepository,
	source ledger.ShiftSource,
	directory employee.Directory,
	translator *timezone.Translator,
	m *metrics.Metrics,
	cfg Config,
) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		ClockIntervalRepository: intervalRepo,
		lockRepo:                lockRepo,
		source:                  source,
		directory:               directory,
		translator:              translator,
		metrics:                 m,
		cfg:                     cfg.withDefaults(),
		now:                     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *ReconcileServiceImpl) WithClock(now func() time.Time) *ReconcileServiceImpl {
	s.now = now
	return s
}

// Reconcile implements ledger.ReconcileService.
func (s *ReconcileServiceImpl) Reconcile(ctx context.Context, window timezone.DateRange) (ledger.ReconcileStats, error) {
	stats := ledger.ReconcileStats{Window: window.String()}
	if err := window.Validate(); err != nil {
		return stats, err
	}

	started := time.Now()
	err := s.withLock(ctx, func(ctx context.Context) error {
		runCtx, cancel := context.WithTimeout(ctx, s.cfg.MaxDuration)
		defer cancel()
		fetchCtx, cancelFetch := context.WithTimeout(runCtx, time.Duration(float64(s.cfg.MaxDuration)*fetchShare))
		defer cancelFetch()

		shifts, fetchStats := s.fetchWindow(fetchCtx, window)
		cancelFetch()
		result, err := s.ReconcileShifts(runCtx, window, shifts)
		result.Add(fetchStats)
		result.Window = stats.Window
		stats = result
		return err
	})

	if errors.Is(err, ledger.ErrLockContention) {
		s.metrics.ReconcileSkipped()
		slog.Info("Reconcile: skipped, another run holds the lock", "window", stats.Window)
		return stats, err
	}

	outcome := "success"
	switch {
	case err != nil:
		outcome = "failed"
	case stats.Partial:
		outcome = "partial"
	}
	s.metrics.ObserveReconcile(outcome, stats.Created, stats.Updated, stats.Unchanged, stats.Errors, time.Since(started))

	slog.Info("Reconcile: finished",
		"window", stats.Window,
		"result", outcome,
		"fetched", stats.Fetched,
		"created", stats.Created,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"errors", stats.Errors,
		"unmapped", stats.Unmapped,
		"duplicates_removed", stats.DuplicatesRemoved,
		"fetch_failures", stats.FetchFailures,
		"duration", time.Since(started))

	return stats, err
}

// withLock runs fn while holding the reconciliation lock. The lock is
// released on every exit path, including panics and cancelled contexts.
func (s *ReconcileServiceImpl) withLock(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	owner := fmt.Sprintf("%d:%s", os.Getpid(), uuid.NewString())
	now := s.now().UTC()

	if err := s.lockRepo.Acquire(ctx, s.cfg.LockName, owner, now, now.Add(-s.cfg.StaleAfter)); err != nil {
		return err
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if rErr := s.lockRepo.Release(releaseCtx, s.cfg.LockName, owner); rErr != nil {
			slog.Error("Reconcile: failed to release lock", "lock", s.cfg.LockName, "owner", owner, "error", rErr)
		}
	}()

	return fn(ctx)
}

// fetchWindow pulls every local date of the window. A date whose fetch fails
// is skipped and counted; the rest of the window still reconciles.
func (s *ReconcileServiceImpl) fetchWindow(ctx context.Context, window timezone.DateRange) ([]ledger.Shift, ledger.ReconcileStats) {
	var (
		all   []ledger.Shift
		stats ledger.ReconcileStats
	)
	for _, day := range s.translator.Days(window) {
		if ctx.Err() != nil {
			stats.Partial = true
			break
		}
		shifts, err := s.fetchWithRetry(ctx, day)
		if err != nil && ctx.Err() != nil {
			stats.Partial = true
			slog.Warn("Reconcile: fetch budget exhausted", "date", timezone.FormatDate(day), "error", err)
			break
		}
		if err != nil {
			stats.FetchFailures++
			slog.Error("Reconcile: failed to fetch shifts", "date", timezone.FormatDate(day), "error", err)
			continue
		}
		stats.Fetched += len(shifts)
		all = append(all, shifts...)
	}
	return all, stats
}

func (s *ReconcileServiceImpl) fetchWithRetry(ctx context.Context, day time.Time) ([]ledger.Shift, error) {
	shifts, err := s.source.GetShiftsForDate(ctx, day)
	if err == nil || !errors.Is(err, ledger.ErrTransientFetch) {
		return shifts, err
	}

	slog.Warn("Reconcile: transient fetch failure, retrying", "date", timezone.FormatDate(day), "backoff", s.cfg.RetryBackoff, "error", err)
	timer := time.NewTimer(s.cfg.RetryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("retry aborted: %w", ctx.Err())
	case <-timer.C:
	}

	return s.source.GetShiftsForDate(ctx, day)
}

// ReconcileShifts implements ledger.ReconcileService.
//
// The window's ledger rows are loaded once and indexed by (employee,
// clock-in second), falling back to the duplicate tolerance. A matching shift
// may only close an open row; anything else inserts a new row, so two shifts
// of one day always become two rows. Row failures are counted and never abort
// the batch. A run whose deadline passes returns the partial stats.
func (s *ReconcileServiceImpl) ReconcileShifts(ctx context.Context, window timezone.DateRange, shifts []ledger.Shift) (ledger.ReconcileStats, error) {
	stats := ledger.ReconcileStats{Window: window.String()}

	utcStart, utcEnd := s.translator.RangeToUTCBounds(window)
	rows, err := s.ClockIntervalRepository.ListByClockInRange(ctx, utcStart, utcEnd)
	if err != nil {
		if ctx.Err() != nil {
			stats.Partial = true
			slog.Warn("Reconcile: run deadline reached before loading the ledger", "window", stats.Window, "error", err)
			return stats, nil
		}
		return stats, fmt.Errorf("failed to load ledger window: %w", err)
	}

	kept, duplicateIDs := Dedupe(rows, s.cfg.DuplicateTolerance)
	if len(duplicateIDs) > 0 {
		removed, err := s.ClockIntervalRepository.DeleteByIDs(ctx, duplicateIDs)
		if err != nil {
			stats.Errors++
			slog.Error("Reconcile: failed to remove duplicate rows", "count", len(duplicateIDs), "error", err)
		} else {
			stats.DuplicatesRemoved = int(removed)
			slog.Info("Reconcile: removed duplicate ledger rows", "count", removed)
		}
	}

	index := newIntervalIndex(kept, s.cfg.DuplicateTolerance)

	ordered := make([]ledger.Shift, len(shifts))
	copy(ordered, shifts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ClockIn.Before(ordered[j].ClockIn)
	})

	resolved := make(map[string]string)
	unmapped := make(map[string]bool)

	for _, shift := range ordered {
		if ctx.Err() != nil {
			stats.Partial = true
			slog.Warn("Reconcile: run deadline reached, stopping batch", "window", stats.Window, "error", ctx.Err())
			break
		}

		if shift.ClockIn.IsZero() {
			stats.Errors++
			slog.Warn("Reconcile: shift without clock-in", "external_user_id", shift.ExternalUserID)
			continue
		}

		employeeID, err := s.resolve(ctx, shift.ExternalUserID, resolved, unmapped)
		if err != nil {
			if errors.Is(err, employee.ErrUnmappedEmployee) {
				stats.Unmapped++
				continue
			}
			stats.Errors++
			slog.Error("Reconcile: failed to resolve employee", "external_user_id", shift.ExternalUserID, "error", err)
			continue
		}

		if existing, ok := index.match(employeeID, shift.ClockIn); ok {
			updated, err := s.applyToExisting(ctx, existing, shift)
			switch {
			case err != nil:
				stats.Errors++
				slog.Error("Reconcile: failed to close interval", "interval_id", existing.ID, "employee_id", employeeID, "error", err)
			case updated != nil:
				stats.Updated++
				index.put(*updated)
			default:
				stats.Unchanged++
			}
			continue
		}

		created, err := s.insert(ctx, employeeID, shift)
		switch {
		case errors.Is(err, ledger.ErrDuplicateKey):
			// reconciled by a concurrent writer or outside the loaded window
			stats.Unchanged++
		case errors.Is(err, ledger.ErrOpenIntervalConflict):
			stats.Errors++
			slog.Warn("Reconcile: employee already has an open interval", "employee_id", employeeID, "clock_in", shift.ClockIn)
		case err != nil:
			stats.Errors++
			slog.Error("Reconcile: failed to insert interval", "employee_id", employeeID, "clock_in", shift.ClockIn, "error", err)
		default:
			stats.Created++
			index.put(created)
		}
	}

	if len(unmapped) > 0 {
		ids := make([]string, 0, len(unmapped))
		for id := range unmapped {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		slog.Warn("Reconcile: shifts from unmapped time-clock users skipped", "count", stats.Unmapped, "external_user_ids", ids)
	}

	return stats, nil
}

// intervalIndex finds the ledger row a shift refers to. An exact
// (employee, clock-in second) key wins; otherwise the nearest row of the
// employee within the duplicate tolerance matches, so a punch reported at the
// second of a merged-away duplicate still finds the surviving row.
type intervalIndex struct {
	exact      map[ledger.IntervalKey]ledger.ClockInterval
	byEmployee map[string][]ledger.ClockInterval
	tolerance  time.Duration
}

func newIntervalIndex(rows []ledger.ClockInterval, tolerance time.Duration) *intervalIndex {
	idx := &intervalIndex{
		exact:      make(map[ledger.IntervalKey]ledger.ClockInterval, len(rows)),
		byEmployee: make(map[string][]ledger.ClockInterval),
		tolerance:  tolerance,
	}
	for _, row := range rows {
		idx.put(row)
	}
	return idx
}

func (idx *intervalIndex) put(row ledger.ClockInterval) {
	idx.exact[row.Key()] = row
	rows := idx.byEmployee[row.EmployeeID]
	for i := range rows {
		if rows[i].ID == row.ID {
			rows[i] = row
			return
		}
	}
	idx.byEmployee[row.EmployeeID] = append(rows, row)
}

func (idx *intervalIndex) match(employeeID string, clockIn time.Time) (ledger.ClockInterval, bool) {
	if row, ok := idx.exact[ledger.NewIntervalKey(employeeID, clockIn)]; ok {
		return row, true
	}

	var (
		best  ledger.ClockInterval
		found bool
		gap   time.Duration
	)
	for _, row := range idx.byEmployee[employeeID] {
		d := row.ClockIn.Sub(clockIn)
		if d < 0 {
			d = -d
		}
		if d < idx.tolerance && (!found || d < gap) {
			best, found, gap = row, true, d
		}
	}
	return best, found
}

// resolve memoises directory lookups for the duration of one batch.
func (s *ReconcileServiceImpl) resolve(ctx context.Context, externalID string, resolved map[string]string, unmapped map[string]bool) (string, error) {
	if id, ok := resolved[externalID]; ok {
		return id, nil
	}
	if unmapped[externalID] {
		return "", employee.ErrUnmappedEmployee
	}
	id, err := s.directory.ResolveExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, employee.ErrUnmappedEmployee) {
			unmapped[externalID] = true
		}
		return "", err
	}
	resolved[externalID] = id
	return id, nil
}

// applyToExisting closes an open row when the shift reports its end. Closed
// rows are never rewritten or reopened. Returns nil when nothing changed.
func (s *ReconcileServiceImpl) applyToExisting(ctx context.Context, existing ledger.ClockInterval, shift ledger.Shift) (*ledger.ClockInterval, error) {
	if !existing.IsOpen() {
		return nil, nil
	}
	clockOut, ok := shift.CompletedAt()
	if !ok {
		return nil, nil
	}
	if clockOut.Before(existing.ClockIn) {
		return nil, fmt.Errorf("clock-out %s precedes clock-in %s", clockOut.Format(time.RFC3339), existing.ClockIn.Format(time.RFC3339))
	}

	existing.Close(clockOut)
	if err := s.ClockIntervalRepository.Close(ctx, existing.ID, *existing.ClockOut, *existing.TotalMinutes); err != nil {
		return nil, err
	}
	return &existing, nil
}

func (s *ReconcileServiceImpl) insert(ctx context.Context, employeeID string, shift ledger.Shift) (ledger.ClockInterval, error) {
	interval := ledger.ClockInterval{
		EmployeeID: employeeID,
		ClockIn:    shift.ClockIn.UTC().Truncate(time.Second),
		Source:     ledger.SourceTimeClock,
	}
	if clockOut, ok := shift.CompletedAt(); ok {
		if clockOut.Before(interval.ClockIn) {
			return ledger.ClockInterval{}, fmt.Errorf("clock-out %s precedes clock-in %s", clockOut.Format(time.RFC3339), interval.ClockIn.Format(time.RFC3339))
		}
		interval.Close(clockOut)
	}
	return s.ClockIntervalRepository.Create(ctx, interval)
}

// Dedupe finds rows of one employee whose clock-ins lie within tolerance of
// each other. Each cluster keeps its most complete row: a closed row beats an
// open one, a later clock-out beats an earlier one, and the earliest clock-in
// breaks remaining ties.
func Dedupe(rows []ledger.ClockInterval, tolerance time.Duration) ([]ledger.ClockInterval, []string) {
	byEmployee := make(map[string][]ledger.ClockInterval)
	var employees []string
	for _, r := range rows {
		if _, ok := byEmployee[r.EmployeeID]; !ok {
			employees = append(employees, r.EmployeeID)
		}
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}
	sort.Strings(employees)

	var (
		kept       []ledger.ClockInterval
		duplicates []string
	)
	for _, id := range employees {
		group := byEmployee[id]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].ClockIn.Equal(group[j].ClockIn) {
				return group[i].ID < group[j].ID
			}
			return group[i].ClockIn.Before(group[j].ClockIn)
		})

		for i := 0; i < len(group); {
			anchor := group[i].ClockIn
			best := group[i]
			j := i + 1
			for ; j < len(group) && group[j].ClockIn.Sub(anchor) < tolerance; j++ {
				if moreComplete(group[j], best) {
					duplicates = append(duplicates, best.ID)
					best = group[j]
				} else {
					duplicates = append(duplicates, group[j].ID)
				}
			}
			kept = append(kept, best)
			i = j
		}
	}
	return kept, duplicates
}

func moreComplete(a, b ledger.ClockInterval) bool {
	switch {
	case a.ClockOut != nil && b.ClockOut == nil:
		return true
	case a.ClockOut == nil || b.ClockOut == nil:
		return false
	default:
		return a.ClockOut.After(*b.ClockOut)
	}
}
