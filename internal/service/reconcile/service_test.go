package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tr = timezone.MustTranslator(timezone.DefaultZone)

// local returns the UTC instant of a Chicago wall-clock time on 2025-06-10.
func local(h, m int) time.Time {
	return tr.ToUTC(time.Date(2025, 6, 10, h, m, 0, 0, time.UTC))
}

func ptr(t time.Time) *time.Time { return &t }

func testWindow() timezone.DateRange {
	return timezone.SingleDay(time.Date(2025, 6, 10, 0, 0, 0, 0, tr.Location()))
}

func newTestService(l *memoryLedger, lock *memoryLock, src ledger.ShiftSource, dir *stubDirectory, cfg Config) *ReconcileServiceImpl {
	if lock == nil {
		lock = &memoryLock{}
	}
	if src == nil {
		src = newStubSource(func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error) { return nil, nil })
	}
	return NewReconcileService(l, lock, src, dir, tr, nil, cfg).
		WithClock(func() time.Time { return local(20, 0) })
}

func openCount(rows []ledger.ClockInterval, employeeID string) int {
	n := 0
	for _, r := range rows {
		if r.EmployeeID == employeeID && r.ClockOut == nil {
			n++
		}
	}
	return n
}

// ===== RECONCILE SHIFTS TESTS =====

func TestReconcileShifts_MultiShiftDayProducesTwoRows(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger()
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	shifts := []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(14, 0), ClockOut: ptr(local(18, 0)), TotalMinutes: 240},
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(12, 0)), TotalMinutes: 240},
	}

	stats, err := svc.ReconcileShifts(ctx, testWindow(), shifts)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 0, stats.Updated)

	rows := l.all()
	require.Len(t, rows, 2)
	assert.Equal(t, local(8, 0), rows[0].ClockIn)
	assert.Equal(t, local(12, 0), *rows[0].ClockOut)
	assert.Equal(t, local(14, 0), rows[1].ClockIn)
	assert.Equal(t, local(18, 0), *rows[1].ClockOut)
	assert.Equal(t, 240.0, *rows[0].TotalMinutes)
}

func TestReconcileShifts_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger()
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1", "tc-2": "emp-2"})
	svc := newTestService(l, nil, nil, dir, Config{})

	shifts := []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(12, 0))},
		{ExternalUserID: "tc-1", ClockIn: local(14, 0), IsActive: true},
		{ExternalUserID: "tc-2", ClockIn: local(7, 30), ClockOut: ptr(local(16, 0))},
	}

	first, err := svc.ReconcileShifts(ctx, testWindow(), shifts)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)
	before := l.all()

	second, err := svc.ReconcileShifts(ctx, testWindow(), shifts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 3, second.Unchanged)
	assert.Equal(t, 0, second.Errors)
	assert.Equal(t, before, l.all())
}

func TestReconcileShifts_ClosesOpenInterval(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger()
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	_, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), IsActive: true},
	})
	require.NoError(t, err)
	require.Equal(t, 1, openCount(l.all(), "emp-1"))

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(16, 30)), TotalMinutes: 510},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	rows := l.all()
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ClockOut)
	assert.Equal(t, local(16, 30), *rows[0].ClockOut)
	assert.Equal(t, 510.0, *rows[0].TotalMinutes)
}

func TestReconcileShifts_InactiveShiftWithoutClockOutClosesFromTotal(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger(ledger.ClockInterval{EmployeeID: "emp-1", ClockIn: local(8, 0)})
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), IsActive: false, TotalMinutes: 90},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, local(9, 30), *l.all()[0].ClockOut)
}

func TestReconcileShifts_NeverRegressesOrOverwritesClosedInterval(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger(ledger.ClockInterval{
		EmployeeID: "emp-1",
		ClockIn:    local(8, 0),
		ClockOut:   ptr(local(12, 0)),
	})
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), IsActive: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)

	stats, err = svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(18, 0))},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)

	rows := l.all()
	require.Len(t, rows, 1)
	assert.Equal(t, local(12, 0), *rows[0].ClockOut)
	assert.Equal(t, 0, l.closes)
}

func TestReconcileShifts_MatchesOnSecondPrecision(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger(ledger.ClockInterval{EmployeeID: "emp-1", ClockIn: local(8, 0)})
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0).Add(400 * time.Millisecond), ClockOut: ptr(local(9, 0))},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Len(t, l.all(), 1)
}

func TestReconcileShifts_UnmappedEmployeeIsSkipped(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger()
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "ghost", ClockIn: local(7, 0), ClockOut: ptr(local(8, 0))},
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(9, 0))},
		{ExternalUserID: "ghost", ClockIn: local(10, 0), ClockOut: ptr(local(11, 0))},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Unmapped)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 1, dir.lookups["ghost"])
}

func TestReconcileShifts_DuplicateKeyOutsideWindowIsUnchanged(t *testing.T) {
	ctx := context.Background()
	// Row from the previous evening is outside the window index but shares the key.
	prev := tr.ToUTC(time.Date(2025, 6, 9, 23, 0, 0, 0, time.UTC))
	l := newMemoryLedger(ledger.ClockInterval{EmployeeID: "emp-1", ClockIn: prev, ClockOut: ptr(local(1, 0))})
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: prev, ClockOut: ptr(local(1, 0))},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)
	assert.Equal(t, 0, stats.Errors)
	assert.Len(t, l.all(), 1)
}

func TestReconcileShifts_KeepsAtMostOneOpenInterval(t *testing.T) {
	ctx := context.Background()
	// Open interval left over from yesterday.
	l := newMemoryLedger(ledger.ClockInterval{
		EmployeeID: "emp-1",
		ClockIn:    tr.ToUTC(time.Date(2025, 6, 9, 22, 0, 0, 0, time.UTC)),
	})
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), IsActive: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, openCount(l.all(), "emp-1"))
}

func TestReconcileShifts_EarlierShiftClosesBeforeLaterOpens(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger(ledger.ClockInterval{EmployeeID: "emp-1", ClockIn: local(8, 0)})
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(14, 0), IsActive: true},
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(12, 0))},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 0, stats.Errors)
	assert.Equal(t, 1, openCount(l.all(), "emp-1"))
}

func TestReconcileShifts_RemovesDuplicatesBeforeProcessing(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger(
		ledger.ClockInterval{ID: "a", EmployeeID: "emp-1", ClockIn: local(8, 0)},
		ledger.ClockInterval{ID: "b", EmployeeID: "emp-1", ClockIn: local(8, 0).Add(20 * time.Second), ClockOut: ptr(local(12, 0))},
	)
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	stats, err := svc.ReconcileShifts(ctx, testWindow(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DuplicatesRemoved)

	rows := l.all()
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].ID)
}

func TestReconcileShifts_RepeatedRunsOverMergedDuplicatesAreStable(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger(
		ledger.ClockInterval{ID: "a", EmployeeID: "emp-1", ClockIn: local(8, 0)},
		ledger.ClockInterval{ID: "b", EmployeeID: "emp-1", ClockIn: local(8, 0).Add(20 * time.Second), ClockOut: ptr(local(12, 0))},
	)
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})
	shifts := []ledger.Shift{{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(12, 0))}}

	first, err := svc.ReconcileShifts(ctx, testWindow(), shifts)
	require.NoError(t, err)
	assert.Equal(t, 1, first.DuplicatesRemoved)
	assert.Equal(t, 1, first.Unchanged)
	assert.Equal(t, 0, first.Created)

	afterFirst := l.all()
	require.Len(t, afterFirst, 1)
	assert.Equal(t, "b", afterFirst[0].ID)

	for run := 2; run <= 3; run++ {
		stats, err := svc.ReconcileShifts(ctx, testWindow(), shifts)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.DuplicatesRemoved, "run %d", run)
		assert.Equal(t, 0, stats.Created, "run %d", run)
		assert.Equal(t, 0, stats.Updated, "run %d", run)
		assert.Equal(t, 1, stats.Unchanged, "run %d", run)
		assert.Equal(t, afterFirst, l.all(), "run %d", run)
	}
	assert.Equal(t, 0, l.creates)
	assert.Equal(t, 0, l.closes)
}

func TestReconcileShifts_PunchAtMergedSecondClosesSurvivor(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger(
		ledger.ClockInterval{ID: "a", EmployeeID: "emp-1", ClockIn: local(8, 0)},
		ledger.ClockInterval{ID: "b", EmployeeID: "emp-1", ClockIn: local(8, 0).Add(20 * time.Second)},
	)
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})
	shifts := []ledger.Shift{{ExternalUserID: "tc-1", ClockIn: local(8, 0).Add(20 * time.Second), ClockOut: ptr(local(12, 0))}}

	stats, err := svc.ReconcileShifts(ctx, testWindow(), shifts)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 1, stats.Updated)

	again, err := svc.ReconcileShifts(ctx, testWindow(), shifts)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Unchanged)
	assert.Equal(t, 0, again.Created+again.Updated+again.DuplicatesRemoved)

	rows := l.all()
	require.Len(t, rows, 1)
	assert.Equal(t, local(12, 0), *rows[0].ClockOut)
}

func TestReconcileShifts_StopsWhenContextExpires(t *testing.T) {
	l := newMemoryLedger()
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0)},
	})
	require.NoError(t, err)
	assert.True(t, stats.Partial)
	assert.Equal(t, 0, stats.Created)
}

// ===== DEDUPE TESTS =====

func TestDedupe(t *testing.T) {
	base := local(8, 0)
	rows := []ledger.ClockInterval{
		{ID: "open", EmployeeID: "emp-1", ClockIn: base},
		{ID: "short", EmployeeID: "emp-1", ClockIn: base.Add(10 * time.Second), ClockOut: ptr(local(9, 0))},
		{ID: "long", EmployeeID: "emp-1", ClockIn: base.Add(30 * time.Second), ClockOut: ptr(local(12, 0))},
		{ID: "second-shift", EmployeeID: "emp-1", ClockIn: local(14, 0)},
		{ID: "other", EmployeeID: "emp-2", ClockIn: base.Add(5 * time.Second)},
	}

	kept, dups := Dedupe(rows, time.Minute)

	keptIDs := make([]string, 0, len(kept))
	for _, k := range kept {
		keptIDs = append(keptIDs, k.ID)
	}
	assert.ElementsMatch(t, []string{"long", "second-shift", "other"}, keptIDs)
	assert.ElementsMatch(t, []string{"open", "short"}, dups)
}

func TestDedupe_NoDuplicates(t *testing.T) {
	rows := []ledger.ClockInterval{
		{ID: "a", EmployeeID: "emp-1", ClockIn: local(8, 0)},
		{ID: "b", EmployeeID: "emp-1", ClockIn: local(8, 1)},
	}
	kept, dups := Dedupe(rows, time.Minute)
	assert.Len(t, kept, 2)
	assert.Empty(t, dups)
}

// ===== RECONCILE (LOCKED RUN) TESTS =====

func TestReconcile_FetchesEveryDateAndReleasesLock(t *testing.T) {
	ctx := context.Background()
	l := newMemoryLedger()
	lock := &memoryLock{}
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	src := newStubSource(func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error) {
		d, _ := time.Parse("2006-01-02", date)
		in := tr.ToUTC(d.Add(8 * time.Hour))
		return []ledger.Shift{{ExternalUserID: "tc-1", ClockIn: in, ClockOut: ptr(in.Add(8 * time.Hour))}}, nil
	})
	svc := newTestService(l, lock, src, dir, Config{})

	window := timezone.DateRange{
		Start: time.Date(2025, 6, 8, 0, 0, 0, 0, tr.Location()),
		End:   time.Date(2025, 6, 10, 0, 0, 0, 0, tr.Location()),
	}
	stats, err := svc.Reconcile(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Fetched)
	assert.Equal(t, 3, stats.Created)
	assert.Equal(t, "2025-06-08..2025-06-10", stats.Window)
	assert.Equal(t, 1, lock.acquires)
	assert.Equal(t, 1, lock.releases)
	assert.False(t, lock.isHeld())

	again, err := svc.Reconcile(ctx, window)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created+again.Updated)
	assert.Equal(t, 3, again.Unchanged)
}

func TestReconcile_LockHeldByLiveRun(t *testing.T) {
	lock := &memoryLock{held: &ledger.SyncLock{Name: DefaultLockName, Owner: "other", AcquiredAt: local(19, 55)}}
	src := newStubSource(func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error) {
		t.Fatal("shift source must not be called without the lock")
		return nil, nil
	})
	svc := newTestService(newMemoryLedger(), lock, src, newStubDirectory(nil), Config{})

	_, err := svc.Reconcile(context.Background(), testWindow())
	assert.ErrorIs(t, err, ledger.ErrLockContention)
	assert.Equal(t, "other", lock.held.Owner)
}

func TestReconcile_ReclaimsStaleLock(t *testing.T) {
	lock := &memoryLock{held: &ledger.SyncLock{Name: DefaultLockName, Owner: "crashed", AcquiredAt: local(19, 45)}}
	svc := newTestService(newMemoryLedger(), lock, nil, newStubDirectory(nil), Config{})

	_, err := svc.Reconcile(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, lock.acquires)
	assert.False(t, lock.isHeld())
}

func TestReconcile_RetriesTransientFetchOnce(t *testing.T) {
	l := newMemoryLedger()
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	src := newStubSource(func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error) {
		if attempt == 1 {
			return nil, ledger.ErrTransientFetch
		}
		return []ledger.Shift{{ExternalUserID: "tc-1", ClockIn: local(8, 0)}}, nil
	})
	svc := newTestService(l, nil, src, dir, Config{RetryBackoff: time.Millisecond})

	stats, err := svc.Reconcile(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls["2025-06-10"])
	assert.Equal(t, 0, stats.FetchFailures)
	assert.Equal(t, 1, stats.Created)
}

func TestReconcile_AbandonsOnlyTheFailedDate(t *testing.T) {
	l := newMemoryLedger()
	lock := &memoryLock{}
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	src := newStubSource(func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error) {
		if date == "2025-06-09" {
			return nil, ledger.ErrTransientFetch
		}
		return []ledger.Shift{{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(9, 0))}}, nil
	})
	svc := newTestService(l, lock, src, dir, Config{RetryBackoff: time.Millisecond})

	window := timezone.DateRange{
		Start: time.Date(2025, 6, 9, 0, 0, 0, 0, tr.Location()),
		End:   time.Date(2025, 6, 10, 0, 0, 0, 0, tr.Location()),
	}
	stats, err := svc.Reconcile(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls["2025-06-09"])
	assert.Equal(t, 1, stats.FetchFailures)
	assert.Equal(t, 1, stats.Created)
	assert.False(t, lock.isHeld())
}

func TestReconcile_PermanentFetchErrorIsNotRetried(t *testing.T) {
	src := newStubSource(func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error) {
		return nil, errors.New("401 unauthorized")
	})
	svc := newTestService(newMemoryLedger(), nil, src, newStubDirectory(nil), Config{RetryBackoff: time.Millisecond})

	stats, err := svc.Reconcile(context.Background(), testWindow())
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls["2025-06-10"])
	assert.Equal(t, 1, stats.FetchFailures)
}

func TestReconcile_MaxDurationReportsPartialAndReleasesLock(t *testing.T) {
	lock := &memoryLock{}
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	src := newStubSource(func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error) {
		if date == "2025-06-08" {
			return []ledger.Shift{{ExternalUserID: "tc-1", ClockIn: local(8, 0)}}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	})
	l := newMemoryLedger()
	svc := newTestService(l, lock, src, dir, Config{MaxDuration: 50 * time.Millisecond})

	window := timezone.DateRange{
		Start: time.Date(2025, 6, 8, 0, 0, 0, 0, tr.Location()),
		End:   time.Date(2025, 6, 10, 0, 0, 0, 0, tr.Location()),
	}
	stats, err := svc.Reconcile(context.Background(), window)
	require.NoError(t, err)
	assert.True(t, stats.Partial)
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 0, stats.FetchFailures)
	assert.Equal(t, 1, stats.Created, "shifts fetched before the deadline are applied")
	assert.Len(t, l.all(), 1)
	assert.False(t, lock.isHeld())
	assert.Equal(t, 1, lock.releases)
}

func TestReconcileShifts_DeadlineBeforeLedgerLoadIsPartial(t *testing.T) {
	l := newMemoryLedger()
	dir := newStubDirectory(map[string]string{"tc-1": "emp-1"})
	svc := newTestService(l, nil, nil, dir, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	stats, err := svc.ReconcileShifts(ctx, testWindow(), []ledger.Shift{
		{ExternalUserID: "tc-1", ClockIn: local(8, 0), ClockOut: ptr(local(12, 0))},
	})
	require.NoError(t, err)
	assert.True(t, stats.Partial)
	assert.Empty(t, l.all())
}

func TestReconcile_InvalidWindow(t *testing.T) {
	svc := newTestService(newMemoryLedger(), nil, nil, newStubDirectory(nil), Config{})
	window := timezone.DateRange{
		Start: time.Date(2025, 6, 10, 0, 0, 0, 0, tr.Location()),
		End:   time.Date(2025, 6, 9, 0, 0, 0, 0, tr.Location()),
	}
	_, err := svc.Reconcile(context.Background(), window)
	assert.ErrorIs(t, err, timezone.ErrInvalidRange)
}
