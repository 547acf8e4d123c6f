package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/employee"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
)

// memoryLedger mirrors the clock_intervals constraints: unique
// (employee_id, clock_in) and one open interval per employee. Like pgx, it
// fails reads and writes once ctx is done.
type memoryLedger struct {
	mu      sync.Mutex
	rows    map[string]ledger.ClockInterval
	nextID  int
	creates int
	closes  int
}

func newMemoryLedger(rows ...ledger.ClockInterval) *memoryLedger {
	m := &memoryLedger{rows: make(map[string]ledger.ClockInterval)}
	for _, r := range rows {
		if r.ID == "" {
			m.nextID++
			r.ID = fmt.Sprintf("seed-%d", m.nextID)
		}
		m.rows[r.ID] = r
	}
	return m
}

func (m *memoryLedger) ListByClockInRange(ctx context.Context, start, end time.Time) ([]ledger.ClockInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.ClockInterval
	for _, r := range m.rows {
		if !r.ClockIn.Before(start) && r.ClockIn.Before(end) {
			out = append(out, r)
		}
	}
	sortRows(out)
	return out, nil
}

func (m *memoryLedger) ListOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]ledger.ClockInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.ClockInterval
	for _, r := range m.rows {
		if r.EmployeeID != employeeID || !r.ClockIn.Before(end) {
			continue
		}
		if r.ClockOut == nil || r.ClockOut.After(start) {
			out = append(out, r)
		}
	}
	sortRows(out)
	return out, nil
}

func (m *memoryLedger) Create(ctx context.Context, interval ledger.ClockInterval) (ledger.ClockInterval, error) {
	if err := ctx.Err(); err != nil {
		return ledger.ClockInterval{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.EmployeeID != interval.EmployeeID {
			continue
		}
		if r.ClockIn.Equal(interval.ClockIn) {
			return ledger.ClockInterval{}, ledger.ErrDuplicateKey
		}
		if r.ClockOut == nil && interval.ClockOut == nil {
			return ledger.ClockInterval{}, ledger.ErrOpenIntervalConflict
		}
	}
	m.nextID++
	m.creates++
	interval.ID = fmt.Sprintf("row-%d", m.nextID)
	m.rows[interval.ID] = interval
	return interval, nil
}

func (m *memoryLedger) Close(ctx context.Context, id string, clockOut time.Time, totalMinutes float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok || r.ClockOut != nil {
		return ledger.ErrIntervalNotFound
	}
	r.ClockOut = &clockOut
	r.TotalMinutes = &totalMinutes
	m.rows[id] = r
	m.closes++
	return nil
}

func (m *memoryLedger) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.rows[id]; ok {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func (m *memoryLedger) GetOpenInterval(ctx context.Context, employeeID string) (*ledger.ClockInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.EmployeeID == employeeID && r.ClockOut == nil {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memoryLedger) ListOpen(ctx context.Context) ([]ledger.ClockInterval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.ClockInterval
	for _, r := range m.rows {
		if r.ClockOut == nil {
			out = append(out, r)
		}
	}
	sortRows(out)
	return out, nil
}

func (m *memoryLedger) ListEmployeeIDsWithActivity(ctx context.Context, start, end time.Time) ([]string, error) {
	return nil, nil
}

func (m *memoryLedger) all() []ledger.ClockInterval {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ledger.ClockInterval, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sortRows(out)
	return out
}

func sortRows(rows []ledger.ClockInterval) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EmployeeID != rows[j].EmployeeID {
			return rows[i].EmployeeID < rows[j].EmployeeID
		}
		return rows[i].ClockIn.Before(rows[j].ClockIn)
	})
}

type memoryLock struct {
	mu       sync.Mutex
	held     *ledger.SyncLock
	acquires int
	releases int
}

func (l *memoryLock) Acquire(ctx context.Context, name, owner string, now, staleBefore time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held != nil && !l.held.AcquiredAt.Before(staleBefore) {
		return ledger.ErrLockContention
	}
	l.held = &ledger.SyncLock{Name: name, Owner: owner, AcquiredAt: now}
	l.acquires++
	return nil
}

func (l *memoryLock) Release(ctx context.Context, name, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil || l.held.Owner != owner {
		return ledger.ErrLockNotHeld
	}
	l.held = nil
	l.releases++
	return nil
}

func (l *memoryLock) isHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held != nil
}

type stubSource struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error)
}

func newStubSource(fn func(ctx context.Context, date string, attempt int) ([]ledger.Shift, error)) *stubSource {
	return &stubSource{calls: make(map[string]int), fn: fn}
}

func (s *stubSource) GetShiftsForDate(ctx context.Context, date time.Time) ([]ledger.Shift, error) {
	key := date.Format("2006-01-02")
	s.mu.Lock()
	s.calls[key]++
	attempt := s.calls[key]
	s.mu.Unlock()
	return s.fn(ctx, key, attempt)
}

type stubDirectory struct {
	mu      sync.Mutex
	mapping map[string]string
	lookups map[string]int
}

func newStubDirectory(mapping map[string]string) *stubDirectory {
	return &stubDirectory{mapping: mapping, lookups: make(map[string]int)}
}

func (d *stubDirectory) ResolveExternalID(ctx context.Context, externalUserID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups[externalUserID]++
	if id, ok := d.mapping[externalUserID]; ok {
		return id, nil
	}
	return "", employee.ErrUnmappedEmployee
}
