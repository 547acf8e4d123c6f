package idle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/activity"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/employee"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/idle"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/role"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/metrics"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

type IdleServiceImpl struct {
	intervalRepo ledger.ClockIntervalRepository
	periodRepo   idle.IdlePeriodRepository
	employeeRepo employee.EmployeeRepository
	roleRepo     role.Repository
	feed         activity.Feed
	translator   *timezone.Translator
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewIdleService(
	intervalRepo ledger.ClockIntervalRepository,
	periodRepo idle.IdlePeriodRepository,
	employeeRepo employee.EmployeeRepository,
	roleRepo role.Repository,
	feed activity.Feed,
	translator *timezone.Translator,
	m *metrics.Metrics,
) *IdleServiceImpl {
	return &IdleServiceImpl{
		intervalRepo: intervalRepo,
		periodRepo:   periodRepo,
		employeeRepo: employeeRepo,
		roleRepo:     roleRepo,
		feed:         feed,
		translator:   translator,
		metrics:      m,
		now:          time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *IdleServiceImpl) WithClock(now func() time.Time) *IdleServiceImpl {
	s.now = now
	return s
}

// CheckIdle implements idle.IdleService.
func (s *IdleServiceImpl) CheckIdle(ctx context.Context, employeeID string) (*idle.IdleStatus, error) {
	now := s.now().UTC()

	open, err := s.intervalRepo.GetOpenInterval(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get open interval: %w", err)
	}
	if open == nil {
		if err := s.closeEndedShift(ctx, employeeID, now); err != nil {
			return nil, err
		}
		return nil, nil
	}

	status, err := s.evaluate(ctx, *open, now)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// CheckAllClockedIn implements idle.IdleService. A failure on one employee is
// logged and does not stop the sweep.
func (s *IdleServiceImpl) CheckAllClockedIn(ctx context.Context) ([]idle.IdleStatus, error) {
	now := s.now().UTC()

	openIntervals, err := s.intervalRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open intervals: %w", err)
	}

	clockedIn := make(map[string]bool, len(openIntervals))
	idleStatuses := make([]idle.IdleStatus, 0)
	warning, critical := 0, 0

	for _, open := range openIntervals {
		clockedIn[open.EmployeeID] = true

		status, err := s.evaluate(ctx, open, now)
		if err != nil {
			slog.Error("Idle: failed to evaluate employee", "employee_id", open.EmployeeID, "error", err)
			continue
		}
		if !status.IsIdle {
			continue
		}
		if status.Severity == idle.SeverityCritical {
			critical++
		} else {
			warning++
		}
		idleStatuses = append(idleStatuses, status)
	}

	openPeriods, err := s.periodRepo.ListOpen(ctx)
	if err != nil {
		slog.Error("Idle: failed to list open idle periods", "error", err)
	} else {
		closed := make(map[string]bool)
		for _, p := range openPeriods {
			if clockedIn[p.EmployeeID] || closed[p.EmployeeID] {
				continue
			}
			closed[p.EmployeeID] = true
			if err := s.closeEndedShift(ctx, p.EmployeeID, now); err != nil {
				slog.Error("Idle: failed to close idle period after clock-out", "employee_id", p.EmployeeID, "error", err)
			}
		}
	}

	s.metrics.SetIdle(warning, critical)
	slog.Debug("Idle: sweep finished", "clocked_in", len(openIntervals), "warning", warning, "critical", critical)

	return idleStatuses, nil
}

// ListPeriods implements idle.IdleService.
func (s *IdleServiceImpl) ListPeriods(ctx context.Context, employeeID string, dateRange timezone.DateRange) ([]idle.IdlePeriod, error) {
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}
	start, end := s.translator.RangeToUTCBounds(dateRange)

	periods, err := s.periodRepo.ListByEmployee(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list idle periods: %w", err)
	}
	if periods == nil {
		periods = []idle.IdlePeriod{}
	}
	return periods, nil
}

// evaluate measures idle time since the reference point: the end of the
// latest activity window of the current shift (or the current local day,
// whichever started first) that ended after the clock-in, or the clock-in
// itself.
func (s *IdleServiceImpl) evaluate(ctx context.Context, open ledger.ClockInterval, now time.Time) (idle.IdleStatus, error) {
	emp, err := s.employeeRepo.GetByID(ctx, open.EmployeeID)
	if err != nil {
		return idle.IdleStatus{}, fmt.Errorf("failed to get employee: %w", err)
	}
	cfg, err := s.roleRepo.GetRoleConfig(ctx, emp.RoleID)
	if err != nil {
		return idle.IdleStatus{}, fmt.Errorf("failed to get role config %s: %w", emp.RoleID, err)
	}

	// A shift that started before local midnight keeps its earlier windows.
	from, _ := s.translator.LocalDayToUTCBounds(s.translator.Today(now))
	if open.ClockIn.Before(from) {
		from = open.ClockIn
	}
	windows, err := s.feed.GetActivityWindows(ctx, open.EmployeeID, from, now)
	if err != nil {
		return idle.IdleStatus{}, fmt.Errorf("failed to get activity windows: %w", err)
	}

	latest, hasActivity := activity.Latest(windows, open.ClockIn)
	reference := open.ClockIn
	resumedAt := now
	if hasActivity {
		reference = latest.WindowEnd
		resumedAt = latest.WindowStart
	}

	threshold := cfg.IdleThreshold(latest.ItemsCount, hasActivity)
	idleMinutes := math.Max(0, now.Sub(reference).Minutes())

	status := idle.IdleStatus{
		EmployeeID:       open.EmployeeID,
		RoleID:           emp.RoleID,
		ClockIn:          open.ClockIn,
		ReferenceTime:    reference,
		IdleMinutes:      round2(idleMinutes),
		ThresholdMinutes: threshold,
	}

	if idleMinutes <= threshold {
		if _, err := s.periodRepo.CloseOpen(ctx, open.EmployeeID, resumedAt, nil); err != nil {
			return status, fmt.Errorf("failed to close idle period: %w", err)
		}
		return status, nil
	}

	status.IsIdle = true
	status.Severity = idle.SeverityFor(idleMinutes, threshold)

	// An earlier episode of this shift ended when the latest window started.
	if _, err := s.periodRepo.CloseOpen(ctx, open.EmployeeID, resumedAt, &reference); err != nil {
		return status, fmt.Errorf("failed to close previous idle period: %w", err)
	}

	period, created, err := s.periodRepo.UpsertOpen(ctx, idle.IdlePeriod{
		EmployeeID:      open.EmployeeID,
		StartTime:       reference,
		DurationMinutes: status.IdleMinutes,
		Severity:        status.Severity,
	})
	if err != nil {
		return status, fmt.Errorf("failed to record idle period: %w", err)
	}
	status.Period = &period
	status.PeriodCreated = created

	if created {
		s.metrics.IdlePeriodOpened()
		slog.Warn("Idle: employee idle beyond threshold",
			"employee_id", open.EmployeeID,
			"role_type", cfg.Type,
			"idle_minutes", status.IdleMinutes,
			"threshold_minutes", threshold,
			"since", reference.Format(time.RFC3339))
	}

	return status, nil
}

// closeEndedShift closes any idle episode left open by a shift that has
// ended, at the shift's clock-out when it can be found.
func (s *IdleServiceImpl) closeEndedShift(ctx context.Context, employeeID string, now time.Time) error {
	endedAt := now
	dayStart, _ := s.translator.LocalDayToUTCBounds(s.translator.Today(now))
	recent, err := s.intervalRepo.ListOverlapping(ctx, employeeID, dayStart.Add(-24*time.Hour), now)
	if err != nil {
		return fmt.Errorf("failed to get recent intervals: %w", err)
	}
	var lastOut *time.Time
	for _, iv := range recent {
		if iv.ClockOut != nil && (lastOut == nil || iv.ClockOut.After(*lastOut)) {
			lastOut = iv.ClockOut
		}
	}
	if lastOut != nil {
		endedAt = *lastOut
	}

	if _, err := s.periodRepo.CloseOpen(ctx, employeeID, endedAt, nil); err != nil {
		return fmt.Errorf("failed to close idle period: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
