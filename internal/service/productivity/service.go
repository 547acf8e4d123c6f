package productivity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/activity"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/employee"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/ledger"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/productivity"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/role"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/metrics"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// recomputeConcurrency bounds parallel Compute calls during a daily recompute.
const recomputeConcurrency = 4

type ProductivityServiceImpl struct {
	intervalRepo ledger.ClockIntervalRepository
	scoreRepo    productivity.DailyScoreRepository
	employeeRepo employee.EmployeeRepository
	roleRepo     role.Repository
	feed         activity.Feed
	translator   *timezone.Translator
	weighting    productivity.Weighting
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewProductivityService(
	intervalRepo ledger.ClockIntervalRepository,
	scoreRepo productivity.DailyScoreRepository,
	employeeRepo employee.EmployeeRepository,
	roleRepo role.Repository,
	feed activity.Feed,
	translator *timezone.Translator,
	weighting productivity.Weighting,
	m *metrics.Metrics,
) *ProductivityServiceImpl {
	return &ProductivityServiceImpl{
		intervalRepo: intervalRepo,
		scoreRepo:    scoreRepo,
		employeeRepo: employeeRepo,
		roleRepo:     roleRepo,
		feed:         feed,
		translator:   translator,
		weighting:    weighting,
		metrics:      m,
		now:          time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *ProductivityServiceImpl) WithClock(now func() time.Time) *ProductivityServiceImpl {
	s.now = now
	return s
}

type span struct {
	start, end time.Time
}

func (sp span) overlap(start, end time.Time) time.Duration {
	lo, hi := sp.start, sp.end
	if start.After(lo) {
		lo = start
	}
	if end.Before(hi) {
		hi = end
	}
	if !hi.After(lo) {
		return 0
	}
	return hi.Sub(lo)
}

// Compute implements productivity.ProductivityService.
func (s *ProductivityServiceImpl) Compute(ctx context.Context, employeeID string, dateRange timezone.DateRange) (productivity.Result, error) {
	if err := dateRange.Validate(); err != nil {
		return productivity.Result{}, err
	}

	now := s.now().UTC()
	start, end := s.translator.RangeToUTCBounds(dateRange)
	if now.Before(end) {
		end = now
	}

	result := productivity.Result{
		EmployeeID: employeeID,
		StartDate:  timezone.FormatDate(dateRange.Start),
		EndDate:    timezone.FormatDate(dateRange.End),
	}

	var (
		intervals []ledger.ClockInterval
		windows   []activity.ActivityWindow
		cfg       role.RoleConfig
	)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Role policy
	g.Go(func() error {
		emp, err := s.employeeRepo.GetByID(gCtx, employeeID)
		if err != nil {
			return fmt.Errorf("failed to get employee: %w", err)
		}
		cfg, err = s.roleRepo.GetRoleConfig(gCtx, emp.RoleID)
		if err != nil {
			return fmt.Errorf("failed to get role config %s: %w", emp.RoleID, err)
		}
		return nil
	})

	if end.After(start) {
		// 2. Clock intervals
		g.Go(func() error {
			var err error
			intervals, err = s.intervalRepo.ListOverlapping(gCtx, employeeID, start, end)
			if err != nil {
				return fmt.Errorf("failed to list clock intervals: %w", err)
			}
			return nil
		})

		// 3. Activity windows
		g.Go(func() error {
			var err error
			windows, err = s.feed.GetActivityWindows(gCtx, employeeID, start, end)
			if err != nil {
				return fmt.Errorf("failed to get activity windows: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return productivity.Result{}, err
	}

	clocked := clockedUnion(intervals, start, end, now)

	var clockedDur, activeDur time.Duration
	for _, sp := range clocked {
		clockedDur += sp.end.Sub(sp.start)
	}

	items := 0
	for _, w := range windows {
		var inside time.Duration
		for _, sp := range clocked {
			inside += sp.overlap(w.WindowStart, w.WindowEnd)
		}
		if inside > 0 {
			activeDur += inside
			items += w.ItemsCount
		}
	}

	clockedMinutes := clockedDur.Minutes()
	activeMinutes := activeDur.Minutes()
	idleMinutes := clockedMinutes - activeMinutes
	if idleMinutes < 0 {
		idleMinutes = 0
	}
	itemsPerHour := 0.0
	if activeMinutes > 0 {
		itemsPerHour = float64(items) / (activeMinutes / 60)
	}

	score := s.weighting.Score(productivity.ScoreInput{
		ClockedMinutes:  clockedMinutes,
		ActiveMinutes:   activeMinutes,
		ItemsPerHour:    itemsPerHour,
		ExpectedPerHour: cfg.ExpectedPerHour,
	})

	result.ClockedMinutes = round2(clockedMinutes)
	result.ActiveMinutes = round2(activeMinutes)
	result.IdleMinutes = round2(idleMinutes)
	result.ItemsCount = items
	result.ItemsPerHour = round2(itemsPerHour)
	result.Score = round2(score)

	return result, nil
}

// clockedUnion clips intervals to [start, end) and merges overlaps, so a
// minute is never counted twice.
func clockedUnion(intervals []ledger.ClockInterval, start, end, now time.Time) []span {
	spans := make([]span, 0, len(intervals))
	for _, iv := range intervals {
		sp := span{start: iv.ClockIn, end: iv.EffectiveEnd(now)}
		if sp.start.Before(start) {
			sp.start = start
		}
		if sp.end.After(end) {
			sp.end = end
		}
		if sp.end.After(sp.start) {
			spans = append(spans, sp)
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start.Before(spans[j].start) })

	merged := make([]span, 0, len(spans))
	for _, sp := range spans {
		if n := len(merged); n > 0 && !sp.start.After(merged[n-1].end) {
			if sp.end.After(merged[n-1].end) {
				merged[n-1].end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

// RecomputeDailyScores implements productivity.ProductivityService. Employees
// that fail are logged and counted; the rest are still written.
func (s *ProductivityServiceImpl) RecomputeDailyScores(ctx context.Context, date time.Time) (productivity.RecomputeResponse, error) {
	dayStart, dayEnd := s.translator.LocalDayToUTCBounds(date)
	resp := productivity.RecomputeResponse{Date: timezone.FormatDate(date)}

	employeeIDs, err := s.intervalRepo.ListEmployeeIDsWithActivity(ctx, dayStart, dayEnd)
	if err != nil {
		return resp, fmt.Errorf("failed to list employees with activity: %w", err)
	}

	var (
		mu     sync.Mutex
		scores = make([]productivity.DailyScore, 0, len(employeeIDs))
	)
	g := new(errgroup.Group)
	g.SetLimit(recomputeConcurrency)

	for _, employeeID := range employeeIDs {
		employeeID := employeeID
		g.Go(func() error {
			result, err := s.Compute(ctx, employeeID, timezone.SingleDay(date))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				resp.Failed++
				slog.Error("Productivity: failed to compute daily score",
					"employee_id", employeeID, "date", resp.Date, "error", err)
				return nil
			}
			scores = append(scores, toDailyScore(result, date, s.now().UTC()))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return resp, err
	}
	// A day where every employee failed keeps its previous cache.
	if len(scores) == 0 && resp.Failed > 0 {
		return resp, nil
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].EmployeeID < scores[j].EmployeeID })
	if err := s.scoreRepo.SaveDay(ctx, date, scores); err != nil {
		return resp, fmt.Errorf("failed to save daily scores: %w", err)
	}
	resp.Computed = len(scores)

	s.metrics.ScoresComputed(resp.Computed)
	slog.Info("Productivity: daily scores recomputed",
		"date", resp.Date, "computed", resp.Computed, "failed", resp.Failed)

	return resp, nil
}

func toDailyScore(r productivity.Result, date, computedAt time.Time) productivity.DailyScore {
	return productivity.DailyScore{
		EmployeeID:     r.EmployeeID,
		ScoreDate:      date,
		ClockedMinutes: decimal.NewFromFloat(r.ClockedMinutes),
		ActiveMinutes:  decimal.NewFromFloat(r.ActiveMinutes),
		IdleMinutes:    decimal.NewFromFloat(r.IdleMinutes),
		ItemsCount:     r.ItemsCount,
		ItemsPerHour:   decimal.NewFromFloat(r.ItemsPerHour),
		Score:          decimal.NewFromFloat(r.Score),
		ComputedAt:     computedAt,
	}
}

// GetDailyScores implements productivity.ProductivityService.
func (s *ProductivityServiceImpl) GetDailyScores(ctx context.Context, date time.Time) ([]productivity.DailyScoreResponse, error) {
	scores, err := s.scoreRepo.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily scores: %w", err)
	}

	resp := make([]productivity.DailyScoreResponse, 0, len(scores))
	for _, sc := range scores {
		resp = append(resp, productivity.DailyScoreResponse{
			EmployeeID:     sc.EmployeeID,
			Date:           timezone.FormatDate(sc.ScoreDate),
			ClockedMinutes: sc.ClockedMinutes.InexactFloat64(),
			ActiveMinutes:  sc.ActiveMinutes.InexactFloat64(),
			IdleMinutes:    sc.IdleMinutes.InexactFloat64(),
			ItemsCount:     sc.ItemsCount,
			ItemsPerHour:   sc.ItemsPerHour.InexactFloat64(),
			Score:          sc.Score.InexactFloat64(),
			ComputedAt:     sc.ComputedAt.Format(time.RFC3339),
		})
	}
	return resp, nil
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
