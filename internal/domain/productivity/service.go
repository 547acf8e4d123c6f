package productivity

import (
	"context"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

type ProductivityService interface {
	Compute(ctx context.Context, employeeID string, dateRange timezone.DateRange) (Result, error)

	// RecomputeDailyScores rebuilds the cache for every employee clocked in on date.
	RecomputeDailyScores(ctx context.Context, date time.Time) (RecomputeResponse, error)
	GetDailyScores(ctx context.Context, date time.Time) ([]DailyScoreResponse, error)
}
