package productivity

import (
	"context"
	"time"
)

type DailyScoreRepository interface {
	// SaveDay makes scores the cached set for date: each one replaces the
	// employee's row, and rows of employees not in scores are removed.
	SaveDay(ctx context.Context, date time.Time, scores []DailyScore) error
	ListByDate(ctx context.Context, date time.Time) ([]DailyScore, error)
}
