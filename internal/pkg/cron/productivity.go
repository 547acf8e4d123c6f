package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/productivity"
	"github.com/nguyentranus1989/productivity-system-sub002/internal/pkg/timezone"
)

const JobRecomputeDailyScores = "recompute_daily_scores"

// ScoreJobs refreshes the daily score cache for yesterday and today, so
// corrections that land after midnight still reach yesterday's scores.
type ScoreJobs struct {
	productivityService productivity.ProductivityService
	translator          *timezone.Translator
	interval            time.Duration
	now                 func() time.Time
}

func NewScoreJobs(productivityService productivity.ProductivityService, translator *timezone.Translator, interval time.Duration) *ScoreJobs {
	return &ScoreJobs{
		productivityService: productivityService,
		translator:          translator,
		interval:            interval,
		now:                 time.Now,
	}
}

func (j *ScoreJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobRecomputeDailyScores, j.interval, j.RecomputeDailyScores)
}

func (j *ScoreJobs) RecomputeDailyScores(ctx context.Context) error {
	var errs []error
	for _, day := range j.translator.Days(j.translator.LastDays(j.now(), 2)) {
		if _, err := j.productivityService.RecomputeDailyScores(ctx, day); err != nil {
			errs = append(errs, fmt.Errorf("recompute %s: %w", timezone.FormatDate(day), err))
		}
	}
	return errors.Join(errs...)
}
