package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranus1989/productivity-system-sub002/internal/domain/idle"
)

const JobCheckIdle = "check_idle"

type IdleJobs struct {
	idleService idle.IdleService
	interval    time.Duration
}

func NewIdleJobs(idleService idle.IdleService, interval time.Duration) *IdleJobs {
	return &IdleJobs{idleService: idleService, interval: interval}
}

func (j *IdleJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(JobCheckIdle, j.interval, j.CheckIdle)
}

func (j *IdleJobs) CheckIdle(ctx context.Context) error {
	if _, err := j.idleService.CheckAllClockedIn(ctx); err != nil {
		return fmt.Errorf("check idle: %w", err)
	}
	return nil
}
