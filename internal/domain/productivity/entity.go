package productivity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyScore is the cached Result of one employee on one local date.
type DailyScore struct {
	EmployeeID     string
	ScoreDate      time.Time
	ClockedMinutes decimal.Decimal
	ActiveMinutes  decimal.Decimal
	IdleMinutes    decimal.Decimal
	ItemsCount     int
	ItemsPerHour   decimal.Decimal
	Score          decimal.Decimal
	ComputedAt     time.Time
}

// Weighting turns measured minutes and throughput into a score.
type Weighting interface {
	Score(in ScoreInput) float64
}

type ScoreInput struct {
	ClockedMinutes  float64
	ActiveMinutes   float64
	ItemsPerHour    float64
	ExpectedPerHour float64
}

const maxThroughputRatio = 1.5

// DefaultWeighting blends the active ratio with throughput against the role's
// expected rate, on a 0-100 scale. Roles without an expected rate are scored
// on the active ratio alone.
type DefaultWeighting struct {
	ActiveWeight     float64
	ThroughputWeight float64
}

func (w DefaultWeighting) Score(in ScoreInput) float64 {
	if in.ClockedMinutes <= 0 {
		return 0
	}
	activeRatio := in.ActiveMinutes / in.ClockedMinutes
	if activeRatio > 1 {
		activeRatio = 1
	}

	if in.ExpectedPerHour <= 0 || w.ActiveWeight+w.ThroughputWeight <= 0 {
		return clamp(activeRatio * 100)
	}

	throughput := in.ItemsPerHour / in.ExpectedPerHour
	if throughput > maxThroughputRatio {
		throughput = maxThroughputRatio
	}
	blended := (w.ActiveWeight*activeRatio + w.ThroughputWeight*throughput) / (w.ActiveWeight + w.ThroughputWeight)
	return clamp(blended * 100)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
