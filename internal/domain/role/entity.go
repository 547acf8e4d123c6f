package role

import (
	"errors"
	"math"
)

var ErrRoleNotFound = errors.New("role config not found")

type RoleType string

const (
	RoleTypeContinuous RoleType = "continuous"
	RoleTypeBatch      RoleType = "batch"
)

const (
	minThresholdMinutes  = 3
	batchThresholdBuffer = 1.1
)

type RoleConfig struct {
	ID                   string
	Name                 string
	Type                 RoleType
	ExpectedPerHour      float64
	IdleThresholdMinutes int
}

// IdleThreshold returns how many idle minutes the role tolerates.
//
// Continuous roles use the fixed configured threshold, or the 3 minute floor
// when none is configured. Batch roles scale with the size of the last batch:
// the expected time to process it plus 10%, never below 3 minutes. hasBatch
// is false when no batch was recorded yet in the current shift; the
// configured threshold then applies, falling back to the 3 minute floor.
func (c RoleConfig) IdleThreshold(lastBatchItems int, hasBatch bool) float64 {
	switch c.Type {
	case RoleTypeBatch:
		if !hasBatch || c.ExpectedPerHour <= 0 {
			if c.IdleThresholdMinutes > 0 {
				return float64(c.IdleThresholdMinutes)
			}
			return minThresholdMinutes
		}
		// epsilon keeps float noise (10*1.1 = 11.000000000000002) from adding a minute
		minutes := math.Ceil(float64(lastBatchItems)*(60/c.ExpectedPerHour)*batchThresholdBuffer - 1e-9)
		return math.Max(minThresholdMinutes, minutes)
	default:
		if c.IdleThresholdMinutes <= 0 {
			return minThresholdMinutes
		}
		return float64(c.IdleThresholdMinutes)
	}
}

func (t RoleType) IsValid() bool {
	return t == RoleTypeContinuous || t == RoleTypeBatch
}
