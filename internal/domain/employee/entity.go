package employee

import (
	"time"
)

type Employee struct {
	ID               string
	FullName         string
	TimeClockUserID  *string
	ProductionEmails []string
	RoleID           string
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusArchived:
		return true
	}
	return false
}
