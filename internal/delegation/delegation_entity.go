package delegation

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive = "active"
	StatusEnded  = "ended"
)

// DelegatedApprover is a time-boxed transfer of the admin-gate authority
// from one admin to another. Dates are inclusive on both ends.
type DelegatedApprover struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	FromAdminID uuid.UUID `gorm:"type:uuid;not null;index"`
	ToAdminID   uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	Status      string    `gorm:"type:varchar(10);not null;default:'active';index"`
	Reason      string    `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Covers reports whether the delegation window contains day (inclusive).
func (d *DelegatedApprover) Covers(day time.Time) bool {
	y, m, dd := day.Date()
	day = time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)

	start := time.Date(d.StartDate.Year(), d.StartDate.Month(), d.StartDate.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(d.EndDate.Year(), d.EndDate.Month(), d.EndDate.Day(), 0, 0, 0, 0, time.UTC)

	return !day.Before(start) && !day.After(end)
}
