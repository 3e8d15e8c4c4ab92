package recall

import (
	"time"

	"github.com/google/uuid"
)

// RecallWindowDays is how long after a leave period ends a recall is still
// accepted.
const RecallWindowDays = 7

// LeaveRecall records one recall of an approved vacation leave. At most
// one row per leave request.
type LeaveRecall struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeaveID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_leave_recalls_leave"`
	RecalledBy   uuid.UUID `gorm:"type:uuid;not null"`
	Reason       string    `gorm:"type:text;not null"`
	DaysRestored int       `gorm:"type:int;not null"`
	RecalledAt   time.Time
	CreatedAt    time.Time
}
