package conversion

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Conversion statuses form a fixed three-stage chain. Unlike leave
// approval the chain never shortens for elevated requesters.
const (
	StatusPending          = "pending"
	StatusHRApproved       = "hr_approved"
	StatusDeptHeadApproved = "dept_head_approved"
	StatusAdminApproved    = "admin_approved"
	StatusRejected         = "rejected"
)

// MonthlyWorkingDays is the divisor turning a monthly salary into a daily
// rate for cash conversion.
var MonthlyWorkingDays = decimal.NewFromInt(22)

// EquivalentCash computes the payout for converting credits at the given
// monthly salary: round((salary / 22) * credits, 2).
func EquivalentCash(monthlySalary, credits decimal.Decimal) decimal.Decimal {
	return monthlySalary.Div(MonthlyWorkingDays).Mul(credits).Round(2)
}

// CreditConversion is one request to convert leave credits to cash. Each
// stage records its decider inline; the row is the full audit trail.
type CreditConversion struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_credit_conversions_employee"`

	CreditType string          `gorm:"type:varchar(5);not null"`
	Credits    decimal.Decimal `gorm:"type:numeric(8,3);not null"`

	// Snapshotted at submission so later salary changes never move the
	// payout.
	MonthlySalary  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	EquivalentCash decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	Status string `gorm:"type:varchar(25);not null;default:'pending';index"`

	HRApprovedBy *uuid.UUID `gorm:"type:uuid"`
	HRApprovedAt *time.Time
	HRRemarks    string `gorm:"type:text"`

	DeptHeadApprovedBy *uuid.UUID `gorm:"type:uuid"`
	DeptHeadApprovedAt *time.Time
	DeptHeadRemarks    string `gorm:"type:text"`

	AdminApprovedBy *uuid.UUID `gorm:"type:uuid"`
	AdminApprovedAt *time.Time
	AdminRemarks    string `gorm:"type:text"`

	RejectedBy      *uuid.UUID `gorm:"type:uuid"`
	RejectedAt      *time.Time
	RejectedAtStage string `gorm:"type:varchar(25)"`
	RejectionReason string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func terminalStatus(status string) bool {
	return status == StatusAdminApproved || status == StatusRejected
}

// nextStatus maps the current status to the status after the pending
// stage approves.
func nextStatus(status string) (string, bool) {
	switch status {
	case StatusPending:
		return StatusHRApproved, true
	case StatusHRApproved:
		return StatusDeptHeadApproved, true
	case StatusDeptHeadApproved:
		return StatusAdminApproved, true
	}
	return "", false
}
