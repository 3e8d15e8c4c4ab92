package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Credit-backed leave types. Both accrue daily and are the only types the
// ledger tracks.
const (
	TypeSL = "SL"
	TypeVL = "VL"
)

// Reason codes classify every ledger row structurally, instead of the
// free-text remark matching the old reports relied on.
const (
	ReasonDailyAccrual = "daily_accrual"
	ReasonLeaveUsage   = "leave_usage"
	ReasonLate         = "late"
	ReasonRecall       = "recall"
	ReasonConversion   = "conversion"
)

// DailyAccrualRate is 1.25 credits per month spread over 30 days.
var DailyAccrualRate = decimal.NewFromFloat(1.25).DivRound(decimal.NewFromInt(30), 6)

// LeaveCredit is the single source of truth for an employee's current
// balances. One row per employee, created lazily, never deleted.
type LeaveCredit struct {
	EmployeeID  uuid.UUID
	SLBalance   decimal.Decimal
	VLBalance   decimal.Decimal
	LastUpdated time.Time // date of the last daily accrual
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *LeaveCredit) BalanceFor(creditType string) decimal.Decimal {
	if creditType == TypeSL {
		return c.SLBalance
	}
	return c.VLBalance
}

func (c *LeaveCredit) SetBalance(creditType string, balance decimal.Decimal) {
	if creditType == TypeSL {
		c.SLBalance = balance
		return
	}
	c.VLBalance = balance
}

// LeaveCreditLog is one immutable audit row per balance change.
// Invariant: BalanceAfter = BalanceBefore - PointsDeducted.
type LeaveCreditLog struct {
	ID         uuid.UUID
	EmployeeID uuid.UUID
	Type       string
	Date       time.Time
	Year       int
	Month      int

	// Positive deducts, negative credits.
	PointsDeducted decimal.Decimal
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal

	Reason    string
	Remarks   string
	CreatedAt time.Time
}

func ValidCreditType(creditType string) bool {
	return creditType == TypeSL || creditType == TypeVL
}
