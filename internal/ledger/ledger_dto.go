package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeductRequest and RestoreRequest are the ledger's internal contracts,
// used by the approval, recall, conversion and attendance callers.
type DeductRequest struct {
	EmployeeID string
	Type       string
	Points     decimal.Decimal
	Reason     string
	Remarks    string
	Date       time.Time
}

type RestoreRequest struct {
	EmployeeID string
	Type       string
	Points     decimal.Decimal
	Reason     string
	Remarks    string
	Date       time.Time
}

// LateDeductionRequest is the HTTP body posted by the attendance pipeline.
type LateDeductionRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	Points     string `json:"points" binding:"required"`
	Date       string `json:"date" binding:"required"`
	Remarks    string `json:"remarks"`
}

type CreditResponse struct {
	EmployeeID  string `json:"employee_id"`
	SLBalance   string `json:"sl_balance"`
	VLBalance   string `json:"vl_balance"`
	LastUpdated string `json:"last_updated,omitempty"`
}

type LogResponse struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	Type           string `json:"type"`
	Date           string `json:"date"`
	Year           int    `json:"year"`
	Month          int    `json:"month"`
	PointsDeducted string `json:"points_deducted"`
	BalanceBefore  string `json:"balance_before"`
	BalanceAfter   string `json:"balance_after"`
	Reason         string `json:"reason"`
	Remarks        string `json:"remarks"`
}

// AccrualSummary aggregates one batch run; one employee failing never
// aborts the others.
type AccrualSummary struct {
	Processed int               `json:"processed"`
	Accrued   int               `json:"accrued"`
	Skipped   int               `json:"skipped"`
	Failed    int               `json:"failed"`
	Failures  map[string]string `json:"failures,omitempty"`
}
