package recall

type RecallRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RecallResponse struct {
	ID           string `json:"id"`
	LeaveID      string `json:"leave_id"`
	RecalledBy   string `json:"recalled_by"`
	Reason       string `json:"reason"`
	DaysRestored int    `json:"days_restored"`
	RecalledAt   string `json:"recalled_at"`
}

// EligibilityResponse answers "can this leave still be recalled" without
// side effects, for the approver UI.
type EligibilityResponse struct {
	LeaveID    string `json:"leave_id"`
	Recallable bool   `json:"recallable"`
	Reason     string `json:"reason,omitempty"`
}
