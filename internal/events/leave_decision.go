package events

import "time"

const LeaveNotificationTopic = "hr.leave.notifications.v1"

const (
	EventLeaveApproved       = "approved"
	EventLeaveRejected       = "rejected"
	EventLeaveRecalled       = "recalled"
	EventConversionApproved  = "conversion_approved"
	EventConversionRejected  = "conversion_rejected"
)

// LeaveDecisionEvent is the payload handed to the external notification
// component. Delivery and read-state are the notifier's problem.
type LeaveDecisionEvent struct {
	EventType     string    `json:"event_type"`
	RequestID     string    `json:"request_id"`
	EmployeeID    string    `json:"employee_id"`
	LeaveTypeName string    `json:"leave_type_name"`
	DateFrom      string    `json:"date_from"`
	DateTo        string    `json:"date_to"`
	Remarks       string    `json:"remarks"`
	OccurredAt    time.Time `json:"occurred_at"`
}
