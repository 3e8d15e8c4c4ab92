package approval

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/janajenn/capstone2-sub006/internal/employee"
	"github.com/janajenn/capstone2-sub006/internal/ledger"

	"github.com/google/uuid"
)

const (
	StatusPending         = "pending"
	StatusPendingDeptHead = "pending_dept_head"
	StatusPendingAdmin    = "pending_admin"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusRecalled        = "recalled"
)

// Approval gates, in the role vocabulary of the employee directory.
const (
	GateHR       = employee.RoleHR
	GateDeptHead = employee.RoleDeptHead
	GateAdmin    = employee.RoleAdmin
)

const (
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Leave types. SL and VL are backed by ledger credits; the rest never touch
// the ledger.
const (
	TypeSL         = ledger.TypeSL
	TypeVL         = ledger.TypeVL
	TypeMaternity  = "MATERNITY"
	TypePaternity  = "PATERNITY"
	TypeSoloParent = "SOLO_PARENT"
	TypeUnpaid     = "UNPAID"
)

func CreditBacked(leaveType string) bool {
	return leaveType == TypeSL || leaveType == TypeVL
}

// requiredApprovalRoles is the single authoritative mapping from the
// requester's organizational role to the ordered approval gates.
var requiredApprovalRoles = map[string][]string{
	employee.RoleEmployee: {GateHR, GateDeptHead, GateAdmin},
	employee.RoleHR:       {GateHR, GateDeptHead, GateAdmin},
	employee.RoleDeptHead: {GateHR, GateAdmin},
	employee.RoleAdmin:    {GateHR, GateAdmin},
}

// RequiredRoles returns the ordered gate list for a requester role.
// Unknown roles get the full chain.
func RequiredRoles(requesterRole string) []string {
	if roles, ok := requiredApprovalRoles[requesterRole]; ok {
		return roles
	}
	return requiredApprovalRoles[employee.RoleEmployee]
}

// gateForStatus maps a non-terminal request status to the role whose turn
// it is.
func gateForStatus(status string) (string, bool) {
	switch status {
	case StatusPending:
		return GateHR, true
	case StatusPendingDeptHead:
		return GateDeptHead, true
	case StatusPendingAdmin:
		return GateAdmin, true
	}
	return "", false
}

// statusAfterGate returns the request status once gate has approved, given
// the required chain.
func statusAfterGate(required []string, gate string) string {
	for i, role := range required {
		if role != gate {
			continue
		}
		if i == len(required)-1 {
			return StatusApproved
		}
		switch required[i+1] {
		case GateDeptHead:
			return StatusPendingDeptHead
		case GateAdmin:
			return StatusPendingAdmin
		}
	}
	return StatusApproved
}

func terminalStatus(status string) bool {
	switch status {
	case StatusApproved, StatusRejected, StatusRecalled:
		return true
	}
	return false
}

// DateList is an optional explicit set of leave dates (YYYY-MM-DD) stored
// as jsonb. When present it overrides the from/to range.
type DateList []string

func (d DateList) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *DateList) Scan(value any) error {
	if value == nil {
		*d = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return errors.New("unsupported type for DateList")
}

func (DateList) GormDataType() string {
	return "jsonb"
}

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee"`

	LeaveType     string    `gorm:"type:varchar(20);not null"`
	DateFrom      time.Time `gorm:"type:date;not null"`
	DateTo        time.Time `gorm:"type:date;not null"`
	SelectedDates DateList
	Reason        string `gorm:"type:text"`

	Status string `gorm:"type:varchar(20);not null;default:'pending';index"`

	DaysWithPay    int `gorm:"type:int;not null;default:0"`
	DaysWithoutPay int `gorm:"type:int;not null;default:0"`

	// Role of the requester at submission time; the gate chain is derived
	// from this snapshot, not from the live directory record.
	RequesterRoleSnapshot string `gorm:"type:varchar(20);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeaveApproval is immutable once created; at most one row per role per
// request.
type LeaveApproval struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeaveID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_approvals_leave_role,unique"`
	Role       string    `gorm:"type:varchar(20);not null;index:idx_leave_approvals_leave_role,unique"`
	ApprovedBy uuid.UUID `gorm:"type:uuid;not null"`
	Status     string    `gorm:"type:varchar(10);not null"`
	Remarks    string    `gorm:"type:text"`
	ApprovedAt time.Time
}
