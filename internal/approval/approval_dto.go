package approval

type CreateLeaveRequest struct {
	LeaveType     string   `json:"leave_type" binding:"required,oneof=SL VL MATERNITY PATERNITY SOLO_PARENT UNPAID"`
	DateFrom      string   `json:"date_from" binding:"required"`
	DateTo        string   `json:"date_to" binding:"required"`
	SelectedDates []string `json:"selected_dates"`
	Reason        string   `json:"reason"`
}

type DecisionRequest struct {
	Remarks string `json:"remarks"`
}

type ApprovalResponse struct {
	Role       string `json:"role"`
	ApprovedBy string `json:"approved_by"`
	Status     string `json:"status"`
	Remarks    string `json:"remarks,omitempty"`
	ApprovedAt string `json:"approved_at"`
}

type LeaveRequestResponse struct {
	ID             string             `json:"id"`
	EmployeeID     string             `json:"employee_id"`
	LeaveType      string             `json:"leave_type"`
	DateFrom       string             `json:"date_from"`
	DateTo         string             `json:"date_to"`
	SelectedDates  []string           `json:"selected_dates,omitempty"`
	Reason         string             `json:"reason,omitempty"`
	Status         string             `json:"status"`
	DaysWithPay    int                `json:"days_with_pay"`
	DaysWithoutPay int                `json:"days_without_pay"`
	RequesterRole  string             `json:"requester_role"`
	RequiredRoles  []string           `json:"required_roles"`
	Approvals      []ApprovalResponse `json:"approvals,omitempty"`
	CreatedAt      string             `json:"created_at"`
}
