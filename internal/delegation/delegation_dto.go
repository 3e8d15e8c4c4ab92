package delegation

type DelegateRequest struct {
	ToAdminID string `json:"to_admin_id" binding:"required,uuid"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

type DelegationResponse struct {
	ID          string `json:"id"`
	FromAdminID string `json:"from_admin_id"`
	ToAdminID   string `json:"to_admin_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
}

type CurrentApproverResponse struct {
	EmployeeID string `json:"employee_id"`
	Delegated  bool   `json:"delegated"`
}
