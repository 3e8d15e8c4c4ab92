package conversion

type CreateConversionRequest struct {
	CreditType string `json:"credit_type" binding:"required,oneof=SL VL"`
	Credits    string `json:"credits" binding:"required"`
}

type DecisionRequest struct {
	Remarks string `json:"remarks"`
}

type StageResponse struct {
	ApprovedBy string `json:"approved_by"`
	ApprovedAt string `json:"approved_at"`
	Remarks    string `json:"remarks,omitempty"`
}

type ConversionResponse struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	CreditType     string `json:"credit_type"`
	Credits        string `json:"credits"`
	MonthlySalary  string `json:"monthly_salary"`
	EquivalentCash string `json:"equivalent_cash"`
	Status         string `json:"status"`

	HRStage       *StageResponse `json:"hr_stage,omitempty"`
	DeptHeadStage *StageResponse `json:"dept_head_stage,omitempty"`
	AdminStage    *StageResponse `json:"admin_stage,omitempty"`

	RejectedBy      string `json:"rejected_by,omitempty"`
	RejectedAtStage string `json:"rejected_at_stage,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	CreatedAt string `json:"created_at"`
}
