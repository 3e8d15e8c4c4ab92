package employee

type CreateEmployeeRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	EmployeeNumber string `json:"employee_number"`
	Role           string `json:"role" binding:"omitempty,oneof=employee hr dept_head admin"`
	MonthlySalary  string `json:"monthly_salary"`
	HireDate       string `json:"hire_date" binding:"required"`
}

type UpdateEmployeeRequest struct {
	FullName         string `json:"full_name"`
	Role             string `json:"role" binding:"omitempty,oneof=employee hr dept_head admin"`
	EmploymentStatus string `json:"employment_status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	MonthlySalary    string `json:"monthly_salary"`
}

type EmployeeResponse struct {
	ID               string `json:"id"`
	EmployeeNumber   string `json:"employee_number"`
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	IsPrimary        bool   `json:"is_primary"`
	EmploymentStatus string `json:"employment_status"`
	MonthlySalary    string `json:"monthly_salary"`
	HireDate         string `json:"hire_date"`
}
