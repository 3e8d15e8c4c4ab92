package employee

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleEmployee = "employee"
	RoleHR       = "hr"
	RoleDeptHead = "dept_head"
	RoleAdmin    = "admin"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeNumber string    `gorm:"type:varchar(20);uniqueIndex"`
	FullName       string
	Email          string `gorm:"uniqueIndex"`

	Role      string `gorm:"type:varchar(20);not null;default:'employee';index"`
	IsPrimary bool   `gorm:"not null;default:false"`

	// EmploymentStatus gates daily accrual eligibility.
	EmploymentStatus string          `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	MonthlySalary    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	HireDate         time.Time       `gorm:"type:date"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// ValidRole reports whether role is one of the four organizational roles.
func ValidRole(role string) bool {
	switch role {
	case RoleEmployee, RoleHR, RoleDeptHead, RoleAdmin:
		return true
	}
	return false
}
