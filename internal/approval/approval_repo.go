package approval

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=approval_repo.go -destination=mock/approval_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, req *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindAll(ctx context.Context) ([]LeaveRequest, error)
	FindByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	Update(ctx context.Context, req *LeaveRequest) error
	HasOpenOverlap(ctx context.Context, employeeID string, from, to time.Time) (bool, error)

	CreateApproval(ctx context.Context, a *LeaveApproval) error
	FindApprovals(ctx context.Context, leaveID string) ([]LeaveApproval, error)
	HasApprovalByRole(ctx context.Context, leaveID, role string) (bool, error)
	FindApprovalByRole(ctx context.Context, leaveID, role string) (*LeaveApproval, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, req *LeaveRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var req LeaveRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	return &req, err
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) Update(ctx context.Context, req *LeaveRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// HasOpenOverlap reports whether the employee already has a non-terminal
// request whose period intersects [from, to].
func (r *repository) HasOpenOverlap(ctx context.Context, employeeID string, from, to time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{StatusPending, StatusPendingDeptHead, StatusPendingAdmin}).
		Where("date_from <= ?", to).
		Where("date_to >= ?", from).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateApproval(ctx context.Context, a *LeaveApproval) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *repository) FindApprovals(ctx context.Context, leaveID string) ([]LeaveApproval, error) {
	var approvals []LeaveApproval
	err := r.db.WithContext(ctx).
		Where("leave_id = ?", leaveID).
		Order("approved_at ASC").
		Find(&approvals).Error
	return approvals, err
}

func (r *repository) HasApprovalByRole(ctx context.Context, leaveID, role string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveApproval{}).
		Where("leave_id = ? AND role = ?", leaveID, role).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindApprovalByRole(ctx context.Context, leaveID, role string) (*LeaveApproval, error) {
	var a LeaveApproval
	err := r.db.WithContext(ctx).
		First(&a, "leave_id = ? AND role = ?", leaveID, role).Error
	return &a, err
}
