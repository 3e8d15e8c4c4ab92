package recall

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=recall_repo.go -destination=mock/recall_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *LeaveRecall) error
	FindByLeaveID(ctx context.Context, leaveID string) (*LeaveRecall, error)
	ExistsForLeave(ctx context.Context, leaveID string) (bool, error)
	FindAll(ctx context.Context) ([]LeaveRecall, error)
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

func (r *repository) Create(ctx context.Context, recall *LeaveRecall) error {
	return r.db.WithContext(ctx).Create(recall).Error
}

func (r *repository) FindByLeaveID(ctx context.Context, leaveID string) (*LeaveRecall, error) {
	var recall LeaveRecall
	err := r.db.WithContext(ctx).First(&recall, "leave_id = ?", leaveID).Error
	return &recall, err
}

func (r *repository) ExistsForLeave(ctx context.Context, leaveID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LeaveRecall{}).
		Where("leave_id = ?", leaveID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindAll(ctx context.Context) ([]LeaveRecall, error) {
	var recalls []LeaveRecall
	err := r.db.WithContext(ctx).
		Order("recalled_at DESC").
		Find(&recalls).Error
	return recalls, err
}
