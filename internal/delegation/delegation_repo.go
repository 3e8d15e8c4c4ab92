package delegation

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=delegation_repo.go -destination=mock/delegation_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, d *DelegatedApprover) error
	FindByID(ctx context.Context, id string) (*DelegatedApprover, error)
	FindAll(ctx context.Context) ([]DelegatedApprover, error)
	FindActiveOn(ctx context.Context, day time.Time) ([]DelegatedApprover, error)
	Update(ctx context.Context, d *DelegatedApprover) error
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

func (r *repository) Create(ctx context.Context, d *DelegatedApprover) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*DelegatedApprover, error) {
	var d DelegatedApprover
	err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error
	return &d, err
}

func (r *repository) FindAll(ctx context.Context) ([]DelegatedApprover, error) {
	var delegations []DelegatedApprover
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&delegations).Error
	return delegations, err
}

// FindActiveOn returns active delegations whose inclusive window contains
// day, oldest first. Overlaps are permitted; the first row wins.
func (r *repository) FindActiveOn(ctx context.Context, day time.Time) ([]DelegatedApprover, error) {
	var delegations []DelegatedApprover
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusActive).
		Where("start_date <= ?", day).
		Where("end_date >= ?", day).
		Order("created_at ASC").
		Find(&delegations).Error
	return delegations, err
}

func (r *repository) Update(ctx context.Context, d *DelegatedApprover) error {
	return r.db.WithContext(ctx).Save(d).Error
}
