package conversion

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=conversion_repo.go -destination=mock/conversion_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, conv *CreditConversion) error
	FindByID(ctx context.Context, id string) (*CreditConversion, error)
	FindAll(ctx context.Context) ([]CreditConversion, error)
	FindByEmployee(ctx context.Context, employeeID string) ([]CreditConversion, error)
	Update(ctx context.Context, conv *CreditConversion) error
	// UpdateStatusGuarded advances status only when the row still holds
	// fromStatus; the boolean reports whether the guard held.
	UpdateStatusGuarded(ctx context.Context, conv *CreditConversion, fromStatus string) (bool, error)
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

func (r *repository) Create(ctx context.Context, conv *CreditConversion) error {
	return r.db.WithContext(ctx).Create(conv).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*CreditConversion, error) {
	var conv CreditConversion
	err := r.db.WithContext(ctx).First(&conv, "id = ?", id).Error
	return &conv, err
}

func (r *repository) FindAll(ctx context.Context) ([]CreditConversion, error) {
	var conversions []CreditConversion
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&conversions).Error
	return conversions, err
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID string) ([]CreditConversion, error) {
	var conversions []CreditConversion
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&conversions).Error
	return conversions, err
}

func (r *repository) Update(ctx context.Context, conv *CreditConversion) error {
	return r.db.WithContext(ctx).Save(conv).Error
}

func (r *repository) UpdateStatusGuarded(ctx context.Context, conv *CreditConversion, fromStatus string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&CreditConversion{}).
		Where("id = ? AND status = ?", conv.ID, fromStatus).
		Updates(conv)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
