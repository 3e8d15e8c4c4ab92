package employee

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, e *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id string) (*Employee, error)
	FindAllActive(ctx context.Context) ([]Employee, error)
	FindPrimaryAdmin(ctx context.Context) (*Employee, error)
	Update(ctx context.Context, e *Employee) error
	SetPrimaryAdmin(ctx context.Context, id string) error
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

func (r *repository) Create(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *repository) FindAll(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Order("employee_number ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error
	return &e, err
}

func (r *repository) FindAllActive(ctx context.Context) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Where("employment_status = ?", StatusActive).
		Order("employee_number ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindPrimaryAdmin(ctx context.Context) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).
		Where("role = ?", RoleAdmin).
		Where("is_primary = ?", true).
		First(&e).Error
	return &e, err
}

func (r *repository) Update(ctx context.Context, e *Employee) error {
	return r.db.WithContext(ctx).Save(e).Error
}

// SetPrimaryAdmin clears the flag from every other admin and sets it on the
// target in one transaction, keeping the at-most-one invariant.
func (r *repository) SetPrimaryAdmin(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Employee{}).
			Where("is_primary = ?", true).
			Update("is_primary", false).Error; err != nil {
			return err
		}

		res := tx.Model(&Employee{}).
			Where("id = ?", id).
			Where("role = ?", RoleAdmin).
			Update("is_primary", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
