package delegation_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/janajenn/capstone2-sub006/internal/delegation"
	delegationerrors "github.com/janajenn/capstone2-sub006/internal/delegation/errors"
	"github.com/janajenn/capstone2-sub006/internal/employee"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeDelegationRepo struct {
	delegations map[string]*delegation.DelegatedApprover
}

func newFakeDelegationRepo() *fakeDelegationRepo {
	return &fakeDelegationRepo{delegations: map[string]*delegation.DelegatedApprover{}}
}

func (f *fakeDelegationRepo) WithTx(tx *sql.Tx) delegation.Repository { return f }

func (f *fakeDelegationRepo) Create(ctx context.Context, d *delegation.DelegatedApprover) error {
	cp := *d
	f.delegations[d.ID.String()] = &cp
	return nil
}

func (f *fakeDelegationRepo) FindByID(ctx context.Context, id string) (*delegation.DelegatedApprover, error) {
	d, ok := f.delegations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDelegationRepo) FindAll(ctx context.Context) ([]delegation.DelegatedApprover, error) {
	var out []delegation.DelegatedApprover
	for _, d := range f.delegations {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDelegationRepo) FindActiveOn(ctx context.Context, day time.Time) ([]delegation.DelegatedApprover, error) {
	var out []delegation.DelegatedApprover
	for _, d := range f.delegations {
		if d.Status == delegation.StatusActive && d.Covers(day) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDelegationRepo) Update(ctx context.Context, d *delegation.DelegatedApprover) error {
	cp := *d
	f.delegations[d.ID.String()] = &cp
	return nil
}

type fakeEmployeeRepo struct {
	employees map[string]*employee.Employee
	primary   *employee.Employee
}

func (f *fakeEmployeeRepo) WithTx(tx *sql.Tx) employee.Repository                  { return f }
func (f *fakeEmployeeRepo) Create(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepo) FindAll(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}
func (f *fakeEmployeeRepo) FindAllActive(ctx context.Context) ([]employee.Employee, error) {
	return nil, nil
}
func (f *fakeEmployeeRepo) FindPrimaryAdmin(ctx context.Context) (*employee.Employee, error) {
	if f.primary == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.primary, nil
}
func (f *fakeEmployeeRepo) Update(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepo) SetPrimaryAdmin(ctx context.Context, id string) error   { return nil }

type delegationFixture struct {
	svc     delegation.Service
	repo    *fakeDelegationRepo
	mock    sqlmock.Sqlmock
	primary *employee.Employee
	deputy  *employee.Employee
	clock   *time.Time
}

func newDelegationFixture(t *testing.T) *delegationFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	primary := &employee.Employee{ID: uuid.New(), Role: employee.RoleAdmin, IsPrimary: true}
	deputy := &employee.Employee{ID: uuid.New(), Role: employee.RoleAdmin}

	employees := &fakeEmployeeRepo{
		employees: map[string]*employee.Employee{
			primary.ID.String(): primary,
			deputy.ID.String():  deputy,
		},
		primary: primary,
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &delegationFixture{
		repo:    newFakeDelegationRepo(),
		mock:    mock,
		primary: primary,
		deputy:  deputy,
		clock:   &now,
	}
	f.svc = delegation.NewServiceWithClock(
		db, f.repo, employees,
		func() time.Time { return *f.clock },
		zap.NewNop(),
	)
	return f
}

func (f *delegationFixture) setToday(s string) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	*f.clock = d.Add(12 * time.Hour)
}

func TestCurrentApprover(t *testing.T) {
	t.Run("success falls back to the primary admin", func(t *testing.T) {
		f := newDelegationFixture(t)

		resp, err := f.svc.CurrentApprover(context.Background())
		require.NoError(t, err)
		assert.Equal(t, f.primary.ID.String(), resp.EmployeeID)
		assert.False(t, resp.Delegated)
	})

	t.Run("success delegation window flips and reverts by date alone", func(t *testing.T) {
		f := newDelegationFixture(t)
		ctx := context.Background()

		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
		_, err := f.svc.Delegate(ctx, f.primary.ID.String(), delegation.DelegateRequest{
			ToAdminID: f.deputy.ID.String(),
			StartDate: "2026-03-10",
			EndDate:   "2026-03-14",
			Reason:    "conference",
		})
		require.NoError(t, err)

		// Before the window.
		f.setToday("2026-03-09")
		resp, err := f.svc.CurrentApprover(ctx)
		require.NoError(t, err)
		assert.Equal(t, f.primary.ID.String(), resp.EmployeeID)

		// First and last day, inclusive.
		f.setToday("2026-03-10")
		resp, err = f.svc.CurrentApprover(ctx)
		require.NoError(t, err)
		assert.Equal(t, f.deputy.ID.String(), resp.EmployeeID)
		assert.True(t, resp.Delegated)

		f.setToday("2026-03-14")
		resp, err = f.svc.CurrentApprover(ctx)
		require.NoError(t, err)
		assert.Equal(t, f.deputy.ID.String(), resp.EmployeeID)

		// The day after, authority reverts with no one touching anything.
		f.setToday("2026-03-15")
		resp, err = f.svc.CurrentApprover(ctx)
		require.NoError(t, err)
		assert.Equal(t, f.primary.ID.String(), resp.EmployeeID)
		assert.False(t, resp.Delegated)
	})

	t.Run("negative no primary admin configured", func(t *testing.T) {
		f := newDelegationFixture(t)
		f.svc = delegation.NewServiceWithClock(
			nil, f.repo, &fakeEmployeeRepo{employees: map[string]*employee.Employee{}},
			func() time.Time { return *f.clock },
			zap.NewNop(),
		)

		_, err := f.svc.CurrentApprover(context.Background())
		assert.ErrorIs(t, err, delegationerrors.ErrNoPrimaryAdmin)
	})
}

func TestDelegate(t *testing.T) {
	t.Run("negative only the current approver may delegate", func(t *testing.T) {
		f := newDelegationFixture(t)

		_, err := f.svc.Delegate(context.Background(), f.deputy.ID.String(), delegation.DelegateRequest{
			ToAdminID: f.primary.ID.String(),
			StartDate: "2026-03-10",
			EndDate:   "2026-03-14",
		})
		assert.ErrorIs(t, err, delegationerrors.ErrNotCurrentApprover)
	})

	t.Run("negative self delegation", func(t *testing.T) {
		f := newDelegationFixture(t)

		_, err := f.svc.Delegate(context.Background(), f.primary.ID.String(), delegation.DelegateRequest{
			ToAdminID: f.primary.ID.String(),
			StartDate: "2026-03-10",
			EndDate:   "2026-03-14",
		})
		assert.ErrorIs(t, err, delegationerrors.ErrSelfDelegation)
	})

	t.Run("negative delegate must be an admin", func(t *testing.T) {
		f := newDelegationFixture(t)
		clerk := &employee.Employee{ID: uuid.New(), Role: employee.RoleEmployee}
		employees := &fakeEmployeeRepo{
			employees: map[string]*employee.Employee{
				f.primary.ID.String(): f.primary,
				clerk.ID.String():     clerk,
			},
			primary: f.primary,
		}
		f.svc = delegation.NewServiceWithClock(
			nil, f.repo, employees,
			func() time.Time { return *f.clock },
			zap.NewNop(),
		)

		_, err := f.svc.Delegate(context.Background(), f.primary.ID.String(), delegation.DelegateRequest{
			ToAdminID: clerk.ID.String(),
			StartDate: "2026-03-10",
			EndDate:   "2026-03-14",
		})
		assert.ErrorIs(t, err, delegationerrors.ErrDelegateNotAdmin)
	})

	t.Run("negative inverted window", func(t *testing.T) {
		f := newDelegationFixture(t)

		_, err := f.svc.Delegate(context.Background(), f.primary.ID.String(), delegation.DelegateRequest{
			ToAdminID: f.deputy.ID.String(),
			StartDate: "2026-03-14",
			EndDate:   "2026-03-10",
		})
		assert.ErrorIs(t, err, delegationerrors.ErrInvalidDateRange)
	})
}

func TestCancel(t *testing.T) {
	seed := func(f *delegationFixture) *delegation.DelegatedApprover {
		d := &delegation.DelegatedApprover{
			ID:          uuid.New(),
			FromAdminID: f.primary.ID,
			ToAdminID:   f.deputy.ID,
			StartDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			Status:      delegation.StatusActive,
		}
		f.repo.delegations[d.ID.String()] = d
		return d
	}

	t.Run("success delegate ends the delegation early", func(t *testing.T) {
		f := newDelegationFixture(t)
		d := seed(f)

		f.mock.ExpectBegin()
		f.mock.ExpectCommit()
		resp, err := f.svc.Cancel(context.Background(), f.deputy.ID.String(), d.ID.String())
		require.NoError(t, err)
		assert.Equal(t, delegation.StatusEnded, resp.Status)
	})

	t.Run("negative stranger cannot cancel", func(t *testing.T) {
		f := newDelegationFixture(t)
		d := seed(f)

		f.mock.ExpectBegin()
		f.mock.ExpectRollback()
		_, err := f.svc.Cancel(context.Background(), uuid.NewString(), d.ID.String())
		assert.ErrorIs(t, err, delegationerrors.ErrCancelNotAllowed)
	})

	t.Run("negative cancelling an ended delegation", func(t *testing.T) {
		f := newDelegationFixture(t)
		d := seed(f)
		d.Status = delegation.StatusEnded

		f.mock.ExpectBegin()
		f.mock.ExpectRollback()
		_, err := f.svc.Cancel(context.Background(), f.primary.ID.String(), d.ID.String())
		assert.ErrorIs(t, err, delegationerrors.ErrDelegationNotActive)
	})
}
