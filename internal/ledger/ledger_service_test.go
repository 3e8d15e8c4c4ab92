package ledger_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/janajenn/capstone2-sub006/internal/employee"
	"github.com/janajenn/capstone2-sub006/internal/ledger"
	ledgererrors "github.com/janajenn/capstone2-sub006/internal/ledger/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLedgerRepo struct {
	credit *ledger.LeaveCredit
	logs   []ledger.LeaveCreditLog

	getErr    error
	updateErr error
	insertErr error
}

func (f *fakeLedgerRepo) WithTx(tx *sql.Tx) ledger.Repository { return f }

func (f *fakeLedgerRepo) GetCredit(ctx context.Context, employeeID string) (*ledger.LeaveCredit, error) {
	return f.GetCreditForUpdate(ctx, employeeID)
}

func (f *fakeLedgerRepo) GetCreditForUpdate(ctx context.Context, employeeID string) (*ledger.LeaveCredit, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.credit == nil {
		return nil, sql.ErrNoRows
	}
	c := *f.credit
	return &c, nil
}

func (f *fakeLedgerRepo) CreateCredit(ctx context.Context, c *ledger.LeaveCredit) error {
	cp := *c
	f.credit = &cp
	return nil
}

func (f *fakeLedgerRepo) UpdateBalances(ctx context.Context, c *ledger.LeaveCredit) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *c
	f.credit = &cp
	return nil
}

func (f *fakeLedgerRepo) InsertLog(ctx context.Context, l *ledger.LeaveCreditLog) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.logs = append(f.logs, *l)
	return nil
}

func (f *fakeLedgerRepo) ListLogs(ctx context.Context, employeeID string, year int) ([]ledger.LeaveCreditLog, error) {
	var out []ledger.LeaveCreditLog
	for _, l := range f.logs {
		if l.Year == year {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepo) WithTx(tx *sql.Tx) employee.Repository             { return f }
func (f *fakeEmployeeRepo) Create(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepo) FindAll(ctx context.Context) ([]employee.Employee, error) {
	return f.employees, nil
}
func (f *fakeEmployeeRepo) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	for i := range f.employees {
		if f.employees[i].ID.String() == id {
			return &f.employees[i], nil
		}
	}
	return nil, sql.ErrNoRows
}
func (f *fakeEmployeeRepo) FindAllActive(ctx context.Context) ([]employee.Employee, error) {
	return f.employees, nil
}
func (f *fakeEmployeeRepo) FindPrimaryAdmin(ctx context.Context) (*employee.Employee, error) {
	return nil, sql.ErrNoRows
}
func (f *fakeEmployeeRepo) Update(ctx context.Context, e *employee.Employee) error { return nil }
func (f *fakeEmployeeRepo) SetPrimaryAdmin(ctx context.Context, id string) error   { return nil }

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func TestAccrueDaily(t *testing.T) {
	employeeID := uuid.New()
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("success first accrual of the day", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := &fakeLedgerRepo{credit: &ledger.LeaveCredit{
			EmployeeID: employeeID,
			SLBalance:  decimal.NewFromInt(5),
			VLBalance:  decimal.NewFromInt(5),
		}}
		svc := ledger.NewService(db, repo, &fakeEmployeeRepo{}, zap.NewNop())

		expectTx(mock)
		accrued, err := svc.AccrueDaily(context.Background(), employeeID.String(), day)

		require.NoError(t, err)
		assert.True(t, accrued)
		assert.Equal(t, decimal.NewFromInt(5).Add(ledger.DailyAccrualRate).String(), repo.credit.SLBalance.String())
		assert.Equal(t, decimal.NewFromInt(5).Add(ledger.DailyAccrualRate).String(), repo.credit.VLBalance.String())
		assert.True(t, ledger.SameCalendarDay(repo.credit.LastUpdated, day))

		require.Len(t, repo.logs, 2)
		for _, l := range repo.logs {
			assert.Equal(t, ledger.ReasonDailyAccrual, l.Reason)
			assert.Equal(t, ledger.DailyAccrualRate.Neg().String(), l.PointsDeducted.String())
			assert.Equal(t, l.BalanceBefore.Sub(l.PointsDeducted).String(), l.BalanceAfter.String())
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative already credited today is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := &fakeLedgerRepo{credit: &ledger.LeaveCredit{
			EmployeeID:  employeeID,
			SLBalance:   decimal.NewFromInt(5),
			VLBalance:   decimal.NewFromInt(5),
			LastUpdated: day,
		}}
		svc := ledger.NewService(db, repo, &fakeEmployeeRepo{}, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectRollback()
		accrued, err := svc.AccrueDaily(context.Background(), employeeID.String(), day.Add(6*time.Hour))

		require.NoError(t, err)
		assert.False(t, accrued)
		assert.Empty(t, repo.logs)
		assert.Equal(t, "5", repo.credit.SLBalance.String())
	})

	t.Run("success creates the credit row lazily", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := &fakeLedgerRepo{}
		svc := ledger.NewService(db, repo, &fakeEmployeeRepo{}, zap.NewNop())

		expectTx(mock)
		accrued, err := svc.AccrueDaily(context.Background(), employeeID.String(), day)

		require.NoError(t, err)
		assert.True(t, accrued)
		require.NotNil(t, repo.credit)
		assert.Equal(t, ledger.DailyAccrualRate.String(), repo.credit.SLBalance.String())
	})

	t.Run("negative invalid employee id", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := ledger.NewService(db, &fakeLedgerRepo{}, &fakeEmployeeRepo{}, zap.NewNop())

		_, err := svc.AccrueDaily(context.Background(), "not-a-uuid", day)
		assert.ErrorIs(t, err, ledgererrors.ErrInvalidEmployeeID)
	})
}

func TestDeduct(t *testing.T) {
	employeeID := uuid.New()

	t.Run("success deduct writes log with matching balances", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := &fakeLedgerRepo{credit: &ledger.LeaveCredit{
			EmployeeID: employeeID,
			SLBalance:  decimal.NewFromInt(10),
			VLBalance:  decimal.NewFromInt(8),
		}}
		svc := ledger.NewService(db, repo, &fakeEmployeeRepo{}, zap.NewNop())

		expectTx(mock)
		err := svc.Deduct(context.Background(), ledger.DeductRequest{
			EmployeeID: employeeID.String(),
			Type:       ledger.TypeVL,
			Points:     decimal.NewFromInt(3),
			Reason:     ledger.ReasonLeaveUsage,
			Remarks:    "Approved VL leave",
		})

		require.NoError(t, err)
		assert.Equal(t, "5", repo.credit.VLBalance.String())
		assert.Equal(t, "10", repo.credit.SLBalance.String())

		require.Len(t, repo.logs, 1)
		l := repo.logs[0]
		assert.Equal(t, "3", l.PointsDeducted.String())
		assert.Equal(t, "8", l.BalanceBefore.String())
		assert.Equal(t, "5", l.BalanceAfter.String())
		assert.Equal(t, ledger.ReasonLeaveUsage, l.Reason)
	})

	t.Run("negative insufficient balance leaves everything untouched", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := &fakeLedgerRepo{credit: &ledger.LeaveCredit{
			EmployeeID: employeeID,
			VLBalance:  decimal.NewFromInt(2),
		}}
		svc := ledger.NewService(db, repo, &fakeEmployeeRepo{}, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectRollback()
		err := svc.Deduct(context.Background(), ledger.DeductRequest{
			EmployeeID: employeeID.String(),
			Type:       ledger.TypeVL,
			Points:     decimal.NewFromInt(5),
			Reason:     ledger.ReasonLeaveUsage,
		})

		assert.ErrorIs(t, err, ledgererrors.ErrInsufficientBalance)
		assert.Equal(t, "2", repo.credit.VLBalance.String())
		assert.Empty(t, repo.logs)
	})

	t.Run("success deduct to exactly zero", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := &fakeLedgerRepo{credit: &ledger.LeaveCredit{
			EmployeeID: employeeID,
			VLBalance:  decimal.NewFromInt(5),
		}}
		svc := ledger.NewService(db, repo, &fakeEmployeeRepo{}, zap.NewNop())

		expectTx(mock)
		err := svc.Deduct(context.Background(), ledger.DeductRequest{
			EmployeeID: employeeID.String(),
			Type:       ledger.TypeVL,
			Points:     decimal.NewFromInt(5),
			Reason:     ledger.ReasonLeaveUsage,
		})

		require.NoError(t, err)
		assert.True(t, repo.credit.VLBalance.IsZero())
	})

	t.Run("negative invalid credit type", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := ledger.NewService(db, &fakeLedgerRepo{}, &fakeEmployeeRepo{}, zap.NewNop())

		err := svc.Deduct(context.Background(), ledger.DeductRequest{
			EmployeeID: employeeID.String(),
			Type:       "ML",
			Points:     decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, ledgererrors.ErrInvalidCreditType)
	})

	t.Run("negative non-positive points", func(t *testing.T) {
		db, _ := newMockDB(t)
		svc := ledger.NewService(db, &fakeLedgerRepo{}, &fakeEmployeeRepo{}, zap.NewNop())

		err := svc.Deduct(context.Background(), ledger.DeductRequest{
			EmployeeID: employeeID.String(),
			Type:       ledger.TypeSL,
			Points:     decimal.Zero,
		})
		assert.ErrorIs(t, err, ledgererrors.ErrInvalidPoints)
	})
}

func TestRestore(t *testing.T) {
	employeeID := uuid.New()

	t.Run("success restore credits back with negative points_deducted", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := &fakeLedgerRepo{credit: &ledger.LeaveCredit{
			EmployeeID: employeeID,
			VLBalance:  decimal.NewFromInt(1),
		}}
		svc := ledger.NewService(db, repo, &fakeEmployeeRepo{}, zap.NewNop())

		expectTx(mock)
		err := svc.Restore(context.Background(), ledger.RestoreRequest{
			EmployeeID: employeeID.String(),
			Type:       ledger.TypeVL,
			Points:     decimal.NewFromInt(4),
			Reason:     ledger.ReasonRecall,
			Remarks:    "Recall of approved VL",
		})

		require.NoError(t, err)
		assert.Equal(t, "5", repo.credit.VLBalance.String())

		require.Len(t, repo.logs, 1)
		l := repo.logs[0]
		assert.Equal(t, "-4", l.PointsDeducted.String())
		assert.Equal(t, l.BalanceBefore.Sub(l.PointsDeducted).String(), l.BalanceAfter.String())
		assert.Equal(t, ledger.ReasonRecall, l.Reason)
	})
}

func TestRunDailyAccrual(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("success one employee failing does not abort the batch", func(t *testing.T) {
		good := employee.Employee{ID: uuid.New()}
		alsoGood := employee.Employee{ID: uuid.New()}

		db, mock := newMockDB(t)
		repo := &fakeLedgerRepo{}
		employees := &fakeEmployeeRepo{employees: []employee.Employee{good, alsoGood}}
		svc := ledger.NewService(db, repo, employees, zap.NewNop())

		// First employee succeeds, second hits a begin failure.
		expectTx(mock)
		mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

		summary, err := svc.RunDailyAccrual(context.Background(), day)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.Processed)
		assert.Equal(t, 1, summary.Accrued)
		assert.Equal(t, 1, summary.Failed)
		assert.Contains(t, summary.Failures, alsoGood.ID.String())
	})
}
