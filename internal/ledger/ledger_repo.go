package ledger

import (
	"context"
	"database/sql"
	"time"
)

//go:generate mockgen -source=ledger_repo.go -destination=mock/ledger_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	GetCredit(ctx context.Context, employeeID string) (*LeaveCredit, error)
	GetCreditForUpdate(ctx context.Context, employeeID string) (*LeaveCredit, error)
	CreateCredit(ctx context.Context, c *LeaveCredit) error
	UpdateBalances(ctx context.Context, c *LeaveCredit) error
	InsertLog(ctx context.Context, l *LeaveCreditLog) error
	ListLogs(ctx context.Context, employeeID string, year int) ([]LeaveCreditLog, error)
}

// repository uses database/sql directly: balance mutations must share one
// transaction with their log row, and the credit row is locked FOR UPDATE
// for the duration.
type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const creditColumns = `employee_id, sl_balance, vl_balance, last_updated, created_at, updated_at`

func (r *repository) GetCredit(ctx context.Context, employeeID string) (*LeaveCredit, error) {
	query := `SELECT ` + creditColumns + ` FROM leave_credits WHERE employee_id = $1`
	return r.scanCredit(r.queryer().QueryRowContext(ctx, query, employeeID))
}

// GetCreditForUpdate locks the credit row until the surrounding transaction
// ends. Callers must be inside WithTx.
func (r *repository) GetCreditForUpdate(ctx context.Context, employeeID string) (*LeaveCredit, error) {
	query := `SELECT ` + creditColumns + ` FROM leave_credits WHERE employee_id = $1 FOR UPDATE`
	return r.scanCredit(r.queryer().QueryRowContext(ctx, query, employeeID))
}

func (r *repository) scanCredit(row *sql.Row) (*LeaveCredit, error) {
	var c LeaveCredit
	var lastUpdated sql.NullTime
	if err := row.Scan(
		&c.EmployeeID,
		&c.SLBalance,
		&c.VLBalance,
		&lastUpdated,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lastUpdated.Valid {
		c.LastUpdated = lastUpdated.Time
	}
	return &c, nil
}

func (r *repository) CreateCredit(ctx context.Context, c *LeaveCredit) error {
	query := `
        INSERT INTO leave_credits (employee_id, sl_balance, vl_balance, last_updated, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
    `
	var lastUpdated any
	if !c.LastUpdated.IsZero() {
		lastUpdated = c.LastUpdated
	}
	_, err := r.execer().ExecContext(ctx, query, c.EmployeeID, c.SLBalance, c.VLBalance, lastUpdated)
	return err
}

func (r *repository) UpdateBalances(ctx context.Context, c *LeaveCredit) error {
	query := `
        UPDATE leave_credits
        SET sl_balance = $2, vl_balance = $3, last_updated = $4, updated_at = NOW()
        WHERE employee_id = $1
    `
	var lastUpdated any
	if !c.LastUpdated.IsZero() {
		lastUpdated = c.LastUpdated
	}
	_, err := r.execer().ExecContext(ctx, query, c.EmployeeID, c.SLBalance, c.VLBalance, lastUpdated)
	return err
}

func (r *repository) InsertLog(ctx context.Context, l *LeaveCreditLog) error {
	query := `
        INSERT INTO leave_credit_logs (
            id, employee_id, type, date, year, month,
            points_deducted, balance_before, balance_after, reason, remarks, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
    `
	_, err := r.execer().ExecContext(ctx, query,
		l.ID, l.EmployeeID, l.Type, l.Date, l.Year, l.Month,
		l.PointsDeducted, l.BalanceBefore, l.BalanceAfter, l.Reason, l.Remarks,
	)
	return err
}

func (r *repository) ListLogs(ctx context.Context, employeeID string, year int) ([]LeaveCreditLog, error) {
	query := `
SELECT
	id, employee_id, type, date, year, month,
	points_deducted, balance_before, balance_after, reason, remarks, created_at
FROM leave_credit_logs
WHERE employee_id = $1 AND year = $2
ORDER BY date ASC, created_at ASC
`
	rows, err := r.queryer().QueryContext(ctx, query, employeeID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []LeaveCreditLog
	for rows.Next() {
		var l LeaveCreditLog
		if err := rows.Scan(
			&l.ID, &l.EmployeeID, &l.Type, &l.Date, &l.Year, &l.Month,
			&l.PointsDeducted, &l.BalanceBefore, &l.BalanceAfter, &l.Reason, &l.Remarks, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *repository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// SameCalendarDay compares dates ignoring the time component.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
