package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/janajenn/capstone2-sub006/internal/employee"
	ledgererrors "github.com/janajenn/capstone2-sub006/internal/ledger/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=ledger_service.go -destination=mock/ledger_service_mock.go -package=mock
type Service interface {
	GetOrCreate(ctx context.Context, employeeID string) (CreditResponse, error)
	GetBalance(ctx context.Context, employeeID string) (CreditResponse, error)
	ListLogs(ctx context.Context, employeeID string, year int) ([]LogResponse, error)
	AccrueDaily(ctx context.Context, employeeID string, asOf time.Time) (bool, error)
	Deduct(ctx context.Context, req DeductRequest) error
	Restore(ctx context.Context, req RestoreRequest) error
	RunDailyAccrual(ctx context.Context, asOf time.Time) (AccrualSummary, error)
}

type service struct {
	db           *sql.DB
	repo         Repository
	employeeRepo employee.Repository
	sf           *singleflight.Group
	logger       *zap.Logger
}

func NewService(db *sql.DB, repo Repository, employeeRepo employee.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("ledger.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ledger.service")
	}
	return &service{
		db:           db,
		repo:         repo,
		employeeRepo: employeeRepo,
		sf:           &singleflight.Group{},
		logger:       l,
	}
}

func (s *service) GetOrCreate(ctx context.Context, employeeID string) (CreditResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return CreditResponse{}, ledgererrors.ErrInvalidEmployeeID
	}

	credit, err := s.repo.GetCredit(ctx, employeeID)
	if err == nil {
		return mapCreditToResponse(*credit), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return CreditResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return CreditResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	created, err := s.getOrCreateLocked(ctx, qtx, employeeID)
	if err != nil {
		return CreditResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return CreditResponse{}, err
	}

	s.logger.Info("leave credit created", zap.String("employee_id", employeeID))
	return mapCreditToResponse(*created), nil
}

func (s *service) GetBalance(ctx context.Context, employeeID string) (CreditResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return CreditResponse{}, ledgererrors.ErrInvalidEmployeeID
	}

	// Collapse concurrent reads for the same employee.
	v, err, _ := s.sf.Do("balance:"+employeeID, func() (any, error) {
		credit, err := s.repo.GetCredit(ctx, employeeID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return CreditResponse{}, ledgererrors.ErrCreditNotFound
			}
			return CreditResponse{}, err
		}
		return mapCreditToResponse(*credit), nil
	})
	if err != nil {
		return CreditResponse{}, err
	}
	return v.(CreditResponse), nil
}

func (s *service) ListLogs(ctx context.Context, employeeID string, year int) ([]LogResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return nil, ledgererrors.ErrInvalidEmployeeID
	}

	logs, err := s.repo.ListLogs(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}

	resp := make([]LogResponse, len(logs))
	for i, l := range logs {
		resp[i] = mapLogToResponse(l)
	}
	return resp, nil
}

// AccrueDaily adds the daily rate to both SL and VL once per calendar day.
// Returns false without error when the day was already credited.
func (s *service) AccrueDaily(ctx context.Context, employeeID string, asOf time.Time) (bool, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return false, ledgererrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("accrue daily begin tx failed", zap.Error(err))
		return false, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	credit, err := s.getOrCreateLocked(ctx, qtx, employeeID)
	if err != nil {
		return false, err
	}

	if !credit.LastUpdated.IsZero() && SameCalendarDay(credit.LastUpdated, asOf) {
		// Already credited today; idempotent no-op.
		return false, nil
	}

	remark := fmt.Sprintf("Daily earned leave credit (+%s)", DailyAccrualRate.String())

	for _, creditType := range []string{TypeSL, TypeVL} {
		before := credit.BalanceFor(creditType)
		after := before.Add(DailyAccrualRate)
		credit.SetBalance(creditType, after)

		if err := qtx.InsertLog(ctx, &LeaveCreditLog{
			ID:             uuid.New(),
			EmployeeID:     credit.EmployeeID,
			Type:           creditType,
			Date:           asOf,
			Year:           asOf.Year(),
			Month:          int(asOf.Month()),
			PointsDeducted: DailyAccrualRate.Neg(),
			BalanceBefore:  before,
			BalanceAfter:   after,
			Reason:         ReasonDailyAccrual,
			Remarks:        remark,
		}); err != nil {
			s.logger.Error("accrue daily insert log failed",
				zap.String("employee_id", employeeID),
				zap.String("type", creditType),
				zap.Error(err),
			)
			return false, err
		}
	}

	credit.LastUpdated = asOf
	if err := qtx.UpdateBalances(ctx, credit); err != nil {
		s.logger.Error("accrue daily update balances failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return false, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("accrue daily commit failed", zap.Error(err))
		return false, err
	}

	return true, nil
}

// Deduct atomically decrements the balance and writes its ledger row.
// The balance may never go negative.
func (s *service) Deduct(ctx context.Context, req DeductRequest) error {
	if err := validateMutation(req.EmployeeID, req.Type, req.Points); err != nil {
		return err
	}

	s.logger.Debug("deduct requested",
		zap.String("employee_id", req.EmployeeID),
		zap.String("type", req.Type),
		zap.String("points", req.Points.String()),
		zap.String("reason", req.Reason),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("deduct begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	credit, err := s.getOrCreateLocked(ctx, qtx, req.EmployeeID)
	if err != nil {
		return err
	}

	before := credit.BalanceFor(req.Type)
	after := before.Sub(req.Points)
	if after.IsNegative() {
		s.logger.Warn("deduct insufficient balance",
			zap.String("employee_id", req.EmployeeID),
			zap.String("type", req.Type),
			zap.String("balance", before.String()),
			zap.String("points", req.Points.String()),
		)
		return ledgererrors.ErrInsufficientBalance
	}

	credit.SetBalance(req.Type, after)
	if err := qtx.UpdateBalances(ctx, credit); err != nil {
		s.logger.Error("deduct update balances failed", zap.Error(err))
		return err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	if err := qtx.InsertLog(ctx, &LeaveCreditLog{
		ID:             uuid.New(),
		EmployeeID:     credit.EmployeeID,
		Type:           req.Type,
		Date:           date,
		Year:           date.Year(),
		Month:          int(date.Month()),
		PointsDeducted: req.Points,
		BalanceBefore:  before,
		BalanceAfter:   after,
		Reason:         req.Reason,
		Remarks:        req.Remarks,
	}); err != nil {
		s.logger.Error("deduct insert log failed", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("deduct commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("deduct success",
		zap.String("employee_id", req.EmployeeID),
		zap.String("type", req.Type),
		zap.String("points", req.Points.String()),
		zap.String("reason", req.Reason),
	)
	return nil
}

// Restore credits points back; the ledger row carries negative
// points_deducted so a replay still satisfies after = before - points.
func (s *service) Restore(ctx context.Context, req RestoreRequest) error {
	if err := validateMutation(req.EmployeeID, req.Type, req.Points); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("restore begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	credit, err := s.getOrCreateLocked(ctx, qtx, req.EmployeeID)
	if err != nil {
		return err
	}

	before := credit.BalanceFor(req.Type)
	after := before.Add(req.Points)
	credit.SetBalance(req.Type, after)

	if err := qtx.UpdateBalances(ctx, credit); err != nil {
		s.logger.Error("restore update balances failed", zap.Error(err))
		return err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	if err := qtx.InsertLog(ctx, &LeaveCreditLog{
		ID:             uuid.New(),
		EmployeeID:     credit.EmployeeID,
		Type:           req.Type,
		Date:           date,
		Year:           date.Year(),
		Month:          int(date.Month()),
		PointsDeducted: req.Points.Neg(),
		BalanceBefore:  before,
		BalanceAfter:   after,
		Reason:         req.Reason,
		Remarks:        req.Remarks,
	}); err != nil {
		s.logger.Error("restore insert log failed", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("restore commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("restore success",
		zap.String("employee_id", req.EmployeeID),
		zap.String("type", req.Type),
		zap.String("points", req.Points.String()),
		zap.String("reason", req.Reason),
	)
	return nil
}

// RunDailyAccrual walks every active employee. Failures are collected per
// employee and never abort the batch.
func (s *service) RunDailyAccrual(ctx context.Context, asOf time.Time) (AccrualSummary, error) {
	employees, err := s.employeeRepo.FindAllActive(ctx)
	if err != nil {
		return AccrualSummary{}, err
	}

	summary := AccrualSummary{Failures: map[string]string{}}
	for _, e := range employees {
		summary.Processed++

		accrued, err := s.AccrueDaily(ctx, e.ID.String(), asOf)
		if err != nil {
			summary.Failed++
			summary.Failures[e.ID.String()] = err.Error()
			s.logger.Error("daily accrual failed for employee",
				zap.String("employee_id", e.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if accrued {
			summary.Accrued++
		} else {
			summary.Skipped++
		}
	}

	s.logger.Info("daily accrual run finished",
		zap.Time("as_of", asOf),
		zap.Int("processed", summary.Processed),
		zap.Int("accrued", summary.Accrued),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// getOrCreateLocked returns the employee's credit row locked for update,
// creating the zero-balance row on first use.
func (s *service) getOrCreateLocked(ctx context.Context, qtx Repository, employeeID string) (*LeaveCredit, error) {
	credit, err := qtx.GetCreditForUpdate(ctx, employeeID)
	if err == nil {
		return credit, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	fresh := &LeaveCredit{EmployeeID: uuid.MustParse(employeeID)}
	if err := qtx.CreateCredit(ctx, fresh); err != nil {
		return nil, err
	}
	// The insert holds the row lock for the rest of the transaction.
	return fresh, nil
}

func validateMutation(employeeID, creditType string, points decimal.Decimal) error {
	if _, err := uuid.Parse(employeeID); err != nil {
		return ledgererrors.ErrInvalidEmployeeID
	}
	if !ValidCreditType(creditType) {
		return ledgererrors.ErrInvalidCreditType
	}
	if !points.IsPositive() {
		return ledgererrors.ErrInvalidPoints
	}
	return nil
}

func mapCreditToResponse(c LeaveCredit) CreditResponse {
	resp := CreditResponse{
		EmployeeID: c.EmployeeID.String(),
		SLBalance:  c.SLBalance.String(),
		VLBalance:  c.VLBalance.String(),
	}
	if !c.LastUpdated.IsZero() {
		resp.LastUpdated = c.LastUpdated.Format("2006-01-02")
	}
	return resp
}

func mapLogToResponse(l LeaveCreditLog) LogResponse {
	return LogResponse{
		ID:             l.ID.String(),
		EmployeeID:     l.EmployeeID.String(),
		Type:           l.Type,
		Date:           l.Date.Format("2006-01-02"),
		Year:           l.Year,
		Month:          l.Month,
		PointsDeducted: l.PointsDeducted.String(),
		BalanceBefore:  l.BalanceBefore.String(),
		BalanceAfter:   l.BalanceAfter.String(),
		Reason:         l.Reason,
		Remarks:        l.Remarks,
	}
}
