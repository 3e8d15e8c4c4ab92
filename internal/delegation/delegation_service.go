package delegation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	delegationerrors "github.com/janajenn/capstone2-sub006/internal/delegation/errors"
	"github.com/janajenn/capstone2-sub006/internal/employee"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=delegation_service.go -destination=mock/delegation_service_mock.go -package=mock
type Service interface {
	// CurrentApprover resolves who holds the admin gate right now. It is
	// recomputed on every call: the answer flips at day boundaries with no
	// triggering event, so it must never be cached.
	CurrentApprover(ctx context.Context) (CurrentApproverResponse, error)
	Delegate(ctx context.Context, actorID string, req DelegateRequest) (DelegationResponse, error)
	Cancel(ctx context.Context, actorID, delegationID string) (DelegationResponse, error)
	GetAll(ctx context.Context) ([]DelegationResponse, error)
}

type service struct {
	db           *sql.DB
	repo         Repository
	employeeRepo employee.Repository
	now          func() time.Time
	logger       *zap.Logger
}

func NewService(db *sql.DB, repo Repository, employeeRepo employee.Repository, logger ...*zap.Logger) Service {
	return NewServiceWithClock(db, repo, employeeRepo, time.Now, logger...)
}

// NewServiceWithClock lets tests pin "today".
func NewServiceWithClock(
	db *sql.DB,
	repo Repository,
	employeeRepo employee.Repository,
	clock func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("delegation.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("delegation.service")
	}
	return &service{db: db, repo: repo, employeeRepo: employeeRepo, now: clock, logger: l}
}

func (s *service) CurrentApprover(ctx context.Context) (CurrentApproverResponse, error) {
	today := s.now()

	delegations, err := s.repo.FindActiveOn(ctx, today)
	if err != nil {
		return CurrentApproverResponse{}, err
	}
	for _, d := range delegations {
		if d.Covers(today) {
			return CurrentApproverResponse{
				EmployeeID: d.ToAdminID.String(),
				Delegated:  true,
			}, nil
		}
	}

	primary, err := s.employeeRepo.FindPrimaryAdmin(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CurrentApproverResponse{}, delegationerrors.ErrNoPrimaryAdmin
		}
		return CurrentApproverResponse{}, err
	}

	return CurrentApproverResponse{EmployeeID: primary.ID.String(), Delegated: false}, nil
}

func (s *service) Delegate(ctx context.Context, actorID string, req DelegateRequest) (DelegationResponse, error) {
	s.logger.Debug("delegate requested",
		zap.String("actor_id", actorID),
		zap.String("to_admin_id", req.ToAdminID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	fromID, err := uuid.Parse(actorID)
	if err != nil {
		return DelegationResponse{}, delegationerrors.ErrNotCurrentApprover
	}
	toID, err := uuid.Parse(req.ToAdminID)
	if err != nil {
		return DelegationResponse{}, delegationerrors.ErrDelegateNotAdmin
	}
	if fromID == toID {
		return DelegationResponse{}, delegationerrors.ErrSelfDelegation
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return DelegationResponse{}, delegationerrors.ErrInvalidDateFormat
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return DelegationResponse{}, delegationerrors.ErrInvalidDateFormat
	}
	if startDate.After(endDate) {
		return DelegationResponse{}, delegationerrors.ErrInvalidDateRange
	}

	// Only the resolved current approver may hand off the gate.
	current, err := s.CurrentApprover(ctx)
	if err != nil {
		return DelegationResponse{}, err
	}
	if current.EmployeeID != actorID {
		s.logger.Warn("delegate rejected: actor is not current approver",
			zap.String("actor_id", actorID),
			zap.String("current_approver", current.EmployeeID),
		)
		return DelegationResponse{}, delegationerrors.ErrNotCurrentApprover
	}

	actor, err := s.employeeRepo.FindByID(ctx, actorID)
	if err != nil {
		return DelegationResponse{}, err
	}
	if actor.Role != employee.RoleAdmin {
		return DelegationResponse{}, delegationerrors.ErrNotCurrentApprover
	}

	delegate, err := s.employeeRepo.FindByID(ctx, req.ToAdminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DelegationResponse{}, delegationerrors.ErrDelegateNotAdmin
		}
		return DelegationResponse{}, err
	}
	if delegate.Role != employee.RoleAdmin {
		return DelegationResponse{}, delegationerrors.ErrDelegateNotAdmin
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DelegationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	d := &DelegatedApprover{
		ID:          uuid.New(),
		FromAdminID: fromID,
		ToAdminID:   toID,
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      StatusActive,
		Reason:      req.Reason,
	}
	if err := qtx.Create(ctx, d); err != nil {
		s.logger.Error("delegate persist failed", zap.Error(err))
		return DelegationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return DelegationResponse{}, err
	}
	s.logger.Info("delegate success",
		zap.String("delegation_id", d.ID.String()),
		zap.String("from_admin_id", actorID),
		zap.String("to_admin_id", req.ToAdminID),
	)

	return mapToResponse(*d), nil
}

func (s *service) Cancel(ctx context.Context, actorID, delegationID string) (DelegationResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DelegationResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	d, err := qtx.FindByID(ctx, delegationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DelegationResponse{}, delegationerrors.ErrDelegationNotFound
		}
		return DelegationResponse{}, err
	}
	if d.Status != StatusActive {
		return DelegationResponse{}, delegationerrors.ErrDelegationNotActive
	}

	allowed := actorID == d.FromAdminID.String() || actorID == d.ToAdminID.String()
	if !allowed {
		actor, err := s.employeeRepo.FindByID(ctx, actorID)
		if err == nil && actor.Role == employee.RoleAdmin && actor.IsPrimary {
			allowed = true
		}
	}
	if !allowed {
		s.logger.Warn("cancel delegation rejected",
			zap.String("delegation_id", delegationID),
			zap.String("actor_id", actorID),
		)
		return DelegationResponse{}, delegationerrors.ErrCancelNotAllowed
	}

	d.Status = StatusEnded
	d.EndDate = s.now()
	if err := qtx.Update(ctx, d); err != nil {
		s.logger.Error("cancel delegation persist failed", zap.Error(err))
		return DelegationResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return DelegationResponse{}, err
	}
	s.logger.Info("cancel delegation success",
		zap.String("delegation_id", delegationID),
		zap.String("actor_id", actorID),
	)

	return mapToResponse(*d), nil
}

func (s *service) GetAll(ctx context.Context) ([]DelegationResponse, error) {
	delegations, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]DelegationResponse, len(delegations))
	for i, d := range delegations {
		resp[i] = mapToResponse(d)
	}
	return resp, nil
}

func mapToResponse(d DelegatedApprover) DelegationResponse {
	return DelegationResponse{
		ID:          d.ID.String(),
		FromAdminID: d.FromAdminID.String(),
		ToAdminID:   d.ToAdminID.String(),
		StartDate:   d.StartDate.Format("2006-01-02"),
		EndDate:     d.EndDate.Format("2006-01-02"),
		Status:      d.Status,
		Reason:      d.Reason,
	}
}
