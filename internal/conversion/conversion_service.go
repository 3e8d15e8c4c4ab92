package conversion

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	conversionerrors "github.com/janajenn/capstone2-sub006/internal/conversion/errors"
	"github.com/janajenn/capstone2-sub006/internal/delegation"
	"github.com/janajenn/capstone2-sub006/internal/employee"
	"github.com/janajenn/capstone2-sub006/internal/events"
	"github.com/janajenn/capstone2-sub006/internal/ledger"
	ledgererrors "github.com/janajenn/capstone2-sub006/internal/ledger/errors"
	"github.com/janajenn/capstone2-sub006/internal/messaging/kafka"
	"github.com/janajenn/capstone2-sub006/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=conversion_service.go -destination=mock/conversion_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actorID string, req CreateConversionRequest) (ConversionResponse, error)
	GetAll(ctx context.Context) ([]ConversionResponse, error)
	GetByID(ctx context.Context, id string) (ConversionResponse, error)
	GetByEmployee(ctx context.Context, employeeID string) ([]ConversionResponse, error)
	Approve(ctx context.Context, actorID, conversionID string, req DecisionRequest) (ConversionResponse, error)
	Reject(ctx context.Context, actorID, conversionID string, req DecisionRequest) (ConversionResponse, error)
}

type service struct {
	db                *sql.DB
	repo              Repository
	employeeRepo      employee.Repository
	ledgerService     ledger.Service
	delegationService delegation.Service
	outboxRepo        kafka.OutboxRepository
	now               func() time.Time
	logger            *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	employeeRepo employee.Repository,
	ledgerService ledger.Service,
	delegationService delegation.Service,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithClock(db, repo, employeeRepo, ledgerService, delegationService, outboxRepo, time.Now, logger...)
}

// NewServiceWithClock lets tests pin "now".
func NewServiceWithClock(
	db *sql.DB,
	repo Repository,
	employeeRepo employee.Repository,
	ledgerService ledger.Service,
	delegationService delegation.Service,
	outboxRepo kafka.OutboxRepository,
	clock func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("conversion.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("conversion.service")
	}
	return &service{
		db:                db,
		repo:              repo,
		employeeRepo:      employeeRepo,
		ledgerService:     ledgerService,
		delegationService: delegationService,
		outboxRepo:        outboxRepo,
		now:               clock,
		logger:            l,
	}
}

func (s *service) Submit(ctx context.Context, actorID string, req CreateConversionRequest) (ConversionResponse, error) {
	s.logger.Debug("submit conversion requested",
		zap.String("employee_id", actorID),
		zap.String("credit_type", req.CreditType),
		zap.String("credits", req.Credits),
	)

	if !ledger.ValidCreditType(req.CreditType) {
		return ConversionResponse{}, conversionerrors.ErrInvalidCreditType
	}
	credits, err := decimal.NewFromString(req.Credits)
	if err != nil || !credits.IsPositive() {
		return ConversionResponse{}, conversionerrors.ErrInvalidCredits
	}

	requester, err := s.employeeRepo.FindByID(ctx, actorID)
	if err != nil {
		return ConversionResponse{}, err
	}
	if !requester.MonthlySalary.IsPositive() {
		return ConversionResponse{}, conversionerrors.ErrNoSalaryOnRecord
	}

	// Pre-flight balance check. The binding check is the deduction at the
	// admin stage; this one only keeps hopeless requests out of the queue.
	balance, err := s.ledgerService.GetOrCreate(ctx, actorID)
	if err != nil {
		return ConversionResponse{}, err
	}
	available, err := decimal.NewFromString(balanceFor(balance, req.CreditType))
	if err != nil {
		return ConversionResponse{}, err
	}
	if available.LessThan(credits) {
		s.logger.Warn("submit conversion rejected: insufficient credits",
			zap.String("employee_id", actorID),
			zap.String("credit_type", req.CreditType),
			zap.String("available", available.String()),
			zap.String("requested", credits.String()),
		)
		return ConversionResponse{}, conversionerrors.ErrInsufficientCredits
	}

	conv := &CreditConversion{
		ID:             uuid.New(),
		EmployeeID:     requester.ID,
		CreditType:     req.CreditType,
		Credits:        credits,
		MonthlySalary:  requester.MonthlySalary,
		EquivalentCash: EquivalentCash(requester.MonthlySalary, credits),
		Status:         StatusPending,
	}
	if err := s.repo.Create(ctx, conv); err != nil {
		s.logger.Error("submit conversion persist failed", zap.Error(err))
		return ConversionResponse{}, err
	}

	s.logger.Info("submit conversion success",
		zap.String("conversion_id", conv.ID.String()),
		zap.String("employee_id", actorID),
		zap.String("equivalent_cash", conv.EquivalentCash.String()),
	)
	return mapToResponse(*conv), nil
}

func (s *service) GetAll(ctx context.Context) ([]ConversionResponse, error) {
	conversions, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapAll(conversions), nil
}

func (s *service) GetByID(ctx context.Context, id string) (ConversionResponse, error) {
	conv, err := s.loadConversion(ctx, id)
	if err != nil {
		return ConversionResponse{}, err
	}
	return mapToResponse(*conv), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string) ([]ConversionResponse, error) {
	conversions, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapAll(conversions), nil
}

func (s *service) Approve(ctx context.Context, actorID, conversionID string, req DecisionRequest) (ConversionResponse, error) {
	conv, err := s.loadConversion(ctx, conversionID)
	if err != nil {
		return ConversionResponse{}, err
	}
	if terminalStatus(conv.Status) {
		return ConversionResponse{}, conversionerrors.ErrAlreadyResolved
	}

	fromStatus := conv.Status
	next, ok := nextStatus(fromStatus)
	if !ok {
		return ConversionResponse{}, conversionerrors.ErrAlreadyResolved
	}

	if err := s.authorizeStage(ctx, actorID, fromStatus); err != nil {
		s.logger.Warn("conversion approve rejected: actor not authorized for stage",
			zap.String("conversion_id", conversionID),
			zap.String("status", fromStatus),
			zap.String("actor_id", actorID),
		)
		return ConversionResponse{}, err
	}

	// Credits leave the ledger only at the final stage. Unlike leave
	// approval there is no unpaid fallback: a short balance blocks the
	// payout outright.
	deducted := false
	if next == StatusAdminApproved {
		err := s.ledgerService.Deduct(ctx, ledger.DeductRequest{
			EmployeeID: conv.EmployeeID.String(),
			Type:       conv.CreditType,
			Points:     conv.Credits,
			Reason:     ledger.ReasonConversion,
			Remarks:    fmt.Sprintf("Conversion of %s %s credits to cash %s", conv.Credits.String(), conv.CreditType, conv.EquivalentCash.String()),
			Date:       s.now(),
		})
		if errors.Is(err, ledgererrors.ErrInsufficientBalance) {
			return ConversionResponse{}, conversionerrors.ErrInsufficientCredits
		}
		if err != nil {
			s.logger.Error("conversion deduct failed",
				zap.String("conversion_id", conversionID),
				zap.Error(err),
			)
			return ConversionResponse{}, err
		}
		deducted = true
	}

	actorUUID := uuid.MustParse(actorID)
	decidedAt := s.now()
	s.stampStage(conv, fromStatus, actorUUID, decidedAt, req.Remarks)
	conv.Status = next

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ConversionResponse{}, s.compensate(ctx, conv, deducted, err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	held, err := qtx.UpdateStatusGuarded(ctx, conv, fromStatus)
	if err != nil {
		return ConversionResponse{}, s.compensate(ctx, conv, deducted, err)
	}
	if !held {
		// Lost the race to another decider at the same stage.
		return ConversionResponse{}, s.compensate(ctx, conv, deducted, conversionerrors.ErrAlreadyResolved)
	}

	if next == StatusAdminApproved {
		if err := s.enqueueDecisionEvent(ctx, tx, conv, events.EventConversionApproved, req.Remarks); err != nil {
			return ConversionResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ConversionResponse{}, err
	}

	s.logger.Info("conversion approve success",
		zap.String("conversion_id", conversionID),
		zap.String("actor_id", actorID),
		zap.String("status", conv.Status),
	)
	return mapToResponse(*conv), nil
}

func (s *service) Reject(ctx context.Context, actorID, conversionID string, req DecisionRequest) (ConversionResponse, error) {
	if req.Remarks == "" {
		return ConversionResponse{}, conversionerrors.ErrRemarksRequired
	}

	conv, err := s.loadConversion(ctx, conversionID)
	if err != nil {
		return ConversionResponse{}, err
	}
	if terminalStatus(conv.Status) {
		return ConversionResponse{}, conversionerrors.ErrAlreadyResolved
	}

	fromStatus := conv.Status
	if err := s.authorizeStage(ctx, actorID, fromStatus); err != nil {
		s.logger.Warn("conversion reject rejected: actor not authorized for stage",
			zap.String("conversion_id", conversionID),
			zap.String("status", fromStatus),
			zap.String("actor_id", actorID),
		)
		return ConversionResponse{}, err
	}

	actorUUID := uuid.MustParse(actorID)
	rejectedAt := s.now()
	conv.RejectedBy = &actorUUID
	conv.RejectedAt = &rejectedAt
	conv.RejectedAtStage = fromStatus
	conv.RejectionReason = req.Remarks
	conv.Status = StatusRejected

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ConversionResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	held, err := qtx.UpdateStatusGuarded(ctx, conv, fromStatus)
	if err != nil {
		return ConversionResponse{}, err
	}
	if !held {
		return ConversionResponse{}, conversionerrors.ErrAlreadyResolved
	}

	if err := s.enqueueDecisionEvent(ctx, tx, conv, events.EventConversionRejected, req.Remarks); err != nil {
		return ConversionResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return ConversionResponse{}, err
	}

	s.logger.Info("conversion reject success",
		zap.String("conversion_id", conversionID),
		zap.String("actor_id", actorID),
		zap.String("stage", fromStatus),
	)
	return mapToResponse(*conv), nil
}

func (s *service) loadConversion(ctx context.Context, id string) (*CreditConversion, error) {
	conv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, conversionerrors.ErrConversionNotFound
		}
		return nil, err
	}
	return conv, nil
}

// authorizeStage verifies the actor holds the stage the conversion is
// waiting on. The final stage belongs to the resolved current approver.
func (s *service) authorizeStage(ctx context.Context, actorID, status string) error {
	if status == StatusDeptHeadApproved {
		current, err := s.delegationService.CurrentApprover(ctx)
		if err != nil {
			return err
		}
		if current.EmployeeID != actorID {
			return conversionerrors.ErrNotYourStage
		}
		return nil
	}

	actor, err := s.employeeRepo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conversionerrors.ErrNotYourStage
		}
		return err
	}

	var required string
	switch status {
	case StatusPending:
		required = employee.RoleHR
	case StatusHRApproved:
		required = employee.RoleDeptHead
	default:
		return conversionerrors.ErrAlreadyResolved
	}
	if actor.Role != required {
		return conversionerrors.ErrNotYourStage
	}
	return nil
}

func (s *service) stampStage(conv *CreditConversion, fromStatus string, actor uuid.UUID, at time.Time, remarks string) {
	switch fromStatus {
	case StatusPending:
		conv.HRApprovedBy = &actor
		conv.HRApprovedAt = &at
		conv.HRRemarks = remarks
	case StatusHRApproved:
		conv.DeptHeadApprovedBy = &actor
		conv.DeptHeadApprovedAt = &at
		conv.DeptHeadRemarks = remarks
	case StatusDeptHeadApproved:
		conv.AdminApprovedBy = &actor
		conv.AdminApprovedAt = &at
		conv.AdminRemarks = remarks
	}
}

// compensate hands deducted credits back when persisting the final stage
// failed after the ledger already moved.
func (s *service) compensate(ctx context.Context, conv *CreditConversion, deducted bool, cause error) error {
	if !deducted {
		return cause
	}
	if err := s.ledgerService.Restore(ctx, ledger.RestoreRequest{
		EmployeeID: conv.EmployeeID.String(),
		Type:       conv.CreditType,
		Points:     conv.Credits,
		Reason:     ledger.ReasonConversion,
		Remarks:    "Reversal: conversion approval could not be recorded",
		Date:       s.now(),
	}); err != nil {
		s.logger.Error("conversion compensation failed",
			zap.String("conversion_id", conv.ID.String()),
			zap.Error(err),
		)
	}
	return cause
}

func (s *service) enqueueDecisionEvent(ctx context.Context, tx *sql.Tx, conv *CreditConversion, eventType, remarks string) error {
	payload, err := json.Marshal(events.LeaveDecisionEvent{
		EventType:     eventType,
		RequestID:     conv.ID.String(),
		EmployeeID:    conv.EmployeeID.String(),
		LeaveTypeName: conv.CreditType,
		Remarks:       remarks,
		OccurredAt:    s.now(),
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "credit_conversion",
		AggregateID:   conv.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveNotificationTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func balanceFor(balance ledger.CreditResponse, creditType string) string {
	if creditType == ledger.TypeSL {
		return balance.SLBalance
	}
	return balance.VLBalance
}

func mapAll(conversions []CreditConversion) []ConversionResponse {
	resp := make([]ConversionResponse, len(conversions))
	for i, c := range conversions {
		resp[i] = mapToResponse(c)
	}
	return resp
}

func mapToResponse(c CreditConversion) ConversionResponse {
	resp := ConversionResponse{
		ID:              c.ID.String(),
		EmployeeID:      c.EmployeeID.String(),
		CreditType:      c.CreditType,
		Credits:         c.Credits.String(),
		MonthlySalary:   c.MonthlySalary.String(),
		EquivalentCash:  c.EquivalentCash.String(),
		Status:          c.Status,
		RejectedAtStage: c.RejectedAtStage,
		RejectionReason: c.RejectionReason,
		CreatedAt:       c.CreatedAt.Format(time.RFC3339),
	}
	resp.HRStage = stageResponse(c.HRApprovedBy, c.HRApprovedAt, c.HRRemarks)
	resp.DeptHeadStage = stageResponse(c.DeptHeadApprovedBy, c.DeptHeadApprovedAt, c.DeptHeadRemarks)
	resp.AdminStage = stageResponse(c.AdminApprovedBy, c.AdminApprovedAt, c.AdminRemarks)
	if c.RejectedBy != nil {
		resp.RejectedBy = c.RejectedBy.String()
	}
	return resp
}

func stageResponse(by *uuid.UUID, at *time.Time, remarks string) *StageResponse {
	if by == nil || at == nil {
		return nil
	}
	return &StageResponse{
		ApprovedBy: by.String(),
		ApprovedAt: at.Format(time.RFC3339),
		Remarks:    remarks,
	}
}
