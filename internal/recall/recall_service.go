package recall

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/janajenn/capstone2-sub006/internal/approval"
	"github.com/janajenn/capstone2-sub006/internal/delegation"
	"github.com/janajenn/capstone2-sub006/internal/events"
	"github.com/janajenn/capstone2-sub006/internal/ledger"
	"github.com/janajenn/capstone2-sub006/internal/messaging/kafka"
	recallerrors "github.com/janajenn/capstone2-sub006/internal/recall/errors"
	"github.com/janajenn/capstone2-sub006/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=recall_service.go -destination=mock/recall_service_mock.go -package=mock
type Service interface {
	// Eligibility answers whether a leave can still be recalled, without
	// changing anything.
	Eligibility(ctx context.Context, leaveID string) (EligibilityResponse, error)
	Recall(ctx context.Context, actorID, leaveID string, req RecallRequest) (RecallResponse, error)
	GetAll(ctx context.Context) ([]RecallResponse, error)
}

type service struct {
	db                *sql.DB
	repo              Repository
	leaveRepo         approval.Repository
	ledgerService     ledger.Service
	delegationService delegation.Service
	outboxRepo        kafka.OutboxRepository
	now               func() time.Time
	logger            *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	leaveRepo approval.Repository,
	ledgerService ledger.Service,
	delegationService delegation.Service,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithClock(db, repo, leaveRepo, ledgerService, delegationService, outboxRepo, time.Now, logger...)
}

// NewServiceWithClock lets tests pin "today".
func NewServiceWithClock(
	db *sql.DB,
	repo Repository,
	leaveRepo approval.Repository,
	ledgerService ledger.Service,
	delegationService delegation.Service,
	outboxRepo kafka.OutboxRepository,
	clock func() time.Time,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("recall.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("recall.service")
	}
	return &service{
		db:                db,
		repo:              repo,
		leaveRepo:         leaveRepo,
		ledgerService:     ledgerService,
		delegationService: delegationService,
		outboxRepo:        outboxRepo,
		now:               clock,
		logger:            l,
	}
}

func (s *service) Eligibility(ctx context.Context, leaveID string) (EligibilityResponse, error) {
	request, err := s.loadLeave(ctx, leaveID)
	if err != nil {
		return EligibilityResponse{}, err
	}

	if err := s.checkRecallable(ctx, request); err != nil {
		return EligibilityResponse{
			LeaveID:    leaveID,
			Recallable: false,
			Reason:     err.Error(),
		}, nil
	}
	return EligibilityResponse{LeaveID: leaveID, Recallable: true}, nil
}

func (s *service) Recall(ctx context.Context, actorID, leaveID string, req RecallRequest) (RecallResponse, error) {
	if req.Reason == "" {
		return RecallResponse{}, recallerrors.ErrReasonRequired
	}

	s.logger.Debug("recall requested",
		zap.String("leave_id", leaveID),
		zap.String("actor_id", actorID),
	)

	// Single-step action held by the admin gate owner.
	current, err := s.delegationService.CurrentApprover(ctx)
	if err != nil {
		return RecallResponse{}, err
	}
	if current.EmployeeID != actorID {
		s.logger.Warn("recall rejected: actor is not current approver",
			zap.String("leave_id", leaveID),
			zap.String("actor_id", actorID),
		)
		return RecallResponse{}, recallerrors.ErrNotCurrentApprover
	}

	request, err := s.loadLeave(ctx, leaveID)
	if err != nil {
		return RecallResponse{}, err
	}
	if err := s.checkRecallable(ctx, request); err != nil {
		return RecallResponse{}, err
	}

	// Only paid days went through the ledger, so only they come back.
	// Unpaid days were never deducted. The restore commits first, so every
	// persist failure below must take the credits back or a retry (the
	// leave is still approved with no recall row) would restore twice.
	restored := false
	if request.DaysWithPay > 0 {
		if err := s.ledgerService.Restore(ctx, ledger.RestoreRequest{
			EmployeeID: request.EmployeeID.String(),
			Type:       ledger.TypeVL,
			Points:     decimal.NewFromInt(int64(request.DaysWithPay)),
			Reason:     ledger.ReasonRecall,
			Remarks:    fmt.Sprintf("Recall of approved VL %s to %s", request.DateFrom.Format("2006-01-02"), request.DateTo.Format("2006-01-02")),
			Date:       s.now(),
		}); err != nil {
			s.logger.Error("recall restore failed",
				zap.String("leave_id", leaveID),
				zap.Error(err),
			)
			return RecallResponse{}, err
		}
		restored = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RecallResponse{}, s.compensate(ctx, request, restored, err)
	}
	defer tx.Rollback()

	recallRow := &LeaveRecall{
		ID:           uuid.New(),
		LeaveID:      request.ID,
		RecalledBy:   uuid.MustParse(actorID),
		Reason:       req.Reason,
		DaysRestored: request.DaysWithPay,
		RecalledAt:   s.now(),
	}
	if err := s.repo.WithTx(tx).Create(ctx, recallRow); err != nil {
		s.logger.Error("recall persist failed", zap.Error(err))
		return RecallResponse{}, s.compensate(ctx, request, restored, err)
	}

	request.Status = approval.StatusRecalled
	if err := s.leaveRepo.WithTx(tx).Update(ctx, request); err != nil {
		s.logger.Error("recall update leave failed", zap.Error(err))
		return RecallResponse{}, s.compensate(ctx, request, restored, err)
	}

	payload, err := json.Marshal(events.LeaveDecisionEvent{
		EventType:     events.EventLeaveRecalled,
		RequestID:     request.ID.String(),
		EmployeeID:    request.EmployeeID.String(),
		LeaveTypeName: request.LeaveType,
		DateFrom:      request.DateFrom.Format("2006-01-02"),
		DateTo:        request.DateTo.Format("2006-01-02"),
		Remarks:       req.Reason,
		OccurredAt:    s.now(),
	})
	if err != nil {
		return RecallResponse{}, s.compensate(ctx, request, restored, err)
	}
	if err := s.outboxRepo.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   request.ID.String(),
		EventType:     events.EventLeaveRecalled,
		Topic:         events.LeaveNotificationTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		return RecallResponse{}, s.compensate(ctx, request, restored, err)
	}

	if err := tx.Commit(); err != nil {
		return RecallResponse{}, s.compensate(ctx, request, restored, err)
	}

	s.logger.Info("recall success",
		zap.String("leave_id", leaveID),
		zap.String("actor_id", actorID),
		zap.Int("days_restored", recallRow.DaysRestored),
	)
	return mapToResponse(*recallRow), nil
}

func (s *service) GetAll(ctx context.Context) ([]RecallResponse, error) {
	recalls, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]RecallResponse, len(recalls))
	for i, r := range recalls {
		resp[i] = mapToResponse(r)
	}
	return resp, nil
}

// compensate takes restored credits back when the recall could not be
// recorded after the ledger already moved. Without it a retry on the
// still-approved leave would restore a second time.
func (s *service) compensate(ctx context.Context, request *approval.LeaveRequest, restored bool, cause error) error {
	if !restored {
		return cause
	}
	if err := s.ledgerService.Deduct(ctx, ledger.DeductRequest{
		EmployeeID: request.EmployeeID.String(),
		Type:       ledger.TypeVL,
		Points:     decimal.NewFromInt(int64(request.DaysWithPay)),
		Reason:     ledger.ReasonRecall,
		Remarks:    "Reversal: recall could not be recorded",
		Date:       s.now(),
	}); err != nil {
		s.logger.Error("recall compensation failed",
			zap.String("leave_id", request.ID.String()),
			zap.Error(err),
		)
	}
	return cause
}

func (s *service) loadLeave(ctx context.Context, leaveID string) (*approval.LeaveRequest, error) {
	request, err := s.leaveRepo.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, recallerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return request, nil
}

// checkRecallable enforces every recall precondition: vacation leave only,
// fully approved with an admin decision on record, not yet recalled, and
// inside the window.
func (s *service) checkRecallable(ctx context.Context, request *approval.LeaveRequest) error {
	if request.LeaveType != ledger.TypeVL {
		return recallerrors.ErrNotVacationLeave
	}
	if request.Status != approval.StatusApproved {
		if request.Status == approval.StatusRecalled {
			return recallerrors.ErrAlreadyRecalled
		}
		return recallerrors.ErrNotFullyApproved
	}

	adminActed, err := s.leaveRepo.HasApprovalByRole(ctx, request.ID.String(), approval.GateAdmin)
	if err != nil {
		return err
	}
	if !adminActed {
		return recallerrors.ErrNotFullyApproved
	}

	recalled, err := s.repo.ExistsForLeave(ctx, request.ID.String())
	if err != nil {
		return err
	}
	if recalled {
		return recallerrors.ErrAlreadyRecalled
	}

	windowEnd := request.DateTo.AddDate(0, 0, RecallWindowDays)
	today := s.now().Truncate(24 * time.Hour)
	if today.After(windowEnd) {
		return recallerrors.ErrWindowExpired
	}
	return nil
}

func mapToResponse(r LeaveRecall) RecallResponse {
	return RecallResponse{
		ID:           r.ID.String(),
		LeaveID:      r.LeaveID.String(),
		RecalledBy:   r.RecalledBy.String(),
		Reason:       r.Reason,
		DaysRestored: r.DaysRestored,
		RecalledAt:   r.RecalledAt.Format(time.RFC3339),
	}
}
