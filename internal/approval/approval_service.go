package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	approvalerrors "github.com/janajenn/capstone2-sub006/internal/approval/errors"
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

//go:generate mockgen -source=approval_service.go -destination=mock/approval_service_mock.go -package=mock
type Service interface {
	Submit(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveRequestResponse, error)
	GetAll(ctx context.Context) ([]LeaveRequestResponse, error)
	GetByID(ctx context.Context, id string) (LeaveRequestResponse, error)
	GetByEmployee(ctx context.Context, employeeID string) ([]LeaveRequestResponse, error)
	Approve(ctx context.Context, actorID, leaveID string, req DecisionRequest) (LeaveRequestResponse, error)
	Reject(ctx context.Context, actorID, leaveID string, req DecisionRequest) (LeaveRequestResponse, error)
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

// NewServiceWithClock lets tests pin "today".
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
	l := zap.L().Named("approval.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.service")
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

func (s *service) Submit(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveRequestResponse, error) {
	s.logger.Debug("submit leave requested",
		zap.String("employee_id", actorID),
		zap.String("leave_type", req.LeaveType),
		zap.String("date_from", req.DateFrom),
		zap.String("date_to", req.DateTo),
	)

	dateFrom, err := time.Parse("2006-01-02", req.DateFrom)
	if err != nil {
		return LeaveRequestResponse{}, approvalerrors.ErrInvalidDateFormat
	}
	dateTo, err := time.Parse("2006-01-02", req.DateTo)
	if err != nil {
		return LeaveRequestResponse{}, approvalerrors.ErrInvalidDateFormat
	}
	if dateFrom.After(dateTo) {
		return LeaveRequestResponse{}, approvalerrors.ErrInvalidDateRange
	}

	selected := DateList(req.SelectedDates)
	if len(selected) > 0 && !withinRange(dateFrom, dateTo, selected) {
		return LeaveRequestResponse{}, approvalerrors.ErrSelectedDateOutOfRange
	}
	if WorkingDays(dateFrom, dateTo, selected) == 0 {
		return LeaveRequestResponse{}, approvalerrors.ErrNoWorkingDays
	}

	requester, err := s.employeeRepo.FindByID(ctx, actorID)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	overlap, err := s.repo.HasOpenOverlap(ctx, actorID, dateFrom, dateTo)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if overlap {
		s.logger.Warn("submit rejected: overlapping open request",
			zap.String("employee_id", actorID),
		)
		return LeaveRequestResponse{}, approvalerrors.ErrOverlappingRequest
	}

	request := &LeaveRequest{
		ID:                    uuid.New(),
		EmployeeID:            requester.ID,
		LeaveType:             req.LeaveType,
		DateFrom:              dateFrom,
		DateTo:                dateTo,
		SelectedDates:         selected,
		Reason:                req.Reason,
		Status:                StatusPending,
		RequesterRoleSnapshot: requester.Role,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		s.logger.Error("submit persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("submit leave success",
		zap.String("leave_id", request.ID.String()),
		zap.String("employee_id", actorID),
		zap.String("requester_role", requester.Role),
	)
	return s.mapToResponse(ctx, *request), nil
}

func (s *service) GetAll(ctx context.Context) ([]LeaveRequestResponse, error) {
	requests, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.mapAll(ctx, requests), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveRequestResponse, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, approvalerrors.ErrLeaveNotFound
		}
		return LeaveRequestResponse{}, err
	}
	return s.mapToResponse(ctx, *request), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID string) ([]LeaveRequestResponse, error) {
	requests, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return s.mapAll(ctx, requests), nil
}

func (s *service) Approve(ctx context.Context, actorID, leaveID string, req DecisionRequest) (LeaveRequestResponse, error) {
	request, gate, err := s.loadForDecision(ctx, actorID, leaveID)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	required := RequiredRoles(request.RequesterRoleSnapshot)
	next := statusAfterGate(required, gate)

	// On full approval the pay split is decided before anything is
	// persisted; a short balance silently converts the leave to unpaid
	// rather than blocking the chain. When credits moved, every persist
	// failure below must hand them back or a retry would deduct twice.
	deducted := false
	if next == StatusApproved {
		deducted, err = s.settlePay(ctx, request)
		if err != nil {
			return LeaveRequestResponse{}, err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveRequestResponse{}, s.compensate(ctx, request, deducted, err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.CreateApproval(ctx, &LeaveApproval{
		ID:         uuid.New(),
		LeaveID:    request.ID,
		Role:       gate,
		ApprovedBy: uuid.MustParse(actorID),
		Status:     ApprovalApproved,
		Remarks:    req.Remarks,
		ApprovedAt: s.now(),
	}); err != nil {
		s.logger.Error("approve persist approval failed", zap.Error(err))
		return LeaveRequestResponse{}, s.compensate(ctx, request, deducted, err)
	}

	request.Status = next
	if err := qtx.Update(ctx, request); err != nil {
		s.logger.Error("approve persist request failed", zap.Error(err))
		return LeaveRequestResponse{}, s.compensate(ctx, request, deducted, err)
	}

	if next == StatusApproved {
		if err := s.enqueueDecisionEvent(ctx, tx, request, events.EventLeaveApproved, req.Remarks); err != nil {
			return LeaveRequestResponse{}, s.compensate(ctx, request, deducted, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return LeaveRequestResponse{}, s.compensate(ctx, request, deducted, err)
	}

	s.logger.Info("approve success",
		zap.String("leave_id", leaveID),
		zap.String("gate", gate),
		zap.String("actor_id", actorID),
		zap.String("status", request.Status),
	)
	return s.mapToResponse(ctx, *request), nil
}

func (s *service) Reject(ctx context.Context, actorID, leaveID string, req DecisionRequest) (LeaveRequestResponse, error) {
	if req.Remarks == "" {
		return LeaveRequestResponse{}, approvalerrors.ErrRemarksRequired
	}

	request, gate, err := s.loadForDecision(ctx, actorID, leaveID)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.CreateApproval(ctx, &LeaveApproval{
		ID:         uuid.New(),
		LeaveID:    request.ID,
		Role:       gate,
		ApprovedBy: uuid.MustParse(actorID),
		Status:     ApprovalRejected,
		Remarks:    req.Remarks,
		ApprovedAt: s.now(),
	}); err != nil {
		s.logger.Error("reject persist approval failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	request.Status = StatusRejected
	if err := qtx.Update(ctx, request); err != nil {
		s.logger.Error("reject persist request failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := s.enqueueDecisionEvent(ctx, tx, request, events.EventLeaveRejected, req.Remarks); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		return LeaveRequestResponse{}, err
	}

	s.logger.Info("reject success",
		zap.String("leave_id", leaveID),
		zap.String("gate", gate),
		zap.String("actor_id", actorID),
	)
	return s.mapToResponse(ctx, *request), nil
}

// loadForDecision fetches the request, resolves whose turn it is, and
// verifies the actor holds that gate. The existence check on the approval
// row doubles as the lost-race guard: a second decider at the same gate
// fails here, not on a unique index error.
func (s *service) loadForDecision(ctx context.Context, actorID, leaveID string) (*LeaveRequest, string, error) {
	request, err := s.repo.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", approvalerrors.ErrLeaveNotFound
		}
		return nil, "", err
	}
	if terminalStatus(request.Status) {
		return nil, "", approvalerrors.ErrRequestResolved
	}

	gate, ok := gateForStatus(request.Status)
	if !ok {
		return nil, "", approvalerrors.ErrRequestResolved
	}

	if err := s.authorizeGate(ctx, actorID, gate); err != nil {
		s.logger.Warn("decision rejected: actor not authorized for gate",
			zap.String("leave_id", leaveID),
			zap.String("gate", gate),
			zap.String("actor_id", actorID),
		)
		return nil, "", err
	}

	acted, err := s.repo.HasApprovalByRole(ctx, leaveID, gate)
	if err != nil {
		return nil, "", err
	}
	if acted {
		return nil, "", approvalerrors.ErrGateAlreadyActed
	}

	return request, gate, nil
}

// authorizeGate checks gate ownership. The admin gate belongs to whoever
// the delegation service resolves right now, never to the admin role at
// large.
func (s *service) authorizeGate(ctx context.Context, actorID, gate string) error {
	if gate == GateAdmin {
		current, err := s.delegationService.CurrentApprover(ctx)
		if err != nil {
			return err
		}
		if current.EmployeeID != actorID {
			return approvalerrors.ErrNotYourTurn
		}
		return nil
	}

	actor, err := s.employeeRepo.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return approvalerrors.ErrNotYourTurn
		}
		return err
	}
	if actor.Role != gate {
		return approvalerrors.ErrNotYourTurn
	}
	return nil
}

// settlePay fixes days_with_pay / days_without_pay on the request and, for
// credit-backed types, deducts the paid days from the ledger. It reports
// whether the ledger actually moved so a failed persist can reverse it.
func (s *service) settlePay(ctx context.Context, request *LeaveRequest) (bool, error) {
	workdays := WorkingDays(request.DateFrom, request.DateTo, request.SelectedDates)

	if request.LeaveType == TypeUnpaid {
		request.DaysWithPay = 0
		request.DaysWithoutPay = workdays
		return false, nil
	}
	if !CreditBacked(request.LeaveType) {
		request.DaysWithPay = workdays
		request.DaysWithoutPay = 0
		return false, nil
	}

	err := s.ledgerService.Deduct(ctx, ledger.DeductRequest{
		EmployeeID: request.EmployeeID.String(),
		Type:       request.LeaveType,
		Points:     decimal.NewFromInt(int64(workdays)),
		Reason:     ledger.ReasonLeaveUsage,
		Remarks:    fmt.Sprintf("Approved %s leave %s to %s", request.LeaveType, request.DateFrom.Format("2006-01-02"), request.DateTo.Format("2006-01-02")),
		Date:       s.now(),
	})
	switch {
	case err == nil:
		request.DaysWithPay = workdays
		request.DaysWithoutPay = 0
		return true, nil
	case errors.Is(err, ledgererrors.ErrInsufficientBalance):
		s.logger.Warn("leave approved without pay: insufficient balance",
			zap.String("leave_id", request.ID.String()),
			zap.String("employee_id", request.EmployeeID.String()),
			zap.String("leave_type", request.LeaveType),
			zap.Int("workdays", workdays),
		)
		request.DaysWithPay = 0
		request.DaysWithoutPay = workdays
		return false, nil
	default:
		return false, err
	}
}

// compensate hands deducted paid days back when the approval could not be
// recorded after the ledger already moved, so a retry starts from the
// original balance.
func (s *service) compensate(ctx context.Context, request *LeaveRequest, deducted bool, cause error) error {
	if !deducted {
		return cause
	}
	if err := s.ledgerService.Restore(ctx, ledger.RestoreRequest{
		EmployeeID: request.EmployeeID.String(),
		Type:       request.LeaveType,
		Points:     decimal.NewFromInt(int64(request.DaysWithPay)),
		Reason:     ledger.ReasonLeaveUsage,
		Remarks:    "Reversal: leave approval could not be recorded",
		Date:       s.now(),
	}); err != nil {
		s.logger.Error("approval compensation failed",
			zap.String("leave_id", request.ID.String()),
			zap.Error(err),
		)
	}
	request.DaysWithPay = 0
	request.DaysWithoutPay = 0
	return cause
}

func (s *service) enqueueDecisionEvent(ctx context.Context, tx *sql.Tx, request *LeaveRequest, eventType, remarks string) error {
	payload, err := json.Marshal(events.LeaveDecisionEvent{
		EventType:     eventType,
		RequestID:     request.ID.String(),
		EmployeeID:    request.EmployeeID.String(),
		LeaveTypeName: request.LeaveType,
		DateFrom:      request.DateFrom.Format("2006-01-02"),
		DateTo:        request.DateTo.Format("2006-01-02"),
		Remarks:       remarks,
		OccurredAt:    s.now(),
	})
	if err != nil {
		return err
	}

	return s.outboxRepo.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   request.ID.String(),
		EventType:     eventType,
		Topic:         events.LeaveNotificationTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (s *service) mapAll(ctx context.Context, requests []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(requests))
	for i, r := range requests {
		resp[i] = s.mapToResponse(ctx, r)
	}
	return resp
}

func (s *service) mapToResponse(ctx context.Context, r LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:             r.ID.String(),
		EmployeeID:     r.EmployeeID.String(),
		LeaveType:      r.LeaveType,
		DateFrom:       r.DateFrom.Format("2006-01-02"),
		DateTo:         r.DateTo.Format("2006-01-02"),
		SelectedDates:  r.SelectedDates,
		Reason:         r.Reason,
		Status:         r.Status,
		DaysWithPay:    r.DaysWithPay,
		DaysWithoutPay: r.DaysWithoutPay,
		RequesterRole:  r.RequesterRoleSnapshot,
		RequiredRoles:  RequiredRoles(r.RequesterRoleSnapshot),
		CreatedAt:      r.CreatedAt.Format(time.RFC3339),
	}

	approvals, err := s.repo.FindApprovals(ctx, r.ID.String())
	if err != nil {
		s.logger.Warn("load approvals failed", zap.String("leave_id", r.ID.String()), zap.Error(err))
		return resp
	}
	for _, a := range approvals {
		resp.Approvals = append(resp.Approvals, ApprovalResponse{
			Role:       a.Role,
			ApprovedBy: a.ApprovedBy.String(),
			Status:     a.Status,
			Remarks:    a.Remarks,
			ApprovedAt: a.ApprovedAt.Format(time.RFC3339),
		})
	}
	return resp
}
