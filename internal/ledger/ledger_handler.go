package ledger

import (
	"net/http"
	"strconv"
	"time"

	ledgererrors "github.com/janajenn/capstone2-sub006/internal/ledger/errors"
	"github.com/janajenn/capstone2-sub006/internal/shared/apperror"
	"github.com/janajenn/capstone2-sub006/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("ledger.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ledger.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("ledger request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) GetBalance(c *gin.Context) {
	resp, err := h.service.GetBalance(c.Request.Context(), c.Param("employeeId"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetLogs(c *gin.Context) {
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil || year < 2000 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid year", nil)
		return
	}

	resp, err := h.service.ListLogs(c.Request.Context(), c.Param("employeeId"), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// LateDeduction is the entry point for the attendance pipeline. It uses the
// same deduct contract as leave usage, tagged with the late reason code.
func (h *Handler) LateDeduction(c *gin.Context) {
	var req LateDeductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http late deduction validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", err.Error())
		return
	}

	points, err := decimal.NewFromString(req.Points)
	if err != nil {
		h.writeServiceError(c, ledgererrors.ErrInvalidPoints)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.writeServiceError(c, ledgererrors.ErrInvalidDateFormat)
		return
	}

	remarks := req.Remarks
	if remarks == "" {
		remarks = "Late"
	}

	err = h.service.Deduct(c.Request.Context(), DeductRequest{
		EmployeeID: req.EmployeeID,
		Type:       TypeVL,
		Points:     points,
		Reason:     ReasonLate,
		Remarks:    remarks,
		Date:       date,
	})
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deducted": true}, nil)
}
