package approvalerrors

import (
	"net/http"

	"github.com/janajenn/capstone2-sub006/internal/shared/apperror"
)

var (
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"date_from must be before or equal date_to",
		http.StatusBadRequest,
	)
	ErrSelectedDateOutOfRange = apperror.New(
		apperror.CodeInvalidInput,
		"selected dates must fall within the requested period",
		http.StatusBadRequest,
	)
	ErrNoWorkingDays = apperror.New(
		apperror.CodeInvalidInput,
		"requested period contains no working days",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrOverlappingRequest = apperror.New(
		apperror.CodeConflict,
		"an open leave request already covers part of this period",
		http.StatusConflict,
	)
	ErrRequestResolved = apperror.New(
		apperror.CodeInvalidState,
		"leave request has already been resolved",
		http.StatusBadRequest,
	)
	ErrGateAlreadyActed = apperror.New(
		apperror.CodeInvalidState,
		"this approval stage has already recorded a decision",
		http.StatusBadRequest,
	)
	ErrNotYourTurn = apperror.New(
		apperror.CodeForbidden,
		"this request is not awaiting your approval stage",
		http.StatusForbidden,
	)
	ErrRemarksRequired = apperror.New(
		apperror.CodeInvalidInput,
		"remarks are required when rejecting",
		http.StatusBadRequest,
	)
)
