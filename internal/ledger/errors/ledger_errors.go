package ledgererrors

import (
	"net/http"

	"github.com/janajenn/capstone2-sub006/internal/shared/apperror"
)

var (
	ErrInsufficientBalance = apperror.New(
		apperror.CodeConflict,
		"insufficient leave credit balance",
		http.StatusConflict,
	)
	ErrInvalidCreditType = apperror.New(
		apperror.CodeInvalidInput,
		"credit type must be SL or VL",
		http.StatusBadRequest,
	)
	ErrInvalidPoints = apperror.New(
		apperror.CodeInvalidInput,
		"points must be greater than zero",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrCreditNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave credit record not found",
		http.StatusNotFound,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
)
