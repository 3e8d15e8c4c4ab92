package conversionerrors

import (
	"net/http"

	"github.com/janajenn/capstone2-sub006/internal/shared/apperror"
)

var (
	ErrConversionNotFound = apperror.New(
		apperror.CodeNotFound,
		"credit conversion not found",
		http.StatusNotFound,
	)
	ErrInvalidCredits = apperror.New(
		apperror.CodeInvalidInput,
		"credits must be a positive amount",
		http.StatusBadRequest,
	)
	ErrInvalidCreditType = apperror.New(
		apperror.CodeInvalidInput,
		"credit type must be SL or VL",
		http.StatusBadRequest,
	)
	ErrInsufficientCredits = apperror.New(
		apperror.CodeConflict,
		"available balance is below the requested credits",
		http.StatusConflict,
	)
	ErrAlreadyResolved = apperror.New(
		apperror.CodeInvalidState,
		"credit conversion has already been resolved",
		http.StatusBadRequest,
	)
	ErrNotYourStage = apperror.New(
		apperror.CodeForbidden,
		"this conversion is not awaiting your approval stage",
		http.StatusForbidden,
	)
	ErrRemarksRequired = apperror.New(
		apperror.CodeInvalidInput,
		"remarks are required when rejecting",
		http.StatusBadRequest,
	)
	ErrNoSalaryOnRecord = apperror.New(
		apperror.CodeInvalidState,
		"employee has no monthly salary on record",
		http.StatusConflict,
	)
)
