package delegationerrors

import (
	"net/http"

	"github.com/janajenn/capstone2-sub006/internal/shared/apperror"
)

var (
	ErrDelegationNotFound = apperror.New(
		apperror.CodeNotFound,
		"delegation not found",
		http.StatusNotFound,
	)
	ErrNoPrimaryAdmin = apperror.New(
		apperror.CodeInvalidState,
		"no primary admin is configured",
		http.StatusConflict,
	)
	ErrNotCurrentApprover = apperror.New(
		apperror.CodeForbidden,
		"only the current approver may delegate authority",
		http.StatusForbidden,
	)
	ErrDelegateNotAdmin = apperror.New(
		apperror.CodeInvalidInput,
		"delegate must hold the admin role",
		http.StatusBadRequest,
	)
	ErrSelfDelegation = apperror.New(
		apperror.CodeInvalidInput,
		"cannot delegate approval authority to yourself",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrDelegationNotActive = apperror.New(
		apperror.CodeInvalidState,
		"delegation is no longer active",
		http.StatusBadRequest,
	)
	ErrCancelNotAllowed = apperror.New(
		apperror.CodeForbidden,
		"only the delegating admin, the delegate, or a primary admin may cancel",
		http.StatusForbidden,
	)
)
