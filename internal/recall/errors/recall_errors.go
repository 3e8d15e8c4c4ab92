package recallerrors

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
	ErrNotVacationLeave = apperror.New(
		apperror.CodeInvalidState,
		"only vacation leave can be recalled",
		http.StatusBadRequest,
	)
	ErrNotFullyApproved = apperror.New(
		apperror.CodeInvalidState,
		"only fully approved leave can be recalled",
		http.StatusBadRequest,
	)
	ErrAlreadyRecalled = apperror.New(
		apperror.CodeInvalidState,
		"leave request has already been recalled",
		http.StatusBadRequest,
	)
	ErrWindowExpired = apperror.New(
		apperror.CodeInvalidState,
		"recall window has expired",
		http.StatusBadRequest,
	)
	ErrNotCurrentApprover = apperror.New(
		apperror.CodeForbidden,
		"only the current approver may recall a leave",
		http.StatusForbidden,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"a recall reason is required",
		http.StatusBadRequest,
	)
)
