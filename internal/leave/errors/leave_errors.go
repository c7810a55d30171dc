package leaveerrors

import (
	"net/http"

	"line-leave/internal/shared/apperror"
)

var (
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrRequesterNameRequired = apperror.New(
		apperror.CodeInvalidInput,
		"requester name is required",
		http.StatusBadRequest,
	)
	ErrLeaveTypeRequired = apperror.New(
		apperror.CodeInvalidInput,
		"leave type is required",
		http.StatusBadRequest,
	)
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidInput,
		"start time must be before end time",
		http.StatusBadRequest,
	)
	ErrNoWorkingHours = apperror.New(
		apperror.CodeInvalidInput,
		"requested period contains no working hours",
		http.StatusBadRequest,
	)
	ErrInvalidStage = apperror.New(
		apperror.CodeInvalidInput,
		"stage must be supervisor or hr",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be APPROVED or REJECTED",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrStageMismatch = apperror.New(
		apperror.CodeInvalidState,
		"leave request stage already processed",
		http.StatusConflict,
	)
)
