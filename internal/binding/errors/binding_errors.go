package bindingerrors

import (
	"net/http"

	"line-leave/internal/shared/apperror"
)

var (
	ErrBindingNotFound = apperror.New(
		apperror.CodeNotFound,
		"user is not bound",
		http.StatusNotFound,
	)
	ErrDuplicateBinding = apperror.New(
		apperror.CodeConflict,
		"user is already bound",
		http.StatusConflict,
	)
	ErrInvalidUserID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid user id",
		http.StatusBadRequest,
	)
	ErrInvalidDisplayName = apperror.New(
		apperror.CodeInvalidInput,
		"display name is required",
		http.StatusBadRequest,
	)
	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"role must be one of employee, supervisor, hr",
		http.StatusBadRequest,
	)
)
