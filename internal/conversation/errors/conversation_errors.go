package conversationerrors

import (
	"net/http"

	"line-leave/internal/shared/apperror"
)

var (
	ErrParse = apperror.New(
		apperror.CodeInvalidInput,
		"request line does not match the expected format",
		http.StatusBadRequest,
	)
	ErrInvalidRange = apperror.New(
		apperror.CodeInvalidInput,
		"start must be before end",
		http.StatusBadRequest,
	)
	ErrNoWorkingHours = apperror.New(
		apperror.CodeInvalidInput,
		"requested period contains no working hours",
		http.StatusBadRequest,
	)
)
