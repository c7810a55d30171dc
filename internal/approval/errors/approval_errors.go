package approvalerrors

import (
	"net/http"

	"line-leave/internal/shared/apperror"
)

var (
	ErrUnauthorized = apperror.New(
		apperror.CodeForbidden,
		"actor is not allowed to decide this stage",
		http.StatusForbidden,
	)
	ErrInvalidPostback = apperror.New(
		apperror.CodeInvalidInput,
		"unrecognized postback data",
		http.StatusBadRequest,
	)
)
