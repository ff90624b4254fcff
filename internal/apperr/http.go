package apperr

import (
	"errors"
	"net/http"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPStatus maps an error kind onto a response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrTokenInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Response builds the body for err. Internal failures are not echoed back.
func Response(err error) ErrorResponse {
	var v *ValidationError
	if errors.As(err, &v) {
		return ErrorResponse{Error: ErrValidation.Error(), Fields: v.Fields}
	}
	for _, kind := range []error{ErrConflict, ErrAuthentication, ErrTokenInvalid, ErrForbidden, ErrNotFound} {
		if errors.Is(err, kind) {
			return ErrorResponse{Error: kind.Error()}
		}
	}
	if errors.Is(err, ErrValidation) {
		return ErrorResponse{Error: ErrValidation.Error()}
	}
	return ErrorResponse{Error: "internal error"}
}
