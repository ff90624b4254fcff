package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NewValidationError("email", "must be a valid email address"), http.StatusBadRequest},
		{ErrInvalidPhoneNumber, http.StatusBadRequest},
		{fmt.Errorf("%w: idx_accounts_email", ErrConflict), http.StatusConflict},
		{ErrAuthentication, http.StatusUnauthorized},
		{ErrTokenInvalid, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{errors.New("db error: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err), tc.err.Error())
	}
}

func TestResponseHidesInternals(t *testing.T) {
	r := Response(errors.New("db error: password authentication failed for user postgres"))
	assert.Equal(t, "internal error", r.Error)
	assert.Nil(t, r.Fields)

	r = Response(fmt.Errorf("%w: idx_accounts_email", ErrConflict))
	assert.Equal(t, ErrConflict.Error(), r.Error)

	r = Response(NewValidationError("phoneNumber", "invalid phone number"))
	assert.Equal(t, ErrValidation.Error(), r.Error)
	assert.Equal(t, map[string]string{"phoneNumber": "invalid phone number"}, r.Fields)
}
