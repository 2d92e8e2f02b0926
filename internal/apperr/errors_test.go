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
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", Validation("bad input"), http.StatusBadRequest},
		{"unauthenticated", &AuthError{Message: "no token"}, http.StatusUnauthorized},
		{"forbidden", &AuthError{Message: "wrong role", Forbidden: true}, http.StatusForbidden},
		{"signature", &SignatureError{OrderID: "TNC-1"}, http.StatusForbidden},
		{"not found", NotFound("order", "TNC-1"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFound("order", "TNC-1")), http.StatusNotFound},
		{"gateway", Gateway("create session", errors.New("timeout")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestGatewayErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Gateway("create session", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "create session")
}

func TestValidationErrorMessage(t *testing.T) {
	err := Validation("invalid input", FieldError{Field: "items", Message: "required"})
	assert.Equal(t, "invalid input (1 invalid fields)", err.Error())
	assert.Equal(t, "invalid input", Validation("invalid input").Error())
}
