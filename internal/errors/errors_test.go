package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeConflict, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUpstream, http.StatusBadGateway},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := Conflict("Load is already on a boat.")

	assert.True(t, Is(err, ErrConflict))
	assert.False(t, Is(err, ErrNotFound))

	wrapped := fmt.Errorf("assign: %w", err)
	assert.True(t, Is(wrapped, ErrConflict))
}

func TestError_WithCauseUnwraps(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := Unavailable("store unreachable").WithCause(cause)

	assert.Equal(t, "store unreachable: dial tcp: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
}

func TestError_WithDetailsKeepsCode(t *testing.T) {
	err := ValidationWithDetails("validation failed", map[string]string{"name": "is required"})

	var domainErr *Error
	require.True(t, As(err, &domainErr))
	assert.Equal(t, CodeValidation, domainErr.Code)
	assert.Equal(t, map[string]string{"name": "is required"}, domainErr.Details)

	other := err.WithDetails("replaced")
	assert.Equal(t, CodeValidation, other.Code)
	assert.Equal(t, "replaced", other.Details)
}

func TestWithCause_DoesNotMutateSentinel(t *testing.T) {
	err := ErrUpstream.WithCause(fmt.Errorf("boom"))

	assert.Equal(t, "upstream error: boom", err.Error())
	assert.Equal(t, "upstream error", ErrUpstream.Error())
	assert.NoError(t, ErrUpstream.Unwrap())
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
}
