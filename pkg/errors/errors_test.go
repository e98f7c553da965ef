package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	err := NotFound("payment", "pay-42")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.Contains(t, err.Message, "pay-42")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGatewayUnavailable(t *testing.T) {
	err := GatewayUnavailable("intent creation failed")

	assert.Equal(t, "GATEWAY_UNAVAILABLE", err.Code)
	assert.Equal(t, http.StatusBadGateway, err.Status)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestConflict(t *testing.T) {
	err := Conflict("refund exceeds remaining amount")

	assert.Equal(t, "CONFLICT", err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestAppError_ErrorString(t *testing.T) {
	err := &AppError{Code: "X", Message: "boom", Err: errors.New("cause")}
	assert.Equal(t, "X: boom: cause", err.Error())

	err = &AppError{Code: "X", Message: "boom"}
	assert.Equal(t, "X: boom", err.Error())
}

func TestAppError_UnwrapThroughWrapping(t *testing.T) {
	inner := InvalidInput("quantity must be positive")
	wrapped := fmt.Errorf("add item: %w", inner)

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.ErrorIs(t, wrapped, ErrInvalidInput)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("cart", "c-1"), http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("resolve: %w", Conflict("busy")), http.StatusConflict},
		{"sentinel not found", ErrNotFound, http.StatusNotFound},
		{"sentinel invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"sentinel conflict", ErrConflict, http.StatusConflict},
		{"sentinel gateway", ErrGatewayUnavailable, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
