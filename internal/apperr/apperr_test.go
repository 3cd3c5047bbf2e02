package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("wrapped: %w", Forbidden("nope"))

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "not_found", err: NotFound("order not found"), want: KindNotFound},
		{name: "forbidden_wrapped", err: wrapped, want: KindForbidden},
		{name: "deadline", err: context.DeadlineExceeded, want: KindTransactionTimeout},
		{name: "deadline_wrapped", err: fmt.Errorf("tx: %w", context.DeadlineExceeded), want: KindTransactionTimeout},
		{name: "unknown", err: errors.New("connection reset"), want: KindStorage},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "not_found", err: NotFound("x"), want: http.StatusNotFound},
		{name: "validation", err: Validation("x"), want: http.StatusBadRequest},
		{name: "forbidden", err: Forbidden("x"), want: http.StatusForbidden},
		{name: "transition", err: InvalidTransition("PAID", "PENDING", nil), want: http.StatusConflict},
		{name: "rate_limited", err: RateLimited(), want: http.StatusTooManyRequests},
		{name: "auth_required", err: AuthenticationRequired(), want: http.StatusUnauthorized},
		{name: "auth_invalid", err: AuthenticationInvalid(), want: http.StatusUnauthorized},
		{name: "timeout", err: context.DeadlineExceeded, want: http.StatusServiceUnavailable},
		{name: "method_not_allowed", err: MethodNotAllowed("PUT"), want: http.StatusMethodNotAllowed},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("order 1 not found"))

	assert.ErrorIs(t, err, NotFound(""))
	assert.NotErrorIs(t, err, Forbidden(""))
}

func TestInvalidTransition_Details(t *testing.T) {
	err := InvalidTransition("SHIPPED", "CANCELLED", []string{"DELIVERED"})

	require.NotNil(t, err.Details)
	assert.Equal(t, "SHIPPED", err.Details["currentStatus"])
	assert.Equal(t, "CANCELLED", err.Details["requestedStatus"])
	assert.Equal(t, []string{"DELIVERED"}, err.Details["allowedTransitions"])

	terminal := InvalidTransition("DELIVERED", "PAID", nil)
	assert.Equal(t, []string{}, terminal.Details["allowedTransitions"])
}

func TestStorage_HidesCause(t *testing.T) {
	cause := errors.New("pq: relation \"orders\" does not exist")
	err := Storage(cause)

	assert.Equal(t, "internal storage error", err.Message)
	assert.ErrorIs(t, err, cause)
}
