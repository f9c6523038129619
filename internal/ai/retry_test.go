package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 2, 50*time.Millisecond)

	require.Equal(t, CircuitClosed, cb.GetState())
	require.NoError(t, cb.Allow())

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.GetState(), "below threshold should stay closed")

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.GetState())

	// After the open timeout the next Allow transitions to half-open.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.GetState())

	// Two successes close the circuit.
	cb.RecordSuccess()
	assert.Equal(t, CircuitHalfOpen, cb.GetState())
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.GetState())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, cb.Allow())
	require.Equal(t, CircuitHalfOpen, cb.GetState())

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.GetState())
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(2, 1, time.Second)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	assert.Equal(t, CircuitClosed, cb.GetState(), "success between failures should reset the count")
}

func TestIsRetriableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retriable bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limit", errString("429 Too Many Requests"), true},
		{"server error", errString("500 internal server error"), true},
		{"bad gateway", errString("502 bad gateway"), true},
		{"connection reset", errString("read tcp: connection reset by peer"), true},
		{"auth failure", errString("401 unauthorized"), false},
		{"bad request", errString("400 invalid request body"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retriable, isRetriableError(tt.err))
		})
	}
}

type errString string

func (e errString) Error() string { return string(e) }
