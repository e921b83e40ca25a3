package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker(threshold int, reset time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: threshold,
		ResetTimeout:     reset,
	})
}

func tripBreaker(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error {
			return errors.New("upstream down")
		})
	}
}

func TestBreakerPassesThroughWhenClosed(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	calls := 0
	err := cb.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := testBreaker(3, time.Hour)

	tripBreaker(cb, 2)
	assert.Equal(t, CircuitClosed, cb.State())

	tripBreaker(cb, 1)
	assert.Equal(t, CircuitOpen, cb.State())

	calls := 0
	err := cb.Execute(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 0, calls)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := testBreaker(3, time.Hour)

	tripBreaker(cb, 2)
	_ = cb.Execute(context.Background(), func(context.Context) error { return nil })
	tripBreaker(cb, 2)

	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerProbesAfterResetTimeout(t *testing.T) {
	cb := testBreaker(1, time.Minute)
	clock := time.Now()
	cb.now = func() time.Time { return clock }

	tripBreaker(cb, 1)
	assert.Equal(t, CircuitOpen, cb.State())

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	// Successful probe closes the circuit.
	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	cb := testBreaker(1, time.Minute)
	clock := time.Now()
	cb.now = func() time.Time { return clock }

	tripBreaker(cb, 1)
	clock = clock.Add(2 * time.Minute)

	tripBreaker(cb, 1)
	assert.Equal(t, CircuitOpen, cb.State())

	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerShouldTripFilter(t *testing.T) {
	benign := errors.New("no results found")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
		ShouldTrip:       func(err error) bool { return !errors.Is(err, benign) },
	})

	_ = cb.Execute(context.Background(), func(context.Context) error { return benign })
	assert.Equal(t, CircuitClosed, cb.State())

	tripBreaker(cb, 1)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestBreakerReportsStateChanges(t *testing.T) {
	type change struct{ from, to CircuitState }
	var changes []change
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
		OnStateChange: func(from, to CircuitState) {
			changes = append(changes, change{from, to})
		},
	})

	tripBreaker(cb, 1)
	cb.Reset()

	assert.Equal(t, []change{
		{CircuitClosed, CircuitOpen},
		{CircuitOpen, CircuitClosed},
	}, changes)
}

func TestExecuteValReturnsValue(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	got, err := ExecuteVal(context.Background(), cb, func(context.Context) (string, error) {
		return "answer text", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "answer text", got)
}

func TestExecuteValZeroValueWhenOpen(t *testing.T) {
	cb := testBreaker(1, time.Hour)
	tripBreaker(cb, 1)

	got, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 42, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, got)
}

func TestServiceBreakersReusePerName(t *testing.T) {
	sb := NewServiceBreakers(DefaultCircuitBreakerConfig())

	assert.Same(t, sb.Get("claude"), sb.Get("claude"))
	assert.NotSame(t, sb.Get("claude"), sb.Get("crm"))
}

func TestServiceBreakersStatesSnapshot(t *testing.T) {
	sb := NewServiceBreakers(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
	})

	tripBreaker(sb.Get("claude"), 1)
	_ = sb.Get("crm")

	states := sb.States()
	assert.Equal(t, CircuitOpen, states["claude"])
	assert.Equal(t, CircuitClosed, states["crm"])
}

func TestCircuitStateString(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(99).String())
}
