package breaker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finchly/parley/internal/errors"
)

func newTestBreaker(threshold int, recovery time.Duration) (*Breaker, *time.Time) {
	b := New(Config{FailureThreshold: threshold, RecoveryTimeout: recovery})
	now := time.Unix(1000, 0)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestStartsClosedAndAllows(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestOpensAtFailureThreshold(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State(), "below threshold must stay closed")

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), errors.ErrCircuitOpen)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, 0, b.ConsecutiveFailures())

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State(), "reset count must not carry over")
}

func TestHalfOpenAfterRecoveryTimeout(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	require.ErrorIs(t, b.Allow(), errors.ErrCircuitOpen)

	*now = now.Add(time.Minute)
	assert.NoError(t, b.Allow(), "first call after recovery timeout is the probe")
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestHalfOpenAdmitsExactlyOneProbe(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)
	b.RecordFailure()
	*now = now.Add(time.Minute)

	var mu sync.Mutex
	admitted := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Allow() == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, admitted, "exactly one probe may pass in half-open")
}

func TestProbeSuccessCloses(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)
	b.RecordFailure()
	*now = now.Add(time.Minute)

	require.NoError(t, b.Allow())
	b.RecordSuccess()

	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, 0, b.ConsecutiveFailures())
	assert.NoError(t, b.Allow())
}

func TestProbeFailureReopensWithFreshTimer(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)
	b.RecordFailure()
	*now = now.Add(time.Minute)

	require.NoError(t, b.Allow())
	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())

	// Timer restarted: still open until a full recovery timeout passes again.
	*now = now.Add(30 * time.Second)
	assert.ErrorIs(t, b.Allow(), errors.ErrCircuitOpen)

	*now = now.Add(30 * time.Second)
	assert.NoError(t, b.Allow())
}

func TestCancelProbeFreesTheSlot(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)
	b.RecordFailure()
	*now = now.Add(time.Minute)

	require.NoError(t, b.Allow())
	require.ErrorIs(t, b.Allow(), errors.ErrCircuitOpen, "slot must be held while claimed")

	b.CancelProbe()
	assert.Equal(t, StateHalfOpen, b.State(), "cancel records no outcome")
	assert.NoError(t, b.Allow(), "cancelled slot must be claimable again")
}

func TestCancelProbeIgnoredOutsideHalfOpen(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	b.CancelProbe()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
}

func TestOnStateChange(t *testing.T) {
	b, now := newTestBreaker(1, time.Minute)

	var mu sync.Mutex
	var transitions [][2]State
	b.OnStateChange = func(from, to State) {
		mu.Lock()
		transitions = append(transitions, [2]State{from, to})
		mu.Unlock()
	}

	b.RecordFailure()
	*now = now.Add(time.Minute)
	require.NoError(t, b.Allow())
	b.RecordSuccess()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, transitions, 3)
	assert.Equal(t, [2]State{StateClosed, StateOpen}, transitions[0])
	assert.Equal(t, [2]State{StateOpen, StateHalfOpen}, transitions[1])
	assert.Equal(t, [2]State{StateHalfOpen, StateClosed}, transitions[2])
}
