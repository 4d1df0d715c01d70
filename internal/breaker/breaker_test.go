package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/rfp-radar/internal/rfp"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func failing(err error) Fetch {
	return func(context.Context) ([]rfp.Opportunity, error) {
		return nil, err
	}
}

func succeeding(opps []rfp.Opportunity) Fetch {
	return func(context.Context) ([]rfp.Opportunity, error) {
		return opps, nil
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := New(3, time.Minute, clock)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := b.Do(context.Background(), failing(boom))
		require.ErrorIs(t, err, boom)
	}
	require.Equal(t, Open, b.State())

	// Fourth call inside the recovery window is rejected without invoking fn.
	invoked := false
	_, err := b.Do(context.Background(), func(context.Context) ([]rfp.Opportunity, error) {
		invoked = true
		return nil, nil
	})
	require.ErrorIs(t, err, rfp.ErrCircuitOpen)
	require.False(t, invoked)
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := New(3, time.Minute, clock)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, _ = b.Do(context.Background(), failing(boom))
	}
	require.Equal(t, Open, b.State())

	clock.advance(61 * time.Second)

	want := []rfp.Opportunity{{Title: "Payment modernization"}}
	got, err := b.Do(context.Background(), succeeding(want))
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, Closed, b.State())

	// A single failure after recovery does not reopen the circuit.
	_, err = b.Do(context.Background(), failing(boom))
	require.ErrorIs(t, err, boom)
	require.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := New(2, time.Minute, clock)
	boom := errors.New("boom")

	_, _ = b.Do(context.Background(), failing(boom))
	_, _ = b.Do(context.Background(), failing(boom))
	require.Equal(t, Open, b.State())

	clock.advance(time.Minute)

	// Trial call fails: straight back to OPEN with a fresh recovery window.
	_, err := b.Do(context.Background(), failing(boom))
	require.ErrorIs(t, err, boom)
	require.Equal(t, Open, b.State())

	clock.advance(30 * time.Second)
	_, err = b.Do(context.Background(), succeeding(nil))
	require.ErrorIs(t, err, rfp.ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1000, 0)}
	b := New(2, time.Minute, clock)
	boom := errors.New("boom")

	_, _ = b.Do(context.Background(), failing(boom))
	_, err := b.Do(context.Background(), succeeding(nil))
	require.NoError(t, err)

	// Count was reset, so one more failure is not enough to open.
	_, _ = b.Do(context.Background(), failing(boom))
	require.Equal(t, Closed, b.State())
}

func TestBreakerDefaults(t *testing.T) {
	t.Parallel()

	b := New(0, 0, &fakeClock{now: time.Unix(0, 0)})
	require.Equal(t, 5, b.threshold)
	require.Equal(t, 60*time.Second, b.recovery)
}
