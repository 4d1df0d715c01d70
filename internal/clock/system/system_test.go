package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Session and opportunity timestamps are compared across processes, so the
// clock must always report UTC.
func TestNowIsUTC(t *testing.T) {
	t.Parallel()

	clk := New()

	before := time.Now().UTC().Add(-time.Second)
	got := clk.Now()
	after := time.Now().UTC().Add(time.Second)

	require.Equal(t, time.UTC, got.Location())
	require.True(t, got.After(before) && got.Before(after),
		"expected %v between %v and %v", got, before, after)
}

func TestNowNonDecreasing(t *testing.T) {
	t.Parallel()

	clk := New()
	first := clk.Now()
	second := clk.Now()
	require.False(t, second.Before(first))
}
