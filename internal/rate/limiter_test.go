package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter("resend:", 3, 10*time.Minute)
	now := time.Date(2025, 1, 1, 10, 1, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "tenant:a|bob@x.com")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "hit %d", i)
		assert.EqualValues(t, 3-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "tenant:a|bob@x.com")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 9*time.Minute, res.RetryAfter)

	// Otra key no comparte contador.
	res, err = l.Allow(ctx, "tenant:b|bob@x.com")
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	// Ventana siguiente.
	now = now.Add(10 * time.Minute)
	res, err = l.Allow(ctx, "tenant:a|bob@x.com")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.EqualValues(t, 1, res.CurrentHits)
}

func TestNoop(t *testing.T) {
	res, err := Noop{}.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
