package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("kb", 0, 0)

	_, err := c.Get(ctx, "missing")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", 0, 0)
	require.NoError(t, c.Set(ctx, "k", "v", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySetNX(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("", 0, 0)

	ok, err := c.SetNX(ctx, "gate", "1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "gate", "2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	v, _ := c.Get(ctx, "gate")
	assert.Equal(t, "1", v)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "memcached"}, nil)
	require.Error(t, err)

	_, err = New(Config{Driver: "redis"}, nil)
	require.Error(t, err)

	c, err := New(Config{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, c)
}
