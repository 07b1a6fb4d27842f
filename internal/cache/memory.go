package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory implementa Client con go-cache.
type Memory struct {
	prefix string
	c      *gocache.Cache
}

// NewMemory crea un cache en memoria. defaultTTL 0 = sin expiración por defecto.
func NewMemory(prefix string, defaultTTL, cleanup time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Memory{prefix: prefix, c: gocache.New(defaultTTL, cleanup)}
}

// ttl 0 en Client significa "sin expiración"; go-cache usa -1 para eso.
func memTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.c.Get(prefixed(m.prefix, key))
	if !ok {
		return "", ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.c.Set(prefixed(m.prefix, key), value, memTTL(ttl))
	return nil
}

func (m *Memory) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return m.c.Add(prefixed(m.prefix, key), value, memTTL(ttl)) == nil, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.c.Delete(prefixed(m.prefix, key))
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error {
	m.c.Flush()
	return nil
}

// Len cuenta las entradas (incluye expiradas aún no limpiadas).
func (m *Memory) Len() int { return m.c.ItemCount() }
