// Package cache provee un cliente key/value con TTL y dos backends:
//   - memory (in-process, go-cache), para un solo nodo y tests
//   - redis (distribuido), para varias réplicas
//
// Lo usa el resolver de tenants como read-through cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor. ttl 0 = sin expiración.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX guarda solo si la key no existe. Retorna true si la escribió.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrNotFound indica que la key no existe.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver string // "memory" | "redis"
	Prefix string // prefijo para todas las keys

	// DefaultTTL y CleanupInterval aplican al backend memory.
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

// New crea el cliente según cfg.Driver. rdb es obligatorio para "redis".
func New(cfg Config, rdb *redis.Client) (Client, error) {
	switch cfg.Driver {
	case "redis":
		if rdb == nil {
			return nil, errors.New("cache: driver redis sin cliente")
		}
		return NewRedis(rdb, cfg.Prefix), nil
	case "memory", "":
		return NewMemory(cfg.Prefix, cfg.DefaultTTL, cfg.CleanupInterval), nil
	default:
		return nil, fmt.Errorf("cache: driver %q no soportado", cfg.Driver)
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
