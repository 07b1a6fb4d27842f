// Package store provee el registry de adaptadores de almacenamiento y el
// migrador SQL compartido.
//
// Cada adapter se registra en init(); importar internal/store/drivers habilita
// todos:
//
//	import _ "github.com/kobecorporation/kbsaas/internal/store/drivers"
//	st, err := store.Open(ctx, store.Config{Driver: "postgres", DSN: dsn})
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
)

// Config configuración para abrir un almacenamiento.
type Config struct {
	// Driver: "postgres", "sqlite", "memory".
	Driver string
	// DSN connection string (postgres) o path del archivo (sqlite).
	DSN string

	// Pool settings (postgres).
	MaxConns int32
	MinConns int32

	// AutoMigrate aplica las migraciones embebidas al abrir.
	AutoMigrate bool
}

// Adapter abre conexiones de un driver concreto.
type Adapter interface {
	Name() string
	Open(ctx context.Context, cfg Config) (repository.Store, error)
}

// Migratable lo implementan los stores con esquema SQL.
type Migratable interface {
	Migrate(ctx context.Context) (*MigrationResult, error)
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open abre el store del driver configurado y, si AutoMigrate, aplica migraciones.
func Open(ctx context.Context, cfg Config) (repository.Store, error) {
	a, ok := GetAdapter(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("store: adapter %q not registered (disponibles: %v)", cfg.Driver, ListAdapters())
	}
	st, err := a.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if _, err := Migrate(ctx, st); err != nil {
			_ = st.Close()
			return nil, err
		}
	}
	return st, nil
}

// Migrate aplica migraciones si el store las soporta. Para stores sin esquema
// retorna un resultado vacío.
func Migrate(ctx context.Context, st repository.Store) (*MigrationResult, error) {
	m, ok := st.(Migratable)
	if !ok {
		return &MigrationResult{}, nil
	}
	res, err := m.Migrate(ctx)
	if err != nil {
		return res, fmt.Errorf("store: migrate %s: %w", st.Driver(), err)
	}
	return res, nil
}
