package store

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"
)

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

// MigrationExecutor abstrae el driver (pgx vs gorm).
// ApplyMigration debe ejecutar el SQL y registrar la versión de forma atómica.
type MigrationExecutor interface {
	EnsureMigrationsTable(ctx context.Context) error
	AppliedVersions(ctx context.Context) (map[int]bool, error)
	ApplyMigration(ctx context.Context, m Migration) error
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migrator aplica migraciones SQL leídas de un FS (normalmente embebido).
type Migrator struct {
	fsys fs.FS
	dir  string
}

func NewMigrator(fsys fs.FS, dir string) *Migrator {
	return &Migrator{fsys: fsys, dir: dir}
}

// ParseMigrations lee las migraciones ordenadas por versión.
// Archivos que no siguen el patrón se ignoran; versiones duplicadas son error.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %q: %w", m.dir, err)
	}

	seen := make(map[int]string, len(entries))
	var out []Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		matches := migrationFilePattern.FindStringSubmatch(e.Name())
		if matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("parse version of %s: %w", e.Name(), err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d in %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(m.fsys, path.Join(m.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		out = append(out, Migration{Version: version, Name: matches[2], SQL: string(content)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Run aplica las migraciones pendientes en orden.
func (m *Migrator) Run(ctx context.Context, exec MigrationExecutor) (*MigrationResult, error) {
	start := time.Now()
	result := &MigrationResult{}

	if err := exec.EnsureMigrationsTable(ctx); err != nil {
		return result, fmt.Errorf("creating migrations table: %w", err)
	}
	applied, err := exec.AppliedVersions(ctx)
	if err != nil {
		return result, fmt.Errorf("getting applied migrations: %w", err)
	}
	migrations, err := m.ParseMigrations()
	if err != nil {
		return result, fmt.Errorf("parsing migrations: %w", err)
	}

	for _, mig := range migrations {
		if applied[mig.Version] {
			result.Skipped = append(result.Skipped, mig.Version)
			continue
		}
		if err := exec.ApplyMigration(ctx, mig); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("applying migration %04d_%s: %w", mig.Version, mig.Name, err)
		}
		result.Applied = append(result.Applied, mig.Version)
	}

	result.Duration = time.Since(start)
	return result, nil
}
