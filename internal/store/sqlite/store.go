// Package sqlite implementa el adapter SQLite embebido (gorm + driver puro Go).
// Pensado para despliegues de un solo nodo y desarrollo local.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/store"
	"github.com/kobecorporation/kbsaas/migrations"
)

func init() {
	store.RegisterAdapter(sqliteAdapter{})
}

type sqliteAdapter struct{}

func (sqliteAdapter) Name() string { return "sqlite" }

func (sqliteAdapter) Open(ctx context.Context, cfg store.Config) (repository.Store, error) {
	return Open(ctx, cfg.DSN)
}

// Store es un repository.Store sobre gorm.
type Store struct {
	db *gorm.DB
}

// Open abre (o crea) la base en path con foreign keys activas.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: path vacío")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create db directory: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: newGormLogger()})
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	s := &Store{db: db}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Users() repository.UserRepository { return &userRepo{db: s.db} }
func (s *Store) Tenants() repository.TenantRepository { return &tenantRepo{db: s.db} }
func (s *Store) Invitations() repository.InvitationRepository { return &invitationRepo{db: s.db} }

func (s *Store) Driver() string { return "sqlite" }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate aplica las migraciones embebidas de migrations/sqlite.
func (s *Store) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	return store.NewMigrator(migrations.SQLite, migrations.SQLiteDir).Run(ctx, &migrationExecutor{db: s.db})
}

type migrationExecutor struct{ db *gorm.DB }

func (e *migrationExecutor) EnsureMigrationsTable(ctx context.Context) error {
	return e.db.WithContext(ctx).Exec(`
CREATE TABLE IF NOT EXISTS _migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`).Error
}

type appliedVersion struct {
	Version int `gorm:"column:version"`
}

func (e *migrationExecutor) AppliedVersions(ctx context.Context) (map[int]bool, error) {
	rows := make([]appliedVersion, 0)
	if err := e.db.WithContext(ctx).Raw(`SELECT version FROM _migrations`).Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[int]bool, len(rows))
	for _, r := range rows {
		out[r.Version] = true
	}
	return out, nil
}

func (e *migrationExecutor) ApplyMigration(ctx context.Context, m store.Migration) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		statements := splitStatements(m.SQL)
		if len(statements) == 0 {
			return errors.New("migration has no SQL statements")
		}
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("statement %q: %w", stmt, err)
			}
		}
		return tx.Exec(`INSERT INTO _migrations (version, name) VALUES (?, ?)`, m.Version, m.Name).Error
	})
}

func splitStatements(sqlText string) []string {
	parts := strings.Split(sqlText, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// mapErr traduce errores de gorm/sqlite a los sentinels del repositorio.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated), strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	default:
		return err
	}
}

func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
