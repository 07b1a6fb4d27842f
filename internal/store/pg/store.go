// Package pg implementa el adapter PostgreSQL con pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/store"
	"github.com/kobecorporation/kbsaas/migrations"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Open(ctx context.Context, cfg store.Config) (repository.Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	poolCfg.MaxConns = 10
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = 2
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Store es un repository.Store respaldado por un pool de PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New envuelve un pool existente (tests de integración, herramientas).
func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

func (s *Store) Users() repository.UserRepository { return &userRepo{pool: s.pool} }
func (s *Store) Tenants() repository.TenantRepository { return &tenantRepo{pool: s.pool} }
func (s *Store) Invitations() repository.InvitationRepository { return &invitationRepo{pool: s.pool} }

func (s *Store) Driver() string { return "postgres" }
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// PoolStat expone las estadísticas del pool para el collector de métricas.
func (s *Store) PoolStat() *pgxpool.Stat { return s.pool.Stat() }

// Migrate aplica las migraciones embebidas de migrations/postgres.
func (s *Store) Migrate(ctx context.Context) (*store.MigrationResult, error) {
	return store.NewMigrator(migrations.Postgres, migrations.PostgresDir).Run(ctx, &migrationExecutor{pool: s.pool})
}

type migrationExecutor struct{ pool *pgxpool.Pool }

func (e *migrationExecutor) EnsureMigrationsTable(ctx context.Context) error {
	_, err := e.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version INT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	return err
}

func (e *migrationExecutor) AppliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := e.pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (e *migrationExecutor) ApplyMigration(ctx context.Context, m store.Migration) error {
	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO _migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// mapErr traduce errores de pgx a los sentinels del repositorio.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", repository.ErrConflict, pgErr.ConstraintName)
		case "23503", "23514", "22P02": // foreign_key, check, invalid_text_representation
			return fmt.Errorf("%w: %s", repository.ErrInvalidInput, pgErr.Message)
		}
	}
	return err
}

// execOne exige exactamente una fila afectada.
func execOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
