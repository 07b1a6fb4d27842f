// Package migrations embebe los archivos SQL de cada driver.
// Formato: {version}_{name}.sql (ej: 0001_init.sql).
package migrations

import "embed"

// Postgres contiene las migraciones del adapter postgres.
//
//go:embed postgres/*.sql
var Postgres embed.FS

// SQLite contiene las migraciones del adapter sqlite.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
