package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
)

type tenantRepo struct{ pool *pgxpool.Pool }

const tenantColumns = `id, name, slug, custom_domain, plan, status, settings, owner_id,
	trial_ends_at, created_at, updated_at, last_activity_at`

func scanTenant(row pgx.Row) (*repository.Tenant, error) {
	var t repository.Tenant
	var settings []byte
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.CustomDomain, &t.Plan, &t.Status, &settings, &t.OwnerID,
		&t.TrialEndsAt, &t.CreatedAt, &t.UpdatedAt, &t.LastActivityAt)
	if err != nil {
		return nil, mapErr(err)
	}
	t.Settings = repository.DefaultTenantSettings()
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.Settings); err != nil {
			return nil, fmt.Errorf("pg: decode settings of tenant %s: %w", t.ID, err)
		}
	}
	return &t, nil
}

func encodeSettings(s repository.TenantSettings) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("pg: encode settings: %w", err)
	}
	return string(b), nil
}

func (r *tenantRepo) Create(ctx context.Context, t *repository.Tenant) error {
	settings, err := encodeSettings(t.Settings)
	if err != nil {
		return err
	}
	const query = `INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12)`
	_, err = r.pool.Exec(ctx, query,
		t.ID, t.Name, t.Slug, t.CustomDomain, t.Plan, t.Status, settings, t.OwnerID,
		t.TrialEndsAt, t.CreatedAt, t.UpdatedAt, t.LastActivityAt)
	return mapErr(err)
}

func (r *tenantRepo) Update(ctx context.Context, t *repository.Tenant) error {
	settings, err := encodeSettings(t.Settings)
	if err != nil {
		return err
	}
	const query = `UPDATE tenants SET name = $2, slug = $3, custom_domain = $4, plan = $5, status = $6,
		settings = $7::jsonb, owner_id = $8, trial_ends_at = $9, updated_at = $10, last_activity_at = $11
		WHERE id = $1`
	return execOne(r.pool.Exec(ctx, query,
		t.ID, t.Name, t.Slug, t.CustomDomain, t.Plan, t.Status, settings, t.OwnerID,
		t.TrialEndsAt, t.UpdatedAt, t.LastActivityAt))
}

func (r *tenantRepo) GetByID(ctx context.Context, id string) (*repository.Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*repository.Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug))
}

func (r *tenantRepo) GetByCustomDomain(ctx context.Context, domain string) (*repository.Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE lower(custom_domain) = lower($1)`, domain))
}

func (r *tenantRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE slug = $1)`, slug).Scan(&ok)
	return ok, mapErr(err)
}

func (r *tenantRepo) ExistsByCustomDomain(ctx context.Context, domain string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE lower(custom_domain) = lower($1))`, domain).Scan(&ok)
	return ok, mapErr(err)
}

func (r *tenantRepo) List(ctx context.Context, filter repository.TenantFilter) ([]repository.Tenant, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.NameQuery); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	query := `SELECT ` + tenantColumns + ` FROM tenants`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]repository.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, mapErr(rows.Err())
}

func (r *tenantRepo) TouchActivity(ctx context.Context, id string, at time.Time) error {
	return execOne(r.pool.Exec(ctx, `UPDATE tenants SET last_activity_at = $2 WHERE id = $1`, id, at))
}

func (r *tenantRepo) Delete(ctx context.Context, id string) error {
	return execOne(r.pool.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id))
}
