package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
)

type tenantRepo struct{ db *gorm.DB }

func (r *tenantRepo) Create(ctx context.Context, t *repository.Tenant) error {
	row, err := toTenantRow(t)
	if err != nil {
		return fmt.Errorf("sqlite: encode tenant: %w", err)
	}
	return mapErr(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *tenantRepo) Update(ctx context.Context, t *repository.Tenant) error {
	row, err := toTenantRow(t)
	if err != nil {
		return fmt.Errorf("sqlite: encode tenant: %w", err)
	}
	return affectedOne(r.db.WithContext(ctx).Model(&row).Select("*").Omit("id", "created_at").Updates(&row))
}

func (r *tenantRepo) first(q *gorm.DB) (*repository.Tenant, error) {
	var row tenantRow
	if err := q.First(&row).Error; err != nil {
		return nil, mapErr(err)
	}
	return row.toDomain()
}

func (r *tenantRepo) GetByID(ctx context.Context, id string) (*repository.Tenant, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*repository.Tenant, error) {
	return r.first(r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *tenantRepo) GetByCustomDomain(ctx context.Context, domain string) (*repository.Tenant, error) {
	return r.first(r.db.WithContext(ctx).Where("lower(custom_domain) = lower(?)", domain))
}

func (r *tenantRepo) exists(q *gorm.DB) (bool, error) {
	var n int64
	if err := q.Model(&tenantRow{}).Count(&n).Error; err != nil {
		return false, mapErr(err)
	}
	return n > 0, nil
}

func (r *tenantRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	return r.exists(r.db.WithContext(ctx).Where("slug = ?", slug))
}

func (r *tenantRepo) ExistsByCustomDomain(ctx context.Context, domain string) (bool, error) {
	return r.exists(r.db.WithContext(ctx).Where("lower(custom_domain) = lower(?)", domain))
}

func (r *tenantRepo) List(ctx context.Context, filter repository.TenantFilter) ([]repository.Tenant, error) {
	q := r.db.WithContext(ctx)
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if name := strings.TrimSpace(filter.NameQuery); name != "" {
		q = q.Where("lower(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	var rows []tenantRow
	if err := q.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, mapErr(err)
	}
	out := make([]repository.Tenant, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *tenantRepo) TouchActivity(ctx context.Context, id string, at time.Time) error {
	return affectedOne(r.db.WithContext(ctx).Model(&tenantRow{}).Where("id = ?", id).Update("last_activity_at", at))
}

func (r *tenantRepo) Delete(ctx context.Context, id string) error {
	return affectedOne(r.db.WithContext(ctx).Where("id = ?", id).Delete(&tenantRow{}))
}
