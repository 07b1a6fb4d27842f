package sqlite

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

type userRepo struct{ db *gorm.DB }

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	row := toUserRow(u)
	return mapErr(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *userRepo) Update(ctx context.Context, u *repository.User) error {
	row := toUserRow(u)
	res := r.db.WithContext(ctx).Model(&row).Select("*").Omit("id", "tenant_id", "created_at", "refresh_token", "refresh_token_expires_at").Updates(&row)
	return affectedOne(res)
}

func (r *userRepo) first(q *gorm.DB) (*repository.User, error) {
	var row userRow
	if err := q.First(&row).Error; err != nil {
		return nil, mapErr(err)
	}
	return row.toDomain(), nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// scoped aplica el camino tenant o plataforma según el scope.
func (r *userRepo) scoped(ctx context.Context, scope repository.Scope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&userRow{})
	if tid, ok := scope.TenantID(); ok {
		return q.Where("tenant_id = ?", tid)
	}
	return q.Where("tenant_id IS NULL")
}

func (r *userRepo) GetByEmail(ctx context.Context, scope repository.Scope, email string) (*repository.User, error) {
	return r.first(r.scoped(ctx, scope).Where("lower(email) = lower(?)", email))
}

func (r *userRepo) GetByUsername(ctx context.Context, scope repository.Scope, username string) (*repository.User, error) {
	return r.first(r.scoped(ctx, scope).Where("lower(username) = lower(?)", username))
}

func (r *userRepo) GetByPasswordResetToken(ctx context.Context, token string) (*repository.User, error) {
	return r.first(r.db.WithContext(ctx).Where("password_reset_token = ?", token))
}

func (r *userRepo) count(q *gorm.DB) (int, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, mapErr(err)
	}
	return int(n), nil
}

func (r *userRepo) ExistsByEmail(ctx context.Context, scope repository.Scope, email string) (bool, error) {
	n, err := r.count(r.scoped(ctx, scope).Where("lower(email) = lower(?)", email))
	return n > 0, err
}

func (r *userRepo) ExistsByUsername(ctx context.Context, scope repository.Scope, username string) (bool, error) {
	n, err := r.count(r.scoped(ctx, scope).Where("lower(username) = lower(?)", username))
	return n > 0, err
}

func (r *userRepo) list(q *gorm.DB) ([]repository.User, error) {
	var rows []userRow
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, mapErr(err)
	}
	out := make([]repository.User, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toDomain())
	}
	return out, nil
}

func (r *userRepo) ListByTenant(ctx context.Context, tenantID string) ([]repository.User, error) {
	return r.list(r.db.WithContext(ctx).Where("tenant_id = ?", tenantID))
}

func (r *userRepo) ListByTenantRole(ctx context.Context, tenantID string, role types.TenantRole) ([]repository.User, error) {
	return r.list(r.db.WithContext(ctx).Where("tenant_id = ? AND tenant_role = ?", tenantID, string(role)))
}

func (r *userRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	return r.count(r.db.WithContext(ctx).Model(&userRow{}).Where("tenant_id = ?", tenantID))
}

func (r *userRepo) DeleteByID(ctx context.Context, id string) error {
	return affectedOne(r.db.WithContext(ctx).Where("id = ?", id).Delete(&userRow{}))
}

func (r *userRepo) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	res := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&userRow{})
	return int(res.RowsAffected), mapErr(res.Error)
}

func (r *userRepo) SwapRefreshToken(ctx context.Context, userID, expected, next string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ? AND refresh_token = ?", userID, expected).
		Updates(map[string]any{
			"refresh_token":            next,
			"refresh_token_expires_at": expiresAt,
			"updated_at":               time.Now().UTC(),
		})
	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}
	n, err := r.count(r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", userID))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrPreconditionFailed
}

func (r *userRepo) SetRefreshToken(ctx context.Context, userID string, token *string, expiresAt *time.Time) error {
	res := r.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"refresh_token":            token,
			"refresh_token_expires_at": expiresAt,
			"updated_at":               time.Now().UTC(),
		})
	return affectedOne(res)
}
