package sqlite

import (
	"context"

	"gorm.io/gorm"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

type invitationRepo struct{ db *gorm.DB }

func (r *invitationRepo) Create(ctx context.Context, inv *repository.Invitation) error {
	row := toInvitationRow(inv)
	return mapErr(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *invitationRepo) Update(ctx context.Context, inv *repository.Invitation) error {
	row := toInvitationRow(inv)
	res := r.db.WithContext(ctx).Model(&row).
		Select("role", "expires_at", "status", "emails_sent", "accepted_at", "cancelled_at").
		Updates(&row)
	return affectedOne(res)
}

func (r *invitationRepo) first(q *gorm.DB) (*repository.Invitation, error) {
	var row invitationRow
	if err := q.First(&row).Error; err != nil {
		return nil, mapErr(err)
	}
	return row.toDomain(), nil
}

func (r *invitationRepo) GetByID(ctx context.Context, id string) (*repository.Invitation, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *invitationRepo) GetByToken(ctx context.Context, token string) (*repository.Invitation, error) {
	return r.first(r.db.WithContext(ctx).Where("token = ?", token))
}

func (r *invitationRepo) ExistsPending(ctx context.Context, tenantID, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&invitationRow{}).
		Where("tenant_id = ? AND lower(email) = lower(?) AND status = ?", tenantID, email, string(types.InvitationPending)).
		Count(&n).Error
	return n > 0, mapErr(err)
}

func (r *invitationRepo) ListByTenant(ctx context.Context, tenantID string) ([]repository.Invitation, error) {
	var rows []invitationRow
	if err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, mapErr(err)
	}
	out := make([]repository.Invitation, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toDomain())
	}
	return out, nil
}

func (r *invitationRepo) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	res := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Delete(&invitationRow{})
	return int(res.RowsAffected), mapErr(res.Error)
}
