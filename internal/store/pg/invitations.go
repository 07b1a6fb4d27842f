package pg

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

type invitationRepo struct{ pool *pgxpool.Pool }

const invitationColumns = `id, tenant_id, email, role, token, invited_by, expires_at, status,
	emails_sent, created_at, accepted_at, cancelled_at`

func scanInvitation(row pgx.Row) (*repository.Invitation, error) {
	var i repository.Invitation
	err := row.Scan(&i.ID, &i.TenantID, &i.Email, &i.Role, &i.Token, &i.InvitedBy, &i.ExpiresAt, &i.Status,
		&i.EmailsSent, &i.CreatedAt, &i.AcceptedAt, &i.CancelledAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &i, nil
}

func (r *invitationRepo) Create(ctx context.Context, inv *repository.Invitation) error {
	const query = `INSERT INTO tenant_invitations (` + invitationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.pool.Exec(ctx, query,
		inv.ID, inv.TenantID, inv.Email, inv.Role, inv.Token, inv.InvitedBy, inv.ExpiresAt, inv.Status,
		inv.EmailsSent, inv.CreatedAt, inv.AcceptedAt, inv.CancelledAt)
	return mapErr(err)
}

func (r *invitationRepo) Update(ctx context.Context, inv *repository.Invitation) error {
	const query = `UPDATE tenant_invitations SET role = $2, expires_at = $3, status = $4,
		emails_sent = $5, accepted_at = $6, cancelled_at = $7
		WHERE id = $1`
	return execOne(r.pool.Exec(ctx, query,
		inv.ID, inv.Role, inv.ExpiresAt, inv.Status, inv.EmailsSent, inv.AcceptedAt, inv.CancelledAt))
}

func (r *invitationRepo) GetByID(ctx context.Context, id string) (*repository.Invitation, error) {
	return scanInvitation(r.pool.QueryRow(ctx, `SELECT `+invitationColumns+` FROM tenant_invitations WHERE id = $1`, id))
}

func (r *invitationRepo) GetByToken(ctx context.Context, token string) (*repository.Invitation, error) {
	return scanInvitation(r.pool.QueryRow(ctx, `SELECT `+invitationColumns+` FROM tenant_invitations WHERE token = $1`, token))
}

func (r *invitationRepo) ExistsPending(ctx context.Context, tenantID, email string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM tenant_invitations WHERE tenant_id = $1 AND lower(email) = lower($2) AND status = $3
	)`, tenantID, email, types.InvitationPending).Scan(&ok)
	return ok, mapErr(err)
}

func (r *invitationRepo) ListByTenant(ctx context.Context, tenantID string) ([]repository.Invitation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+invitationColumns+` FROM tenant_invitations WHERE tenant_id = $1 ORDER BY created_at DESC, id DESC`, tenantID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]repository.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inv)
	}
	return out, mapErr(rows.Err())
}

func (r *invitationRepo) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tenant_invitations WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}
