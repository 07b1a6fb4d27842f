package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

type userRepo struct{ pool *pgxpool.Pool }

const userColumns = `id, tenant_id, tenant_role, role, username, email, password_hash,
	first_name, last_name, birth_date, gender, profile_picture, bio, website,
	is_active, is_email_verified, refresh_token, refresh_token_expires_at,
	email_verification_code, email_verification_code_expires_at,
	password_reset_token, password_reset_token_expires_at,
	failed_login_attempts, locked_until, created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*repository.User, error) {
	var u repository.User
	err := row.Scan(
		&u.ID, &u.TenantID, &u.TenantRole, &u.Role, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.BirthDate, &u.Gender, &u.ProfilePicture, &u.Bio, &u.Website,
		&u.IsActive, &u.IsEmailVerified, &u.RefreshToken, &u.RefreshTokenExpiresAt,
		&u.EmailVerificationCode, &u.EmailVerificationCodeExpiresAt,
		&u.PasswordResetToken, &u.PasswordResetTokenExpiresAt,
		&u.FailedLoginAttempts, &u.LockedUntil, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	const query = `INSERT INTO users (` + userColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)`
	_, err := r.pool.Exec(ctx, query,
		u.ID, u.TenantID, u.TenantRole, u.Role, u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.BirthDate, u.Gender, u.ProfilePicture, u.Bio, u.Website,
		u.IsActive, u.IsEmailVerified, u.RefreshToken, u.RefreshTokenExpiresAt,
		u.EmailVerificationCode, u.EmailVerificationCodeExpiresAt,
		u.PasswordResetToken, u.PasswordResetTokenExpiresAt,
		u.FailedLoginAttempts, u.LockedUntil, u.CreatedAt, u.UpdatedAt, u.LastLoginAt,
	)
	return mapErr(err)
}

func (r *userRepo) Update(ctx context.Context, u *repository.User) error {
	const query = `UPDATE users SET
		tenant_role = $2, role = $3, username = $4, email = $5, password_hash = $6,
		first_name = $7, last_name = $8, birth_date = $9, gender = $10, profile_picture = $11,
		bio = $12, website = $13, is_active = $14, is_email_verified = $15,
		email_verification_code = $16, email_verification_code_expires_at = $17,
		password_reset_token = $18, password_reset_token_expires_at = $19,
		failed_login_attempts = $20, locked_until = $21, updated_at = $22, last_login_at = $23
		WHERE id = $1`
	return execOne(r.pool.Exec(ctx, query,
		u.ID, u.TenantRole, u.Role, u.Username, u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.BirthDate, u.Gender, u.ProfilePicture,
		u.Bio, u.Website, u.IsActive, u.IsEmailVerified,
		u.EmailVerificationCode, u.EmailVerificationCodeExpiresAt,
		u.PasswordResetToken, u.PasswordResetTokenExpiresAt,
		u.FailedLoginAttempts, u.LockedUntil, u.UpdatedAt, u.LastLoginAt,
	))
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// scoped elige el camino de consulta según el scope: tenant o plataforma.
func (r *userRepo) scoped(ctx context.Context, scope repository.Scope, column, value string) (*repository.User, error) {
	if tid, ok := scope.TenantID(); ok {
		return scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND lower(`+column+`) = lower($2)`, tid, value))
	}
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE tenant_id IS NULL AND lower(`+column+`) = lower($1)`, value))
}

func (r *userRepo) GetByEmail(ctx context.Context, scope repository.Scope, email string) (*repository.User, error) {
	return r.scoped(ctx, scope, "email", email)
}

func (r *userRepo) GetByUsername(ctx context.Context, scope repository.Scope, username string) (*repository.User, error) {
	return r.scoped(ctx, scope, "username", username)
}

func (r *userRepo) GetByPasswordResetToken(ctx context.Context, token string) (*repository.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE password_reset_token = $1`, token))
}

func (r *userRepo) exists(ctx context.Context, scope repository.Scope, column, value string) (bool, error) {
	var found bool
	var err error
	if tid, ok := scope.TenantID(); ok {
		err = r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE tenant_id = $1 AND lower(`+column+`) = lower($2))`, tid, value).Scan(&found)
	} else {
		err = r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE tenant_id IS NULL AND lower(`+column+`) = lower($1))`, value).Scan(&found)
	}
	return found, mapErr(err)
}

func (r *userRepo) ExistsByEmail(ctx context.Context, scope repository.Scope, email string) (bool, error) {
	return r.exists(ctx, scope, "email", email)
}

func (r *userRepo) ExistsByUsername(ctx context.Context, scope repository.Scope, username string) (bool, error) {
	return r.exists(ctx, scope, "username", username)
}

func (r *userRepo) list(ctx context.Context, query string, args ...any) ([]repository.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]repository.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, mapErr(rows.Err())
}

func (r *userRepo) ListByTenant(ctx context.Context, tenantID string) ([]repository.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY created_at, id`, tenantID)
}

func (r *userRepo) ListByTenantRole(ctx context.Context, tenantID string, role types.TenantRole) ([]repository.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND tenant_role = $2 ORDER BY created_at, id`, tenantID, role)
}

func (r *userRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE tenant_id = $1`, tenantID).Scan(&n)
	return n, mapErr(err)
}

func (r *userRepo) DeleteByID(ctx context.Context, id string) error {
	return execOne(r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
}

func (r *userRepo) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *userRepo) SwapRefreshToken(ctx context.Context, userID, expected, next string, expiresAt time.Time) error {
	const query = `UPDATE users SET refresh_token = $3, refresh_token_expires_at = $4, updated_at = NOW()
		WHERE id = $1 AND refresh_token = $2`
	tag, err := r.pool.Exec(ctx, query, userID, expected, next, expiresAt)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	// Distinguir "no existe" de "otro request ganó la rotación".
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return mapErr(err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrPreconditionFailed
}

func (r *userRepo) SetRefreshToken(ctx context.Context, userID string, token *string, expiresAt *time.Time) error {
	const query = `UPDATE users SET refresh_token = $2, refresh_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1`
	return execOne(r.pool.Exec(ctx, query, userID, token, expiresAt))
}
