package memory

import (
	"context"
	"sort"
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

type userRepo struct{ s *Store }

func cloneUser(u repository.User) *repository.User {
	c := u
	c.TenantID = ptr(u.TenantID)
	c.PasswordHash = ptr(u.PasswordHash)
	c.BirthDate = ptr(u.BirthDate)
	c.Gender = ptr(u.Gender)
	c.ProfilePicture = ptr(u.ProfilePicture)
	c.Bio = ptr(u.Bio)
	c.Website = ptr(u.Website)
	c.RefreshToken = ptr(u.RefreshToken)
	c.RefreshTokenExpiresAt = ptr(u.RefreshTokenExpiresAt)
	c.EmailVerificationCode = ptr(u.EmailVerificationCode)
	c.EmailVerificationCodeExpiresAt = ptr(u.EmailVerificationCodeExpiresAt)
	c.PasswordResetToken = ptr(u.PasswordResetToken)
	c.PasswordResetTokenExpiresAt = ptr(u.PasswordResetTokenExpiresAt)
	c.LockedUntil = ptr(u.LockedUntil)
	c.LastLoginAt = ptr(u.LastLoginAt)
	return &c
}

// conflicts reporta si otro usuario del mismo scope ya usa el email o username.
// Caller debe tener el lock.
func (r *userRepo) conflicts(u *repository.User) bool {
	for id, other := range r.s.users {
		if id == u.ID || !sameTenant(other.TenantID, u.TenantID) {
			continue
		}
		if eqFold(other.Email, u.Email) || eqFold(other.Username, u.Username) {
			return true
		}
	}
	return false
}

func (r *userRepo) Create(ctx context.Context, u *repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u.ID == "" {
		return repository.ErrInvalidInput
	}
	if _, exists := r.s.users[u.ID]; exists || r.conflicts(u) {
		return repository.ErrConflict
	}
	if u.TenantID != nil {
		if _, ok := r.s.tenants[*u.TenantID]; !ok {
			return repository.ErrInvalidInput
		}
	}
	r.s.users[u.ID] = *cloneUser(*u)
	return nil
}

func (r *userRepo) Update(ctx context.Context, u *repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.conflicts(u) {
		return repository.ErrConflict
	}
	next := cloneUser(*u)
	next.TenantID = cur.TenantID
	next.CreatedAt = cur.CreatedAt
	next.RefreshToken = cur.RefreshToken
	next.RefreshTokenExpiresAt = cur.RefreshTokenExpiresAt
	r.s.users[u.ID] = *next
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) find(scope repository.Scope, match func(*repository.User) bool) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if inScope(&u, scope) && match(&u) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByEmail(ctx context.Context, scope repository.Scope, email string) (*repository.User, error) {
	return r.find(scope, func(u *repository.User) bool { return eqFold(u.Email, email) })
}

func (r *userRepo) GetByUsername(ctx context.Context, scope repository.Scope, username string) (*repository.User, error) {
	return r.find(scope, func(u *repository.User) bool { return eqFold(u.Username, username) })
}

func (r *userRepo) GetByPasswordResetToken(ctx context.Context, token string) (*repository.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ExistsByEmail(ctx context.Context, scope repository.Scope, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, scope, email)
	return err == nil, nil
}

func (r *userRepo) ExistsByUsername(ctx context.Context, scope repository.Scope, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, scope, username)
	return err == nil, nil
}

func (r *userRepo) list(match func(*repository.User) bool) []repository.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]repository.User, 0)
	for _, u := range r.s.users {
		if match(&u) {
			out = append(out, *cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *userRepo) ListByTenant(ctx context.Context, tenantID string) ([]repository.User, error) {
	return r.list(func(u *repository.User) bool { return u.BelongsTo(tenantID) }), nil
}

func (r *userRepo) ListByTenantRole(ctx context.Context, tenantID string, role types.TenantRole) ([]repository.User, error) {
	return r.list(func(u *repository.User) bool { return u.BelongsTo(tenantID) && u.TenantRole == role }), nil
}

func (r *userRepo) CountByTenant(ctx context.Context, tenantID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, u := range r.s.users {
		if u.BelongsTo(tenantID) {
			n++
		}
	}
	return n, nil
}

func (r *userRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *userRepo) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, u := range r.s.users {
		if u.BelongsTo(tenantID) {
			delete(r.s.users, id)
			n++
		}
	}
	return n, nil
}

func (r *userRepo) SwapRefreshToken(ctx context.Context, userID, expected, next string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.RefreshToken == nil || *u.RefreshToken != expected {
		return repository.ErrPreconditionFailed
	}
	exp := expiresAt
	u.RefreshToken = &next
	u.RefreshTokenExpiresAt = &exp
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return nil
}

func (r *userRepo) SetRefreshToken(ctx context.Context, userID string, token *string, expiresAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshToken = ptr(token)
	u.RefreshTokenExpiresAt = ptr(expiresAt)
	u.UpdatedAt = time.Now().UTC()
	r.s.users[userID] = u
	return nil
}
