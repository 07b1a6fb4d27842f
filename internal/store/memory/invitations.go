package memory

import (
	"context"
	"sort"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

type invitationRepo struct{ s *Store }

func cloneInvitation(i repository.Invitation) *repository.Invitation {
	c := i
	c.AcceptedAt = ptr(i.AcceptedAt)
	c.CancelledAt = ptr(i.CancelledAt)
	return &c
}

func (r *invitationRepo) conflicts(inv *repository.Invitation) bool {
	for id, other := range r.s.invitations {
		if id == inv.ID {
			continue
		}
		if other.Token == inv.Token {
			return true
		}
		if inv.Status == types.InvitationPending && other.Status == types.InvitationPending &&
			other.TenantID == inv.TenantID && eqFold(other.Email, inv.Email) {
			return true
		}
	}
	return false
}

func (r *invitationRepo) Create(ctx context.Context, inv *repository.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv.ID == "" {
		return repository.ErrInvalidInput
	}
	if _, ok := r.s.tenants[inv.TenantID]; !ok {
		return repository.ErrInvalidInput
	}
	if _, exists := r.s.invitations[inv.ID]; exists || r.conflicts(inv) {
		return repository.ErrConflict
	}
	r.s.invitations[inv.ID] = *cloneInvitation(*inv)
	return nil
}

func (r *invitationRepo) Update(ctx context.Context, inv *repository.Invitation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.invitations[inv.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.conflicts(inv) {
		return repository.ErrConflict
	}
	r.s.invitations[inv.ID] = *cloneInvitation(*inv)
	return nil
}

func (r *invitationRepo) GetByID(ctx context.Context, id string) (*repository.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invitations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneInvitation(inv), nil
}

func (r *invitationRepo) GetByToken(ctx context.Context, token string) (*repository.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, inv := range r.s.invitations {
		if inv.Token == token {
			return cloneInvitation(inv), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *invitationRepo) ExistsPending(ctx context.Context, tenantID, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, inv := range r.s.invitations {
		if inv.TenantID == tenantID && inv.Status == types.InvitationPending && eqFold(inv.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *invitationRepo) ListByTenant(ctx context.Context, tenantID string) ([]repository.Invitation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]repository.Invitation, 0)
	for _, inv := range r.s.invitations {
		if inv.TenantID == tenantID {
			out = append(out, *cloneInvitation(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *invitationRepo) DeleteByTenant(ctx context.Context, tenantID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for id, inv := range r.s.invitations {
		if inv.TenantID == tenantID {
			delete(r.s.invitations, id)
			n++
		}
	}
	return n, nil
}
