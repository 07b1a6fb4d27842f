package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
)

type tenantRepo struct{ s *Store }

func cloneTenant(t repository.Tenant) *repository.Tenant {
	c := t
	c.CustomDomain = ptr(t.CustomDomain)
	c.TrialEndsAt = ptr(t.TrialEndsAt)
	c.LastActivityAt = ptr(t.LastActivityAt)
	st := t.Settings
	st.Logo = ptr(st.Logo)
	st.Favicon = ptr(st.Favicon)
	st.EmailFromName = ptr(st.EmailFromName)
	st.EmailFromAddress = ptr(st.EmailFromAddress)
	st.EmailFooter = ptr(st.EmailFooter)
	st.Industry = ptr(st.Industry)
	st.CompanySize = ptr(st.CompanySize)
	st.Country = ptr(st.Country)
	st.Address = ptr(st.Address)
	st.VATNumber = ptr(st.VATNumber)
	c.Settings = st
	return &c
}

func (r *tenantRepo) conflicts(t *repository.Tenant) bool {
	for id, other := range r.s.tenants {
		if id == t.ID {
			continue
		}
		if other.Slug == t.Slug {
			return true
		}
		if t.CustomDomain != nil && other.CustomDomain != nil && eqFold(*t.CustomDomain, *other.CustomDomain) {
			return true
		}
	}
	return false
}

func (r *tenantRepo) Create(ctx context.Context, t *repository.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == "" {
		return repository.ErrInvalidInput
	}
	if _, exists := r.s.tenants[t.ID]; exists || r.conflicts(t) {
		return repository.ErrConflict
	}
	r.s.tenants[t.ID] = *cloneTenant(*t)
	return nil
}

func (r *tenantRepo) Update(ctx context.Context, t *repository.Tenant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[t.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.conflicts(t) {
		return repository.ErrConflict
	}
	r.s.tenants[t.ID] = *cloneTenant(*t)
	return nil
}

func (r *tenantRepo) GetByID(ctx context.Context, id string) (*repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTenant(t), nil
}

func (r *tenantRepo) find(match func(*repository.Tenant) bool) (*repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, t := range r.s.tenants {
		if match(&t) {
			return cloneTenant(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *tenantRepo) GetBySlug(ctx context.Context, slug string) (*repository.Tenant, error) {
	return r.find(func(t *repository.Tenant) bool { return t.Slug == slug })
}

func (r *tenantRepo) GetByCustomDomain(ctx context.Context, domain string) (*repository.Tenant, error) {
	return r.find(func(t *repository.Tenant) bool {
		return t.CustomDomain != nil && eqFold(*t.CustomDomain, domain)
	})
}

func (r *tenantRepo) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	_, err := r.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (r *tenantRepo) ExistsByCustomDomain(ctx context.Context, domain string) (bool, error) {
	_, err := r.GetByCustomDomain(ctx, domain)
	return err == nil, nil
}

func (r *tenantRepo) List(ctx context.Context, filter repository.TenantFilter) ([]repository.Tenant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(filter.NameQuery))
	out := make([]repository.Tenant, 0)
	for _, t := range r.s.tenants {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) {
			continue
		}
		out = append(out, *cloneTenant(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *tenantRepo) TouchActivity(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tenants[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.LastActivityAt = &at
	r.s.tenants[id] = t
	return nil
}

// Delete replica el ON DELETE CASCADE de los esquemas SQL.
func (r *tenantRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tenants[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.tenants, id)
	for uid, u := range r.s.users {
		if u.BelongsTo(id) {
			delete(r.s.users, uid)
		}
	}
	for iid, inv := range r.s.invitations {
		if inv.TenantID == id {
			delete(r.s.invitations, iid)
		}
	}
	return nil
}
