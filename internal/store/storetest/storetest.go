// Package storetest contiene la suite de conformidad que todo adapter de
// repository.Store debe pasar.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
)

// Factory crea un store vacío y aislado por test.
type Factory func(t *testing.T) repository.Store

// Run ejecuta la suite completa contra el adapter.
func Run(t *testing.T, newStore Factory) {
	t.Run("Tenants", func(t *testing.T) { testTenants(t, newStore(t)) })
	t.Run("TenantList", func(t *testing.T) { testTenantList(t, newStore(t)) })
	t.Run("UsersScoped", func(t *testing.T) { testUsersScoped(t, newStore(t)) })
	t.Run("UsersPlatform", func(t *testing.T) { testUsersPlatform(t, newStore(t)) })
	t.Run("RefreshSwap", func(t *testing.T) { testRefreshSwap(t, newStore(t)) })
	t.Run("Invitations", func(t *testing.T) { testInvitations(t, newStore(t)) })
	t.Run("DeleteCascade", func(t *testing.T) { testDeleteCascade(t, newStore(t)) })
}

func ts() time.Time { return time.Now().UTC().Truncate(time.Second) }

func strp(s string) *string { return &s }

// NewTenant arma un tenant válido con el slug dado.
func NewTenant(slug string) *repository.Tenant {
	now := ts()
	trial := now.Add(14 * 24 * time.Hour)
	return &repository.Tenant{
		ID:          uuid.NewString(),
		Name:        "Tenant " + slug,
		Slug:        slug,
		Plan:        types.PlanFree,
		Status:      types.TenantStatusTrial,
		Settings:    repository.DefaultTenantSettings(),
		OwnerID:     uuid.NewString(),
		TrialEndsAt: &trial,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewUser arma un usuario activo del tenant (nil = plataforma).
func NewUser(tenantID *string, username, email string) *repository.User {
	now := ts()
	role := types.RoleUser
	if tenantID == nil {
		role = types.RolePlatformAdmin
	}
	return &repository.User{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		TenantRole:   types.TenantRoleMember,
		Role:         role,
		Username:     username,
		Email:        email,
		PasswordHash: strp("hash"),
		FirstName:    "Ana",
		LastName:     "García",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func testTenants(t *testing.T, st repository.Store) {
	ctx := context.Background()
	repo := st.Tenants()

	acme := NewTenant("acme")
	acme.CustomDomain = strp("app.acme.fr")
	require.NoError(t, repo.Create(ctx, acme))

	got, err := repo.GetBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, got.ID)
	assert.Equal(t, types.PlanFree, got.Plan)
	assert.Equal(t, "Europe/Paris", got.Settings.Timezone)
	require.NotNil(t, got.TrialEndsAt)
	assert.Equal(t, acme.TrialEndsAt.Unix(), got.TrialEndsAt.Unix())

	byDomain, err := repo.GetByCustomDomain(ctx, "app.acme.fr")
	require.NoError(t, err)
	assert.Equal(t, acme.ID, byDomain.ID)

	_, err = repo.GetBySlug(ctx, "nope")
	require.ErrorIs(t, err, repository.ErrNotFound)

	dup := NewTenant("acme")
	require.ErrorIs(t, repo.Create(ctx, dup), repository.ErrConflict)

	other := NewTenant("globex")
	other.CustomDomain = strp("app.acme.fr")
	require.ErrorIs(t, repo.Create(ctx, other), repository.ErrConflict)

	ok, err := repo.ExistsBySlug(ctx, "acme")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ExistsByCustomDomain(ctx, "other.fr")
	require.NoError(t, err)
	assert.False(t, ok)

	got.Name = "ACME Corp"
	got.Settings.AllowPublicSignup = true
	got.Settings.Logo = strp("https://cdn/logo.png")
	require.NoError(t, repo.Update(ctx, got))
	again, err := repo.GetByID(ctx, acme.ID)
	require.NoError(t, err)
	assert.Equal(t, "ACME Corp", again.Name)
	assert.True(t, again.Settings.AllowPublicSignup)
	require.NotNil(t, again.Settings.Logo)
	assert.Equal(t, "https://cdn/logo.png", *again.Settings.Logo)

	at := ts()
	require.NoError(t, repo.TouchActivity(ctx, acme.ID, at))
	touched, err := repo.GetByID(ctx, acme.ID)
	require.NoError(t, err)
	require.NotNil(t, touched.LastActivityAt)
	assert.Equal(t, at.Unix(), touched.LastActivityAt.Unix())

	missing := NewTenant("ghost")
	require.ErrorIs(t, repo.Update(ctx, missing), repository.ErrNotFound)
}

func testTenantList(t *testing.T, st repository.Store) {
	ctx := context.Background()
	repo := st.Tenants()

	base := ts()
	for i, slug := range []string{"alpha", "beta-shop", "gamma"} {
		tn := NewTenant(slug)
		tn.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if slug == "beta-shop" {
			tn.Status = types.TenantStatusSuspended
		}
		require.NoError(t, repo.Create(ctx, tn))
	}

	all, err := repo.List(ctx, repository.TenantFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "gamma", all[0].Slug, "más nuevo primero")

	suspended, err := repo.List(ctx, repository.TenantFilter{Status: types.TenantStatusSuspended})
	require.NoError(t, err)
	require.Len(t, suspended, 1)
	assert.Equal(t, "beta-shop", suspended[0].Slug)

	found, err := repo.List(ctx, repository.TenantFilter{NameQuery: "BETA"})
	require.NoError(t, err)
	require.Len(t, found, 1)
}

func testUsersScoped(t *testing.T, st repository.Store) {
	ctx := context.Background()
	a, b := NewTenant("tenant-a"), NewTenant("tenant-b")
	require.NoError(t, st.Tenants().Create(ctx, a))
	require.NoError(t, st.Tenants().Create(ctx, b))
	users := st.Users()

	alice := NewUser(&a.ID, "alice", "alice@x.com")
	require.NoError(t, users.Create(ctx, alice))

	// Mismo email en otro tenant es válido.
	aliceB := NewUser(&b.ID, "alice", "alice@x.com")
	require.NoError(t, users.Create(ctx, aliceB))

	require.ErrorIs(t, users.Create(ctx, NewUser(&a.ID, "other", "alice@x.com")), repository.ErrConflict)
	require.ErrorIs(t, users.Create(ctx, NewUser(&a.ID, "alice", "other@x.com")), repository.ErrConflict)

	got, err := users.GetByEmail(ctx, repository.TenantScope(a.ID), "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	require.NotNil(t, got.TenantID)
	assert.Equal(t, a.ID, *got.TenantID)

	got, err = users.GetByUsername(ctx, repository.TenantScope(b.ID), "alice")
	require.NoError(t, err)
	assert.Equal(t, aliceB.ID, got.ID)

	_, err = users.GetByEmail(ctx, repository.PlatformScope(), "alice@x.com")
	require.ErrorIs(t, err, repository.ErrNotFound)

	exists, err := users.ExistsByUsername(ctx, repository.TenantScope(a.ID), "alice")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = users.ExistsByEmail(ctx, repository.TenantScope(a.ID), "bob@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	bob := NewUser(&a.ID, "bob", "bob@x.com")
	bob.TenantRole = types.TenantRoleAdmin
	bob.CreatedAt = alice.CreatedAt.Add(time.Second)
	require.NoError(t, users.Create(ctx, bob))

	n, err := users.CountByTenant(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	members, err := users.ListByTenant(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Username)

	admins, err := users.ListByTenantRole(ctx, a.ID, types.TenantRoleAdmin)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, bob.ID, admins[0].ID)

	// Update que choca con otro usuario del tenant.
	bob.Email = "alice@x.com"
	require.ErrorIs(t, users.Update(ctx, bob), repository.ErrConflict)

	code := "123456"
	exp := ts().Add(10 * time.Minute)
	reset := "reset-token"
	alice.EmailVerificationCode = &code
	alice.EmailVerificationCodeExpiresAt = &exp
	alice.PasswordResetToken = &reset
	alice.FailedLoginAttempts = 3
	require.NoError(t, users.Update(ctx, alice))

	byReset, err := users.GetByPasswordResetToken(ctx, "reset-token")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byReset.ID)
	assert.Equal(t, 3, byReset.FailedLoginAttempts)
	require.NotNil(t, byReset.EmailVerificationCode)
	assert.Equal(t, "123456", *byReset.EmailVerificationCode)

	require.NoError(t, users.DeleteByID(ctx, bob.ID))
	require.ErrorIs(t, users.DeleteByID(ctx, bob.ID), repository.ErrNotFound)

	deleted, err := users.DeleteByTenant(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func testUsersPlatform(t *testing.T, st repository.Store) {
	ctx := context.Background()
	tn := NewTenant("acme")
	require.NoError(t, st.Tenants().Create(ctx, tn))
	users := st.Users()

	admin := NewUser(nil, "platform-admin", "admin@kobecorporation.com")
	require.NoError(t, users.Create(ctx, admin))
	require.NoError(t, users.Create(ctx, NewUser(&tn.ID, "platform-admin", "admin@kobecorporation.com")))
	require.ErrorIs(t, users.Create(ctx, NewUser(nil, "x", "admin@kobecorporation.com")), repository.ErrConflict)

	got, err := users.GetByEmail(ctx, repository.PlatformScope(), "admin@kobecorporation.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Nil(t, got.TenantID)
	assert.Equal(t, types.RolePlatformAdmin, got.Role)
}

func testRefreshSwap(t *testing.T, st repository.Store) {
	ctx := context.Background()
	tn := NewTenant("acme")
	require.NoError(t, st.Tenants().Create(ctx, tn))
	users := st.Users()

	u := NewUser(&tn.ID, "alice", "alice@x.com")
	require.NoError(t, users.Create(ctx, u))

	exp := ts().Add(time.Hour)
	require.ErrorIs(t, users.SwapRefreshToken(ctx, u.ID, "r0", "r1", exp), repository.ErrPreconditionFailed)

	// Update no toca el refresh
	u.RefreshToken = strp("r0")
	require.NoError(t, users.Update(ctx, u))
	require.ErrorIs(t, users.SwapRefreshToken(ctx, u.ID, "r0", "r1", exp), repository.ErrPreconditionFailed)

	require.NoError(t, users.SetRefreshToken(ctx, u.ID, strp("r0"), &exp))
	stale, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, users.SwapRefreshToken(ctx, u.ID, "r0", "r1", exp))
	require.ErrorIs(t, users.SwapRefreshToken(ctx, u.ID, "r0", "r2", exp), repository.ErrPreconditionFailed)

	// una escritura con datos previos a la rotación no revive el token anterior
	stale.FirstName = "Alicia"
	require.NoError(t, users.Update(ctx, stale))
	require.ErrorIs(t, users.SwapRefreshToken(ctx, u.ID, "r0", "r2", exp), repository.ErrPreconditionFailed)

	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alicia", got.FirstName)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "r1", *got.RefreshToken)
	require.NotNil(t, got.RefreshTokenExpiresAt)
	assert.Equal(t, exp.Unix(), got.RefreshTokenExpiresAt.Unix())

	require.NoError(t, users.SetRefreshToken(ctx, u.ID, nil, nil))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RefreshToken)
	assert.Nil(t, got.RefreshTokenExpiresAt)

	require.ErrorIs(t, users.SwapRefreshToken(ctx, uuid.NewString(), "r1", "r2", exp), repository.ErrNotFound)
	require.ErrorIs(t, users.SetRefreshToken(ctx, uuid.NewString(), nil, nil), repository.ErrNotFound)
}

func newInvitation(tenantID, email string) *repository.Invitation {
	now := ts()
	return &repository.Invitation{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Email:      email,
		Role:       types.TenantRoleMember,
		Token:      uuid.NewString(),
		InvitedBy:  uuid.NewString(),
		ExpiresAt:  now.Add(repository.InvitationTTL),
		Status:     types.InvitationPending,
		EmailsSent: 1,
		CreatedAt:  now,
	}
}

func testInvitations(t *testing.T, st repository.Store) {
	ctx := context.Background()
	tn := NewTenant("acme")
	require.NoError(t, st.Tenants().Create(ctx, tn))
	repo := st.Invitations()

	first := newInvitation(tn.ID, "bob@x.com")
	require.NoError(t, repo.Create(ctx, first))

	pending, err := repo.ExistsPending(ctx, tn.ID, "bob@x.com")
	require.NoError(t, err)
	assert.True(t, pending)

	require.ErrorIs(t, repo.Create(ctx, newInvitation(tn.ID, "bob@x.com")), repository.ErrConflict)

	sameToken := newInvitation(tn.ID, "carol@x.com")
	sameToken.Token = first.Token
	require.ErrorIs(t, repo.Create(ctx, sameToken), repository.ErrConflict)

	got, err := repo.GetByToken(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 1, got.EmailsSent)

	cancelled := ts()
	got.Status = types.InvitationCancelled
	got.CancelledAt = &cancelled
	require.NoError(t, repo.Update(ctx, got))

	second := newInvitation(tn.ID, "bob@x.com")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, second), "una cancelada no bloquea una nueva")

	list, err := repo.ListByTenant(ctx, tn.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "más nueva primero")
	require.NotNil(t, list[1].CancelledAt)

	byID, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, types.InvitationPending, byID.Status)

	n, err := repo.DeleteByTenant(ctx, tn.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = repo.GetByID(ctx, second.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testDeleteCascade(t *testing.T, st repository.Store) {
	ctx := context.Background()
	tn := NewTenant("acme")
	require.NoError(t, st.Tenants().Create(ctx, tn))
	u := NewUser(&tn.ID, "alice", "alice@x.com")
	require.NoError(t, st.Users().Create(ctx, u))
	require.NoError(t, st.Invitations().Create(ctx, newInvitation(tn.ID, "bob@x.com")))

	require.NoError(t, st.Tenants().Delete(ctx, tn.ID))
	require.ErrorIs(t, st.Tenants().Delete(ctx, tn.ID), repository.ErrNotFound)

	_, err := st.Users().GetByID(ctx, u.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
	list, err := st.Invitations().ListByTenant(ctx, tn.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
