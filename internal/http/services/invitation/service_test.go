package invitation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/authz"
	"github.com/kobecorporation/kbsaas/internal/domain/repository"
	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/email"
	"github.com/kobecorporation/kbsaas/internal/email/emailtest"
	dto "github.com/kobecorporation/kbsaas/internal/http/dto/invitation"
	"github.com/kobecorporation/kbsaas/internal/security/password"
	"github.com/kobecorporation/kbsaas/internal/store/memory"
	"github.com/kobecorporation/kbsaas/internal/validation"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	svc    Service
	store  *memory.Store
	rec    *emailtest.Recorder
	clk    *clock
	tenant *repository.Tenant
	owner  authz.Principal
	admin  authz.Principal
}

func newFixture(t *testing.T, plan types.Plan) *fixture {
	t.Helper()
	ctx := context.Background()
	clk := &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	st := memory.New()
	rec := &emailtest.Recorder{}
	mailer, err := email.NewMailer(rec, email.MailerConfig{TenantPrefix: "kb-saas-", PlatformDomain: "kobecorporation.com"})
	require.NoError(t, err)

	tn := &repository.Tenant{
		ID: "t-acme", Name: "Acme", Slug: "acme", Plan: plan, Status: types.TenantStatusActive,
		Settings: repository.DefaultTenantSettings(), OwnerID: "owner", CreatedAt: clk.Now(), UpdatedAt: clk.Now(),
	}
	require.NoError(t, st.Tenants().Create(ctx, tn))

	mk := func(id string, role types.TenantRole) authz.Principal {
		tid := tn.ID
		require.NoError(t, st.Users().Create(ctx, &repository.User{
			ID: id, TenantID: &tid, TenantRole: role, Role: types.RoleUser, Username: id,
			Email: id + "@acme.com", FirstName: "Jean", LastName: "Dupont", IsActive: true, IsEmailVerified: true,
			CreatedAt: clk.Now(), UpdatedAt: clk.Now(),
		}))
		return authz.Principal{UserID: id, Email: id + "@acme.com", Role: types.RoleUser, TenantRole: role, TenantID: &tid}
	}

	svc := NewService(Deps{
		Store:  st,
		Mailer: mailer,
		Hasher: password.NewHasher(password.Fast),
		Policy: password.DefaultPolicy,
		Now:    clk.Now,
	})
	return &fixture{
		svc: svc, store: st, rec: rec, clk: clk, tenant: tn,
		owner: mk("owner", types.TenantRoleOwner),
		admin: mk("admin", types.TenantRoleAdmin),
	}
}

func (f *fixture) invite(t *testing.T, mail string) *repository.Invitation {
	t.Helper()
	res, err := f.svc.Create(context.Background(), f.owner, f.tenant.ID, dto.InviteRequest{Email: mail})
	require.NoError(t, err)
	inv, err := f.store.Invitations().GetByID(context.Background(), res.Invitation.ID)
	require.NoError(t, err)
	return inv
}

func accept() dto.AcceptRequest {
	return dto.AcceptRequest{Username: "newbie", Password: "s3cretpass", FirstName: "Nina", LastName: "Nouveau"}
}

func TestCreateDefaultsAndEmail(t *testing.T) {
	f := newFixture(t, types.PlanStarter)
	inv := f.invite(t, " Guest@Mail.com ")

	assert.Equal(t, "guest@mail.com", inv.Email)
	assert.Equal(t, types.TenantRoleMember, inv.Role)
	assert.Equal(t, types.InvitationPending, inv.Status)
	assert.Equal(t, 1, inv.EmailsSent)
	assert.Equal(t, f.clk.Now().Add(7*24*time.Hour), inv.ExpiresAt)
	assert.NotEmpty(t, inv.Token)

	msg, ok := f.rec.Last()
	require.True(t, ok)
	assert.Contains(t, msg.Text, "https://kb-saas-acme.kobecorporation.com/invitation?token="+inv.Token)
	assert.Contains(t, msg.Text, "Jean Dupont")
}

func TestCreateRejections(t *testing.T) {
	f := newFixture(t, types.PlanStarter)
	ctx := context.Background()
	owner := types.TenantRoleOwner
	admin := types.TenantRoleAdmin

	_, err := f.svc.Create(ctx, f.owner, f.tenant.ID, dto.InviteRequest{Email: "x@y.com", Role: &owner})
	require.ErrorIs(t, err, validation.ErrInvalid)

	_, err = f.svc.Create(ctx, f.admin, f.tenant.ID, dto.InviteRequest{Email: "x@y.com", Role: &admin})
	require.ErrorIs(t, err, authz.ErrForbidden)

	_, err = f.svc.Create(ctx, f.owner, f.tenant.ID, dto.InviteRequest{Email: "admin@acme.com"})
	require.ErrorIs(t, err, ErrAlreadyMember)

	f.invite(t, "dup@y.com")
	_, err = f.svc.Create(ctx, f.owner, f.tenant.ID, dto.InviteRequest{Email: "DUP@y.com"})
	require.ErrorIs(t, err, ErrAlreadyInvited)

	member := authz.Principal{UserID: "m", TenantRole: types.TenantRoleMember, TenantID: f.owner.TenantID}
	_, err = f.svc.Create(ctx, member, f.tenant.ID, dto.InviteRequest{Email: "z@y.com"})
	require.ErrorIs(t, err, authz.ErrForbidden)
}

func TestCreateHonorsCapacity(t *testing.T) {
	f := newFixture(t, types.PlanFree)
	ctx := context.Background()
	f.invite(t, "third@y.com")

	tid := f.tenant.ID
	require.NoError(t, f.store.Users().Create(ctx, &repository.User{
		ID: "third", TenantID: &tid, TenantRole: types.TenantRoleMember, Role: types.RoleUser,
		Username: "third", Email: "third-user@y.com", CreatedAt: f.clk.Now(),
	}))
	_, err := f.svc.Create(ctx, f.owner, f.tenant.ID, dto.InviteRequest{Email: "fourth@y.com"})
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestEmailFailureKeepsInvitation(t *testing.T) {
	f := newFixture(t, types.PlanStarter)
	f.rec.SetErr(errors.New("smtp down"))

	res, err := f.svc.Create(context.Background(), f.owner, f.tenant.ID, dto.InviteRequest{Email: "g@y.com"})
	require.NoError(t, err)
	_, err = f.store.Invitations().GetByID(context.Background(), res.Invitation.ID)
	require.NoError(t, err)
}

func TestAcceptCreatesVerifiedMember(t *testing.T) {
	f := newFixture(t, types.PlanStarter)
	ctx := context.Background()
	inv := f.invite(t, "guest@mail.com")

	info, err := f.svc.Info(ctx, inv.Token)
	require.NoError(t, err)
	assert.Equal(t, "Acme", info.TenantName)
	assert.Equal(t, "Membre", info.Role)

	res, err := f.svc.Accept(ctx, inv.Token, accept())
	require.NoError(t, err)
	assert.Equal(t, "guest@mail.com", res.User.Email)

	u, err := f.store.Users().GetByEmail(ctx, repository.TenantScope(f.tenant.ID), "guest@mail.com")
	require.NoError(t, err)
	assert.True(t, u.IsEmailVerified)
	assert.True(t, u.IsActive)
	assert.Equal(t, types.TenantRoleMember, u.TenantRole)
	assert.Equal(t, types.RoleUser, u.Role)

	_, err = f.svc.Accept(ctx, inv.Token, accept())
	require.ErrorIs(t, err, ErrAlreadyUsed)
}

func TestAcceptRejections(t *testing.T) {
	f := newFixture(t, types.PlanStarter)
	ctx := context.Background()
	inv := f.invite(t, "guest@mail.com")

	taken := accept()
	taken.Username = "admin"
	_, err := f.svc.Accept(ctx, inv.Token, taken)
	require.ErrorIs(t, err, ErrUsernameTaken)

	weak := accept()
	weak.Password = "short"
	_, err = f.svc.Accept(ctx, inv.Token, weak)
	require.ErrorIs(t, err, password.ErrPolicy)

	f.tenant.Status = types.TenantStatusSuspended
	require.NoError(t, f.store.Tenants().Update(ctx, f.tenant))
	_, err = f.svc.Accept(ctx, inv.Token, accept())
	require.ErrorIs(t, err, ErrTenantNotAccessible)

	_, err = f.svc.Accept(ctx, "nope", accept())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExpiredInvitationFlipsStatus(t *testing.T) {
	f := newFixture(t, types.PlanStarter)
	ctx := context.Background()
	inv := f.invite(t, "late@mail.com")

	f.clk.Advance(7 * 24 * time.Hour)
	_, err := f.svc.GetValid(ctx, inv.Token)
	require.ErrorIs(t, err, ErrExpired)

	stored, err := f.store.Invitations().GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, types.InvitationExpired, stored.Status)

	_, err = f.svc.Accept(ctx, inv.Token, accept())
	require.ErrorIs(t, err, ErrExpired)

	// ya no cuenta como pendiente
	f.invite(t, "late@mail.com")
}

func TestCancelDeclineAndResend(t *testing.T) {
	f := newFixture(t, types.PlanStarter)
	ctx := context.Background()

	a := f.invite(t, "a@mail.com")
	require.NoError(t, f.svc.Cancel(ctx, f.admin, f.tenant.ID, a.ID))
	_, err := f.svc.GetValid(ctx, a.Token)
	require.ErrorIs(t, err, ErrCancelled)
	require.ErrorIs(t, f.svc.Cancel(ctx, f.admin, f.tenant.ID, a.ID), ErrNotPending)
	require.ErrorIs(t, f.svc.Cancel(ctx, f.admin, "other-tenant", a.ID), authz.ErrNotMember)

	b := f.invite(t, "b@mail.com")
	require.NoError(t, f.svc.Decline(ctx, b.Token))
	_, err = f.svc.GetValid(ctx, b.Token)
	require.ErrorIs(t, err, ErrDeclined)

	c := f.invite(t, "c@mail.com")
	f.clk.Advance(24 * time.Hour)
	for i := 2; i <= repository.MaxInvitationEmails; i++ {
		out, err := f.svc.Resend(ctx, f.owner, f.tenant.ID, c.ID)
		require.NoError(t, err)
		assert.Equal(t, i, out.EmailsSent)
		assert.Equal(t, f.clk.Now().Add(repository.InvitationTTL), out.ExpiresAt)
	}
	_, err = f.svc.Resend(ctx, f.owner, f.tenant.ID, c.ID)
	require.ErrorIs(t, err, ErrResendLimit)

	list, err := f.svc.List(ctx, f.admin, f.tenant.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestPlatformAdminCanInvite(t *testing.T) {
	f := newFixture(t, types.PlanStarter)
	p := authz.Principal{UserID: "root", Role: types.RolePlatformAdmin, TenantRole: types.TenantRoleOwner}
	admin := types.TenantRoleAdmin

	_, err := f.svc.Create(context.Background(), p, f.tenant.ID, dto.InviteRequest{Email: "boss@mail.com", Role: &admin})
	require.NoError(t, err)
}
