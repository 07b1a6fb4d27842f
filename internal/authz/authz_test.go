package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kobecorporation/kbsaas/internal/domain/types"
	"github.com/kobecorporation/kbsaas/internal/jwt"
)

func member(tenantID string, role types.TenantRole) Principal {
	return Principal{UserID: "u1", Role: types.RoleUser, TenantRole: role, TenantID: &tenantID}
}

func platformAdmin() Principal {
	return Principal{UserID: "root", Role: types.RolePlatformAdmin, TenantRole: types.TenantRoleOwner}
}

func TestIsPlatformAdminRequiresNoTenant(t *testing.T) {
	assert.True(t, platformAdmin().IsPlatformAdmin())

	tid := "t1"
	p := platformAdmin()
	p.TenantID = &tid
	assert.False(t, p.IsPlatformAdmin())
}

func TestHasGlobalRole(t *testing.T) {
	assert.True(t, HasGlobalRole(types.RolePlatformAdmin, types.RoleRootAdmin))
	assert.True(t, HasGlobalRole(types.RoleAdmin, types.RoleEmployee))
	assert.False(t, HasGlobalRole(types.RoleRootAdmin, types.RolePlatformAdmin))

	// un ROOT_ADMIN sin tenant no es platform admin
	p := Principal{UserID: "u9", Role: types.RoleRootAdmin}
	assert.False(t, p.IsPlatformAdmin())
}

func TestCanAccessTenant(t *testing.T) {
	assert.True(t, CanAccessTenant(member("t1", types.TenantRoleGuest), "t1"))
	assert.False(t, CanAccessTenant(member("t1", types.TenantRoleOwner), "t2"))
	assert.True(t, CanAccessTenant(platformAdmin(), "t2"))
}

func TestRequireTenantPermission(t *testing.T) {
	cases := []struct {
		name string
		p    Principal
		perm types.Permission
		want error
	}{
		{"admin invites", member("t1", types.TenantRoleAdmin), types.PermInviteMembers, nil},
		{"member cannot invite", member("t1", types.TenantRoleMember), types.PermInviteMembers, ErrForbidden},
		{"member views members", member("t1", types.TenantRoleMember), types.PermViewMembers, nil},
		{"other tenant", member("t2", types.TenantRoleOwner), types.PermViewMembers, ErrNotMember},
		{"platform admin bypass", platformAdmin(), types.PermEditSettings, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := RequireTenantPermission(tc.p, "t1", tc.perm)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestRequireTenantRole(t *testing.T) {
	assert.NoError(t, RequireTenantRole(member("t1", types.TenantRoleOwner), "t1", types.TenantRoleAdmin))
	assert.ErrorIs(t, RequireTenantRole(member("t1", types.TenantRoleMember), "t1", types.TenantRoleAdmin), ErrForbidden)
	assert.ErrorIs(t, RequireTenantRole(member("t2", types.TenantRoleOwner), "t1", types.TenantRoleGuest), ErrNotMember)
}

func TestCanAssignRole(t *testing.T) {
	assert.True(t, CanAssignRole(types.TenantRoleOwner, types.TenantRoleAdmin))
	assert.True(t, CanAssignRole(types.TenantRoleAdmin, types.TenantRoleMember))
	assert.False(t, CanAssignRole(types.TenantRoleAdmin, types.TenantRoleAdmin))
	assert.False(t, CanAssignRole(types.TenantRoleOwner, types.TenantRoleOwner))
	assert.False(t, CanAssignRole(types.TenantRoleOwner, types.TenantRole("BOSS")))
}

func TestCanChangeMember(t *testing.T) {
	assert.NoError(t, CanChangeMember(types.TenantRoleOwner, types.TenantRoleMember, types.TenantRoleAdmin))
	assert.ErrorIs(t, CanChangeMember(types.TenantRoleAdmin, types.TenantRoleMember, types.TenantRoleAdmin), ErrForbidden)
	assert.ErrorIs(t, CanChangeMember(types.TenantRoleAdmin, types.TenantRoleAdmin, types.TenantRoleMember), ErrForbidden)
	assert.ErrorIs(t, CanChangeMember(types.TenantRoleOwner, types.TenantRoleOwner, types.TenantRoleAdmin), ErrRoleNotEditable)
	assert.ErrorIs(t, CanChangeMember(types.TenantRoleOwner, types.TenantRoleAdmin, types.TenantRoleOwner), ErrRoleNotEditable)
}

func TestFromClaimsCopiesTenant(t *testing.T) {
	tid := "t1"
	c := &jwt.Claims{Type: jwt.TypeAccess, Email: "a@x.com", Role: types.RoleAdmin, TenantRole: types.TenantRoleAdmin, TenantID: &tid}
	c.Subject = "u1"

	p := FromClaims(c)
	tid = "mutated"
	require.NotNil(t, p.TenantID)
	assert.Equal(t, "t1", *p.TenantID)
	assert.Equal(t, "u1", p.UserID)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), member("t1", types.TenantRoleMember))
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, types.TenantRoleMember, p.TenantRole)
}
