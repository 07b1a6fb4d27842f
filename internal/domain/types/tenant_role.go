package types

// TenantRole es el rol de un usuario dentro de su tenant.
type TenantRole string

const (
	TenantRoleOwner  TenantRole = "OWNER"
	TenantRoleAdmin  TenantRole = "ADMIN"
	TenantRoleMember TenantRole = "MEMBER"
	TenantRoleGuest  TenantRole = "GUEST"
)

// Permission es una acción autorizable dentro de un tenant.
type Permission string

const (
	PermViewMembers        Permission = "VIEW_MEMBERS"
	PermInviteMembers      Permission = "INVITE_MEMBERS"
	PermManageMembers      Permission = "MANAGE_MEMBERS"
	PermViewSettings       Permission = "VIEW_SETTINGS"
	PermEditSettings       Permission = "EDIT_SETTINGS"
	PermEditBilling        Permission = "EDIT_BILLING"
	PermDeleteTenant       Permission = "DELETE_TENANT"
	PermTransferOwnership  Permission = "TRANSFER_OWNERSHIP"
	PermViewAnalytics      Permission = "VIEW_ANALYTICS"
	PermManageContent      Permission = "MANAGE_CONTENT"
	PermManageOwnContent   Permission = "MANAGE_OWN_CONTENT"
	PermViewContent        Permission = "VIEW_CONTENT"
	PermManageIntegrations Permission = "MANAGE_INTEGRATIONS"
)

// AllPermissions en orden de declaración.
var AllPermissions = []Permission{
	PermViewMembers, PermInviteMembers, PermManageMembers,
	PermViewSettings, PermEditSettings, PermEditBilling,
	PermDeleteTenant, PermTransferOwnership, PermViewAnalytics,
	PermManageContent, PermManageOwnContent, PermViewContent,
	PermManageIntegrations,
}

// TenantRoleInfo es la fila de la tabla de roles de tenant.
type TenantRoleInfo struct {
	DisplayName string
	Level       int
	Permissions map[Permission]bool
}

func permSet(ps ...Permission) map[Permission]bool {
	m := make(map[Permission]bool, len(ps))
	for _, p := range ps {
		m[p] = true
	}
	return m
}

var tenantRoles = map[TenantRole]TenantRoleInfo{
	TenantRoleOwner: {
		DisplayName: "Propriétaire",
		Level:       100,
		Permissions: permSet(AllPermissions...),
	},
	TenantRoleAdmin: {
		DisplayName: "Administrateur",
		Level:       75,
		Permissions: permSet(
			PermViewMembers, PermInviteMembers, PermManageMembers,
			PermViewSettings, PermEditSettings, PermViewAnalytics,
			PermManageContent, PermManageIntegrations,
		),
	},
	TenantRoleMember: {
		DisplayName: "Membre",
		Level:       50,
		Permissions: permSet(PermViewMembers, PermViewSettings, PermManageOwnContent),
	},
	TenantRoleGuest: {
		DisplayName: "Invité",
		Level:       10,
		Permissions: permSet(PermViewContent),
	},
}

// Valid indica si r es un rol de tenant conocido.
func (r TenantRole) Valid() bool {
	_, ok := tenantRoles[r]
	return ok
}

// Info retorna la fila de la tabla; zero value si el rol es desconocido.
func (r TenantRole) Info() TenantRoleInfo { return tenantRoles[r] }

func (r TenantRole) Level() int { return tenantRoles[r].Level }
func (r TenantRole) DisplayName() string { return tenantRoles[r].DisplayName }

// HasPermission reporta si el rol otorga p.
func HasPermission(r TenantRole, p Permission) bool {
	return tenantRoles[r].Permissions[p]
}

// IsAtLeast compara niveles: a >= b.
func IsAtLeast(a, b TenantRole) bool {
	if !a.Valid() || !b.Valid() {
		return false
	}
	return a.Level() >= b.Level()
}

// CanModifyRole: el actor necesita nivel estrictamente mayor y el OWNER es intocable.
func CanModifyRole(actor, target TenantRole) bool {
	if !actor.Valid() || !target.Valid() {
		return false
	}
	return actor.Level() > target.Level() && target != TenantRoleOwner
}
