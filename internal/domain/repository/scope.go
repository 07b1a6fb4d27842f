package repository

// Scope delimita una búsqueda de usuarios: un tenant concreto o la plataforma
// (usuarios sin tenant, es decir platform admins).
type Scope struct {
	tenantID string
}

// TenantScope crea un scope para el tenant dado.
func TenantScope(tenantID string) Scope { return Scope{tenantID: tenantID} }

// PlatformScope crea el scope de usuarios sin tenant.
func PlatformScope() Scope { return Scope{} }

// TenantID retorna el tenant y true, o "" y false para la plataforma.
func (s Scope) TenantID() (string, bool) { return s.tenantID, s.tenantID != "" }

// IsPlatform reporta si el scope es el de plataforma.
func (s Scope) IsPlatform() bool { return s.tenantID == "" }

func (s Scope) String() string {
	if s.IsPlatform() {
		return "platform"
	}
	return "tenant:" + s.tenantID
}

// ScopeOf retorna el scope al que pertenece un usuario.
func ScopeOf(u *User) Scope {
	if u == nil || u.TenantID == nil {
		return PlatformScope()
	}
	return TenantScope(*u.TenantID)
}
