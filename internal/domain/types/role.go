package types

// Role es el rol global de un usuario en la plataforma.
type Role string

const (
	RoleUser          Role = "USER"
	RoleEmployee      Role = "EMPLOYEE"
	RoleAdmin         Role = "ADMIN"
	RoleRootAdmin     Role = "ROOT_ADMIN"
	RolePlatformAdmin Role = "PLATFORM_ADMIN"
)

// roleLadder ordena los roles globales de menor a mayor.
// PLATFORM_ADMIN no participa de la escalera: supera cualquier chequeo.
var roleLadder = map[Role]int{
	RoleUser:      0,
	RoleEmployee:  1,
	RoleAdmin:     2,
	RoleRootAdmin: 3,
}

var roleDisplay = map[Role]string{
	RoleUser:          "Utilisateur",
	RoleEmployee:      "Employé",
	RoleAdmin:         "Administrateur",
	RoleRootAdmin:     "Administrateur Principal",
	RolePlatformAdmin: "Administrateur Plateforme",
}

// Valid indica si r es un rol conocido.
func (r Role) Valid() bool {
	_, ok := roleDisplay[r]
	return ok
}

// DisplayName retorna el nombre visible del rol.
func (r Role) DisplayName() string { return roleDisplay[r] }

// HasRole reporta si un usuario con rol r cumple con required.
// PLATFORM_ADMIN cumple siempre; un required PLATFORM_ADMIN solo lo cumple él mismo.
func HasRole(r, required Role) bool {
	if r == RolePlatformAdmin {
		return true
	}
	if required == RolePlatformAdmin {
		return false
	}
	have, ok := roleLadder[r]
	if !ok {
		return false
	}
	need, ok := roleLadder[required]
	if !ok {
		return false
	}
	return have >= need
}
