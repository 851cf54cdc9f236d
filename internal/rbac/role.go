package rbac

// Role is a member of the closed role enumeration. Every identity has
// exactly one Role at any time.
type Role string

const (
	// RoleSuperAdmin has full administrative power, including role mutation.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleAdminOperacional manages operational content and the CRM area.
	RoleAdminOperacional Role = "ADMIN_OPERACIONAL"
	// RoleAdminConteudo manages academy/training content.
	RoleAdminConteudo Role = "ADMIN_CONTEUDO"
	// RoleAdminGamificacao manages the gamification catalog.
	RoleAdminGamificacao Role = "ADMIN_GAMIFICACAO"
	// RoleUserSDR is a sales development representative.
	RoleUserSDR Role = "USER_SDR"
	// RoleUserVendedor is a closing sales representative.
	RoleUserVendedor Role = "USER_VENDEDOR"
	// RoleMRResponsavel is responsible for the MR representations area.
	RoleMRResponsavel Role = "MR_RESPONSAVEL"
	// RoleUser is the default role, assumed whenever a claim is absent or
	// unrecognized.
	RoleUser Role = "USER"
)

// DefaultRole is assigned to every newly created identity and resolved when
// a session carries no recognizable role claim.
const DefaultRole = RoleUser

// AllRoles is the full closed enumeration.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdminOperacional,
	RoleAdminConteudo,
	RoleAdminGamificacao,
	RoleUserSDR,
	RoleUserVendedor,
	RoleMRResponsavel,
	RoleUser,
}

// PromotableRoles are valid targets for the promotion operation. USER is
// deliberately absent: promotion never demotes to the plain default role.
var PromotableRoles = []Role{
	RoleSuperAdmin,
	RoleUserSDR,
	RoleUserVendedor,
	RoleMRResponsavel,
	RoleAdminOperacional,
	RoleAdminConteudo,
	RoleAdminGamificacao,
}

// AssignableRoles are valid roles for administrative user creation. Unlike
// PromotableRoles this list includes USER.
var AssignableRoles = []Role{
	RoleSuperAdmin,
	RoleUserSDR,
	RoleUserVendedor,
	RoleMRResponsavel,
	RoleAdminOperacional,
	RoleAdminConteudo,
	RoleAdminGamificacao,
	RoleUser,
}

// Valid reports whether r is a member of the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdminOperacional, RoleAdminConteudo, RoleAdminGamificacao,
		RoleUserSDR, RoleUserVendedor, RoleMRResponsavel, RoleUser:
		return true
	}

	return false
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Promotable reports whether r is a valid promotion target.
func (r Role) Promotable() bool {
	return r != RoleUser && r.Valid()
}

// ParseRole resolves a raw claim value to a Role. Absent or unrecognized
// values resolve to the USER fallback, never an error: legacy role strings
// from old sessions must degrade, not crash.
func ParseRole(raw string) Role {
	if r := Role(raw); r.Valid() {
		return r
	}

	return DefaultRole
}
