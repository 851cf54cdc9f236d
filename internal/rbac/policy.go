package rbac

// ServerAuthorizationPolicy is the enforcing authorization predicate. It is
// evaluated inside every privileged callable against the role read from the
// verified session claim, never from a client-supplied field or the profile
// mirror. This is the real security boundary of the platform.
type ServerAuthorizationPolicy struct{}

// CanManageUsers reports whether the caller may create users and mutate
// roles. Every role-mutating operation in the system is SUPER_ADMIN only;
// there is no finer-grained per-action matrix server-side.
func (ServerAuthorizationPolicy) CanManageUsers(caller Role) bool {
	return caller == RoleSuperAdmin
}

// ClientVisibilityPolicy is the advisory visibility predicate consumed by
// the menu composer and UI affordances. It carries no security guarantee:
// hiding a button never protects the operation behind it, the
// ServerAuthorizationPolicy does. Keep the two apart.
type ClientVisibilityPolicy struct{}

// adminRoles are the roles the client treats as administrative for
// visibility purposes.
var adminRoles = map[Role]struct{}{
	RoleSuperAdmin:       {},
	RoleAdminOperacional: {},
	RoleAdminConteudo:    {},
	RoleAdminGamificacao: {},
}

// IsAdmin reports whether the role gets administrative UI affordances.
func (ClientVisibilityPolicy) IsAdmin(role Role) bool {
	_, ok := adminRoles[role]
	return ok
}
