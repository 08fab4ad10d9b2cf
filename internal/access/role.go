package access

// Role is the fixed set of actor roles. Every authorization decision is a
// function of the role plus tenant and task-ownership facts; there is no
// per-company policy storage.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleEmployee   Role = "employee"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleSuperadmin, RoleAdmin, RoleManager, RoleEmployee:
		return Role(s), true
	default:
		return "", false
	}
}

// IsManagement reports whether the role carries company-wide task authority
// within its own tenant.
func (r Role) IsManagement() bool {
	return r == RoleAdmin || r == RoleManager
}

// Invitable reports whether the role may be granted through an invitation
// or public registration. Superadmin accounts are provisioned out of band.
func (r Role) Invitable() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}
