package domain

type Role string

const (
	// RoleAny matches every authenticated identity.
	RoleAny       Role = ""
	RoleCustomer  Role = "CUSTOMER"
	RoleOrganizer Role = "ORGANIZER"
	RoleAdmin     Role = "ADMIN"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// Identity is everything a profile is signed in as. A profile may hold a
// customer or organizer session and, separately, an admin session.
type Identity struct {
	User  *User
	Admin *AdminAuth
}

func (id Identity) Roles() []Role {
	var roles []Role
	if id.User != nil && id.User.Role.Valid() {
		roles = append(roles, id.User.Role)
	}
	if id.Admin != nil {
		roles = append(roles, RoleAdmin)
	}
	return roles
}

// Authorize is the only access check in the storefront. It looks at role
// tags alone; token validity is left to the backend.
func Authorize(id Identity, required Role) error {
	roles := id.Roles()
	if len(roles) == 0 {
		return ErrUnauthenticated
	}
	if required == RoleAny {
		return nil
	}
	for _, r := range roles {
		if r == required {
			return nil
		}
	}
	return ErrForbidden
}
