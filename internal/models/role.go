package models

// Role is the role tag carried in session tokens.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
	RoleHoker    Role = "hoker"
)

// Roles lists every role in a stable order.
var Roles = []Role{RoleAdmin, RoleAgent, RoleCustomer, RoleHoker}

// ParseRole returns the Role named by s.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}
