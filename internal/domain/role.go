package domain

// Role controls which mutating operations an identity may perform
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleViewer    Role = "viewer"
)

// Valid reports whether r is one of the three known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleViewer:
		return true
	}
	return false
}

// CanWrite reports whether the role may mutate projects, tickets and attachments
func (r Role) CanWrite() bool {
	return r == RoleAdmin || r == RoleDeveloper
}
