package portal

import "github.com/goliatone/go-errors"

// UserRole is the user's role
type UserRole string

const (
	// RoleUser is a regular portal member
	RoleUser UserRole = "user"
	// RoleAdmin can manage users, companies, and every task
	RoleAdmin UserRole = "admin"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants unrestricted access
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{RoleUser, RoleAdmin}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}

// DecodeRole rejects any stored value outside the closed role set.
// An unknown role in the store is a data integrity error, never a
// silent downgrade to non-admin.
func DecodeRole(roleStr string) (UserRole, error) {
	role, ok := ParseRole(roleStr)
	if !ok {
		return "", errors.New("user has an unknown or invalid role", errors.CategoryInternal).
			WithMetadata(map[string]any{"role": roleStr})
	}
	return role, nil
}
