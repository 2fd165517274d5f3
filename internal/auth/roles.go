package auth

import (
	"fmt"
	"strings"
)

// RolePrefix marks an authority as a role rather than a plain permission.
const RolePrefix = "ROLE_"

// Permissions.
const (
	PermStudentRead  = "student:read"
	PermStudentWrite = "student:write"
	PermCourseRead   = "course:read"
	PermCourseWrite  = "course:write"
)

// Role is one of the fixed roles a user can hold.
type Role string

const (
	RoleStudent      Role = "STUDENT"
	RoleAdmin        Role = "ADMIN"
	RoleAdminTrainee Role = "ADMINTRAINEE"
)

// Each role lists its permissions explicitly. ADMINTRAINEE is not derived
// from ADMIN.
var rolePermissions = map[Role][]string{
	RoleStudent: {},
	RoleAdmin: {
		PermCourseRead,
		PermCourseWrite,
		PermStudentRead,
		PermStudentWrite,
	},
	RoleAdminTrainee: {
		PermCourseRead,
		PermStudentRead,
	},
}

// Roles returns every known role.
func Roles() []Role {
	return []Role{RoleStudent, RoleAdmin, RoleAdminTrainee}
}

// ParseRole resolves a role name. The ROLE_ marker is accepted and ignored;
// anything outside the fixed set yields ErrUnknownRole.
func ParseRole(name string) (Role, error) {
	name = strings.TrimPrefix(strings.TrimSpace(name), RolePrefix)
	r := Role(name)
	if _, ok := rolePermissions[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
	return r, nil
}

// Valid reports whether r is one of the fixed roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

func (r Role) String() string { return string(r) }

// Authority is the role marker, e.g. ROLE_STUDENT.
func (r Role) Authority() string {
	return RolePrefix + string(r)
}

// Permissions returns a copy of the role's permission set.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// GrantedAuthorities is what a holder of r is granted: its permissions
// followed by its role marker.
func (r Role) GrantedAuthorities() []string {
	return append(r.Permissions(), r.Authority())
}
