package authz

import (
	"fmt"
	"strings"
)

// Role is a closed enumeration of user roles, listed by ascending privilege
type Role string

const (
	RoleOperator              Role = "operator"
	RoleMaintainer            Role = "maintainer"
	RoleMaintenanceSupervisor Role = "maintenance_supervisor"
	RoleGeneralSupervisor     Role = "general_supervisor"
	RoleSuperAdmin            Role = "super_admin"
)

var allRoles = []Role{
	RoleOperator,
	RoleMaintainer,
	RoleMaintenanceSupervisor,
	RoleGeneralSupervisor,
	RoleSuperAdmin,
}

// AllRoles returns every declared role
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// Valid reports whether r is a declared role
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a raw string into a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(strings.ToLower(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}
