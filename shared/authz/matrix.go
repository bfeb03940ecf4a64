package authz

import "sort"

type permissionSet map[Permission]struct{}

var (
	operatorPermissions = []Permission{
		PermAssetsRead,
		PermDocumentsRead,
		PermWorkOrdersRead,
		PermWorkOrdersCreateRequest,
	}

	maintainerPermissions = []Permission{
		PermAssetsRead,
		PermDocumentsRead,
		PermDocumentsUpload,
		PermWorkOrdersRead,
		PermWorkOrdersCreateRequest,
		PermWorkOrdersStart,
		PermWorkOrdersFinish,
		PermPreventivePlansRead,
	}

	maintenanceSupervisorPermissions = []Permission{
		PermAssetsRead, PermAssetsCreate, PermAssetsUpdate, PermAssetsDelete,
		PermDocumentsRead, PermDocumentsUpload, PermDocumentsDelete,
		PermWorkOrdersRead, PermWorkOrdersReadAll, PermWorkOrdersCreate, PermWorkOrdersCreateRequest,
		PermWorkOrdersUpdate, PermWorkOrdersDelete, PermWorkOrdersAssign, PermWorkOrdersStart, PermWorkOrdersFinish,
		PermPreventivePlansRead, PermPreventivePlansCreate, PermPreventivePlansUpdate, PermPreventivePlansDelete,
		PermUsersRead,
		PermMetricsRead,
	}

	generalSupervisorPermissions = []Permission{
		PermAssetsRead, PermAssetsCreate, PermAssetsUpdate, PermAssetsDelete,
		PermDocumentsRead, PermDocumentsUpload, PermDocumentsDelete,
		PermWorkOrdersRead, PermWorkOrdersReadAll, PermWorkOrdersCreate, PermWorkOrdersCreateRequest,
		PermWorkOrdersUpdate, PermWorkOrdersDelete, PermWorkOrdersAssign, PermWorkOrdersStart, PermWorkOrdersFinish,
		PermPreventivePlansRead, PermPreventivePlansCreate, PermPreventivePlansUpdate, PermPreventivePlansDelete,
		PermUsersRead, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
		PermTenantsRead, PermTenantsUpdate,
		PermMetricsRead,
	}
)

// rolePermissions is built once and never written afterwards.
var rolePermissions = map[Role]permissionSet{
	RoleOperator:              newPermissionSet(operatorPermissions),
	RoleMaintainer:            newPermissionSet(maintainerPermissions),
	RoleMaintenanceSupervisor: newPermissionSet(maintenanceSupervisorPermissions),
	RoleGeneralSupervisor:     newPermissionSet(generalSupervisorPermissions),
	RoleSuperAdmin:            newPermissionSet(allPermissions),
}

func newPermissionSet(perms []Permission) permissionSet {
	set := make(permissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// HasPermission reports whether role grants permission.
// Unknown roles and unknown permissions evaluate to false.
func HasPermission(role Role, permission Permission) bool {
	_, ok := rolePermissions[role][permission]
	return ok
}

// HasAnyPermission reports whether role grants at least one of permissions
func HasAnyPermission(role Role, permissions ...Permission) bool {
	for _, p := range permissions {
		if HasPermission(role, p) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether role grants every one of permissions.
// An empty list is vacuously true.
func HasAllPermissions(role Role, permissions ...Permission) bool {
	for _, p := range permissions {
		if !HasPermission(role, p) {
			return false
		}
	}
	return true
}

// PermissionsFor returns the sorted permissions granted to role
func PermissionsFor(role Role) []Permission {
	set := rolePermissions[role]
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanGrant reports whether an actor holding role may hand target to another user.
// A role can only be granted by one whose permissions are a superset of it.
func CanGrant(role Role, target Role) bool {
	if !role.Valid() || !target.Valid() {
		return false
	}
	return HasAllPermissions(role, PermissionsFor(target)...)
}

// Visibility describes which work orders a role may list or read
type Visibility int

const (
	VisibilityNone Visibility = iota
	VisibilityRequests
	VisibilityAssigned
	VisibilityTenant
)

var workOrderVisibility = map[Role]Visibility{
	RoleOperator:              VisibilityRequests,
	RoleMaintainer:            VisibilityAssigned,
	RoleMaintenanceSupervisor: VisibilityTenant,
	RoleGeneralSupervisor:     VisibilityTenant,
	RoleSuperAdmin:            VisibilityTenant,
}

// VisibilityFor returns the work order visibility scope of role
func VisibilityFor(role Role) Visibility {
	return workOrderVisibility[role]
}
