package authz

// Permission is a named capability in the form "<resource>:<action>"
type Permission string

const (
	PermAssetsRead   Permission = "assets:read"
	PermAssetsCreate Permission = "assets:create"
	PermAssetsUpdate Permission = "assets:update"
	PermAssetsDelete Permission = "assets:delete"

	PermDocumentsRead   Permission = "documents:read"
	PermDocumentsUpload Permission = "documents:upload"
	PermDocumentsDelete Permission = "documents:delete"

	PermWorkOrdersRead          Permission = "work_orders:read"
	PermWorkOrdersReadAll       Permission = "work_orders:read_all"
	PermWorkOrdersCreate        Permission = "work_orders:create"
	PermWorkOrdersCreateRequest Permission = "work_orders:create_request"
	PermWorkOrdersUpdate        Permission = "work_orders:update"
	PermWorkOrdersDelete        Permission = "work_orders:delete"
	PermWorkOrdersAssign        Permission = "work_orders:assign"
	PermWorkOrdersStart         Permission = "work_orders:start"
	PermWorkOrdersFinish        Permission = "work_orders:finish"

	PermPreventivePlansRead   Permission = "preventive_plans:read"
	PermPreventivePlansCreate Permission = "preventive_plans:create"
	PermPreventivePlansUpdate Permission = "preventive_plans:update"
	PermPreventivePlansDelete Permission = "preventive_plans:delete"

	PermUsersRead   Permission = "users:read"
	PermUsersCreate Permission = "users:create"
	PermUsersUpdate Permission = "users:update"
	PermUsersDelete Permission = "users:delete"

	PermTenantsRead   Permission = "tenants:read"
	PermTenantsCreate Permission = "tenants:create"
	PermTenantsUpdate Permission = "tenants:update"
	PermTenantsDelete Permission = "tenants:delete"

	PermMetricsRead Permission = "metrics:read"
)

// allPermissions is the closed enumeration, in declaration order.
var allPermissions = []Permission{
	PermAssetsRead, PermAssetsCreate, PermAssetsUpdate, PermAssetsDelete,
	PermDocumentsRead, PermDocumentsUpload, PermDocumentsDelete,
	PermWorkOrdersRead, PermWorkOrdersReadAll, PermWorkOrdersCreate, PermWorkOrdersCreateRequest,
	PermWorkOrdersUpdate, PermWorkOrdersDelete, PermWorkOrdersAssign, PermWorkOrdersStart, PermWorkOrdersFinish,
	PermPreventivePlansRead, PermPreventivePlansCreate, PermPreventivePlansUpdate, PermPreventivePlansDelete,
	PermUsersRead, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
	PermTenantsRead, PermTenantsCreate, PermTenantsUpdate, PermTenantsDelete,
	PermMetricsRead,
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(allPermissions))
	for _, p := range allPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// AllPermissions returns a copy of every declared permission
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

// Valid reports whether p belongs to the declared enumeration
func (p Permission) Valid() bool {
	_, ok := knownPermissions[p]
	return ok
}

func (p Permission) String() string {
	return string(p)
}
