package models

import "github.com/google/uuid"

// TenantScoped is implemented by every record stored under a tenant
type TenantScoped interface {
	SetTenantID(id uuid.UUID)
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All returns every model for migrations
func All() []interface{} {
	return []interface{}{
		&Tenant{},
		&User{},
		&Machine{},
		&Document{},
		&WorkOrder{},
		&PreventivePlan{},
		&AuditLog{},
	}
}
