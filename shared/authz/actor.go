package authz

import "github.com/google/uuid"

// Actor is the authenticated identity performing an operation
type Actor struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Role     Role      `json:"role"`
}

// Authenticated reports whether the actor carries a usable identity
func (a *Actor) Authenticated() bool {
	return a != nil && a.ID != uuid.Nil && a.TenantID != uuid.Nil && a.Role.Valid()
}

// Can is shorthand for HasPermission on the actor's role
func (a *Actor) Can(p Permission) bool {
	return a.Authenticated() && HasPermission(a.Role, p)
}
