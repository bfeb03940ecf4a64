package models

// Sortable lists the columns a listing of the record may be ordered by.
// Secret or internal columns are never sortable.
type Sortable interface {
	SortColumns() []string
}

func (Tenant) SortColumns() []string { return []string{"name", "slug", "created_at"} }

func (User) SortColumns() []string {
	return []string{"name", "email", "role", "last_login_at", "created_at"}
}

func (Machine) SortColumns() []string {
	return []string{"code", "name", "location", "status", "created_at", "updated_at"}
}

func (Document) SortColumns() []string { return []string{"name", "content_type", "created_at"} }

func (WorkOrder) SortColumns() []string {
	return []string{"created_at", "updated_at", "due_date", "priority", "status", "type", "started_at", "finished_at"}
}

func (PreventivePlan) SortColumns() []string {
	return []string{"name", "next_due_date", "periodicity_days", "created_at", "updated_at"}
}

func (AuditLog) SortColumns() []string { return []string{"occurred_at", "created_at"} }
