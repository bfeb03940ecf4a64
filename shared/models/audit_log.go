package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is the persisted trail of work order lifecycle events
type AuditLog struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	EventID     uuid.UUID `json:"event_id" gorm:"type:uuid;not null;uniqueIndex"`
	WorkOrderID uuid.UUID `json:"work_order_id" gorm:"type:uuid;not null;index"`
	ActorID     uuid.UUID `json:"actor_id" gorm:"type:uuid;not null"`
	Transition  string    `json:"transition" gorm:"type:varchar(20);not null"`
	FromStatus  string    `json:"from_status" gorm:"type:varchar(20)"`
	ToStatus    string    `json:"to_status" gorm:"type:varchar(20);not null"`
	OccurredAt  time.Time `json:"occurred_at" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (a *AuditLog) SetTenantID(id uuid.UUID) {
	a.TenantID = id
}
