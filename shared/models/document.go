package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document is a file attached to a machine. ObjectKey is opaque to everything but the storage adapter.
type Document struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	MachineID   uuid.UUID `json:"machine_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"not null"`
	ObjectKey   string    `json:"-" gorm:"not null;uniqueIndex"`
	ContentType string    `json:"content_type"`
	UploadedBy  uuid.UUID `json:"uploaded_by" gorm:"type:uuid"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Document) TableName() string {
	return "documents"
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

func (d *Document) SetTenantID(id uuid.UUID) {
	d.TenantID = id
}
