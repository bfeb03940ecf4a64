package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PreventivePlan schedules recurring preventive work on a machine
type PreventivePlan struct {
	ID              uuid.UUID                          `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID        uuid.UUID                          `json:"tenant_id" gorm:"type:uuid;not null;index"`
	MachineID       uuid.UUID                          `json:"machine_id" gorm:"type:uuid;not null;index"`
	Name            string                             `json:"name" gorm:"not null"`
	PeriodicityDays int                                `json:"periodicity_days" gorm:"not null"`
	Checklist       datatypes.JSONSlice[ChecklistItem] `json:"checklist"`
	NextDueDate     time.Time                          `json:"next_due_date" gorm:"not null"`
	IsActive        bool                               `json:"is_active" gorm:"not null"`
	Version         int                                `json:"version" gorm:"not null"`
	CreatedAt       time.Time                          `json:"created_at"`
	UpdatedAt       time.Time                          `json:"updated_at"`
}

func (PreventivePlan) TableName() string {
	return "preventive_plans"
}

func (p *PreventivePlan) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (p *PreventivePlan) SetTenantID(id uuid.UUID) {
	p.TenantID = id
}
