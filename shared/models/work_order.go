package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WorkOrderType classifies why a work order exists
type WorkOrderType string

const (
	WorkOrderCorrective WorkOrderType = "corrective"
	WorkOrderPreventive WorkOrderType = "preventive"
	WorkOrderRequest    WorkOrderType = "request"
)

func (t WorkOrderType) Valid() bool {
	switch t {
	case WorkOrderCorrective, WorkOrderPreventive, WorkOrderRequest:
		return true
	}
	return false
}

// WorkOrderStatus is a lifecycle state
type WorkOrderStatus string

const (
	StatusOpen       WorkOrderStatus = "open"
	StatusAssigned   WorkOrderStatus = "assigned"
	StatusInProgress WorkOrderStatus = "in_progress"
	StatusCompleted  WorkOrderStatus = "completed"
	StatusCancelled  WorkOrderStatus = "cancelled"
)

func (s WorkOrderStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s WorkOrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// NonTerminalStatuses lists every state a transition may start from
func NonTerminalStatuses() []WorkOrderStatus {
	return []WorkOrderStatus{StatusOpen, StatusAssigned, StatusInProgress}
}

// Priority of a work order
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// PartUsage records a spare part consumed while finishing a work order
type PartUsage struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ChecklistItem is one step of a preventive routine
type ChecklistItem struct {
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// WorkOrder is a unit of maintenance work against a machine
type WorkOrder struct {
	ID           uuid.UUID                          `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID                          `json:"tenant_id" gorm:"type:uuid;not null;index:idx_work_orders_tenant_status"`
	MachineID    uuid.UUID                          `json:"machine_id" gorm:"type:uuid;not null;index"`
	PlanID       *uuid.UUID                         `json:"plan_id,omitempty" gorm:"type:uuid;index"`
	Type         WorkOrderType                      `json:"type" gorm:"type:varchar(20);not null"`
	Status       WorkOrderStatus                    `json:"status" gorm:"type:varchar(20);not null;index:idx_work_orders_tenant_status"`
	Priority     Priority                           `json:"priority" gorm:"type:varchar(20);not null"`
	Description  string                             `json:"description" gorm:"type:text;not null"`
	AssignedTo   *uuid.UUID                         `json:"assigned_to,omitempty" gorm:"type:uuid;index"`
	DueDate      *time.Time                         `json:"due_date,omitempty"`
	StartedAt    *time.Time                         `json:"started_at,omitempty"`
	FinishedAt   *time.Time                         `json:"finished_at,omitempty"`
	TimeSpentMin *int                               `json:"time_spent_min,omitempty"`
	PartsUsed    datatypes.JSONSlice[PartUsage]     `json:"parts_used,omitempty"`
	Checklist    datatypes.JSONSlice[ChecklistItem] `json:"checklist,omitempty"`
	Notes        string                             `json:"notes" gorm:"type:text"`
	CreatedBy    uuid.UUID                          `json:"created_by" gorm:"type:uuid;not null"`
	CreatedAt    time.Time                          `json:"created_at"`
	UpdatedAt    time.Time                          `json:"updated_at"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

func (w *WorkOrder) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	return nil
}

func (w *WorkOrder) SetTenantID(id uuid.UUID) {
	w.TenantID = id
}
