package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MachineStatus is the operating condition of a machine
type MachineStatus string

const (
	MachineOperational    MachineStatus = "operational"
	MachineInMaintenance  MachineStatus = "maintenance"
	MachineStopped        MachineStatus = "stopped"
	MachineDecommissioned MachineStatus = "decommissioned"
)

// Valid reports whether s is a known machine status
func (s MachineStatus) Valid() bool {
	switch s {
	case MachineOperational, MachineInMaintenance, MachineStopped, MachineDecommissioned:
		return true
	}
	return false
}

// Machine is a maintained asset. Code is unique within a tenant.
type Machine struct {
	ID           uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     uuid.UUID     `json:"tenant_id" gorm:"type:uuid;not null;uniqueIndex:idx_machines_tenant_code"`
	Code         string        `json:"code" gorm:"type:varchar(64);not null;uniqueIndex:idx_machines_tenant_code"`
	Name         string        `json:"name" gorm:"not null"`
	Location     string        `json:"location"`
	Manufacturer string        `json:"manufacturer"`
	Model        string        `json:"model"`
	SerialNumber string        `json:"serial_number"`
	Status       MachineStatus `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (Machine) TableName() string {
	return "machines"
}

func (m *Machine) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

func (m *Machine) SetTenantID(id uuid.UUID) {
	m.TenantID = id
}
