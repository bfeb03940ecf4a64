// Package assets manages the machines of a tenant.
package assets

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
)

// MachineService exposes tenant scoped machine operations
type MachineService struct {
	store repository.Store
}

// NewMachineService creates a MachineService
func NewMachineService(store repository.Store) *MachineService {
	return &MachineService{store: store}
}

// MachineInput describes a new machine
type MachineInput struct {
	Code         string               `json:"code"`
	Name         string               `json:"name"`
	Location     string               `json:"location"`
	Manufacturer string               `json:"manufacturer"`
	Model        string               `json:"model"`
	SerialNumber string               `json:"serial_number"`
	Status       models.MachineStatus `json:"status"`
}

// MachineUpdate holds editable fields. Nil fields are left unchanged.
type MachineUpdate struct {
	Name         *string               `json:"name"`
	Location     *string               `json:"location"`
	Manufacturer *string               `json:"manufacturer"`
	Model        *string               `json:"model"`
	SerialNumber *string               `json:"serial_number"`
	Status       *models.MachineStatus `json:"status"`
}

func authorize(actor *authz.Actor, p authz.Permission) error {
	if !actor.Authenticated() {
		return errs.ErrUnauthorized
	}
	if !authz.HasPermission(actor.Role, p) {
		return errs.ErrForbidden
	}
	return nil
}

// Create registers a machine. Codes are unique per tenant.
func (s *MachineService) Create(ctx context.Context, actor *authz.Actor, in MachineInput) (*models.Machine, error) {
	if err := authorize(actor, authz.PermAssetsCreate); err != nil {
		return nil, err
	}

	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" {
		return nil, errs.Invalid("code", "required")
	}
	if in.Name == "" {
		return nil, errs.Invalid("name", "required")
	}
	if in.Status == "" {
		in.Status = models.MachineOperational
	}
	if !in.Status.Valid() {
		return nil, errs.Invalid("status", "unknown value")
	}

	m := &models.Machine{
		Code:         in.Code,
		Name:         in.Name,
		Location:     in.Location,
		Manufacturer: in.Manufacturer,
		Model:        in.Model,
		SerialNumber: in.SerialNumber,
		Status:       in.Status,
	}
	if err := s.store.Machines().Insert(ctx, actor.TenantID, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errs.Invalid("code", "already used in this tenant")
		}
		return nil, err
	}
	return m, nil
}

// Get returns one machine of the actor's tenant
func (s *MachineService) Get(ctx context.Context, actor *authz.Actor, id uuid.UUID) (*models.Machine, error) {
	if err := authorize(actor, authz.PermAssetsRead); err != nil {
		return nil, err
	}
	return s.store.Machines().FindOne(ctx, actor.TenantID, id)
}

// List returns a page of machines, optionally narrowed to one status
func (s *MachineService) List(ctx context.Context, actor *authz.Actor, status models.MachineStatus, page repository.PageRequest) (*repository.Page[models.Machine], error) {
	if err := authorize(actor, authz.PermAssetsRead); err != nil {
		return nil, err
	}

	var conds repository.Conditions
	if status != "" {
		if !status.Valid() {
			return nil, errs.Invalid("status", "unknown value")
		}
		conds = append(conds, repository.Eq("status", status))
	}
	if page.OrderBy == "" {
		page.OrderBy = "code asc"
	}
	page = page.Normalize()

	items, err := s.store.Machines().Find(ctx, actor.TenantID, conds, page)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Machines().Count(ctx, actor.TenantID, conds)
	if err != nil {
		return nil, err
	}
	return &repository.Page[models.Machine]{Items: items, Page: page.Page, Limit: page.Limit, Total: total}, nil
}

// Update edits a machine
func (s *MachineService) Update(ctx context.Context, actor *authz.Actor, id uuid.UUID, in MachineUpdate) (*models.Machine, error) {
	if err := authorize(actor, authz.PermAssetsUpdate); err != nil {
		return nil, err
	}

	patch := repository.Patch{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errs.Invalid("name", "must not be empty")
		}
		patch["name"] = name
	}
	if in.Location != nil {
		patch["location"] = *in.Location
	}
	if in.Manufacturer != nil {
		patch["manufacturer"] = *in.Manufacturer
	}
	if in.Model != nil {
		patch["model"] = *in.Model
	}
	if in.SerialNumber != nil {
		patch["serial_number"] = *in.SerialNumber
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, errs.Invalid("status", "unknown value")
		}
		patch["status"] = *in.Status
	}
	if len(patch) == 0 {
		return nil, errs.Invalid("payload", "no fields to update")
	}

	return s.store.Machines().ConditionalUpdate(ctx, actor.TenantID, id, nil, patch)
}

// Delete removes a machine that has no open work
func (s *MachineService) Delete(ctx context.Context, actor *authz.Actor, id uuid.UUID) error {
	if err := authorize(actor, authz.PermAssetsDelete); err != nil {
		return err
	}

	return s.store.Transact(ctx, func(tx repository.Store) error {
		active, err := tx.WorkOrders().Count(ctx, actor.TenantID, repository.Conditions{
			repository.Eq("machine_id", id),
			repository.In("status", models.NonTerminalStatuses()...),
		})
		if err != nil {
			return err
		}
		if active > 0 {
			return errs.Invalid("machine", "has open work orders")
		}
		return tx.Machines().Delete(ctx, actor.TenantID, id)
	})
}
