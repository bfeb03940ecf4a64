package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

// TenantService administers tenants. Only holders of tenants:create act across tenants;
// everyone else only ever sees their own tenant.
type TenantService struct {
	global    *repository.Global
	directory *TenantDirectory
}

// NewTenantService creates a TenantService
func NewTenantService(global *repository.Global, directory *TenantDirectory) *TenantService {
	return &TenantService{global: global, directory: directory}
}

// TenantInput creates a tenant with its first general supervisor
type TenantInput struct {
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	OwnerName     string `json:"owner_name"`
	OwnerEmail    string `json:"owner_email"`
	OwnerPassword string `json:"owner_password"`
}

// TenantUpdate holds editable tenant fields
type TenantUpdate struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

func platformWide(actor *authz.Actor) bool {
	return authz.HasPermission(actor.Role, authz.PermTenantsCreate)
}

// List returns every tenant for platform administrators and the actor's own tenant otherwise
func (s *TenantService) List(ctx context.Context, actor *authz.Actor, page repository.PageRequest) (*repository.Page[models.Tenant], error) {
	if err := authorize(actor, authz.PermTenantsRead); err != nil {
		return nil, err
	}
	page = page.Normalize()

	if !platformWide(actor) {
		tenant, err := s.global.FindTenant(ctx, actor.TenantID)
		if err != nil {
			return nil, err
		}
		return &repository.Page[models.Tenant]{Items: []models.Tenant{*tenant}, Page: 1, Limit: page.Limit, Total: 1}, nil
	}

	items, total, err := s.global.ListTenants(ctx, page)
	if err != nil {
		return nil, err
	}
	return &repository.Page[models.Tenant]{Items: items, Page: page.Page, Limit: page.Limit, Total: total}, nil
}

// Get returns a tenant. Other tenants look missing to non platform actors.
func (s *TenantService) Get(ctx context.Context, actor *authz.Actor, id uuid.UUID) (*models.Tenant, error) {
	if err := authorize(actor, authz.PermTenantsRead); err != nil {
		return nil, err
	}
	if !platformWide(actor) && id != actor.TenantID {
		return nil, errs.ErrNotFound
	}
	return s.global.FindTenant(ctx, id)
}

// Create registers a tenant and its owner
func (s *TenantService) Create(ctx context.Context, actor *authz.Actor, in TenantInput) (*models.Tenant, *models.User, error) {
	if err := authorize(actor, authz.PermTenantsCreate); err != nil {
		return nil, nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.OwnerName = strings.TrimSpace(in.OwnerName)
	in.OwnerEmail = normalizeEmail(in.OwnerEmail)
	switch {
	case in.Name == "":
		return nil, nil, errs.Invalid("name", "required")
	case !slugPattern.MatchString(in.Slug):
		return nil, nil, errs.Invalid("slug", "lowercase letters, digits and dashes")
	case in.OwnerName == "":
		return nil, nil, errs.Invalid("owner_name", "required")
	case !validEmail(in.OwnerEmail):
		return nil, nil, errs.Invalid("owner_email", "invalid address")
	}
	hash, err := utils.HashPassword(in.OwnerPassword)
	if err != nil {
		return nil, nil, errs.Invalid("owner_password", "at least 8 characters")
	}

	tenant := &models.Tenant{Name: in.Name, Slug: in.Slug, IsActive: true}
	owner := &models.User{
		Name:         in.OwnerName,
		Email:        in.OwnerEmail,
		PasswordHash: hash,
		Role:         authz.RoleGeneralSupervisor,
		IsActive:     true,
	}
	if err := s.global.CreateTenant(ctx, tenant, owner); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, errs.Invalid("slug", "already taken")
		}
		return nil, nil, err
	}
	return tenant, owner, nil
}

// Update renames or (de)activates a tenant. Changing the active flag needs tenants:delete.
func (s *TenantService) Update(ctx context.Context, actor *authz.Actor, id uuid.UUID, in TenantUpdate) (*models.Tenant, error) {
	if err := authorize(actor, authz.PermTenantsUpdate); err != nil {
		return nil, err
	}
	if !platformWide(actor) && id != actor.TenantID {
		return nil, errs.ErrNotFound
	}

	patch := repository.Patch{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errs.Invalid("name", "must not be empty")
		}
		patch["name"] = name
	}
	if in.IsActive != nil {
		if !authz.HasPermission(actor.Role, authz.PermTenantsDelete) {
			return nil, errs.ErrForbidden
		}
		patch["is_active"] = *in.IsActive
	}
	if len(patch) == 0 {
		return nil, errs.Invalid("payload", "no fields to update")
	}

	tenant, err := s.global.UpdateTenant(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.directory.Invalidate(ctx, id)
	return tenant, nil
}
