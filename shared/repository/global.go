package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"gorm.io/gorm"
)

// Global holds the only queries that run without a tenant filter.
// They serve platform administration and the pre-authentication tenant lookup.
type Global struct {
	db *gorm.DB
}

// NewGlobal creates the tenant-unfiltered repository
func NewGlobal(db *gorm.DB) *Global {
	return &Global{db: db}
}

// ListTenants returns a page of tenants across the platform
func (g *Global) ListTenants(ctx context.Context, page PageRequest) ([]models.Tenant, int64, error) {
	page = page.Normalize()
	order, err := orderFor(&models.Tenant{}, page.OrderBy)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := g.db.WithContext(ctx).Model(&models.Tenant{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count tenants: %w", err)
	}

	tenants := []models.Tenant{}
	err = g.db.WithContext(ctx).
		Order(order).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&tenants).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, total, nil
}

// FindTenant returns a tenant by id
func (g *Global) FindTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if id == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	var tenant models.Tenant
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error; err != nil {
		return nil, translate(err)
	}
	return &tenant, nil
}

// FindTenantBySlug returns a tenant by its unique slug
func (g *Global) FindTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	if slug == "" {
		return nil, errs.ErrNotFound
	}
	var tenant models.Tenant
	if err := g.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error; err != nil {
		return nil, translate(err)
	}
	return &tenant, nil
}

// CreateTenant stores a tenant and, when owner is not nil, its first user in one transaction
func (g *Global) CreateTenant(ctx context.Context, tenant *models.Tenant, owner *models.User) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return translate(err)
		}
		if owner == nil {
			return nil
		}
		return NewGormRepository[models.User](tx).Insert(ctx, tenant.ID, owner)
	})
}

// SetTenantActive flips the active flag of a tenant
func (g *Global) SetTenantActive(ctx context.Context, id uuid.UUID, active bool) (*models.Tenant, error) {
	return g.UpdateTenant(ctx, id, Patch{"is_active": active})
}

// UpdateTenant applies patch to a tenant
func (g *Global) UpdateTenant(ctx context.Context, id uuid.UUID, patch Patch) (*models.Tenant, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, errs.ErrNotFound
	}
	res := g.db.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", id).Updates(patch.normalized())
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errs.ErrNotFound
	}
	return g.FindTenant(ctx, id)
}
