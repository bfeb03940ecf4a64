// Package accounts handles tenants, their users and credential based sessions.
package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

// TenantCacheTTL bounds how long a deactivation can go unnoticed by other services
const TenantCacheTTL = 5 * time.Minute

// TenantDirectory resolves tenants through a read-through cache
type TenantDirectory struct {
	global *repository.Global
	cache  *utils.Cache
	ttl    time.Duration
}

// NewTenantDirectory creates a TenantDirectory. A disabled cache reads the database every time.
func NewTenantDirectory(global *repository.Global, cache *utils.Cache) *TenantDirectory {
	return &TenantDirectory{global: global, cache: cache, ttl: TenantCacheTTL}
}

// Lookup returns the tenant with id
func (d *TenantDirectory) Lookup(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	key := id.String()
	if data, err := d.cache.Get(ctx, key); err == nil {
		var tenant models.Tenant
		if err := json.Unmarshal(data, &tenant); err == nil {
			return &tenant, nil
		}
	} else if !errors.Is(err, utils.ErrCacheMiss) {
		logging.FromContext(ctx).WithError(err).Warn("Tenant cache read failed")
	}

	tenant, err := d.global.FindTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tenant); err == nil {
		if err := d.cache.Set(ctx, key, data, d.ttl); err != nil {
			logging.FromContext(ctx).WithError(err).Warn("Tenant cache write failed")
		}
	}
	return tenant, nil
}

// EnsureActive returns errs.ErrUnauthorized unless the tenant exists and is active
func (d *TenantDirectory) EnsureActive(ctx context.Context, id uuid.UUID) error {
	tenant, err := d.Lookup(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.ErrUnauthorized
	}
	if err != nil {
		return err
	}
	if !tenant.IsActive {
		return errs.ErrUnauthorized
	}
	return nil
}

// Invalidate drops the cached copy of a tenant
func (d *TenantDirectory) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := d.cache.Delete(ctx, id.String()); err != nil {
		logging.FromContext(ctx).WithError(err).Warn("Tenant cache invalidation failed")
	}
}
