package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/dbtest"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
)

func newTenant(t *testing.T, g *repository.Global, slug string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{Name: slug, Slug: slug, IsActive: true}
	if err := g.CreateTenant(context.Background(), tenant, nil); err != nil {
		t.Fatalf("create tenant %s: %v", slug, err)
	}
	return tenant
}

func newMachine(t *testing.T, store repository.Store, tenantID uuid.UUID, code string) *models.Machine {
	t.Helper()
	m := &models.Machine{Code: code, Name: "Press " + code, Status: models.MachineOperational}
	if err := store.Machines().Insert(context.Background(), tenantID, m); err != nil {
		t.Fatalf("insert machine: %v", err)
	}
	return m
}

func TestTenantIsolationWithDuplicateEmails(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewGormStore(db)
	global := repository.NewGlobal(db)
	ctx := context.Background()

	a := newTenant(t, global, "acme")
	b := newTenant(t, global, "globex")

	userA := &models.User{Name: "Ana", Email: "shared@example.com", PasswordHash: "x", Role: authz.RoleOperator, IsActive: true}
	userB := &models.User{Name: "Bo", Email: "shared@example.com", PasswordHash: "x", Role: authz.RoleOperator, IsActive: true}
	if err := store.Users().Insert(ctx, a.ID, userA); err != nil {
		t.Fatalf("insert user A: %v", err)
	}
	if err := store.Users().Insert(ctx, b.ID, userB); err != nil {
		t.Fatalf("same email in another tenant should be allowed: %v", err)
	}

	dup := &models.User{Name: "Ana 2", Email: "shared@example.com", PasswordHash: "x", Role: authz.RoleOperator, IsActive: true}
	if err := store.Users().Insert(ctx, a.ID, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate email in same tenant: got %v, want ErrDuplicate", err)
	}

	found, err := store.Users().Find(ctx, a.ID, repository.Conditions{repository.Eq("email", "shared@example.com")}, repository.PageRequest{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 1 || found[0].ID != userA.ID {
		t.Fatalf("tenant A lookup returned %+v", found)
	}

	if _, err := store.Users().FindOne(ctx, a.ID, userB.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("cross-tenant FindOne: got %v, want ErrNotFound", err)
	}
}

func TestInsertStampsTenant(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewGormStore(db)
	a := newTenant(t, repository.NewGlobal(db), "acme")

	m := &models.Machine{TenantID: uuid.New(), Code: "M-1", Name: "Lathe", Status: models.MachineOperational}
	if err := store.Machines().Insert(context.Background(), a.ID, m); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if m.TenantID != a.ID {
		t.Fatalf("tenant id = %s, want %s", m.TenantID, a.ID)
	}
}

func TestFindReturnsEmptySliceForUnknownTenant(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewGormStore(db)

	got, err := store.WorkOrders().Find(context.Background(), uuid.New(), nil, repository.PageRequest{})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestConditionalUpdate(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewGormStore(db)
	global := repository.NewGlobal(db)
	ctx := context.Background()

	a := newTenant(t, global, "acme")
	b := newTenant(t, global, "globex")
	m := newMachine(t, store, a.ID, "M-1")

	match := repository.Conditions{repository.In("status", models.MachineOperational, models.MachineStopped)}

	t.Run("wrong tenant", func(t *testing.T) {
		_, err := store.Machines().ConditionalUpdate(ctx, b.ID, m.ID, match, repository.Patch{"status": models.MachineInMaintenance})
		if !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("matching state", func(t *testing.T) {
		got, err := store.Machines().ConditionalUpdate(ctx, a.ID, m.ID, match, repository.Patch{"status": models.MachineInMaintenance})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Status != models.MachineInMaintenance {
			t.Fatalf("status = %s", got.Status)
		}
	})

	t.Run("stale state", func(t *testing.T) {
		_, err := store.Machines().ConditionalUpdate(ctx, a.ID, m.ID, match, repository.Patch{"status": models.MachineStopped})
		if !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("immutable columns", func(t *testing.T) {
		_, err := store.Machines().ConditionalUpdate(ctx, a.ID, m.ID, nil, repository.Patch{"tenant_id": b.ID})
		if !errors.Is(err, errs.ErrValidationFailed) {
			t.Fatalf("got %v, want validation error", err)
		}
	})
}

func TestDeleteIsTenantScoped(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewGormStore(db)
	global := repository.NewGlobal(db)
	ctx := context.Background()

	a := newTenant(t, global, "acme")
	b := newTenant(t, global, "globex")
	m := newMachine(t, store, a.ID, "M-1")

	if err := store.Machines().Delete(ctx, b.ID, m.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("cross-tenant delete: got %v", err)
	}
	if err := store.Machines().Delete(ctx, a.ID, m.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Machines().FindOne(ctx, a.ID, m.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("deleted machine still visible: %v", err)
	}
}

func TestTransactRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewGormStore(db)
	a := newTenant(t, repository.NewGlobal(db), "acme")
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.Transact(ctx, func(tx repository.Store) error {
		if err := tx.Machines().Insert(ctx, a.ID, &models.Machine{Code: "M-9", Name: "Mill", Status: models.MachineOperational}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}

	n, err := store.Machines().Count(ctx, a.ID, nil)
	if err != nil || n != 0 {
		t.Fatalf("count = %d, %v; want 0", n, err)
	}
}

func TestGlobalTenantLookups(t *testing.T) {
	db := dbtest.Open(t)
	global := repository.NewGlobal(db)
	ctx := context.Background()

	owner := &models.User{Name: "Owner", Email: "owner@acme.test", PasswordHash: "x", Role: authz.RoleGeneralSupervisor, IsActive: true}
	tenant := &models.Tenant{Name: "Acme", Slug: "acme", IsActive: true}
	if err := global.CreateTenant(ctx, tenant, owner); err != nil {
		t.Fatalf("create: %v", err)
	}
	if owner.TenantID != tenant.ID {
		t.Fatal("owner not stamped with the new tenant")
	}

	if err := global.CreateTenant(ctx, &models.Tenant{Name: "Other", Slug: "acme", IsActive: true}, nil); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("duplicate slug: got %v", err)
	}

	got, err := global.FindTenantBySlug(ctx, "acme")
	if err != nil || got.ID != tenant.ID {
		t.Fatalf("FindTenantBySlug = %+v, %v", got, err)
	}

	updated, err := global.SetTenantActive(ctx, tenant.ID, false)
	if err != nil || updated.IsActive {
		t.Fatalf("SetTenantActive = %+v, %v", updated, err)
	}

	list, total, err := global.ListTenants(ctx, repository.PageRequest{})
	if err != nil || total != 1 || len(list) != 1 {
		t.Fatalf("ListTenants = %d/%d, %v", len(list), total, err)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	p := repository.PageRequest{Page: -3, Limit: 500, OrderBy: "id; drop table users"}.Normalize()
	if p.Page != 1 || p.Limit != repository.MaxLimit || p.OrderBy != "created_at desc" {
		t.Fatalf("normalize = %+v", p)
	}
	if off := (repository.PageRequest{Page: 3, Limit: 10}).Normalize().Offset(); off != 20 {
		t.Fatalf("offset = %d", off)
	}
}

func TestOrderingIsLimitedToSortableColumns(t *testing.T) {
	db := dbtest.Open(t)
	store := repository.NewGormStore(db)
	global := repository.NewGlobal(db)
	ctx := context.Background()
	tenant := newTenant(t, global, "acme")

	for _, email := range []string{"b@acme.test", "a@acme.test"} {
		u := &models.User{Name: email, Email: email, PasswordHash: "x", Role: authz.RoleOperator, IsActive: true}
		if err := store.Users().Insert(ctx, tenant.ID, u); err != nil {
			t.Fatalf("insert %s: %v", email, err)
		}
	}

	users, err := store.Users().Find(ctx, tenant.ID, nil, repository.PageRequest{OrderBy: "email asc"})
	if err != nil || len(users) != 2 || users[0].Email != "a@acme.test" {
		t.Fatalf("order by email: %+v, %v", users, err)
	}

	for _, order := range []string{"password_hash", "password_hash desc", "tenant_id", "no_such_column"} {
		if _, err := store.Users().Find(ctx, tenant.ID, nil, repository.PageRequest{OrderBy: order}); !errors.Is(err, errs.ErrValidationFailed) {
			t.Errorf("order by %q: got %v, want ErrValidationFailed", order, err)
		}
	}

	if _, _, err := global.ListTenants(ctx, repository.PageRequest{OrderBy: "slug desc"}); err != nil {
		t.Fatalf("tenants by slug: %v", err)
	}
	if _, _, err := global.ListTenants(ctx, repository.PageRequest{OrderBy: "is_active"}); !errors.Is(err, errs.ErrValidationFailed) {
		t.Fatalf("tenants by is_active: got %v", err)
	}
}
