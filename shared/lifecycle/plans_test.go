package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
)

func (f *fixture) createPlan(t *testing.T, due time.Time, days int) *models.PreventivePlan {
	t.Helper()
	plan, err := f.plans.Create(context.Background(), f.actors[authz.RoleMaintenanceSupervisor], PlanInput{
		MachineID:       f.machine.ID,
		Name:            "Monthly lubrication",
		PeriodicityDays: days,
		Checklist: []models.ChecklistItem{
			{Label: "Grease bearings", Required: true},
			{Label: "Check oil level"},
		},
		FirstDueDate: due,
	})
	if err != nil {
		t.Fatalf("create plan: %v", err)
	}
	return plan
}

func TestGenerateKeepsCadenceDespiteMissedCycles(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	supervisor := f.actors[authz.RoleMaintenanceSupervisor]

	// due date far in the past: several cycles were missed
	first := time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)
	plan := f.createPlan(t, first, 30)

	wo, updated, err := f.plans.Generate(ctx, supervisor, plan.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if wo.Type != models.WorkOrderPreventive || wo.Status != models.StatusOpen {
		t.Fatalf("generated %s/%s", wo.Type, wo.Status)
	}
	if wo.DueDate == nil || !wo.DueDate.Equal(first) {
		t.Fatalf("work order due %v, want %v", wo.DueDate, first)
	}
	if wo.PlanID == nil || *wo.PlanID != plan.ID || len(wo.Checklist) != 2 {
		t.Fatalf("plan link or checklist missing: %+v", wo)
	}
	if want := first.AddDate(0, 0, 30); !updated.NextDueDate.Equal(want) {
		t.Fatalf("next due %v, want %v", updated.NextDueDate, want)
	}

	_, updated, err = f.plans.Generate(ctx, supervisor, plan.ID)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if want := first.AddDate(0, 0, 60); !updated.NextDueDate.Equal(want) {
		t.Fatalf("next due %v, want %v", updated.NextDueDate, want)
	}

	page, err := f.engine.List(ctx, supervisor, ListFilter{Type: models.WorkOrderPreventive}, repository.PageRequest{})
	if err != nil || page.Total != 2 {
		t.Fatalf("preventive orders = %d, %v; want 2", page.Total, err)
	}
}

func TestGeneratePermissions(t *testing.T) {
	f := setup(t)
	plan := f.createPlan(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 7)

	for _, role := range []authz.Role{authz.RoleOperator, authz.RoleMaintainer} {
		if _, _, err := f.plans.Generate(context.Background(), f.actors[role], plan.ID); !errors.Is(err, errs.ErrForbidden) {
			t.Errorf("%s generate: got %v, want ErrForbidden", role, err)
		}
	}
	if _, _, err := f.plans.Generate(context.Background(), nil, plan.ID); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("nil actor: got %v", err)
	}
}

func TestGenerateInactiveOrForeignPlan(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	supervisor := f.actors[authz.RoleMaintenanceSupervisor]
	plan := f.createPlan(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 7)

	if _, err := f.plans.Update(ctx, supervisor, plan.ID, PlanUpdate{IsActive: ptr(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, _, err := f.plans.Generate(ctx, supervisor, plan.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("inactive plan: got %v, want ErrNotFound", err)
	}

	foreign := &authz.Actor{ID: uuid.New(), TenantID: uuid.New(), Role: authz.RoleSuperAdmin}
	if _, _, err := f.plans.Generate(ctx, foreign, plan.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("foreign tenant: got %v, want ErrNotFound", err)
	}

	page, err := f.engine.List(ctx, supervisor, ListFilter{}, repository.PageRequest{})
	if err != nil || page.Total != 0 {
		t.Fatalf("failed generations left %d work orders, %v", page.Total, err)
	}
}

func TestPlanCRUD(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	supervisor := f.actors[authz.RoleMaintenanceSupervisor]
	maintainer := f.actors[authz.RoleMaintainer]

	if _, err := f.plans.Create(ctx, supervisor, PlanInput{MachineID: f.machine.ID, Name: "x", PeriodicityDays: 0, FirstDueDate: time.Now()}); !errors.Is(err, errs.ErrValidationFailed) {
		t.Fatalf("zero periodicity: got %v", err)
	}
	if _, err := f.plans.Create(ctx, maintainer, PlanInput{MachineID: f.machine.ID, Name: "x", PeriodicityDays: 1, FirstDueDate: time.Now()}); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("maintainer create: got %v", err)
	}

	plan := f.createPlan(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 14)

	got, err := f.plans.Get(ctx, maintainer, plan.ID)
	if err != nil || got.Name != plan.Name {
		t.Fatalf("maintainer get: %+v, %v", got, err)
	}

	updated, err := f.plans.Update(ctx, supervisor, plan.ID, PlanUpdate{Name: ptr("Bi-weekly lubrication")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Version != plan.Version+1 || updated.Name != "Bi-weekly lubrication" {
		t.Fatalf("update result: %+v", updated)
	}

	active := true
	page, err := f.plans.List(ctx, maintainer, PlanFilter{MachineID: f.machine.ID, Active: &active}, repository.PageRequest{})
	if err != nil || len(page.Items) != 1 {
		t.Fatalf("list: %+v, %v", page, err)
	}

	if err := f.plans.Delete(ctx, maintainer, plan.ID); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("maintainer delete: got %v", err)
	}
	if err := f.plans.Delete(ctx, supervisor, plan.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.plans.Get(ctx, supervisor, plan.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("deleted plan: got %v", err)
	}
}

func TestUpdateNeverRewindsSchedule(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	supervisor := f.actors[authz.RoleMaintenanceSupervisor]
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	plan := f.createPlan(t, due, 30)

	earlier := due.AddDate(-1, 0, 0)
	if _, err := f.plans.Update(ctx, supervisor, plan.ID, PlanUpdate{NextDueDate: &earlier}); !errors.Is(err, errs.ErrValidationFailed) {
		t.Fatalf("rewind: got %v, want ErrValidationFailed", err)
	}
	got, err := f.plans.Get(ctx, supervisor, plan.ID)
	if err != nil || !got.NextDueDate.Equal(due) || got.Version != plan.Version {
		t.Fatalf("plan changed by rejected update: %+v, %v", got, err)
	}

	later := due.AddDate(0, 0, 10)
	updated, err := f.plans.Update(ctx, supervisor, plan.ID, PlanUpdate{NextDueDate: &later})
	if err != nil || !updated.NextDueDate.Equal(later) {
		t.Fatalf("postpone: %+v, %v", updated, err)
	}
}
