package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/events"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"gorm.io/datatypes"
)

// PlanService manages preventive plans and generates their work orders
type PlanService struct {
	store     repository.Store
	publisher events.Publisher
	now       func() time.Time
}

// NewPlanService creates a PlanService. A nil publisher drops events.
func NewPlanService(store repository.Store, publisher events.Publisher) *PlanService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PlanService{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PlanInput describes a new preventive plan
type PlanInput struct {
	MachineID       uuid.UUID              `json:"machine_id"`
	Name            string                 `json:"name"`
	PeriodicityDays int                    `json:"periodicity_days"`
	Checklist       []models.ChecklistItem `json:"checklist"`
	FirstDueDate    time.Time              `json:"first_due_date"`
}

// PlanUpdate holds the editable plan fields. Nil fields are left unchanged.
type PlanUpdate struct {
	Name            *string                 `json:"name"`
	PeriodicityDays *int                    `json:"periodicity_days"`
	Checklist       *[]models.ChecklistItem `json:"checklist"`
	NextDueDate     *time.Time              `json:"next_due_date"`
	IsActive        *bool                   `json:"is_active"`
}

func validateChecklist(items []models.ChecklistItem) error {
	for _, item := range items {
		if strings.TrimSpace(item.Label) == "" {
			return errs.Invalid("checklist", "item label required")
		}
	}
	return nil
}

func authorize(actor *authz.Actor, perms ...authz.Permission) error {
	if !actor.Authenticated() {
		return errs.ErrUnauthorized
	}
	if !authz.HasAllPermissions(actor.Role, perms...) {
		return errs.ErrForbidden
	}
	return nil
}

// Create stores a new active plan for a machine of the actor's tenant
func (s *PlanService) Create(ctx context.Context, actor *authz.Actor, in PlanInput) (*models.PreventivePlan, error) {
	if err := authorize(actor, authz.PermPreventivePlansCreate); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.MachineID == uuid.Nil:
		return nil, errs.Invalid("machine_id", "required")
	case in.Name == "":
		return nil, errs.Invalid("name", "required")
	case in.PeriodicityDays <= 0:
		return nil, errs.Invalid("periodicity_days", "must be positive")
	case in.FirstDueDate.IsZero():
		return nil, errs.Invalid("first_due_date", "required")
	}
	if err := validateChecklist(in.Checklist); err != nil {
		return nil, err
	}

	if _, err := s.store.Machines().FindOne(ctx, actor.TenantID, in.MachineID); err != nil {
		return nil, err
	}

	plan := &models.PreventivePlan{
		MachineID:       in.MachineID,
		Name:            in.Name,
		PeriodicityDays: in.PeriodicityDays,
		Checklist:       datatypes.JSONSlice[models.ChecklistItem](in.Checklist),
		NextDueDate:     in.FirstDueDate.UTC(),
		IsActive:        true,
		Version:         1,
	}
	if err := s.store.Plans().Insert(ctx, actor.TenantID, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Get returns one plan of the actor's tenant
func (s *PlanService) Get(ctx context.Context, actor *authz.Actor, id uuid.UUID) (*models.PreventivePlan, error) {
	if err := authorize(actor, authz.PermPreventivePlansRead); err != nil {
		return nil, err
	}
	return s.store.Plans().FindOne(ctx, actor.TenantID, id)
}

// PlanFilter narrows a plan listing
type PlanFilter struct {
	MachineID uuid.UUID
	Active    *bool
}

// List returns a page of plans of the actor's tenant
func (s *PlanService) List(ctx context.Context, actor *authz.Actor, filter PlanFilter, page repository.PageRequest) (*repository.Page[models.PreventivePlan], error) {
	if err := authorize(actor, authz.PermPreventivePlansRead); err != nil {
		return nil, err
	}

	var conds repository.Conditions
	if filter.MachineID != uuid.Nil {
		conds = append(conds, repository.Eq("machine_id", filter.MachineID))
	}
	if filter.Active != nil {
		conds = append(conds, repository.Eq("is_active", *filter.Active))
	}

	if page.OrderBy == "" {
		page.OrderBy = "next_due_date asc"
	}
	page = page.Normalize()

	items, err := s.store.Plans().Find(ctx, actor.TenantID, conds, page)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Plans().Count(ctx, actor.TenantID, conds)
	if err != nil {
		return nil, err
	}
	return &repository.Page[models.PreventivePlan]{Items: items, Page: page.Page, Limit: page.Limit, Total: total}, nil
}

// Update edits a plan. Concurrent edits are detected through the version counter.
func (s *PlanService) Update(ctx context.Context, actor *authz.Actor, id uuid.UUID, in PlanUpdate) (*models.PreventivePlan, error) {
	if err := authorize(actor, authz.PermPreventivePlansUpdate); err != nil {
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
	if in.PeriodicityDays != nil {
		if *in.PeriodicityDays <= 0 {
			return nil, errs.Invalid("periodicity_days", "must be positive")
		}
		patch["periodicity_days"] = *in.PeriodicityDays
	}
	if in.Checklist != nil {
		if err := validateChecklist(*in.Checklist); err != nil {
			return nil, err
		}
		patch["checklist"] = datatypes.JSONSlice[models.ChecklistItem](*in.Checklist)
	}
	if in.NextDueDate != nil {
		patch["next_due_date"] = in.NextDueDate.UTC()
	}
	if in.IsActive != nil {
		patch["is_active"] = *in.IsActive
	}
	if len(patch) == 0 {
		return nil, errs.Invalid("payload", "no fields to update")
	}

	current, err := s.store.Plans().FindOne(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	// the schedule only moves forward; postponing is allowed, rewinding is not
	if in.NextDueDate != nil && in.NextDueDate.Before(current.NextDueDate) {
		return nil, errs.Invalid("next_due_date", "must not move backward")
	}
	patch["version"] = current.Version + 1

	return s.store.Plans().ConditionalUpdate(ctx, actor.TenantID, id,
		repository.Conditions{repository.Eq("version", current.Version)}, patch)
}

// Delete removes a plan. Work orders it generated are kept.
func (s *PlanService) Delete(ctx context.Context, actor *authz.Actor, id uuid.UUID) error {
	if err := authorize(actor, authz.PermPreventivePlansDelete); err != nil {
		return err
	}
	return s.store.Plans().Delete(ctx, actor.TenantID, id)
}

// Generate creates the preventive work order due on the plan's next due date D
// and moves the plan to D + periodicity. Cadence never drifts toward the current date.
// A concurrent generation of the same plan loses with errs.ErrNotFound.
func (s *PlanService) Generate(ctx context.Context, actor *authz.Actor, id uuid.UUID) (wo *models.WorkOrder, plan *models.PreventivePlan, err error) {
	defer func() { metrics.PreventiveGenerations.WithLabelValues(metrics.OutcomeOf(err)).Inc() }()

	if err := authorize(actor, authz.PermWorkOrdersCreate, authz.PermPreventivePlansUpdate); err != nil {
		return nil, nil, err
	}

	err = s.store.Transact(ctx, func(tx repository.Store) error {
		current, err := tx.Plans().FindOne(ctx, actor.TenantID, id)
		if err != nil {
			return err
		}

		due := current.NextDueDate.UTC()
		plan, err = tx.Plans().ConditionalUpdate(ctx, actor.TenantID, id,
			repository.Conditions{
				repository.Eq("is_active", true),
				repository.Eq("version", current.Version),
			},
			repository.Patch{
				"next_due_date": due.AddDate(0, 0, current.PeriodicityDays),
				"version":       current.Version + 1,
			})
		if err != nil {
			return err
		}

		planID := current.ID
		wo = &models.WorkOrder{
			MachineID:   current.MachineID,
			PlanID:      &planID,
			Type:        models.WorkOrderPreventive,
			Status:      models.StatusOpen,
			Priority:    models.PriorityMedium,
			Description: current.Name,
			DueDate:     &due,
			Checklist:   current.Checklist,
			CreatedBy:   actor.ID,
		}
		return tx.WorkOrders().Insert(ctx, actor.TenantID, wo)
	})
	if err != nil {
		return nil, nil, err
	}

	publish(ctx, s.publisher, events.WorkOrderEvent{
		ID:          uuid.New(),
		TenantID:    wo.TenantID,
		WorkOrderID: wo.ID,
		ActorID:     actor.ID,
		Transition:  string(TransitionCreate),
		ToStatus:    string(wo.Status),
		OccurredAt:  s.now(),
	})
	return wo, plan, nil
}
