package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"gorm.io/datatypes"
)

// Transition names a lifecycle step
type Transition string

const (
	TransitionCreate Transition = "create"
	TransitionAssign Transition = "assign"
	TransitionStart  Transition = "start"
	TransitionFinish Transition = "finish"
	TransitionUpdate Transition = "update"
	TransitionCancel Transition = "cancel"
)

// Payload carries the inputs of a transition. Only the fields a transition uses are read.
type Payload struct {
	AssigneeID   *uuid.UUID         `json:"assigned_to"`
	TimeSpentMin *int               `json:"time_spent_min"`
	PartsUsed    []models.PartUsage `json:"parts_used"`
	Notes        *string            `json:"notes"`
	Description  *string            `json:"description"`
	Priority     *models.Priority   `json:"priority"`
	DueDate      *time.Time         `json:"due_date"`
}

type patchFunc func(ctx context.Context, e *Engine, actor *authz.Actor, p Payload) (repository.Patch, error)

type rule struct {
	from       []models.WorkOrderStatus
	permission authz.Permission
	// owned requires assigned_to = actor in the conditional update
	owned    bool
	validate func(Payload) error
	patch    patchFunc
}

var transitionRules = map[Transition]rule{
	TransitionAssign: {
		from:       []models.WorkOrderStatus{models.StatusOpen, models.StatusAssigned},
		permission: authz.PermWorkOrdersAssign,
		validate:   validateAssign,
		patch:      assignPatch,
	},
	TransitionStart: {
		from:       []models.WorkOrderStatus{models.StatusAssigned, models.StatusOpen},
		permission: authz.PermWorkOrdersStart,
		owned:      true,
		validate:   noValidation,
		patch:      startPatch,
	},
	TransitionFinish: {
		from:       []models.WorkOrderStatus{models.StatusInProgress},
		permission: authz.PermWorkOrdersFinish,
		owned:      true,
		validate:   validateFinish,
		patch:      finishPatch,
	},
	TransitionUpdate: {
		from:       models.NonTerminalStatuses(),
		permission: authz.PermWorkOrdersUpdate,
		validate:   validateUpdate,
		patch:      updatePatch,
	},
	TransitionCancel: {
		from:       models.NonTerminalStatuses(),
		permission: authz.PermWorkOrdersDelete,
		validate:   noValidation,
		patch:      cancelPatch,
	},
}

// AttemptTransition applies t to the work order id as one conditional update.
// A work order of another tenant, in the wrong state or owned by someone else yields errs.ErrNotFound.
func (e *Engine) AttemptTransition(ctx context.Context, actor *authz.Actor, id uuid.UUID, t Transition, p Payload) (wo *models.WorkOrder, err error) {
	defer func() { metrics.WorkOrderTransitions.WithLabelValues(string(t), metrics.OutcomeOf(err)).Inc() }()

	if !actor.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	r, ok := transitionRules[t]
	if !ok {
		return nil, errs.Invalid("transition", "unknown transition")
	}
	if err := r.validate(p); err != nil {
		return nil, err
	}
	if !authz.HasPermission(actor.Role, r.permission) {
		return nil, errs.ErrForbidden
	}

	patch, err := r.patch(ctx, e, actor, p)
	if err != nil {
		return nil, err
	}

	current, err := e.store.WorkOrders().FindOne(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !allowedFrom(r.from, current.Status) {
		return nil, errs.ErrNotFound
	}

	// matching the observed status keeps the event's from_status exact: if the
	// order moved in the meantime the update affects no row and reports NotFound
	match := repository.Conditions{repository.Eq("status", current.Status)}
	if r.owned {
		match = match.And(repository.Eq("assigned_to", actor.ID))
	}

	wo, err = e.store.WorkOrders().ConditionalUpdate(ctx, actor.TenantID, id, match, patch)
	if err != nil {
		return nil, err
	}

	e.emit(ctx, actor, wo, t, current.Status)
	return wo, nil
}

func allowedFrom(from []models.WorkOrderStatus, status models.WorkOrderStatus) bool {
	for _, s := range from {
		if s == status {
			return true
		}
	}
	return false
}

func noValidation(Payload) error { return nil }

func validateAssign(p Payload) error {
	if p.AssigneeID == nil || *p.AssigneeID == uuid.Nil {
		return errs.Invalid("assigned_to", "required")
	}
	return nil
}

func validateFinish(p Payload) error {
	if p.TimeSpentMin != nil && *p.TimeSpentMin < 0 {
		return errs.Invalid("time_spent_min", "must not be negative")
	}
	for _, part := range p.PartsUsed {
		if strings.TrimSpace(part.Name) == "" {
			return errs.Invalid("parts_used", "part name required")
		}
		if part.Quantity <= 0 {
			return errs.Invalid("parts_used", "quantity must be positive")
		}
	}
	return nil
}

func validateUpdate(p Payload) error {
	if p.Description == nil && p.Priority == nil && p.DueDate == nil && p.Notes == nil {
		return errs.Invalid("payload", "no fields to update")
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return errs.Invalid("description", "must not be empty")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return errs.Invalid("priority", "must be one of low, medium, high, critical")
	}
	return nil
}

func assignPatch(ctx context.Context, e *Engine, actor *authz.Actor, p Payload) (repository.Patch, error) {
	if err := checkAssignee(ctx, e.store, actor.TenantID, *p.AssigneeID); err != nil {
		return nil, err
	}
	return repository.Patch{
		"status":      models.StatusAssigned,
		"assigned_to": *p.AssigneeID,
	}, nil
}

func startPatch(_ context.Context, e *Engine, _ *authz.Actor, _ Payload) (repository.Patch, error) {
	return repository.Patch{
		"status":     models.StatusInProgress,
		"started_at": e.now(),
	}, nil
}

func finishPatch(_ context.Context, e *Engine, _ *authz.Actor, p Payload) (repository.Patch, error) {
	patch := repository.Patch{
		"status":      models.StatusCompleted,
		"finished_at": e.now(),
	}
	if p.TimeSpentMin != nil {
		patch["time_spent_min"] = *p.TimeSpentMin
	}
	if len(p.PartsUsed) > 0 {
		patch["parts_used"] = datatypes.JSONSlice[models.PartUsage](p.PartsUsed)
	}
	if p.Notes != nil {
		patch["notes"] = *p.Notes
	}
	return patch, nil
}

func updatePatch(_ context.Context, _ *Engine, _ *authz.Actor, p Payload) (repository.Patch, error) {
	patch := repository.Patch{}
	if p.Description != nil {
		patch["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		patch["priority"] = *p.Priority
	}
	if p.DueDate != nil {
		patch["due_date"] = p.DueDate.UTC()
	}
	if p.Notes != nil {
		patch["notes"] = *p.Notes
	}
	return patch, nil
}

func cancelPatch(_ context.Context, _ *Engine, _ *authz.Actor, p Payload) (repository.Patch, error) {
	patch := repository.Patch{"status": models.StatusCancelled}
	if p.Notes != nil {
		patch["notes"] = *p.Notes
	}
	return patch, nil
}
