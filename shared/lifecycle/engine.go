// Package lifecycle owns the work order state machine and preventive plan scheduling.
package lifecycle

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/events"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/sirupsen/logrus"
)

// Engine applies guarded lifecycle transitions to work orders.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	store     repository.Store
	publisher events.Publisher
	now       func() time.Time
}

// NewEngine creates an Engine. A nil publisher drops events.
func NewEngine(store repository.Store, publisher events.Publisher) *Engine {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Engine{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes a new work order
type CreateInput struct {
	MachineID   uuid.UUID            `json:"machine_id"`
	Type        models.WorkOrderType `json:"type"`
	Priority    models.Priority      `json:"priority"`
	Description string               `json:"description"`
	AssigneeID  *uuid.UUID           `json:"assigned_to"`
	DueDate     *time.Time           `json:"due_date"`
}

func (in *CreateInput) normalize() error {
	in.Description = strings.TrimSpace(in.Description)
	if in.MachineID == uuid.Nil {
		return errs.Invalid("machine_id", "required")
	}
	if in.Description == "" {
		return errs.Invalid("description", "required")
	}
	if in.Type == "" {
		in.Type = models.WorkOrderCorrective
	}
	if !in.Type.Valid() {
		return errs.Invalid("type", "must be one of corrective, preventive, request")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Priority.Valid() {
		return errs.Invalid("priority", "must be one of low, medium, high, critical")
	}
	if in.AssigneeID != nil && *in.AssigneeID == uuid.Nil {
		return errs.Invalid("assigned_to", "must be a user id")
	}
	return nil
}

// Create opens a work order. Actors holding only work_orders:create_request always create requests.
func (e *Engine) Create(ctx context.Context, actor *authz.Actor, in CreateInput) (wo *models.WorkOrder, err error) {
	defer func() { metrics.WorkOrderTransitions.WithLabelValues("create", metrics.OutcomeOf(err)).Inc() }()

	if !actor.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if !authz.HasAnyPermission(actor.Role, authz.PermWorkOrdersCreate, authz.PermWorkOrdersCreateRequest) {
		return nil, errs.ErrForbidden
	}
	if !authz.HasPermission(actor.Role, authz.PermWorkOrdersCreate) {
		in.Type = models.WorkOrderRequest
	}
	if in.AssigneeID != nil && !authz.HasPermission(actor.Role, authz.PermWorkOrdersAssign) {
		return nil, errs.ErrForbidden
	}

	if _, err := e.store.Machines().FindOne(ctx, actor.TenantID, in.MachineID); err != nil {
		return nil, err
	}

	wo = &models.WorkOrder{
		MachineID:   in.MachineID,
		Type:        in.Type,
		Status:      models.StatusOpen,
		Priority:    in.Priority,
		Description: in.Description,
		DueDate:     in.DueDate,
		CreatedBy:   actor.ID,
	}
	if in.AssigneeID != nil {
		if err := checkAssignee(ctx, e.store, actor.TenantID, *in.AssigneeID); err != nil {
			return nil, err
		}
		wo.AssignedTo = in.AssigneeID
		wo.Status = models.StatusAssigned
	}

	if err := e.store.WorkOrders().Insert(ctx, actor.TenantID, wo); err != nil {
		return nil, err
	}

	e.emit(ctx, actor, wo, TransitionCreate, "")
	return wo, nil
}

// Get returns a work order the actor is allowed to see
func (e *Engine) Get(ctx context.Context, actor *authz.Actor, id uuid.UUID) (*models.WorkOrder, error) {
	conds, err := readConditions(actor)
	if err != nil {
		return nil, err
	}

	found, err := e.store.WorkOrders().Find(ctx, actor.TenantID, conds.And(repository.Eq("id", id)), repository.PageRequest{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, errs.ErrNotFound
	}
	return &found[0], nil
}

// ListFilter narrows a work order listing. Zero fields are ignored.
type ListFilter struct {
	Status     models.WorkOrderStatus
	Type       models.WorkOrderType
	Priority   models.Priority
	MachineID  uuid.UUID
	AssignedTo uuid.UUID
}

func (f ListFilter) conditions() (repository.Conditions, error) {
	var conds repository.Conditions
	if f.Status != "" {
		if !f.Status.Valid() {
			return nil, errs.Invalid("status", "unknown value")
		}
		conds = append(conds, repository.Eq("status", f.Status))
	}
	if f.Type != "" {
		if !f.Type.Valid() {
			return nil, errs.Invalid("type", "unknown value")
		}
		conds = append(conds, repository.Eq("type", f.Type))
	}
	if f.Priority != "" {
		if !f.Priority.Valid() {
			return nil, errs.Invalid("priority", "unknown value")
		}
		conds = append(conds, repository.Eq("priority", f.Priority))
	}
	if f.MachineID != uuid.Nil {
		conds = append(conds, repository.Eq("machine_id", f.MachineID))
	}
	if f.AssignedTo != uuid.Nil {
		conds = append(conds, repository.Eq("assigned_to", f.AssignedTo))
	}
	return conds, nil
}

// List returns the page of work orders visible to actor that match filter
func (e *Engine) List(ctx context.Context, actor *authz.Actor, filter ListFilter, page repository.PageRequest) (*repository.Page[models.WorkOrder], error) {
	visible, err := readConditions(actor)
	if err != nil {
		return nil, err
	}
	extra, err := filter.conditions()
	if err != nil {
		return nil, err
	}
	conds := visible.And(extra...)
	page = page.Normalize()

	items, err := e.store.WorkOrders().Find(ctx, actor.TenantID, conds, page)
	if err != nil {
		return nil, err
	}
	total, err := e.store.WorkOrders().Count(ctx, actor.TenantID, conds)
	if err != nil {
		return nil, err
	}

	return &repository.Page[models.WorkOrder]{Items: items, Page: page.Page, Limit: page.Limit, Total: total}, nil
}

// readConditions turns the actor's visibility scope into query predicates
func readConditions(actor *authz.Actor) (repository.Conditions, error) {
	if !actor.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	if !authz.HasPermission(actor.Role, authz.PermWorkOrdersRead) {
		return nil, errs.ErrForbidden
	}

	switch authz.VisibilityFor(actor.Role) {
	case authz.VisibilityTenant:
		return repository.Conditions{}, nil
	case authz.VisibilityAssigned:
		return repository.Conditions{repository.Eq("assigned_to", actor.ID)}, nil
	case authz.VisibilityRequests:
		return repository.Conditions{repository.Eq("type", models.WorkOrderRequest)}, nil
	default:
		return nil, errs.ErrForbidden
	}
}

// checkAssignee verifies that id is an active user of tenantID able to execute work
func checkAssignee(ctx context.Context, store repository.Store, tenantID, id uuid.UUID) error {
	user, err := store.Users().FindOne(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return errs.Invalid("assigned_to", "user is inactive")
	}
	if !authz.HasPermission(user.Role, authz.PermWorkOrdersStart) {
		return errs.Invalid("assigned_to", "user cannot execute work orders")
	}
	return nil
}

func (e *Engine) emit(ctx context.Context, actor *authz.Actor, wo *models.WorkOrder, t Transition, from models.WorkOrderStatus) {
	publish(ctx, e.publisher, events.WorkOrderEvent{
		ID:          uuid.New(),
		TenantID:    wo.TenantID,
		WorkOrderID: wo.ID,
		ActorID:     actor.ID,
		Transition:  string(t),
		FromStatus:  string(from),
		ToStatus:    string(wo.Status),
		OccurredAt:  e.now(),
	})
}

func publish(ctx context.Context, publisher events.Publisher, event events.WorkOrderEvent) {
	entry := logging.FromContext(ctx).WithFields(logrus.Fields{
		"tenant_id":     event.TenantID,
		"work_order_id": event.WorkOrderID,
		"transition":    event.Transition,
		"actor_id":      event.ActorID,
		"to_status":     event.ToStatus,
	})
	entry.Info("Work order transition applied")

	if err := publisher.Publish(ctx, event); err != nil {
		entry.WithError(err).Warn("Failed to queue work order event")
	}
}
