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

// UserService manages the users of the actor's tenant
type UserService struct {
	store repository.Store
}

// NewUserService creates a UserService
func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// UserInput describes a new user
type UserInput struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     authz.Role `json:"role"`
}

// UserUpdate holds editable user fields. Nil fields are left unchanged.
type UserUpdate struct {
	Name     *string     `json:"name"`
	Role     *authz.Role `json:"role"`
	Password *string     `json:"password"`
	IsActive *bool       `json:"is_active"`
}

// UserFilter narrows a user listing
type UserFilter struct {
	Role   authz.Role
	Active *bool
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

// Me returns the actor's own user record
func (s *UserService) Me(ctx context.Context, actor *authz.Actor) (*models.User, error) {
	if !actor.Authenticated() {
		return nil, errs.ErrUnauthorized
	}
	return s.store.Users().FindOne(ctx, actor.TenantID, actor.ID)
}

// Get returns a user of the actor's tenant
func (s *UserService) Get(ctx context.Context, actor *authz.Actor, id uuid.UUID) (*models.User, error) {
	if err := authorize(actor, authz.PermUsersRead); err != nil {
		return nil, err
	}
	return s.store.Users().FindOne(ctx, actor.TenantID, id)
}

// List returns a page of users of the actor's tenant
func (s *UserService) List(ctx context.Context, actor *authz.Actor, filter UserFilter, page repository.PageRequest) (*repository.Page[models.User], error) {
	if err := authorize(actor, authz.PermUsersRead); err != nil {
		return nil, err
	}

	var conds repository.Conditions
	if filter.Role != "" {
		if !filter.Role.Valid() {
			return nil, errs.Invalid("role", "unknown role")
		}
		conds = append(conds, repository.Eq("role", filter.Role))
	}
	if filter.Active != nil {
		conds = append(conds, repository.Eq("is_active", *filter.Active))
	}
	if page.OrderBy == "" {
		page.OrderBy = "name asc"
	}
	page = page.Normalize()

	items, err := s.store.Users().Find(ctx, actor.TenantID, conds, page)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Users().Count(ctx, actor.TenantID, conds)
	if err != nil {
		return nil, err
	}
	return &repository.Page[models.User]{Items: items, Page: page.Page, Limit: page.Limit, Total: total}, nil
}

// Create adds a user. The actor may only hand out roles it could itself grant.
func (s *UserService) Create(ctx context.Context, actor *authz.Actor, in UserInput) (*models.User, error) {
	if err := authorize(actor, authz.PermUsersCreate); err != nil {
		return nil, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	switch {
	case in.Name == "":
		return nil, errs.Invalid("name", "required")
	case !validEmail(in.Email):
		return nil, errs.Invalid("email", "invalid address")
	case !in.Role.Valid():
		return nil, errs.Invalid("role", "unknown role")
	}
	if !authz.CanGrant(actor.Role, in.Role) {
		return nil, errs.ErrForbidden
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, errs.Invalid("password", "at least 8 characters")
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.store.Users().Insert(ctx, actor.TenantID, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errs.Invalid("email", "unique per tenant")
		}
		return nil, err
	}
	return user, nil
}

// Update edits a user. Both the current and the requested role must be grantable by the actor.
func (s *UserService) Update(ctx context.Context, actor *authz.Actor, id uuid.UUID, in UserUpdate) (*models.User, error) {
	if err := authorize(actor, authz.PermUsersUpdate); err != nil {
		return nil, err
	}

	target, err := s.store.Users().FindOne(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanGrant(actor.Role, target.Role) {
		return nil, errs.ErrForbidden
	}

	patch := repository.Patch{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errs.Invalid("name", "must not be empty")
		}
		patch["name"] = name
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, errs.Invalid("role", "unknown role")
		}
		if !authz.CanGrant(actor.Role, *in.Role) {
			return nil, errs.ErrForbidden
		}
		if target.ID == actor.ID && *in.Role != target.Role {
			return nil, errs.Invalid("role", "cannot change own role")
		}
		patch["role"] = *in.Role
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, errs.Invalid("password", "at least 8 characters")
		}
		patch["password_hash"] = hash
	}
	if in.IsActive != nil {
		if target.ID == actor.ID && !*in.IsActive {
			return nil, errs.Invalid("is_active", "cannot deactivate yourself")
		}
		patch["is_active"] = *in.IsActive
	}
	if len(patch) == 0 {
		return nil, errs.Invalid("payload", "no fields to update")
	}

	return s.store.Users().ConditionalUpdate(ctx, actor.TenantID, id, nil, patch)
}

// Deactivate disables a user. Users are never deleted so work order history keeps its references.
func (s *UserService) Deactivate(ctx context.Context, actor *authz.Actor, id uuid.UUID) (*models.User, error) {
	if err := authorize(actor, authz.PermUsersDelete); err != nil {
		return nil, err
	}
	if id == actor.ID {
		return nil, errs.Invalid("id", "cannot deactivate yourself")
	}

	target, err := s.store.Users().FindOne(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if !authz.CanGrant(actor.Role, target.Role) {
		return nil, errs.ErrForbidden
	}

	return s.store.Users().ConditionalUpdate(ctx, actor.TenantID, id, nil, repository.Patch{"is_active": false})
}
