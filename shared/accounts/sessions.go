package accounts

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
	"github.com/sirupsen/logrus"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Session is what a successful signup or login returns
type Session struct {
	Token     string         `json:"access_token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *models.User   `json:"user"`
	Tenant    *models.Tenant `json:"tenant"`
}

// SignupInput registers a new tenant together with its first user
type SignupInput struct {
	TenantName string `json:"tenant_name"`
	TenantSlug string `json:"tenant_slug"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// LoginInput identifies a user by tenant slug and email
type LoginInput struct {
	TenantSlug string `json:"tenant_slug"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

// SessionService issues tokens against stored credentials
type SessionService struct {
	global *repository.Global
	store  repository.Store
	issuer *utils.TokenIssuer
	now    func() time.Time
}

// NewSessionService creates a SessionService
func NewSessionService(global *repository.Global, store repository.Store, issuer *utils.TokenIssuer) *SessionService {
	return &SessionService{
		global: global,
		store:  store,
		issuer: issuer,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Signup creates a tenant and its general supervisor, then logs that user in
func (s *SessionService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.TenantName = strings.TrimSpace(in.TenantName)
	in.TenantSlug = strings.ToLower(strings.TrimSpace(in.TenantSlug))
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	switch {
	case in.TenantName == "":
		return nil, errs.Invalid("tenant_name", "required")
	case !slugPattern.MatchString(in.TenantSlug):
		return nil, errs.Invalid("tenant_slug", "lowercase letters, digits and dashes")
	case in.Name == "":
		return nil, errs.Invalid("name", "required")
	case !validEmail(in.Email):
		return nil, errs.Invalid("email", "invalid address")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, errs.Invalid("password", "at least 8 characters")
	}

	tenant := &models.Tenant{Name: in.TenantName, Slug: in.TenantSlug, IsActive: true}
	owner := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         authz.RoleGeneralSupervisor,
		IsActive:     true,
	}
	if err := s.global.CreateTenant(ctx, tenant, owner); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errs.Invalid("tenant_slug", "already taken")
		}
		return nil, err
	}

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"tenant_id": tenant.ID,
		"user_id":   owner.ID,
	}).Info("Tenant signed up")

	return s.issue(tenant, owner)
}

// Login verifies credentials. Every credential failure is reported as errs.ErrUnauthorized.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (session *Session, err error) {
	defer func() { metrics.AuthLogins.WithLabelValues(loginOutcome(err)).Inc() }()

	tenant, err := s.global.FindTenantBySlug(ctx, strings.ToLower(strings.TrimSpace(in.TenantSlug)))
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive {
		return nil, errs.ErrUnauthorized
	}

	users, err := s.store.Users().Find(ctx, tenant.ID,
		repository.Conditions{repository.Eq("email", normalizeEmail(in.Email))},
		repository.PageRequest{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 || !users[0].IsActive || !utils.CheckPassword(users[0].PasswordHash, in.Password) {
		return nil, errs.ErrUnauthorized
	}

	user, err := s.store.Users().ConditionalUpdate(ctx, tenant.ID, users[0].ID, nil,
		repository.Patch{"last_login_at": s.now()})
	if err != nil {
		return nil, err
	}

	return s.issue(tenant, user)
}

// Authenticator turns bearer tokens into actors
type Authenticator struct {
	issuer    *utils.TokenIssuer
	directory *TenantDirectory
	store     repository.Store
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(issuer *utils.TokenIssuer, directory *TenantDirectory, store repository.Store) *Authenticator {
	return &Authenticator{issuer: issuer, directory: directory, store: store}
}

// Authenticate verifies token against the current tenant and user records.
// Tokens of inactive tenants or of missing and deactivated users are rejected,
// and the role always comes from the stored user, never from the token.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*authz.Actor, error) {
	actor, err := a.issuer.Verify(token)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	if err := a.directory.EnsureActive(ctx, actor.TenantID); err != nil {
		return nil, err
	}

	user, err := a.store.Users().FindOne(ctx, actor.TenantID, actor.ID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.ErrUnauthorized
	}

	actor.Role = user.Role
	return actor, nil
}

func (s *SessionService) issue(tenant *models.Tenant, user *models.User) (*Session, error) {
	token, expires, err := s.issuer.Issue(authz.Actor{ID: user.ID, TenantID: tenant.ID, Role: user.Role})
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: expires, User: user, Tenant: tenant}, nil
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, errs.ErrUnauthorized):
		return "rejected"
	default:
		return metrics.OutcomeError
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
