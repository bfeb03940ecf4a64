package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
	"github.com/sirupsen/logrus"
)

const actorKey = "actor"

// Authenticator resolves a bearer token to the acting identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*authz.Actor, error)
}

// AuthMiddleware handles bearer token validation and permission checks
type AuthMiddleware struct {
	auth Authenticator
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// RequireAuth validates the bearer token and stores the actor in the context
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		actor, err := am.auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			if errors.Is(err, errs.ErrUnauthorized) {
				utils.UnauthorizedResponse(c, "Invalid token")
			} else {
				utils.RespondError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(actorKey, actor)
		c.Set("user_id", actor.ID.String())
		c.Set("tenant_id", actor.TenantID.String())
		c.Set("role", string(actor.Role))

		entry := logging.FromContext(c.Request.Context()).WithFields(logrus.Fields{
			"user_id":   actor.ID,
			"tenant_id": actor.TenantID,
		})
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), entry))

		c.Next()
	}
}

// RequirePermission lets the request through only when the actor holds every permission
func (am *AuthMiddleware) RequirePermission(permissions ...authz.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor == nil {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}
		if !authz.HasAllPermissions(actor.Role, permissions...) {
			utils.RespondError(c, errs.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnyPermission lets the request through when the actor holds at least one permission
func (am *AuthMiddleware) RequireAnyPermission(permissions ...authz.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFromContext(c)
		if actor == nil {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}
		if !authz.HasAnyPermission(actor.Role, permissions...) {
			utils.RespondError(c, errs.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the actor set by RequireAuth, or nil
func ActorFromContext(c *gin.Context) *authz.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*authz.Actor)
	return actor
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return authHeader
}
