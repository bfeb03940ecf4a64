package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/accounts"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

// VerifyResponse describes the identity behind a valid token
type VerifyResponse struct {
	Actor       *authz.Actor       `json:"actor"`
	Permissions []authz.Permission `json:"permissions"`
}

// handleSignup registers a tenant with its first user and logs that user in
func handleSignup(sessions *accounts.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accounts.SignupInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		session, err := sessions.Signup(c.Request.Context(), req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.CreatedResponse(c, "Signup successful", session)
	}
}

// handleLogin exchanges credentials for an access token
func handleLogin(sessions *accounts.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accounts.LoginInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		session, err := sessions.Login(c.Request.Context(), req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Login successful", session)
	}
}

// handleVerifyToken reports who the bearer token belongs to
func handleVerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := middleware.ActorFromContext(c)
		utils.OKResponse(c, "Token is valid", VerifyResponse{
			Actor:       actor,
			Permissions: authz.PermissionsFor(actor.Role),
		})
	}
}
