package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/accounts"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

func handleMe(svc *accounts.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Me(c.Request.Context(), middleware.ActorFromContext(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "User retrieved successfully", user)
	}
}

func handleListUsers(svc *accounts.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, ok := queryBool(c, "active")
		if !ok {
			return
		}
		filter := accounts.UserFilter{Role: authz.Role(c.Query("role")), Active: active}

		page, err := svc.List(c.Request.Context(), middleware.ActorFromContext(c), filter, pageFromQuery(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Users retrieved successfully", page)
	}
}

func handleGetUser(svc *accounts.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		user, err := svc.Get(c.Request.Context(), middleware.ActorFromContext(c), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "User retrieved successfully", user)
	}
}

func handleCreateUser(svc *accounts.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accounts.UserInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		user, err := svc.Create(c.Request.Context(), middleware.ActorFromContext(c), req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.CreatedResponse(c, "User created successfully", user)
	}
}

func handleUpdateUser(svc *accounts.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req accounts.UserUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		user, err := svc.Update(c.Request.Context(), middleware.ActorFromContext(c), id, req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "User updated successfully", user)
	}
}

// handleDeactivateUser answers DELETE; users are deactivated, not removed
func handleDeactivateUser(svc *accounts.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		user, err := svc.Deactivate(c.Request.Context(), middleware.ActorFromContext(c), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "User deactivated successfully", user)
	}
}
