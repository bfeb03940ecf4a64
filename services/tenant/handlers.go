package main

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/accounts"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

// CreateTenantResponse holds the new tenant and its owner
type CreateTenantResponse struct {
	Tenant *models.Tenant `json:"tenant"`
	Owner  *models.User   `json:"owner"`
}

// handleCreateTenant handles tenant creation (platform administrators only)
func handleCreateTenant(tenants *accounts.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req accounts.TenantInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		tenant, owner, err := tenants.Create(c.Request.Context(), middleware.ActorFromContext(c), req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.CreatedResponse(c, "Tenant created successfully", CreateTenantResponse{Tenant: tenant, Owner: owner})
	}
}

// handleGetTenants lists all tenants for administrators, the caller's own otherwise
func handleGetTenants(tenants *accounts.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.Query("page"))
		limit, _ := strconv.Atoi(c.Query("limit"))

		result, err := tenants.List(c.Request.Context(), middleware.ActorFromContext(c),
			repository.PageRequest{Page: page, Limit: limit})
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Tenants retrieved successfully", result)
	}
}

// handleGetTenant handles getting a specific tenant
func handleGetTenant(tenants *accounts.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid tenant ID")
			return
		}

		tenant, err := tenants.Get(c.Request.Context(), middleware.ActorFromContext(c), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Tenant retrieved successfully", tenant)
	}
}

// handleUpdateTenant renames a tenant or flips its active flag
func handleUpdateTenant(tenants *accounts.TenantService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid tenant ID")
			return
		}

		var req accounts.TenantUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		tenant, err := tenants.Update(c.Request.Context(), middleware.ActorFromContext(c), id, req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Tenant updated successfully", tenant)
	}
}
