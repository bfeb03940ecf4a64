package main

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

func setupRoutes(router *gin.Engine, recorder *Recorder, store repository.Store, am *middleware.AuthMiddleware) {
	router.Use(middleware.RequestID(), metrics.Middleware("audit"))

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Audit service is healthy", nil)
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/stats", handleGetStats(recorder))

	audit := router.Group("/audit")
	audit.Use(am.RequireAuth(), am.RequirePermission(authz.PermWorkOrdersReadAll))
	{
		audit.GET("/work-orders/:id", handleGetTrail(store))
	}
}

// handleGetStats reports consumer progress
func handleGetStats(recorder *Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.OKResponse(c, "Audit statistics retrieved successfully", recorder.Stats())
	}
}

// handleGetTrail returns the recorded transitions of one work order, oldest first
func handleGetTrail(store repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			utils.BadRequestResponse(c, "Invalid work order ID")
			return
		}
		page, _ := strconv.Atoi(c.Query("page"))
		limit, _ := strconv.Atoi(c.Query("limit"))

		actor := middleware.ActorFromContext(c)
		conds := repository.Conditions{repository.Eq("work_order_id", id)}
		req := repository.PageRequest{Page: page, Limit: limit, OrderBy: "occurred_at asc"}.Normalize()

		rows, err := store.AuditLogs().Find(c.Request.Context(), actor.TenantID, conds, req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		total, err := store.AuditLogs().Count(c.Request.Context(), actor.TenantID, conds)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Audit trail retrieved successfully",
			repository.Page[models.AuditLog]{Items: rows, Page: req.Page, Limit: req.Limit, Total: total})
	}
}
