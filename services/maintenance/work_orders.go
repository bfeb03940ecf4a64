package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/lifecycle"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

// handleCreateWorkOrder opens a work order
func handleCreateWorkOrder(engine *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lifecycle.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		wo, err := engine.Create(c.Request.Context(), middleware.ActorFromContext(c), req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.CreatedResponse(c, "Work order created successfully", wo)
	}
}

// handleListWorkOrders lists the work orders visible to the caller
func handleListWorkOrders(engine *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		machineID, ok := queryID(c, "machine_id")
		if !ok {
			return
		}
		assignedTo, ok := queryID(c, "assigned_to")
		if !ok {
			return
		}

		filter := lifecycle.ListFilter{
			Status:     models.WorkOrderStatus(c.Query("status")),
			Type:       models.WorkOrderType(c.Query("type")),
			Priority:   models.Priority(c.Query("priority")),
			MachineID:  machineID,
			AssignedTo: assignedTo,
		}

		page, err := engine.List(c.Request.Context(), middleware.ActorFromContext(c), filter, pageFromQuery(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Work orders retrieved successfully", page)
	}
}

// handleGetWorkOrder returns one work order
func handleGetWorkOrder(engine *lifecycle.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		wo, err := engine.Get(c.Request.Context(), middleware.ActorFromContext(c), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Work order retrieved successfully", wo)
	}
}

// handleTransition applies one lifecycle transition; the body is optional for start and cancel
func handleTransition(engine *lifecycle.Engine, t lifecycle.Transition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		var payload lifecycle.Payload
		if !bindOptionalJSON(c, &payload) {
			return
		}

		wo, err := engine.AttemptTransition(c.Request.Context(), middleware.ActorFromContext(c), id, t, payload)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Work order "+string(t)+" applied", wo)
	}
}
