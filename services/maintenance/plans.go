package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/lifecycle"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

// GenerateResponse is returned by plan generation
type GenerateResponse struct {
	WorkOrder *models.WorkOrder      `json:"work_order"`
	Plan      *models.PreventivePlan `json:"plan"`
}

func handleCreatePlan(svc *lifecycle.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lifecycle.PlanInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		plan, err := svc.Create(c.Request.Context(), middleware.ActorFromContext(c), req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.CreatedResponse(c, "Preventive plan created successfully", plan)
	}
}

func handleListPlans(svc *lifecycle.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		machineID, ok := queryID(c, "machine_id")
		if !ok {
			return
		}
		active, ok := queryBool(c, "active")
		if !ok {
			return
		}

		page, err := svc.List(c.Request.Context(), middleware.ActorFromContext(c),
			lifecycle.PlanFilter{MachineID: machineID, Active: active}, pageFromQuery(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Preventive plans retrieved successfully", page)
	}
}

func handleGetPlan(svc *lifecycle.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		plan, err := svc.Get(c.Request.Context(), middleware.ActorFromContext(c), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Preventive plan retrieved successfully", plan)
	}
}

func handleUpdatePlan(svc *lifecycle.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req lifecycle.PlanUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		plan, err := svc.Update(c.Request.Context(), middleware.ActorFromContext(c), id, req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Preventive plan updated successfully", plan)
	}
}

func handleDeletePlan(svc *lifecycle.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Preventive plan deleted successfully", nil)
	}
}

// handleGeneratePlan creates the next preventive work order of a plan
func handleGeneratePlan(svc *lifecycle.PlanService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		wo, plan, err := svc.Generate(c.Request.Context(), middleware.ActorFromContext(c), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.CreatedResponse(c, "Preventive work order generated", GenerateResponse{WorkOrder: wo, Plan: plan})
	}
}
