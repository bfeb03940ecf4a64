package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/assets"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/models"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

func handleCreateMachine(svc *assets.MachineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assets.MachineInput
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		m, err := svc.Create(c.Request.Context(), middleware.ActorFromContext(c), req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.CreatedResponse(c, "Machine created successfully", m)
	}
}

func handleListMachines(svc *assets.MachineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.MachineStatus(c.Query("status"))
		page, err := svc.List(c.Request.Context(), middleware.ActorFromContext(c), status, pageFromQuery(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Machines retrieved successfully", page)
	}
}

func handleGetMachine(svc *assets.MachineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		m, err := svc.Get(c.Request.Context(), middleware.ActorFromContext(c), id)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Machine retrieved successfully", m)
	}
}

func handleUpdateMachine(svc *assets.MachineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		var req assets.MachineUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid request format")
			return
		}

		m, err := svc.Update(c.Request.Context(), middleware.ActorFromContext(c), id, req)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Machine updated successfully", m)
	}
}

func handleDeleteMachine(svc *assets.MachineService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), middleware.ActorFromContext(c), id); err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.OKResponse(c, "Machine deleted successfully", nil)
	}
}
