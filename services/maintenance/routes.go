package main

import (
	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/accounts"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/assets"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/documents"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/lifecycle"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
)

type server struct {
	workOrders *lifecycle.Engine
	plans      *lifecycle.PlanService
	machines   *assets.MachineService
	documents  *documents.Service
	users      *accounts.UserService
}

// routes registers every endpoint. Permission checks live in the domain services,
// so handlers only authenticate.
func (s *server) routes(router *gin.Engine, am *middleware.AuthMiddleware) {
	router.Use(middleware.RequestID(), metrics.Middleware("maintenance"))

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Maintenance service is healthy", nil)
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/")
	api.Use(am.RequireAuth(), middleware.RequestLogger())

	workOrders := api.Group("/work-orders")
	{
		workOrders.GET("", handleListWorkOrders(s.workOrders))
		workOrders.POST("", handleCreateWorkOrder(s.workOrders))
		workOrders.GET("/:id", handleGetWorkOrder(s.workOrders))
		workOrders.PATCH("/:id", handleTransition(s.workOrders, lifecycle.TransitionUpdate))
		workOrders.POST("/:id/assign", handleTransition(s.workOrders, lifecycle.TransitionAssign))
		workOrders.POST("/:id/start", handleTransition(s.workOrders, lifecycle.TransitionStart))
		workOrders.POST("/:id/finish", handleTransition(s.workOrders, lifecycle.TransitionFinish))
		workOrders.POST("/:id/cancel", handleTransition(s.workOrders, lifecycle.TransitionCancel))
	}

	machines := api.Group("/machines")
	{
		machines.GET("", handleListMachines(s.machines))
		machines.POST("", handleCreateMachine(s.machines))
		machines.GET("/:id", handleGetMachine(s.machines))
		machines.PATCH("/:id", handleUpdateMachine(s.machines))
		machines.DELETE("/:id", handleDeleteMachine(s.machines))
		machines.GET("/:id/documents", handleListDocuments(s.documents))
		machines.POST("/:id/documents", handleUploadDocument(s.documents))
	}

	docs := api.Group("/documents")
	{
		docs.GET("/:id", handleDownloadDocument(s.documents))
		docs.DELETE("/:id", handleDeleteDocument(s.documents))
	}

	plans := api.Group("/preventive-plans")
	{
		plans.GET("", handleListPlans(s.plans))
		plans.POST("", handleCreatePlan(s.plans))
		plans.GET("/:id", handleGetPlan(s.plans))
		plans.PATCH("/:id", handleUpdatePlan(s.plans))
		plans.DELETE("/:id", handleDeletePlan(s.plans))
		plans.POST("/:id/generate", handleGeneratePlan(s.plans))
	}

	users := api.Group("/users")
	{
		users.GET("", handleListUsers(s.users))
		users.POST("", handleCreateUser(s.users))
		users.GET("/me", handleMe(s.users))
		users.GET("/:id", handleGetUser(s.users))
		users.PATCH("/:id", handleUpdateUser(s.users))
		users.DELETE("/:id", handleDeactivateUser(s.users))
	}
}
