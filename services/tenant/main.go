package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/accounts"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/config"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load("tenant", "8002")
	logging.Init(logging.Config{Level: cfg.LogLevel, Environment: cfg.Environment, Service: cfg.Service})

	// Redis for the shared tenant cache; updates here invalidate it for every service
	redisClient, err := utils.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logrus.Warnf("Failed to connect to Redis, caching disabled: %v", err)
	} else {
		defer redisClient.Close()
	}

	db, err := config.ConnectDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	issuer, err := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		log.Fatal("Failed to initialize token issuer:", err)
	}

	global := repository.NewGlobal(db)
	directory := accounts.NewTenantDirectory(global, utils.NewCache(redisClient, "tenants"))
	authMiddleware := middleware.NewAuthMiddleware(accounts.NewAuthenticator(issuer, directory, repository.NewGormStore(db)))

	router := gin.Default()
	setupRoutes(router, accounts.NewTenantService(global, directory), authMiddleware)

	logrus.Infof("Tenant service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start tenant service:", err)
	}
}

func setupRoutes(router *gin.Engine, tenants *accounts.TenantService, am *middleware.AuthMiddleware) {
	router.Use(middleware.RequestID(), metrics.Middleware("tenant"))

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Tenant service is healthy", nil)
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	group := router.Group("/tenants")
	group.Use(am.RequireAuth(), middleware.RequestLogger())
	{
		group.GET("", handleGetTenants(tenants))
		group.POST("", handleCreateTenant(tenants))
		group.GET("/:id", handleGetTenant(tenants))
		group.PATCH("/:id", handleUpdateTenant(tenants))
	}
}
