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
	cfg := config.Load("auth", "8001")
	logging.Init(logging.Config{Level: cfg.LogLevel, Environment: cfg.Environment, Service: cfg.Service})

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
	store := repository.NewGormStore(db)
	sessions := accounts.NewSessionService(global, store, issuer)
	authMiddleware := middleware.NewAuthMiddleware(accounts.NewAuthenticator(issuer, directory, store))

	router := gin.Default()
	setupRoutes(router, sessions, authMiddleware)

	logrus.Infof("Auth service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start auth service:", err)
	}
}

func setupRoutes(router *gin.Engine, sessions *accounts.SessionService, am *middleware.AuthMiddleware) {
	router.Use(middleware.RequestID(), metrics.Middleware("auth"))

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "Auth service is healthy", nil)
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := router.Group("/auth")
	{
		auth.POST("/signup", handleSignup(sessions))
		auth.POST("/login", handleLogin(sessions))
		auth.GET("/verify", am.RequireAuth(), handleVerifyToken())
	}
}
