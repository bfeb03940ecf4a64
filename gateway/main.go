package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/authz"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/config"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/errs"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/metrics"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
	"github.com/sirupsen/logrus"
)

// tokenAuthenticator checks signatures at the edge. Tenant state is checked by the services.
type tokenAuthenticator struct {
	issuer *utils.TokenIssuer
}

func (a tokenAuthenticator) Authenticate(_ context.Context, token string) (*authz.Actor, error) {
	actor, err := a.issuer.Verify(token)
	if err != nil {
		return nil, errs.ErrUnauthorized
	}
	return actor, nil
}

func main() {
	cfg := config.Load("gateway", "8080")
	logging.Init(logging.Config{Level: cfg.LogLevel, Environment: cfg.Environment, Service: cfg.Service})

	issuer, err := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		log.Fatal("Failed to initialize token issuer:", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(tokenAuthenticator{issuer: issuer})

	serviceClients := &ServiceClients{
		Auth:        NewServiceClient("auth", serviceURL("AUTH_SERVICE_URL", "http://localhost:8001")),
		Tenant:      NewServiceClient("tenant", serviceURL("TENANT_SERVICE_URL", "http://localhost:8002")),
		Maintenance: NewServiceClient("maintenance", serviceURL("MAINTENANCE_SERVICE_URL", "http://localhost:8003")),
		Audit:       NewServiceClient("audit", serviceURL("AUDIT_SERVICE_URL", "http://localhost:8004")),
	}

	router := gin.Default()
	setupRoutes(router, serviceClients, authMiddleware)

	logrus.Infof("API Gateway starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start API Gateway:", err)
	}
}

func serviceURL(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setupRoutes(router *gin.Engine, clients *ServiceClients, am *middleware.AuthMiddleware) {
	router.Use(middleware.CORS(), middleware.RequestID(), metrics.Middleware("gateway"))

	router.GET("/health", func(c *gin.Context) {
		utils.OKResponse(c, "API Gateway is healthy", nil)
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/health/services", func(c *gin.Context) {
		status, healthy := clients.GetServiceStatus(c.Request.Context())
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, utils.APIResponse{
				Success: false,
				Message: "Some services are unhealthy",
				Data:    status,
			})
			return
		}
		utils.OKResponse(c, "All services are healthy", status)
	})

	auth := router.Group("/auth")
	{
		auth.POST("/signup", clients.Auth.ProxyRequest)
		auth.POST("/login", clients.Auth.ProxyRequest)
		auth.GET("/verify", am.RequireAuth(), clients.Auth.ProxyRequest)
	}

	api := router.Group("/")
	api.Use(am.RequireAuth(), middleware.RequestLogger())

	proxyAll(api, "/tenants", clients.Tenant)
	for _, prefix := range []string{"/work-orders", "/machines", "/documents", "/preventive-plans", "/users"} {
		proxyAll(api, prefix, clients.Maintenance)
	}
	proxyAll(api, "/audit", clients.Audit)
}

// proxyAll forwards prefix and everything below it to sc
func proxyAll(group *gin.RouterGroup, prefix string, sc *ServiceClient) {
	g := group.Group(prefix)
	g.Any("", sc.ProxyRequest)
	g.Any("/*path", sc.ProxyRequest)
}
