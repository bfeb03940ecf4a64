package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/accounts"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/config"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/events"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load("audit", "8004")
	logging.Init(logging.Config{Level: cfg.LogLevel, Environment: cfg.Environment, Service: cfg.Service})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := utils.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logrus.Warnf("Failed to connect to Redis, caching disabled: %v", err)
	} else {
		defer redisClient.Close()
	}

	db, err := config.ConnectDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	if err := config.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	issuer, err := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	if err != nil {
		log.Fatal("Failed to initialize token issuer:", err)
	}

	store := repository.NewGormStore(db)
	directory := accounts.NewTenantDirectory(repository.NewGlobal(db), utils.NewCache(redisClient, "tenants"))
	authMiddleware := middleware.NewAuthMiddleware(accounts.NewAuthenticator(issuer, directory, store))
	recorder := NewRecorder(store)

	consumer := events.NewConsumer(cfg.Kafka.Broker, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer consumer.Close()

	go func() {
		if err := consumer.Run(ctx, recorder.Handle); err != nil {
			logrus.WithError(err).Error("Audit consumer stopped")
			stop()
		}
	}()

	router := gin.Default()
	setupRoutes(router, recorder, store, authMiddleware)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		<-ctx.Done()
		logrus.Info("Shutting down audit service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("Audit service shutdown failed")
		}
	}()

	logrus.Infof("Audit service starting on port %s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start audit service:", err)
	}
}
