package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/accounts"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/assets"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/config"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/documents"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/events"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/lifecycle"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/logging"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/middleware"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/repository"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load("maintenance", "8003")
	logging.Init(logging.Config{Level: cfg.LogLevel, Environment: cfg.Environment, Service: cfg.Service})

	// Redis only backs the tenant directory; without it every lookup reads the database
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

	storage, err := documents.NewS3Storage(documents.S3Config{
		Region:          cfg.Storage.Region,
		Bucket:          cfg.Storage.Bucket,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
	})
	if err != nil {
		log.Fatal("Failed to initialize document storage:", err)
	}

	producer := events.NewKafkaProducer(events.ProducerConfig{Broker: cfg.Kafka.Broker, Topic: cfg.Kafka.Topic})
	defer producer.Close()

	store := repository.NewGormStore(db)
	directory := accounts.NewTenantDirectory(repository.NewGlobal(db), utils.NewCache(redisClient, "tenants"))
	authMiddleware := middleware.NewAuthMiddleware(accounts.NewAuthenticator(issuer, directory, store))

	srv := &server{
		workOrders: lifecycle.NewEngine(store, producer),
		plans:      lifecycle.NewPlanService(store, producer),
		machines:   assets.NewMachineService(store),
		documents:  documents.NewService(store, storage),
		users:      accounts.NewUserService(store),
	}

	router := gin.Default()
	srv.routes(router, authMiddleware)

	logrus.Infof("Maintenance service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start maintenance service:", err)
	}
}
