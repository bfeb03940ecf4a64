// Package config reads service settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pavitra93/go-multi-tenant-cmms/shared/utils"
	"github.com/sirupsen/logrus"
)

// Config holds the settings shared by every service
type Config struct {
	Service     string
	Environment string
	LogLevel    string
	Port        string
	Database    DatabaseConfig
	Redis       utils.RedisConfig
	Kafka       KafkaConfig
	JWT         JWTConfig
	Storage     StorageConfig
}

// KafkaConfig holds event bus settings
type KafkaConfig struct {
	Broker  string
	Topic   string
	GroupID string
}

// JWTConfig holds token signing settings
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// StorageConfig holds document object storage settings
type StorageConfig struct {
	Region          string
	Bucket          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// Load reads a .env file when present and builds the config of service.
// The port is read from <SERVICE>_SERVICE_PORT, falling back to defaultPort.
func Load(service, defaultPort string) *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment variables")
	}

	portKey := strings.ToUpper(service) + "_SERVICE_PORT"
	return &Config{
		Service:     service,
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnv(portKey, defaultPort),
		Database:    *GetDatabaseConfig(),
		Redis: utils.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Broker:  getEnv("KAFKA_BROKER", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "work-order-events"),
			GroupID: getEnv("KAFKA_GROUP_ID", service+"-service"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
			Issuer: getEnv("JWT_ISSUER", "cmms-auth"),
			TTL:    getEnvAsDuration("JWT_TTL", 8*time.Hour),
		},
		Storage: StorageConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("DOCUMENTS_BUCKET", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid integer %q, using %d", value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logrus.WithField("key", key).Warnf("Invalid duration %q, using %s", value, defaultValue)
		return defaultValue
	}
	return d
}
