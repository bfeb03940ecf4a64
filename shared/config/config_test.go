package config

import (
	"testing"
	"time"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("MAINTENANCE_SERVICE_PORT", "9100")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("DB_NAME", "cmms_test")

	cfg := Load("maintenance", "8003")

	if cfg.Port != "9100" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.JWT.TTL != 30*time.Minute {
		t.Errorf("jwt ttl = %s", cfg.JWT.TTL)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("redis db = %d", cfg.Redis.DB)
	}
	if cfg.Kafka.GroupID != "maintenance-service" {
		t.Errorf("group id = %q", cfg.Kafka.GroupID)
	}
	if cfg.Database.DBName != "cmms_test" {
		t.Errorf("db name = %q", cfg.Database.DBName)
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("AUDIT_SERVICE_PORT", "")
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("REDIS_DB", "first")

	cfg := Load("audit", "8004")

	if cfg.Port != "8004" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.JWT.TTL != 8*time.Hour {
		t.Errorf("jwt ttl = %s", cfg.JWT.TTL)
	}
	if cfg.Redis.DB != 0 {
		t.Errorf("redis db = %d", cfg.Redis.DB)
	}
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "cmms", SSLMode: "require"}
	want := "host=db port=5432 user=u password=p dbname=cmms sslmode=require"
	if got := c.GetDSN(); got != want {
		t.Fatalf("dsn = %q", got)
	}
}
