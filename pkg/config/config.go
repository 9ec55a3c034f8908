// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultPort               = "3000"
	defaultAppEnv             = "local"
	defaultDBDriver           = "postgres"
	defaultSQLiteDSN          = "variants.db"
	defaultLowStockThreshold  = 5
	defaultAuditWorkers       = 4
	defaultAuditRetries       = 3
	defaultReservationTTLHour = 24
)

// Config holds every setting the service reads at startup.
type Config struct {
	Port     string
	AppEnv   string
	DBDriver string
	DSN      string

	// RedisAddr is optional; an empty value selects the in-process reservation guard.
	RedisAddr string

	DefaultLowStockThreshold int
	StrictDecrements         bool
	AuditWorkers             int
	AuditRetries             int
	ReservationTTLHours      int
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() *Config {
	cfg := &Config{
		Port:                     get("PORT", defaultPort),
		AppEnv:                   strings.ToLower(get("APP_ENV", defaultAppEnv)),
		DBDriver:                 normalizeDriver(get("DB_DRIVER", defaultDBDriver)),
		RedisAddr:                get("REDIS_ADDR", ""),
		DefaultLowStockThreshold: getInt("DEFAULT_LOW_STOCK_THRESHOLD", defaultLowStockThreshold),
		StrictDecrements:         getBool("STRICT_DECREMENTS", false),
		AuditWorkers:             getInt("AUDIT_WORKERS", defaultAuditWorkers),
		AuditRetries:             getInt("AUDIT_RETRIES", defaultAuditRetries),
		ReservationTTLHours:      getInt("RESERVATION_TTL_HOURS", defaultReservationTTLHour),
	}
	cfg.DSN = databaseDSN(cfg.DBDriver)

	if cfg.DefaultLowStockThreshold < 0 {
		cfg.DefaultLowStockThreshold = defaultLowStockThreshold
	}
	if cfg.AuditWorkers <= 0 {
		cfg.AuditWorkers = defaultAuditWorkers
	}
	if cfg.AuditRetries <= 0 {
		cfg.AuditRetries = 1
	}
	return cfg
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func databaseDSN(driver string) string {
	if dsn := get("DATABASE_URL", ""); dsn != "" {
		return dsn
	}

	switch driver {
	case "sqlite":
		return defaultSQLiteDSN
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			get("DB_USER", "root"),
			get("DB_PASSWORD", ""),
			get("DB_HOST", "127.0.0.1"),
			get("DB_PORT", "3306"),
			get("DB_NAME", "inventory"),
		)
	default:
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			get("DB_HOST", "localhost"),
			get("DB_USER", "postgres"),
			get("DB_PASSWORD", ""),
			get("DB_NAME", "inventory"),
			get("DB_PORT", "5432"),
		)
	}
}

func normalizeDriver(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "postgres", "mysql", "sqlite":
		return d
	case "postgresql", "pg":
		return "postgres"
	default:
		return defaultDBDriver
	}
}

func get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := get(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: %s=%q is not an integer, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := get(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
