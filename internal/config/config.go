package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Mode        string
	Environment string
	InstanceID  string

	DefaultOrgID int64

	OTLPEndpoint string

	Cloud CloudConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Worker WorkerConfig
}

// CloudConfig carries the settings used when an installation reports
// usage telemetry back to the hosted control plane.
type CloudConfig struct {
	OrganizationID   string
	OrganizationName string
	Metrics          CloudMetricsConfig
}

type CloudMetricsConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	AuthToken    string
	PushInterval time.Duration
}

// WorkerConfig controls the background billing worker.
type WorkerConfig struct {
	RunInterval time.Duration
	BatchSize   int
	EnabledJobs []string
	LockTTL     time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	mode := normalizeMode(getenv("APP_MODE", ModeOSS))
	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "fieldrate"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Mode:         mode,
		Environment:  environment,
		InstanceID:   strings.TrimSpace(getenv("INSTANCE_ID", "")),
		DefaultOrgID: getenvInt64("DEFAULT_ORG", 0),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Cloud: CloudConfig{
			OrganizationID:   strings.TrimSpace(getenv("CLOUD_ORGANIZATION_ID", "")),
			OrganizationName: getenv("CLOUD_ORGANIZATION_NAME", ""),
			Metrics: CloudMetricsConfig{
				Enabled:      getenvBool("CLOUD_METRICS_ENABLED", true),
				Exporter:     strings.ToLower(getenv("CLOUD_METRICS_EXPORTER", "")),
				Endpoint:     strings.TrimSpace(getenv("CLOUD_METRICS_ENDPOINT", "")),
				AuthToken:    strings.TrimSpace(getenv("CLOUD_METRICS_AUTH_TOKEN", "")),
				PushInterval: getenvDuration("CLOUD_METRICS_PUSH_INTERVAL", 30*time.Minute),
			},
		},
		DBType:        getenv("DATABASE_TYPE", "postgres"),
		DBHost:        getenv("DATABASE_HOST", "localhost"),
		DBPort:        getenv("DATABASE_PORT", "5432"),
		DBName:        getenv("DATABASE_NAME", "fieldrate"),
		DBUser:        getenv("DATABASE_USER", "postgres"),
		DBPassword:    getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:     getenv("DATABASE_SSLMODE", "disable"),
		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       int(getenvInt64("REDIS_DB", 0)),
		Worker: WorkerConfig{
			RunInterval: getenvDuration("WORKER_RUN_INTERVAL", time.Minute),
			BatchSize:   int(getenvInt64("WORKER_BATCH_SIZE", 50)),
			EnabledJobs: parseList(getenv("WORKER_ENABLED_JOBS", "")),
			LockTTL:     getenvDuration("WORKER_LOCK_TTL", 5*time.Minute),
		},
	}

	return cfg
}

const (
	ModeOSS        = "oss"
	ModeCloud      = "cloud"
	ModeStandalone = "standalone"
)

func (c Config) IsCloud() bool {
	return c.Mode == ModeCloud
}

func normalizeMode(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case ModeCloud:
		return ModeCloud
	case ModeStandalone, ModeOSS:
		return ModeOSS
	default:
		return ModeOSS
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
