package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

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

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
	Events    EventsConfig
	Schedule  ScheduleConfig

	PaymentPortalURL string

	// APIKeys maps an API key to the role it authenticates as.
	APIKeys map[string]string
	// JWTSecret verifies HS256 bearer tokens. Empty disables token auth.
	JWTSecret string
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	LockTTLSeconds int
}

func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Addr) != ""
}

// RateLimitConfig bounds API requests per authenticated caller. It needs Redis.
type RateLimitConfig struct {
	Enabled bool
	Rate    float64
	Burst   int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (c StorageConfig) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

type EventsConfig struct {
	AMQPURL  string
	Exchange string
}

func (c EventsConfig) Enabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

type ScheduleConfig struct {
	Enabled            bool
	RunIntervalSeconds int
	JobTimeoutSeconds  int
	// Jobs restricts the scheduler to the named jobs. Empty runs all of them.
	Jobs []string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "brokerage"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint:      getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "brokerage"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),
		Redis: RedisConfig{
			Addr:           strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password:       getenv("REDIS_PASSWORD", ""),
			DB:             getenvInt("REDIS_DB", 0),
			LockTTLSeconds: getenvInt("POLICY_LOCK_TTL_SECONDS", 10),
		},
		RateLimit: RateLimitConfig{
			Enabled: getenvBool("RATE_LIMIT_ENABLED", false),
			Rate:    getenvFloat("RATE_LIMIT_RATE", 10),
			Burst:   getenvInt("RATE_LIMIT_BURST", 20),
		},
		Storage: StorageConfig{
			Endpoint:  strings.TrimSpace(getenv("MINIO_ENDPOINT", "")),
			AccessKey: getenv("MINIO_ACCESS_KEY", ""),
			SecretKey: getenv("MINIO_SECRET_KEY", ""),
			Bucket:    getenv("MINIO_BUCKET", "policy-documents"),
			UseSSL:    getenvBool("MINIO_USE_SSL", false),
		},
		Events: EventsConfig{
			AMQPURL:  strings.TrimSpace(getenv("AMQP_URL", "")),
			Exchange: getenv("AMQP_EXCHANGE", "brokerage.events"),
		},
		Schedule: ScheduleConfig{
			Enabled:            getenvBool("SCHEDULER_ENABLED", true),
			RunIntervalSeconds: getenvInt("SCHEDULER_RUN_INTERVAL_SECONDS", 3600),
			JobTimeoutSeconds:  getenvInt("SCHEDULER_JOB_TIMEOUT_SECONDS", 60),
			Jobs:               splitList(getenv("SCHEDULER_JOBS", "")),
		},
		PaymentPortalURL: strings.TrimRight(getenv("PAYMENT_PORTAL_URL", "https://pagos.aseguradora.com"), "/"),
		APIKeys:          parseAPIKeys(getenv("API_KEYS", "")),
		JWTSecret:        getenv("JWT_SECRET", ""),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
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

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseAPIKeys reads "key:role,key:role" pairs. Entries without a role are skipped.
func parseAPIKeys(raw string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		key, role, ok := strings.Cut(strings.TrimSpace(part), ":")
		key = strings.TrimSpace(key)
		role = strings.ToLower(strings.TrimSpace(role))
		if !ok || key == "" || role == "" {
			continue
		}
		out[key] = role
	}
	return out
}
