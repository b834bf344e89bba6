package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewGSTPolicyHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	OTLPEndpoint    string
	OTLPProtocol    string
	MetricsExporter string
	TracingEnabled  bool

	Business  BusinessConfig
	RateLimit RateLimitConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

// BusinessConfig is the registered profile of the supplier issuing documents.
type BusinessConfig struct {
	LegalName       string
	GSTIN           string
	StateCode       string
	Pincode         string
	PaymentTermDays int
}

// RateLimitConfig carries the redis connection shared by the write limiter and
// the scheduler lock. A redis address alone enables the lock; the limiter also
// needs Enabled.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	WriteRate     float64
	WriteBurst    int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:         getenv("APP_SERVICE", "gstbook"),
		AppVersion:      getenv("APP_VERSION", "0.1.0"),
		Environment:     getenv("ENVIRONMENT", "development"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(getenv("LOG_LEVEL", "info")),
		OTLPEndpoint:    getenv("OTLP_ENDPOINT", "localhost:4317"),
		OTLPProtocol:    strings.ToLower(getenv("OTLP_PROTOCOL", "grpc")),
		MetricsExporter: strings.ToLower(getenv("METRICS_EXPORTER", "")),
		TracingEnabled:  getenvBool("TRACING_ENABLED", false),
		Business: BusinessConfig{
			LegalName:       strings.TrimSpace(getenv("BUSINESS_LEGAL_NAME", "")),
			GSTIN:           strings.TrimSpace(getenv("BUSINESS_GSTIN", "")),
			StateCode:       strings.TrimSpace(getenv("BUSINESS_STATE_CODE", "29")),
			Pincode:         strings.TrimSpace(getenv("BUSINESS_PINCODE", "")),
			PaymentTermDays: getenvInt("INVOICE_PAYMENT_TERM_DAYS", 30),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			WriteRate:     getenvFloat("RATE_LIMIT_WRITE_RATE", 5),
			WriteBurst:    getenvInt("RATE_LIMIT_WRITE_BURST", 20),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "gstbook"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "gstbook.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
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
