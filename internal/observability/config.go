package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/gstbook/internal/config"
)

// Config holds observability configuration derived from the app config and env.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	TracingEnabled   bool
	MetricsExporter  string
	ExporterEndpoint string
	ExporterProtocol string
	SamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "gstbook"
	}

	return Config{
		ServiceName:      serviceName,
		Environment:      strings.TrimSpace(cfg.Environment),
		Version:          strings.TrimSpace(cfg.AppVersion),
		LogLevel:         cfg.LogLevel,
		LogFormat:        strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		TracingEnabled:   cfg.TracingEnabled,
		MetricsExporter:  cfg.MetricsExporter,
		ExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		ExporterProtocol: cfg.OTLPProtocol,
		SamplingRatio:    getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
	}
}

func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
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
