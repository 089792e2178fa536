package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all service configuration.
type Config struct {
	// Server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Catalog
	CatalogBaseURL   string
	CatalogTimeout   time.Duration
	CatalogRPS       float64
	CatalogBurst     int
	CatalogWarmPlans []string

	// Sentry
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string

	MetricsEnabled bool
}

// fileConfig is the optional YAML file. Absent keys keep the defaults.
type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Catalog struct {
		BaseURL   string        `yaml:"baseURL"`
		Timeout   time.Duration `yaml:"timeout"`
		RPS       float64       `yaml:"rps"`
		Burst     int           `yaml:"burst"`
		WarmPlans []string      `yaml:"warmPlans"`
	} `yaml:"catalog"`
	Sentry struct {
		DSN         string `yaml:"dsn"`
		Environment string `yaml:"environment"`
		Release     string `yaml:"release"`
	} `yaml:"sentry"`
	Metrics struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"metrics"`
}

func Default() Config {
	return Config{
		Port:              "8080",
		LogLevel:          "info",
		LogFormat:         "json",
		CatalogTimeout:    2 * time.Second,
		CatalogRPS:        50,
		CatalogBurst:      10,
		SentryEnvironment: "production",
		SentryRelease:     "quote-engine@1.0.0",
		MetricsEnabled:    true,
	}
}

// Load reads .env (if present), then the YAML file named by CONFIG_PATH (if any), then
// the environment. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := MergeYAML(&cfg, data); err != nil {
			return cfg, err
		}
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

// MergeYAML overlays the keys present in a YAML document onto cfg.
func MergeYAML(cfg *Config, data []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}

	if f.Server.Port != "" {
		cfg.Port = f.Server.Port
	}
	if f.Log.Level != "" {
		cfg.LogLevel = f.Log.Level
	}
	if f.Log.Format != "" {
		cfg.LogFormat = f.Log.Format
	}
	if f.Catalog.BaseURL != "" {
		cfg.CatalogBaseURL = f.Catalog.BaseURL
	}
	if f.Catalog.Timeout > 0 {
		cfg.CatalogTimeout = f.Catalog.Timeout
	}
	if f.Catalog.RPS > 0 {
		cfg.CatalogRPS = f.Catalog.RPS
	}
	if f.Catalog.Burst > 0 {
		cfg.CatalogBurst = f.Catalog.Burst
	}
	if len(f.Catalog.WarmPlans) > 0 {
		cfg.CatalogWarmPlans = f.Catalog.WarmPlans
	}
	if f.Sentry.DSN != "" {
		cfg.SentryDSN = f.Sentry.DSN
	}
	if f.Sentry.Environment != "" {
		cfg.SentryEnvironment = f.Sentry.Environment
	}
	if f.Sentry.Release != "" {
		cfg.SentryRelease = f.Sentry.Release
	}
	if f.Metrics.Enabled != nil {
		cfg.MetricsEnabled = *f.Metrics.Enabled
	}
	return nil
}

// ApplyEnv overrides cfg with the environment variables that are set.
func ApplyEnv(cfg *Config) {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOr("LOG_FORMAT", cfg.LogFormat)

	cfg.CatalogBaseURL = envOr("CATALOG_BASE_URL", cfg.CatalogBaseURL)
	cfg.CatalogTimeout = envDuration("CATALOG_TIMEOUT", cfg.CatalogTimeout)
	cfg.CatalogRPS = envFloat64("CATALOG_RPS", cfg.CatalogRPS)
	cfg.CatalogBurst = envInt("CATALOG_BURST", cfg.CatalogBurst)
	cfg.CatalogWarmPlans = envList("CATALOG_WARM_PLANS", cfg.CatalogWarmPlans)

	cfg.SentryDSN = envOr("SENTRY_DSN", cfg.SentryDSN)
	cfg.SentryEnvironment = envOr("SENTRY_ENVIRONMENT", cfg.SentryEnvironment)
	cfg.SentryRelease = envOr("SENTRY_RELEASE", cfg.SentryRelease)

	cfg.MetricsEnabled = envBool("METRICS_ENABLED", cfg.MetricsEnabled)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat64(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
