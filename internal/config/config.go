package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Output   OutputConfig
	Session  SessionConfig
	Browser  BrowserConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type OutputConfig struct {
	// Dir is the root under which per-session directories are created.
	Dir string
	// Sink selects the persistence backend: "csv" or "postgres".
	Sink string
}

type SessionConfig struct {
	// MaxPages caps listing iterations (pages or scroll batches); 0 means
	// unbounded.
	MaxPages int
	// StepTimeout bounds every extractor call.
	StepTimeout time.Duration
	// FailureThreshold aborts the session after this many consecutive
	// per-product failures.
	FailureThreshold int
	// ProductDelayMin/Max pace product visits with jitter.
	ProductDelayMin time.Duration
	ProductDelayMax time.Duration
	// WhitelistedSellers is the trusted seller/manufacturer set.
	WhitelistedSellers []string
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	UserAgent      string
	NavRetries     int
}

type ServerConfig struct {
	Port            string
	Host            string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	MaxConns int32
}

type RedisConfig struct {
	// Addr empty disables event publishing.
	Addr     string
	Password string
	DB       int
	Stream   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Output: OutputConfig{
			Dir:  getEnvOrDefault("OUTPUT_DIR", "results"),
			Sink: getEnvOrDefault("SINK", "csv"),
		},
		Session: SessionConfig{
			MaxPages:           getIntOrDefault("MAX_PAGES", 100),
			StepTimeout:        getDurationOrDefault("STEP_TIMEOUT", 60*time.Second),
			FailureThreshold:   getIntOrDefault("FAILURE_THRESHOLD", 5),
			ProductDelayMin:    getDurationOrDefault("PRODUCT_DELAY_MIN", 2*time.Second),
			ProductDelayMax:    getDurationOrDefault("PRODUCT_DELAY_MAX", 5*time.Second),
			WhitelistedSellers: getStringSliceOrDefault("WHITELISTED_SELLERS", nil),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 60*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			NavRetries:     getIntOrDefault("BROWSER_NAV_RETRIES", 3),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8090"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			Name:     getEnvOrDefault("DB_NAME", "ecom_scraper"),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 10)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:extraction_events"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Session.MaxPages < 0 {
		return fmt.Errorf("MAX_PAGES must be zero or positive")
	}

	if c.Session.FailureThreshold < 1 {
		return fmt.Errorf("FAILURE_THRESHOLD must be at least 1")
	}

	if c.Session.ProductDelayMin > c.Session.ProductDelayMax {
		return fmt.Errorf("PRODUCT_DELAY_MIN cannot be greater than PRODUCT_DELAY_MAX")
	}

	switch c.Output.Sink {
	case "csv", "postgres":
	default:
		return fmt.Errorf("SINK must be csv or postgres, got %q", c.Output.Sink)
	}

	return nil
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}
