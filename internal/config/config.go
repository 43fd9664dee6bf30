package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Resolver ResolverConfig
	Firewall FirewallConfig
	Sweeper  SweeperConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StorageConfig selects and configures the entry store backend.
type StorageConfig struct {
	Driver  string // "memory" or "postgres"
	Host    string
	Port    int
	User    string
	Password string
	DBName  string
	SSLMode string
}

// ResolverConfig selects the resolver backend.
type ResolverConfig struct {
	Backend string // "static" or "dns"
	Server  string // upstream for the dns backend, host:port
	Timeout time.Duration
}

// FirewallConfig tunes the simulated device.
type FirewallConfig struct {
	AddLatency     time.Duration
	RemoveLatency  time.Duration
	AddFailureRate float64
}

// SweeperConfig tunes the expiry sweeper.
type SweeperConfig struct {
	Interval time.Duration
}

// SecurityConfig represents operator auth and rate limiting.
type SecurityConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	AdminPasswordHash string // empty disables operator auth
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RedisURL          string
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level  string
	Format string // json or text
}

// Load loads configuration from environment variables with defaults suitable
// for a local demo: in-memory storage, static resolver, auth disabled.
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Storage: StorageConfig{
			Driver:   getEnv("STORAGE_DRIVER", "memory"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "blockwatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Resolver: ResolverConfig{
			Backend: getEnv("RESOLVER_BACKEND", "static"),
			Server:  getEnv("RESOLVER_DNS_SERVER", "1.1.1.1:53"),
			Timeout: getEnvDuration("RESOLVER_TIMEOUT", 5*time.Second),
		},
		Firewall: FirewallConfig{
			AddLatency:     getEnvDuration("FIREWALL_ADD_LATENCY", 500*time.Millisecond),
			RemoveLatency:  getEnvDuration("FIREWALL_REMOVE_LATENCY", 300*time.Millisecond),
			AddFailureRate: getEnvFloat("FIREWALL_ADD_FAILURE_RATE", 0.1),
		},
		Sweeper: SweeperConfig{
			Interval: getEnvDuration("SWEEPER_INTERVAL", 30*time.Second),
		},
		Security: SecurityConfig{
			JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
			TokenTTL:          getEnvDuration("JWT_TOKEN_TTL", 24*time.Hour),
			AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			RateLimitEnabled:  getEnvBool("RATE_LIMIT_ENABLED", false),
			RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.Host == "" || c.Storage.DBName == "" {
			return fmt.Errorf("postgres storage requires DB_HOST and DB_NAME")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Storage.Driver)
	}

	switch c.Resolver.Backend {
	case "static":
	case "dns":
		if c.Resolver.Server == "" {
			return fmt.Errorf("dns resolver requires RESOLVER_DNS_SERVER")
		}
	default:
		return fmt.Errorf("unknown resolver backend: %s", c.Resolver.Backend)
	}

	if c.Firewall.AddFailureRate < 0 || c.Firewall.AddFailureRate > 1 {
		return fmt.Errorf("FIREWALL_ADD_FAILURE_RATE must be within [0, 1]")
	}
	if c.Security.AdminPasswordHash != "" && c.Security.JWTSecret == "" {
		return fmt.Errorf("operator auth requires JWT_SECRET")
	}
	return nil
}

// DatabaseURL returns the lib/pq connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Storage.Host, c.Storage.Port, c.Storage.User, c.Storage.Password, c.Storage.DBName, c.Storage.SSLMode)
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
