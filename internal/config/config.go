package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"veriscan/internal/model"
)

// Ledger backends.
const (
	LedgerPostgres = "postgres"
	LedgerMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ledger   LedgerConfig
	Scan     ScanConfig
	Archive  ArchiveConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds the ledger state store connection.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// LedgerConfig holds the ledger node and registry client settings.
type LedgerConfig struct {
	Backend       string
	AdminAddress  string
	BlockTime     time.Duration
	QueueSize     int
	SubmitTimeout time.Duration
	QueryTimeout  time.Duration
}

// ScanConfig holds scanning and verification settings.
type ScanConfig struct {
	Window           time.Duration
	ScanCountTimeout time.Duration
}

// ArchiveConfig holds QR image archive settings.
type ArchiveConfig struct {
	Dir    string
	QRSize int
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// S3Config holds AWS S3 configuration for archived QR images.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "veriscan/")
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "veriscan"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
		Ledger: LedgerConfig{
			Backend:       getEnv("LEDGER_BACKEND", LedgerPostgres),
			AdminAddress:  getEnv("LEDGER_ADMIN_ADDRESS", ""),
			BlockTime:     getEnvAsMillis("LEDGER_BLOCK_TIME_MS", 0),
			QueueSize:     getEnvAsInt("LEDGER_QUEUE_SIZE", 64),
			SubmitTimeout: getEnvAsMillis("SUBMIT_TIMEOUT_MS", 30*time.Second),
			QueryTimeout:  getEnvAsMillis("QUERY_TIMEOUT_MS", 10*time.Second),
		},
		Scan: ScanConfig{
			Window:           getEnvAsMillis("SCAN_WINDOW_MS", 20*time.Second),
			ScanCountTimeout: getEnvAsMillis("SCAN_COUNT_TIMEOUT_MS", 30*time.Second),
		},
		Archive: ArchiveConfig{
			Dir:    getEnv("ARCHIVE_DIR", "data/qr"),
			QRSize: getEnvAsInt("QR_SIZE", 256),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			APIKey: getEnv("API_KEY", ""),
		},
		S3: S3Config{
			Enabled: getEnvAsBool("S3_ENABLED", false),
			Bucket:  getEnv("S3_BUCKET", ""),
			Region:  getEnv("S3_REGION", "us-east-1"),
			Prefix:  getEnv("S3_PREFIX", "veriscan/"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Ledger.Backend {
	case LedgerPostgres:
		if err := c.Database.validate(); err != nil {
			return err
		}
	case LedgerMemory:
	default:
		return fmt.Errorf("invalid ledger backend: %s (must be postgres or memory)", c.Ledger.Backend)
	}

	if _, err := model.ParseAddress(c.Ledger.AdminAddress); err != nil {
		return fmt.Errorf("ledger admin address is required: %w", err)
	}

	if c.Ledger.QueueSize < 1 {
		return fmt.Errorf("ledger queue size must be at least 1")
	}

	if c.Ledger.SubmitTimeout <= 0 || c.Ledger.QueryTimeout <= 0 {
		return fmt.Errorf("submit and query timeouts must be positive")
	}

	if c.Scan.Window <= 0 {
		return fmt.Errorf("scan window must be positive")
	}

	if c.Archive.QRSize < 64 || c.Archive.QRSize > 2048 {
		return fmt.Errorf("invalid QR size: %d (must be between 64 and 2048)", c.Archive.QRSize)
	}

	if c.Archive.Dir == "" {
		return fmt.Errorf("archive directory is required")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	return nil
}

func (c *DatabaseConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Port)
	}

	if c.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.MinConnections > c.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsMillis reads a millisecond count as a duration.
func getEnvAsMillis(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
