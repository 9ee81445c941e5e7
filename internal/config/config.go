package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	AMQP        AMQPConfig        `yaml:"amqp"`
	Log         LogConfig         `yaml:"log"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Idempotency IdempotencyConfig `yaml:"idempotency"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// AMQPConfig contains message broker settings for async refund
// status updates. An empty URL disables the broker and webhook
// updates are applied inline.
type AMQPConfig struct {
	URL                   string `yaml:"url"`
	Queue                 string `yaml:"queue"`
	EnqueueTimeoutSeconds int    `yaml:"enqueue_timeout_seconds"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	DebtSweep            string `yaml:"debt_sweep"`
	PurgeIdempotencyKeys string `yaml:"purge_idempotency_keys"`
	SweepBatchSize       int    `yaml:"sweep_batch_size"`
}

// IdempotencyConfig contains idempotency key retention settings
type IdempotencyConfig struct {
	TTLHours int `yaml:"ttl_hours"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// AMQP
	if val := os.Getenv("AMQP_URL"); val != "" {
		c.AMQP.URL = val
	}
	if val := os.Getenv("AMQP_QUEUE"); val != "" {
		c.AMQP.Queue = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	// AMQP defaults
	if c.AMQP.URL != "" && c.AMQP.Queue == "" {
		c.AMQP.Queue = "refund_status_updates"
	}
	if c.AMQP.EnqueueTimeoutSeconds <= 0 {
		c.AMQP.EnqueueTimeoutSeconds = 5
	}

	// Scheduler defaults
	if c.Scheduler.DebtSweep == "" {
		c.Scheduler.DebtSweep = "0 */5 * * * *" // Every 5 minutes
	}
	if c.Scheduler.PurgeIdempotencyKeys == "" {
		c.Scheduler.PurgeIdempotencyKeys = "0 0 * * * *" // Hourly
	}
	if c.Scheduler.SweepBatchSize <= 0 {
		c.Scheduler.SweepBatchSize = 500
	}

	// Idempotency defaults
	if c.Idempotency.TTLHours <= 0 {
		c.Idempotency.TTLHours = 24
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
