package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		// SessionTTL of zero keeps wizard sessions until they are cleared
		SessionTTL time.Duration `yaml:"session_ttl" env:"REDIS_SESSION_TTL"`
	} `yaml:"redis"`

	Telegram struct {
		Token         string `yaml:"token" env:"TELEGRAM_TOKEN"`
		Mode          string `yaml:"mode" env:"TELEGRAM_MODE"`
		WebhookURL    string `yaml:"webhook_url" env:"TELEGRAM_WEBHOOK_URL"`
		WebhookSecret string `yaml:"webhook_secret" env:"TELEGRAM_WEBHOOK_SECRET"`
		FormURL       string `yaml:"form_url" env:"TELEGRAM_FORM_URL"`
		Debug         bool   `yaml:"debug" env:"TELEGRAM_DEBUG"`
		// AllowedUpdates limits the update types Telegram delivers
		AllowedUpdates []string `yaml:"allowed_updates" env:"TELEGRAM_ALLOWED_UPDATES"`
		// Timezone names the zone used to read and print wall-clock times. Location is
		// resolved from it and may be replaced by TELEGRAM_TIMEZONE.
		Timezone string         `yaml:"timezone"`
		Location *time.Location `yaml:"-" env:"TELEGRAM_TIMEZONE"`
	} `yaml:"telegram"`

	JWT struct {
		Secret              string `yaml:"secret" env:"JWT_SECRET"`
		FormTokenExpiration string `yaml:"form_token_expiration" env:"JWT_FORM_TOKEN_EXPIRATION"`
		Issuer              string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Scheduler struct {
		QueuePrefix  string        `yaml:"queue_prefix" env:"SCHEDULER_QUEUE_PREFIX"`
		PollInterval time.Duration `yaml:"poll_interval" env:"SCHEDULER_POLL_INTERVAL"`
		BatchSize    int           `yaml:"batch_size" env:"SCHEDULER_BATCH_SIZE"`
		ReminderLead time.Duration `yaml:"reminder_lead" env:"SCHEDULER_REMINDER_LEAD"`
	} `yaml:"scheduler"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// Telegram update delivery modes
const (
	TelegramModeWebhook = "webhook"
	TelegramModePolling = "polling"
)

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load default config with sane defaults
	config := &Config{}
	setDefaults(config)

	// Try to read config file if it exists
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Parse YAML into Config structure
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	loc, err := time.LoadLocation(config.Telegram.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: invalid telegram timezone: %w", err)
	}
	config.Telegram.Location = loc

	// Override with environment variables
	if err := envOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}
	config.Telegram.Timezone = config.Telegram.Location.String()

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	// Database defaults
	config.Database.Driver = "postgres"
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "huddle"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	// Redis defaults
	config.Redis.Addr = "localhost:6379"

	// Telegram defaults
	config.Telegram.Mode = TelegramModePolling
	config.Telegram.Timezone = "UTC"
	config.Telegram.AllowedUpdates = []string{"message", "callback_query"}

	// JWT defaults
	config.JWT.FormTokenExpiration = "30m"
	config.JWT.Issuer = "huddle.bot"

	// Scheduler defaults
	config.Scheduler.QueuePrefix = "huddle:jobs"
	config.Scheduler.PollInterval = time.Second
	config.Scheduler.BatchSize = 50
	config.Scheduler.ReminderLead = time.Hour

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	// Ensure required fields are set
	if config.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}

	if config.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	switch config.Telegram.Mode {
	case TelegramModePolling:
	case TelegramModeWebhook:
		if config.Telegram.WebhookURL == "" {
			return fmt.Errorf("telegram webhook url is required in webhook mode")
		}
	default:
		return fmt.Errorf("unknown telegram mode %q", config.Telegram.Mode)
	}

	if len(config.Telegram.AllowedUpdates) == 0 {
		return fmt.Errorf("telegram allowed updates must not be empty")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	// Validate JWT expiration format
	if _, err := time.ParseDuration(config.JWT.FormTokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT form token expiration format: %w", err)
	}

	if config.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("scheduler poll interval must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// GetEnv gets an environment variable or returns a default value
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
