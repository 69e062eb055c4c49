package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Mail     MailConfig     `yaml:"mail"`
	Tracking TrackingConfig `yaml:"tracking"`
	Dispatch DispatchConfig `yaml:"dispatch"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection.
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds the optional stats-cache Redis settings.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Enabled bool   `yaml:"enabled"`
}

// MailConfig holds outbound mail transport settings.
type MailConfig struct {
	// Provider selects the transport: "ses" or "smtp".
	Provider  string `yaml:"provider"`
	FromEmail string `yaml:"from_email"`
	FromName  string `yaml:"from_name"`

	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`

	SESRegion      string `yaml:"ses_region"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the transport timeout as a duration.
func (c MailConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TrackingConfig holds settings for the public tracking endpoints and the
// URLs embedded into outgoing mail.
type TrackingConfig struct {
	// BaseURL is the externally reachable root of the tracking service,
	// e.g. "https://track.soar-ai.com". Beacon and click URLs are built
	// under {BaseURL}/track/.
	BaseURL string `yaml:"base_url"`
	// FallbackURL is where click redirects land when the token or target
	// URL cannot be resolved.
	FallbackURL string `yaml:"fallback_url"`
	Port        int    `yaml:"port"`
}

// DispatchConfig holds dispatcher tuning.
type DispatchConfig struct {
	BatchSize      int    `yaml:"batch_size"`
	RatePerSecond  int    `yaml:"rate_per_second"`
	LogDir         string `yaml:"log_dir"`
	DefaultCTA     string `yaml:"default_cta"`
	DefaultCTALink string `yaml:"default_cta_link"`
}

// Load reads and parses the configuration file, applying defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Mail.Provider == "" {
		cfg.Mail.Provider = "smtp"
	}
	if cfg.Mail.SMTPHost == "" {
		cfg.Mail.SMTPHost = "localhost"
	}
	if cfg.Mail.SMTPPort == 0 {
		cfg.Mail.SMTPPort = 587
	}
	if cfg.Mail.FromEmail == "" {
		cfg.Mail.FromEmail = "noreply@soarai.com"
	}
	if cfg.Mail.FromName == "" {
		cfg.Mail.FromName = "SOAR-AI"
	}
	if cfg.Mail.SESRegion == "" {
		cfg.Mail.SESRegion = "us-west-2"
	}
	if cfg.Mail.TimeoutSeconds == 0 {
		cfg.Mail.TimeoutSeconds = 30
	}
	if cfg.Tracking.Port == 0 {
		cfg.Tracking.Port = 8081
	}
	if cfg.Tracking.FallbackURL == "" {
		cfg.Tracking.FallbackURL = "https://soar-ai.com"
	}
	if cfg.Dispatch.BatchSize == 0 {
		cfg.Dispatch.BatchSize = 50
	}
	if cfg.Dispatch.LogDir == "" {
		cfg.Dispatch.LogDir = "logs"
	}
	if cfg.Dispatch.DefaultCTA == "" {
		cfg.Dispatch.DefaultCTA = "Schedule Demo"
	}
	if cfg.Dispatch.DefaultCTALink == "" {
		cfg.Dispatch.DefaultCTALink = "https://calendly.com/soar-ai/demo"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if os.IsNotExist(err) {
		// No config file; run on defaults plus env overrides.
		cfg = &Config{}
		applyDefaults(cfg)
	} else if err != nil {
		return nil, err
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("MAIL_PROVIDER"); v != "" {
		cfg.Mail.Provider = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Mail.SMTPHost = v
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Mail.SMTPUser = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Mail.SMTPPassword = v
	}
	if v := os.Getenv("MAIL_FROM_EMAIL"); v != "" {
		cfg.Mail.FromEmail = v
	}
	if v := os.Getenv("DOMAIN_URL"); v != "" {
		cfg.Tracking.BaseURL = v
	}
	if v := os.Getenv("TRACKING_FALLBACK_URL"); v != "" {
		cfg.Tracking.FallbackURL = v
	}

	return cfg, nil
}
