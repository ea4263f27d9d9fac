package config

import (
	"fmt"
	"time"

	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/ifuryst/postpilot/pkg/logger"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    logger.Config   `yaml:"logger"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Auth      AuthConfig      `yaml:"auth"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	Host        string   `yaml:"host"`
	Mode        string   `yaml:"mode"`
	CertFile    string   `yaml:"cert_file"`
	KeyFile     string   `yaml:"key_file"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"`
	// DSN wins over the discrete fields below when set.
	DSN            string `yaml:"dsn"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"ssl_mode"`
	TimeZone       string `yaml:"timezone"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	ConnectRetries uint64 `yaml:"connect_retries"`
}

type SchedulerConfig struct {
	Enabled            *bool  `yaml:"enabled"`
	DetectInterval     string `yaml:"detect_interval"`
	StatsInterval      string `yaml:"stats_interval"`
	Timezone           string `yaml:"timezone"`
	ErrorRetentionDays int    `yaml:"error_retention_days"`
}

type RealtimeConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	MaxMessageBytes   int64         `yaml:"max_message_bytes"`
	SendBuffer        int           `yaml:"send_buffer"`
	RateLimit         float64       `yaml:"rate_limit"`
	RateBurst         int           `yaml:"rate_burst"`
}

type AuthConfig struct {
	// TOTPSecret enables one-time-password checks on the API when set.
	TOTPSecret string `yaml:"totp_secret"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills every zero field with its default.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5334
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Database.ConnectRetries == 0 {
		cfg.Database.ConnectRetries = 5
	}
	if cfg.Scheduler.Enabled == nil {
		enabled := true
		cfg.Scheduler.Enabled = &enabled
	}
	if cfg.Scheduler.DetectInterval == "" {
		cfg.Scheduler.DetectInterval = "1m"
	}
	if cfg.Scheduler.StatsInterval == "" {
		cfg.Scheduler.StatsInterval = "5m"
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "Local"
	}
	if cfg.Scheduler.ErrorRetentionDays == 0 {
		cfg.Scheduler.ErrorRetentionDays = 30
	}
	if cfg.Realtime.HeartbeatInterval == 0 {
		cfg.Realtime.HeartbeatInterval = 30 * time.Second
	}
	if cfg.Realtime.WriteTimeout == 0 {
		cfg.Realtime.WriteTimeout = 10 * time.Second
	}
	if cfg.Realtime.MaxMessageBytes == 0 {
		cfg.Realtime.MaxMessageBytes = 512 * 1024
	}
	if cfg.Realtime.SendBuffer == 0 {
		cfg.Realtime.SendBuffer = 256
	}
	if cfg.Realtime.RateLimit == 0 {
		cfg.Realtime.RateLimit = 20
	}
	if cfg.Realtime.RateBurst == 0 {
		cfg.Realtime.RateBurst = 40
	}
}

func (cfg *Config) Validate() error {
	switch cfg.Database.Type {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}
	if cfg.Database.Type == "sqlite" && cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required for sqlite")
	}
	if _, err := cfg.Scheduler.DetectEvery(); err != nil {
		return err
	}
	if _, err := cfg.Scheduler.StatsEvery(); err != nil {
		return err
	}
	if _, err := cfg.Scheduler.Location(); err != nil {
		return err
	}
	return nil
}

func (s SchedulerConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

func (s SchedulerConfig) DetectEvery() (time.Duration, error) {
	return parsePositive("scheduler.detect_interval", s.DetectInterval)
}

func (s SchedulerConfig) StatsEvery() (time.Duration, error) {
	return parsePositive("scheduler.stats_interval", s.StatsInterval)
}

func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler.timezone: %w", err)
	}
	return loc, nil
}

func parsePositive(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return d, nil
}
