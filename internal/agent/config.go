package agent

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from the environment only.
type Config struct {
	ServerURL            string        `env:"POSTPILOT_SERVER_URL" env-default:"ws://localhost:5334/ws" env-description:"websocket endpoint of the postpilot server"`
	PublisherURL         string        `env:"POSTPILOT_PUBLISHER_URL" env-default:"http://localhost:5335" env-description:"base URL of the LinkedIn publishing bridge"`
	PublisherTimeout     time.Duration `env:"POSTPILOT_PUBLISHER_TIMEOUT" env-default:"2m"`
	ConfirmTimeout       time.Duration `env:"POSTPILOT_CONFIRM_TIMEOUT" env-default:"30s" env-description:"how long to wait for a reschedule confirmation"`
	Timezone             string        `env:"POSTPILOT_TIMEZONE" env-default:"Local"`
	ReconnectMaxInterval time.Duration `env:"POSTPILOT_RECONNECT_MAX_INTERVAL" env-default:"30s"`
	SyncInterval         time.Duration `env:"POSTPILOT_SYNC_INTERVAL" env-default:"1m"`
	OutreachInterval     time.Duration `env:"POSTPILOT_OUTREACH_INTERVAL" env-default:"0s" env-description:"0 disables the outreach runner"`
	TOTPSecret           string        `env:"POSTPILOT_TOTP_SECRET" env-description:"shared secret used to mint the X-OTP header"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		help, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("failed to read agent environment: %w\n%s", err, help)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("POSTPILOT_SERVER_URL is required")
	}
	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("POSTPILOT_CONFIRM_TIMEOUT must be positive")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("POSTPILOT_SYNC_INTERVAL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location is the zone NextAvailableTime rolls days over in.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid POSTPILOT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}
