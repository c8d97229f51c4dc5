package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const EnvPrefix = "JOBBOARD_"

// Config is the process configuration, loaded from JOBBOARD_* variables
type Config struct {
	Debug    bool           `env:"DEBUG" envDefault:"false"`
	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	JWT      JWTConfig      `envPrefix:"JWT_"`
	Hashing  HashingConfig  `envPrefix:"HASH_"`
	// PhoneRegion is the default region for company phone numbers
	PhoneRegion string `env:"PHONE_REGION" envDefault:"PL"`
	// UseHashid derives owner account ids from their email
	UseHashid bool `env:"USE_HASHID" envDefault:"false"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	BodyLimit       int           `env:"BODY_LIMIT" envDefault:"1048576"`
}

type DatabaseConfig struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"`
	DSN          string `env:"DSN" envDefault:"file:jobboard.db?cache=shared"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type JWTConfig struct {
	Key        string `env:"KEY"`
	Issuer     string `env:"ISSUER" envDefault:"jobboard"`
	ExpireDays int    `env:"EXPIRE_DAYS" envDefault:"15"`
	// PreviousKeys are retired signing keys still accepted for validation
	PreviousKeys []string `env:"PREVIOUS_KEYS" envSeparator:","`
}

type HashingConfig struct {
	Cost    int `env:"COST" envDefault:"12"`
	Workers int `env:"WORKERS" envDefault:"0"`
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values the process cannot start without
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Key) == "" {
		return fmt.Errorf("%sJWT_KEY is required", EnvPrefix)
	}
	if len(c.JWT.Key) < 32 {
		return fmt.Errorf("%sJWT_KEY must be at least 32 bytes (256 bits) for HMAC-SHA256", EnvPrefix)
	}
	for _, key := range c.JWT.PreviousKeys {
		if len(key) < 32 {
			return fmt.Errorf("%sJWT_PREVIOUS_KEYS entries must be at least 32 bytes", EnvPrefix)
		}
	}
	if c.JWT.ExpireDays < 1 {
		return fmt.Errorf("%sJWT_EXPIRE_DAYS must be at least 1", EnvPrefix)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%sDB_DRIVER must be sqlite or postgres, got %q", EnvPrefix, c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("%sDB_DSN is required", EnvPrefix)
	}
	return nil
}

func (c *Config) GetSigningKey() string {
	return c.JWT.Key
}

func (c *Config) GetIssuer() string {
	return c.JWT.Issuer
}

func (c *Config) GetTokenExpirationDays() int {
	return c.JWT.ExpireDays
}

// Setup builds the root logger
func Setup(dev bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if dev {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Caller().Logger()

	if dev {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
			return time.Now().Format(time.RFC3339)
		}}).Level(level).With().Stack().Logger()
	}

	return logger
}
