package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds the server settings read from the environment.
type Config struct {
	HTTPAddr      string   `env:"SCHOOL_HTTP_ADDR" envDefault:":8080"`
	RedisAddr     string   `env:"SCHOOL_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string   `env:"SCHOOL_REDIS_PASSWORD"`
	RedisDB       int      `env:"SCHOOL_REDIS_DB" envDefault:"8"`
	LogLevel      string   `env:"SCHOOL_LOG_LEVEL" envDefault:"info"`
	LogPretty     bool     `env:"SCHOOL_LOG_PRETTY" envDefault:"false"`
	SeedOnStart   bool     `env:"SCHOOL_SEED_ON_START" envDefault:"true"`
	AllowOrigins  []string `env:"SCHOOL_ALLOW_ORIGINS" envDefault:"*" envSeparator:","`
	MaxTxRetries  int      `env:"SCHOOL_MAX_TX_RETRIES" envDefault:"5"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg(".env file not found, using system environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("SCHOOL_HTTP_ADDR cannot be empty")
	}
	if c.RedisAddr == "" {
		return errors.New("SCHOOL_REDIS_ADDR cannot be empty")
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("SCHOOL_REDIS_DB must not be negative, got %d", c.RedisDB)
	}
	if c.MaxTxRetries <= 0 {
		return fmt.Errorf("SCHOOL_MAX_TX_RETRIES must be positive, got %d", c.MaxTxRetries)
	}

	return nil
}
