package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Notification backends accepted by NOTIFY_BACKEND.
const (
	BackendLog   = "log"
	BackendRedis = "redis"
	BackendKafka = "kafka"
)

// Config is the process configuration read from the environment.
type Config struct {
	Addr           string            `env:"ADDR"             envDefault:":8080"`
	DatabaseURL    string            `env:"DATABASE_URL"`
	AutoMigrate    bool              `env:"AUTO_MIGRATE"     envDefault:"true"`
	JWTSecret      string            `env:"JWT_SECRET,required,notEmpty"`
	LogLevel       string            `env:"LOG_LEVEL"        envDefault:"info"`
	LogDevelopment bool              `env:"LOG_DEVELOPMENT"  envDefault:"false"`
	NotifyBackend  string            `env:"NOTIFY_BACKEND"   envDefault:"log"`
	RedisURL       string            `env:"REDIS_URL"`
	KafkaBrokers   []string          `env:"KAFKA_BROKERS"    envSeparator:","`
	RelayInterval  time.Duration     `env:"RELAY_INTERVAL"   envDefault:"5s"`
	RelayBatchSize int               `env:"RELAY_BATCH_SIZE" envDefault:"100"`
	StaticActors   map[string]string `env:"STATIC_ACTORS"    envKeyValSeparator:":"`

	// BootstrapVerifiers are made approved verifiers at startup.
	BootstrapVerifiers []string `env:"BOOTSTRAP_VERIFIERS" envSeparator:","`
}

// Load parses and validates the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	switch c.NotifyBackend {
	case BackendLog:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required for the redis backend"))
		}
	case BackendKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required for the kafka backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_BACKEND %q", c.NotifyBackend))
	}
	if c.RelayInterval < time.Second {
		errs = append(errs, fmt.Errorf("RELAY_INTERVAL must be at least 1s, got %s", c.RelayInterval))
	}
	if c.RelayBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("RELAY_BATCH_SIZE must be positive, got %d", c.RelayBatchSize))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// InMemory reports whether the service runs without PostgreSQL.
func (c Config) InMemory() bool {
	return c.DatabaseURL == ""
}
