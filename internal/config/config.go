package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Manifest     string   `env:"TICKS_MANIFEST" envDefault:"ticks.yaml"`
	PrefetchSize int      `env:"TICKS_PREFETCH_SIZE" envDefault:"0"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"`
	BatchSize    int      `env:"KAFKA_BATCH_SIZE" envDefault:"500"`
	GRPCPort     int      `env:"GRPC_PORT" envDefault:"8080"`
	MetricsAddr  string   `env:"METRICS_ADDR"`
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

// Parse reads configuration from environ only. Used by tests.
func Parse(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.PrefetchSize < 0 {
		return fmt.Errorf("%w: TICKS_PREFETCH_SIZE must not be negative", ErrInvalidConfig)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("%w: KAFKA_BATCH_SIZE must be positive", ErrInvalidConfig)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("%w: GRPC_PORT %d out of range", ErrInvalidConfig, c.GRPCPort)
	}
	if (len(c.KafkaBrokers) == 0) != (c.KafkaTopic == "") {
		return fmt.Errorf("%w: KAFKA_BROKERS and KAFKA_TOPIC must be set together", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) PublishEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
