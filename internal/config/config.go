package config

import (
	"ctchen222/tictac/internal/validator"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Log       Log       `yaml:"log"`
	HTTP      HTTP      `yaml:"http"`
	Game      Game      `yaml:"game"`
	Redis     Redis     `yaml:"redis"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type Log struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text" validate:"oneof=text json"`
}

type HTTP struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s" validate:"min=1s"`
}

type Game struct {
	TimePerTurn  time.Duration `yaml:"time-per-turn" env:"GAME_TIME_PER_TURN" env-default:"10s" validate:"min=1s,max=30s"`
	DefaultMode  string        `yaml:"default-mode" env:"GAME_DEFAULT_MODE" env-default:"medium" validate:"oneof=pvp easy medium"`
	SessionTTL   time.Duration `yaml:"session-ttl" env:"GAME_SESSION_TTL" env-default:"10m" validate:"min=1s"`
	ReapInterval time.Duration `yaml:"reap-interval" env:"GAME_REAP_INTERVAL" env-default:"1m" validate:"min=1s"`
}

// Redis publishing is disabled when Addr is empty.
type Redis struct {
	Addr    string `yaml:"addr" env:"REDIS_CONNSTRING" env-default:""`
	Channel string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"channel:events" validate:"required"`
	// PublishTimeout bounds a single publish. Field changes are published during a turn.
	PublishTimeout time.Duration `yaml:"publish_timeout" env:"REDIS_PUBLISH_TIMEOUT" env-default:"2s" validate:"min=10ms,max=30s"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317" validate:"required_if=Enabled true"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tictac" validate:"required"`
}

// Load reads the YAML file at path, then the environment. A missing file is not an
// error: the environment and defaults are used instead.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if path == "" {
		err = cleanenv.ReadEnv(config)
	} else if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		err = cleanenv.ReadEnv(config)
	} else {
		err = cleanenv.ReadConfig(path, config)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := validator.GetValidator().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// MustLoad - load all configurations, panicking on failure.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}
	return config
}
