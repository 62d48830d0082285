package main

import (
	"fmt"
	"time"

	"github.com/icco/spot"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is read from the environment.
type Config struct {
	Port        string        `env:"PORT" env-default:"8080"`
	Env         string        `env:"NAT_ENV" env-default:"development"`
	DatabaseURL string        `env:"DATABASE_URL" env-default:"file::memory:?cache=shared"`
	TokenSecret string        `env:"SPOT_TOKEN_SECRET"`
	TokenTTL    time.Duration `env:"SPOT_TOKEN_TTL" env-default:"24h"`

	EdgeSize      int           `env:"SPOT_EDGE_SIZE" env-default:"7"`
	EngineLevel   string        `env:"SPOT_ENGINE_LEVEL" env-default:"intermediate"`
	EngineTimeout time.Duration `env:"SPOT_ENGINE_TIMEOUT" env-default:"10s"`
	EngineDelay   time.Duration `env:"SPOT_ENGINE_DELAY" env-default:"0s"`
	EngineSeed    int64         `env:"SPOT_ENGINE_SEED" env-default:"0"`
	// EngineURL points at another server's /engine endpoints.
	EngineURL string `env:"SPOT_ENGINE_URL"`
	// EngineCmd is an engine executable and its arguments, used when
	// EngineURL is empty.
	EngineCmd string `env:"SPOT_ENGINE_CMD"`
}

func loadConfig() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("unable to read config: %w", err)
	}
	if cfg.EdgeSize < spot.MinEdgeSize || cfg.EdgeSize > spot.MaxEdgeSize {
		return nil, fmt.Errorf("SPOT_EDGE_SIZE: %w: got %d", spot.ErrBoardSize, cfg.EdgeSize)
	}
	return cfg, nil
}

// IsDev is true everywhere but production.
func (c *Config) IsDev() bool {
	return c.Env != "production"
}
