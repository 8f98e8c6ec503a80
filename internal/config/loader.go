package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if CHAMP_CONFIG is set
//  3. env (prefix CHAMP_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CHAMP_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CHAMP_ADDR, CHAMP_BEST_N, ...
	// Map env keys like CHAMP_BEST_N -> best_n (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("CHAMP_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "champ_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if cfg.BestN <= 0 {
		return nil, fmt.Errorf("%w: best_n must be positive", ErrInvalidConfig)
	}
	if cfg.PointsBase <= 0 {
		return nil, fmt.Errorf("%w: points_base must be positive", ErrInvalidConfig)
	}
	if cfg.RescoreWorkers <= 0 {
		return nil, fmt.Errorf("%w: rescore_workers must be positive", ErrInvalidConfig)
	}
	return &cfg, nil
}
