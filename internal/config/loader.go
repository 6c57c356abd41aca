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

// Environment variables read outside the MATCHDIGEST_ namespace mapping.
const (
	EnvPrefix     = "MATCHDIGEST_"
	EnvConfigFile = "MATCHDIGEST_CONFIG"
	EnvOpenAIKey  = "OPENAI_API_KEY"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from path, or MATCHDIGEST_CONFIG when path is empty
//  3. env (prefix MATCHDIGEST_)
//
// OPENAI_API_KEY fills openai_api_key when nothing else set it.
func Load(_ context.Context, path string) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like MATCHDIGEST_WINDOW_SECONDS -> window_seconds (flat keys).
	// MATCHDIGEST_CONFIG names the file and is not a key.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		if s == "config" {
			return ""
		}
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv(EnvOpenAIKey)
	}
	normalize(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(c *Config) {
	for _, s := range []*string{&c.LogFormat, &c.Backend, &c.NarrativePacing, &c.TranscriptionPacing, &c.RetryBackoff, &c.OnFailure} {
		*s = strings.ToLower(strings.TrimSpace(*s))
	}
	c.ClipFormat = strings.TrimPrefix(c.ClipFormat, ".")
}
