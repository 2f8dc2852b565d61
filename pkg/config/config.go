// Package config loads the YAML file holding the engine's tunables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dukex/autoflow/pkg/completion/langchain"
	"github.com/dukex/autoflow/pkg/completion/ratelimit"
	"github.com/dukex/autoflow/pkg/dispatcher"
	"github.com/dukex/autoflow/pkg/gate"
	"github.com/dukex/autoflow/pkg/intent"
	"github.com/dukex/autoflow/pkg/orchestrator"
	"github.com/dukex/autoflow/pkg/transport"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	CompletionOpenAI = "openai"
	CompletionEcho   = "echo"
)

type Config struct {
	Intent       intent.Weights        `yaml:"intent"`
	Gate         gate.Policy           `yaml:"gate"`
	Builder      BuilderConfig         `yaml:"builder"`
	Dispatcher   dispatcher.Config     `yaml:"dispatcher"`
	Orchestrator orchestrator.Config   `yaml:"orchestrator"`
	Completion   CompletionConfig      `yaml:"completion"`
	SMTP         *transport.SMTPConfig `yaml:"smtp"`
}

type BuilderConfig struct {
	DefaultSubject string `yaml:"default_subject" validate:"required"`
}

type CompletionConfig struct {
	Provider string           `yaml:"provider" validate:"oneof=openai echo"`
	OpenAI   langchain.Config `yaml:"openai"`
	// RateLimit is disabled when absent
	RateLimit *ratelimit.Config `yaml:"rate_limit"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Intent:       intent.DefaultWeights(),
		Builder:      BuilderConfig{DefaultSubject: "Hello"},
		Dispatcher:   dispatcher.DefaultConfig(),
		Orchestrator: orchestrator.DefaultConfig(),
		Completion: CompletionConfig{
			Provider: CompletionEcho,
			OpenAI:   langchain.Config{Model: "gpt-4o-mini", Temperature: 0.7},
			RateLimit: &ratelimit.Config{
				MaxRequests: 20,
				Window:      time.Minute,
				MaxWait:     5 * time.Second,
			},
		},
	}
}

// Load reads path over the defaults; fields absent from the file keep their
// default value. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks every section against its validate tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			return fmt.Errorf("invalid config: %w", invalid)
		}

		return err
	}

	return nil
}
