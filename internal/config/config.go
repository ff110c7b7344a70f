package config

import (
	"fmt"
	"log/slog"
	"time"

	"nerclient/internal/merge"
	"nerclient/internal/ratelimiter"
	"nerclient/internal/recognizer"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Config struct {
	Backend          string        `env:"NER_BACKEND"           envDefault:"direct"                                   validate:"oneof=direct stanford"`
	Endpoint         string        `env:"NER_ENDPOINT"          envDefault:"http://example.com:30500/ner/bert/normal" validate:"required,url"`
	StanfordEndpoint string        `env:"NER_STANFORD_ENDPOINT" envDefault:"http://nlp.stanford.edu:8080/ner/process" validate:"required,url"`
	Classifier       string        `env:"NER_CLASSIFIER"        envDefault:"distsim"                                  validate:"oneof=7class 4class 3class distsim"`
	Encoding         string        `env:"NER_ENCODING"          envDefault:"utf-8"                                    validate:"required"`
	Timeout          time.Duration `env:"NER_TIMEOUT"           envDefault:"30s"`
	Concurrency      int           `env:"NER_CONCURRENCY"       envDefault:"1"                                        validate:"min=1"`
	MinInterval      time.Duration `env:"NER_MIN_INTERVAL"`
	MergeSchemaPath  string        `env:"NER_MERGE_SCHEMA"                                                            validate:"omitempty,file"`
	LogLevel         string        `env:"LOG_LEVEL"             envDefault:"info"                                     validate:"oneof=debug info warn error"`
}

// LoadConfig reads the configuration from the environment, applying defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse env: %w", recognizer.ErrConfiguration, err)
	}

	return cfg, nil
}

// Override returns cfg with every non-zero field of overrides applied on top.
func (c Config) Override(overrides Config) (Config, error) {
	if err := mergo.Merge(&c, overrides, mergo.WithOverride); err != nil {
		return Config{}, fmt.Errorf("%w: apply overrides: %w", recognizer.ErrConfiguration, err)
	}

	return c, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", recognizer.ErrConfiguration, err)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative (timeout = %s)", recognizer.ErrConfiguration, c.Timeout)
	}

	if c.MinInterval < 0 {
		return fmt.Errorf("%w: min interval must not be negative (minInterval = %s)", recognizer.ErrConfiguration, c.MinInterval)
	}

	return nil
}

// SlogLevel maps LogLevel onto slog; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return level
}

// NewRecognizer validates the configuration and builds the recognizer it selects.
func (c Config) NewRecognizer(log *slog.Logger) (recognizer.Recognizer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	opts := []recognizer.Option{
		recognizer.WithTimeout(c.Timeout),
		recognizer.WithConcurrency(c.Concurrency),
		recognizer.WithRateLimiter(ratelimiter.New(c.MinInterval, log)),
	}

	if c.MergeSchemaPath != "" {
		schema, err := merge.LoadSchemaFile(c.MergeSchemaPath)
		if err != nil {
			return nil, fmt.Errorf("%w: load merge schema: %w", recognizer.ErrConfiguration, err)
		}
		opts = append(opts, recognizer.WithSchema(schema))
	}

	backend := recognizer.Backend(c.Backend)
	target := c.Endpoint
	if backend == recognizer.BackendStanford {
		target = c.Classifier
		opts = append(opts, recognizer.WithEndpoint(c.StanfordEndpoint))
	}

	return recognizer.New(backend, target, log, opts...)
}
