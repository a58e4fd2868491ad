package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	domainerrors "github.com/davidleathers/taxid-validator/internal/domain/errors"
	"github.com/davidleathers/taxid-validator/internal/domain/values"
)

// DefaultConfigPath is read when no explicit path is given and the file exists
const DefaultConfigPath = "configs/taxid.yaml"

// EnvPrefix prefixes every environment override; "__" separates nested keys,
// e.g. TAXID_VALIDATION__REJECT_REPEATED_DIGITS=true
const EnvPrefix = "TAXID_"

type Config struct {
	Environment string `koanf:"environment" validate:"required,oneof=development production test"`
	LogLevel    string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	Validation ValidationConfig `koanf:"validation"`
	Batch      BatchConfig      `koanf:"batch"`
	Output     OutputConfig     `koanf:"output"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

type ValidationConfig struct {
	RejectRepeatedDigits bool `koanf:"reject_repeated_digits"`
}

type BatchConfig struct {
	Workers int `koanf:"workers" validate:"min=1,max=256"`
}

type OutputConfig struct {
	Format    string `koanf:"format" validate:"oneof=text json"`
	Formatted bool   `koanf:"formatted"`
}

type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// Policy returns the identifier policy selected by the validation settings
func (c *Config) Policy() values.Policy {
	return values.Policy{RejectRepeatedDigits: c.Validation.RejectRepeatedDigits}
}

// Defaults returns the configuration used when nothing overrides it
func Defaults() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Batch: BatchConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load merges defaults, an optional YAML file and TAXID_ environment
// variables, in that order. An explicit path must exist; the default path is
// skipped when missing.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints declared in struct tags
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
		return domainerrors.NewConfigurationError("invalid configuration: " + strings.Join(fields, "; ")).
			WithCause(err)
	}

	return domainerrors.NewConfigurationError("invalid configuration").WithCause(err)
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}
