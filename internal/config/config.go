// Package config loads the planner settings from YAML or TOML files.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"morphing-planner/internal/planner/aircraft"
	"morphing-planner/internal/planner/airspace"
	"morphing-planner/internal/planner/evolution"
	"morphing-planner/internal/planner/route"

	"github.com/BurntSushi/toml"
	"github.com/labstack/gommon/log"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

var ErrInvalidConfig = errors.New("config: invalid configuration")

type LogConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

type OutputConfig struct {
	Dir       string `yaml:"dir" toml:"dir" json:"dir"`
	PathPlot  string `yaml:"path_plot" toml:"path_plot" json:"path_plot"`
	TracePlot string `yaml:"trace_plot" toml:"trace_plot" json:"trace_plot"`
	// Written when the field is generated rather than loaded.
	MapFile string `yaml:"map_file" toml:"map_file" json:"map_file"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr" toml:"addr" json:"addr"`
	MaxPopulation  int    `yaml:"max_population" toml:"max_population" json:"max_population"`
	MaxGenerations int    `yaml:"max_generations" toml:"max_generations" json:"max_generations"`
}

type AppConfig struct {
	Log     LogConfig                `yaml:"log" toml:"log" json:"log"`
	GA      evolution.Config         `yaml:"ga" toml:"ga" json:"ga"`
	Vehicle aircraft.Model           `yaml:"vehicle" toml:"vehicle" json:"vehicle"`
	Field   airspace.GeneratorConfig `yaml:"field" toml:"field" json:"field"`
	Fitness route.Weights            `yaml:"fitness" toml:"fitness" json:"fitness"`
	Output  OutputConfig             `yaml:"output" toml:"output" json:"output"`
	Server  ServerConfig             `yaml:"server" toml:"server" json:"server"`
}

func Default() AppConfig {
	return AppConfig{
		Log:     LogConfig{Level: "info"},
		GA:      evolution.DefaultConfig(),
		Vehicle: aircraft.DefaultModel(),
		Field:   airspace.DefaultGeneratorConfig(),
		Fitness: route.DefaultWeights(),
		Output: OutputConfig{
			Dir:       "out",
			PathPlot:  "path.png",
			TracePlot: "trace.png",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxPopulation:  1000,
			MaxGenerations: 1000,
		},
	}
}

// Evaluator is the fitness function described by the config.
func (c AppConfig) Evaluator() route.Evaluator {
	eval := route.DefaultEvaluator()
	eval.Weights = c.Fitness
	return eval
}

func (c AppConfig) Validate() error {
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if err := c.GA.Validate(); err != nil {
		return fmt.Errorf("ga: %w", err)
	}
	if err := c.Vehicle.Validate(); err != nil {
		return fmt.Errorf("vehicle: %w", err)
	}
	if err := c.Field.Validate(); err != nil {
		return fmt.Errorf("field: %w", err)
	}
	return nil
}

// Load reads path, choosing the decoder from its extension. Keys missing from
// the file keep their Default value.
func Load(path string) (AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return AppConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML (".yaml", ".yml") or TOML (".toml") document.
func Parse(data []byte, format string) (AppConfig, error) {
	var raw map[string]any
	cfg := Default()

	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if err := validateDocument(raw); err != nil {
			return AppConfig{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if err := validateDocument(raw); err != nil {
			return AppConfig{}, err
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	default:
		return AppConfig{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidConfig, format)
	}

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

func validateDocument(raw map[string]any) error {
	// an empty document decodes to nil
	if raw == nil {
		raw = map[string]any{}
	}
	validator, err := NewValidator(schemaJSON)
	if err != nil {
		return err
	}
	if err := validator.Validate(raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func ParseLevel(level string) (log.Lvl, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DEBUG, nil
	case "info", "":
		return log.INFO, nil
	case "warn", "warning":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	}
	return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, level)
}

// NewLogger returns a gommon logger for one component at the configured level.
func (c AppConfig) NewLogger(prefix string) *log.Logger {
	logger := log.New(prefix)
	if lvl, err := ParseLevel(c.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
