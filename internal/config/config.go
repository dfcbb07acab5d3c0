package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/scenecomposer/internal/rules"
)

// EnvPrefix prefixes every environment override, e.g. SCENECOMPOSER_FPS
const EnvPrefix = "SCENECOMPOSER"

type Config struct {
	InputDir    string   `yaml:"input_dir" split_words:"true" validate:"required"`
	OutputDir   string   `yaml:"output_dir" split_words:"true" validate:"required"`
	AssetsDir   string   `yaml:"assets_dir" split_words:"true"`
	Mode        string   `yaml:"mode" split_words:"true" validate:"oneof=rules llm"`
	FPS         int      `yaml:"fps" split_words:"true" validate:"gt=0,lte=120"`
	Width       int      `yaml:"width" split_words:"true" validate:"gt=0"`
	Height      int      `yaml:"height" split_words:"true" validate:"gt=0"`
	Preset      string   `yaml:"preset" split_words:"true" validate:"omitempty,oneof=16:9 9:16 4:5"`
	Palette     []string `yaml:"palette" split_words:"true" validate:"min=1,dive,hexcolor"`
	EndCardURL  string   `yaml:"endcard_url" split_words:"true" validate:"omitempty,url"`
	Workers     int      `yaml:"workers" split_words:"true" validate:"gte=0"`
	ShowStats   bool     `yaml:"show_stats" split_words:"true"`
	MetricsPath string   `yaml:"metrics_path" split_words:"true"`

	LLM LLMConfig `yaml:"llm" split_words:"true"`
	Log LogConfig `yaml:"log" split_words:"true"`

	BuildVersion string `yaml:"-" ignored:"true"`
}

type LLMConfig struct {
	// APIKey is read from OPENAI_API_KEY and never from the yaml file
	APIKey     string        `yaml:"-" envconfig:"OPENAI_API_KEY"`
	Model      string        `yaml:"model" split_words:"true" validate:"required"`
	BaseURL    string        `yaml:"base_url" split_words:"true" validate:"omitempty,url"`
	Timeout    time.Duration `yaml:"timeout" split_words:"true" validate:"gt=0"`
	RatePerSec float64       `yaml:"rate_per_sec" split_words:"true" validate:"gte=0"`
	Burst      int           `yaml:"burst" split_words:"true" validate:"gte=0"`
}

type LogConfig struct {
	Level      string `yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Encoding   string `yaml:"encoding" split_words:"true" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" split_words:"true"`
}

// Presets map a format name to canvas dimensions
var Presets = map[string][2]int{
	"16:9": {1920, 1080},
	"9:16": {1080, 1920},
	"4:5":  {1080, 1350},
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		InputDir:  "input/scripts",
		OutputDir: "output",
		Mode:      "rules",
		FPS:       30,
		Width:     1920,
		Height:    1080,
		Palette:   append([]string(nil), rules.DefaultPalette...),
		LLM: LLMConfig{
			Model:      "gpt-4o",
			Timeout:    120 * time.Second,
			RatePerSec: 1,
			Burst:      1,
		},
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load builds the configuration from defaults, an optional yaml file at path,
// a .env file in the working directory and SCENECOMPOSER_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}

	cfg.ApplyPreset()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyPreset overrides Width and Height when a known preset is set
func (c *Config) ApplyPreset() {
	if dims, ok := Presets[c.Preset]; ok {
		c.Width, c.Height = dims[0], dims[1]
	}
}

// Validate checks field constraints; the API key is only required in llm mode
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Mode == "llm" && c.LLM.APIKey == "" {
		return errors.New("invalid config: llm mode requires OPENAI_API_KEY")
	}
	return nil
}
