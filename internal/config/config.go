// Package config loads kara settings from the environment, an optional .env
// file and per-invocation YAML option files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/mgpai22/kara/internal/ass"
)

// EnvPrefix prefixes every environment variable, e.g. KARA_WORKERS.
const EnvPrefix = "KARA"

type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// archive entries decoded in parallel
	Workers int `envconfig:"WORKERS" default:"4"`

	Font             string        `envconfig:"FONT" default:"IMPACT"`
	FontSize         int           `envconfig:"FONT_SIZE" default:"48"`
	HighlightColor   string        `envconfig:"HIGHLIGHT_COLOR" default:"&H00FF00&"`
	Padding          time.Duration `envconfig:"PADDING" default:"1s"`
	CountdownStep    time.Duration `envconfig:"COUNTDOWN_STEP" default:"1s"`
	CountdownFrom    int           `envconfig:"COUNTDOWN_FROM" default:"3"`
	Width            int           `envconfig:"SCREEN_WIDTH" default:"1280"`
	Height           int           `envconfig:"SCREEN_HEIGHT" default:"720"`
	MaxLinesOnScreen int           `envconfig:"MAX_LINES" default:"4"`
}

// Load reads envFiles (".env" when none are given) and then the KARA_*
// environment. Missing env files are not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxLinesOnScreen < 1 {
		return fmt.Errorf("max lines must be at least 1, got %d", c.MaxLinesOnScreen)
	}
	if c.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %s", c.Padding)
	}
	if _, err := ass.ParseColor(c.HighlightColor); err != nil {
		return fmt.Errorf("invalid highlight colour: %w", err)
	}
	return nil
}

// GenerateOptions converts the settings into script generator options. The
// title is left empty so each song can supply its own.
func (c Config) GenerateOptions() ass.GenerateOptions {
	opts := ass.DefaultGenerateOptions()
	opts.Title = ""
	opts.Font = c.Font
	opts.FontSize = c.FontSize
	opts.HighlightColor = c.HighlightColor
	opts.Padding = c.Padding
	opts.CountdownStep = c.CountdownStep
	opts.CountdownFrom = c.CountdownFrom
	opts.Width = c.Width
	opts.Height = c.Height
	opts.MaxLinesOnScreen = c.MaxLinesOnScreen
	return opts
}

// OptionsFile is the YAML form of generator overrides. Absent keys keep the
// current value.
type OptionsFile struct {
	Title            *string        `yaml:"title"`
	HighlightColor   *string        `yaml:"highlight_color"`
	Font             *string        `yaml:"font"`
	FontSize         *int           `yaml:"font_size"`
	Padding          *time.Duration `yaml:"padding"`
	CountdownStep    *time.Duration `yaml:"countdown_step"`
	CountdownFrom    *int           `yaml:"countdown_from"`
	Width            *int           `yaml:"width"`
	Height           *int           `yaml:"height"`
	MaxLinesOnScreen *int           `yaml:"max_lines_on_screen"`
}

// LoadOptionsFile reads a YAML options file.
func LoadOptionsFile(path string) (OptionsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return OptionsFile{}, fmt.Errorf("failed to read options file: %w", err)
	}

	var f OptionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return OptionsFile{}, fmt.Errorf("failed to parse options file %s: %w", path, err)
	}
	return f, nil
}

// Apply overlays the values present in the file onto opts.
func (f OptionsFile) Apply(opts ass.GenerateOptions) ass.GenerateOptions {
	if f.Title != nil {
		opts.Title = *f.Title
	}
	if f.HighlightColor != nil {
		opts.HighlightColor = *f.HighlightColor
	}
	if f.Font != nil {
		opts.Font = *f.Font
	}
	if f.FontSize != nil {
		opts.FontSize = *f.FontSize
	}
	if f.Padding != nil {
		opts.Padding = *f.Padding
	}
	if f.CountdownStep != nil {
		opts.CountdownStep = *f.CountdownStep
	}
	if f.CountdownFrom != nil {
		opts.CountdownFrom = *f.CountdownFrom
	}
	if f.Width != nil {
		opts.Width = *f.Width
	}
	if f.Height != nil {
		opts.Height = *f.Height
	}
	if f.MaxLinesOnScreen != nil {
		opts.MaxLinesOnScreen = *f.MaxLinesOnScreen
	}
	return opts
}
