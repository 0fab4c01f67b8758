package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mgpai22/kara/internal/ass"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	opts := cfg.GenerateOptions()
	def := ass.DefaultGenerateOptions()
	def.Title = ""
	if opts != def {
		t.Errorf("expected default options %+v, got %+v", def, opts)
	}
	if cfg.Workers != 4 || cfg.LogLevel != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("KARA_FONT_SIZE", "60")
	t.Setenv("KARA_PADDING", "250ms")
	t.Setenv("KARA_COUNTDOWN_FROM", "0")

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("KARA_WORKERS=2\nKARA_SCREEN_WIDTH=1920\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.Unsetenv("KARA_WORKERS")
		os.Unsetenv("KARA_SCREEN_WIDTH")
	})

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.FontSize != 60 || cfg.Padding != 250*time.Millisecond || cfg.CountdownFrom != 0 {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if cfg.Workers != 2 || cfg.Width != 1920 {
		t.Errorf("env file not applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no workers", func(c *Config) { c.Workers = 0 }},
		{"no lines", func(c *Config) { c.MaxLinesOnScreen = 0 }},
		{"negative padding", func(c *Config) { c.Padding = -time.Second }},
		{"bad colour", func(c *Config) { c.HighlightColor = "green" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	content := `title: My Night
font_size: 36
padding: 500ms
max_lines_on_screen: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := LoadOptionsFile(path)
	if err != nil {
		t.Fatalf("LoadOptionsFile failed: %v", err)
	}

	opts := f.Apply(ass.DefaultGenerateOptions())
	if opts.Title != "My Night" || opts.FontSize != 36 || opts.MaxLinesOnScreen != 2 {
		t.Errorf("options not applied: %+v", opts)
	}
	if opts.Padding != 500*time.Millisecond {
		t.Errorf("expected 500ms padding, got %v", opts.Padding)
	}
	if opts.Font != "IMPACT" || opts.Width != 1280 {
		t.Errorf("absent keys should keep their values: %+v", opts)
	}

	if _, err := LoadOptionsFile(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
