// Package config loads tutor settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the full tutor configuration.
type Config struct {
	// BundleDir is the bundle directory to serve from.
	BundleDir string `toml:"bundle_dir"`

	// K is the number of chunks retrieved per question.
	K int `toml:"k"`

	// Threshold is the retrieval confidence gate.
	Threshold float32 `toml:"threshold"`

	// Mode selects the answer style: "student" or "teacher".
	Mode string `toml:"mode"`

	Embedding Service `toml:"embedding"`
	Generator Service `toml:"generator"`
}

// Service configures one Ollama-backed collaborator.
type Service struct {
	BaseURL string   `toml:"base_url"`
	Model   string   `toml:"model"`
	Timeout Duration `toml:"timeout"`
}

// Duration wraps time.Duration for TOML strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		K:         3,
		Threshold: 0.60,
		Mode:      "student",
		Embedding: Service{
			BaseURL: "http://localhost:11434",
			Model:   "nomic-embed-text",
			Timeout: Duration(30 * time.Second),
		},
		Generator: Service{
			BaseURL: "http://localhost:11434",
			Model:   "gemma2:2b",
			Timeout: Duration(120 * time.Second),
		},
	}
}

// Load reads a TOML file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.K <= 0 {
		return fmt.Errorf("config: k must be positive, got %d", c.K)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("config: threshold must be in [0, 1], got %g", c.Threshold)
	}
	if c.Mode != "student" && c.Mode != "teacher" {
		return fmt.Errorf("config: mode must be student or teacher, got %q", c.Mode)
	}
	return nil
}
