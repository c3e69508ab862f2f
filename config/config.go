// Package config loads the application configuration from an optional
// YAML file, backfills defaults, and injects the API credential from the
// environment. The credential is never stored in source.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAPIKey overrides api.key from the config file when set.
const EnvAPIKey = "GROQ_API_KEY"

type Config struct {
	Recordings RecordingsConfig `yaml:"recordings"`
	Notes      NotesConfig      `yaml:"notes"`
	API        APIConfig        `yaml:"api"`
}

type RecordingsConfig struct {
	Dir string `yaml:"dir"`
}

type NotesConfig struct {
	File string `yaml:"file"`
}

type APIConfig struct {
	BaseURL         string `yaml:"base_url"`
	Key             string `yaml:"key"`
	TranscribeModel string `yaml:"transcribe_model"`
	SummarizeModel  string `yaml:"summarize_model"`
	Language        string `yaml:"language"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

func (a APIConfig) RequestTimeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Load reads the config file at path, or starts from defaults when path
// is empty. GROQ_API_KEY takes precedence over api.key in either case.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.API.Key = key
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds must not be negative")
	}

	if c.Recordings.Dir == "" {
		c.Recordings.Dir = "recordings"
	}
	if c.Notes.File == "" {
		c.Notes.File = "class_notes.txt"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://api.groq.com/openai"
	}
	if c.API.TranscribeModel == "" {
		c.API.TranscribeModel = "whisper-large-v3-turbo"
	}
	if c.API.SummarizeModel == "" {
		c.API.SummarizeModel = "mixtral-8x7b-32768"
	}
	if c.API.Language == "" {
		c.API.Language = "en"
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 60
	}

	return nil
}

// RequireAPIKey rejects configurations that cannot reach the API.
func (c *Config) RequireAPIKey() error {
	if c.API.Key == "" {
		return fmt.Errorf("no API key configured: set %s or api.key in the config file", EnvAPIKey)
	}
	return nil
}
