package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the sdctl YAML settings file. Flags override any field.
type Settings struct {
	Port          string `yaml:"port"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`
	Prompt        string `yaml:"prompt"`
}

func defaultSettings() Settings {
	return Settings{
		Baud:          115200,
		ReadTimeoutMS: 2000,
		Prompt:        "sd> ",
	}
}

// LoadSettings reads path over the defaults. An empty path yields the
// defaults; a missing file is an error.
func LoadSettings(path string) (Settings, error) {
	s := defaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// Validate checks settings correctness. It does not mutate s.
func (s Settings) Validate() error {
	if s.Port == "" {
		return errors.New("port is required")
	}
	if s.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", s.Baud)
	}
	if s.ReadTimeoutMS <= 0 {
		return fmt.Errorf("read_timeout_ms must be positive, got %d", s.ReadTimeoutMS)
	}
	if s.Prompt == "" {
		return errors.New("prompt must not be empty")
	}
	return nil
}

func (s Settings) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}
