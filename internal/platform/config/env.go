package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultDotEnvFiles lists the dotenv files loaded at startup, highest priority first.
var DefaultDotEnvFiles = []string{".env.local", ".env"}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads the given dotenv files into the process environment.
//
// Missing files are skipped. Variables already present in the environment are
// never overwritten, and earlier files win over later ones.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat dotenv %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load dotenv %s: %w", path, err)
		}
	}
	return nil
}

// Sanitize trims whitespace and strips one leading and one trailing quote.
//
// Hosting dashboards frequently store values pasted with their quotes, so
// `"https://x.supabase.co"` and `'key'` must resolve to the bare value.
func Sanitize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if value[0] == '"' || value[0] == '\'' {
		value = value[1:]
	}
	if n := len(value); n > 0 && (value[n-1] == '"' || value[n-1] == '\'') {
		value = value[:n-1]
	}
	return value
}
