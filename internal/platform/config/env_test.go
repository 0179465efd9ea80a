package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type envTestConfig struct {
	Port int `env:"EDUMAP_DESK_TEST_PORT" envDefault:"123"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("EDUMAP_DESK_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDotEnvSkipsMissingFiles(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".env.local")
	if err := LoadDotEnv(missing, ""); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	if err := os.WriteFile(local, []byte("EDUMAP_DESK_TEST_A=local\n"), 0o600); err != nil {
		t.Fatalf("write local: %v", err)
	}
	if err := os.WriteFile(shared, []byte("EDUMAP_DESK_TEST_A=shared\nEDUMAP_DESK_TEST_B=shared\n"), 0o600); err != nil {
		t.Fatalf("write shared: %v", err)
	}
	t.Setenv("EDUMAP_DESK_TEST_B", "process")
	t.Setenv("EDUMAP_DESK_TEST_A", "")
	os.Unsetenv("EDUMAP_DESK_TEST_A")

	if err := LoadDotEnv(local, shared); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("EDUMAP_DESK_TEST_A"); got != "local" {
		t.Fatalf("EDUMAP_DESK_TEST_A = %q, want %q", got, "local")
	}
	if got := os.Getenv("EDUMAP_DESK_TEST_B"); got != "process" {
		t.Fatalf("EDUMAP_DESK_TEST_B = %q, want %q", got, "process")
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "   ", want: ""},
		{in: " https://x.supabase.co ", want: "https://x.supabase.co"},
		{in: `"https://x.supabase.co"`, want: "https://x.supabase.co"},
		{in: `'anon-key'`, want: "anon-key"},
		{in: `"mixed'`, want: "mixed"},
		{in: `""quoted""`, want: `"quoted"`},
		{in: `"`, want: ""},
	}
	for _, tc := range tests {
		if got := Sanitize(tc.in); got != tc.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
