package cmd

import (
	"context"
	"errors"
	"flag"
	"testing"

	"github.com/edumap/desk/internal/platform/otel"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_MODE", "env-mode")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	fs.StringVar(&cfg.Address, "address", cfg.Address, "address")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "mode")

	if err := ParseArgs(fs, []string{"-address", "flag:9001"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if cfg.Address != "flag:9001" {
		t.Fatalf("Address = %q, want flag value", cfg.Address)
	}
	if cfg.Mode != "env-mode" {
		t.Fatalf("Mode = %q, want env value", cfg.Mode)
	}
}

func TestParseConfigFromArgsKeepsEnvWhenFlagAbsent(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "configarg:9000")
	t.Setenv("CMD_TEST_MODE", "configarg-mode")

	cfg := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "address", "", "address")
	if err := ParseConfigFromArgs(&cfg, fs, nil); err != nil {
		t.Fatalf("parse config and args: %v", err)
	}
	if cfg.Mode != "configarg-mode" {
		t.Fatalf("Mode = %q, want env value", cfg.Mode)
	}
}

func TestParseRejectsNilTargets(t *testing.T) {
	t.Parallel()

	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected ParseArgs to reject nil parser")
	}
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected ParseConfig to reject nil target")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	t.Parallel()

	if err := RunWithTelemetry(context.Background(), " ", RunOptions{}, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceDesk, RunOptions{}, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Parallel()

	want := errors.New("boom")
	ran := false
	err := RunWithTelemetry(context.Background(), ServiceDesk, RunOptions{Telemetry: otel.Options{Disabled: true}}, func(context.Context) error {
		ran = true
		return want
	})
	if !ran {
		t.Fatal("expected run function to execute")
	}
	if !errors.Is(err, want) {
		t.Fatalf("RunWithTelemetry() error = %v, want %v", err, want)
	}
}
