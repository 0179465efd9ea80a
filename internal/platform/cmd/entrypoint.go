// Package cmd holds the startup plumbing shared by service commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"strings"
	"time"

	"github.com/edumap/desk/internal/platform/config"
	"github.com/edumap/desk/internal/platform/logging"
	"github.com/edumap/desk/internal/platform/otel"
	"github.com/edumap/desk/internal/platform/timeouts"
	"github.com/sirupsen/logrus"
)

// ServiceDesk names the desktop registration web service.
const ServiceDesk = "edumap-desk"

// RunOptions controls shared entrypoint behavior for service commands.
type RunOptions struct {
	// Telemetry configures trace export for the run.
	Telemetry otel.Options
	// ShutdownTimeout bounds how long telemetry may take to flush.
	ShutdownTimeout time.Duration
	// Logger receives telemetry shutdown failures.
	Logger *logrus.Entry
}

// ParseConfig loads .env files and then environment values into cfg.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if err := config.LoadDotEnv(config.DefaultDotEnvFiles...); err != nil {
		return err
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses command-line flags.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// ParseConfigFromArgs loads defaults from the environment and then lets
// flags override them.
func ParseConfigFromArgs[T any](cfg *T, fs *flag.FlagSet, args []string) error {
	if err := ParseConfig(cfg); err != nil {
		return err
	}
	return ParseArgs(fs, args)
}

// RunWithTelemetry configures tracing and executes a service run loop.
func RunWithTelemetry(ctx context.Context, service string, options RunOptions, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	shutdown, err := otel.Setup(ctx, service, options.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		timeout := options.ShutdownTimeout
		if timeout <= 0 {
			timeout = timeouts.TelemetryShutdown
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("otel shutdown")
		}
	}()
	return run(ctx)
}
