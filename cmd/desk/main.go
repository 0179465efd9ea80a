// Package main starts the EDUMAP desk web service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	deskcmd "github.com/edumap/desk/internal/cmd/desk"
)

func main() {
	cfg, err := deskcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		logrus.WithError(err).Fatal("parse config")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := deskcmd.Run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("failed to serve")
	}
}
