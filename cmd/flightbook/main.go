package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"flightbook/internal/app"
	"flightbook/internal/cli"
	"flightbook/internal/logging"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, logger, closer, err := app.LoadConfigAndLogger(configPath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	a.Start(ctx)

	var backup cli.Backuper
	if a.Backup != nil {
		backup = a.Backup
	}

	shell := cli.NewShell(a.Service, backup, cfg.Exports.Path, logging.Component(logger, "cli"))
	return shell.Run(ctx, os.Stdin, os.Stdout)
}
