package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"flightbook/internal/config"
	"flightbook/internal/models"
	"flightbook/internal/service"
	"flightbook/internal/storage"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type SeedConfig struct {
	Flights    []models.Flight    `yaml:"flights"`
	Passengers []models.Passenger `yaml:"passengers"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath   = flag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed SeedConfig
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(seed.Flights) == 0 && len(seed.Passengers) == 0 {
		return fmt.Errorf("no flights or passengers in yaml")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	st := storage.NewCSVStorage(cfg.Storage.FlightsFile, cfg.Storage.PassengersFile, cfg.Storage.BookingsFile, cfg.Storage.AuditFile)
	svc := service.NewBookingService(st, nil, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err = svc.Load(ctx); err != nil {
		return fmt.Errorf("load booking data: %w", err)
	}

	if len(seed.Flights) > 0 {
		created, updated, err := svc.ImportFlights(ctx, seed.Flights)
		if err != nil {
			return fmt.Errorf("import flights: %w", err)
		}
		fmt.Printf("Flights: created %d, updated %d\n", created, updated)
	}

	if len(seed.Passengers) > 0 {
		created, updated, err := svc.ImportPassengers(ctx, seed.Passengers)
		if err != nil {
			return fmt.Errorf("import passengers: %w", err)
		}
		fmt.Printf("Passengers: created %d, updated %d\n", created, updated)
	}

	return nil
}
