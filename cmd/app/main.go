package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"travelo/internal/config"
	"travelo/internal/mylogger"
	rideservice "travelo/internal/ride-service"
	"travelo/internal/ride-service/adapters/driven/db"

	"github.com/spf13/pflag"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <command> [flags]\n\ncommands:\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "  ride-service   run the HTTP and websocket server")
	fmt.Fprintln(os.Stderr, "  migrate        apply database migrations")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	switch os.Args[1] {
	case "ride-service":
		rideCmd := pflag.NewFlagSet("ride-service", pflag.ExitOnError)
		port := rideCmd.StringP("port", "p", cfg.Srv.RideServicePort, "port to listen on")
		store := rideCmd.String("store", cfg.App.StoreDriver, "store driver: postgres or memory")
		rideCmd.Parse(os.Args[2:])

		cfg.Srv.RideServicePort = *port
		cfg.App.StoreDriver = *store

		mylog := newLogger(cfg)
		mylog.Action("ride_service_started").Info("Ride service starting up")
		if err := rideservice.Execute(context.Background(), mylog, cfg); err != nil {
			os.Exit(1)
		}

	case "migrate":
		migrateCmd := pflag.NewFlagSet("migrate", pflag.ExitOnError)
		direction := migrateCmd.StringP("direction", "d", "up", "up or down")
		steps := migrateCmd.IntP("steps", "n", 0, "number of steps, 0 applies all")
		migrateCmd.Parse(os.Args[2:])

		mylog := newLogger(cfg)
		if err := db.Migrate(cfg.DB, *direction, *steps, mylog); err != nil {
			mylog.Action("migrate_failed").Error("Migration failed", err)
			os.Exit(1)
		}

	default:
		usage()
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) mylogger.Logger {
	mylog, err := mylogger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return mylog
}
