package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"travelo/internal/mylogger"
)

// helper simulates a driver: it logs in, joins a ride room over the
// websocket and relays jittered coordinates until the ride ends.
func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	appLogger := mylogger.NewWithWriter(cfg.LogLevel, os.Stdout)
	appLogger = appLogger.Action("driver_simulator")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sim := NewDriverSimulator(ctx, cfg, appLogger)
	if err := sim.Login(); err != nil {
		appLogger.Error("Failed to log in", err)
		os.Exit(1)
	}

	rideId, err := sim.PickRide()
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		appLogger.Error("Failed to pick a ride", err)
		os.Exit(1)
	}

	if err := sim.Track(rideId); err != nil {
		appLogger.Error("Tracking failed", err, "ride_id", rideId)
		os.Exit(1)
	}
}
