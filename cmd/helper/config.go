package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Pacing between calls so a single simulator does not flood the server.
const (
	HTTPRequestDelay    = 200 * time.Millisecond
	InitialConnectDelay = 1 * time.Second
	PendingPollInterval = 5 * time.Second
)

type Config struct {
	BaseURL  string
	Email    string
	Password string
	RideId   string
	Price    float64
	Interval time.Duration
	Jitter   float64
	Start    Location
	LogLevel string
}

type Location struct {
	Latitude  float64
	Longitude float64
}

func parseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("helper", pflag.ContinueOnError)
	cfg := Config{}
	fs.StringVar(&cfg.BaseURL, "base-url", "http://localhost:3000", "ride service address")
	fs.StringVarP(&cfg.Email, "email", "e", "", "driver email")
	fs.StringVarP(&cfg.Password, "password", "p", "", "driver password")
	fs.StringVar(&cfg.RideId, "ride-id", "", "ride to track; when empty the first pending ride is quoted")
	fs.Float64Var(&cfg.Price, "price", 150, "quote price used when picking a pending ride")
	fs.DurationVarP(&cfg.Interval, "interval", "i", 3*time.Second, "coordinates interval")
	fs.Float64Var(&cfg.Jitter, "jitter", 0.0005, "max random step in degrees per update")
	fs.Float64Var(&cfg.Start.Latitude, "lat", 43.236, "starting latitude")
	fs.Float64Var(&cfg.Start.Longitude, "lng", 76.886, "starting longitude")
	fs.StringVar(&cfg.LogLevel, "log-level", "INFO", "log level")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Email == "" || cfg.Password == "" {
		return Config{}, fmt.Errorf("email and password are required")
	}
	if cfg.Interval <= 0 {
		return Config{}, fmt.Errorf("interval must be positive")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// wsURL maps the http base onto the websocket endpoint.
func (c Config) wsURL() string {
	switch {
	case strings.HasPrefix(c.BaseURL, "https://"):
		return "wss://" + strings.TrimPrefix(c.BaseURL, "https://") + "/ws"
	case strings.HasPrefix(c.BaseURL, "http://"):
		return "ws://" + strings.TrimPrefix(c.BaseURL, "http://") + "/ws"
	}
	return c.BaseURL + "/ws"
}
