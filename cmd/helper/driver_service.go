package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/model"

	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"
)

// DriverSimulator logs in as a driver, attaches to one ride room and walks
// around the starting point until the ride ends.
type DriverSimulator struct {
	cfg        Config
	driverId   string
	token      string
	current    Location
	httpClient *HTTPClient
	wsClient   *WebSocketClient
	logger     mylogger.Logger
	ctx        context.Context
	rng        *rand.Rand
}

func NewDriverSimulator(ctx context.Context, cfg Config, logger mylogger.Logger) *DriverSimulator {
	return &DriverSimulator{
		cfg:        cfg,
		current:    cfg.Start,
		httpClient: NewHTTPClient(cfg.BaseURL, logger),
		wsClient:   NewWebSocketClient(ctx, logger),
		logger:     logger,
		ctx:        ctx,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (d *DriverSimulator) Login() error {
	res, err := d.httpClient.Login(d.ctx, d.cfg.Email, d.cfg.Password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	d.driverId = res.UserId
	d.token = res.Token
	d.logger = d.logger.With("driver_id", d.driverId)
	d.logger.Info("logged in")

	if err := d.httpClient.SetAvailable(d.ctx, true); err != nil {
		return fmt.Errorf("set available: %w", err)
	}
	return nil
}

// PickRide returns the configured ride or quotes the first pending one.
func (d *DriverSimulator) PickRide() (string, error) {
	if d.cfg.RideId != "" {
		return d.cfg.RideId, nil
	}

	ticker := time.NewTicker(PendingPollInterval)
	defer ticker.Stop()
	for {
		rides, err := d.httpClient.PendingRides(d.ctx)
		if err != nil {
			return "", fmt.Errorf("pending rides: %w", err)
		}
		for _, ride := range rides {
			if ride.HasQuoteFrom(d.driverId) {
				return ride.ID, nil
			}
			if err := d.httpClient.SubmitQuote(d.ctx, ride.ID, d.cfg.Price, d.current); err != nil {
				d.logger.Warn("quote rejected", "ride_id", ride.ID, "error", err.Error())
				continue
			}
			d.logger.Info("quote submitted", "ride_id", ride.ID, "price", d.cfg.Price)
			return ride.ID, nil
		}

		d.logger.Info("no pending rides yet")
		select {
		case <-d.ctx.Done():
			return "", d.ctx.Err()
		case <-ticker.C:
		}
	}
}

// Track authenticates the socket, joins the room and relays coordinates.
func (d *DriverSimulator) Track(rideId string) error {
	if err := d.wsClient.Connect(d.cfg.wsURL()); err != nil {
		return err
	}
	defer d.wsClient.Close()

	if err := d.wsClient.Send(model.EventAuth, websocketdto.AuthMessage{Token: d.token}); err != nil {
		return err
	}
	time.Sleep(InitialConnectDelay)
	if err := d.wsClient.Send(model.EventJoin, websocketdto.JoinMessage{RideId: rideId}); err != nil {
		return err
	}

	readErr := make(chan error, 1)
	go func() {
		readErr <- d.wsClient.ReadEvents(d.handleEvent)
	}()

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return nil
		case err := <-readErr:
			if err == nil {
				d.logger.Info("ride finished, leaving room", "ride_id", rideId)
				return nil
			}
			return err
		case <-ticker.C:
			d.step()
			lat, lng := d.current.Latitude, d.current.Longitude
			err := d.wsClient.Send(model.EventCoordinates, websocketdto.CoordinatesMessage{
				RideId: rideId,
				Coords: &websocketdto.Position{
					Lat:         &lat,
					Lng:         &lng,
					Description: "simulated",
				},
			})
			if err != nil {
				return err
			}
			d.logger.Debug("coordinates sent", "lat", d.current.Latitude, "lng", d.current.Longitude)
		}
	}
}

func (d *DriverSimulator) handleEvent(e websocketdto.Event) bool {
	switch e.Type {
	case model.EventAuthenticated, model.EventJoined:
		d.logger.Info("server acknowledged", "type", e.Type)
	case model.EventStopTracking, model.EventRideCancelled, model.EventRideCompleted:
		d.logger.Info("ride ended", "type", e.Type, "data", string(e.Data))
		return true
	case model.EventError:
		var msg websocketdto.ErrorMessage
		_ = json.Unmarshal(e.Data, &msg)
		d.logger.Warn("server error", "event", msg.Event, "message", msg.Message)
	default:
		d.logger.Debug("event received", "type", e.Type)
	}
	return false
}

// step moves by a random offset bounded by the jitter, clamped to valid
// coordinates.
func (d *DriverSimulator) step() {
	d.current.Latitude += (d.rng.Float64()*2 - 1) * d.cfg.Jitter
	d.current.Longitude += (d.rng.Float64()*2 - 1) * d.cfg.Jitter
	d.current.Latitude = clamp(d.current.Latitude, -90, 90)
	d.current.Longitude = clamp(d.current.Longitude, -180, 180)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
