package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/adapters/driven/memstore"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"

	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"
)

type roomEvent struct {
	rideId  string
	exclude string
	event   websocketdto.Event
}

type recordingRooms struct {
	mu       sync.Mutex
	events   []roomEvent
	restrict map[string][]string
}

func (r *recordingRooms) Restrict(rideId string, keep []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.restrict == nil {
		r.restrict = make(map[string][]string)
	}
	r.restrict[rideId] = keep
}

func (r *recordingRooms) kept(rideId string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.restrict[rideId]
}

func (r *recordingRooms) Broadcast(rideId string, msg websocketdto.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, roomEvent{rideId: rideId, event: msg})
}

func (r *recordingRooms) BroadcastExcept(rideId, clientId string, msg websocketdto.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, roomEvent{rideId: rideId, exclude: clientId, event: msg})
}

func (r *recordingRooms) ofType(eventType string) []roomEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []roomEvent
	for _, e := range r.events {
		if e.event.Type == eventType {
			res = append(res, e)
		}
	}
	return res
}

type recordingNotifier struct {
	mu     sync.Mutex
	pushes []string
	sms    []string
}

func (n *recordingNotifier) Notify(token, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, token+"|"+title)
}

func (n *recordingNotifier) SendSms(mobile, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sms = append(n.sms, mobile+"|"+body)
}

func (n *recordingNotifier) lastSms() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sms) == 0 {
		return ""
	}
	return n.sms[len(n.sms)-1]
}

type fixture struct {
	store    *memstore.Store
	rides    *memstore.RidesRepo
	users    *memstore.UsersRepo
	drivers  *memstore.DriversRepo
	rooms    *recordingRooms
	notifier *recordingNotifier
	svc      *RidesService

	rider   model.Caller
	d1      model.Caller
	d2      model.Caller
	outside model.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memstore.New()
	f := &fixture{
		store:    store,
		rides:    memstore.NewRidesRepo(store),
		users:    memstore.NewUsersRepo(store),
		drivers:  memstore.NewDriversRepo(store),
		rooms:    &recordingRooms{},
		notifier: &recordingNotifier{},
		rider:    model.Caller{ID: "rider-1", Role: model.RoleRider},
		d1:       model.Caller{ID: "driver-1", Role: model.RoleDriver},
		d2:       model.Caller{ID: "driver-2", Role: model.RoleDriver},
		outside:  model.Caller{ID: "driver-3", Role: model.RoleDriver},
	}

	now := time.Now().UTC()
	if _, err := f.users.Create(ctx, model.User{ID: f.rider.ID, Name: "Asel", Email: "asel@example.com", FcmToken: "rider-token", CreatedAt: now}); err != nil {
		t.Fatalf("create rider: %v", err)
	}
	for i, c := range []model.Caller{f.d1, f.d2, f.outside} {
		_, err := f.drivers.Create(ctx, model.Driver{
			ID:          c.ID,
			Name:        c.ID,
			Email:       c.ID + "@example.com",
			IsVerified:  true,
			IsAvailable: true,
			FcmToken:    []string{"d1-token", "d2-token", ""}[i],
			CreatedAt:   now,
		})
		if err != nil {
			t.Fatalf("create driver: %v", err)
		}
	}

	f.svc = NewRidesService(mylogger.Discard(), f.rides, f.users, f.drivers, f.rooms, f.notifier)
	f.svc.newOtp = func() (int, error) { return 482913, nil }
	return f
}

func loc(lat, lng float64) dto.LocationDto {
	return dto.LocationDto{Latitude: &lat, Longitude: &lng}
}

func price(p float64) *float64 { return &p }

func (f *fixture) requestRide(t *testing.T) string {
	t.Helper()
	res, err := f.svc.RequestRide(context.Background(), f.rider, dto.RidesRequestDto{
		Pickup:  loc(43.238, 76.889),
		Dropoff: loc(43.256, 76.928),
	})
	if err != nil {
		t.Fatalf("request ride: %v", err)
	}
	return res.RideId
}

func (f *fixture) quote(t *testing.T, driver model.Caller, rideId string, p float64) {
	t.Helper()
	_, err := f.svc.SubmitQuote(context.Background(), driver, rideId, dto.QuoteRequestDto{
		Price:          price(p),
		DriverLocation: loc(43.240, 76.880),
	})
	if err != nil {
		t.Fatalf("quote by %s: %v", driver.ID, err)
	}
}

func (f *fixture) book(t *testing.T, rideId string, driver model.Caller, fare float64) dto.BookResponseDto {
	t.Helper()
	res, err := f.svc.BookRide(context.Background(), f.rider, rideId, dto.BookRequestDto{DriverId: driver.ID, Fare: price(fare)})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return res
}

func (f *fixture) ride(t *testing.T, rideId string) model.Rides {
	t.Helper()
	ride, err := f.rides.FindById(context.Background(), rideId)
	if err != nil {
		t.Fatalf("find ride: %v", err)
	}
	return ride
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

// checkCancelDetails asserts cancel details exist exactly for cancelled rides.
func checkCancelDetails(t *testing.T, ride model.Rides) {
	t.Helper()
	if (ride.Status == model.RideCancelled) != (ride.CancelDetails != nil) {
		t.Fatalf("status %s with cancel details %+v", ride.Status, ride.CancelDetails)
	}
}

func decodeEvent(t *testing.T, e websocketdto.Event, v any) {
	t.Helper()
	if err := json.Unmarshal(e.Data, v); err != nil {
		t.Fatalf("decode %s: %v", e.Type, err)
	}
}
