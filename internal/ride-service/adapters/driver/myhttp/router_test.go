package myhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/adapters/driven/memstore"
	"travelo/internal/ride-service/adapters/driven/otpstore"
	"travelo/internal/ride-service/adapters/driver/myhttp/handle"
	"travelo/internal/ride-service/adapters/driver/myhttp/ws"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/services"
)

const (
	adminEmail    = "root@travelo.kz"
	adminPassword = "root-pass"
)

type api struct {
	t   *testing.T
	srv *httptest.Server
}

func newAPI(t *testing.T, checks map[string]handle.Check) *api {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := mylogger.Discard()
	store := memstore.New()
	users := memstore.NewUsersRepo(store)
	drivers := memstore.NewDriversRepo(store)
	owners := memstore.NewOwnersRepo(store)
	cars := memstore.NewCarsRepo(store)
	admins := memstore.NewAdminsRepo(store)
	rides := memstore.NewRidesRepo(store)
	dispatcher := ws.NewDispatcher(ctx, log)

	auth := services.NewAuthService(log, services.AuthRepos{Users: users, Drivers: drivers, Owners: owners, Admins: admins},
		otpstore.NewMemory(time.Minute, 3), nil, "router-secret", time.Hour, time.Minute)
	if err := auth.EnsureAdmin(ctx, adminEmail, adminPassword); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}

	svc := Services{
		Auth:      auth,
		Rides:     services.NewRidesService(log, rides, users, drivers, dispatcher, nil),
		Payment:   services.NewPaymentService(log, rides, dispatcher, "key", "secret"),
		Passenger: services.NewPassengerService(log, users),
		Driver:    services.NewDriverService(log, drivers),
		Fleet:     services.NewFleetService(log, owners, cars, drivers, rides),
		Admin: services.NewAdminService(log, services.AdminRepos{
			Rides: rides, Users: users, Drivers: drivers, Owners: owners, Cars: cars, Admins: admins,
		}),
	}
	srv := httptest.NewServer(NewRouter(log, svc, dispatcher, checks))
	t.Cleanup(srv.Close)
	return &api{t: t, srv: srv}
}

// do sends body as JSON and decodes the response into out when it is non-nil.
func (a *api) do(method, path, token string, body, out any) int {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rdr)
	if err != nil {
		a.t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.srv.Client().Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (a *api) register(role, email, mobile string) dto.AuthResponseDto {
	a.t.Helper()
	var res dto.AuthResponseDto
	code := a.do(http.MethodPost, "/auth/register", "", dto.RegisterRequestDto{
		Role: role, Name: "Test " + role, Email: email, Password: "secret1", MobileNumber: mobile,
	}, &res)
	if code != http.StatusCreated {
		a.t.Fatalf("register %s: status %d", role, code)
	}
	return res
}

func fp(v float64) *float64 { return &v }

func TestRideLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t, nil)

	rider := a.register("rider", "rider@travelo.kz", "+77010000001")
	driver := a.register("driver", "driver@travelo.kz", "+77010000002")

	var admin dto.AuthResponseDto
	if code := a.do(http.MethodPost, "/auth/login", "", dto.LoginRequestDto{Role: "admin", Email: adminEmail, Password: adminPassword}, &admin); code != http.StatusOK {
		t.Fatalf("admin login: %d", code)
	}
	if code := a.do(http.MethodPost, "/admin/drivers/"+driver.UserId+"/verify", admin.Token, map[string]bool{"verified": true}, nil); code != http.StatusOK {
		t.Fatalf("verify driver: %d", code)
	}
	if code := a.do(http.MethodPost, "/drivers/me/availability", driver.Token, map[string]bool{"is_available": true}, nil); code != http.StatusOK {
		t.Fatalf("availability: %d", code)
	}

	var created dto.RidesResponseDto
	code := a.do(http.MethodPost, "/rides", rider.Token, dto.RidesRequestDto{
		Pickup:  dto.LocationDto{Latitude: fp(43.238), Longitude: fp(76.889)},
		Dropoff: dto.LocationDto{Latitude: fp(43.256), Longitude: fp(76.928)},
	}, &created)
	if code != http.StatusCreated || created.RideId == "" {
		t.Fatalf("create ride: %d %+v", code, created)
	}
	ridePath := "/rides/" + created.RideId

	// riders cannot quote
	if code := a.do(http.MethodPost, ridePath+"/quotes", rider.Token, dto.QuoteRequestDto{Price: fp(90)}, nil); code != http.StatusForbidden {
		t.Fatalf("rider quote: %d", code)
	}
	if code := a.do(http.MethodPost, ridePath+"/quotes", driver.Token, dto.QuoteRequestDto{
		Price:          fp(90),
		DriverLocation: dto.LocationDto{Latitude: fp(43.24), Longitude: fp(76.88)},
	}, nil); code != http.StatusCreated {
		t.Fatalf("quote: %d", code)
	}

	var booked dto.BookResponseDto
	if code := a.do(http.MethodPost, ridePath+"/book", rider.Token, dto.BookRequestDto{DriverId: driver.UserId, Fare: fp(90)}, &booked); code != http.StatusOK {
		t.Fatalf("book: %d", code)
	}
	if len(booked.Otp) != 6 {
		t.Fatalf("unexpected otp %q", booked.Otp)
	}

	var errBody struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	if code := a.do(http.MethodPost, ridePath+"/otp", driver.Token, map[string]string{"otp": "000000"}, &errBody); code != http.StatusUnprocessableEntity {
		t.Fatalf("wrong otp: %d", code)
	}

	var done dto.RideStatusResponseDto
	if code := a.do(http.MethodPost, ridePath+"/otp", driver.Token, map[string]string{"otp": booked.Otp}, &done); code != http.StatusOK {
		t.Fatalf("verify otp: %d", code)
	}
	if done.Status != "completed" {
		t.Fatalf("expected completed, got %s", done.Status)
	}

	if code := a.do(http.MethodPost, ridePath+"/cancel", rider.Token, nil, &errBody); code != http.StatusConflict {
		t.Fatalf("cancel completed ride: %d", code)
	}
	if errBody.Code != http.StatusConflict || errBody.Error == "" {
		t.Fatalf("unexpected error body %+v", errBody)
	}
}

func TestRouterRejectsMissingToken(t *testing.T) {
	a := newAPI(t, nil)

	var errBody struct {
		Error string `json:"error"`
	}
	if code := a.do(http.MethodGet, "/rides/pending", "", nil, &errBody); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if errBody.Error != "missing authorization token" {
		t.Fatalf("unexpected error %q", errBody.Error)
	}
	if code := a.do(http.MethodGet, "/rides/pending", "not-a-jwt", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", code)
	}
}

func TestRouterNotFoundAndBadJSON(t *testing.T) {
	a := newAPI(t, nil)
	rider := a.register("rider", "r2@travelo.kz", "+77010000003")

	if code := a.do(http.MethodGet, "/rides/missing", rider.Token, nil, nil); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}

	req, _ := http.NewRequest(http.MethodPost, a.srv.URL+"/rides", bytes.NewBufferString("{broken"))
	req.Header.Set("Authorization", "Bearer "+rider.Token)
	resp, err := a.srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestHealthReportsComponents(t *testing.T) {
	a := newAPI(t, map[string]handle.Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	if code := a.do(http.MethodGet, "/health", "", nil, &body); code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body.Status != "degraded" || body.Components["postgres"] != "up" || body.Components["redis"] != "down" {
		t.Fatalf("unexpected health %+v", body)
	}
}
