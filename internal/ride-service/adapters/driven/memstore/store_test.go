package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
)

func seedRide(t *testing.T, repo *RidesRepo, id string) model.Rides {
	t.Helper()
	otp := 123456
	ride, err := repo.CreateRide(context.Background(), model.Rides{
		ID:        id,
		RiderId:   "rider",
		Status:    model.RidePending,
		Otp:       &otp,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	return ride
}

func TestTransitionIsCompareAndSet(t *testing.T) {
	repo := NewRidesRepo(New())
	seedRide(t, repo, "r1")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Transition(context.Background(), "r1", []model.RideStatus{model.RidePending}, model.RideUpdate{Status: model.RideAccepted})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else if !errors.Is(err, myerrors.ErrInvalidState) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected one winner, got %d", wins)
	}
	ride, _ := repo.FindById(context.Background(), "r1")
	if ride.Version != 2 {
		t.Fatalf("expected version 2, got %d", ride.Version)
	}
}

func TestTransitionClearsOtpAndCopies(t *testing.T) {
	repo := NewRidesRepo(New())
	seedRide(t, repo, "r1")
	ctx := context.Background()

	ride, err := repo.Transition(ctx, "r1", []model.RideStatus{model.RidePending}, model.RideUpdate{
		Status:        model.RideCancelled,
		ClearOtp:      true,
		CancelDetails: &model.CancelDetails{By: model.CancelByUser, Reason: "changed plans"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if ride.Otp != nil || ride.CancelDetails == nil {
		t.Fatalf("unexpected ride %+v", ride)
	}

	// callers get copies
	ride.CancelDetails.Reason = "mutated"
	stored, _ := repo.FindById(ctx, "r1")
	if stored.CancelDetails.Reason != "changed plans" {
		t.Fatal("store shares memory with callers")
	}

	_, err = repo.Transition(ctx, "missing", nil, model.RideUpdate{})
	if !errors.Is(err, myerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAppendQuoteOnlyWhilePending(t *testing.T) {
	repo := NewRidesRepo(New())
	seedRide(t, repo, "r1")
	ctx := context.Background()

	if _, err := repo.AppendQuote(ctx, "r1", model.Quote{DriverId: "d1", Price: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Transition(ctx, "r1", []model.RideStatus{model.RidePending}, model.RideUpdate{Status: model.RideAccepted}); err != nil {
		t.Fatal(err)
	}
	_, err := repo.AppendQuote(ctx, "r1", model.Quote{DriverId: "d2", Price: 9})
	if !errors.Is(err, myerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	ride, _ := repo.FindById(ctx, "r1")
	if len(ride.Quotes) != 1 {
		t.Fatalf("expected one quote, got %d", len(ride.Quotes))
	}
}

func TestUniqueEmailsAcrossUsers(t *testing.T) {
	repo := NewUsersRepo(New())
	ctx := context.Background()

	if _, err := repo.Create(ctx, model.User{ID: "u1", Email: "a@b.kz"}); err != nil {
		t.Fatal(err)
	}
	_, err := repo.Create(ctx, model.User{ID: "u2", Email: "A@B.kz"})
	if !errors.Is(err, myerrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	u, err := repo.FindByEmail(ctx, "a@b.kz")
	if err != nil || u.ID != "u1" {
		t.Fatalf("find by email: %v", err)
	}
}
