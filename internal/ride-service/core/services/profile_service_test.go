package services

import (
	"context"
	"testing"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
)

func strp(s string) *string { return &s }

func TestPassengerProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ps := NewPassengerService(mylogger.Discard(), f.users)

	user, err := ps.Profile(ctx, f.rider)
	if err != nil || user.Name != "Asel" {
		t.Fatalf("profile: %v %+v", err, user)
	}
	_, err = ps.Profile(ctx, f.d1)
	wantKind(t, err, myerrors.ErrForbidden)

	user, err = ps.UpdateProfile(ctx, f.rider, dto.UpdateUserRequestDto{Name: strp("  Asel K  "), FcmToken: strp("new-token")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if user.Name != "Asel K" || user.FcmToken != "new-token" {
		t.Fatalf("unexpected user %+v", user)
	}

	_, err = ps.UpdateProfile(ctx, f.rider, dto.UpdateUserRequestDto{Name: strp("")})
	wantKind(t, err, myerrors.ErrValidation)
}

func TestDriverAvailabilityAndLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ds := NewDriverService(mylogger.Discard(), f.drivers)

	driver, err := ds.SetAvailability(ctx, f.d1, false)
	if err != nil || driver.IsAvailable {
		t.Fatalf("set unavailable: %v %+v", err, driver)
	}

	_, err = ds.SetAvailability(ctx, f.rider, true)
	wantKind(t, err, myerrors.ErrForbidden)

	driver.Status = model.DriverBlocked
	if _, err := f.drivers.Update(ctx, driver); err != nil {
		t.Fatal(err)
	}
	_, err = ds.SetAvailability(ctx, f.d1, true)
	wantKind(t, err, myerrors.ErrForbidden)

	err = ds.UpdateLocation(ctx, f.d2, loc(91, 10))
	wantKind(t, err, myerrors.ErrValidation)

	if err := ds.UpdateLocation(ctx, f.d2, loc(43.25, 76.9)); err != nil {
		t.Fatalf("update location: %v", err)
	}
	d2, err := ds.Profile(ctx, f.d2)
	if err != nil {
		t.Fatal(err)
	}
	if d2.CurrentLocation == nil || d2.CurrentLocation.Latitude != 43.25 {
		t.Fatalf("location not stored: %+v", d2.CurrentLocation)
	}

	d2, err = ds.UpdateProfile(ctx, f.d2, dto.UpdateDriverRequestDto{LicenseNumber: strp(" KZ-77 ")})
	if err != nil || d2.LicenseNumber != "KZ-77" {
		t.Fatalf("update profile: %v %+v", err, d2)
	}
}
