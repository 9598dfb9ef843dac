package services

import (
	"context"
	"sync"
	"testing"

	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"

	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"
)

func TestRequestRideStartsPendingWithNoQuotes(t *testing.T) {
	f := newFixture(t)
	rideId := f.requestRide(t)

	res, err := f.svc.ListQuotes(context.Background(), f.rider, rideId)
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if res.Status != model.RidePending || len(res.Quotes) != 0 {
		t.Fatalf("expected pending ride without quotes, got %s with %d", res.Status, len(res.Quotes))
	}

	ride := f.ride(t, rideId)
	if ride.DriverId != nil || ride.Fare != nil {
		t.Fatal("driver and fare must be unset before booking")
	}
	checkCancelDetails(t, ride)
	if ride.Dropoff.DistanceKm == nil || *ride.Dropoff.DistanceKm <= 0 {
		t.Fatal("expected a computed distance on the dropoff")
	}
	// two drivers carry push tokens
	if len(f.notifier.pushes) != 2 {
		t.Fatalf("expected 2 driver notifications, got %v", f.notifier.pushes)
	}
}

func TestRequestRideValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RequestRide(ctx, f.d1, dto.RidesRequestDto{Pickup: loc(1, 1), Dropoff: loc(2, 2)})
	wantKind(t, err, myerrors.ErrForbidden)

	_, err = f.svc.RequestRide(ctx, f.rider, dto.RidesRequestDto{Pickup: loc(91, 1), Dropoff: loc(2, 2)})
	wantKind(t, err, myerrors.ErrValidation)

	_, err = f.svc.RequestRide(ctx, f.rider, dto.RidesRequestDto{Pickup: loc(1, 1)})
	wantKind(t, err, myerrors.ErrValidation)
}

func TestQuotesKeepSubmissionOrder(t *testing.T) {
	f := newFixture(t)
	rideId := f.requestRide(t)

	f.quote(t, f.d1, rideId, 100)
	f.quote(t, f.d2, rideId, 90)
	f.quote(t, f.outside, rideId, 120)

	res, err := f.svc.ListQuotes(context.Background(), f.rider, rideId)
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	want := []string{f.d1.ID, f.d2.ID, f.outside.ID}
	if len(res.Quotes) != len(want) {
		t.Fatalf("expected %d quotes, got %d", len(want), len(res.Quotes))
	}
	for i, q := range res.Quotes {
		if q.DriverId != want[i] {
			t.Fatalf("quote %d from %s, want %s", i, q.DriverId, want[i])
		}
	}
	if len(f.rooms.ofType(model.EventQuoteAdded)) != 3 {
		t.Fatal("expected one quoteAdded event per quote")
	}
}

func TestSubmitQuoteRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)

	_, err := f.svc.SubmitQuote(ctx, f.rider, rideId, dto.QuoteRequestDto{Price: price(10), DriverLocation: loc(1, 1)})
	wantKind(t, err, myerrors.ErrForbidden)

	_, err = f.svc.SubmitQuote(ctx, f.d1, rideId, dto.QuoteRequestDto{Price: price(0), DriverLocation: loc(1, 1)})
	wantKind(t, err, myerrors.ErrValidation)

	_, err = f.svc.SubmitQuote(ctx, f.d1, "missing", dto.QuoteRequestDto{Price: price(10), DriverLocation: loc(1, 1)})
	wantKind(t, err, myerrors.ErrNotFound)

	// unverified drivers cannot bid
	blocked, _ := f.drivers.FindById(ctx, f.d1.ID)
	blocked.IsVerified = false
	if _, err := f.drivers.Update(ctx, blocked); err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.SubmitQuote(ctx, f.d1, rideId, dto.QuoteRequestDto{Price: price(10), DriverLocation: loc(1, 1)})
	wantKind(t, err, myerrors.ErrNotFound)
}

func TestLateQuoteIsRejectedWithoutMutation(t *testing.T) {
	f := newFixture(t)
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	f.book(t, rideId, f.d1, 100)

	_, err := f.svc.SubmitQuote(context.Background(), f.d2, rideId, dto.QuoteRequestDto{Price: price(80), DriverLocation: loc(1, 1)})
	wantKind(t, err, myerrors.ErrInvalidState)

	if got := len(f.ride(t, rideId).Quotes); got != 1 {
		t.Fatalf("late quote must not be stored, have %d quotes", got)
	}
}

func TestHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)

	f.quote(t, f.d1, rideId, 100)
	f.quote(t, f.d2, rideId, 90)

	booked := f.book(t, rideId, f.d2, 90)
	if booked.Status != model.RideAccepted || booked.DriverId != f.d2.ID || booked.Fare != 90 {
		t.Fatalf("unexpected booking %+v", booked)
	}
	if len(booked.Otp) != 6 {
		t.Fatalf("expected 6 digit otp, got %q", booked.Otp)
	}
	if booked.Action != ActionJoinRoom {
		t.Fatalf("expected join action, got %q", booked.Action)
	}

	ride := f.ride(t, rideId)
	if ride.DriverId == nil || *ride.DriverId != f.d2.ID || ride.Fare == nil || *ride.Fare != 90 {
		t.Fatalf("booking not persisted: %+v", ride)
	}
	checkCancelDetails(t, ride)

	if _, err := f.svc.UpdateDriverLocation(ctx, f.d2, rideId, loc(43.2391, 76.8895)); err != nil {
		t.Fatalf("location: %v", err)
	}
	updates := f.rooms.ofType(model.EventDriverUpdated)
	if len(updates) != 1 {
		t.Fatalf("expected one driverUpdated, got %d", len(updates))
	}
	var upd websocketdto.DriverUpdated
	decodeEvent(t, updates[0].event, &upd)
	if upd.UserId != f.d2.ID || upd.Coords.Lat != 43.2391 || upd.By != "driver" {
		t.Fatalf("unexpected update %+v", upd)
	}

	res, err := f.svc.VerifyOtp(ctx, f.rider, rideId, booked.Otp)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if res.Status != model.RideCompleted {
		t.Fatalf("expected completed, got %s", res.Status)
	}
	ride = f.ride(t, rideId)
	if ride.Otp != nil {
		t.Fatal("otp must be cleared after use")
	}

	// a second verification never transitions again
	_, err = f.svc.VerifyOtp(ctx, f.rider, rideId, booked.Otp)
	wantKind(t, err, myerrors.ErrInvalidState)
	if got := f.ride(t, rideId).Version; got != ride.Version {
		t.Fatalf("version moved from %d to %d", ride.Version, got)
	}
}

func TestConcurrentBookingHasSingleWinner(t *testing.T) {
	f := newFixture(t)
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	f.quote(t, f.d2, rideId, 90)

	const attempts = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	for i := 0; i < attempts; i++ {
		driver := f.d1
		fare := 100.0
		if i%2 == 1 {
			driver, fare = f.d2, 90
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.BookRide(context.Background(), f.rider, rideId, dto.BookRequestDto{DriverId: driver.ID, Fare: price(fare)})
			if err == nil {
				mu.Lock()
				winners = append(winners, driver.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("expected exactly one successful booking, got %v", winners)
	}
	ride := f.ride(t, rideId)
	if ride.DriverId == nil || *ride.DriverId != winners[0] {
		t.Fatalf("driver %v does not match winner %s", ride.DriverId, winners[0])
	}

	// driver and fare are immutable afterwards
	_, err := f.svc.BookRide(context.Background(), f.rider, rideId, dto.BookRequestDto{DriverId: f.outside.ID, Fare: price(1)})
	wantKind(t, err, myerrors.ErrInvalidState)
	after := f.ride(t, rideId)
	if *after.DriverId != *ride.DriverId || *after.Fare != *ride.Fare {
		t.Fatal("rebooking changed the ride")
	}
}

func TestBookRideRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)

	_, err := f.svc.BookRide(ctx, f.rider, rideId, dto.BookRequestDto{Fare: price(10)})
	wantKind(t, err, myerrors.ErrValidation)

	_, err = f.svc.BookRide(ctx, f.rider, rideId, dto.BookRequestDto{DriverId: f.d1.ID, Fare: price(-1)})
	wantKind(t, err, myerrors.ErrValidation)

	other := model.Caller{ID: "rider-2", Role: model.RoleRider}
	_, err = f.svc.BookRide(ctx, other, rideId, dto.BookRequestDto{DriverId: f.d1.ID, Fare: price(10)})
	wantKind(t, err, myerrors.ErrForbidden)

	_, err = f.svc.BookRide(ctx, f.rider, rideId, dto.BookRequestDto{DriverId: "ghost", Fare: price(10)})
	wantKind(t, err, myerrors.ErrNotFound)
}

func TestDriverCancelsAcceptedRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	booked := f.book(t, rideId, f.d1, 100)

	res, err := f.svc.CancelRide(ctx, f.d1, rideId, "car breakdown")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if res.Status != model.RideCancelled {
		t.Fatalf("expected cancelled, got %s", res.Status)
	}

	ride := f.ride(t, rideId)
	checkCancelDetails(t, ride)
	if ride.CancelDetails.By != model.CancelByDriver || ride.CancelDetails.Reason != "car breakdown" {
		t.Fatalf("unexpected cancel details %+v", ride.CancelDetails)
	}

	cancelled := f.rooms.ofType(model.EventRideCancelled)
	if len(cancelled) != 1 {
		t.Fatalf("expected one rideCancelled event, got %d", len(cancelled))
	}
	var payload websocketdto.RideCancelled
	decodeEvent(t, cancelled[0].event, &payload)
	if payload.By != "driver" || payload.Reason != "car breakdown" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	_, err = f.svc.VerifyOtp(ctx, f.rider, rideId, booked.Otp)
	wantKind(t, err, myerrors.ErrInvalidState)

	_, err = f.svc.CancelRide(ctx, f.rider, rideId, "")
	wantKind(t, err, myerrors.ErrInvalidState)
}

func TestCancelRequiresParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)

	_, err := f.svc.CancelRide(ctx, f.outside, rideId, "")
	wantKind(t, err, myerrors.ErrForbidden)

	admin := model.Caller{ID: "admin-1", Role: model.RoleAdmin}
	res, err := f.svc.CancelRide(ctx, admin, rideId, "duplicate")
	if err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if res.Status != model.RideCancelled {
		t.Fatalf("expected cancelled, got %s", res.Status)
	}
	if by := f.ride(t, rideId).CancelDetails.By; by != model.CancelBySystem {
		t.Fatalf("admin cancel recorded as %s", by)
	}
}

func TestCompletedRideCannotBeCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	f.book(t, rideId, f.d1, 100)

	if _, err := f.svc.CompleteRide(ctx, f.d1, rideId); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err := f.svc.CancelRide(ctx, f.rider, rideId, "too late")
	wantKind(t, err, myerrors.ErrInvalidState)
	checkCancelDetails(t, f.ride(t, rideId))
}

func TestOtpMismatchLeavesRideUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	f.book(t, rideId, f.d1, 100)
	before := f.ride(t, rideId)

	_, err := f.svc.VerifyOtp(ctx, f.d1, rideId, "482914")
	wantKind(t, err, myerrors.ErrOtpMismatch)

	after := f.ride(t, rideId)
	if after.Status != model.RideAccepted || after.Version != before.Version {
		t.Fatalf("ride changed on mismatch: %s v%d", after.Status, after.Version)
	}

	_, err = f.svc.VerifyOtp(ctx, f.outside, rideId, "482913")
	wantKind(t, err, myerrors.ErrForbidden)
}

func TestOtpLocksAfterTooManyAttempts(t *testing.T) {
	f := newFixture(t)
	f.svc.WithOtpAttempts(3)
	ctx := context.Background()
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	f.book(t, rideId, f.d1, 100)

	for i, code := range []string{"000001", "000002", "not-a-code"} {
		_, err := f.svc.VerifyOtp(ctx, f.d1, rideId, code)
		wantKind(t, err, myerrors.ErrOtpMismatch)
		if got := f.ride(t, rideId).OtpAttempts; got != i+1 {
			t.Fatalf("attempt %d recorded as %d", i+1, got)
		}
	}

	// the right code no longer completes the ride
	_, err := f.svc.VerifyOtp(ctx, f.rider, rideId, "482913")
	wantKind(t, err, myerrors.ErrInvalidState)
	ride := f.ride(t, rideId)
	if ride.Status != model.RideAccepted || ride.Otp == nil || ride.OtpAttempts != 3 {
		t.Fatalf("locked ride changed: %s otp=%v attempts=%d", ride.Status, ride.Otp, ride.OtpAttempts)
	}

	// the parties can still cancel
	if _, err := f.svc.CancelRide(ctx, f.rider, rideId, "driver lost"); err != nil {
		t.Fatalf("cancel locked ride: %v", err)
	}
}

func TestOtpAttemptsBelowCapStillVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	f.book(t, rideId, f.d1, 100)

	for i := 0; i < DefaultOtpAttempts-1; i++ {
		_, err := f.svc.VerifyOtp(ctx, f.d1, rideId, "111111")
		wantKind(t, err, myerrors.ErrOtpMismatch)
	}
	res, err := f.svc.VerifyOtp(ctx, f.d1, rideId, "482913")
	if err != nil || res.Status != model.RideCompleted {
		t.Fatalf("verify after retries: %v %+v", err, res)
	}
}

func TestCompleteRideOnlyByBookedDriver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)

	_, err := f.svc.CompleteRide(ctx, f.d1, rideId)
	wantKind(t, err, myerrors.ErrForbidden)

	f.quote(t, f.d1, rideId, 100)
	f.book(t, rideId, f.d1, 100)

	_, err = f.svc.CompleteRide(ctx, f.d2, rideId)
	wantKind(t, err, myerrors.ErrForbidden)

	if _, err := f.svc.CompleteRide(ctx, f.d1, rideId); err != nil {
		t.Fatalf("complete: %v", err)
	}
	_, err = f.svc.CompleteRide(ctx, f.d1, rideId)
	wantKind(t, err, myerrors.ErrInvalidState)
}

func TestRelayLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)

	// a quoting driver may share its position while the ride is pending
	if _, err := f.svc.RelayLocation(ctx, f.d1, rideId, "client-d1", loc(43.1, 76.1)); err != nil {
		t.Fatalf("relay by quoting driver: %v", err)
	}
	_, err := f.svc.RelayLocation(ctx, f.d2, rideId, "client-d2", loc(43.1, 76.1))
	wantKind(t, err, myerrors.ErrForbidden)

	events := f.rooms.ofType(model.EventDriverUpdated)
	if len(events) != 1 || events[0].exclude != "client-d1" {
		t.Fatalf("sender must be excluded, got %+v", events)
	}
	driver, _ := f.drivers.FindById(ctx, f.d1.ID)
	if driver.CurrentLocation == nil || driver.CurrentLocation.Latitude != 43.1 {
		t.Fatal("driver location not persisted")
	}

	// riders are relayed but nothing is stored for them
	if _, err := f.svc.RelayLocation(ctx, f.rider, rideId, "client-r", loc(43.2, 76.2)); err != nil {
		t.Fatalf("relay by rider: %v", err)
	}
	events = f.rooms.ofType(model.EventDriverUpdated)
	var upd websocketdto.DriverUpdated
	decodeEvent(t, events[1].event, &upd)
	if upd.By != "user" {
		t.Fatalf("rider update tagged %q", upd.By)
	}

	_, err = f.svc.RelayLocation(ctx, f.d1, rideId, "client-d1", loc(100, 0))
	wantKind(t, err, myerrors.ErrValidation)
}

func TestLocationOnCancelledRideStopsTracking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	f.book(t, rideId, f.d1, 100)
	if _, err := f.svc.CancelRide(ctx, f.rider, rideId, "changed plans"); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.UpdateDriverLocation(ctx, f.d1, rideId, loc(43, 76))
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if !res.StopTracking || res.Status != model.RideCancelled {
		t.Fatalf("expected stop tracking, got %+v", res)
	}
	if n := len(f.rooms.ofType(model.EventDriverUpdated)); n != 0 {
		t.Fatalf("cancelled ride must not relay, got %d events", n)
	}

	_, err = f.svc.UpdateDriverLocation(ctx, f.rider, rideId, loc(43, 76))
	wantKind(t, err, myerrors.ErrForbidden)
}

func TestCanJoinRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)

	if err := f.svc.CanJoinRoom(ctx, f.rider, rideId); err != nil {
		t.Fatalf("rider join: %v", err)
	}
	if err := f.svc.CanJoinRoom(ctx, f.d1, rideId); err != nil {
		t.Fatalf("quoting driver join: %v", err)
	}
	wantKind(t, f.svc.CanJoinRoom(ctx, f.d2, rideId), myerrors.ErrForbidden)
	wantKind(t, f.svc.CanJoinRoom(ctx, f.rider, "missing"), myerrors.ErrNotFound)
	wantKind(t, f.svc.CanJoinRoom(ctx, f.rider, ""), myerrors.ErrValidation)

	// once booked, only the chosen driver stays admitted
	f.book(t, rideId, f.d2, 90)
	wantKind(t, f.svc.CanJoinRoom(ctx, f.d1, rideId), myerrors.ErrForbidden)
	if err := f.svc.CanJoinRoom(ctx, f.d2, rideId); err != nil {
		t.Fatalf("booked driver join: %v", err)
	}
}

func TestPendingRidesAndGetRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.requestRide(t)
	second := f.requestRide(t)
	f.quote(t, f.d1, second, 50)
	f.book(t, second, f.d1, 50)

	pending, err := f.svc.PendingRides(ctx, f.d2)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != first {
		t.Fatalf("expected only %s pending, got %+v", first, pending)
	}
	_, err = f.svc.PendingRides(ctx, f.rider)
	wantKind(t, err, myerrors.ErrForbidden)

	if _, err := f.svc.GetRide(ctx, f.d1, second); err != nil {
		t.Fatalf("booked driver view: %v", err)
	}
	_, err = f.svc.GetRide(ctx, f.d2, second)
	wantKind(t, err, myerrors.ErrForbidden)
}

func TestBookRideNarrowsRoomToParties(t *testing.T) {
	f := newFixture(t)
	rideId := f.requestRide(t)
	f.quote(t, f.d1, rideId, 100)
	f.quote(t, f.d2, rideId, 90)

	f.book(t, rideId, f.d2, 90)

	keep := f.rooms.kept(rideId)
	if len(keep) != 2 || keep[0] != f.rider.ID || keep[1] != f.d2.ID {
		t.Fatalf("room kept %v, want rider and booked driver", keep)
	}
	if booked := f.rooms.ofType(model.EventRideBooked); len(booked) != 1 {
		t.Fatalf("expected one rideBooked event, got %d", len(booked))
	}
}
