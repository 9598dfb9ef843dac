package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"

	"github.com/google/uuid"
)

const (
	opTimeout = time.Second * 15

	// ActionJoinRoom tells the booking caller to join the ride's realtime room.
	ActionJoinRoom = "join_websocket_room"
)

var (
	activeStatuses     = []model.RideStatus{model.RidePending, model.RideAccepted, model.RideStarted}
	inProgressStatuses = []model.RideStatus{model.RideAccepted, model.RideStarted}
)

type RidesService struct {
	mylog       mylogger.Logger
	RidesRepo   ports.IRidesRepo
	UsersRepo   ports.IUsersRepo
	DriversRepo ports.IDriversRepo
	Rooms       ports.IRoomBroadcaster
	Notifier    ports.INotifier
	newOtp      func() (int, error)
	maxOtpTries int
}

func NewRidesService(
	log mylogger.Logger,
	ridesRepo ports.IRidesRepo,
	usersRepo ports.IUsersRepo,
	driversRepo ports.IDriversRepo,
	rooms ports.IRoomBroadcaster,
	notifier ports.INotifier,
) *RidesService {
	if rooms == nil {
		rooms = noopRooms{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &RidesService{
		mylog:       log,
		RidesRepo:   ridesRepo,
		UsersRepo:   usersRepo,
		DriversRepo: driversRepo,
		Rooms:       rooms,
		Notifier:    notifier,
		newOtp:      generateRideOtp,
		maxOtpTries: DefaultOtpAttempts,
	}
}

// WithOtpAttempts caps the wrong codes accepted per booking.
func (rs *RidesService) WithOtpAttempts(n int) *RidesService {
	if n > 0 {
		rs.maxOtpTries = n
	}
	return rs
}

func (rs *RidesService) RequestRide(ctx context.Context, caller model.Caller, req dto.RidesRequestDto) (dto.RidesResponseDto, error) {
	log := rs.mylog.Action("RequestRide").With("rider_id", caller.ID)

	if !caller.Can(model.CapRequestRide) {
		return dto.RidesResponseDto{}, myerrors.New(myerrors.ErrForbidden, "only riders can request rides")
	}
	pickup, err := validateLocation("pickup", req.Pickup)
	if err != nil {
		return dto.RidesResponseDto{}, err
	}
	dropoff, err := validateLocation("dropoff", req.Dropoff)
	if err != nil {
		return dto.RidesResponseDto{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := rs.UsersRepo.FindById(ctx, caller.ID); err != nil {
		return dto.RidesResponseDto{}, notFound(err, "rider not found")
	}

	distance := round2(haversineKm(pickup, dropoff))
	if dropoff.DistanceKm == nil {
		dropoff.DistanceKm = ptr(distance)
	}
	if dropoff.DurationMinutes == nil {
		dropoff.DurationMinutes = ptr(etaMinutes(distance))
	}

	now := time.Now().UTC()
	ride, err := rs.RidesRepo.CreateRide(ctx, model.Rides{
		ID:            uuid.NewString(),
		RiderId:       caller.ID,
		Pickup:        pickup,
		Dropoff:       dropoff,
		Quotes:        []model.Quote{},
		Status:        model.RidePending,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		log.Error("cannot create ride", err)
		return dto.RidesResponseDto{}, upstream(err)
	}
	log = log.With("ride_id", ride.ID)

	// notify every available driver, failures never fail the request
	notified := 0
	drivers, err := rs.DriversRepo.Find(ctx, model.DriverFilter{Available: ptr(true)})
	if err != nil {
		log.Warn("cannot list available drivers", "error", err.Error())
	}
	for _, d := range drivers {
		if !d.CanQuote() || d.FcmToken == "" {
			continue
		}
		rs.Notifier.Notify(d.FcmToken, "New ride request", fmt.Sprintf("Pickup: %s", describe(pickup)))
		notified++
	}

	log.Info("ride requested", "distance_km", distance, "notified_drivers", notified)
	return dto.RidesResponseDto{
		RideId:              ride.ID,
		Status:              ride.Status,
		EstimatedDistanceKm: distance,
		NotifiedDrivers:     notified,
	}, nil
}

func (rs *RidesService) SubmitQuote(ctx context.Context, caller model.Caller, rideId string, req dto.QuoteRequestDto) (model.Quote, error) {
	log := rs.mylog.Action("SubmitQuote").With("ride_id", rideId, "driver_id", caller.ID)

	if !caller.Can(model.CapQuote) {
		return model.Quote{}, myerrors.New(myerrors.ErrForbidden, "only drivers can submit quotes")
	}
	if req.Price == nil || *req.Price <= 0 {
		return model.Quote{}, myerrors.New(myerrors.ErrValidation, "price must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	driver, err := rs.DriversRepo.FindById(ctx, caller.ID)
	if err != nil {
		return model.Quote{}, notFound(err, "driver not found")
	}
	if !driver.CanQuote() {
		return model.Quote{}, myerrors.New(myerrors.ErrNotFound, "driver not verified")
	}

	var driverLoc model.Location
	switch {
	case req.DriverLocation.Latitude != nil || req.DriverLocation.Longitude != nil:
		driverLoc, err = validateLocation("driver_location", req.DriverLocation)
		if err != nil {
			return model.Quote{}, err
		}
	case driver.CurrentLocation != nil:
		driverLoc = *driver.CurrentLocation
	default:
		return model.Quote{}, myerrors.New(myerrors.ErrValidation, "driver_location is required")
	}

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return model.Quote{}, err
	}
	if ride.Status != model.RidePending {
		return model.Quote{}, myerrors.New(myerrors.ErrInvalidState, "ride is %s, quotes are closed", ride.Status)
	}

	toPickup := round2(haversineKm(driverLoc, ride.Pickup))
	quote := model.Quote{
		DriverId:           driver.ID,
		Price:              *req.Price,
		DriverLocation:     driverLoc,
		DistanceToPickupKm: toPickup,
		EtaMinutes:         etaMinutes(toPickup),
		CreatedAt:          time.Now().UTC(),
	}

	ride, err = rs.RidesRepo.AppendQuote(ctx, rideId, quote)
	if err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) {
			return model.Quote{}, myerrors.New(myerrors.ErrInvalidState, "ride is no longer pending")
		}
		if errors.Is(err, myerrors.ErrNotFound) {
			return model.Quote{}, myerrors.New(myerrors.ErrNotFound, "ride not found")
		}
		log.Error("cannot append quote", err)
		return model.Quote{}, upstream(err)
	}

	rs.broadcast(ride.ID, model.EventQuoteAdded, websocketdto.QuoteAdded{
		RideId:   ride.ID,
		DriverId: driver.ID,
		Price:    quote.Price,
	})
	if rider, err := rs.UsersRepo.FindById(ctx, ride.RiderId); err == nil && rider.FcmToken != "" {
		rs.Notifier.Notify(rider.FcmToken, "New quote", fmt.Sprintf("%s quoted %.2f for your ride", driver.Name, quote.Price))
	}

	log.Info("quote submitted", "price", quote.Price, "quotes", len(ride.Quotes))
	return quote, nil
}

func (rs *RidesService) ListQuotes(ctx context.Context, caller model.Caller, rideId string) (dto.QuotesResponseDto, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return dto.QuotesResponseDto{}, err
	}
	if !canView(caller, ride) {
		return dto.QuotesResponseDto{}, myerrors.New(myerrors.ErrForbidden, "not a party to this ride")
	}
	quotes := ride.Quotes
	if quotes == nil {
		quotes = []model.Quote{}
	}
	return dto.QuotesResponseDto{RideId: ride.ID, Status: ride.Status, Quotes: quotes}, nil
}

// BookRide assigns the driver and fare. Only a pending ride can be booked,
// so concurrent bookings resolve to a single winner.
func (rs *RidesService) BookRide(ctx context.Context, caller model.Caller, rideId string, req dto.BookRequestDto) (dto.BookResponseDto, error) {
	log := rs.mylog.Action("BookRide").With("ride_id", rideId, "rider_id", caller.ID)

	if !caller.Can(model.CapBookRide) {
		return dto.BookResponseDto{}, myerrors.New(myerrors.ErrForbidden, "only riders can book rides")
	}
	if strings.TrimSpace(req.DriverId) == "" {
		return dto.BookResponseDto{}, myerrors.New(myerrors.ErrValidation, "driver_id is required")
	}
	if req.Fare == nil || *req.Fare <= 0 {
		return dto.BookResponseDto{}, myerrors.New(myerrors.ErrValidation, "fare must be positive")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return dto.BookResponseDto{}, err
	}
	if ride.RiderId != caller.ID {
		return dto.BookResponseDto{}, myerrors.New(myerrors.ErrForbidden, "ride belongs to another rider")
	}
	driver, err := rs.DriversRepo.FindById(ctx, req.DriverId)
	if err != nil {
		return dto.BookResponseDto{}, notFound(err, "driver not found")
	}
	if !driver.CanQuote() {
		return dto.BookResponseDto{}, myerrors.New(myerrors.ErrNotFound, "driver not verified")
	}

	otp, err := rs.newOtp()
	if err != nil {
		log.Error("cannot generate otp", err)
		return dto.BookResponseDto{}, upstream(err)
	}

	ride, err = rs.RidesRepo.Transition(ctx, rideId, []model.RideStatus{model.RidePending}, model.RideUpdate{
		Status:   model.RideAccepted,
		DriverId: ptr(driver.ID),
		Fare:     ptr(*req.Fare),
		Otp:      ptr(otp),
	})
	if err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) {
			log.Warn("booking lost the race or ride not pending")
			return dto.BookResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride is not pending")
		}
		return dto.BookResponseDto{}, rs.storeErr(log, err, "ride not found")
	}

	rs.broadcast(ride.ID, model.EventRideBooked, websocketdto.RideStatusChanged{
		RideId:   ride.ID,
		Status:   string(ride.Status),
		DriverId: driver.ID,
		Fare:     *req.Fare,
	})
	// drivers whose quotes lost stop following the ride
	rs.Rooms.Restrict(ride.ID, []string{ride.RiderId, driver.ID})
	if driver.FcmToken != "" {
		rs.Notifier.Notify(driver.FcmToken, "Ride booked", fmt.Sprintf("You have been booked for %.2f", *req.Fare))
	}

	log.Info("ride booked", "driver_id", driver.ID, "fare", *req.Fare)
	return dto.BookResponseDto{
		RideId:   ride.ID,
		Status:   ride.Status,
		DriverId: driver.ID,
		Fare:     *req.Fare,
		Otp:      strconv.Itoa(otp),
		Action:   ActionJoinRoom,
	}, nil
}

// VerifyOtp completes the ride when the submitted code matches. The code is
// single use: it is cleared together with the transition.
func (rs *RidesService) VerifyOtp(ctx context.Context, caller model.Caller, rideId, otp string) (dto.RideStatusResponseDto, error) {
	log := rs.mylog.Action("VerifyOtp").With("ride_id", rideId, "caller", caller.ID)

	if !caller.Can(model.CapVerifyOtp) {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrForbidden, "caller cannot verify otp")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return dto.RideStatusResponseDto{}, err
	}
	if !ride.IsParty(caller.ID) {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrForbidden, "not a party to this ride")
	}
	switch ride.Status {
	case model.RideCompleted:
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride already completed")
	case model.RideAccepted, model.RideStarted:
	default:
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride is %s", ride.Status)
	}
	if ride.Otp == nil {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "no otp issued for this ride")
	}
	if ride.OtpAttempts >= rs.maxOtpTries {
		log.Warn("otp locked", "attempts", ride.OtpAttempts)
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "too many otp attempts")
	}

	submitted, err := strconv.Atoi(strings.TrimSpace(otp))
	if err != nil || submitted != *ride.Otp {
		attempts, ferr := rs.RidesRepo.RecordOtpFailure(ctx, rideId)
		if errors.Is(ferr, myerrors.ErrInvalidState) {
			return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride already completed")
		}
		if ferr != nil {
			return dto.RideStatusResponseDto{}, rs.storeErr(log, ferr, "ride not found")
		}
		log.Warn("otp mismatch", "attempts", attempts)
		if attempts >= rs.maxOtpTries {
			return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrOtpMismatch, "invalid otp, no attempts left")
		}
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrOtpMismatch, "invalid otp")
	}

	ride, err = rs.RidesRepo.Transition(ctx, rideId, inProgressStatuses, model.RideUpdate{
		Status:   model.RideCompleted,
		ClearOtp: true,
	})
	if err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) {
			return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride already completed")
		}
		return dto.RideStatusResponseDto{}, rs.storeErr(log, err, "ride not found")
	}

	rs.broadcast(ride.ID, model.EventRideCompleted, websocketdto.RideCompleted{RideId: ride.ID})
	log.Info("otp verified, ride completed")
	return dto.RideStatusResponseDto{RideId: ride.ID, Status: ride.Status, Message: "ride completed"}, nil
}

func (rs *RidesService) CancelRide(ctx context.Context, caller model.Caller, rideId, reason string) (dto.RideStatusResponseDto, error) {
	log := rs.mylog.Action("CancelRide").With("ride_id", rideId, "caller", caller.ID)

	if !caller.Can(model.CapCancelRide) {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrForbidden, "caller cannot cancel rides")
	}
	reason = strings.TrimSpace(reason)
	if len(reason) > MaxDescriptionLen {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrValidation, "reason: maximum %d characters allowed", MaxDescriptionLen)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return dto.RideStatusResponseDto{}, err
	}
	if !caller.Role.IsAdmin() && !ride.IsParty(caller.ID) {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrForbidden, "not a party to this ride")
	}
	if ride.Status.IsTerminal() {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride already %s", ride.Status)
	}

	details := model.CancelDetails{By: caller.CancelActor(), Reason: reason}
	ride, err = rs.RidesRepo.Transition(ctx, rideId, activeStatuses, model.RideUpdate{
		Status:        model.RideCancelled,
		CancelDetails: &details,
		ClearOtp:      true,
	})
	if err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) {
			return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride can no longer be cancelled")
		}
		return dto.RideStatusResponseDto{}, rs.storeErr(log, err, "ride not found")
	}

	rs.broadcast(ride.ID, model.EventRideCancelled, websocketdto.RideCancelled{
		RideId: ride.ID,
		By:     string(details.By),
		Reason: details.Reason,
	})
	rs.notifyCounterParty(ctx, caller, ride, "Ride cancelled", cancelMessage(details))

	log.Info("ride cancelled", "by", details.By, "reason", details.Reason)
	return dto.RideStatusResponseDto{RideId: ride.ID, Status: ride.Status, Message: "ride cancelled"}, nil
}

func (rs *RidesService) CompleteRide(ctx context.Context, caller model.Caller, rideId string) (dto.RideStatusResponseDto, error) {
	log := rs.mylog.Action("CompleteRide").With("ride_id", rideId, "caller", caller.ID)

	if !caller.Can(model.CapCompleteRide) {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrForbidden, "only drivers can complete rides")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return dto.RideStatusResponseDto{}, err
	}
	if ride.DriverId == nil || *ride.DriverId != caller.ID {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrForbidden, "not the driver of this ride")
	}

	ride, err = rs.RidesRepo.Transition(ctx, rideId, inProgressStatuses, model.RideUpdate{
		Status:   model.RideCompleted,
		ClearOtp: true,
	})
	if err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) {
			return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride is not in progress")
		}
		return dto.RideStatusResponseDto{}, rs.storeErr(log, err, "ride not found")
	}

	rs.broadcast(ride.ID, model.EventRideCompleted, websocketdto.RideCompleted{RideId: ride.ID})
	log.Info("ride completed")
	return dto.RideStatusResponseDto{RideId: ride.ID, Status: ride.Status, Message: "ride completed"}, nil
}

// UpdateDriverLocation persists the driver's position and relays it to the
// whole room. A cancelled ride tells the driver to stop tracking instead.
func (rs *RidesService) UpdateDriverLocation(ctx context.Context, caller model.Caller, rideId string, req dto.LocationDto) (dto.LocationUpdateResponseDto, error) {
	if !caller.Can(model.CapTrack) {
		return dto.LocationUpdateResponseDto{}, myerrors.New(myerrors.ErrForbidden, "only drivers can share location")
	}
	return rs.relayLocation(ctx, caller, rideId, "", req)
}

// RelayLocation handles coordinates sent over a realtime connection. Driver
// positions are persisted, rider positions are only relayed, and the sending
// client never gets its own update back.
func (rs *RidesService) RelayLocation(ctx context.Context, caller model.Caller, rideId, clientId string, req dto.LocationDto) (dto.LocationUpdateResponseDto, error) {
	if caller.Role != model.RoleRider && !caller.Can(model.CapTrack) {
		return dto.LocationUpdateResponseDto{}, myerrors.New(myerrors.ErrForbidden, "only ride parties can share location")
	}
	return rs.relayLocation(ctx, caller, rideId, clientId, req)
}

func (rs *RidesService) relayLocation(ctx context.Context, caller model.Caller, rideId, exclude string, req dto.LocationDto) (dto.LocationUpdateResponseDto, error) {
	log := rs.mylog.Action("RelayLocation").With("ride_id", rideId, "user_id", caller.ID, "role", string(caller.Role))

	loc, err := validateLocation("coords", req)
	if err != nil {
		return dto.LocationUpdateResponseDto{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return dto.LocationUpdateResponseDto{}, err
	}
	isDriver := caller.Role == model.RoleDriver
	quoting := isDriver && ride.Status == model.RidePending && ride.HasQuoteFrom(caller.ID)
	if !ride.IsParty(caller.ID) && !quoting {
		return dto.LocationUpdateResponseDto{}, myerrors.New(myerrors.ErrForbidden, "not a party to this ride")
	}
	if isDriver {
		if err := rs.DriversRepo.UpdateLocation(ctx, caller.ID, loc); err != nil {
			return dto.LocationUpdateResponseDto{}, rs.storeErr(log, err, "driver not found")
		}
	}

	res := dto.LocationUpdateResponseDto{RideId: ride.ID, Status: ride.Status}
	if ride.Status == model.RideCancelled {
		res.StopTracking = true
		return res, nil
	}

	e, err := websocketdto.New(model.EventDriverUpdated, websocketdto.DriverUpdated{
		RideId: ride.ID,
		By:     string(caller.CancelActor()),
		UserId: caller.ID,
		Coords: websocketdto.Coordinates{Lat: loc.Latitude, Lng: loc.Longitude, Description: loc.Description},
	})
	if err != nil {
		log.Error("cannot marshal event", err)
		return res, nil
	}
	if exclude == "" {
		rs.Rooms.Broadcast(ride.ID, e)
	} else {
		rs.Rooms.BroadcastExcept(ride.ID, exclude, e)
	}
	log.Debug("location relayed")
	return res, nil
}

func (rs *RidesService) PendingRides(ctx context.Context, caller model.Caller) ([]model.Rides, error) {
	if !caller.Can(model.CapViewPending) {
		return nil, myerrors.New(myerrors.ErrForbidden, "caller cannot list pending rides")
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rides, err := rs.RidesRepo.Find(ctx, model.RideFilter{Statuses: []model.RideStatus{model.RidePending}})
	if err != nil {
		return nil, rs.storeErr(rs.mylog.Action("PendingRides"), err, "rides not found")
	}
	return rides, nil
}

func (rs *RidesService) GetRide(ctx context.Context, caller model.Caller, rideId string) (model.Rides, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return model.Rides{}, err
	}
	if !canView(caller, ride) {
		return model.Rides{}, myerrors.New(myerrors.ErrForbidden, "not a party to this ride")
	}
	return ride, nil
}

// CanJoinRoom admits the rider, the booked driver, drivers that quoted on a
// pending ride, and administrators.
func (rs *RidesService) CanJoinRoom(ctx context.Context, caller model.Caller, rideId string) error {
	if strings.TrimSpace(rideId) == "" {
		return myerrors.New(myerrors.ErrValidation, "ride_id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := rs.loadRide(ctx, rideId)
	if err != nil {
		return err
	}
	switch {
	case caller.Role.IsAdmin(), ride.IsParty(caller.ID):
		return nil
	case caller.Role == model.RoleDriver && ride.Status == model.RidePending && ride.HasQuoteFrom(caller.ID):
		return nil
	}
	return myerrors.New(myerrors.ErrForbidden, "not a party to this ride")
}

func (rs *RidesService) loadRide(ctx context.Context, rideId string) (model.Rides, error) {
	if strings.TrimSpace(rideId) == "" {
		return model.Rides{}, myerrors.New(myerrors.ErrValidation, "ride_id is required")
	}
	ride, err := rs.RidesRepo.FindById(ctx, rideId)
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return model.Rides{}, myerrors.New(myerrors.ErrNotFound, "ride not found")
		}
		rs.mylog.Action("loadRide").Error("cannot load ride", err, "ride_id", rideId)
		return model.Rides{}, upstream(err)
	}
	return ride, nil
}

func (rs *RidesService) broadcast(rideId, eventType string, payload any) {
	e, err := websocketdto.New(eventType, payload)
	if err != nil {
		rs.mylog.Action("broadcast").Error("cannot marshal event", err, "type", eventType)
		return
	}
	rs.Rooms.Broadcast(rideId, e)
}

func (rs *RidesService) notifyCounterParty(ctx context.Context, caller model.Caller, ride model.Rides, title, body string) {
	if caller.ID != ride.RiderId {
		if rider, err := rs.UsersRepo.FindById(ctx, ride.RiderId); err == nil && rider.FcmToken != "" {
			rs.Notifier.Notify(rider.FcmToken, title, body)
		}
	}
	if ride.DriverId != nil && caller.ID != *ride.DriverId {
		if driver, err := rs.DriversRepo.FindById(ctx, *ride.DriverId); err == nil && driver.FcmToken != "" {
			rs.Notifier.Notify(driver.FcmToken, title, body)
		}
	}
}

func (rs *RidesService) storeErr(log mylogger.Logger, err error, notFoundMsg string) error {
	if errors.Is(err, myerrors.ErrNotFound) {
		return myerrors.New(myerrors.ErrNotFound, "%s", notFoundMsg)
	}
	log.Error("store failure", err)
	return upstream(err)
}

func canView(caller model.Caller, ride model.Rides) bool {
	switch {
	case caller.Role.IsAdmin(), ride.IsParty(caller.ID):
		return true
	case caller.Role == model.RoleDriver && ride.Status == model.RidePending:
		return true
	}
	return false
}

func cancelMessage(d model.CancelDetails) string {
	if d.Reason == "" {
		return fmt.Sprintf("Cancelled by %s", d.By)
	}
	return fmt.Sprintf("Cancelled by %s: %s", d.By, d.Reason)
}

func describe(l model.Location) string {
	if l.Description != "" {
		return l.Description
	}
	return fmt.Sprintf("%.5f, %.5f", l.Latitude, l.Longitude)
}

// notFound maps a repository miss to a descriptive NotFound, anything else
// becomes an upstream failure.
func notFound(err error, msg string) error {
	if errors.Is(err, myerrors.ErrNotFound) {
		return myerrors.New(myerrors.ErrNotFound, "%s", msg)
	}
	return upstream(err)
}

func upstream(err error) error {
	return fmt.Errorf("%w: %v", myerrors.ErrUpstream, err)
}

type noopRooms struct{}

func (noopRooms) Broadcast(string, websocketdto.Event)               {}
func (noopRooms) BroadcastExcept(string, string, websocketdto.Event) {}
func (noopRooms) Restrict(string, []string)                          {}

type noopNotifier struct{}

func (noopNotifier) Notify(string, string, string) {}
func (noopNotifier) SendSms(string, string)        {}
