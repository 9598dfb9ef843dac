package myhttp

import (
	"net/http"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/adapters/driver/myhttp/handle"
	"travelo/internal/ride-service/adapters/driver/myhttp/middleware"
	"travelo/internal/ride-service/adapters/driver/myhttp/ws"
	"travelo/internal/ride-service/core/ports"
)

// Services is everything the HTTP and websocket surfaces call into.
type Services struct {
	Auth      ports.IAuthService
	Rides     ports.IRidesService
	Payment   ports.IPaymentService
	Passenger ports.IPassengerService
	Driver    ports.IDriverService
	Fleet     ports.IFleetService
	Admin     ports.IAdminService
}

// NewRouter registers every route and the websocket event handlers.
func NewRouter(mylog mylogger.Logger, svc Services, dispatcher *ws.Dispatcher, checks map[string]handle.Check) http.Handler {
	mux := http.NewServeMux()

	authHandler := handle.NewAuthHandler(svc.Auth, mylog)
	rideHandler := handle.NewRidesHandler(svc.Rides, svc.Payment, mylog)
	profileHandler := handle.NewProfileHandler(svc.Passenger, svc.Driver, mylog)
	fleetHandler := handle.NewFleetHandler(svc.Fleet, mylog)
	adminHandler := handle.NewAdminHandler(svc.Admin, mylog)
	healthHandler := handle.NewHealthHandler(checks)

	authMiddleware := middleware.NewAuthMiddleware(svc.Auth)
	protect := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Wrap(h)
	}

	ws.NewEventHandler(mylog, svc.Auth, svc.Rides).Register(dispatcher)

	// public
	mux.Handle("POST /auth/register", authHandler.Register())
	mux.Handle("POST /auth/login", authHandler.Login())
	mux.Handle("POST /auth/otp/send", authHandler.SendOtp())
	mux.Handle("POST /auth/otp/verify", authHandler.VerifyOtp())
	mux.Handle("GET /health", healthHandler.Health())

	// rides
	mux.Handle("POST /rides", protect(rideHandler.CreateRide()))
	mux.Handle("GET /rides/pending", protect(rideHandler.PendingRides()))
	mux.Handle("GET /rides/{ride_id}", protect(rideHandler.GetRide()))
	mux.Handle("GET /rides/{ride_id}/quotes", protect(rideHandler.ListQuotes()))
	mux.Handle("POST /rides/{ride_id}/quotes", protect(rideHandler.SubmitQuote()))
	mux.Handle("POST /rides/{ride_id}/book", protect(rideHandler.BookRide()))
	mux.Handle("POST /rides/{ride_id}/otp", protect(rideHandler.VerifyOtp()))
	mux.Handle("POST /rides/{ride_id}/cancel", protect(rideHandler.CancelRide()))
	mux.Handle("POST /rides/{ride_id}/complete", protect(rideHandler.CompleteRide()))
	mux.Handle("POST /rides/{ride_id}/location", protect(rideHandler.UpdateLocation()))
	mux.Handle("POST /rides/{ride_id}/payment/order", protect(rideHandler.CreatePaymentOrder()))
	mux.Handle("POST /rides/{ride_id}/payment/verify", protect(rideHandler.VerifyPayment()))

	// profiles
	mux.Handle("GET /users/me", protect(profileHandler.GetUser()))
	mux.Handle("PUT /users/me", protect(profileHandler.UpdateUser()))
	mux.Handle("GET /drivers/me", protect(profileHandler.GetDriver()))
	mux.Handle("PUT /drivers/me", protect(profileHandler.UpdateDriver()))
	mux.Handle("POST /drivers/me/availability", protect(profileHandler.SetAvailability()))
	mux.Handle("POST /drivers/me/location", protect(profileHandler.UpdateDriverLocation()))

	// owner
	mux.Handle("POST /owner/cars", protect(fleetHandler.AddCar()))
	mux.Handle("GET /owner/cars", protect(fleetHandler.ListCars()))
	mux.Handle("PUT /owner/cars/{car_id}", protect(fleetHandler.UpdateCar()))
	mux.Handle("DELETE /owner/cars/{car_id}", protect(fleetHandler.DeleteCar()))
	mux.Handle("GET /owner/drivers", protect(fleetHandler.ListDrivers()))
	mux.Handle("GET /owner/rides", protect(fleetHandler.ListRides(false)))
	mux.Handle("GET /owner/rides/ongoing", protect(fleetHandler.ListRides(true)))
	mux.Handle("POST /owner/drivers/{driver_id}/block", protect(fleetHandler.BlockDriver()))
	mux.Handle("DELETE /owner/drivers/{driver_id}", protect(fleetHandler.DeleteDriver()))
	mux.Handle("POST /owner/drivers/{driver_id}/car", protect(fleetHandler.AssignCar()))
	mux.Handle("DELETE /owner/drivers/{driver_id}/car", protect(fleetHandler.ReleaseCar()))
	mux.Handle("DELETE /owner/account", protect(fleetHandler.DeleteAccount()))

	// admin
	mux.Handle("GET /admin/rides", protect(adminHandler.ListRides()))
	mux.Handle("GET /admin/rides/{id}", protect(adminHandler.RideDetail()))
	mux.Handle("GET /admin/drivers", protect(adminHandler.ListDrivers()))
	mux.Handle("GET /admin/drivers/{id}", protect(adminHandler.DriverDetail()))
	mux.Handle("POST /admin/drivers/{id}/block", protect(adminHandler.BlockDriver()))
	mux.Handle("POST /admin/drivers/{id}/verify", protect(adminHandler.VerifyDriver()))
	mux.Handle("DELETE /admin/drivers/{id}", protect(adminHandler.DeleteDriver()))
	mux.Handle("GET /admin/overview", protect(adminHandler.Overview()))
	mux.Handle("GET /admin/users", protect(adminHandler.ListUsers()))
	mux.Handle("GET /admin/users/{id}", protect(adminHandler.UserDetail()))
	mux.Handle("POST /admin/operational-admins", protect(adminHandler.AppointAdmin()))

	// websocket routes, authenticated by the first frame
	mux.Handle("GET /ws", dispatcher.ServeWS())

	return middleware.Logging(mylog)(mux)
}
