package ports

import (
	"context"

	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
)

type IRidesService interface {
	RequestRide(ctx context.Context, caller model.Caller, req dto.RidesRequestDto) (dto.RidesResponseDto, error)
	SubmitQuote(ctx context.Context, caller model.Caller, rideId string, req dto.QuoteRequestDto) (model.Quote, error)
	ListQuotes(ctx context.Context, caller model.Caller, rideId string) (dto.QuotesResponseDto, error)
	BookRide(ctx context.Context, caller model.Caller, rideId string, req dto.BookRequestDto) (dto.BookResponseDto, error)
	VerifyOtp(ctx context.Context, caller model.Caller, rideId, otp string) (dto.RideStatusResponseDto, error)
	CancelRide(ctx context.Context, caller model.Caller, rideId, reason string) (dto.RideStatusResponseDto, error)
	CompleteRide(ctx context.Context, caller model.Caller, rideId string) (dto.RideStatusResponseDto, error)
	UpdateDriverLocation(ctx context.Context, caller model.Caller, rideId string, req dto.LocationDto) (dto.LocationUpdateResponseDto, error)
	RelayLocation(ctx context.Context, caller model.Caller, rideId, clientId string, req dto.LocationDto) (dto.LocationUpdateResponseDto, error)
	PendingRides(ctx context.Context, caller model.Caller) ([]model.Rides, error)
	GetRide(ctx context.Context, caller model.Caller, rideId string) (model.Rides, error)
	CanJoinRoom(ctx context.Context, caller model.Caller, rideId string) error
}

type IPaymentService interface {
	CreateOrder(ctx context.Context, caller model.Caller, rideId string) (dto.PaymentOrderResponseDto, error)
	Verify(ctx context.Context, caller model.Caller, rideId string, req dto.PaymentVerifyRequestDto) (dto.RideStatusResponseDto, error)
}

type IAuthService interface {
	Register(ctx context.Context, req dto.RegisterRequestDto) (dto.AuthResponseDto, error)
	Login(ctx context.Context, req dto.LoginRequestDto) (dto.AuthResponseDto, error)
	SendLoginOtp(ctx context.Context, req dto.SendOtpRequestDto) (dto.OtpSentResponseDto, error)
	VerifyLoginOtp(ctx context.Context, req dto.VerifyLoginOtpRequestDto) (dto.AuthResponseDto, error)
	ParseToken(token string) (model.Caller, error)
}

type IPassengerService interface {
	Profile(ctx context.Context, caller model.Caller) (model.User, error)
	UpdateProfile(ctx context.Context, caller model.Caller, req dto.UpdateUserRequestDto) (model.User, error)
}

type IDriverService interface {
	Profile(ctx context.Context, caller model.Caller) (model.Driver, error)
	UpdateProfile(ctx context.Context, caller model.Caller, req dto.UpdateDriverRequestDto) (model.Driver, error)
	SetAvailability(ctx context.Context, caller model.Caller, available bool) (model.Driver, error)
	UpdateLocation(ctx context.Context, caller model.Caller, req dto.LocationDto) error
}

type IFleetService interface {
	AddCar(ctx context.Context, caller model.Caller, req dto.CarRequestDto) (model.Car, error)
	ListCars(ctx context.Context, caller model.Caller) ([]model.Car, error)
	UpdateCar(ctx context.Context, caller model.Caller, carId string, req dto.CarRequestDto) (model.Car, error)
	DeleteCar(ctx context.Context, caller model.Caller, carId string) error
	ListDrivers(ctx context.Context, caller model.Caller) ([]model.Driver, error)
	ListRides(ctx context.Context, caller model.Caller, ongoingOnly bool) ([]model.Rides, error)
	BlockDriver(ctx context.Context, caller model.Caller, driverId string, blocked bool) (model.Driver, error)
	DeleteDriver(ctx context.Context, caller model.Caller, driverId string) error
	AssignCar(ctx context.Context, caller model.Caller, driverId, carId string) (model.Driver, error)
	ReleaseCar(ctx context.Context, caller model.Caller, driverId string) (model.Driver, error)
	DeleteAccount(ctx context.Context, caller model.Caller) error
}

type IAdminService interface {
	ListRides(ctx context.Context, caller model.Caller, status string) ([]model.Rides, error)
	ListDrivers(ctx context.Context, caller model.Caller) ([]model.Driver, error)
	ListUsers(ctx context.Context, caller model.Caller) ([]model.User, error)
	Overview(ctx context.Context, caller model.Caller) (dto.SystemOverview, error)
	UserDetail(ctx context.Context, caller model.Caller, userId string) (dto.UserDetailDto, error)
	DriverDetail(ctx context.Context, caller model.Caller, driverId string) (dto.DriverDetailDto, error)
	RideDetail(ctx context.Context, caller model.Caller, rideId string) (model.Rides, error)
	BlockDriver(ctx context.Context, caller model.Caller, driverId string, blocked bool) (model.Driver, error)
	VerifyDriver(ctx context.Context, caller model.Caller, driverId string, verified bool) (model.Driver, error)
	DeleteDriver(ctx context.Context, caller model.Caller, driverId string) error
	AppointOperationalAdmin(ctx context.Context, caller model.Caller, req dto.AppointAdminRequestDto) (model.Admin, error)
}
