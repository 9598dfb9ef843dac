package ports

import (
	"context"

	"travelo/internal/ride-service/core/domain/model"
)

// Repositories return myerrors.ErrNotFound for missing records and
// myerrors.ErrConflict for unique violations.

type IRidesRepo interface {
	CreateRide(ctx context.Context, ride model.Rides) (model.Rides, error)
	FindById(ctx context.Context, rideId string) (model.Rides, error)
	Find(ctx context.Context, filter model.RideFilter) ([]model.Rides, error)
	// AppendQuote adds a quote only while the ride is pending; otherwise it
	// returns myerrors.ErrInvalidState and leaves the quote list untouched.
	AppendQuote(ctx context.Context, rideId string, quote model.Quote) (model.Rides, error)
	// Transition applies upd only if the persisted status is one of from.
	// It returns myerrors.ErrInvalidState when the guard does not hold.
	Transition(ctx context.Context, rideId string, from []model.RideStatus, upd model.RideUpdate) (model.Rides, error)
	// RecordOtpFailure counts one wrong code against the ride's current otp
	// and returns the new total. Issuing an otp resets the count.
	RecordOtpFailure(ctx context.Context, rideId string) (int, error)
	CountByStatus(ctx context.Context) (map[model.RideStatus]int, error)
}

type IUsersRepo interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	FindById(ctx context.Context, userId string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByMobile(ctx context.Context, mobile string) (model.User, error)
	Update(ctx context.Context, user model.User) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}

type IDriversRepo interface {
	Create(ctx context.Context, driver model.Driver) (model.Driver, error)
	FindById(ctx context.Context, driverId string) (model.Driver, error)
	FindByEmail(ctx context.Context, email string) (model.Driver, error)
	FindByMobile(ctx context.Context, mobile string) (model.Driver, error)
	Find(ctx context.Context, filter model.DriverFilter) ([]model.Driver, error)
	Update(ctx context.Context, driver model.Driver) (model.Driver, error)
	UpdateLocation(ctx context.Context, driverId string, loc model.Location) error
	// Delete removes the driver and releases its car.
	Delete(ctx context.Context, driverId string) error
}

type IOwnersRepo interface {
	Create(ctx context.Context, owner model.Owner) (model.Owner, error)
	FindById(ctx context.Context, ownerId string) (model.Owner, error)
	FindByEmail(ctx context.Context, email string) (model.Owner, error)
	List(ctx context.Context) ([]model.Owner, error)
	// Delete removes the owner together with its drivers and cars.
	Delete(ctx context.Context, ownerId string) error
}

type ICarsRepo interface {
	Create(ctx context.Context, car model.Car) (model.Car, error)
	FindById(ctx context.Context, carId string) (model.Car, error)
	FindByOwner(ctx context.Context, ownerId string) ([]model.Car, error)
	Update(ctx context.Context, car model.Car) (model.Car, error)
	Delete(ctx context.Context, carId string) error
	// Assign engages an available car and links it to the driver in one step,
	// freeing the car the driver held before. An engaged car yields
	// myerrors.ErrConflict and leaves the driver's current car in place.
	Assign(ctx context.Context, carId, driverId string) (model.Driver, error)
	// Release frees the driver's car, if any.
	Release(ctx context.Context, driverId string) (model.Driver, error)
}

type IAdminsRepo interface {
	Create(ctx context.Context, admin model.Admin) (model.Admin, error)
	FindById(ctx context.Context, adminId string) (model.Admin, error)
	FindByEmail(ctx context.Context, email string) (model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)
}

// IOtpIssuer keeps short-lived login codes keyed by phone number.
type IOtpIssuer interface {
	Issue(ctx context.Context, key string) (string, error)
	Verify(ctx context.Context, key, code string) (bool, error)
	Invalidate(ctx context.Context, key string) error
}
