// Package memstore keeps every entity in process memory behind one mutex.
// It backs the test suites and STORE_DRIVER=memory.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"
)

var (
	_ ports.IRidesRepo   = (*RidesRepo)(nil)
	_ ports.IUsersRepo   = (*UsersRepo)(nil)
	_ ports.IDriversRepo = (*DriversRepo)(nil)
	_ ports.IOwnersRepo  = (*OwnersRepo)(nil)
	_ ports.ICarsRepo    = (*CarsRepo)(nil)
	_ ports.IAdminsRepo  = (*AdminsRepo)(nil)
)

type Store struct {
	mu      sync.Mutex
	rides   map[string]model.Rides
	users   map[string]model.User
	drivers map[string]model.Driver
	owners  map[string]model.Owner
	cars    map[string]model.Car
	admins  map[string]model.Admin
	now     func() time.Time
}

func New() *Store {
	return &Store{
		rides:   make(map[string]model.Rides),
		users:   make(map[string]model.User),
		drivers: make(map[string]model.Driver),
		owners:  make(map[string]model.Owner),
		cars:    make(map[string]model.Car),
		admins:  make(map[string]model.Admin),
		now:     time.Now,
	}
}

type RidesRepo struct{ s *Store }

func NewRidesRepo(s *Store) *RidesRepo { return &RidesRepo{s: s} }

func (r *RidesRepo) CreateRide(ctx context.Context, ride model.Rides) (model.Rides, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rides[ride.ID]; ok {
		return model.Rides{}, myerrors.ErrConflict
	}
	ride.Version = 1
	if ride.Quotes == nil {
		ride.Quotes = []model.Quote{}
	}
	r.s.rides[ride.ID] = copyRide(ride)
	return copyRide(ride), nil
}

func (r *RidesRepo) FindById(ctx context.Context, rideId string) (model.Rides, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideId]
	if !ok {
		return model.Rides{}, myerrors.ErrNotFound
	}
	return copyRide(ride), nil
}

func (r *RidesRepo) Find(ctx context.Context, filter model.RideFilter) ([]model.Rides, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := []model.Rides{}
	for _, ride := range r.s.rides {
		if matchRide(ride, filter) {
			res = append(res, copyRide(ride))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r *RidesRepo) AppendQuote(ctx context.Context, rideId string, quote model.Quote) (model.Rides, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideId]
	if !ok {
		return model.Rides{}, myerrors.ErrNotFound
	}
	if ride.Status != model.RidePending {
		return model.Rides{}, myerrors.ErrInvalidState
	}
	ride = copyRide(ride)
	ride.Quotes = append(ride.Quotes, quote)
	ride.Version++
	ride.UpdatedAt = r.s.now().UTC()
	r.s.rides[rideId] = ride
	return copyRide(ride), nil
}

func (r *RidesRepo) RecordOtpFailure(ctx context.Context, rideId string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideId]
	if !ok {
		return 0, myerrors.ErrNotFound
	}
	if ride.Otp == nil {
		return 0, myerrors.ErrInvalidState
	}
	ride.OtpAttempts++
	r.s.rides[rideId] = ride
	return ride.OtpAttempts, nil
}

func (r *RidesRepo) Transition(ctx context.Context, rideId string, from []model.RideStatus, upd model.RideUpdate) (model.Rides, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[rideId]
	if !ok {
		return model.Rides{}, myerrors.ErrNotFound
	}
	allowed := false
	for _, st := range from {
		if ride.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.Rides{}, myerrors.ErrInvalidState
	}

	ride = copyRide(ride)
	ride.Status = upd.Status
	if upd.DriverId != nil {
		ride.DriverId = ptr(*upd.DriverId)
	}
	if upd.Fare != nil {
		ride.Fare = ptr(*upd.Fare)
	}
	if upd.Otp != nil {
		ride.Otp = ptr(*upd.Otp)
		ride.OtpAttempts = 0
	}
	if upd.ClearOtp {
		ride.Otp = nil
	}
	if upd.CancelDetails != nil {
		d := *upd.CancelDetails
		ride.CancelDetails = &d
	}
	if upd.PaymentStatus != nil {
		ride.PaymentStatus = *upd.PaymentStatus
	}
	if upd.PaymentOrderId != nil {
		ride.PaymentOrderId = *upd.PaymentOrderId
	}
	ride.Version++
	ride.UpdatedAt = r.s.now().UTC()
	r.s.rides[rideId] = ride
	return copyRide(ride), nil
}

func (r *RidesRepo) CountByStatus(ctx context.Context) (map[model.RideStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := make(map[model.RideStatus]int)
	for _, ride := range r.s.rides {
		res[ride.Status]++
	}
	return res, nil
}

type UsersRepo struct{ s *Store }

func NewUsersRepo(s *Store) *UsersRepo { return &UsersRepo{s: s} }

func (r *UsersRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.ID == user.ID || sameNonEmpty(u.Email, user.Email) || sameNonEmpty(u.MobileNumber, user.MobileNumber) {
			return model.User{}, myerrors.ErrConflict
		}
	}
	r.s.users[user.ID] = user
	return user, nil
}

func (r *UsersRepo) FindById(ctx context.Context, userId string) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userId]
	if !ok {
		return model.User{}, myerrors.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findBy(func(u model.User) bool { return sameNonEmpty(u.Email, email) })
}

func (r *UsersRepo) FindByMobile(ctx context.Context, mobile string) (model.User, error) {
	return r.findBy(func(u model.User) bool { return sameNonEmpty(u.MobileNumber, mobile) })
}

func (r *UsersRepo) findBy(match func(model.User) bool) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if match(u) {
			return u, nil
		}
	}
	return model.User{}, myerrors.ErrNotFound
}

func (r *UsersRepo) Update(ctx context.Context, user model.User) (model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; !ok {
		return model.User{}, myerrors.ErrNotFound
	}
	r.s.users[user.ID] = user
	return user, nil
}

func (r *UsersRepo) List(ctx context.Context) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

type DriversRepo struct{ s *Store }

func NewDriversRepo(s *Store) *DriversRepo { return &DriversRepo{s: s} }

func (r *DriversRepo) Create(ctx context.Context, driver model.Driver) (model.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.drivers {
		if d.ID == driver.ID || sameNonEmpty(d.Email, driver.Email) || sameNonEmpty(d.MobileNumber, driver.MobileNumber) {
			return model.Driver{}, myerrors.ErrConflict
		}
	}
	if driver.Status == "" {
		driver.Status = model.DriverActive
	}
	r.s.drivers[driver.ID] = copyDriver(driver)
	return copyDriver(driver), nil
}

func (r *DriversRepo) FindById(ctx context.Context, driverId string) (model.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[driverId]
	if !ok {
		return model.Driver{}, myerrors.ErrNotFound
	}
	return copyDriver(d), nil
}

func (r *DriversRepo) FindByEmail(ctx context.Context, email string) (model.Driver, error) {
	return r.findBy(func(d model.Driver) bool { return sameNonEmpty(d.Email, email) })
}

func (r *DriversRepo) FindByMobile(ctx context.Context, mobile string) (model.Driver, error) {
	return r.findBy(func(d model.Driver) bool { return sameNonEmpty(d.MobileNumber, mobile) })
}

func (r *DriversRepo) findBy(match func(model.Driver) bool) (model.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, d := range r.s.drivers {
		if match(d) {
			return copyDriver(d), nil
		}
	}
	return model.Driver{}, myerrors.ErrNotFound
}

func (r *DriversRepo) Find(ctx context.Context, filter model.DriverFilter) ([]model.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := []model.Driver{}
	for _, d := range r.s.drivers {
		if filter.Available != nil && d.IsAvailable != *filter.Available {
			continue
		}
		if filter.OwnerId != "" && (d.OwnerId == nil || *d.OwnerId != filter.OwnerId) {
			continue
		}
		res = append(res, copyDriver(d))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (r *DriversRepo) Update(ctx context.Context, driver model.Driver) (model.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.drivers[driver.ID]
	if !ok {
		return model.Driver{}, myerrors.ErrNotFound
	}
	// car linkage only changes through the cars repo
	driver.CarId = cur.CarId
	r.s.drivers[driver.ID] = copyDriver(driver)
	return copyDriver(driver), nil
}

func (r *DriversRepo) UpdateLocation(ctx context.Context, driverId string, loc model.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[driverId]
	if !ok {
		return myerrors.ErrNotFound
	}
	d.CurrentLocation = &loc
	d.UpdatedAt = r.s.now().UTC()
	r.s.drivers[driverId] = copyDriver(d)
	return nil
}

func (r *DriversRepo) Delete(ctx context.Context, driverId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.drivers[driverId]; !ok {
		return myerrors.ErrNotFound
	}
	r.s.deleteDriverLocked(driverId)
	return nil
}

func (s *Store) deleteDriverLocked(driverId string) {
	d := s.drivers[driverId]
	if d.CarId != nil {
		if car, ok := s.cars[*d.CarId]; ok {
			car.Status = model.CarAvailable
			s.cars[car.ID] = car
		}
	}
	delete(s.drivers, driverId)
}

type OwnersRepo struct{ s *Store }

func NewOwnersRepo(s *Store) *OwnersRepo { return &OwnersRepo{s: s} }

func (r *OwnersRepo) Create(ctx context.Context, owner model.Owner) (model.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.owners {
		if o.ID == owner.ID || sameNonEmpty(o.Email, owner.Email) {
			return model.Owner{}, myerrors.ErrConflict
		}
	}
	r.s.owners[owner.ID] = owner
	return owner, nil
}

func (r *OwnersRepo) FindById(ctx context.Context, ownerId string) (model.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.owners[ownerId]
	if !ok {
		return model.Owner{}, myerrors.ErrNotFound
	}
	return o, nil
}

func (r *OwnersRepo) FindByEmail(ctx context.Context, email string) (model.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.owners {
		if sameNonEmpty(o.Email, email) {
			return o, nil
		}
	}
	return model.Owner{}, myerrors.ErrNotFound
}

func (r *OwnersRepo) List(ctx context.Context) ([]model.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := make([]model.Owner, 0, len(r.s.owners))
	for _, o := range r.s.owners {
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (r *OwnersRepo) Delete(ctx context.Context, ownerId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.owners[ownerId]; !ok {
		return myerrors.ErrNotFound
	}
	for id, d := range r.s.drivers {
		if d.OwnerId != nil && *d.OwnerId == ownerId {
			r.s.deleteDriverLocked(id)
		}
	}
	for id, c := range r.s.cars {
		if c.OwnerId == ownerId {
			delete(r.s.cars, id)
		}
	}
	delete(r.s.owners, ownerId)
	return nil
}

type CarsRepo struct{ s *Store }

func NewCarsRepo(s *Store) *CarsRepo { return &CarsRepo{s: s} }

func (r *CarsRepo) Create(ctx context.Context, car model.Car) (model.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.cars {
		if c.ID == car.ID || sameNonEmpty(c.Number, car.Number) {
			return model.Car{}, myerrors.ErrConflict
		}
	}
	r.s.cars[car.ID] = car
	return car, nil
}

func (r *CarsRepo) FindById(ctx context.Context, carId string) (model.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.cars[carId]
	if !ok {
		return model.Car{}, myerrors.ErrNotFound
	}
	return c, nil
}

func (r *CarsRepo) FindByOwner(ctx context.Context, ownerId string) ([]model.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := []model.Car{}
	for _, c := range r.s.cars {
		if c.OwnerId == ownerId {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func (r *CarsRepo) Update(ctx context.Context, car model.Car) (model.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.cars[car.ID]
	if !ok {
		return model.Car{}, myerrors.ErrNotFound
	}
	for _, c := range r.s.cars {
		if c.ID != car.ID && sameNonEmpty(c.Number, car.Number) {
			return model.Car{}, myerrors.ErrConflict
		}
	}
	car.Status = cur.Status
	r.s.cars[car.ID] = car
	return car, nil
}

func (r *CarsRepo) Delete(ctx context.Context, carId string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cars[carId]; !ok {
		return myerrors.ErrNotFound
	}
	delete(r.s.cars, carId)
	return nil
}

func (r *CarsRepo) Assign(ctx context.Context, carId, driverId string) (model.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	car, ok := r.s.cars[carId]
	if !ok {
		return model.Driver{}, myerrors.ErrNotFound
	}
	d, ok := r.s.drivers[driverId]
	if !ok {
		return model.Driver{}, myerrors.ErrNotFound
	}
	if car.Status == model.CarEngaged {
		return model.Driver{}, myerrors.ErrConflict
	}
	now := r.s.now().UTC()
	if d.CarId != nil {
		if prev, ok := r.s.cars[*d.CarId]; ok {
			prev.Status = model.CarAvailable
			prev.UpdatedAt = now
			r.s.cars[prev.ID] = prev
		}
	}
	car.Status = model.CarEngaged
	car.UpdatedAt = now
	r.s.cars[carId] = car
	d.CarId = ptr(carId)
	d.UpdatedAt = now
	r.s.drivers[driverId] = copyDriver(d)
	return copyDriver(d), nil
}

func (r *CarsRepo) Release(ctx context.Context, driverId string) (model.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.drivers[driverId]
	if !ok {
		return model.Driver{}, myerrors.ErrNotFound
	}
	if d.CarId == nil {
		return copyDriver(d), nil
	}
	now := r.s.now().UTC()
	if car, ok := r.s.cars[*d.CarId]; ok {
		car.Status = model.CarAvailable
		car.UpdatedAt = now
		r.s.cars[car.ID] = car
	}
	d.CarId = nil
	d.UpdatedAt = now
	r.s.drivers[driverId] = copyDriver(d)
	return copyDriver(d), nil
}

type AdminsRepo struct{ s *Store }

func NewAdminsRepo(s *Store) *AdminsRepo { return &AdminsRepo{s: s} }

func (r *AdminsRepo) Create(ctx context.Context, admin model.Admin) (model.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.admins {
		if a.ID == admin.ID || sameNonEmpty(a.Email, admin.Email) {
			return model.Admin{}, myerrors.ErrConflict
		}
	}
	r.s.admins[admin.ID] = admin
	return admin, nil
}

func (r *AdminsRepo) FindById(ctx context.Context, adminId string) (model.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.admins[adminId]
	if !ok {
		return model.Admin{}, myerrors.ErrNotFound
	}
	return a, nil
}

func (r *AdminsRepo) FindByEmail(ctx context.Context, email string) (model.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.admins {
		if sameNonEmpty(a.Email, email) {
			return a, nil
		}
	}
	return model.Admin{}, myerrors.ErrNotFound
}

func (r *AdminsRepo) List(ctx context.Context) ([]model.Admin, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	res := make([]model.Admin, 0, len(r.s.admins))
	for _, a := range r.s.admins {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	return res, nil
}

func matchRide(ride model.Rides, filter model.RideFilter) bool {
	if filter.RiderId != "" && ride.RiderId != filter.RiderId {
		return false
	}
	if len(filter.Statuses) > 0 {
		ok := false
		for _, st := range filter.Statuses {
			if ride.Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(filter.DriverIds) > 0 {
		if ride.DriverId == nil {
			return false
		}
		ok := false
		for _, id := range filter.DriverIds {
			if *ride.DriverId == id {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func copyRide(r model.Rides) model.Rides {
	if r.Quotes != nil {
		r.Quotes = append([]model.Quote(nil), r.Quotes...)
	}
	if r.DriverId != nil {
		r.DriverId = ptr(*r.DriverId)
	}
	if r.Fare != nil {
		r.Fare = ptr(*r.Fare)
	}
	if r.Otp != nil {
		r.Otp = ptr(*r.Otp)
	}
	if r.CancelDetails != nil {
		d := *r.CancelDetails
		r.CancelDetails = &d
	}
	return r
}

func copyDriver(d model.Driver) model.Driver {
	if d.OwnerId != nil {
		d.OwnerId = ptr(*d.OwnerId)
	}
	if d.CarId != nil {
		d.CarId = ptr(*d.CarId)
	}
	if d.CurrentLocation != nil {
		loc := *d.CurrentLocation
		d.CurrentLocation = &loc
	}
	return d
}

func sameNonEmpty(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

func ptr[T any](v T) *T {
	return &v
}
