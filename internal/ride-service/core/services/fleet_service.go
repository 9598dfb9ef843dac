package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"

	"github.com/google/uuid"
)

// FleetService is the owner's view over its cars and drivers.
type FleetService struct {
	mylog       mylogger.Logger
	ownersRepo  ports.IOwnersRepo
	carsRepo    ports.ICarsRepo
	driversRepo ports.IDriversRepo
	ridesRepo   ports.IRidesRepo
}

func NewFleetService(
	log mylogger.Logger,
	ownersRepo ports.IOwnersRepo,
	carsRepo ports.ICarsRepo,
	driversRepo ports.IDriversRepo,
	ridesRepo ports.IRidesRepo,
) *FleetService {
	return &FleetService{
		mylog:       log,
		ownersRepo:  ownersRepo,
		carsRepo:    carsRepo,
		driversRepo: driversRepo,
		ridesRepo:   ridesRepo,
	}
}

func (fs *FleetService) AddCar(ctx context.Context, caller model.Caller, req dto.CarRequestDto) (model.Car, error) {
	log := fs.mylog.Action("AddCar").With("owner_id", caller.ID)

	if err := fs.owner(ctx, caller); err != nil {
		return model.Car{}, err
	}
	if err := validateCar(req); err != nil {
		return model.Car{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	car, err := fs.carsRepo.Create(ctx, model.Car{
		ID:          uuid.NewString(),
		OwnerId:     caller.ID,
		Type:        model.CarType(strings.ToLower(req.Type)),
		Brand:       strings.TrimSpace(req.Brand),
		Model:       strings.TrimSpace(req.Model),
		Seats:       req.Seats,
		Number:      strings.ToUpper(strings.TrimSpace(req.Number)),
		Description: req.Description,
		Year:        req.Year,
		Status:      model.CarAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		if errors.Is(err, myerrors.ErrConflict) {
			return model.Car{}, myerrors.New(myerrors.ErrConflict, "car number already registered")
		}
		log.Error("cannot add car", err)
		return model.Car{}, upstream(err)
	}
	log.Info("car added", "car_id", car.ID)
	return car, nil
}

func (fs *FleetService) ListCars(ctx context.Context, caller model.Caller) ([]model.Car, error) {
	if err := fs.owner(ctx, caller); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cars, err := fs.carsRepo.FindByOwner(ctx, caller.ID)
	if err != nil {
		return nil, upstream(err)
	}
	return cars, nil
}

func (fs *FleetService) UpdateCar(ctx context.Context, caller model.Caller, carId string, req dto.CarRequestDto) (model.Car, error) {
	log := fs.mylog.Action("UpdateCar").With("owner_id", caller.ID, "car_id", carId)

	car, err := fs.ownedCar(ctx, caller, carId)
	if err != nil {
		return model.Car{}, err
	}
	if err := validateCar(req); err != nil {
		return model.Car{}, err
	}
	car.Type = model.CarType(strings.ToLower(req.Type))
	car.Brand = strings.TrimSpace(req.Brand)
	car.Model = strings.TrimSpace(req.Model)
	car.Seats = req.Seats
	car.Number = strings.ToUpper(strings.TrimSpace(req.Number))
	car.Description = req.Description
	car.Year = req.Year
	car.UpdatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	car, err = fs.carsRepo.Update(ctx, car)
	if err != nil {
		if errors.Is(err, myerrors.ErrConflict) {
			return model.Car{}, myerrors.New(myerrors.ErrConflict, "car number already registered")
		}
		log.Error("cannot update car", err)
		return model.Car{}, notFound(err, "car not found")
	}
	log.Info("car updated")
	return car, nil
}

func (fs *FleetService) DeleteCar(ctx context.Context, caller model.Caller, carId string) error {
	log := fs.mylog.Action("DeleteCar").With("owner_id", caller.ID, "car_id", carId)

	car, err := fs.ownedCar(ctx, caller, carId)
	if err != nil {
		return err
	}
	if car.Status == model.CarEngaged {
		return myerrors.New(myerrors.ErrConflict, "car is assigned to a driver")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := fs.carsRepo.Delete(ctx, carId); err != nil {
		log.Error("cannot delete car", err)
		return notFound(err, "car not found")
	}
	log.Info("car deleted")
	return nil
}

func (fs *FleetService) ListDrivers(ctx context.Context, caller model.Caller) ([]model.Driver, error) {
	if err := fs.owner(ctx, caller); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	drivers, err := fs.driversRepo.Find(ctx, model.DriverFilter{OwnerId: caller.ID})
	if err != nil {
		return nil, upstream(err)
	}
	return drivers, nil
}

// ListRides returns rides driven by the owner's drivers, optionally only the
// ones in progress.
func (fs *FleetService) ListRides(ctx context.Context, caller model.Caller, ongoingOnly bool) ([]model.Rides, error) {
	drivers, err := fs.ListDrivers(ctx, caller)
	if err != nil {
		return nil, err
	}
	if len(drivers) == 0 {
		return []model.Rides{}, nil
	}
	filter := model.RideFilter{DriverIds: make([]string, 0, len(drivers))}
	for _, d := range drivers {
		filter.DriverIds = append(filter.DriverIds, d.ID)
	}
	if ongoingOnly {
		filter.Statuses = inProgressStatuses
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rides, err := fs.ridesRepo.Find(ctx, filter)
	if err != nil {
		return nil, upstream(err)
	}
	return rides, nil
}

func (fs *FleetService) BlockDriver(ctx context.Context, caller model.Caller, driverId string, blocked bool) (model.Driver, error) {
	log := fs.mylog.Action("OwnerBlockDriver").With("owner_id", caller.ID, "driver_id", driverId, "blocked", blocked)

	driver, err := fs.ownedDriver(ctx, caller, driverId)
	if err != nil {
		return model.Driver{}, err
	}
	driver, err = setBlocked(ctx, fs.driversRepo, driver, blocked)
	if err != nil {
		log.Error("cannot update driver", err)
		return model.Driver{}, notFound(err, "driver not found")
	}
	log.Info("driver block status changed")
	return driver, nil
}

func (fs *FleetService) DeleteDriver(ctx context.Context, caller model.Caller, driverId string) error {
	log := fs.mylog.Action("OwnerDeleteDriver").With("owner_id", caller.ID, "driver_id", driverId)

	if _, err := fs.ownedDriver(ctx, caller, driverId); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := fs.driversRepo.Delete(ctx, driverId); err != nil {
		log.Error("cannot delete driver", err)
		return notFound(err, "driver not found")
	}
	log.Info("driver deleted")
	return nil
}

// AssignCar engages one of the owner's cars for one of its drivers. A driver
// already holding a car swaps it in the same write and keeps it when the new
// car is engaged elsewhere.
func (fs *FleetService) AssignCar(ctx context.Context, caller model.Caller, driverId, carId string) (model.Driver, error) {
	log := fs.mylog.Action("AssignCar").With("owner_id", caller.ID, "driver_id", driverId, "car_id", carId)

	driver, err := fs.ownedDriver(ctx, caller, driverId)
	if err != nil {
		return model.Driver{}, err
	}
	if _, err := fs.ownedCar(ctx, caller, carId); err != nil {
		return model.Driver{}, err
	}
	if driver.CarId != nil && *driver.CarId == carId {
		return driver, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	driver, err = fs.carsRepo.Assign(ctx, carId, driverId)
	if err != nil {
		if errors.Is(err, myerrors.ErrConflict) {
			return model.Driver{}, myerrors.New(myerrors.ErrConflict, "car is already engaged")
		}
		log.Error("cannot assign car", err)
		return model.Driver{}, notFound(err, "car not found")
	}
	log.Info("car assigned")
	return driver, nil
}

func (fs *FleetService) ReleaseCar(ctx context.Context, caller model.Caller, driverId string) (model.Driver, error) {
	log := fs.mylog.Action("ReleaseCar").With("owner_id", caller.ID, "driver_id", driverId)

	driver, err := fs.ownedDriver(ctx, caller, driverId)
	if err != nil {
		return model.Driver{}, err
	}
	if driver.CarId == nil {
		return driver, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	driver, err = fs.carsRepo.Release(ctx, driverId)
	if err != nil {
		log.Error("cannot release car", err)
		return model.Driver{}, notFound(err, "driver not found")
	}
	log.Info("car released")
	return driver, nil
}

func (fs *FleetService) DeleteAccount(ctx context.Context, caller model.Caller) error {
	log := fs.mylog.Action("DeleteOwnerAccount").With("owner_id", caller.ID)

	if err := fs.owner(ctx, caller); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := fs.ownersRepo.Delete(ctx, caller.ID); err != nil {
		log.Error("cannot delete owner", err)
		return notFound(err, "owner not found")
	}
	log.Info("owner account deleted with its drivers and cars")
	return nil
}

func (fs *FleetService) owner(ctx context.Context, caller model.Caller) error {
	if !caller.Can(model.CapManageFleet) {
		return myerrors.New(myerrors.ErrForbidden, "only owners can manage a fleet")
	}
	if _, err := fs.ownersRepo.FindById(ctx, caller.ID); err != nil {
		return notFound(err, "owner not found")
	}
	return nil
}

func (fs *FleetService) ownedCar(ctx context.Context, caller model.Caller, carId string) (model.Car, error) {
	if err := fs.owner(ctx, caller); err != nil {
		return model.Car{}, err
	}
	car, err := fs.carsRepo.FindById(ctx, carId)
	if err != nil {
		return model.Car{}, notFound(err, "car not found")
	}
	if car.OwnerId != caller.ID {
		return model.Car{}, myerrors.New(myerrors.ErrForbidden, "car belongs to another owner")
	}
	return car, nil
}

func (fs *FleetService) ownedDriver(ctx context.Context, caller model.Caller, driverId string) (model.Driver, error) {
	if err := fs.owner(ctx, caller); err != nil {
		return model.Driver{}, err
	}
	driver, err := fs.driversRepo.FindById(ctx, driverId)
	if err != nil {
		return model.Driver{}, notFound(err, "driver not found")
	}
	if driver.OwnerId == nil || *driver.OwnerId != caller.ID {
		return model.Driver{}, myerrors.New(myerrors.ErrForbidden, "driver belongs to another owner")
	}
	return driver, nil
}

func validateCar(req dto.CarRequestDto) error {
	if !model.CarType(strings.ToLower(req.Type)).IsValid() {
		return myerrors.New(myerrors.ErrValidation, "type must be one of sedan, hatchback, suv")
	}
	if strings.TrimSpace(req.Brand) == "" || strings.TrimSpace(req.Model) == "" {
		return myerrors.New(myerrors.ErrValidation, "brand and model are required")
	}
	if req.Seats < 1 || req.Seats > 12 {
		return myerrors.New(myerrors.ErrValidation, "seats must be in range [1, 12]")
	}
	if strings.TrimSpace(req.Number) == "" {
		return myerrors.New(myerrors.ErrValidation, "number is required")
	}
	if req.Year != "" {
		y, err := strconv.Atoi(req.Year)
		if err != nil || y < 1950 || y > time.Now().Year()+1 {
			return myerrors.New(myerrors.ErrValidation, "invalid year")
		}
	}
	if len(req.Description) > MaxDescriptionLen {
		return myerrors.New(myerrors.ErrValidation, "desc: maximum %d characters allowed", MaxDescriptionLen)
	}
	return nil
}

// setBlocked blocks or unblocks a driver. Blocking also takes the driver
// off the available pool.
func setBlocked(ctx context.Context, repo ports.IDriversRepo, driver model.Driver, blocked bool) (model.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if blocked {
		driver.Status = model.DriverBlocked
		driver.IsAvailable = false
	} else {
		driver.Status = model.DriverActive
	}
	driver.UpdatedAt = time.Now().UTC()
	return repo.Update(ctx, driver)
}
