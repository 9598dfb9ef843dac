package services

import (
	"context"
	"strings"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"
)

type DriverService struct {
	mylog       mylogger.Logger
	driversRepo ports.IDriversRepo
}

func NewDriverService(log mylogger.Logger, driversRepo ports.IDriversRepo) *DriverService {
	return &DriverService{
		mylog:       log,
		driversRepo: driversRepo,
	}
}

func (ds *DriverService) Profile(ctx context.Context, caller model.Caller) (model.Driver, error) {
	if caller.Role != model.RoleDriver {
		return model.Driver{}, myerrors.New(myerrors.ErrForbidden, "only drivers have a driver profile")
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	driver, err := ds.driversRepo.FindById(ctx, caller.ID)
	if err != nil {
		return model.Driver{}, notFound(err, "driver not found")
	}
	return driver, nil
}

func (ds *DriverService) UpdateProfile(ctx context.Context, caller model.Caller, req dto.UpdateDriverRequestDto) (model.Driver, error) {
	log := ds.mylog.Action("UpdateDriverProfile").With("driver_id", caller.ID)

	driver, err := ds.Profile(ctx, caller)
	if err != nil {
		return model.Driver{}, err
	}
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return model.Driver{}, err
		}
		driver.Name = strings.TrimSpace(*req.Name)
	}
	if req.LicenseNumber != nil {
		driver.LicenseNumber = strings.TrimSpace(*req.LicenseNumber)
	}
	if req.AadhaarNumber != nil {
		driver.AadhaarNumber = strings.TrimSpace(*req.AadhaarNumber)
	}
	if req.VehicleDetails != nil {
		driver.VehicleDetails = *req.VehicleDetails
	}
	if req.IsAvailable != nil {
		driver.IsAvailable = *req.IsAvailable
	}
	if req.FcmToken != nil {
		driver.FcmToken = strings.TrimSpace(*req.FcmToken)
	}
	return ds.save(ctx, log, driver)
}

func (ds *DriverService) SetAvailability(ctx context.Context, caller model.Caller, available bool) (model.Driver, error) {
	log := ds.mylog.Action("SetAvailability").With("driver_id", caller.ID, "available", available)

	driver, err := ds.Profile(ctx, caller)
	if err != nil {
		return model.Driver{}, err
	}
	if available && driver.Status == model.DriverBlocked {
		return model.Driver{}, myerrors.New(myerrors.ErrForbidden, "driver is blocked")
	}
	driver.IsAvailable = available
	return ds.save(ctx, log, driver)
}

// UpdateLocation stores the driver's position outside of any ride.
func (ds *DriverService) UpdateLocation(ctx context.Context, caller model.Caller, req dto.LocationDto) error {
	if caller.Role != model.RoleDriver {
		return myerrors.New(myerrors.ErrForbidden, "only drivers can share location")
	}
	loc, err := validateLocation("location", req)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	if err := ds.driversRepo.UpdateLocation(ctx, caller.ID, loc); err != nil {
		return notFound(err, "driver not found")
	}
	return nil
}

func (ds *DriverService) save(ctx context.Context, log mylogger.Logger, driver model.Driver) (model.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	driver.UpdatedAt = time.Now().UTC()
	driver, err := ds.driversRepo.Update(ctx, driver)
	if err != nil {
		log.Error("cannot update driver", err)
		return model.Driver{}, notFound(err, "driver not found")
	}
	log.Info("driver updated")
	return driver, nil
}
