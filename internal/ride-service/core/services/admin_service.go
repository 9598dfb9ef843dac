package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"

	"github.com/google/uuid"
)

type AdminRepos struct {
	Rides   ports.IRidesRepo
	Users   ports.IUsersRepo
	Drivers ports.IDriversRepo
	Owners  ports.IOwnersRepo
	Cars    ports.ICarsRepo
	Admins  ports.IAdminsRepo
}

type AdminService struct {
	mylog mylogger.Logger
	repos AdminRepos
}

func NewAdminService(log mylogger.Logger, repos AdminRepos) *AdminService {
	return &AdminService{
		mylog: log,
		repos: repos,
	}
}

func (as *AdminService) ListRides(ctx context.Context, caller model.Caller, status string) ([]model.Rides, error) {
	if err := require(caller, model.CapAdminister); err != nil {
		return nil, err
	}
	filter := model.RideFilter{}
	if status != "" {
		s := model.RideStatus(strings.ToLower(status))
		if !s.IsValid() {
			return nil, myerrors.New(myerrors.ErrValidation, "unknown status %q", status)
		}
		filter.Statuses = []model.RideStatus{s}
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rides, err := as.repos.Rides.Find(ctx, filter)
	if err != nil {
		return nil, upstream(err)
	}
	return rides, nil
}

func (as *AdminService) ListDrivers(ctx context.Context, caller model.Caller) ([]model.Driver, error) {
	if err := require(caller, model.CapAdminister); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	drivers, err := as.repos.Drivers.Find(ctx, model.DriverFilter{})
	if err != nil {
		return nil, upstream(err)
	}
	return drivers, nil
}

func (as *AdminService) ListUsers(ctx context.Context, caller model.Caller) ([]model.User, error) {
	if err := require(caller, model.CapAppointAdmins); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	users, err := as.repos.Users.List(ctx)
	if err != nil {
		return nil, upstream(err)
	}
	return users, nil
}

func (as *AdminService) Overview(ctx context.Context, caller model.Caller) (dto.SystemOverview, error) {
	log := as.mylog.Action("Overview")

	if err := require(caller, model.CapAdminister); err != nil {
		return dto.SystemOverview{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	owners, err := as.repos.Owners.List(ctx)
	if err != nil {
		log.Error("cannot list owners", err)
		return dto.SystemOverview{}, upstream(err)
	}
	drivers, err := as.repos.Drivers.Find(ctx, model.DriverFilter{})
	if err != nil {
		log.Error("cannot list drivers", err)
		return dto.SystemOverview{}, upstream(err)
	}
	users, err := as.repos.Users.List(ctx)
	if err != nil {
		log.Error("cannot list users", err)
		return dto.SystemOverview{}, upstream(err)
	}
	counts, err := as.repos.Rides.CountByStatus(ctx)
	if err != nil {
		log.Error("cannot count rides", err)
		return dto.SystemOverview{}, upstream(err)
	}

	res := dto.SystemOverview{
		Owners:  len(owners),
		Drivers: len(drivers),
		Users:   len(users),
		Rides: dto.RidesSummary{
			Pending:   counts[model.RidePending],
			Accepted:  counts[model.RideAccepted],
			Started:   counts[model.RideStarted],
			Completed: counts[model.RideCompleted],
			Cancelled: counts[model.RideCancelled],
		},
	}
	for _, n := range counts {
		res.Rides.Total += n
	}
	for _, d := range drivers {
		if d.Status == model.DriverBlocked {
			res.BlockedCount++
		} else if d.IsAvailable {
			res.AvailableCount++
		}
	}
	return res, nil
}

func (as *AdminService) UserDetail(ctx context.Context, caller model.Caller, userId string) (dto.UserDetailDto, error) {
	if err := require(caller, model.CapAppointAdmins); err != nil {
		return dto.UserDetailDto{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	user, err := as.repos.Users.FindById(ctx, userId)
	if err != nil {
		return dto.UserDetailDto{}, notFound(err, "user not found")
	}
	rides, err := as.repos.Rides.Find(ctx, model.RideFilter{RiderId: userId})
	if err != nil {
		return dto.UserDetailDto{}, upstream(err)
	}
	return dto.UserDetailDto{User: user, Rides: rides}, nil
}

func (as *AdminService) DriverDetail(ctx context.Context, caller model.Caller, driverId string) (dto.DriverDetailDto, error) {
	if err := require(caller, model.CapAppointAdmins); err != nil {
		return dto.DriverDetailDto{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	driver, err := as.repos.Drivers.FindById(ctx, driverId)
	if err != nil {
		return dto.DriverDetailDto{}, notFound(err, "driver not found")
	}
	res := dto.DriverDetailDto{Driver: driver}
	if driver.CarId != nil {
		if car, err := as.repos.Cars.FindById(ctx, *driver.CarId); err == nil {
			res.Car = &car
		}
	}
	res.Rides, err = as.repos.Rides.Find(ctx, model.RideFilter{DriverIds: []string{driverId}})
	if err != nil {
		return dto.DriverDetailDto{}, upstream(err)
	}
	return res, nil
}

func (as *AdminService) RideDetail(ctx context.Context, caller model.Caller, rideId string) (model.Rides, error) {
	if err := require(caller, model.CapAppointAdmins); err != nil {
		return model.Rides{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := as.repos.Rides.FindById(ctx, rideId)
	if err != nil {
		return model.Rides{}, notFound(err, "ride not found")
	}
	return ride, nil
}

func (as *AdminService) BlockDriver(ctx context.Context, caller model.Caller, driverId string, blocked bool) (model.Driver, error) {
	log := as.mylog.Action("AdminBlockDriver").With("admin_id", caller.ID, "driver_id", driverId, "blocked", blocked)

	if err := require(caller, model.CapModerateDrivers); err != nil {
		return model.Driver{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	driver, err := as.repos.Drivers.FindById(ctx, driverId)
	if err != nil {
		return model.Driver{}, notFound(err, "driver not found")
	}
	driver, err = setBlocked(ctx, as.repos.Drivers, driver, blocked)
	if err != nil {
		log.Error("cannot update driver", err)
		return model.Driver{}, notFound(err, "driver not found")
	}
	log.Info("driver block status changed")
	return driver, nil
}

func (as *AdminService) VerifyDriver(ctx context.Context, caller model.Caller, driverId string, verified bool) (model.Driver, error) {
	log := as.mylog.Action("VerifyDriver").With("admin_id", caller.ID, "driver_id", driverId, "verified", verified)

	if err := require(caller, model.CapModerateDrivers); err != nil {
		return model.Driver{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	driver, err := as.repos.Drivers.FindById(ctx, driverId)
	if err != nil {
		return model.Driver{}, notFound(err, "driver not found")
	}
	driver.IsVerified = verified
	driver.UpdatedAt = time.Now().UTC()
	driver, err = as.repos.Drivers.Update(ctx, driver)
	if err != nil {
		log.Error("cannot update driver", err)
		return model.Driver{}, notFound(err, "driver not found")
	}
	log.Info("driver verification changed")
	return driver, nil
}

func (as *AdminService) DeleteDriver(ctx context.Context, caller model.Caller, driverId string) error {
	log := as.mylog.Action("AdminDeleteDriver").With("admin_id", caller.ID, "driver_id", driverId)

	if err := require(caller, model.CapModerateDrivers); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := as.repos.Drivers.Delete(ctx, driverId); err != nil {
		return notFound(err, "driver not found")
	}
	log.Info("driver deleted")
	return nil
}

func (as *AdminService) AppointOperationalAdmin(ctx context.Context, caller model.Caller, req dto.AppointAdminRequestDto) (model.Admin, error) {
	log := as.mylog.Action("AppointOperationalAdmin").With("admin_id", caller.ID)

	if err := require(caller, model.CapAppointAdmins); err != nil {
		return model.Admin{}, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateName(req.Name); err != nil {
		return model.Admin{}, err
	}
	if err := validateEmail(req.Email); err != nil {
		return model.Admin{}, err
	}
	if err := validatePassword(req.Password); err != nil {
		return model.Admin{}, err
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		return model.Admin{}, upstream(err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	admin, err := as.repos.Admins.Create(ctx, model.Admin{
		ID:           uuid.NewString(),
		Kind:         model.AdminOperational,
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, myerrors.ErrConflict) {
			return model.Admin{}, myerrors.New(myerrors.ErrConflict, "email already registered")
		}
		log.Error("cannot create admin", err)
		return model.Admin{}, upstream(err)
	}
	log.Info("operational admin appointed", "new_admin_id", admin.ID)
	return admin, nil
}

func require(caller model.Caller, want model.Capability) error {
	if !caller.Can(want) {
		return myerrors.New(myerrors.ErrForbidden, "insufficient permissions")
	}
	return nil
}
