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

type PassengerService struct {
	mylog     mylogger.Logger
	usersRepo ports.IUsersRepo
}

func NewPassengerService(log mylogger.Logger, usersRepo ports.IUsersRepo) *PassengerService {
	return &PassengerService{
		mylog:     log,
		usersRepo: usersRepo,
	}
}

func (ps *PassengerService) Profile(ctx context.Context, caller model.Caller) (model.User, error) {
	if caller.Role != model.RoleRider {
		return model.User{}, myerrors.New(myerrors.ErrForbidden, "only riders have a rider profile")
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	user, err := ps.usersRepo.FindById(ctx, caller.ID)
	if err != nil {
		return model.User{}, notFound(err, "rider not found")
	}
	return user, nil
}

func (ps *PassengerService) UpdateProfile(ctx context.Context, caller model.Caller, req dto.UpdateUserRequestDto) (model.User, error) {
	log := ps.mylog.Action("UpdateRiderProfile").With("rider_id", caller.ID)

	user, err := ps.Profile(ctx, caller)
	if err != nil {
		return model.User{}, err
	}
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return model.User{}, err
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Gender != nil {
		user.Gender = strings.TrimSpace(*req.Gender)
	}
	if req.FcmToken != nil {
		user.FcmToken = strings.TrimSpace(*req.FcmToken)
	}
	user.UpdatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	user, err = ps.usersRepo.Update(ctx, user)
	if err != nil {
		log.Error("cannot update rider", err)
		return model.User{}, notFound(err, "rider not found")
	}
	log.Info("rider profile updated")
	return user, nil
}
