package handle

import (
	"errors"
	"net/http"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/ports"
)

type ProfileHandler struct {
	passengerService ports.IPassengerService
	driverService    ports.IDriverService
	log              mylogger.Logger
}

func NewProfileHandler(ps ports.IPassengerService, ds ports.IDriverService, log mylogger.Logger) *ProfileHandler {
	return &ProfileHandler{
		passengerService: ps,
		driverService:    ds,
		log:              log,
	}
}

func (ph *ProfileHandler) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ph.passengerService.Profile(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, ph.log.Action("GetUser"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ph *ProfileHandler) UpdateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.UpdateUserRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ph.passengerService.UpdateProfile(r.Context(), caller(r), req)
		if err != nil {
			writeServiceError(w, ph.log.Action("UpdateUser"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ph *ProfileHandler) GetDriver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ph.driverService.Profile(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, ph.log.Action("GetDriver"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ph *ProfileHandler) UpdateDriver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.UpdateDriverRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ph.driverService.UpdateProfile(r.Context(), caller(r), req)
		if err != nil {
			writeServiceError(w, ph.log.Action("UpdateDriver"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ph *ProfileHandler) SetAvailability() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.AvailabilityRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}
		if req.IsAvailable == nil {
			JsonError(w, http.StatusBadRequest, errors.New("is_available is required"))
			return
		}

		res, err := ph.driverService.SetAvailability(r.Context(), caller(r), *req.IsAvailable)
		if err != nil {
			writeServiceError(w, ph.log.Action("SetAvailability"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ph *ProfileHandler) UpdateDriverLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.LocationDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		if err := ph.driverService.UpdateLocation(r.Context(), caller(r), req); err != nil {
			writeServiceError(w, ph.log.Action("UpdateDriverLocation"), err)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"message": "location updated"})
	}
}
