package handle

import (
	"errors"
	"net/http"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/ports"
)

type FleetHandler struct {
	fleetService ports.IFleetService
	log          mylogger.Logger
}

func NewFleetHandler(fs ports.IFleetService, log mylogger.Logger) *FleetHandler {
	return &FleetHandler{fleetService: fs, log: log}
}

func (fh *FleetHandler) AddCar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.CarRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := fh.fleetService.AddCar(r.Context(), caller(r), req)
		if err != nil {
			writeServiceError(w, fh.log.Action("AddCar"), err)
			return
		}
		jsonResponse(w, http.StatusCreated, res)
	}
}

func (fh *FleetHandler) ListCars() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fh.fleetService.ListCars(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, fh.log.Action("ListCars"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (fh *FleetHandler) UpdateCar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.CarRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := fh.fleetService.UpdateCar(r.Context(), caller(r), r.PathValue("car_id"), req)
		if err != nil {
			writeServiceError(w, fh.log.Action("UpdateCar"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (fh *FleetHandler) DeleteCar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fh.fleetService.DeleteCar(r.Context(), caller(r), r.PathValue("car_id")); err != nil {
			writeServiceError(w, fh.log.Action("DeleteCar"), err)
			return
		}
		jsonResponse(w, http.StatusNoContent, nil)
	}
}

func (fh *FleetHandler) ListDrivers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fh.fleetService.ListDrivers(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, fh.log.Action("ListFleetDrivers"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

// ListRides serves both the full history and the ongoing-only view.
func (fh *FleetHandler) ListRides(ongoingOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fh.fleetService.ListRides(r.Context(), caller(r), ongoingOnly)
		if err != nil {
			writeServiceError(w, fh.log.Action("ListFleetRides"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (fh *FleetHandler) BlockDriver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.BlockDriverRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}
		if req.Blocked == nil {
			JsonError(w, http.StatusBadRequest, errors.New("blocked is required"))
			return
		}

		res, err := fh.fleetService.BlockDriver(r.Context(), caller(r), r.PathValue("driver_id"), *req.Blocked)
		if err != nil {
			writeServiceError(w, fh.log.Action("OwnerBlockDriver"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (fh *FleetHandler) DeleteDriver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fh.fleetService.DeleteDriver(r.Context(), caller(r), r.PathValue("driver_id")); err != nil {
			writeServiceError(w, fh.log.Action("OwnerDeleteDriver"), err)
			return
		}
		jsonResponse(w, http.StatusNoContent, nil)
	}
}

func (fh *FleetHandler) AssignCar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.AssignCarRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := fh.fleetService.AssignCar(r.Context(), caller(r), r.PathValue("driver_id"), req.CarId)
		if err != nil {
			writeServiceError(w, fh.log.Action("AssignCar"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (fh *FleetHandler) ReleaseCar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fh.fleetService.ReleaseCar(r.Context(), caller(r), r.PathValue("driver_id"))
		if err != nil {
			writeServiceError(w, fh.log.Action("ReleaseCar"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (fh *FleetHandler) DeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fh.fleetService.DeleteAccount(r.Context(), caller(r)); err != nil {
			writeServiceError(w, fh.log.Action("DeleteOwnerAccount"), err)
			return
		}
		jsonResponse(w, http.StatusNoContent, nil)
	}
}
