package handle

import (
	"errors"
	"net/http"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/ports"
)

type AdminHandler struct {
	adminService ports.IAdminService
	log          mylogger.Logger
}

func NewAdminHandler(as ports.IAdminService, log mylogger.Logger) *AdminHandler {
	return &AdminHandler{adminService: as, log: log}
}

// ListRides accepts an optional ?status= filter.
func (ah *AdminHandler) ListRides() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ah.adminService.ListRides(r.Context(), caller(r), r.URL.Query().Get("status"))
		if err != nil {
			writeServiceError(w, ah.log.Action("AdminListRides"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) ListDrivers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ah.adminService.ListDrivers(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, ah.log.Action("AdminListDrivers"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ah.adminService.ListUsers(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, ah.log.Action("AdminListUsers"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) Overview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ah.adminService.Overview(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, ah.log.Action("Overview"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) UserDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ah.adminService.UserDetail(r.Context(), caller(r), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, ah.log.Action("UserDetail"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) DriverDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ah.adminService.DriverDetail(r.Context(), caller(r), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, ah.log.Action("DriverDetail"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) RideDetail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := ah.adminService.RideDetail(r.Context(), caller(r), r.PathValue("id"))
		if err != nil {
			writeServiceError(w, ah.log.Action("RideDetail"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) BlockDriver() http.HandlerFunc {
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

		res, err := ah.adminService.BlockDriver(r.Context(), caller(r), r.PathValue("id"), *req.Blocked)
		if err != nil {
			writeServiceError(w, ah.log.Action("AdminBlockDriver"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) VerifyDriver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.VerifyDriverRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}
		if req.Verified == nil {
			JsonError(w, http.StatusBadRequest, errors.New("verified is required"))
			return
		}

		res, err := ah.adminService.VerifyDriver(r.Context(), caller(r), r.PathValue("id"), *req.Verified)
		if err != nil {
			writeServiceError(w, ah.log.Action("VerifyDriver"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AdminHandler) DeleteDriver() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ah.adminService.DeleteDriver(r.Context(), caller(r), r.PathValue("id")); err != nil {
			writeServiceError(w, ah.log.Action("AdminDeleteDriver"), err)
			return
		}
		jsonResponse(w, http.StatusNoContent, nil)
	}
}

func (ah *AdminHandler) AppointAdmin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.AppointAdminRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ah.adminService.AppointOperationalAdmin(r.Context(), caller(r), req)
		if err != nil {
			writeServiceError(w, ah.log.Action("AppointAdmin"), err)
			return
		}
		jsonResponse(w, http.StatusCreated, res)
	}
}
