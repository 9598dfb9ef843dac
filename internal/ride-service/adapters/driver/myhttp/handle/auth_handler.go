package handle

import (
	"net/http"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/ports"
)

type AuthHandler struct {
	authService ports.IAuthService
	mylog       mylogger.Logger
}

func NewAuthHandler(authService ports.IAuthService, mylog mylogger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		mylog:       mylog,
	}
}

func (ah *AuthHandler) Register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mylog := ah.mylog.Action("Register")

		var req dto.RegisterRequestDto
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ah.authService.Register(r.Context(), req)
		if err != nil {
			writeServiceError(w, mylog, err)
			return
		}
		mylog.Info("Successfully registered!", "user_id", res.UserId, "role", res.Role)
		jsonResponse(w, http.StatusCreated, res)
	}
}

func (ah *AuthHandler) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mylog := ah.mylog.Action("Login")

		var req dto.LoginRequestDto
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ah.authService.Login(r.Context(), req)
		if err != nil {
			writeServiceError(w, mylog, err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AuthHandler) SendOtp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mylog := ah.mylog.Action("SendOtp")

		var req dto.SendOtpRequestDto
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ah.authService.SendLoginOtp(r.Context(), req)
		if err != nil {
			writeServiceError(w, mylog, err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (ah *AuthHandler) VerifyOtp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mylog := ah.mylog.Action("VerifyLoginOtp")

		var req dto.VerifyLoginOtpRequestDto
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := ah.authService.VerifyLoginOtp(r.Context(), req)
		if err != nil {
			writeServiceError(w, mylog, err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}
