package handle

import (
	"net/http"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/ports"
)

type RidesHandler struct {
	ridesService   ports.IRidesService
	paymentService ports.IPaymentService
	log            mylogger.Logger
}

func NewRidesHandler(rs ports.IRidesService, ps ports.IPaymentService, log mylogger.Logger) *RidesHandler {
	return &RidesHandler{
		ridesService:   rs,
		paymentService: ps,
		log:            log,
	}
}

func (rh *RidesHandler) CreateRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.RidesRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ridesService.RequestRide(r.Context(), caller(r), req)
		if err != nil {
			writeServiceError(w, rh.log.Action("CreateRide"), err)
			return
		}
		jsonResponse(w, http.StatusCreated, res)
	}
}

func (rh *RidesHandler) PendingRides() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := rh.ridesService.PendingRides(r.Context(), caller(r))
		if err != nil {
			writeServiceError(w, rh.log.Action("PendingRides"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) GetRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := rh.ridesService.GetRide(r.Context(), caller(r), r.PathValue("ride_id"))
		if err != nil {
			writeServiceError(w, rh.log.Action("GetRide"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) ListQuotes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := rh.ridesService.ListQuotes(r.Context(), caller(r), r.PathValue("ride_id"))
		if err != nil {
			writeServiceError(w, rh.log.Action("ListQuotes"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) SubmitQuote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.QuoteRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ridesService.SubmitQuote(r.Context(), caller(r), r.PathValue("ride_id"), req)
		if err != nil {
			writeServiceError(w, rh.log.Action("SubmitQuote"), err)
			return
		}
		jsonResponse(w, http.StatusCreated, res)
	}
}

func (rh *RidesHandler) BookRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.BookRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ridesService.BookRide(r.Context(), caller(r), r.PathValue("ride_id"), req)
		if err != nil {
			writeServiceError(w, rh.log.Action("BookRide"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) VerifyOtp() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.VerifyOtpRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ridesService.VerifyOtp(r.Context(), caller(r), r.PathValue("ride_id"), string(req.Otp))
		if err != nil {
			writeServiceError(w, rh.log.Action("VerifyOtp"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) CancelRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.RidesCancelRequestDto{}
		if err := decodeJSON(w, r, &req, true); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ridesService.CancelRide(r.Context(), caller(r), r.PathValue("ride_id"), req.Reason)
		if err != nil {
			writeServiceError(w, rh.log.Action("CancelRide"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) CompleteRide() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := rh.ridesService.CompleteRide(r.Context(), caller(r), r.PathValue("ride_id"))
		if err != nil {
			writeServiceError(w, rh.log.Action("CompleteRide"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) UpdateLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.LocationDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.ridesService.UpdateDriverLocation(r.Context(), caller(r), r.PathValue("ride_id"), req)
		if err != nil {
			writeServiceError(w, rh.log.Action("UpdateLocation"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}

func (rh *RidesHandler) CreatePaymentOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := rh.paymentService.CreateOrder(r.Context(), caller(r), r.PathValue("ride_id"))
		if err != nil {
			writeServiceError(w, rh.log.Action("CreatePaymentOrder"), err)
			return
		}
		jsonResponse(w, http.StatusCreated, res)
	}
}

func (rh *RidesHandler) VerifyPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := dto.PaymentVerifyRequestDto{}
		if err := decodeJSON(w, r, &req, false); err != nil {
			JsonError(w, http.StatusBadRequest, err)
			return
		}

		res, err := rh.paymentService.Verify(r.Context(), caller(r), r.PathValue("ride_id"), req)
		if err != nil {
			writeServiceError(w, rh.log.Action("VerifyPayment"), err)
			return
		}
		jsonResponse(w, http.StatusOK, res)
	}
}
