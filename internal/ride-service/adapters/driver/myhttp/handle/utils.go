package handle

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("failed to parse JSON")

// jsonResponse writes the given data as a JSON-encoded HTTP response.
func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// JsonError writes an error response as JSON with the specified HTTP status code.
func JsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, myerrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, myerrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, myerrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, myerrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, myerrors.ErrInvalidState), errors.Is(err, myerrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, myerrors.ErrOtpMismatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeServiceError hides upstream details from the client but logs them.
func writeServiceError(w http.ResponseWriter, log mylogger.Logger, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed", err)
	}
	JsonError(w, code, errors.New(myerrors.Public(err)))
}

// decodeJSON reads a bounded JSON body. An empty body is accepted when
// optional is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return errBadJSON
	}
	return nil
}

// caller is set by the auth middleware on every protected route.
func caller(r *http.Request) model.Caller {
	c, _ := model.CallerFromContext(r.Context())
	return c
}
