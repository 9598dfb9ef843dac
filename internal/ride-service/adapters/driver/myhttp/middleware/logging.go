package middleware

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/adapters/driver/myhttp/handle"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

// Logging writes one record per request and turns panics into a 500.
func Logging(log mylogger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			mylog := log.Action("http_request").With("method", r.Method, "path", r.URL.Path)

			defer func() {
				if p := recover(); p != nil {
					mylog.Error("panic while serving request", fmt.Errorf("%v", p))
					handle.JsonError(rec, http.StatusInternalServerError, errors.New("internal server error"))
				}
				mylog.Debug("request served", "status", rec.status, "duration_ms", time.Since(start).Milliseconds())
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
