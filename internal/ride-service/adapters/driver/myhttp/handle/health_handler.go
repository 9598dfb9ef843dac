package handle

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Check pings a single dependency; nil means healthy.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]Check
}

func NewHealthHandler(checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func (hh *HealthHandler) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		names := make([]string, 0, len(hh.checks))
		for name := range hh.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		res := healthResponse{Status: "ok", Components: make(map[string]string, len(names))}
		code := http.StatusOK
		for _, name := range names {
			if err := hh.checks[name](ctx); err != nil {
				res.Components[name] = "down"
				res.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			res.Components[name] = "up"
		}
		jsonResponse(w, code, res)
	}
}
