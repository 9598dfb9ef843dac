package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
)

type stubTokens map[string]model.Caller

func (s stubTokens) ParseToken(token string) (model.Caller, error) {
	c, ok := s[token]
	if !ok {
		return model.Caller{}, myerrors.New(myerrors.ErrUnauthorized, "invalid token")
	}
	return c, nil
}

func TestAuthMiddleware(t *testing.T) {
	rider := model.Caller{ID: "u1", Role: model.RoleRider}
	mw := NewAuthMiddleware(stubTokens{"Bearer good": rider})

	var seen model.Caller
	h := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = model.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		code   int
		msg    string
	}{
		{"missing", "", http.StatusUnauthorized, "missing authorization token"},
		{"invalid", "Bearer bad", http.StatusUnauthorized, "invalid token"},
		{"valid", "Bearer good", http.StatusNoContent, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rides/pending", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			if tt.msg == "" {
				if seen != rider {
					t.Fatalf("caller not propagated: %+v", seen)
				}
				return
			}
			var body struct {
				Error string `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Error != tt.msg {
				t.Fatalf("error = %q, want %q", body.Error, tt.msg)
			}
		})
	}
}

func TestLoggingRecoversPanics(t *testing.T) {
	h := Logging(mylogger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
