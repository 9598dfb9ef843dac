package handle

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"travelo/internal/ride-service/core/myerrors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{myerrors.New(myerrors.ErrValidation, "bad lat"), http.StatusBadRequest},
		{myerrors.ErrUnauthorized, http.StatusUnauthorized},
		{myerrors.New(myerrors.ErrForbidden, "not yours"), http.StatusForbidden},
		{fmt.Errorf("load: %w", myerrors.ErrNotFound), http.StatusNotFound},
		{myerrors.New(myerrors.ErrInvalidState, "ride is completed"), http.StatusConflict},
		{myerrors.ErrConflict, http.StatusConflict},
		{myerrors.New(myerrors.ErrOtpMismatch, "invalid otp"), http.StatusUnprocessableEntity},
		{myerrors.ErrUpstream, http.StatusInternalServerError},
		{errors.New("pool closed"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
