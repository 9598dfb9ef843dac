package myerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewMatchesKind(t *testing.T) {
	err := New(ErrNotFound, "ride %s not found", "r1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("kind lost")
	}
	if errors.Is(err, ErrInvalidState) {
		t.Fatal("matched the wrong kind")
	}
	if err.Error() != "ride r1 not found" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestPublic(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"kind error", New(ErrValidation, "lat must be between -90 and 90"), "lat must be between -90 and 90"},
		{"wrapped kind error", fmt.Errorf("book: %w", New(ErrInvalidState, "ride is not pending")), "ride is not pending"},
		{"bare sentinel", ErrConflict, "conflict"},
		{"upstream", fmt.Errorf("%w: %v", ErrUpstream, errors.New("dial tcp 10.0.0.3:5432: refused")), ErrDBConnClosedMsg.Error()},
		{"unknown", errors.New("boom"), ErrDBConnClosedMsg.Error()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Public(tt.err); got != tt.want {
				t.Errorf("Public() = %q, want %q", got, tt.want)
			}
		})
	}
}
