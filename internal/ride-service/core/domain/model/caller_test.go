package model

import (
	"context"
	"testing"
)

func TestCapabilitiesByRole(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleRider, CapRequestRide, true},
		{RoleRider, CapQuote, false},
		{RoleDriver, CapQuote, true},
		{RoleDriver, CapPay, false},
		{RoleOwner, CapManageFleet, true},
		{RoleOwner, CapCancelRide, false},
		{RoleOperationalAdmin, CapModerateDrivers, true},
		{RoleOperationalAdmin, CapAppointAdmins, false},
		{RoleAdmin, CapAppointAdmins, true},
		{Role("ghost"), CapRequestRide, false},
	}
	for _, tt := range tests {
		if got := (Caller{ID: "x", Role: tt.role}).Can(tt.cap); got != tt.want {
			t.Errorf("%s.Can(%s) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}

func TestCancelActor(t *testing.T) {
	if a := (Caller{Role: RoleRider}).CancelActor(); a != CancelByUser {
		t.Errorf("rider cancels as %s", a)
	}
	if a := (Caller{Role: RoleDriver}).CancelActor(); a != CancelByDriver {
		t.Errorf("driver cancels as %s", a)
	}
	if a := (Caller{Role: RoleOperationalAdmin}).CancelActor(); a != CancelBySystem {
		t.Errorf("admin cancels as %s", a)
	}
}

func TestParseRoleAliases(t *testing.T) {
	for _, s := range []string{"rider", "User", " passenger "} {
		if r, ok := ParseRole(s); !ok || r != RoleRider {
			t.Errorf("ParseRole(%q) = %s, %v", s, r, ok)
		}
	}
	if _, ok := ParseRole("pilot"); ok {
		t.Error("unknown role accepted")
	}
}

func TestCallerContext(t *testing.T) {
	if _, ok := CallerFromContext(context.Background()); ok {
		t.Fatal("empty context has a caller")
	}
	want := Caller{ID: "u1", Role: RoleDriver}
	got, ok := CallerFromContext(ContextWithCaller(context.Background(), want))
	if !ok || got != want {
		t.Fatalf("got %+v, %v", got, ok)
	}
}
