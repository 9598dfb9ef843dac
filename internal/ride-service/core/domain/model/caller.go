package model

import (
	"context"
	"strings"
)

type Role string

const (
	RoleRider            Role = "rider"
	RoleDriver           Role = "driver"
	RoleOwner            Role = "owner"
	RoleAdmin            Role = "admin"
	RoleOperationalAdmin Role = "operational_admin"
)

// ParseRole accepts the canonical role names plus "user" as an alias for rider.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleRider, "user", "passenger":
		return RoleRider, true
	case RoleDriver:
		return RoleDriver, true
	case RoleOwner:
		return RoleOwner, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOperationalAdmin:
		return RoleOperationalAdmin, true
	}
	return "", false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleOperationalAdmin
}

type Capability string

const (
	CapRequestRide     Capability = "ride:request"
	CapBookRide        Capability = "ride:book"
	CapQuote           Capability = "ride:quote"
	CapVerifyOtp       Capability = "ride:verify_otp"
	CapCancelRide      Capability = "ride:cancel"
	CapCompleteRide    Capability = "ride:complete"
	CapViewPending     Capability = "ride:view_pending"
	CapTrack           Capability = "ride:track"
	CapPay             Capability = "ride:pay"
	CapManageFleet     Capability = "fleet:manage"
	CapAdminister      Capability = "admin:read"
	CapModerateDrivers Capability = "admin:moderate"
	CapAppointAdmins   Capability = "admin:appoint"
)

var capabilities = map[Role][]Capability{
	RoleRider: {
		CapRequestRide, CapBookRide, CapVerifyOtp, CapCancelRide, CapPay,
	},
	RoleDriver: {
		CapQuote, CapVerifyOtp, CapCancelRide, CapCompleteRide, CapViewPending, CapTrack,
	},
	RoleOwner: {
		CapManageFleet,
	},
	RoleOperationalAdmin: {
		CapAdminister, CapModerateDrivers, CapCancelRide, CapViewPending,
	},
	RoleAdmin: {
		CapAdminister, CapModerateDrivers, CapAppointAdmins, CapCancelRide, CapViewPending,
	},
}

// Caller is the authenticated principal of a request or websocket session.
type Caller struct {
	ID   string `json:"user_id"`
	Role Role   `json:"role"`
}

func (c Caller) Can(want Capability) bool {
	for _, have := range capabilities[c.Role] {
		if have == want {
			return true
		}
	}
	return false
}

// CancelActor maps the caller role onto the actor recorded in cancel details.
func (c Caller) CancelActor() CancelActor {
	switch c.Role {
	case RoleRider:
		return CancelByUser
	case RoleDriver:
		return CancelByDriver
	default:
		return CancelBySystem
	}
}

type callerKey struct{}

func ContextWithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
