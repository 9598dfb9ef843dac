package model

import "time"

type RideStatus string

const (
	RidePending   RideStatus = "pending"
	RideAccepted  RideStatus = "accepted"
	RideStarted   RideStatus = "started"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s RideStatus) IsTerminal() bool {
	return s == RideCompleted || s == RideCancelled
}

func (s RideStatus) IsValid() bool {
	switch s {
	case RidePending, RideAccepted, RideStarted, RideCompleted, RideCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type CancelActor string

const (
	CancelByUser   CancelActor = "user"
	CancelByDriver CancelActor = "driver"
	CancelBySystem CancelActor = "system"
)

type CancelDetails struct {
	By     CancelActor `json:"by"`
	Reason string      `json:"reason"`
}

type Location struct {
	Latitude        float64  `json:"lat"`
	Longitude       float64  `json:"lng"`
	Description     string   `json:"description,omitempty"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
}

// Quote is a driver's bid against a pending ride. Quotes are append-only.
type Quote struct {
	DriverId           string    `json:"driver_id"`
	Price              float64   `json:"price"`
	DriverLocation     Location  `json:"driver_location"`
	DistanceToPickupKm float64   `json:"distance_to_pickup_km"`
	EtaMinutes         float64   `json:"eta_minutes"`
	CreatedAt          time.Time `json:"created_at"`
}

type Rides struct {
	ID             string         `json:"ride_id"`
	RiderId        string         `json:"rider_id"`
	DriverId       *string        `json:"driver_id"`
	Pickup         Location       `json:"pickup"`
	Dropoff        Location       `json:"dropoff"`
	Fare           *float64       `json:"fare"`
	Quotes         []Quote        `json:"quotes"`
	Status         RideStatus     `json:"status"`
	CancelDetails  *CancelDetails `json:"cancel_details,omitempty"`
	Otp            *int           `json:"-"`
	OtpAttempts    int            `json:"-"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	PaymentOrderId string         `json:"payment_order_id,omitempty"`
	Version        int64          `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsParty reports whether the user is the ride's rider or its booked driver.
func (r Rides) IsParty(userId string) bool {
	if r.RiderId == userId {
		return true
	}
	return r.DriverId != nil && *r.DriverId == userId
}

func (r Rides) HasQuoteFrom(driverId string) bool {
	for _, q := range r.Quotes {
		if q.DriverId == driverId {
			return true
		}
	}
	return false
}

// RideUpdate describes a guarded transition. Nil fields are left unchanged.
type RideUpdate struct {
	Status         RideStatus
	DriverId       *string
	Fare           *float64
	Otp            *int
	ClearOtp       bool
	CancelDetails  *CancelDetails
	PaymentStatus  *PaymentStatus
	PaymentOrderId *string
}

type RideFilter struct {
	Statuses  []RideStatus
	DriverIds []string
	RiderId   string
}
