package websocketdto

import "encoding/json"

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type AuthMessage struct {
	Token string `json:"token"`
}

type Authenticated struct {
	UserId string `json:"user_id"`
	Role   string `json:"role"`
}

type JoinMessage struct {
	RideId string `json:"ride_id"`
}

type Joined struct {
	RideId string `json:"ride_id"`
}

type Coordinates struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Description string  `json:"description,omitempty"`
}

// Position is the inbound form of Coordinates. Missing fields stay nil.
type Position struct {
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Description string   `json:"description,omitempty"`
}

type CoordinatesMessage struct {
	RideId string    `json:"ride_id"`
	Coords *Position `json:"coords"`
}

// DriverUpdated is relayed to the other members of a room. By is omitted
// when the sender identity is unknown.
type DriverUpdated struct {
	RideId string      `json:"ride_id"`
	By     string      `json:"by,omitempty"`
	UserId string      `json:"user_id,omitempty"`
	Coords Coordinates `json:"coords"`
}

type CancelRideMessage struct {
	RideId string `json:"ride_id"`
	Reason string `json:"reason"`
}

type RideCancelled struct {
	RideId string `json:"ride_id"`
	By     string `json:"by"`
	Reason string `json:"reason"`
}

type CompleteRideMessage struct {
	RideId string `json:"ride_id"`
}

type RideCompleted struct {
	RideId string `json:"ride_id"`
}

type RideStatusChanged struct {
	RideId   string  `json:"ride_id"`
	Status   string  `json:"status"`
	DriverId string  `json:"driver_id,omitempty"`
	Fare     float64 `json:"fare,omitempty"`
}

type QuoteAdded struct {
	RideId   string  `json:"ride_id"`
	DriverId string  `json:"driver_id"`
	Price    float64 `json:"price"`
}

type StopTracking struct {
	RideId string `json:"ride_id"`
	Reason string `json:"reason"`
}

type ErrorMessage struct {
	Event   string `json:"event,omitempty"`
	Message string `json:"message"`
}

// New wraps a payload into an event envelope.
func New(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data}, nil
}
