package dto

import (
	"bytes"
	"encoding/json"

	"travelo/internal/ride-service/core/domain/model"
)

// API Transfer data

type LocationDto struct {
	Latitude        *float64 `json:"lat"`
	Longitude       *float64 `json:"lng"`
	Description     string   `json:"description"`
	DistanceKm      *float64 `json:"distance_km,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
}

type RidesRequestDto struct {
	Pickup  LocationDto `json:"pickup"`
	Dropoff LocationDto `json:"dropoff"`
}

type RidesResponseDto struct {
	RideId              string           `json:"ride_id"`
	Status              model.RideStatus `json:"status"`
	EstimatedDistanceKm float64          `json:"estimated_distance_km"`
	NotifiedDrivers     int              `json:"notified_drivers"`
}

type QuoteRequestDto struct {
	Price          *float64    `json:"price"`
	DriverLocation LocationDto `json:"driver_location"`
}

type QuotesResponseDto struct {
	RideId string           `json:"ride_id"`
	Status model.RideStatus `json:"status"`
	Quotes []model.Quote    `json:"quotes"`
}

type BookRequestDto struct {
	DriverId string   `json:"driver_id"`
	Fare     *float64 `json:"fare"`
}

type BookResponseDto struct {
	RideId   string           `json:"ride_id"`
	Status   model.RideStatus `json:"status"`
	DriverId string           `json:"driver_id"`
	Fare     float64          `json:"fare"`
	Otp      string           `json:"otp"`
	Action   string           `json:"action"`
}

// OtpValue accepts the code either as a JSON number or a string.
type OtpValue string

func (o *OtpValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*o = OtpValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*o = OtpValue(n.String())
	return nil
}

type VerifyOtpRequestDto struct {
	Otp OtpValue `json:"otp"`
}

type RidesCancelRequestDto struct {
	Reason string `json:"reason"`
}

type RideStatusResponseDto struct {
	RideId  string           `json:"ride_id"`
	Status  model.RideStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

type LocationUpdateResponseDto struct {
	RideId       string           `json:"ride_id"`
	Status       model.RideStatus `json:"status"`
	StopTracking bool             `json:"stop_tracking"`
}
