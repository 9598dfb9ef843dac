package model

import "time"

type DriverStatus string

const (
	DriverActive  DriverStatus = "active"
	DriverBlocked DriverStatus = "blocked"
)

type VehicleDetails struct {
	Owner        string `json:"owner,omitempty"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
	LicensePlate string `json:"license_plate,omitempty"`
}

type Driver struct {
	ID              string         `json:"driver_id"`
	MobileNumber    string         `json:"mobile_number,omitempty"`
	Email           string         `json:"email,omitempty"`
	PasswordHash    string         `json:"-"`
	Name            string         `json:"name"`
	LicenseNumber   string         `json:"license_number,omitempty"`
	AadhaarNumber   string         `json:"aadhaar_number,omitempty"`
	VehicleDetails  VehicleDetails `json:"vehicle_details"`
	IsVerified      bool           `json:"is_verified"`
	IsAvailable     bool           `json:"is_available"`
	Status          DriverStatus   `json:"status"`
	OwnerId         *string        `json:"owner_id"`
	CarId           *string        `json:"car_id"`
	CurrentLocation *Location      `json:"current_location,omitempty"`
	FcmToken        string         `json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CanQuote reports whether the driver may bid on rides.
func (d Driver) CanQuote() bool {
	return d.IsVerified && d.Status != DriverBlocked
}

type DriverFilter struct {
	Available *bool
	OwnerId   string
}

type CarType string

const (
	CarSedan     CarType = "sedan"
	CarHatchback CarType = "hatchback"
	CarSuv       CarType = "suv"
)

func (t CarType) IsValid() bool {
	return t == CarSedan || t == CarHatchback || t == CarSuv
}

type CarStatus string

const (
	CarAvailable CarStatus = "available"
	CarEngaged   CarStatus = "engaged"
)

type Car struct {
	ID          string    `json:"car_id"`
	OwnerId     string    `json:"owner_id"`
	Type        CarType   `json:"type"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Seats       int       `json:"seats"`
	Number      string    `json:"number"`
	Description string    `json:"desc"`
	Year        string    `json:"year"`
	Status      CarStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
