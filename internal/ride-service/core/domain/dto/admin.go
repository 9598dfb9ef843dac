package dto

import "travelo/internal/ride-service/core/domain/model"

type RidesSummary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type SystemOverview struct {
	Owners         int          `json:"owners"`
	Drivers        int          `json:"drivers"`
	AvailableCount int          `json:"available_drivers"`
	BlockedCount   int          `json:"blocked_drivers"`
	Users          int          `json:"users"`
	Rides          RidesSummary `json:"rides"`
}

type AppointAdminRequestDto struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number"`
	Password     string `json:"password"`
}

type DriverDetailDto struct {
	Driver model.Driver  `json:"driver"`
	Car    *model.Car    `json:"car,omitempty"`
	Rides  []model.Rides `json:"rides"`
}

type UserDetailDto struct {
	User  model.User    `json:"user"`
	Rides []model.Rides `json:"rides"`
}

type VerifyDriverRequestDto struct {
	Verified *bool `json:"verified"`
}
