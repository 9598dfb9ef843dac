package dto

import "travelo/internal/ride-service/core/domain/model"

type UpdateUserRequestDto struct {
	Name     *string `json:"name"`
	Gender   *string `json:"gender"`
	FcmToken *string `json:"fcm_token"`
}

type UpdateDriverRequestDto struct {
	Name           *string               `json:"name"`
	LicenseNumber  *string               `json:"license_number"`
	AadhaarNumber  *string               `json:"aadhaar_number"`
	VehicleDetails *model.VehicleDetails `json:"vehicle_details"`
	IsAvailable    *bool                 `json:"is_available"`
	FcmToken       *string               `json:"fcm_token"`
}

type AvailabilityRequestDto struct {
	IsAvailable *bool `json:"is_available"`
}
