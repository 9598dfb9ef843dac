package model

import "time"

type User struct {
	ID           string    `json:"user_id"`
	MobileNumber string    `json:"mobile_number,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Gender       string    `json:"gender,omitempty"`
	AadhaarCard  string    `json:"aadhaar_card,omitempty"`
	IsVerified   bool      `json:"is_verified"`
	FcmToken     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Owner struct {
	ID            string    `json:"owner_id"`
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	ContactNumber string    `json:"contact_number,omitempty"`
	AadhaarCard   string    `json:"aadhaar_card,omitempty"`
	FcmToken      string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type AdminKind string

const (
	AdminFull        AdminKind = "admin"
	AdminOperational AdminKind = "operational_admin"
)

type Admin struct {
	ID           string    `json:"admin_id"`
	Kind         AdminKind `json:"kind"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	MobileNumber string    `json:"mobile_number"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
