package dto

type RegisterRequestDto struct {
	Role         string `json:"role"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	MobileNumber string `json:"mobile_number"`
	Address      string `json:"address,omitempty"`
	// driver only
	LicenseNumber string `json:"license_number,omitempty"`
	OwnerId       string `json:"owner_id,omitempty"`
}

type LoginRequestDto struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SendOtpRequestDto struct {
	MobileNumber string `json:"mobile_number"`
}

type VerifyLoginOtpRequestDto struct {
	MobileNumber string `json:"mobile_number"`
	Otp          string `json:"otp"`
	Role         string `json:"role"`
}

type AuthResponseDto struct {
	UserId    string `json:"user_id"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type OtpSentResponseDto struct {
	MobileNumber string `json:"mobile_number"`
	ExpiresIn    int    `json:"expires_in_seconds"`
}
