package services

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strings"

	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinNameLen = 1
	MaxNameLen = 100

	MinEmailLen = 5
	MaxEmailLen = 100

	MinPasswordLen = 5
	MaxPasswordLen = 50

	MaxDescriptionLen = 255

	// wrong ride otp submissions allowed per booking
	DefaultOtpAttempts = 5

	HashFactor = 10

	earthRadiusKm = 6371.0
	// average city speed used for quote ETAs
	avgSpeedKmh = 30.0

	otpMin = 100000
	otpMax = 999999
)

func validateLocation(field string, loc dto.LocationDto) (model.Location, error) {
	if loc.Latitude == nil || loc.Longitude == nil {
		return model.Location{}, myerrors.New(myerrors.ErrValidation, "%s: coordinates are required", field)
	}
	if math.Abs(*loc.Latitude) > 90 {
		return model.Location{}, myerrors.New(myerrors.ErrValidation, "%s: invalid latitude [-90, 90]", field)
	}
	if math.Abs(*loc.Longitude) > 180 {
		return model.Location{}, myerrors.New(myerrors.ErrValidation, "%s: invalid longitude [-180, 180]", field)
	}
	if len(loc.Description) > MaxDescriptionLen {
		return model.Location{}, myerrors.New(myerrors.ErrValidation, "%s: maximum %d characters allowed", field, MaxDescriptionLen)
	}
	return model.Location{
		Latitude:        *loc.Latitude,
		Longitude:       *loc.Longitude,
		Description:     strings.TrimSpace(loc.Description),
		DistanceKm:      loc.DistanceKm,
		DurationMinutes: loc.DurationMinutes,
	}, nil
}

func validateName(name string) error {
	n := len(strings.TrimSpace(name))
	if n < MinNameLen || n > MaxNameLen {
		return myerrors.New(myerrors.ErrValidation, "invalid name: must be in range [%d, %d]", MinNameLen, MaxNameLen)
	}
	return nil
}

func validateEmail(email string) error {
	n := len(email)
	if n < MinEmailLen || n > MaxEmailLen {
		return myerrors.New(myerrors.ErrValidation, "invalid email: must be in range [%d, %d]", MinEmailLen, MaxEmailLen)
	}
	if strings.Count(email, "@") != 1 {
		return myerrors.New(myerrors.ErrValidation, "invalid email: must contain only one @")
	}
	return nil
}

func validatePassword(password string) error {
	n := len(password)
	if n < MinPasswordLen || n > MaxPasswordLen {
		return myerrors.New(myerrors.ErrValidation, "invalid password: must be in range [%d, %d]", MinPasswordLen, MaxPasswordLen)
	}
	return nil
}

func validateMobile(mobile string) error {
	digits := 0
	for _, r := range mobile {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' || r == '-' || r == ' ':
		default:
			return myerrors.New(myerrors.ErrValidation, "invalid mobile number")
		}
	}
	if digits < 10 || digits > 15 {
		return myerrors.New(myerrors.ErrValidation, "invalid mobile number")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), HashFactor)
	return string(b), err
}

func checkPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// haversineKm returns the great circle distance between two points.
func haversineKm(a, b model.Location) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Latitude - a.Latitude)
	dLng := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

func etaMinutes(distanceKm float64) float64 {
	return math.Round(distanceKm/avgSpeedKmh*60*10) / 10
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// generateRideOtp returns a six digit code.
func generateRideOtp() (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return 0, fmt.Errorf("generate otp: %w", err)
	}
	return int(n.Int64()) + otpMin, nil
}

func ptr[T any](v T) *T {
	return &v
}
