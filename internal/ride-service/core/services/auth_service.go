package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

type AuthRepos struct {
	Users   ports.IUsersRepo
	Drivers ports.IDriversRepo
	Owners  ports.IOwnersRepo
	Admins  ports.IAdminsRepo
}

type AuthService struct {
	mylog    mylogger.Logger
	repos    AuthRepos
	otp      ports.IOtpIssuer
	notifier ports.INotifier
	secret   []byte
	tokenTTL time.Duration
	otpTTL   time.Duration
	now      func() time.Time
}

func NewAuthService(
	log mylogger.Logger,
	repos AuthRepos,
	otp ports.IOtpIssuer,
	notifier ports.INotifier,
	secret string,
	tokenTTL, otpTTL time.Duration,
) *AuthService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &AuthService{
		mylog:    log,
		repos:    repos,
		otp:      otp,
		notifier: notifier,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		otpTTL:   otpTTL,
		now:      time.Now,
	}
}

func (as *AuthService) Register(ctx context.Context, req dto.RegisterRequestDto) (dto.AuthResponseDto, error) {
	log := as.mylog.Action("Register").With("role", req.Role, "email", req.Email)

	role, ok := model.ParseRole(req.Role)
	if !ok || role.IsAdmin() {
		return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrValidation, "unknown role %q", req.Role)
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateName(req.Name); err != nil {
		return dto.AuthResponseDto{}, err
	}
	if err := validateEmail(req.Email); err != nil {
		return dto.AuthResponseDto{}, err
	}
	if err := validatePassword(req.Password); err != nil {
		return dto.AuthResponseDto{}, err
	}
	if req.MobileNumber != "" {
		if err := validateMobile(req.MobileNumber); err != nil {
			return dto.AuthResponseDto{}, err
		}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		log.Error("cannot hash password", err)
		return dto.AuthResponseDto{}, upstream(err)
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := as.now().UTC()
	id := uuid.NewString()
	switch role {
	case model.RoleRider:
		_, err = as.repos.Users.Create(ctx, model.User{
			ID:           id,
			Email:        req.Email,
			MobileNumber: req.MobileNumber,
			PasswordHash: hash,
			Name:         strings.TrimSpace(req.Name),
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	case model.RoleDriver:
		var ownerId *string
		if req.OwnerId != "" {
			if _, err := as.repos.Owners.FindById(ctx, req.OwnerId); err != nil {
				return dto.AuthResponseDto{}, notFound(err, "owner not found")
			}
			ownerId = ptr(req.OwnerId)
		}
		_, err = as.repos.Drivers.Create(ctx, model.Driver{
			ID:            id,
			Email:         req.Email,
			MobileNumber:  req.MobileNumber,
			PasswordHash:  hash,
			Name:          strings.TrimSpace(req.Name),
			LicenseNumber: req.LicenseNumber,
			Status:        model.DriverActive,
			OwnerId:       ownerId,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	case model.RoleOwner:
		_, err = as.repos.Owners.Create(ctx, model.Owner{
			ID:            id,
			Name:          strings.TrimSpace(req.Name),
			Address:       req.Address,
			Email:         req.Email,
			PasswordHash:  hash,
			ContactNumber: req.MobileNumber,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	if err != nil {
		if errors.Is(err, myerrors.ErrConflict) {
			return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrConflict, "email or mobile number already registered")
		}
		log.Error("cannot register", err)
		return dto.AuthResponseDto{}, upstream(err)
	}

	log.Info("registered", "user_id", id)
	return as.respond(model.Caller{ID: id, Role: role})
}

func (as *AuthService) Login(ctx context.Context, req dto.LoginRequestDto) (dto.AuthResponseDto, error) {
	log := as.mylog.Action("Login").With("role", req.Role)

	role, ok := model.ParseRole(req.Role)
	if !ok {
		return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrValidation, "unknown role %q", req.Role)
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(email); err != nil {
		return dto.AuthResponseDto{}, err
	}
	if req.Password == "" {
		return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrValidation, "password is required")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		id   string
		hash string
		err  error
	)
	switch role {
	case model.RoleRider:
		var u model.User
		u, err = as.repos.Users.FindByEmail(ctx, email)
		id, hash = u.ID, u.PasswordHash
	case model.RoleDriver:
		var d model.Driver
		d, err = as.repos.Drivers.FindByEmail(ctx, email)
		id, hash = d.ID, d.PasswordHash
		if err == nil && d.Status == model.DriverBlocked {
			return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrForbidden, "driver is blocked")
		}
	case model.RoleOwner:
		var o model.Owner
		o, err = as.repos.Owners.FindByEmail(ctx, email)
		id, hash = o.ID, o.PasswordHash
	case model.RoleAdmin, model.RoleOperationalAdmin:
		var a model.Admin
		a, err = as.repos.Admins.FindByEmail(ctx, email)
		id, hash = a.ID, a.PasswordHash
		role = model.Role(a.Kind)
	}
	if err != nil {
		if errors.Is(err, myerrors.ErrNotFound) {
			return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrUnauthorized, "invalid email or password")
		}
		log.Error("cannot find account", err)
		return dto.AuthResponseDto{}, upstream(err)
	}
	if !checkPassword(hash, req.Password) {
		log.Warn("wrong password", "user_id", id)
		return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrUnauthorized, "invalid email or password")
	}

	log.Info("logged in", "user_id", id)
	return as.respond(model.Caller{ID: id, Role: role})
}

func (as *AuthService) SendLoginOtp(ctx context.Context, req dto.SendOtpRequestDto) (dto.OtpSentResponseDto, error) {
	log := as.mylog.Action("SendLoginOtp")

	mobile := strings.TrimSpace(req.MobileNumber)
	if err := validateMobile(mobile); err != nil {
		return dto.OtpSentResponseDto{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	code, err := as.otp.Issue(ctx, mobile)
	if err != nil {
		log.Error("cannot issue otp", err)
		return dto.OtpSentResponseDto{}, upstream(err)
	}
	as.notifier.SendSms(mobile, fmt.Sprintf("Your login code is %s", code))

	log.Info("login otp sent")
	return dto.OtpSentResponseDto{MobileNumber: mobile, ExpiresIn: int(as.otpTTL.Seconds())}, nil
}

// VerifyLoginOtp exchanges a valid code for a token. Riders are created on
// their first login; drivers must already be registered.
func (as *AuthService) VerifyLoginOtp(ctx context.Context, req dto.VerifyLoginOtpRequestDto) (dto.AuthResponseDto, error) {
	log := as.mylog.Action("VerifyLoginOtp")

	mobile := strings.TrimSpace(req.MobileNumber)
	if err := validateMobile(mobile); err != nil {
		return dto.AuthResponseDto{}, err
	}
	role := model.RoleRider
	if req.Role != "" {
		var ok bool
		role, ok = model.ParseRole(req.Role)
		if !ok || (role != model.RoleRider && role != model.RoleDriver) {
			return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrValidation, "otp login is available for riders and drivers only")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ok, err := as.otp.Verify(ctx, mobile, strings.TrimSpace(req.Otp))
	if err != nil {
		log.Error("cannot verify otp", err)
		return dto.AuthResponseDto{}, upstream(err)
	}
	if !ok {
		return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrOtpMismatch, "invalid or expired otp")
	}
	if err := as.otp.Invalidate(ctx, mobile); err != nil {
		log.Warn("cannot invalidate otp", "error", err.Error())
	}

	var id string
	switch role {
	case model.RoleDriver:
		d, err := as.repos.Drivers.FindByMobile(ctx, mobile)
		if err != nil {
			return dto.AuthResponseDto{}, notFound(err, "driver not found")
		}
		if d.Status == model.DriverBlocked {
			return dto.AuthResponseDto{}, myerrors.New(myerrors.ErrForbidden, "driver is blocked")
		}
		id = d.ID
	default:
		u, err := as.repos.Users.FindByMobile(ctx, mobile)
		switch {
		case err == nil:
			id = u.ID
		case errors.Is(err, myerrors.ErrNotFound):
			now := as.now().UTC()
			u, err = as.repos.Users.Create(ctx, model.User{
				ID:           uuid.NewString(),
				MobileNumber: mobile,
				IsVerified:   true,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if err != nil {
				log.Error("cannot create rider", err)
				return dto.AuthResponseDto{}, upstream(err)
			}
			log.Info("rider created on first login", "user_id", u.ID)
			id = u.ID
		default:
			log.Error("cannot find rider", err)
			return dto.AuthResponseDto{}, upstream(err)
		}
	}

	return as.respond(model.Caller{ID: id, Role: role})
}

// EnsureAdmin creates the bootstrap administrator when it does not exist.
func (as *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	if _, err := as.repos.Admins.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, myerrors.ErrNotFound) {
		return err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = as.repos.Admins.Create(ctx, model.Admin{
		ID:           uuid.NewString(),
		Kind:         model.AdminFull,
		Name:         "admin",
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    as.now().UTC(),
	})
	if err != nil && !errors.Is(err, myerrors.ErrConflict) {
		return err
	}
	as.mylog.Action("EnsureAdmin").Info("bootstrap admin ready", "email", email)
	return nil
}

// IssueToken signs a token carrying user_id, role and exp.
func (as *AuthService) IssueToken(caller model.Caller) (string, int64, error) {
	exp := as.now().Add(as.tokenTTL).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": caller.ID,
		"role":    string(caller.Role),
		"exp":     exp,
	})
	signed, err := token.SignedString(as.secret)
	if err != nil {
		return "", 0, err
	}
	return signed, exp, nil
}

func (as *AuthService) ParseToken(tokenString string) (model.Caller, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return model.Caller{}, myerrors.New(myerrors.ErrUnauthorized, "empty token")
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return as.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Caller{}, myerrors.New(myerrors.ErrUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Caller{}, myerrors.New(myerrors.ErrUnauthorized, "invalid claims")
	}
	userId, ok := claims["user_id"].(string)
	if !ok || userId == "" {
		return model.Caller{}, myerrors.New(myerrors.ErrUnauthorized, "user_id not found in token")
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return model.Caller{}, myerrors.New(myerrors.ErrUnauthorized, "role not found in token")
	}
	role, ok := model.ParseRole(roleStr)
	if !ok {
		return model.Caller{}, myerrors.New(myerrors.ErrUnauthorized, "unknown role in token")
	}
	exp, ok := claims["exp"].(float64)
	if !ok || as.now().Unix() > int64(exp) {
		return model.Caller{}, myerrors.New(myerrors.ErrUnauthorized, "token expired")
	}
	return model.Caller{ID: userId, Role: role}, nil
}

func (as *AuthService) respond(caller model.Caller) (dto.AuthResponseDto, error) {
	token, exp, err := as.IssueToken(caller)
	if err != nil {
		as.mylog.Action("IssueToken").Error("cannot sign token", err)
		return dto.AuthResponseDto{}, upstream(err)
	}
	return dto.AuthResponseDto{
		UserId:    caller.ID,
		Role:      string(caller.Role),
		Token:     token,
		ExpiresAt: exp,
	}, nil
}
