package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math"
	"strings"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"

	"github.com/google/uuid"
)

const paymentCurrency = "INR"

// PaymentService creates gateway orders for accepted rides and starts the
// ride once the gateway signature checks out.
type PaymentService struct {
	mylog     mylogger.Logger
	ridesRepo ports.IRidesRepo
	rooms     ports.IRoomBroadcaster
	keyId     string
	secret    []byte
}

func NewPaymentService(log mylogger.Logger, ridesRepo ports.IRidesRepo, rooms ports.IRoomBroadcaster, keyId, secret string) *PaymentService {
	if rooms == nil {
		rooms = noopRooms{}
	}
	return &PaymentService{
		mylog:     log,
		ridesRepo: ridesRepo,
		rooms:     rooms,
		keyId:     keyId,
		secret:    []byte(secret),
	}
}

func (ps *PaymentService) CreateOrder(ctx context.Context, caller model.Caller, rideId string) (dto.PaymentOrderResponseDto, error) {
	log := ps.mylog.Action("CreatePaymentOrder").With("ride_id", rideId, "rider_id", caller.ID)

	if !caller.Can(model.CapPay) {
		return dto.PaymentOrderResponseDto{}, myerrors.New(myerrors.ErrForbidden, "only riders can pay")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := ps.ridesRepo.FindById(ctx, rideId)
	if err != nil {
		return dto.PaymentOrderResponseDto{}, notFound(err, "ride not found")
	}
	if ride.RiderId != caller.ID {
		return dto.PaymentOrderResponseDto{}, myerrors.New(myerrors.ErrForbidden, "ride belongs to another rider")
	}
	if ride.PaymentStatus == model.PaymentPaid {
		return dto.PaymentOrderResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride already paid")
	}
	if ride.Status != model.RideAccepted || ride.Fare == nil {
		return dto.PaymentOrderResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride is %s, payment needs an accepted ride", ride.Status)
	}

	orderId := "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := ps.ridesRepo.Transition(ctx, rideId, []model.RideStatus{model.RideAccepted}, model.RideUpdate{
		Status:         model.RideAccepted,
		PaymentOrderId: &orderId,
	}); err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) {
			return dto.PaymentOrderResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride is no longer accepted")
		}
		log.Error("cannot store payment order", err)
		return dto.PaymentOrderResponseDto{}, notFound(err, "ride not found")
	}

	log.Info("payment order created", "order_id", orderId)
	return dto.PaymentOrderResponseDto{
		OrderId:  orderId,
		Amount:   int64(math.Round(*ride.Fare * 100)),
		Currency: paymentCurrency,
		Receipt:  "ride_" + ride.ID,
		Key:      ps.keyId,
	}, nil
}

func (ps *PaymentService) Verify(ctx context.Context, caller model.Caller, rideId string, req dto.PaymentVerifyRequestDto) (dto.RideStatusResponseDto, error) {
	log := ps.mylog.Action("VerifyPayment").With("ride_id", rideId, "rider_id", caller.ID)

	if !caller.Can(model.CapPay) {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrForbidden, "only riders can pay")
	}
	if req.OrderId == "" || req.PaymentId == "" || req.Signature == "" {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrValidation, "order_id, payment_id and signature are required")
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ride, err := ps.ridesRepo.FindById(ctx, rideId)
	if err != nil {
		return dto.RideStatusResponseDto{}, notFound(err, "ride not found")
	}
	if ride.RiderId != caller.ID {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrForbidden, "ride belongs to another rider")
	}
	if ride.PaymentStatus == model.PaymentPaid {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride already paid")
	}
	if ride.PaymentOrderId == "" || ride.PaymentOrderId != req.OrderId {
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrValidation, "unknown payment order")
	}
	if !ps.validSignature(req.OrderId, req.PaymentId, req.Signature) {
		log.Warn("payment signature mismatch", "order_id", req.OrderId)
		return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrValidation, "invalid payment signature")
	}

	paid := model.PaymentPaid
	ride, err = ps.ridesRepo.Transition(ctx, rideId, []model.RideStatus{model.RideAccepted}, model.RideUpdate{
		Status:        model.RideStarted,
		PaymentStatus: &paid,
	})
	if err != nil {
		if errors.Is(err, myerrors.ErrInvalidState) {
			return dto.RideStatusResponseDto{}, myerrors.New(myerrors.ErrInvalidState, "ride is no longer accepted")
		}
		log.Error("cannot mark ride paid", err)
		return dto.RideStatusResponseDto{}, notFound(err, "ride not found")
	}

	if e, err := websocketdto.New(model.EventRideStarted, websocketdto.RideStatusChanged{
		RideId: ride.ID,
		Status: string(ride.Status),
	}); err == nil {
		ps.rooms.Broadcast(ride.ID, e)
	}

	log.Info("payment verified, ride started", "payment_id", req.PaymentId)
	return dto.RideStatusResponseDto{RideId: ride.ID, Status: ride.Status, Message: "payment verified"}, nil
}

// Sign returns hex(HMAC-SHA256(secret, orderId|paymentId)).
func (ps *PaymentService) Sign(orderId, paymentId string) string {
	mac := hmac.New(sha256.New, ps.secret)
	mac.Write([]byte(orderId + "|" + paymentId))
	return hex.EncodeToString(mac.Sum(nil))
}

func (ps *PaymentService) validSignature(orderId, paymentId, signature string) bool {
	expected := ps.Sign(orderId, paymentId)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
