package ws

import (
	"encoding/json"
	"strings"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/dto"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"

	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"
)

type EventHandle func(c *Client, e websocketdto.Event) error

type EventHandler struct {
	log   mylogger.Logger
	auth  ports.IAuthService
	rides ports.IRidesService
}

func NewEventHandler(log mylogger.Logger, auth ports.IAuthService, rides ports.IRidesService) *EventHandler {
	return &EventHandler{
		log:   log,
		auth:  auth,
		rides: rides,
	}
}

// Register wires every client event into the dispatcher.
func (eh *EventHandler) Register(d *Dispatcher) {
	d.Handle(model.EventAuth, eh.AuthHandler)
	d.Handle(model.EventJoin, eh.JoinHandler)
	d.Handle(model.EventCoordinates, eh.CoordinatesHandler)
	d.Handle(model.EventCancelRide, eh.CancelRideHandler)
	d.Handle(model.EventCompleteRide, eh.CompleteRideHandler)
}

func (eh *EventHandler) AuthHandler(client *Client, e websocketdto.Event) error {
	var msg websocketdto.AuthMessage
	if err := decode(e, &msg); err != nil {
		return err
	}
	if _, ok := client.Caller(); ok {
		return myerrors.New(myerrors.ErrConflict, "already authenticated")
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(msg.Token, "Bearer "))
	if tokenString == "" {
		return myerrors.New(myerrors.ErrUnauthorized, "token is required")
	}

	caller, err := eh.auth.ParseToken(tokenString)
	if err != nil {
		return err
	}
	client.setCaller(caller)
	eh.log.Action("AuthHandler").Info("client authenticated", "client_id", client.id, "user_id", caller.ID, "role", string(caller.Role))

	client.reply(model.EventAuthenticated, websocketdto.Authenticated{UserId: caller.ID, Role: string(caller.Role)})
	return nil
}

func (eh *EventHandler) JoinHandler(client *Client, e websocketdto.Event) error {
	var msg websocketdto.JoinMessage
	if err := decode(e, &msg); err != nil {
		return err
	}
	caller, _ := client.Caller()
	if err := eh.rides.CanJoinRoom(client.ctx, caller, msg.RideId); err != nil {
		return err
	}
	client.dis.Join(client, msg.RideId)
	client.reply(model.EventJoined, websocketdto.Joined{RideId: msg.RideId})
	return nil
}

// CoordinatesHandler relays the sender's position to the rest of the room.
func (eh *EventHandler) CoordinatesHandler(client *Client, e websocketdto.Event) error {
	var msg websocketdto.CoordinatesMessage
	if err := decode(e, &msg); err != nil {
		return err
	}
	if strings.TrimSpace(msg.RideId) == "" {
		return myerrors.New(myerrors.ErrValidation, "ride_id is required")
	}
	if msg.Coords == nil {
		return myerrors.New(myerrors.ErrValidation, "coords are required")
	}
	if !client.dis.InRoom(client, msg.RideId) {
		return myerrors.New(myerrors.ErrForbidden, "join the ride room first")
	}

	caller, _ := client.Caller()
	res, err := eh.rides.RelayLocation(client.ctx, caller, msg.RideId, client.id, dto.LocationDto{
		Latitude:    msg.Coords.Lat,
		Longitude:   msg.Coords.Lng,
		Description: msg.Coords.Description,
	})
	if err != nil {
		return err
	}
	if res.StopTracking {
		client.reply(model.EventStopTracking, websocketdto.StopTracking{RideId: msg.RideId, Reason: "ride cancelled"})
	}
	return nil
}

func (eh *EventHandler) CancelRideHandler(client *Client, e websocketdto.Event) error {
	var msg websocketdto.CancelRideMessage
	if err := decode(e, &msg); err != nil {
		return err
	}
	caller, _ := client.Caller()
	_, err := eh.rides.CancelRide(client.ctx, caller, msg.RideId, msg.Reason)
	return err
}

func (eh *EventHandler) CompleteRideHandler(client *Client, e websocketdto.Event) error {
	var msg websocketdto.CompleteRideMessage
	if err := decode(e, &msg); err != nil {
		return err
	}
	caller, _ := client.Caller()
	_, err := eh.rides.CompleteRide(client.ctx, caller, msg.RideId)
	return err
}

func decode(e websocketdto.Event, v any) error {
	if len(e.Data) == 0 {
		return myerrors.New(myerrors.ErrValidation, "data is required")
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return myerrors.New(myerrors.ErrValidation, "malformed %s payload", e.Type)
	}
	return nil
}
