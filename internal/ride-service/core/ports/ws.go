package ports

import websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"

// IRoomBroadcaster delivers events to every member of a ride room.
// Delivery is best effort and at most once.
type IRoomBroadcaster interface {
	Broadcast(rideId string, msg websocketdto.Event)
	BroadcastExcept(rideId, clientId string, msg websocketdto.Event)
	// Restrict drops every member of the room whose user id is not in keep.
	// Admins stay.
	Restrict(rideId string, keep []string)
}

// INotifier is the fire-and-forget push/sms gateway.
type INotifier interface {
	Notify(token, title, body string)
	SendSms(mobile, body string)
}
