package model

// Realtime event names shared by the engine and the relay.
const (
	EventAuth          = "auth"
	EventAuthenticated = "authenticated"
	EventJoin          = "join"
	EventJoined        = "joined"
	EventCoordinates   = "coordinates"
	EventDriverUpdated = "driverUpdated"
	EventCancelRide    = "cancelRide"
	EventRideCancelled = "rideCancelled"
	EventCompleteRide  = "completeRide"
	EventRideCompleted = "rideCompleted"
	EventRideStarted   = "rideStarted"
	EventRideBooked    = "rideBooked"
	EventQuoteAdded    = "quoteAdded"
	EventStopTracking  = "stopTracking"
	EventError         = "error"
)
