package messagebrokerdto

import "encoding/json"

// RoomRestricted is the RideEvent type that narrows a room instead of
// delivering an event to it. Keep lists the user ids allowed to stay.
const RoomRestricted = "roomRestricted"

// RideEvent is published on the ride_events exchange with routing key
// ride.<type>.<ride_id> and delivered into the local room of every instance.
type RideEvent struct {
	RideId  string          `json:"ride_id"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Origin  string          `json:"origin"`
	Exclude string          `json:"exclude,omitempty"`
	Keep    []string        `json:"keep,omitempty"`
	SentAt  string          `json:"sent_at"`
}

type NotificationKind string

const (
	NotificationPush NotificationKind = "push"
	NotificationSms  NotificationKind = "sms"
)

// Notification is a push or sms job for the delivery workers.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Destination string           `json:"destination"`
	Title       string           `json:"title,omitempty"`
	Body        string           `json:"body"`
	CreatedAt   string           `json:"created_at"`
}
