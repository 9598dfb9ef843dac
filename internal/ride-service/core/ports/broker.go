package ports

import (
	"context"

	messagebrokerdto "travelo/internal/ride-service/core/domain/message_broker_dto"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RideEventsExchange    = "ride_events"
	NotificationsExchange = "notifications"
	RideEventsPattern     = "ride.#"
)

type IRidesBroker interface {
	Close() error
	IsAlive() bool
	PublishRideEvent(ctx context.Context, msg messagebrokerdto.RideEvent) error
	PublishNotification(ctx context.Context, msg messagebrokerdto.Notification) error

	ConsumeRideEvents(ctx context.Context) (<-chan amqp.Delivery, error)
}
