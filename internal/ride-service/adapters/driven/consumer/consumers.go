// Package consumer fans room events out through the broker so every
// instance delivers them into its own websocket rooms.
package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/ports"

	messagebrokerdto "travelo/internal/ride-service/core/domain/message_broker_dto"
	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second
	resubscribe    = 10 * time.Second
)

// RideEvents implements ports.IRoomBroadcaster on top of the broker. When a
// publish fails the event is delivered to the local rooms only.
type RideEvents struct {
	ctx    context.Context
	wg     *sync.WaitGroup
	log    mylogger.Logger
	local  ports.IRoomBroadcaster
	broker ports.IRidesBroker
	origin string
}

func New(
	ctx context.Context,
	wg *sync.WaitGroup,
	log mylogger.Logger,
	local ports.IRoomBroadcaster,
	broker ports.IRidesBroker,
) *RideEvents {
	return &RideEvents{
		ctx:    ctx,
		wg:     wg,
		log:    log,
		local:  local,
		broker: broker,
		origin: uuid.NewString(),
	}
}

var _ ports.IRoomBroadcaster = (*RideEvents)(nil)

// Run keeps one subscription alive until ctx is done.
func (n *RideEvents) Run() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		log := n.log.Action("RideEventsSubscription")

		for {
			ch, err := n.broker.ConsumeRideEvents(n.ctx)
			if err != nil {
				log.Warn("cannot subscribe to ride events", "error", err.Error())
			} else {
				log.Info("subscribed to ride events", "origin", n.origin)
				n.work(n.ctx, ch, n.Deliver)
			}

			select {
			case <-n.ctx.Done():
				log.Info("ride events subscription stopped")
				return
			case <-time.After(resubscribe):
			}
		}
	}()
}

func (n *RideEvents) Broadcast(rideId string, msg websocketdto.Event) {
	n.publish(rideId, "", msg)
}

func (n *RideEvents) BroadcastExcept(rideId, clientId string, msg websocketdto.Event) {
	n.publish(rideId, clientId, msg)
}

// Restrict travels through the broker too, so members connected to other
// instances are dropped as well.
func (n *RideEvents) Restrict(rideId string, keep []string) {
	ev := messagebrokerdto.RideEvent{
		RideId: rideId,
		Type:   messagebrokerdto.RoomRestricted,
		Keep:   keep,
	}
	n.send(ev, func() { n.local.Restrict(rideId, keep) })
}

func (n *RideEvents) publish(rideId, exclude string, msg websocketdto.Event) {
	ev := messagebrokerdto.RideEvent{
		RideId:  rideId,
		Type:    msg.Type,
		Data:    msg.Data,
		Exclude: exclude,
	}
	n.send(ev, func() { n.deliverLocal(rideId, exclude, msg) })
}

func (n *RideEvents) send(ev messagebrokerdto.RideEvent, fallback func()) {
	log := n.log.Action("PublishRideEvent").With("ride_id", ev.RideId, "type", ev.Type)

	ev.Origin = n.origin
	ev.SentAt = time.Now().UTC().Format(time.RFC3339Nano)

	ctx, cancel := context.WithTimeout(n.ctx, publishTimeout)
	defer cancel()

	if err := n.broker.PublishRideEvent(ctx, ev); err != nil {
		log.Warn("broker publish failed, delivering locally", "error", err.Error())
		fallback()
	}
}

func (n *RideEvents) work(
	ctx context.Context,
	ch <-chan amqp091.Delivery,
	Do func(msg amqp091.Delivery) error,
) {
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}

			err := Do(msg)
			if err != nil {
				continue
			}
		case <-ctx.Done():
			return
		}
	}
}

// Deliver hands one broker message to the local rooms.
func (n *RideEvents) Deliver(msg amqp091.Delivery) error {
	log := n.log.Action("DeliverRideEvent")

	ev := messagebrokerdto.RideEvent{}
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		log.Error("cannot unmarshal", err)
		msg.Nack(false, false)
		return err
	}
	if ev.Type == messagebrokerdto.RoomRestricted {
		n.local.Restrict(ev.RideId, ev.Keep)
	} else {
		n.deliverLocal(ev.RideId, ev.Exclude, websocketdto.Event{Type: ev.Type, Data: ev.Data})
	}
	log.Debug("ride event delivered", "ride_id", ev.RideId, "type", ev.Type, "origin", ev.Origin)

	msg.Ack(false)
	return nil
}

func (n *RideEvents) deliverLocal(rideId, exclude string, msg websocketdto.Event) {
	if exclude != "" {
		n.local.BroadcastExcept(rideId, exclude, msg)
		return
	}
	n.local.Broadcast(rideId, msg)
}
