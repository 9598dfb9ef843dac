package bm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"travelo/internal/config"
	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/ports"

	messagebroker "travelo/internal/ride-service/core/domain/message_broker_dto"

	amqp "github.com/rabbitmq/amqp091-go"
)

const reconnInterval = 10

var errConnClosed = errors.New("connection is closed")

type RabbitMQ struct {
	ctx          context.Context
	cfg          config.RabbitMqconfig
	mylog        mylogger.Logger
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
	mu           *sync.Mutex
}

// create RabbitMQ adapter
func New(ctx context.Context, rabbitmqCfg config.RabbitMqconfig, mylog mylogger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		ctx:          ctx,
		cfg:          rabbitmqCfg,
		mylog:        mylog,
		mu:           &sync.Mutex{},
		reconnecting: false,
	}
	if err := r.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %v", err)
	}
	return r, nil
}

var _ ports.IRidesBroker = (*RabbitMQ)(nil)

// PublishRideEvent routes the event as ride.<type>.<ride_id>.
func (r *RabbitMQ) PublishRideEvent(ctx context.Context, msg messagebroker.RideEvent) error {
	routingKey := fmt.Sprintf("ride.%s.%s", msg.Type, msg.RideId)
	return r.publish(ctx, ports.RideEventsExchange, routingKey, msg, amqp.Transient)
}

func (r *RabbitMQ) PublishNotification(ctx context.Context, msg messagebroker.Notification) error {
	return r.publish(ctx, ports.NotificationsExchange, string(msg.Kind), msg, amqp.Persistent)
}

func (r *RabbitMQ) publish(ctx context.Context, exchange, routingKey string, message any, mode uint8) error {
	mylog := r.mylog.Action("publish").With("exchange", exchange, "routing_key", routingKey)

	ch, ok := r.channel()
	if !ok {
		mylog.Error("connection between rabbitmq is closed", errConnClosed)
		go r.reconnect(r.ctx)
		return errConnClosed
	}

	body, err := json.Marshal(message)
	if err != nil {
		return err
	}
	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return err
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return fmt.Errorf("broker nacked message on %s", routingKey)
	}
	return nil
}

// ConsumeRideEvents binds a fresh exclusive queue to every ride event so
// each instance sees all room traffic. The returned channel closes when the
// connection drops; callers resubscribe.
func (r *RabbitMQ) ConsumeRideEvents(ctx context.Context) (<-chan amqp.Delivery, error) {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil || conn.IsClosed() {
		go r.reconnect(r.ctx)
		return nil, errConnClosed
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}
	if err := ch.QueueBind(q.Name, ports.RideEventsPattern, ports.RideEventsExchange, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	return ch.ConsumeWithContext(ctx, q.Name, "", false, true, false, false, nil)
}

func (r *RabbitMQ) IsAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() {
		return false
	}
	if r.ch == nil || r.ch.IsClosed() {
		return false
	}

	return true
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %v", err)
		}
	}

	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %v", err)
		}
	}
	return nil
}

func (r *RabbitMQ) channel() (*amqp.Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil || r.conn.IsClosed() || r.ch == nil || r.ch.IsClosed() {
		return nil, false
	}
	return r.ch, true
}

// connect dials, opens a confirm-mode channel and declares both exchanges.
func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(fmt.Sprintf("amqp://%v:%v@%v:%v/%v",
		r.cfg.User,
		r.cfg.Password,
		r.cfg.Host,
		r.cfg.Port,
		r.cfg.VHost,
	))
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return err
	}
	for _, exchange := range []string{ports.RideEventsExchange, ports.NotificationsExchange} {
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			conn.Close()
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

func (r *RabbitMQ) reconnect(ctx context.Context) {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.reconnecting = false
		r.mu.Unlock()
	}()

	t := time.NewTicker(time.Second * reconnInterval)
	defer t.Stop()
	mylog := r.mylog.Action("mb_reconnecting")

	for {
		select {
		case <-t.C:
			if err := r.connect(); err == nil {
				mylog.Action("mb_reconnection_completed").Info("Successfully reconnected!")
				return
			}
			mylog.Info("rabbitmq failed to reconnect")

		case <-ctx.Done():
			return
		}
	}
}
