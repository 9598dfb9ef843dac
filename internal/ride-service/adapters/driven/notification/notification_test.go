package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"travelo/internal/mylogger"

	messagebrokerdto "travelo/internal/ride-service/core/domain/message_broker_dto"

	"github.com/rabbitmq/amqp091-go"
)

type recordingBroker struct {
	mu   sync.Mutex
	fail bool
	sent []messagebrokerdto.Notification
}

func (b *recordingBroker) Close() error  { return nil }
func (b *recordingBroker) IsAlive() bool { return true }
func (b *recordingBroker) PublishRideEvent(ctx context.Context, msg messagebrokerdto.RideEvent) error {
	return nil
}

func (b *recordingBroker) PublishNotification(ctx context.Context, msg messagebrokerdto.Notification) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("broker down")
	}
	b.sent = append(b.sent, msg)
	return nil
}

func (b *recordingBroker) ConsumeRideEvents(ctx context.Context) (<-chan amqp091.Delivery, error) {
	return nil, errors.New("not used")
}

func TestGatewayPublishesPushAndSms(t *testing.T) {
	broker := &recordingBroker{}
	g := New(context.Background(), mylogger.Discard(), broker)

	g.Notify("fcm-token-1234", "New ride", "pickup nearby")
	g.SendSms("+919876543210", "your code is 123456")
	g.Notify("", "skipped", "no token")
	g.Wait()

	if len(broker.sent) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(broker.sent))
	}
	kinds := map[messagebrokerdto.NotificationKind]messagebrokerdto.Notification{}
	for _, n := range broker.sent {
		kinds[n.Kind] = n
	}
	if kinds[messagebrokerdto.NotificationPush].Destination != "fcm-token-1234" {
		t.Errorf("push destination wrong: %+v", kinds)
	}
	if kinds[messagebrokerdto.NotificationSms].Body != "your code is 123456" {
		t.Errorf("sms body wrong: %+v", kinds)
	}
}

func TestGatewaySwallowsFailures(t *testing.T) {
	g := New(context.Background(), mylogger.Discard(), &recordingBroker{fail: true})
	g.Notify("token", "t", "b")
	g.Wait()
}

func TestGatewayLogOnly(t *testing.T) {
	g := New(context.Background(), mylogger.Discard(), nil)
	g.Notify("token", "t", "b")
	g.SendSms("12345", "b")
	g.Wait()
}

func TestMask(t *testing.T) {
	if got := mask("+919876543210"); got != "****3210" {
		t.Errorf("mask = %s", got)
	}
	if got := mask("abc"); got != "****" {
		t.Errorf("mask short = %s", got)
	}
}
