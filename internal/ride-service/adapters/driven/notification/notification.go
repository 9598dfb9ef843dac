// Package notification is the push/sms gateway. Sends never block the
// caller and failures are only logged.
package notification

import (
	"context"
	"sync"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/ports"

	messagebrokerdto "travelo/internal/ride-service/core/domain/message_broker_dto"
)

const sendTimeout = 5 * time.Second

type Gateway struct {
	ctx    context.Context
	wg     sync.WaitGroup
	log    mylogger.Logger
	broker ports.IRidesBroker
}

// New returns a gateway publishing on the notifications exchange. A nil
// broker yields a log-only gateway.
func New(ctx context.Context, log mylogger.Logger, broker ports.IRidesBroker) *Gateway {
	return &Gateway{
		ctx:    ctx,
		log:    log,
		broker: broker,
	}
}

var _ ports.INotifier = (*Gateway)(nil)

func (g *Gateway) Notify(token, title, body string) {
	if token == "" {
		return
	}
	g.send(messagebrokerdto.Notification{
		Kind:        messagebrokerdto.NotificationPush,
		Destination: token,
		Title:       title,
		Body:        body,
	})
}

func (g *Gateway) SendSms(mobile, body string) {
	if mobile == "" {
		return
	}
	g.send(messagebrokerdto.Notification{
		Kind:        messagebrokerdto.NotificationSms,
		Destination: mobile,
		Body:        body,
	})
}

// Wait blocks until in-flight sends finish.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

func (g *Gateway) send(msg messagebrokerdto.Notification) {
	log := g.log.Action("Notify").With("kind", string(msg.Kind), "title", msg.Title)
	msg.CreatedAt = time.Now().UTC().Format(time.RFC3339)

	if g.broker == nil {
		log.Info("notification (log only)", "destination", mask(msg.Destination), "body", msg.Body)
		return
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(g.ctx), sendTimeout)
		defer cancel()

		if err := g.broker.PublishNotification(ctx, msg); err != nil {
			log.Error("cannot publish notification", err)
			return
		}
		log.Debug("notification queued")
	}()
}

// mask keeps the last four characters of a token or phone number.
func mask(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
