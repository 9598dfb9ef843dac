package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"

	"travelo/internal/mylogger"

	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

type WebSocketClient struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	ctx    context.Context
	logger mylogger.Logger
}

func NewWebSocketClient(ctx context.Context, logger mylogger.Logger) *WebSocketClient {
	return &WebSocketClient{
		ctx:    ctx,
		logger: logger,
	}
}

func (w *WebSocketClient) Connect(url string) error {
	dialer := websocket.Dialer{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	conn, _, err := dialer.DialContext(w.ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connecting to websocket: %w", err)
	}

	w.conn = conn
	w.logger.Info("websocket connected", "url", url)
	return nil
}

func (w *WebSocketClient) Close() error {
	if w.conn == nil {
		return nil
	}
	w.mu.Lock()
	_ = w.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	w.mu.Unlock()
	return w.conn.Close()
}

// Send wraps payload into an event envelope. Safe for concurrent use.
func (w *WebSocketClient) Send(eventType string, payload any) error {
	e, err := websocketdto.New(eventType, payload)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(e); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// ReadEvents blocks until the connection fails or handler asks to stop.
func (w *WebSocketClient) ReadEvents(handler func(e websocketdto.Event) (stop bool)) error {
	for {
		_, payload, err := w.conn.ReadMessage()
		if err != nil {
			if w.ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading message: %w", err)
		}

		var e websocketdto.Event
		if err := json.Unmarshal(payload, &e); err != nil {
			w.logger.Warn("skipping malformed frame", "error", err.Error())
			continue
		}
		if handler(e) {
			return nil
		}
	}
}
