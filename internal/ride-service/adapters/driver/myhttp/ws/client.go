package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"

	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	egressSize     = 64
)

type Client struct {
	id     string
	ctx    context.Context
	conn   *websocket.Conn
	dis    *Dispatcher
	egress chan websocketdto.Event
	done   chan struct{}

	// rooms is guarded by the dispatcher lock
	rooms map[string]bool

	authCtx    context.Context
	cancelAuth context.CancelFunc

	mu        sync.RWMutex
	caller    *model.Caller
	closeOnce sync.Once
}

func NewClient(ctx context.Context, conn *websocket.Conn, dis *Dispatcher) *Client {
	authCtx, cancelAuth := context.WithCancel(ctx)
	return &Client{
		id:         uuid.NewString(),
		ctx:        ctx,
		conn:       conn,
		dis:        dis,
		egress:     make(chan websocketdto.Event, egressSize),
		done:       make(chan struct{}),
		rooms:      make(map[string]bool),
		authCtx:    authCtx,
		cancelAuth: cancelAuth,
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Caller() (model.Caller, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.caller == nil {
		return model.Caller{}, false
	}
	return *c.caller, true
}

func (c *Client) setCaller(caller model.Caller) {
	c.mu.Lock()
	c.caller = &caller
	c.mu.Unlock()
	c.cancelAuth()
}

// send never blocks; false means the buffer is full or the client is gone.
func (c *Client) send(e websocketdto.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.egress <- e:
		return true
	default:
		return false
	}
}

func (c *Client) reply(eventType string, payload any) {
	e, err := websocketdto.New(eventType, payload)
	if err != nil {
		c.dis.log.Action("reply").Error("cannot marshal", err, "type", eventType)
		return
	}
	c.send(e)
}

func (c *Client) sendError(eventType, msg string) {
	c.reply(model.EventError, websocketdto.ErrorMessage{Event: eventType, Message: msg})
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.cancelAuth()
	})
}

// ReadMessage pumps frames from the socket into the dispatcher.
func (c *Client) ReadMessage() {
	log := c.dis.log.Action("ReadMessage").With("client_id", c.id)
	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic in read pump", fmt.Errorf("%v", r))
		}
		c.dis.RemoveClient(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err.Error())
			}
			return
		}

		var req websocketdto.Event
		if err := json.Unmarshal(payload, &req); err != nil || req.Type == "" {
			c.sendError("", "malformed event")
			continue
		}
		if err := c.dis.routeEvent(c, req); err != nil {
			log.Debug("event rejected", "type", req.Type, "error", err.Error())
			c.sendError(req.Type, myerrors.Public(err))
		}
	}
}

// WriteMessage drains egress and keeps the connection alive with pings.
func (c *Client) WriteMessage() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				c.dis.RemoveClient(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.dis.RemoveClient(c)
				return
			}
		case <-c.done:
			c.flush()
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-c.ctx.Done():
			c.dis.RemoveClient(c)
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

// flush writes whatever is still buffered, e.g. the error explaining a close.
func (c *Client) flush() {
	for {
		select {
		case event := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		default:
			return
		}
	}
}
