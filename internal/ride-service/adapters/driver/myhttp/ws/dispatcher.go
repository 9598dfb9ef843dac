package ws

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"travelo/internal/mylogger"
	"travelo/internal/ride-service/core/domain/model"
	"travelo/internal/ride-service/core/myerrors"
	"travelo/internal/ride-service/core/ports"

	websocketdto "travelo/internal/ride-service/core/domain/websocket_dto"

	"github.com/gorilla/websocket"
)

const authWindow = 5 * time.Second

// websocketUpgrader is used to upgrade incoming HTTP requests into a persistent websocket connection
var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// clients authenticate with a token in the first frame, not cookies
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientList is a map used to help manage a map of clients
type ClientList map[*Client]bool

// Dispatcher owns the live connections and the per-ride rooms.
type Dispatcher struct {
	clients ClientList
	rooms   map[string]ClientList
	sync.RWMutex

	ctx        context.Context
	log        mylogger.Logger
	handlers   map[string]EventHandle
	authWindow time.Duration
}

func NewDispatcher(ctx context.Context, log mylogger.Logger) *Dispatcher {
	return &Dispatcher{
		clients:    make(ClientList),
		rooms:      make(map[string]ClientList),
		ctx:        ctx,
		log:        log,
		handlers:   make(map[string]EventHandle),
		authWindow: authWindow,
	}
}

var _ ports.IRoomBroadcaster = (*Dispatcher)(nil)

// Handle registers the handler for one client event type.
func (d *Dispatcher) Handle(eventType string, h EventHandle) {
	d.handlers[eventType] = h
}

// ServeWS upgrades the request. The first frame must authenticate within
// the auth window or the socket is closed.
func (d *Dispatcher) ServeWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := d.log.Action("ServeWS")

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade", err)
			return
		}
		client := NewClient(d.ctx, conn, d)
		d.AddClient(client)
		log.Debug("client connected", "client_id", client.id, "remote", r.RemoteAddr)

		go client.ReadMessage()
		go client.WriteMessage()
		go d.watchAuth(client)
	}
}

func (d *Dispatcher) watchAuth(c *Client) {
	t := time.NewTimer(d.authWindow)
	defer t.Stop()

	select {
	case <-t.C:
		if _, ok := c.Caller(); !ok {
			d.log.Action("watchAuth").Info("auth window elapsed, closing", "client_id", c.id)
			c.sendError(model.EventAuth, "authentication timeout")
			d.RemoveClient(c)
		}
	case <-c.authCtx.Done():
	}
}

func (d *Dispatcher) AddClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	d.clients[client] = true
}

// RemoveClient drops the client from every room and stops its pumps.
func (d *Dispatcher) RemoveClient(client *Client) {
	d.Lock()
	if _, ok := d.clients[client]; ok {
		delete(d.clients, client)
		for rideId := range client.rooms {
			d.leaveLocked(client, rideId)
		}
	}
	d.Unlock()

	client.close()
}

// Join is idempotent.
func (d *Dispatcher) Join(client *Client, rideId string) {
	d.Lock()
	defer d.Unlock()

	if _, ok := d.clients[client]; !ok {
		return
	}
	room, ok := d.rooms[rideId]
	if !ok {
		room = make(ClientList)
		d.rooms[rideId] = room
	}
	room[client] = true
	client.rooms[rideId] = true
}

func (d *Dispatcher) InRoom(client *Client, rideId string) bool {
	d.RLock()
	defer d.RUnlock()

	return d.rooms[rideId][client]
}

func (d *Dispatcher) leaveLocked(client *Client, rideId string) {
	delete(client.rooms, rideId)
	room, ok := d.rooms[rideId]
	if !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(d.rooms, rideId)
	}
}

// Restrict removes room members that are neither admins nor listed in keep.
// Their sockets stay open.
func (d *Dispatcher) Restrict(rideId string, keep []string) {
	d.Lock()
	defer d.Unlock()

	for c := range d.rooms[rideId] {
		caller, ok := c.Caller()
		if ok && (caller.Role.IsAdmin() || slices.Contains(keep, caller.ID)) {
			continue
		}
		d.log.Action("Restrict").Debug("leaving room", "client_id", c.id, "ride_id", rideId)
		d.leaveLocked(c, rideId)
	}
}

func (d *Dispatcher) Broadcast(rideId string, msg websocketdto.Event) {
	d.BroadcastExcept(rideId, "", msg)
}

// BroadcastExcept delivers to every room member whose id differs from
// clientId. Members with a full buffer are disconnected.
func (d *Dispatcher) BroadcastExcept(rideId, clientId string, msg websocketdto.Event) {
	var slow []*Client

	d.RLock()
	for c := range d.rooms[rideId] {
		if c.id == clientId {
			continue
		}
		if !c.send(msg) {
			slow = append(slow, c)
		}
	}
	d.RUnlock()

	for _, c := range slow {
		d.log.Action("BroadcastExcept").Warn("dropping slow client", "client_id", c.id, "ride_id", rideId)
		d.RemoveClient(c)
	}
}

// Clients reports the number of live connections.
func (d *Dispatcher) Clients() int {
	d.RLock()
	defer d.RUnlock()

	return len(d.clients)
}

// routeEvent runs the handler for e. Every event except auth needs an
// authenticated client.
func (d *Dispatcher) routeEvent(c *Client, e websocketdto.Event) error {
	h, ok := d.handlers[e.Type]
	if !ok {
		return myerrors.New(myerrors.ErrValidation, "unsupported event %q", e.Type)
	}
	if e.Type != model.EventAuth {
		if _, ok := c.Caller(); !ok {
			return myerrors.New(myerrors.ErrUnauthorized, "authenticate first")
		}
	}
	return h(c, e)
}
