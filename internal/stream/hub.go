package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthewbaird/tabforge/internal/event"
)

// sendBuffer is the number of messages queued per client before events
// for that client are dropped.
const sendBuffer = 64

type client struct {
	id   string
	send chan ServerMessage

	mu    sync.Mutex
	tabID string
}

func (c *client) wants(evt event.DomainEvent) bool {
	c.mu.Lock()
	tabID := c.tabID
	c.mu.Unlock()
	if tabID == "" {
		return true
	}
	for _, ref := range evt.AffectedEntities {
		if ref.EntityType == "tab" && ref.EntityID == tabID {
			return true
		}
	}
	return false
}

func (c *client) subscribe(tabID string) {
	c.mu.Lock()
	c.tabID = tabID
	c.mu.Unlock()
}

// Hub fans domain events out to connected WebSocket clients. It is an
// eventbus handler and an http.Handler.
type Hub struct {
	log *zap.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub creates a hub with no clients.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{log: log.Named("stream"), clients: make(map[string]*client)}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleEvent queues evt for every interested client. Slow clients lose
// events rather than blocking the bus.
func (h *Hub) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	msg := ServerMessage{Type: "event", Data: toEventData(evt)}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.wants(evt) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.log.Warn("client queue full, dropping event",
				zap.String("client", c.id),
				zap.String("event", evt.ID))
		}
	}
	return nil
}

func toEventData(evt event.DomainEvent) EventData {
	data := EventData{
		ID:         evt.ID,
		EventType:  evt.EventType,
		Summary:    evt.Summary,
		OccurredAt: evt.OccurredAt,
	}
	if ref, ok := evt.Subject(); ok {
		data.SubjectID = ref.EntityID
	}
	return data
}

// ServeHTTP upgrades to WebSocket and runs the message loop.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("websocket accept", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &client{id: uuid.New().String(), send: make(chan ServerMessage, sendBuffer)}
	log := h.log.With(zap.String("client", c.id))

	// Queue the session message before registering so it is always first.
	c.send <- ServerMessage{Type: "session", Data: SessionData{ClientID: c.id}}
	h.register(c)
	defer h.unregister(c)

	go h.writeLoop(ctx, cancel, conn, c, log)

	for {
		var msg ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				log.Debug("connection closed", zap.Int("status", int(status)))
			}
			return
		}

		switch msg.Type {
		case "subscribe":
			var data SubscribeData
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				h.reply(c, msg.ID, "error", ErrorData{Code: "invalid_data", Message: "invalid subscribe data"})
				continue
			}
			c.subscribe(data.TabID)
			h.reply(c, msg.ID, "subscribed", data)
		case "unsubscribe":
			c.subscribe("")
			h.reply(c, msg.ID, "subscribed", SubscribeData{})
		case "ping":
			h.reply(c, msg.ID, "pong", nil)
		default:
			h.reply(c, msg.ID, "error", ErrorData{
				Code:    "unknown_type",
				Message: fmt.Sprintf("unknown message type: %s", msg.Type),
			})
		}
	}
}

func (h *Hub) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, c *client, log *zap.Logger) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				log.Debug("write error", zap.Error(err))
				return
			}
		}
	}
}

// reply queues a response; the read loop must never block on a slow writer.
func (h *Hub) reply(c *client, requestID, typ string, data any) {
	select {
	case c.send <- ServerMessage{Type: typ, RequestID: requestID, Data: data}:
	default:
		h.log.Warn("client queue full, dropping reply", zap.String("client", c.id), zap.String("type", typ))
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("client connected", zap.String("client", c.id), zap.Int("clients", n))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}
