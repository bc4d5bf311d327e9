package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/eduland/eduland-server/internal/game/events"
)

const (
	hubSubscriberID = "ws_hub"
	writeTimeout    = 5 * time.Second
)

// Hub pushes committed events to the WebSocket connections of the player
// they belong to. It subscribes to the event bus like any other subscriber.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	buffer  int
	logger  zerolog.Logger
}

type client struct {
	playerID string
	send     chan []byte
}

var _ events.Subscriber = (*Hub)(nil)

// NewHub creates a hub whose connections queue up to sendBuffer messages
func NewHub(sendBuffer int, logger zerolog.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		buffer:  sendBuffer,
		logger:  logger.With().Str("component", "ws_hub").Logger(),
	}
}

// ID implements events.Subscriber
func (h *Hub) ID() string { return hubSubscriberID }

// InterestedIn implements events.Subscriber
func (h *Hub) InterestedIn(string) bool { return true }

// HandleEvent queues e for every connection of its player. A connection
// whose queue is full misses the event; the next player.updated carries
// the full state again.
func (h *Hub) HandleEvent(e events.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := h.clients[e.PlayerID()]
	if len(conns) == 0 {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", e.Type()).Msg("Failed to encode event")
		return
	}
	for cl := range conns {
		select {
		case cl.send <- data:
		default:
			h.logger.Warn().
				Str("player_id", cl.playerID).
				Str("event_type", e.Type()).
				Msg("Dropping event for slow connection")
		}
	}
}

// Connections returns the number of open connections
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, conns := range h.clients {
		n += len(conns)
	}
	return n
}

func (h *Hub) register(playerID string) *client {
	cl := &client{playerID: playerID, send: make(chan []byte, h.buffer)}
	h.mu.Lock()
	if h.clients[playerID] == nil {
		h.clients[playerID] = make(map[*client]struct{})
	}
	h.clients[playerID][cl] = struct{}{}
	h.mu.Unlock()
	return cl
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	delete(h.clients[cl.playerID], cl)
	if len(h.clients[cl.playerID]) == 0 {
		delete(h.clients, cl.playerID)
	}
	h.mu.Unlock()
}

// Serve upgrades the request and streams events for playerID until the
// client goes away. Anything the client sends is discarded.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, playerID string) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		// Accept has already written the error response
		h.logger.Debug().Err(err).Str("player_id", playerID).Msg("WebSocket upgrade failed")
		return nil
	}
	defer conn.CloseNow()

	cl := h.register(playerID)
	defer h.unregister(cl)
	h.logger.Debug().Str("player_id", playerID).Msg("WebSocket connected")

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug().Str("player_id", playerID).Msg("WebSocket disconnected")
			return nil
		case msg := <-cl.send:
			if err := write(ctx, conn, msg); err != nil {
				h.logger.Debug().Err(err).Str("player_id", playerID).Msg("WebSocket write failed")
				return nil
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}
