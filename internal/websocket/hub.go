package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/welldanyogia/seatea-inbox/internal/metrics"
)

// EventType names an event pushed to or received from a client
type EventType string

const (
	EventNewMessage  EventType = "new_message"
	EventUnreadCount EventType = "unread_count"
	EventPing        EventType = "ping"
	EventPong        EventType = "pong"
	EventError       EventType = "error"
)

// Event is the envelope for every websocket frame
type Event struct {
	Type    EventType   `json:"type"`
	UserID  uint        `json:"userId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// UnreadCountPayload carries the receiver's new aggregate unread count
type UnreadCountPayload struct {
	UnreadCount int64 `json:"unreadCount"`
}

// Publisher pushes events to every connection of a user
type Publisher interface {
	PublishToUser(userID uint, eventType EventType, payload interface{})
}

// Hub maintains the set of active clients per user and delivers events to them
type Hub struct {
	// userID -> set of clients
	clients map[uint]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	// Deliveries to a single user's clients
	deliver chan *delivery

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex

	logger *slog.Logger
}

type delivery struct {
	userID  uint
	message []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *delivery, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true
			h.mu.Unlock()
			metrics.WSConnections.Inc()
			if h.logger != nil {
				h.logger.Debug("client registered", slog.Uint64("user_id", uint64(client.userID)))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.userID]; ok && set[client] {
				delete(set, client)
				if len(set) == 0 {
					delete(h.clients, client.userID)
				}
				close(client.send)
				metrics.WSConnections.Dec()
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered", slog.Uint64("user_id", uint64(client.userID)))
			}

		case d := <-h.deliver:
			h.mu.RLock()
			for client := range h.clients[d.userID] {
				select {
				case client.send <- d.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for client := range set {
			close(client.send)
			metrics.WSConnections.Dec()
		}
		delete(h.clients, userID)
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ConnectionCount returns the number of open connections for a user
func (h *Hub) ConnectionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// PublishToUser queues an event for every connection of userID.
// Events for users with no open connection are dropped.
func (h *Hub) PublishToUser(userID uint, eventType EventType, payload interface{}) {
	data, err := json.Marshal(Event{
		Type:    eventType,
		UserID:  userID,
		Payload: payload,
	})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal event", slog.Any("error", err))
		}
		return
	}

	select {
	case h.deliver <- &delivery{userID: userID, message: data}:
	default:
		if h.logger != nil {
			h.logger.Warn("websocket delivery queue full, dropping event",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("type", string(eventType)))
		}
	}
}
