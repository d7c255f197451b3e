package relay

import (
	"sync"
	"time"

	"puzzle_sync/internal/logger"
)

// Frame is one raw message moving through a room.
type Frame struct {
	From string // subscriber id, empty when it came over the bridge
	Data []byte
}

// Room fans every inbound frame out to all subscribers except its
// sender. That is the whole contract: unordered, at-least-once,
// best-effort. Conflict resolution lives entirely in the clients.
type Room struct {
	ID string

	Register   chan *Client
	Unregister chan *Client
	Inbound    chan Frame

	mu        sync.RWMutex
	clients   map[string]*Client
	createdAt time.Time

	hub *Hub
}

func NewRoom(id string, hub *Hub) *Room {
	return &Room{
		ID:         id,
		Register:   make(chan *Client, 4),
		Unregister: make(chan *Client, 4),
		Inbound:    make(chan Frame, 256),
		clients:    make(map[string]*Client),
		createdAt:  time.Now(),
		hub:        hub,
	}
}

func (r *Room) Run() {
	logger.Info("room started", "room", r.ID)

	for {
		select {
		case c := <-r.Register:
			r.mu.Lock()
			r.clients[c.ID] = c
			n := len(r.clients)
			r.mu.Unlock()
			roomSubscribers.Inc()
			logger.Info("subscriber joined", "room", r.ID, "client", c.ID, "subscribers", n)

		case c := <-r.Unregister:
			r.mu.Lock()
			if _, ok := r.clients[c.ID]; ok {
				delete(r.clients, c.ID)
				close(c.Send)
				roomSubscribers.Dec()
			}
			n := len(r.clients)
			r.mu.Unlock()
			logger.Info("subscriber left", "room", r.ID, "client", c.ID, "subscribers", n)

		case f := <-r.Inbound:
			r.fanOut(f)
			if f.From != "" && r.hub != nil && r.hub.bridge != nil {
				// came from a local socket: let other relay instances see it
				r.hub.bridge.Publish(r.ID, f.Data)
			}
		}
	}
}

// fanOut delivers to everyone but the sender. Slow consumers are
// skipped rather than blocking the room; they catch up via the hello
// handshake like any other client that missed a frame.
func (r *Room) fanOut(f Frame) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, c := range r.clients {
		if id == f.From {
			continue
		}
		select {
		case c.Send <- f.Data:
			framesRelayed.WithLabelValues(r.ID).Inc()
		default:
			framesDropped.WithLabelValues(r.ID).Inc()
			logger.Warn("subscriber send queue full, frame dropped", "room", r.ID, "client", id)
		}
	}
}

// Subscribers reports the current local subscriber count.
func (r *Room) Subscribers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
