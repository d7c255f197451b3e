package relay

import (
	"sync"
	"time"

	"puzzle_sync/internal/logger"
)

// Hub tracks live rooms. Rooms are created on first subscribe and
// swept once they have been empty for a while; the relay keeps no
// session history, only the message flow.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	bridge *Bridge
}

func NewHub(bridge *Bridge) *Hub {
	return &Hub{
		rooms:  make(map[string]*Room),
		bridge: bridge,
	}
}

// GetOrCreate returns the room, starting its loop (and its bridge
// subscription) on first use.
func (h *Hub) GetOrCreate(roomID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[roomID]; ok {
		return r
	}
	r := NewRoom(roomID, h)
	h.rooms[roomID] = r
	go r.Run()
	if h.bridge != nil {
		h.bridge.Subscribe(roomID, func(data []byte) {
			r.Inbound <- Frame{Data: data}
		})
	}
	roomsOpen.Inc()
	return r
}

// StartCleanup sweeps rooms that have sat empty for over an hour.
func (h *Hub) StartCleanup() {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			h.sweepEmptyRooms()
		}
	}()
}

func (h *Hub) sweepEmptyRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for id, r := range h.rooms {
		if r.Subscribers() == 0 && now.Sub(r.createdAt) > time.Hour {
			delete(h.rooms, id)
			if h.bridge != nil {
				h.bridge.Unsubscribe(id)
			}
			roomsOpen.Dec()
			logger.Info("swept empty room", "room", id)
		}
	}
}

// Rooms reports the number of live rooms.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
