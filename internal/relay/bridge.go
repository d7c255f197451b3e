package relay

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"puzzle_sync/internal/logger"
)

// Bridge fans room traffic across relay instances through Redis
// pub/sub, so clients of one room can land on different relays.
// Frames carry the publishing instance id so an instance skips its own
// publishes when they come back around.
type Bridge struct {
	rdb        *redis.Client
	instanceID string

	mu   sync.Mutex
	subs map[string]*redis.PubSub
}

// NewBridge connects to Redis. An empty addr or a failed ping returns
// nil: the relay then runs single-instance, which is not an error.
func NewBridge(addr, password string, db int) *Bridge {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, bridge disabled", "addr", addr, "error", err)
		return nil
	}
	logger.Info("redis bridge connected", "addr", addr)
	return &Bridge{
		rdb:        rdb,
		instanceID: uuid.NewString(),
		subs:       make(map[string]*redis.PubSub),
	}
}

func channelFor(roomID string) string { return "room:" + roomID }

// Publish ships a frame to the room channel. Best-effort: a Redis
// error is logged and the frame is lost, exactly like any other missed
// delivery on this bus.
func (b *Bridge) Publish(roomID string, frame []byte) {
	payload := append(append([]byte(b.instanceID), '|'), frame...)
	if err := b.rdb.Publish(context.Background(), channelFor(roomID), payload).Err(); err != nil {
		logger.Warn("bridge publish failed", "room", roomID, "error", err)
	}
}

// Subscribe starts forwarding the room channel into handler, skipping
// frames this instance published itself.
func (b *Bridge) Subscribe(roomID string, handler func([]byte)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[roomID]; ok {
		return
	}
	ps := b.rdb.Subscribe(context.Background(), channelFor(roomID))
	b.subs[roomID] = ps

	go func() {
		self := []byte(b.instanceID)
		for msg := range ps.Channel() {
			payload := []byte(msg.Payload)
			i := bytes.IndexByte(payload, '|')
			if i < 0 {
				continue
			}
			if bytes.Equal(payload[:i], self) {
				continue
			}
			handler(payload[i+1:])
		}
	}()
}

// Unsubscribe stops forwarding a room channel.
func (b *Bridge) Unsubscribe(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ps, ok := b.subs[roomID]; ok {
		_ = ps.Close()
		delete(b.subs, roomID)
	}
}
