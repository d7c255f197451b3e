package client

// Transport is the room-scoped broadcast bus the core publishes on.
// Delivery is best-effort, at-least-once and unordered; the core never
// blocks on Publish and never retries a frame.
type Transport interface {
	// Publish fans a frame out to every other subscriber of the room.
	// Fire-and-forget: an error means the frame was not handed to the
	// transport at all, not that delivery failed.
	Publish(frame []byte) error

	// Frames returns the inbound frame stream. The channel closes when
	// the transport goes away.
	Frames() <-chan []byte

	Close() error
}

// Loopback is the transport used when no relay is configured: the
// session runs local-only, publishes go nowhere and nothing arrives.
type Loopback struct {
	frames chan []byte
}

func NewLoopback() *Loopback {
	return &Loopback{frames: make(chan []byte)}
}

func (l *Loopback) Publish([]byte) error { return nil }

func (l *Loopback) Frames() <-chan []byte { return l.frames }

func (l *Loopback) Close() error {
	close(l.frames)
	return nil
}
