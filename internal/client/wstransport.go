package client

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"puzzle_sync/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// WSTransport subscribes to one room channel on a relay over a
// websocket. It satisfies Transport: publishes are queued and never
// block, inbound frames arrive on Frames until the socket dies.
type WSTransport struct {
	conn   *websocket.Conn
	send   chan []byte
	frames chan []byte

	closeOnce sync.Once
}

// Dial connects to a relay room endpoint, e.g.
// ws://host:8080/ws?room=<id>. A failed connect is a subscription
// failure the caller surfaces as non-blocking status; there is no
// automatic retry.
func Dial(url string) (*WSTransport, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	t := &WSTransport{
		conn:   conn,
		send:   make(chan []byte, 256),
		frames: make(chan []byte, 256),
	}
	go t.writePump()
	go t.readPump()
	return t, nil
}

func (t *WSTransport) Publish(frame []byte) error {
	select {
	case t.send <- frame:
	default:
		// best-effort bus: shedding under backpressure is acceptable,
		// peers recover through the catch-up handshake
		logger.Warn("ws transport: send queue full, frame dropped")
	}
	return nil
}

func (t *WSTransport) Frames() <-chan []byte { return t.frames }

func (t *WSTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.send)
		err = t.conn.Close()
	})
	return err
}

func (t *WSTransport) readPump() {
	defer func() {
		t.conn.Close()
		close(t.frames)
	}()

	t.conn.SetReadLimit(1 << 20)
	t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		t.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case t.frames <- msg:
		default:
			logger.Warn("ws transport: inbound queue full, frame dropped")
		}
	}
}

func (t *WSTransport) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-t.send:
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = t.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := t.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
