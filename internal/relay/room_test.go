package relay

import (
	"testing"
	"time"
)

func recvOrTimeout(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestRoomFansOutToEveryoneButSender(t *testing.T) {
	room := NewRoom("r1", nil)
	go room.Run()

	a := &Client{ID: "a", Send: make(chan []byte, 4), room: room}
	b := &Client{ID: "b", Send: make(chan []byte, 4), room: room}
	c := &Client{ID: "c", Send: make(chan []byte, 4), room: room}
	room.Register <- a
	room.Register <- b
	room.Register <- c

	room.Inbound <- Frame{From: "a", Data: []byte(`{"kind":"ping","by":"a"}`)}

	if got := recvOrTimeout(t, b.Send); string(got) != `{"kind":"ping","by":"a"}` {
		t.Fatalf("b received %s", got)
	}
	recvOrTimeout(t, c.Send)

	select {
	case msg := <-a.Send:
		t.Fatalf("sender got its own frame back from the local room: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRoomBridgeFramesReachEveryone(t *testing.T) {
	room := NewRoom("r2", nil)
	go room.Run()

	a := &Client{ID: "a", Send: make(chan []byte, 4), room: room}
	b := &Client{ID: "b", Send: make(chan []byte, 4), room: room}
	room.Register <- a
	room.Register <- b

	// frames arriving over the bridge carry no local sender
	room.Inbound <- Frame{Data: []byte(`{"kind":"hello","who":"remote"}`)}

	recvOrTimeout(t, a.Send)
	recvOrTimeout(t, b.Send)
}

func TestRoomUnregisterStopsDelivery(t *testing.T) {
	room := NewRoom("r3", nil)
	go room.Run()

	a := &Client{ID: "a", Send: make(chan []byte, 4), room: room}
	b := &Client{ID: "b", Send: make(chan []byte, 4), room: room}
	room.Register <- a
	room.Register <- b

	room.Unregister <- b

	deadline := time.Now().Add(time.Second)
	for room.Subscribers() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("unregister not processed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	room.Inbound <- Frame{From: "b", Data: []byte(`{"kind":"ping","by":"b"}`)}
	recvOrTimeout(t, a.Send)
}

func TestHubReusesRooms(t *testing.T) {
	hub := NewHub(nil)
	r1 := hub.GetOrCreate("same")
	r2 := hub.GetOrCreate("same")
	if r1 != r2 {
		t.Fatal("hub created two rooms for one id")
	}
	if hub.Rooms() != 1 {
		t.Fatalf("rooms = %d", hub.Rooms())
	}
}
