// Smoke client: runs two protocol cores against a live relay and
// checks they converge on one puzzle state. Useful after deploys:
//
//	APP_PORT=8080 go run ./cmd/smoke
package main

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"puzzle_sync/internal/client"
	"puzzle_sync/internal/logger"
	"puzzle_sync/internal/session"
)

func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	roomID := session.NewRoomID()
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?room=%s", port, roomID)

	dial := func(name string) (*client.Core, *client.WSTransport) {
		tr, err := client.Dial(wsURL)
		if err != nil {
			logger.Fatal("dial relay", "who", name, "error", err)
		}
		core := client.New(session.Identity{RoomID: roomID, ParticipantName: name}, nil)
		core.Subscribe(tr)
		return core, tr
	}

	alice, trA := dial("alice")
	defer trA.Close()

	// alice seeds the puzzle before bob joins, so bob has to converge
	// through the hello catch-up handshake
	alice.LoadImage("img:smoke-test")
	time.Sleep(200 * time.Millisecond)

	bob, trB := dial("bob")
	defer trB.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		a, b := alice.State(), bob.State()
		if a != nil && b != nil && reflect.DeepEqual(a.TileOrder, b.TileOrder) && a.ImageRef == b.ImageRef {
			logger.Info("converged", "room", roomID, "tiles", len(a.TileOrder), "moves", a.MoveCount)
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	logger.Fatal("clients did not converge", "room", roomID)
}
