package integration

import (
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"puzzle_sync/internal/client"
	"puzzle_sync/internal/config"
	httpserver "puzzle_sync/internal/http"
	"puzzle_sync/internal/imagestore"
	"puzzle_sync/internal/relay"
	"puzzle_sync/internal/session"
)

// startRelay brings up a full relay with no database and no Redis:
// the single-instance, fail-open configuration.
func startRelay(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	cfg := &config.Config{APIRateLimit: 1000, APIRateWindow: time.Minute}
	hub := relay.NewHub(nil)
	images := imagestore.NewAdapter(nil)
	httpserver.RegisterRoutes(r, cfg, hub, images, nil, nil)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func dialCore(t *testing.T, ts *httptest.Server, roomID, name string) *client.Core {
	t.Helper()
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?room=" + roomID

	tr, err := client.Dial(wsURL)
	if err != nil {
		t.Fatalf("dial %s: %v", name, err)
	}
	t.Cleanup(func() { tr.Close() })

	core := client.New(session.Identity{RoomID: roomID, ParticipantName: name}, nil)
	core.Subscribe(tr)
	return core
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal(msg)
}

func sameOrder(a, b *client.Core) bool {
	sa, sb := a.State(), b.State()
	return sa != nil && sb != nil && reflect.DeepEqual(sa.TileOrder, sb.TileOrder)
}

func TestLateJoinerConvergesThroughHandshake(t *testing.T) {
	ts := startRelay(t)
	roomID := session.NewRoomID()

	alice := dialCore(t, ts, roomID, "alice")
	alice.LoadImage("img:integration")
	time.Sleep(100 * time.Millisecond) // alice's snapshot fans out into an empty room

	// bob joins late: his hello makes alice rebroadcast her state
	bob := dialCore(t, ts, roomID, "bob")

	eventually(t, 5*time.Second, func() bool {
		st := bob.State()
		return st != nil && st.ImageRef == "img:integration" && sameOrder(alice, bob)
	}, "late joiner did not converge on the held state")
}

func TestSwapPropagatesBetweenPeers(t *testing.T) {
	ts := startRelay(t)
	roomID := session.NewRoomID()

	alice := dialCore(t, ts, roomID, "alice")
	bob := dialCore(t, ts, roomID, "bob")

	alice.LoadImage("img:swap-test")
	eventually(t, 5*time.Second, func() bool { return sameOrder(alice, bob) },
		"peers did not agree on the initial shuffle")

	if err := alice.SelectTile(0); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := alice.SelectTile(1); err != nil {
		t.Fatalf("select: %v", err)
	}

	eventually(t, 5*time.Second, func() bool {
		st := bob.State()
		return st != nil && st.MoveCount == 1 && sameOrder(alice, bob)
	}, "swap did not propagate")
}

func TestReshuffleOnlyShipsTheSeed(t *testing.T) {
	ts := startRelay(t)
	roomID := session.NewRoomID()

	alice := dialCore(t, ts, roomID, "alice")
	bob := dialCore(t, ts, roomID, "bob")

	alice.LoadImage("img:reshuffle-test")
	eventually(t, 5*time.Second, func() bool { return sameOrder(alice, bob) },
		"peers did not agree on the initial shuffle")

	if err := alice.Reshuffle(); err != nil {
		t.Fatalf("reshuffle: %v", err)
	}

	eventually(t, 5*time.Second, func() bool {
		st := bob.State()
		return st != nil && st.MoveCount == 0 && sameOrder(alice, bob)
	}, "peers did not re-derive the same permutation from the seed")
}

func TestThreeWayChatAndConvergence(t *testing.T) {
	ts := startRelay(t)
	roomID := session.NewRoomID()

	alice := dialCore(t, ts, roomID, "alice")
	bob := dialCore(t, ts, roomID, "bob")
	carol := dialCore(t, ts, roomID, "carol")

	alice.LoadImage("img:three-way")
	eventually(t, 5*time.Second, func() bool {
		return sameOrder(alice, bob) && sameOrder(alice, carol)
	}, "three peers did not converge")

	bob.SendChat("nice puzzle")
	eventually(t, 5*time.Second, func() bool {
		return len(alice.Chat()) == 1 && len(carol.Chat()) == 1
	}, "chat did not reach the room")
}
