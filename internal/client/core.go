package client

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"puzzle_sync/internal/logger"
	"puzzle_sync/internal/protocol"
	"puzzle_sync/internal/puzzle"
	"puzzle_sync/internal/session"
)

// Phase is the per-client lifecycle of a session.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseSubscribed
	PhaseActive
	PhaseSolved
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseSubscribed:
		return "subscribed"
	case PhaseActive:
		return "active"
	case PhaseSolved:
		return "solved"
	default:
		return "disconnected"
	}
}

var (
	ErrNoPuzzle       = errors.New("client: no puzzle loaded")
	ErrTileOutOfRange = errors.New("client: tile index out of range")
	ErrBadGrid        = errors.New("client: grid size must be at least 2")
)

const (
	defaultGridSize = 3
	chatLogCap      = 200
)

// Core is the protocol engine one participant runs: it validates and
// applies local actions optimistically, stamps them, publishes the
// corresponding events, and reconciles the inbound event stream into
// one canonical puzzle state using last-write-wins on timestamps.
//
// The transport is assumed unordered and at-least-once, so everything
// here is idempotent under redelivery: an authoritative event whose
// timestamp is not strictly newer than lastApplied is silently dropped.
type Core struct {
	mu  sync.Mutex
	log *slog.Logger
	now func() int64 // unix ms, swappable in tests

	identity session.Identity
	store    *session.Store
	tr       Transport

	phase    Phase
	gridSize int
	state    *puzzle.State

	// lastApplied gates authoritative events. Monotonically
	// non-decreasing, mutated only here.
	lastApplied int64
	// completionFired latches the solve celebration so it happens
	// exactly once; cleared only by reshuffle/reset.
	completionFired bool

	selected   *int
	peerSelect map[string]*int
	chat       []protocol.ChatMessage
	lastSeen   map[string]int64

	// OnSolved is invoked once per solve, with the solved state. It
	// runs with the core locked and must not call back into the core.
	OnSolved func(st *puzzle.State)
}

func New(identity session.Identity, store *session.Store) *Core {
	return &Core{
		log:        logger.With("room", identity.RoomID, "who", identity.ParticipantName),
		now:        func() int64 { return time.Now().UnixMilli() },
		identity:   identity,
		store:      store,
		gridSize:   defaultGridSize,
		peerSelect: make(map[string]*int),
		lastSeen:   make(map[string]int64),
	}
}

// Subscribe attaches the core to a room transport, announces itself
// with hello, and proactively rebroadcasts any state it already holds
// so divergent holders converge at join time (highest timestamp wins).
func (c *Core) Subscribe(tr Transport) {
	c.mu.Lock()
	c.tr = tr
	c.phase = PhaseSubscribed
	c.publish(&protocol.Event{Kind: protocol.KindHello, Who: c.identity.ParticipantName})
	if c.state != nil && c.state.ImageRef != "" {
		c.phase = PhaseActive
		c.publish(&protocol.Event{
			Kind:      protocol.KindState,
			Timestamp: c.stamp(),
			By:        c.identity.ParticipantName,
			State:     c.state.Clone(),
		})
	}
	c.mu.Unlock()

	go c.recvLoop(tr)
}

func (c *Core) recvLoop(tr Transport) {
	for frame := range tr.Frames() {
		c.Handle(frame)
	}
	c.mu.Lock()
	if c.tr == tr {
		c.phase = PhaseDisconnected
		c.tr = nil
	}
	c.mu.Unlock()
}

// Close detaches from the transport. Local state survives; a later
// Subscribe resumes via the hello catch-up handshake.
func (c *Core) Close() error {
	c.mu.Lock()
	tr := c.tr
	c.mu.Unlock()
	if tr == nil {
		return nil
	}
	return tr.Close()
}

// stamp returns a fresh local timestamp usable for strict ordering and
// advances lastApplied past it, so our own frame echoed back by the
// at-least-once transport is discarded as stale.
func (c *Core) stamp() int64 {
	ts := c.now()
	if ts <= c.lastApplied {
		ts = c.lastApplied + 1
	}
	c.lastApplied = ts
	return ts
}

func (c *Core) publish(ev *protocol.Event) {
	if c.tr == nil {
		return // local-only session: nothing to broadcast
	}
	frame, err := ev.Encode()
	if err != nil {
		c.log.Error("encode event", "kind", ev.Kind, "error", err)
		return
	}
	if err := c.tr.Publish(frame); err != nil {
		// fire-and-forget: recovery happens via the hello catch-up
		// handshake, never by retrying this frame
		c.log.Warn("publish failed", "kind", ev.Kind, "error", err)
	}
}

// --- mutation dispatcher -------------------------------------------------

// LoadImage installs a new image reference, shuffles a fresh puzzle
// seeded from the clock and announces both to the room.
func (c *Core) LoadImage(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seed := c.now()
	c.state = puzzle.New(ref, c.gridSize, seed)
	c.completionFired = false
	c.selected = nil
	if c.phase != PhaseDisconnected {
		c.phase = PhaseActive
	}

	c.publish(&protocol.Event{Kind: protocol.KindImage, Ref: ref, By: c.identity.ParticipantName})
	c.publish(&protocol.Event{
		Kind:      protocol.KindState,
		Timestamp: c.stamp(),
		By:        c.identity.ParticipantName,
		State:     c.state.Clone(),
	})
}

// SelectTile handles one tap: first tap marks a tile, tapping it again
// clears the mark, tapping a different tile swaps the two. No-op once
// the puzzle is solved.
func (c *Core) SelectTile(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return ErrNoPuzzle
	}
	if c.completionFired || c.state.Solved() {
		return nil
	}
	if i < 0 || i >= len(c.state.TileOrder) {
		return ErrTileOutOfRange
	}

	switch {
	case c.selected == nil:
		c.selected = &i
		c.publish(&protocol.Event{Kind: protocol.KindSelect, Index: &i, By: c.identity.ParticipantName})
	case *c.selected == i:
		c.selected = nil
		c.publish(&protocol.Event{Kind: protocol.KindSelect, By: c.identity.ParticipantName})
	default:
		j := *c.selected
		c.selected = nil
		c.state.Swap(j, i)
		c.publish(&protocol.Event{
			Kind:      protocol.KindSwap,
			Timestamp: c.stamp(),
			By:        c.identity.ParticipantName,
			Order:     append([]int(nil), c.state.TileOrder...),
			Moves:     c.state.MoveCount,
		})
		c.maybeComplete()
	}
	return nil
}

// Reshuffle draws a new seed from the clock, regenerates the tile
// order and restarts counters. Only the seed travels on the wire.
func (c *Core) Reshuffle() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return ErrNoPuzzle
	}
	seed := c.now()
	ts := c.stamp()
	c.restartLocked(puzzle.Shuffle(c.state.GridSize*c.state.GridSize, seed), ts)
	c.publish(&protocol.Event{Kind: protocol.KindReshuffle, Timestamp: ts, Seed: seed, By: c.identity.ParticipantName})
	return nil
}

// Reset puts the tiles back in solved order without celebrating.
func (c *Core) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return ErrNoPuzzle
	}
	ts := c.stamp()
	c.restartLocked(puzzle.Identity(len(c.state.TileOrder)), ts)
	c.publish(&protocol.Event{Kind: protocol.KindReset, Timestamp: ts, By: c.identity.ParticipantName})
	return nil
}

// restartLocked swaps in a fresh tile order and clears the solve latch.
func (c *Core) restartLocked(order []int, ts int64) {
	c.state.TileOrder = order
	c.state.MoveCount = 0
	c.state.StartedAt = ts
	c.state.CompletedAt = 0
	c.completionFired = false
	c.selected = nil
	c.peerSelect = make(map[string]*int)
	c.phase = PhaseActive
}

// ChangeGrid updates the grid size for the next puzzle. It does not
// reshuffle by itself; LoadImage or Reshuffle does that.
func (c *Core) ChangeGrid(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n < 2 {
		return ErrBadGrid
	}
	c.gridSize = n
	c.publish(&protocol.Event{Kind: protocol.KindGridChange, Timestamp: c.stamp(), Grid: n, By: c.identity.ParticipantName})
	return nil
}

// SendChat appends to the local log and broadcasts the line.
func (c *Core) SendChat(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := protocol.ChatMessage{
		ID:   uuid.NewString(),
		Name: c.identity.ParticipantName,
		Text: text,
		TS:   c.now(),
	}
	c.appendChat(msg)
	c.publish(&protocol.Event{Kind: protocol.KindChat, Message: &msg})
}

// Ping announces liveness; peers only update their last-seen map.
func (c *Core) Ping() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publish(&protocol.Event{Kind: protocol.KindPing, At: c.now(), By: c.identity.ParticipantName})
}

// maybeComplete fires the solve side effects exactly once. The latch
// is cleared only by reshuffle/reset, so duplicate re-evaluation and
// redelivered events cannot celebrate twice.
func (c *Core) maybeComplete() {
	if c.completionFired || c.state == nil || !c.state.Solved() {
		return
	}
	c.completionFired = true
	ts := c.stamp()
	c.state.CompletedAt = ts
	c.phase = PhaseSolved

	elapsed := int64(0)
	if c.state.StartedAt > 0 {
		elapsed = ts - c.state.StartedAt
	}
	if c.store != nil {
		if _, err := c.store.RecordBest(c.state.GridSize, session.BestScore{Time: elapsed, Moves: c.state.MoveCount}); err != nil {
			c.log.Warn("record best score", "error", err)
		}
	}
	c.publish(&protocol.Event{
		Kind:      protocol.KindComplete,
		Timestamp: ts,
		By:        c.identity.ParticipantName,
		Time:      elapsed,
		Moves:     c.state.MoveCount,
	})
	if c.OnSolved != nil {
		c.OnSolved(c.state.Clone())
	}
}

// --- state reconciler ----------------------------------------------------

// Handle decodes one inbound frame and reconciles it. Malformed frames
// are dropped at this boundary and never reach the state model.
func (c *Core) Handle(frame []byte) {
	ev, err := protocol.Decode(frame)
	if err != nil {
		c.log.Warn("dropping malformed frame", "error", err)
		return
	}
	c.Apply(ev)
}

// Apply reconciles a decoded event. Authoritative kinds pass the
// last-write-wins gate or are silently discarded; ephemeral kinds are
// applied unconditionally in arrival order.
func (c *Core) Apply(ev *protocol.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if protocol.Authoritative(ev.Kind) {
		if ev.Timestamp <= c.lastApplied {
			// stale or our own echo: the sole conflict-resolution rule
			c.log.Debug("discarding stale event", "kind", ev.Kind, "ts", ev.Timestamp, "last_applied", c.lastApplied)
			return
		}
		if !c.applicableLocked(ev) {
			// not applied, so the watermark must not move: a stateless
			// late joiner still has to accept the catch-up snapshot even
			// when it carries an older timestamp than this event
			c.log.Debug("dropping inapplicable event", "kind", ev.Kind, "ts", ev.Timestamp)
			return
		}
		c.lastApplied = ev.Timestamp
	}

	switch ev.Kind {
	case protocol.KindHello:
		c.lastSeen[ev.Who] = c.now()
		// catch-up handshake: anyone holding an image answers with a
		// full snapshot so the late joiner converges without history
		if c.state != nil && c.state.ImageRef != "" {
			c.publish(&protocol.Event{
				Kind:      protocol.KindState,
				Timestamp: c.stamp(),
				By:        c.identity.ParticipantName,
				State:     c.state.Clone(),
			})
		}

	case protocol.KindSelect:
		c.peerSelect[ev.By] = ev.Index

	case protocol.KindChat:
		c.appendChat(*ev.Message)

	case protocol.KindPing:
		c.lastSeen[ev.By] = ev.At

	case protocol.KindImage:
		// adopted unconditionally, without timestamp gating: two
		// near-simultaneous uploads can flap the shared image
		if c.state == nil {
			c.state = &puzzle.State{
				ImageRef:  ev.Ref,
				GridSize:  c.gridSize,
				TileOrder: puzzle.Identity(c.gridSize * c.gridSize),
			}
		} else {
			c.state.ImageRef = ev.Ref
		}
		if c.phase == PhaseSubscribed {
			c.phase = PhaseActive
		}

	case protocol.KindState:
		c.state = ev.State.Clone()
		c.gridSize = c.state.GridSize
		c.selected = nil
		c.completionFired = c.state.CompletedAt != 0
		if c.completionFired {
			c.phase = PhaseSolved
		} else {
			c.phase = PhaseActive
		}

	case protocol.KindSwap:
		c.state.TileOrder = append([]int(nil), ev.Order...)
		c.state.MoveCount = ev.Moves
		c.selected = nil
		c.maybeComplete()

	case protocol.KindReshuffle:
		c.restartLocked(puzzle.Shuffle(len(c.state.TileOrder), ev.Seed), ev.Timestamp)

	case protocol.KindReset:
		c.restartLocked(puzzle.Identity(len(c.state.TileOrder)), ev.Timestamp)

	case protocol.KindComplete:
		c.state.CompletedAt = ev.Timestamp
		c.phase = PhaseSolved
		if !c.completionFired {
			c.completionFired = true
			if c.OnSolved != nil {
				c.OnSolved(c.state.Clone())
			}
		}

	case protocol.KindGridChange:
		c.gridSize = ev.Grid
		if c.state != nil {
			c.state.GridSize = ev.Grid
		}
	}
}

// applicableLocked reports whether an authoritative event can act on
// the current state. Swaps also have to match the live tile count: a
// permutation for some other grid would corrupt the board wholesale.
func (c *Core) applicableLocked(ev *protocol.Event) bool {
	switch ev.Kind {
	case protocol.KindSwap:
		return c.state != nil && len(ev.Order) == len(c.state.TileOrder)
	case protocol.KindReshuffle, protocol.KindReset, protocol.KindComplete:
		return c.state != nil
	}
	return true
}

func (c *Core) appendChat(msg protocol.ChatMessage) {
	c.chat = append(c.chat, msg)
	if len(c.chat) > chatLogCap {
		c.chat = c.chat[len(c.chat)-chatLogCap:]
	}
}

// --- read-side accessors -------------------------------------------------

// State returns a copy of the canonical puzzle state, nil before any
// image is known.
func (c *Core) State() *puzzle.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

func (c *Core) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Core) Identity() session.Identity { return c.identity }

// Selected returns the locally marked tile, or -1.
func (c *Core) Selected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == nil {
		return -1
	}
	return *c.selected
}

// LastApplied exposes the LWW gate watermark.
func (c *Core) LastApplied() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastApplied
}

// Chat returns a copy of the chat log.
func (c *Core) Chat() []protocol.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]protocol.ChatMessage(nil), c.chat...)
}

// LastSeen returns the last liveness timestamp per peer.
func (c *Core) LastSeen() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.lastSeen))
	for k, v := range c.lastSeen {
		out[k] = v
	}
	return out
}
