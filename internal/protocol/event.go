package protocol

import (
	"encoding/json"
	"errors"

	"puzzle_sync/internal/puzzle"
)

// Event kinds carried on the room channel.
const (
	KindState      = "state"
	KindImage      = "image"
	KindSwap       = "swap"
	KindSelect     = "select"
	KindChat       = "chat"
	KindHello      = "hello"
	KindPing       = "ping"
	KindReshuffle  = "reshuffle"
	KindReset      = "reset"
	KindComplete   = "complete"
	KindGridChange = "gridChange"
)

// Authoritative reports whether kind mutates canonical puzzle state and
// is therefore timestamp-gated by the reconciler. Everything else is
// applied unconditionally. "image" is deliberately not listed: it is
// adopted ungated (see the reconciler).
func Authoritative(kind string) bool {
	switch kind {
	case KindState, KindSwap, KindReshuffle, KindReset, KindComplete, KindGridChange:
		return true
	}
	return false
}

// Event is the transport envelope. Kind selects which payload fields
// are meaningful; Timestamp is unix milliseconds at the sender and is
// required for authoritative kinds.
type Event struct {
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp,omitempty"`
	By        string `json:"by,omitempty"`

	State   *puzzle.State `json:"state,omitempty"`   // state
	Ref     string        `json:"ref,omitempty"`     // image
	Order   []int         `json:"order,omitempty"`   // swap
	Moves   int           `json:"moves,omitempty"`   // swap, complete
	Index   *int          `json:"index,omitempty"`   // select (nil clears)
	Message *ChatMessage  `json:"message,omitempty"` // chat
	Who     string        `json:"who,omitempty"`     // hello
	At      int64         `json:"at,omitempty"`      // ping
	Seed    int64         `json:"seed,omitempty"`    // reshuffle
	Time    int64         `json:"time,omitempty"`    // complete, solve duration ms
	Grid    int           `json:"grid,omitempty"`    // gridChange
}

// ChatMessage is an ephemeral chat line appended to the local log.
type ChatMessage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

var (
	ErrUnknownKind = errors.New("protocol: unknown event kind")
	ErrMalformed   = errors.New("protocol: malformed event")
)

// Decode parses and validates a raw frame. Anything missing its
// required fields comes back as ErrMalformed so the caller can drop it
// at the boundary without touching state.
func Decode(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, ErrMalformed
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Validate checks the kind-specific required fields.
func (ev *Event) Validate() error {
	if Authoritative(ev.Kind) && ev.Timestamp <= 0 {
		return ErrMalformed
	}
	switch ev.Kind {
	case KindState:
		if ev.State == nil || !ev.State.ValidOrder() {
			return ErrMalformed
		}
	case KindImage:
		if ev.Ref == "" {
			return ErrMalformed
		}
	case KindSwap:
		if !validPermutation(ev.Order) {
			return ErrMalformed
		}
	case KindChat:
		if ev.Message == nil || ev.Message.Text == "" {
			return ErrMalformed
		}
	case KindHello:
		if ev.Who == "" {
			return ErrMalformed
		}
	case KindReshuffle:
		if ev.Seed == 0 {
			return ErrMalformed
		}
	case KindGridChange:
		if ev.Grid < 2 {
			return ErrMalformed
		}
	case KindSelect, KindPing, KindReset, KindComplete:
		// no extra required fields
	default:
		return ErrUnknownKind
	}
	return nil
}

// validPermutation reports whether order is a permutation of
// 0..len-1. A swap carrying anything else would corrupt the canonical
// tile order of everyone who adopts it.
func validPermutation(order []int) bool {
	if len(order) == 0 {
		return false
	}
	seen := make([]bool, len(order))
	for _, v := range order {
		if v < 0 || v >= len(order) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Encode marshals the event for the wire.
func (ev *Event) Encode() ([]byte, error) {
	return json.Marshal(ev)
}
