package session

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Identity is the local session's view of who it is in a room. IsHost
// is a heuristic claim recorded by the first local join of a room, not
// a globally unique role: two clients racing into an empty room can
// both believe they are host (the reconciler's timestamp rule settles
// whatever divergent state that produces).
type Identity struct {
	RoomID          string
	ParticipantName string
	IsHost          bool
}

// NewRoomID mints an opaque room identifier.
func NewRoomID() string {
	return uuid.NewString()
}

// RoomURL builds a shareable locator embedding the room id.
func RoomURL(base, roomID string) string {
	return strings.TrimRight(base, "/") + "/#" + roomID
}

var errNoRoom = errors.New("session: locator carries no room id")

// ParseRoomLocator extracts the room id from a shareable locator. A
// bare id is accepted as-is.
func ParseRoomLocator(loc string) (string, error) {
	loc = strings.TrimSpace(loc)
	if i := strings.LastIndex(loc, "#"); i >= 0 {
		loc = loc[i+1:]
	}
	if loc == "" {
		return "", errNoRoom
	}
	return loc, nil
}
