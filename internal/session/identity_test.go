package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomLocatorRoundTrip(t *testing.T) {
	roomID := NewRoomID()
	url := RoomURL("https://puzzle.example/", roomID)
	require.Equal(t, "https://puzzle.example/#"+roomID, url)

	got, err := ParseRoomLocator(url)
	require.NoError(t, err)
	require.Equal(t, roomID, got)
}

func TestParseRoomLocatorBareID(t *testing.T) {
	got, err := ParseRoomLocator("  my-room  ")
	require.NoError(t, err)
	require.Equal(t, "my-room", got)
}

func TestParseRoomLocatorEmpty(t *testing.T) {
	_, err := ParseRoomLocator("https://puzzle.example/#")
	require.Error(t, err)
	_, err = ParseRoomLocator("")
	require.Error(t, err)
}

func TestNewRoomIDsAreUnique(t *testing.T) {
	require.NotEqual(t, NewRoomID(), NewRoomID())
}
