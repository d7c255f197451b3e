package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClaimHostFirstJoinerWins(t *testing.T) {
	s, err := OpenStore(t.TempDir())
	require.NoError(t, err)

	host, err := s.ClaimHost("room-a")
	require.NoError(t, err)
	require.True(t, host, "first claim takes the marker")

	host, err = s.ClaimHost("room-a")
	require.NoError(t, err)
	require.False(t, host, "marker already present, caller is a guest")

	host, err = s.ClaimHost("room-b")
	require.NoError(t, err)
	require.True(t, host, "claims are per room")
}

func TestHostClaimSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenStore(dir)
	require.NoError(t, err)
	_, err = s.ClaimHost("room-a")
	require.NoError(t, err)

	reopened, err := OpenStore(dir)
	require.NoError(t, err)
	host, err := reopened.ClaimHost("room-a")
	require.NoError(t, err)
	require.False(t, host)
}

func TestRecordBestKeepsTheBetterScore(t *testing.T) {
	s, err := OpenStore(t.TempDir())
	require.NoError(t, err)

	stored, err := s.RecordBest(3, BestScore{Time: 60_000, Moves: 40})
	require.NoError(t, err)
	require.True(t, stored)

	// worse on moves: rejected
	stored, err = s.RecordBest(3, BestScore{Time: 10_000, Moves: 50})
	require.NoError(t, err)
	require.False(t, stored)

	// same moves, faster: accepted
	stored, err = s.RecordBest(3, BestScore{Time: 50_000, Moves: 40})
	require.NoError(t, err)
	require.True(t, stored)

	best, ok := s.Best(3)
	require.True(t, ok)
	require.Equal(t, BestScore{Time: 50_000, Moves: 40}, best)

	_, ok = s.Best(4)
	require.False(t, ok, "scores are keyed per grid size")
}

func TestNamePersists(t *testing.T) {
	dir := t.TempDir()

	s, err := OpenStore(dir)
	require.NoError(t, err)
	require.Empty(t, s.Name())
	require.NoError(t, s.SetName("alice"))

	reopened, err := OpenStore(dir)
	require.NoError(t, err)
	require.Equal(t, "alice", reopened.Name())
}
