package puzzle

import "time"

// State is the canonical shared puzzle view. It is replaced wholesale
// by accepted authoritative events, never merged field by field.
type State struct {
	ImageRef    string `json:"image_ref"`
	GridSize    int    `json:"grid_size"`
	TileOrder   []int  `json:"tile_order"`
	MoveCount   int    `json:"move_count"`
	StartedAt   int64  `json:"started_at,omitempty"`   // unix ms, 0 = not started
	CompletedAt int64  `json:"completed_at,omitempty"` // unix ms, 0 = unsolved
}

// New creates a freshly shuffled state for the given image and grid.
func New(imageRef string, gridSize int, seed int64) *State {
	return &State{
		ImageRef:  imageRef,
		GridSize:  gridSize,
		TileOrder: Shuffle(gridSize*gridSize, seed),
		StartedAt: time.Now().UnixMilli(),
	}
}

// Clone returns a deep copy so optimistic local mutation never aliases
// the canonical slice.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.TileOrder = append([]int(nil), s.TileOrder...)
	return &c
}

// Solved reports whether the tile order is the identity permutation.
// An empty order is not solved: there is no puzzle yet.
func (s *State) Solved() bool {
	if s == nil || len(s.TileOrder) == 0 {
		return false
	}
	return isIdentity(s.TileOrder)
}

// ValidOrder reports whether TileOrder is a permutation of
// 0..GridSize^2-1. Inbound snapshots failing this are malformed.
func (s *State) ValidOrder() bool {
	n := s.GridSize * s.GridSize
	if len(s.TileOrder) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range s.TileOrder {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Swap exchanges the tiles at slots i and j and bumps the move count.
func (s *State) Swap(i, j int) {
	s.TileOrder[i], s.TileOrder[j] = s.TileOrder[j], s.TileOrder[i]
	s.MoveCount++
}
