package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// BestScore is a purely local per-grid-size record. It is never
// synchronized between peers.
type BestScore struct {
	Time  int64 `json:"time"` // solve duration, ms
	Moves int   `json:"moves"`
}

type storeData struct {
	Name       string               `json:"name,omitempty"`
	HostClaims map[string]bool      `json:"host_claims,omitempty"` // room id -> claimed
	Best       map[string]BestScore `json:"best,omitempty"`        // grid size -> record
}

// Store persists the local records the protocol needs across sessions:
// display name, per-room host claim and per-grid best scores. One JSON
// file, rewritten on every mutation.
type Store struct {
	mu   sync.Mutex
	path string
	data storeData
}

// OpenStore loads (or initializes) the store at dir/session.json.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &Store{path: filepath.Join(dir, "session.json")}
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		// corrupt store: start over rather than refuse to run
		s.data = storeData{}
	}
	return s, nil
}

func (s *Store) flush() error {
	b, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}

// Name returns the persisted display name, if any.
func (s *Store) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Name
}

// SetName persists the display name.
func (s *Store) SetName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Name = name
	return s.flush()
}

// ClaimHost implements the first-joiner heuristic: if no host marker
// exists for roomID it is written and true is returned; otherwise the
// caller is a guest. Local only, not consensus.
func (s *Store) ClaimHost(roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data.HostClaims[roomID] {
		return false, nil
	}
	if s.data.HostClaims == nil {
		s.data.HostClaims = make(map[string]bool)
	}
	s.data.HostClaims[roomID] = true
	return true, s.flush()
}

// Best returns the stored record for a grid size, if any.
func (s *Store) Best(gridSize int) (BestScore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.data.Best[strconv.Itoa(gridSize)]
	return sc, ok
}

// RecordBest stores score for gridSize when it beats the existing
// record (fewer moves, time as tiebreak). Returns true when stored.
func (s *Store) RecordBest(gridSize int, score BestScore) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strconv.Itoa(gridSize)
	if cur, ok := s.data.Best[key]; ok {
		if cur.Moves < score.Moves || (cur.Moves == score.Moves && cur.Time <= score.Time) {
			return false, nil
		}
	}
	if s.data.Best == nil {
		s.data.Best = make(map[string]BestScore)
	}
	s.data.Best[key] = score
	return true, s.flush()
}
