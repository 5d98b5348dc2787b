package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"celerdev/interview"
)

// Store keeps transcripts and profiles in process memory.
type Store struct {
	mu       sync.RWMutex
	turns    map[interview.SessionID][]interview.Turn
	profiles map[profileKey]profileEntry
}

type profileKey struct {
	userID interview.UserID
	field  interview.ProfileField
}

type profileEntry struct {
	blob        interview.Profile
	lastUpdated time.Time
}

func NewStore() *Store {
	return &Store{
		turns:    make(map[interview.SessionID][]interview.Turn),
		profiles: make(map[profileKey]profileEntry),
	}
}

func (s *Store) AppendTurn(_ context.Context, sessionID interview.SessionID, turn interview.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns[sessionID] = append(s.turns[sessionID], turn)
	return nil
}

func (s *Store) RecentTurns(_ context.Context, sessionID interview.SessionID, limit int) ([]interview.Turn, error) {
	s.mu.RLock()
	ordered := slices.Clone(s.turns[sessionID])
	s.mu.RUnlock()

	// Stable sort keeps write order for equal timestamps.
	slices.SortStableFunc(ordered, func(a, b interview.Turn) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}
	slices.Reverse(ordered)
	return ordered, nil
}

func (s *Store) MergeProfile(_ context.Context, userID interview.UserID, field interview.ProfileField, blob interview.Profile, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := profileKey{userID: userID, field: field}
	current := s.profiles[key]
	s.profiles[key] = profileEntry{
		blob:        interview.MergeProfile(current.blob, blob),
		lastUpdated: updatedAt,
	}
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID interview.UserID, field interview.ProfileField) (interview.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.profiles[profileKey{userID: userID, field: field}]
	if !ok {
		return nil, nil
	}
	return interview.MergeProfile(nil, entry.blob), nil
}

// LastUpdated reports when a profile field was last synced.
func (s *Store) LastUpdated(userID interview.UserID, field interview.ProfileField) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.profiles[profileKey{userID: userID, field: field}]
	return entry.lastUpdated, ok
}
