package persist

import (
	"sync"
	"time"

	"rally/trips"
)

// Sessions hands out namespaced views of one store.
type Sessions struct {
	store Store
	ttl   time.Duration
	mu    sync.Mutex
}

func NewSessions(store Store, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Sessions{store: store, ttl: ttl}
}

func (m *Sessions) Get(namespace string) *Session {
	return &Session{store: m.store, namespace: namespace, ttl: m.ttl, mu: &m.mu}
}

// Session is the saved state of one client: the current trip id, its
// preferences and the last submitted form inputs.
type Session struct {
	store     Store
	namespace string
	ttl       time.Duration
	mu        *sync.Mutex
}

func (s *Session) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + ":" + name
}

func (s *Session) TripID() (string, bool, error) {
	id, ok, err := LoadWithTTL[string](s.store, s.key(KeyTripID), s.ttl)
	if err != nil || !ok || id == "" {
		return "", false, err
	}
	return id, true, nil
}

func (s *Session) SetTripID(tripID string) error {
	return SaveWithTTL(s.store, s.key(KeyTripID), tripID, s.ttl)
}

func (s *Session) Prefs() (trips.TripPrefs, error) {
	prefs, ok, err := LoadWithTTL[trips.TripPrefs](s.store, s.key(KeyPrefs), s.ttl)
	if err != nil {
		return trips.TripPrefs{}, err
	}
	if !ok || prefs.LikedBlockIDs == nil {
		prefs.LikedBlockIDs = []string{}
	}
	return prefs, nil
}

func (s *Session) SavePrefs(prefs trips.TripPrefs) error {
	return SaveWithTTL(s.store, s.key(KeyPrefs), prefs, s.ttl)
}

// ToggleLike flips the liked state of a block and saves the result.
func (s *Session) ToggleLike(blockID string) (trips.TripPrefs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.Prefs()
	if err != nil {
		return trips.TripPrefs{}, err
	}
	next := prefs.ToggleLike(blockID)
	if err := s.SavePrefs(next); err != nil {
		return trips.TripPrefs{}, err
	}
	return next, nil
}

func (s *Session) Inputs() (trips.TripFormInputs, bool, error) {
	return LoadWithTTL[trips.TripFormInputs](s.store, s.key(KeyInputs), s.ttl)
}

func (s *Session) SaveInputs(inputs trips.TripFormInputs) error {
	return SaveWithTTL(s.store, s.key(KeyInputs), inputs, s.ttl)
}

// Clear forgets everything saved for this session, including the trip plan
// key older clients wrote.
func (s *Session) Clear() error {
	return ClearKeys(s.store,
		s.key(KeyTripID),
		s.key(KeyPrefs),
		s.key(KeyInputs),
		s.key(KeyTripPlan),
	)
}
