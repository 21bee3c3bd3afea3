package persist

import (
	"encoding/json"
	"time"
)

var now = time.Now

type envelope[T any] struct {
	Value   T     `json:"value"`
	SavedAt int64 `json:"savedAt"`
}

// SaveWithTTL stores value together with the time it was saved.
func SaveWithTTL[T any](s Store, key string, value T, ttl time.Duration) error {
	data, err := json.Marshal(envelope[T]{Value: value, SavedAt: now().UnixMilli()})
	if err != nil {
		return err
	}
	return s.Set(key, data, ttl)
}

// LoadWithTTL returns the value saved under key. Entries older than ttl and
// entries that no longer decode are deleted and reported as missing.
func LoadWithTTL[T any](s Store, key string, ttl time.Duration) (T, bool, error) {
	var zero T

	data, ok, err := s.Get(key)
	if err != nil || !ok {
		return zero, false, err
	}

	var env envelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		return zero, false, s.Delete(key)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now().UnixMilli()-env.SavedAt > ttl.Milliseconds() {
		return zero, false, s.Delete(key)
	}

	return env.Value, true, nil
}

func ClearKeys(s Store, keys ...string) error {
	return s.Delete(keys...)
}
