// Package persist keeps small pieces of client state (the current trip id,
// liked blocks, the last form inputs) in an expiring key-value store.
package persist

import "time"

// DefaultTTL is how long saved client state lives.
const DefaultTTL = 30 * 24 * time.Hour

// Store is an expiring key-value store. A ttl <= 0 means the store's
// default expiry.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(keys ...string) error
}

// Storage keys. TripPlan is no longer written; it is only cleared.
const (
	KeyTripID   = "rally_trip_id_v2"
	KeyPrefs    = "rally_trip_prefs_v1"
	KeyInputs   = "rally_trip_inputs_v1"
	KeyTripPlan = "rally_trip_plan_v1"
)
