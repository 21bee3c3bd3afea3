package persist

import (
	"testing"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"rally/trips"
)

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()

	db, err := dbx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewSQLStore(db, time.Hour)
	require.NoError(t, err)
	return store
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(time.Hour, time.Minute),
		"sqlite": newSQLStore(t),
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set("a", []byte("one"), 0))
			require.NoError(t, store.Set("b", []byte("two"), time.Minute))
			require.NoError(t, store.Set("a", []byte("uno"), 0))

			got, ok, err := store.Get("a")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "uno", string(got))

			require.NoError(t, store.Delete("a", "b", "never-set"))
			_, ok, err = store.Get("b")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Delete())
		})
	}
}

func TestMemoryStore_Expires(t *testing.T) {
	store := NewMemoryStore(time.Hour, 0)
	require.NoError(t, store.Set("k", []byte("v"), 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)
	_, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLStore_Expires(t *testing.T) {
	store := newSQLStore(t)
	clock := time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	require.NoError(t, store.Set("short", []byte("v"), time.Minute))
	require.NoError(t, store.Set("long", []byte("v"), 0))

	clock = clock.Add(2 * time.Minute)
	_, ok, err := store.Get("short")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get("long")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Set("short2", []byte("v"), time.Minute))
	clock = clock.Add(2 * time.Minute)
	purged, err := store.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

func withClock(t *testing.T, at time.Time) *time.Time {
	t.Helper()
	clock := at
	now = func() time.Time { return clock }
	t.Cleanup(func() { now = time.Now })
	return &clock
}

func TestLoadWithTTL(t *testing.T) {
	clock := withClock(t, time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(time.Hour, 0)

	require.NoError(t, SaveWithTTL(store, "inputs", trips.TripFormInputs{Origin: "JFK"}, 0))

	got, ok, err := LoadWithTTL[trips.TripFormInputs](store, "inputs", 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "JFK", got.Origin)

	*clock = clock.Add(25 * time.Hour)
	_, ok, err = LoadWithTTL[trips.TripFormInputs](store, "inputs", 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	_, present, _ := store.Get("inputs")
	assert.False(t, present)
}

func TestLoadWithTTL_DropsCorruptEntries(t *testing.T) {
	store := NewMemoryStore(time.Hour, 0)
	require.NoError(t, store.Set("prefs", []byte("{not json"), 0))

	_, ok, err := LoadWithTTL[trips.TripPrefs](store, "prefs", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	_, present, _ := store.Get("prefs")
	assert.False(t, present)
}

func TestSession(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			sessions := NewSessions(store, 0)
			alice := sessions.Get("alice")
			bob := sessions.Get("bob")

			_, ok, err := alice.TripID()
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, alice.SetTripID("t-1"))
			id, ok, err := alice.TripID()
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "t-1", id)

			_, ok, err = bob.TripID()
			require.NoError(t, err)
			assert.False(t, ok)

			prefs, err := alice.Prefs()
			require.NoError(t, err)
			assert.Equal(t, []string{}, prefs.LikedBlockIDs)

			prefs, err = alice.ToggleLike("b1")
			require.NoError(t, err)
			assert.Equal(t, []string{"b1"}, prefs.LikedBlockIDs)

			prefs, err = alice.Prefs()
			require.NoError(t, err)
			assert.True(t, prefs.IsLiked("b1"))

			require.NoError(t, alice.SaveInputs(trips.TripFormInputs{Origin: "JFK", Destinations: []string{"CDG"}}))
			inputs, ok, err := alice.Inputs()
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, []string{"CDG"}, inputs.Destinations)

			require.NoError(t, store.Set("alice:"+KeyTripPlan, []byte(`{}`), 0))
			require.NoError(t, alice.Clear())

			_, ok, err = alice.TripID()
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = alice.Inputs()
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = store.Get("alice:" + KeyTripPlan)
			require.NoError(t, err)
			assert.False(t, ok)

			prefs, err = alice.Prefs()
			require.NoError(t, err)
			assert.Empty(t, prefs.LikedBlockIDs)
		})
	}
}
