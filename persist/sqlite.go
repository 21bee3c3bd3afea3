package persist

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/samber/lo"
)

const kvTable = "_rally_kv"

type kvRow struct {
	Value     []byte `db:"value"`
	ExpiresAt int64  `db:"expires_at"`
}

// SQLStore keeps entries in a SQL table through dbx. In the server it shares
// the pocketbase data database.
type SQLStore struct {
	db         dbx.Builder
	defaultTTL time.Duration
	now        func() time.Time
}

func NewSQLStore(db dbx.Builder, defaultTTL time.Duration) (*SQLStore, error) {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	s := &SQLStore{db: db, defaultTTL: defaultTTL, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) ensureSchema() error {
	_, err := s.db.NewQuery(`
		CREATE TABLE IF NOT EXISTS {{` + kvTable + `}} (
			[[key]]        TEXT PRIMARY KEY NOT NULL,
			[[value]]      BLOB NOT NULL,
			[[expires_at]] INTEGER NOT NULL
		)
	`).Execute()
	return err
}

func (s *SQLStore) Get(key string) ([]byte, bool, error) {
	var row kvRow
	err := s.db.Select("value", "expires_at").
		From(kvTable).
		Where(dbx.HashExp{"key": key}).
		One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if row.ExpiresAt <= s.now().UnixMilli() {
		return nil, false, s.Delete(key)
	}
	return row.Value, true, nil
}

func (s *SQLStore) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	_, err := s.db.NewQuery(`
		INSERT INTO {{` + kvTable + `}} ([[key]], [[value]], [[expires_at]])
		VALUES ({:key}, {:value}, {:expires_at})
		ON CONFLICT([[key]]) DO UPDATE SET
			[[value]] = excluded.[[value]],
			[[expires_at]] = excluded.[[expires_at]]
	`).Bind(dbx.Params{
		"key":        key,
		"value":      value,
		"expires_at": s.now().Add(ttl).UnixMilli(),
	}).Execute()
	return err
}

func (s *SQLStore) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := s.db.Delete(kvTable, dbx.In("key", lo.ToAnySlice(keys)...)).Execute()
	return err
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (s *SQLStore) PurgeExpired() (int64, error) {
	res, err := s.db.Delete(kvTable, dbx.NewExp(
		"[[expires_at]] <= {:now}",
		dbx.Params{"now": s.now().UnixMilli()},
	)).Execute()
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
