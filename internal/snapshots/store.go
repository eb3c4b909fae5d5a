// Package snapshots caches analysis results in the cache database so
// repeat requests with identical inputs skip recomputation until the
// snapshot expires.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Store is a msgpack-encoded TTL cache keyed by caller-supplied string
type Store struct {
	db  *sql.DB
	ttl time.Duration
	log zerolog.Logger
}

// NewStore creates a snapshot store over the cache database
func NewStore(db *sql.DB, ttl time.Duration, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		ttl: ttl,
		log: log.With().Str("repository", "snapshots").Logger(),
	}
}

// Put encodes and stores a snapshot, replacing any existing one under the
// same key. Expiry is set from the store's TTL.
func (s *Store) Put(key string, value interface{}) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	expiresAt := time.Now().Add(s.ttl).Unix()
	_, err = s.db.Exec(`
		INSERT INTO analysis_snapshots (cache_key, data, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at
	`, key, data, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.log.Debug().Str("key", key).Int("bytes", len(data)).Msg("Snapshot stored")
	return nil
}

// Get decodes the snapshot stored under key into out. Returns false when
// no snapshot exists or the stored one has expired.
func (s *Store) Get(key string, out interface{}) (bool, error) {
	var data []byte
	var expiresAt int64
	err := s.db.QueryRow(`
		SELECT data, expires_at FROM analysis_snapshots WHERE cache_key = ?
	`, key).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if time.Now().Unix() >= expiresAt {
		return false, nil
	}

	if err := msgpack.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return true, nil
}

// Delete removes the snapshot stored under key if present
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM analysis_snapshots WHERE cache_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// CleanupExpired deletes all expired snapshots and returns how many were
// removed. Wired to an hourly scheduler job.
func (s *Store) CleanupExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM analysis_snapshots WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup snapshots: %w", err)
	}

	removed, _ := result.RowsAffected()
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("Expired snapshots cleaned up")
	}
	return removed, nil
}
