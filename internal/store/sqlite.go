// Package store persists postings, application records, cached scores, and
// daily quotas in SQLite. Records are written as whole JSON payloads under a
// primary key, so every write is an atomic replace: readers never observe a
// partially written record.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/applyflow/applyflow/internal/model"
)

// Ensure SQLiteStore implements model.Store.
var _ model.Store = (*SQLiteStore)(nil)

// SQLiteStore is the persistent store backing the orchestrator.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// all tables exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	// The quota conditional update relies on a single writer at a time.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS postings (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			company      TEXT,
			location     TEXT,
			description  TEXT,
			source_query TEXT,
			first_seen   DATETIME NOT NULL,
			last_seen    DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			id         TEXT PRIMARY KEY,
			posting_id TEXT NOT NULL,
			state      TEXT NOT NULL,
			payload    TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_posting ON records (posting_id, updated_at)`,
		`CREATE TABLE IF NOT EXISTS score_cache (
			posting_id  TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			payload     TEXT NOT NULL,
			PRIMARY KEY (posting_id, fingerprint)
		)`,
		`CREATE TABLE IF NOT EXISTS daily_quota (
			day      TEXT PRIMARY KEY,
			consumed INTEGER NOT NULL DEFAULT 0
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// PutPosting inserts a posting or refreshes last_seen on re-discovery. The
// cached attributes stay immutable after first sight.
func (s *SQLiteStore) PutPosting(p model.Posting) error {
	_, err := s.db.Exec(`INSERT INTO postings
		(id, title, company, location, description, source_query, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_seen = excluded.last_seen`,
		p.ID, p.Title, p.Company, p.Location, p.Description, p.SourceQuery,
		p.FirstSeenAt, p.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("putting posting %s: %w", p.ID, err)
	}
	return nil
}

// GetPosting returns the cached posting, or nil if absent.
func (s *SQLiteStore) GetPosting(id string) (*model.Posting, error) {
	var p model.Posting
	err := s.db.QueryRow(`SELECT id, title, company, location, description,
		source_query, first_seen, last_seen FROM postings WHERE id = ?`, id).
		Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.Description,
			&p.SourceQuery, &p.FirstSeenAt, &p.LastSeenAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting posting %s: %w", id, err)
	}
	return &p, nil
}

// EvictPostings deletes cached postings not seen within the TTL and returns
// how many were removed.
func (s *SQLiteStore) EvictPostings(olderThan time.Duration) (int, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := s.db.Exec("DELETE FROM postings WHERE last_seen < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("evicting postings older than %v: %w", olderThan, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("evicting postings: rows affected: %w", err)
	}
	return int(n), nil
}

// PutRecord atomically replaces the stored record. A payload carrying more
// than one Applied transition is rejected so an affirmative submission can
// never be double-counted, even by a buggy caller.
func (s *SQLiteStore) PutRecord(r *model.ApplicationRecord) error {
	applied := 0
	for _, t := range r.Transitions {
		if t.To == model.StateApplied {
			applied++
		}
	}
	if applied > 1 {
		return fmt.Errorf("putting record %s: %w", r.ID, model.ErrAlreadyApplied)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling record %s: %w", r.ID, err)
	}
	_, err = s.db.Exec(`INSERT INTO records (id, posting_id, state, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			state = excluded.state,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		r.ID, r.PostingID, string(r.State), string(payload), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("putting record %s: %w", r.ID, err)
	}
	return nil
}

// GetRecord returns the record with the given attempt id, or nil if absent.
func (s *SQLiteStore) GetRecord(id string) (*model.ApplicationRecord, error) {
	return s.scanRecord(`SELECT payload FROM records WHERE id = ?`, id)
}

// ActiveRecord returns the non-terminal record for a posting, or nil when
// none is in flight. At most one active record per posting id exists.
func (s *SQLiteStore) ActiveRecord(postingID string) (*model.ApplicationRecord, error) {
	return s.scanRecord(`SELECT payload FROM records
		WHERE posting_id = ? AND state NOT IN (?, ?)
		ORDER BY updated_at DESC LIMIT 1`,
		postingID, string(model.StateRejected), string(model.StateTracked))
}

// LatestRecord returns the most recently updated record for a posting,
// terminal or not, or nil when the posting was never processed.
func (s *SQLiteStore) LatestRecord(postingID string) (*model.ApplicationRecord, error) {
	return s.scanRecord(`SELECT payload FROM records
		WHERE posting_id = ? ORDER BY updated_at DESC LIMIT 1`, postingID)
}

func (s *SQLiteStore) scanRecord(query string, args ...any) (*model.ApplicationRecord, error) {
	var payload string
	err := s.db.QueryRow(query, args...).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}
	var r model.ApplicationRecord
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("unmarshaling record: %w", err)
	}
	return &r, nil
}

// ListRecords returns records matching the filter, newest first.
func (s *SQLiteStore) ListRecords(f model.HistoryFilter) ([]model.ApplicationRecord, error) {
	rows, err := s.db.Query(`SELECT payload FROM records ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []model.ApplicationRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("listing records: scan: %w", err)
		}
		var r model.ApplicationRecord
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("listing records: unmarshal: %w", err)
		}
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, rows.Err()
}

// PutScore caches a compatibility score keyed by posting id and resume
// fingerprint.
func (s *SQLiteStore) PutScore(postingID, fingerprint string, score *model.CompatibilityScore) error {
	payload, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("marshaling score for %s: %w", postingID, err)
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO score_cache (posting_id, fingerprint, payload)
		VALUES (?, ?, ?)`, postingID, fingerprint, string(payload))
	if err != nil {
		return fmt.Errorf("putting score for %s: %w", postingID, err)
	}
	return nil
}

// GetScore returns the cached score for (posting id, fingerprint), or nil
// on a cache miss.
func (s *SQLiteStore) GetScore(postingID, fingerprint string) (*model.CompatibilityScore, error) {
	var payload string
	err := s.db.QueryRow(`SELECT payload FROM score_cache
		WHERE posting_id = ? AND fingerprint = ?`, postingID, fingerprint).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting score for %s: %w", postingID, err)
	}
	var score model.CompatibilityScore
	if err := json.Unmarshal([]byte(payload), &score); err != nil {
		return nil, fmt.Errorf("unmarshaling score for %s: %w", postingID, err)
	}
	return &score, nil
}

// QuotaConsumed returns the number of applications recorded for the day.
// A day with no row has consumed zero.
func (s *SQLiteStore) QuotaConsumed(day string) (int, error) {
	var consumed int
	err := s.db.QueryRow(`SELECT consumed FROM daily_quota WHERE day = ?`, day).Scan(&consumed)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading quota for %s: %w", day, err)
	}
	return consumed, nil
}

// ConsumeQuota atomically increments the day's counter only while
// consumed < max. The conditional UPDATE is the single source of truth for
// the quota invariant: it can never push consumed past max, regardless of
// interleaving.
func (s *SQLiteStore) ConsumeQuota(day string, max int) (bool, error) {
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO daily_quota (day, consumed) VALUES (?, 0)`, day); err != nil {
		return false, fmt.Errorf("initializing quota for %s: %w", day, err)
	}
	res, err := s.db.Exec(`UPDATE daily_quota SET consumed = consumed + 1
		WHERE day = ? AND consumed < ?`, day, max)
	if err != nil {
		return false, fmt.Errorf("consuming quota for %s: %w", day, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consuming quota for %s: rows affected: %w", day, err)
	}
	return n > 0, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
