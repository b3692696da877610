package model

import "time"

// HistoryFilter narrows a QueryHistory call. Zero values match everything.
type HistoryFilter struct {
	PostingID string
	States    []State
	Since     time.Time
}

// Matches reports whether a record passes the filter.
func (f HistoryFilter) Matches(r ApplicationRecord) bool {
	if f.PostingID != "" && r.PostingID != f.PostingID {
		return false
	}
	if !f.Since.IsZero() && r.UpdatedAt.Before(f.Since) {
		return false
	}
	if len(f.States) > 0 {
		ok := false
		for _, s := range f.States {
			if r.State == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// QuotaDay formats a time as the local calendar-day key used by the
// daily quota.
func QuotaDay(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// Store is the persistent map of typed records with atomic replace
// semantics. A single store instance is assumed; no cross-process
// coordination is required.
type Store interface {
	// Postings cache.
	PutPosting(p Posting) error
	GetPosting(id string) (*Posting, error)
	EvictPostings(olderThan time.Duration) (int, error)

	// Application records, keyed by attempt id. Writes are atomic replaces;
	// PutRecord rejects a record carrying more than one Applied entry.
	PutRecord(r *ApplicationRecord) error
	GetRecord(id string) (*ApplicationRecord, error)
	ActiveRecord(postingID string) (*ApplicationRecord, error)
	LatestRecord(postingID string) (*ApplicationRecord, error)
	ListRecords(f HistoryFilter) ([]ApplicationRecord, error)

	// Compatibility score cache keyed by (posting id, resume fingerprint).
	PutScore(postingID, fingerprint string, s *CompatibilityScore) error
	GetScore(postingID, fingerprint string) (*CompatibilityScore, error)

	// Daily quota. ConsumeQuota atomically increments the day's counter
	// only while consumed < max, reporting whether the increment happened.
	QuotaConsumed(day string) (int, error)
	ConsumeQuota(day string, max int) (bool, error)

	Close() error
}
