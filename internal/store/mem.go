package store

import (
	"sync"
	"time"

	"github.com/applyflow/applyflow/internal/model"
)

// Ensure MemStore implements model.Store.
var _ model.Store = (*MemStore)(nil)

// MemStore is an in-memory store used in dry-run mode and tests. Nothing
// survives process exit. All methods are safe for concurrent use; quota
// increment-and-check runs under the same lock as everything else.
type MemStore struct {
	mu       sync.Mutex
	postings map[string]model.Posting
	records  map[string]model.ApplicationRecord
	order    []string // record ids in insertion order
	scores   map[string]model.CompatibilityScore
	quota    map[string]int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		postings: make(map[string]model.Posting),
		records:  make(map[string]model.ApplicationRecord),
		scores:   make(map[string]model.CompatibilityScore),
		quota:    make(map[string]int),
	}
}

func (s *MemStore) PutPosting(p model.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.postings[p.ID]; ok {
		existing.LastSeenAt = p.LastSeenAt
		s.postings[p.ID] = existing
		return nil
	}
	s.postings[p.ID] = p
	return nil
}

func (s *MemStore) GetPosting(id string) (*model.Posting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.postings[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *MemStore) EvictPostings(olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	n := 0
	for id, p := range s.postings {
		if p.LastSeenAt.Before(cutoff) {
			delete(s.postings, id)
			n++
		}
	}
	return n, nil
}

func (s *MemStore) PutRecord(r *model.ApplicationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := 0
	for _, t := range r.Transitions {
		if t.To == model.StateApplied {
			applied++
		}
	}
	if applied > 1 {
		return model.ErrAlreadyApplied
	}
	if _, ok := s.records[r.ID]; !ok {
		s.order = append(s.order, r.ID)
	}
	s.records[r.ID] = *r
	return nil
}

func (s *MemStore) GetRecord(id string) (*model.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *MemStore) ActiveRecord(postingID string) (*model.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.records[s.order[i]]
		if r.PostingID == postingID && r.State.Active() {
			return &r, nil
		}
	}
	return nil, nil
}

func (s *MemStore) LatestRecord(postingID string) (*model.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *model.ApplicationRecord
	for _, id := range s.order {
		r := s.records[id]
		if r.PostingID != postingID {
			continue
		}
		if latest == nil || !r.UpdatedAt.Before(latest.UpdatedAt) {
			cp := r
			latest = &cp
		}
	}
	return latest, nil
}

func (s *MemStore) ListRecords(f model.HistoryFilter) ([]model.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ApplicationRecord
	// Newest first.
	for i := len(s.order) - 1; i >= 0; i-- {
		r := s.records[s.order[i]]
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemStore) PutScore(postingID, fingerprint string, score *model.CompatibilityScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[postingID+"|"+fingerprint] = *score
	return nil
}

func (s *MemStore) GetScore(postingID, fingerprint string) (*model.CompatibilityScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc, ok := s.scores[postingID+"|"+fingerprint]; ok {
		return &sc, nil
	}
	return nil, nil
}

func (s *MemStore) QuotaConsumed(day string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quota[day], nil
}

func (s *MemStore) ConsumeQuota(day string, max int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota[day] >= max {
		return false, nil
	}
	s.quota[day]++
	return true, nil
}

func (s *MemStore) Close() error { return nil }
