package model

import (
	"context"
	"strings"
	"time"
)

// Posting is a single job opening discovered from a posting source.
// Immutable once cached except for the LastSeenAt refresh.
type Posting struct {
	ID          string    // stable per source
	Title       string    // job title
	Company     string    // organization name
	Location    string    // location string
	Description string    // raw description text
	SourceQuery string    // the search query that found it
	FirstSeenAt time.Time // our clock (set on first encounter)
	LastSeenAt  time.Time // refreshed each time the source returns it
}

// Validate reports whether the posting carries the minimum fields the
// pipeline needs. Failures quarantine the posting rather than abort a batch.
func (p Posting) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return &ValidationError{Field: "id", Reason: "missing posting id"}
	}
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "missing title"}
	}
	if strings.TrimSpace(p.Description) == "" {
		return &ValidationError{Field: "description", Reason: "missing description text"}
	}
	return nil
}

// SearchQuery describes one posting search.
type SearchQuery struct {
	Keywords   []string
	Location   string
	MaxResults int
}

// PostingSource finds candidate postings. The returned slice is finite and
// not restartable; callers re-invoke Search for a fresh batch.
type PostingSource interface {
	Search(ctx context.Context, q SearchQuery) ([]Posting, error)
}

// Notifier reports finished application outcomes.
type Notifier interface {
	Notify(records []ApplicationRecord) error
}
