// Package source provides posting sources. The file source reads postings
// from a local JSON file, which is how dry runs and tests feed the pipeline;
// real network fetchers are deliberately not part of this system.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/applyflow/applyflow/internal/model"
)

// Ensure FileSource implements model.PostingSource.
var _ model.PostingSource = (*FileSource)(nil)

// FileSource reads job postings from a JSON file: an array of objects with
// id, title, company, location, and description fields.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource returns a source backed by the JSON file at path.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// filePosting is the JSON shape of one posting in the file.
type filePosting struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Search loads the file and returns postings matching the query. A posting
// matches when any query keyword appears in its title or description and the
// location matches (empty query location matches everything). Results are
// capped at q.MaxResults.
func (s *FileSource) Search(_ context.Context, q model.SearchQuery) ([]model.Posting, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading postings file: %w", err)
	}

	var raw []filePosting
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing postings file %s: %w", s.path, err)
	}

	now := time.Now()
	sourceQuery := strings.Join(q.Keywords, " ")

	var out []model.Posting
	for _, fp := range raw {
		if !matches(fp, q) {
			continue
		}
		out = append(out, model.Posting{
			ID:          fp.ID,
			Title:       fp.Title,
			Company:     fp.Company,
			Location:    fp.Location,
			Description: fp.Description,
			SourceQuery: sourceQuery,
			FirstSeenAt: now,
			LastSeenAt:  now,
		})
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			break
		}
	}

	s.logger.Debug("file source searched",
		"path", s.path,
		"total", len(raw),
		"matched", len(out),
	)
	return out, nil
}

func matches(fp filePosting, q model.SearchQuery) bool {
	if q.Location != "" {
		if !strings.Contains(strings.ToLower(fp.Location), strings.ToLower(q.Location)) {
			return false
		}
	}
	if len(q.Keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(fp.Title + " " + fp.Description)
	for _, kw := range q.Keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
