package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/applyflow/applyflow/internal/model"
)

// Stats summarizes application outcomes over a window.
type Stats struct {
	Total       int
	ByState     map[model.State]int
	Applied     int
	Failed      int
	Rejected    int
	SuccessRate float64 // applied / (applied + failed), 0 when neither
}

// Stats computes outcome statistics for records updated since the given
// time. A zero since covers all history.
func (o *Orchestrator) Stats(_ context.Context, since time.Time) (Stats, error) {
	records, err := o.store.ListRecords(model.HistoryFilter{Since: since})
	if err != nil {
		return Stats{}, fmt.Errorf("computing stats: %w", err)
	}
	return ComputeStats(records), nil
}

// ComputeStats summarizes a slice of records. Applied and Failed are counted
// from the transition log, so records that have moved on to Tracked still
// count.
func ComputeStats(records []model.ApplicationRecord) Stats {
	s := Stats{ByState: make(map[model.State]int)}
	for _, r := range records {
		s.Total++
		s.ByState[r.State]++
		if r.HasReached(model.StateApplied) {
			s.Applied++
		}
		if r.HasReached(model.StateFailed) {
			s.Failed++
		}
		if r.State == model.StateRejected {
			s.Rejected++
		}
	}
	if s.Applied+s.Failed > 0 {
		s.SuccessRate = float64(s.Applied) / float64(s.Applied+s.Failed)
	}
	return s
}
