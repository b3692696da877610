// Package gate applies the eligibility policy: minimum match score, daily
// application quota, and duplicate suppression.
package gate

import (
	"time"

	"github.com/applyflow/applyflow/internal/model"
)

// Gate decides whether a scored posting proceeds toward application.
type Gate struct {
	MinimumMatchScore float64
	MaxPerDay         int
	// ReapplyCooldown is how long a terminal record blocks re-entry for the
	// same posting id. Zero disables the cool-down entirely.
	ReapplyCooldown time.Duration
}

// New returns a Gate with the given policy.
func New(minScore float64, maxPerDay int, cooldown time.Duration) *Gate {
	return &Gate{
		MinimumMatchScore: minScore,
		MaxPerDay:         maxPerDay,
		ReapplyCooldown:   cooldown,
	}
}

// Decision is the gate outcome. Reason is set only on rejection.
type Decision struct {
	Eligible bool
	Reason   string
}

// Decide evaluates the gate policy for one posting. active is the posting's
// in-flight record if any (excluding the record being decided); latest is
// the cool-down reference record: its most recent record that was not a
// duplicate rejection, so repeated duplicate sweeps never restart the
// clock. quotaConsumed is today's count at decision time — advisory only,
// the store's conditional increment enforces the hard limit at commit.
func (g *Gate) Decide(overall float64, quotaConsumed int, active, latest *model.ApplicationRecord, now time.Time) Decision {
	if active != nil {
		return Decision{Reason: model.ReasonDuplicate}
	}
	if latest != nil && g.ReapplyCooldown > 0 {
		if now.Sub(latest.UpdatedAt) < g.ReapplyCooldown {
			return Decision{Reason: model.ReasonDuplicate}
		}
	}
	if overall < g.MinimumMatchScore {
		return Decision{Reason: model.ReasonBelowThreshold}
	}
	if quotaConsumed >= g.MaxPerDay {
		return Decision{Reason: model.ReasonQuotaExhausted}
	}
	return Decision{Eligible: true}
}

// QuotaExhausted reports whether today's quota leaves no room for another
// application.
func (g *Gate) QuotaExhausted(quotaConsumed int) bool {
	return quotaConsumed >= g.MaxPerDay
}
