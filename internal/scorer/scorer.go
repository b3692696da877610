// Package scorer combines two profile vectors into a weighted
// multi-category compatibility score with a gap report. Scoring is pure and
// deterministic: the same inputs always produce a bit-identical result.
package scorer

import (
	"math"
	"sort"
	"strings"

	"github.com/applyflow/applyflow/internal/model"
)

// Category weights. They sum to 1.0; the overall score is their weighted
// sum clamped to [0,1].
const (
	weightTechnical  = 0.30
	weightExperience = 0.25
	weightKeywords   = 0.15
	weightMustHave   = 0.15
	weightSoftSkills = 0.15
)

// Scorer evaluates resume/posting compatibility.
type Scorer struct {
	// ExperienceGapYears is the shortfall at which the experience score
	// bottoms out. A resume this many years (or more) below the posting's
	// requirement scores 0; smaller shortfalls fall off linearly.
	ExperienceGapYears int
}

// New returns a Scorer with the given experience falloff window.
func New(experienceGapYears int) *Scorer {
	if experienceGapYears <= 0 {
		experienceGapYears = 4
	}
	return &Scorer{ExperienceGapYears: experienceGapYears}
}

// Score compares a resume vector against a posting vector plus the
// posting's must-have requirements. Pure function: no side effects, no
// clock reads, order-independent over all token sets.
func (s *Scorer) Score(resume, posting model.ProfileVector, mustHaves []string) model.CompatibilityScore {
	tech := overlapScore(keys(resume.TechSkills), posting.TechSkills)
	soft := softOverlapScore(resume.SoftSkills, posting.SoftSkills)
	exp := s.experienceScore(resume, posting)
	kw := keywordScore(resume.Keywords, posting.Keywords)
	must := mustHaveScore(resume, mustHaves)

	overall := clamp01(
		tech.Score*weightTechnical +
			exp.Score*weightExperience +
			kw.Score*weightKeywords +
			must.Score*weightMustHave +
			soft.Score*weightSoftSkills,
	)

	return model.CompatibilityScore{
		Overall:    overall,
		Technical:  tech,
		Experience: exp,
		Keywords:   kw,
		MustHave:   must,
		SoftSkills: soft,
		Tier:       model.TierFor(overall),
	}
}

// overlapScore is |intersection| / |posting set|, 1.0 when the posting set
// is empty. Missing items are sorted by posting-side weight descending.
func overlapScore(resumeSet map[string]bool, postingWeights map[string]float64) model.CategoryScore {
	if len(postingWeights) == 0 {
		return model.CategoryScore{Score: 1.0}
	}

	var matched, missing []string
	for token := range postingWeights {
		if resumeSet[token] {
			matched = append(matched, token)
		} else {
			missing = append(missing, token)
		}
	}
	sort.Strings(matched)
	sortByWeightDesc(missing, postingWeights)

	return model.CategoryScore{
		Score:   float64(len(matched)) / float64(len(postingWeights)),
		Matched: matched,
		Missing: missing,
	}
}

func softOverlapScore(resume, posting map[string]bool) model.CategoryScore {
	if len(posting) == 0 {
		return model.CategoryScore{Score: 1.0}
	}

	var matched, missing []string
	for token := range posting {
		if resume[token] {
			matched = append(matched, token)
		} else {
			missing = append(missing, token)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	return model.CategoryScore{
		Score:   float64(len(matched)) / float64(len(posting)),
		Matched: matched,
		Missing: missing,
	}
}

// experienceScore treats unknown experience as a neutral signal, never zero:
// both sides unknown or no posting requirement scores 1.0; an unknown
// resume against a known requirement scores 0.5. With both known the score
// is 1.0 at-or-above the requirement, falling off linearly to 0 across the
// configured gap.
func (s *Scorer) experienceScore(resume, posting model.ProfileVector) model.CategoryScore {
	switch {
	case !posting.ExperienceKnown:
		return model.CategoryScore{Score: 1.0}
	case !resume.ExperienceKnown:
		return model.CategoryScore{Score: 0.5}
	}

	required := posting.ExperienceYears
	have := resume.ExperienceYears
	if have >= required {
		return model.CategoryScore{Score: 1.0}
	}

	shortfall := float64(required - have)
	score := 1.0 - shortfall/float64(s.ExperienceGapYears)
	return model.CategoryScore{Score: clamp01(score)}
}

// keywordScore is the cosine similarity of the two keyword weight vectors.
// Two empty vectors are trivially identical (1.0); one empty vector shares
// nothing with the other (0.0).
func keywordScore(resume, posting map[string]float64) model.CategoryScore {
	if len(resume) == 0 && len(posting) == 0 {
		return model.CategoryScore{Score: 1.0}
	}
	if len(resume) == 0 || len(posting) == 0 {
		return model.CategoryScore{Score: 0.0}
	}

	// Accumulate in sorted key order: float addition is not associative, and
	// the result must be bit-identical across calls.
	var dot float64
	var matched []string
	for _, token := range sortedKeys(posting) {
		if rw, ok := resume[token]; ok {
			dot += rw * posting[token]
			matched = append(matched, token)
		}
	}

	score := 0.0
	if dot > 0 {
		score = dot / (norm(resume) * norm(posting))
	}
	return model.CategoryScore{Score: clamp01(score), Matched: matched}
}

// mustHaveScore is |matched must-haves| / |mustHaves|, 1.0 when the list is
// empty. A must-have counts as matched when it appears in the resume's
// technical or soft skill sets.
func mustHaveScore(resume model.ProfileVector, mustHaves []string) model.CategoryScore {
	if len(mustHaves) == 0 {
		return model.CategoryScore{Score: 1.0}
	}

	// Deduplicate while preserving a canonical comparison form.
	wanted := make(map[string]bool, len(mustHaves))
	for _, m := range mustHaves {
		if t := strings.ToLower(strings.TrimSpace(m)); t != "" {
			wanted[t] = true
		}
	}
	if len(wanted) == 0 {
		return model.CategoryScore{Score: 1.0}
	}

	var matched, missing []string
	for token := range wanted {
		if _, ok := resume.TechSkills[token]; ok || resume.SoftSkills[token] {
			matched = append(matched, token)
		} else {
			missing = append(missing, token)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)

	return model.CategoryScore{
		Score:   float64(len(matched)) / float64(len(wanted)),
		Matched: matched,
		Missing: missing,
	}
}

func sortByWeightDesc(tokens []string, weights map[string]float64) {
	sort.Slice(tokens, func(i, j int) bool {
		wi, wj := weights[tokens[i]], weights[tokens[j]]
		if wi != wj {
			return wi > wj
		}
		return tokens[i] < tokens[j]
	})
}

func keys(m map[string]float64) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func norm(m map[string]float64) float64 {
	var sum float64
	for _, k := range sortedKeys(m) {
		sum += m[k] * m[k]
	}
	return math.Sqrt(sum)
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
