package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"
)

// Kind distinguishes which side of the match a text came from.
type Kind int

const (
	KindResume Kind = iota
	KindPosting
)

func (k Kind) String() string {
	if k == KindResume {
		return "resume"
	}
	return "posting"
}

// ProfileVector is the normalized weighted feature representation of a
// resume or a posting. All weights are in [0,1]; tokens are lowercase
// canonical forms so equal skills compare equal regardless of surface form.
type ProfileVector struct {
	Kind       Kind
	TechSkills map[string]float64 // skill token -> weight
	SoftSkills map[string]bool    // soft-skill token set
	Keywords   map[string]float64 // keyword token -> term-frequency weight

	// ExperienceYears is only meaningful when ExperienceKnown is true.
	// Unknown experience is a neutral signal for the scorer, not zero.
	ExperienceYears int
	ExperienceKnown bool
}

// NewProfileVector returns an empty vector of the given kind.
func NewProfileVector(kind Kind) ProfileVector {
	return ProfileVector{
		Kind:       kind,
		TechSkills: make(map[string]float64),
		SoftSkills: make(map[string]bool),
		Keywords:   make(map[string]float64),
	}
}

// Empty reports whether the vector carries no features at all.
func (v ProfileVector) Empty() bool {
	return len(v.TechSkills) == 0 && len(v.SoftSkills) == 0 &&
		len(v.Keywords) == 0 && !v.ExperienceKnown
}

// Fingerprint returns a stable hash of the vector's canonical form. Two
// vectors with identical features produce identical fingerprints regardless
// of map iteration order; it keys the score cache.
func (v ProfileVector) Fingerprint() string {
	var b strings.Builder

	writeWeighted := func(section string, m map[string]float64) {
		b.WriteString(section)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(strconv.FormatFloat(m[k], 'g', -1, 64))
			b.WriteByte(';')
		}
	}

	writeWeighted("tech:", v.TechSkills)

	b.WriteString("soft:")
	soft := make([]string, 0, len(v.SoftSkills))
	for k := range v.SoftSkills {
		soft = append(soft, k)
	}
	sort.Strings(soft)
	b.WriteString(strings.Join(soft, ";"))

	writeWeighted("|kw:", v.Keywords)

	b.WriteString("|exp:")
	if v.ExperienceKnown {
		b.WriteString(strconv.Itoa(v.ExperienceYears))
	} else {
		b.WriteString("unknown")
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
