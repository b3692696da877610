// Package profile turns unstructured posting and resume text into
// comparable weighted feature vectors. Building is a pure function of the
// input text: no external calls, safe for concurrent use.
package profile

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/applyflow/applyflow/internal/model"
)

const defaultMaxKeywords = 20

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Keep word characters plus the punctuation that appears inside skill
	// tokens (c++, c#, node.js, scikit-learn).
	specialRe = regexp.MustCompile(`[^\w\s.,\-+#]`)

	yearPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2})\+?\s*(?:years?|yrs?)\s+of\s+experience`),
		regexp.MustCompile(`(\d{1,2})\+?\s*(?:years?|yrs?)\s+experience`),
		regexp.MustCompile(`minimum\s+(?:of\s+)?(\d{1,2})\s*(?:years?|yrs?)`),
		regexp.MustCompile(`at\s+least\s+(\d{1,2})\s*(?:years?|yrs?)`),
		regexp.MustCompile(`experience\s*(?:of|:)?\s*(\d{1,2})\+?\s*(?:years?|yrs?)`),
	}
)

// Builder converts raw text into ProfileVectors against the static skill
// vocabularies.
type Builder struct {
	maxKeywords int
}

// NewBuilder returns a Builder with default settings.
func NewBuilder() *Builder {
	return &Builder{maxKeywords: defaultMaxKeywords}
}

// Build extracts a weighted feature vector from text. Empty input yields an
// empty vector, not an error.
func (b *Builder) Build(text string, kind model.Kind) model.ProfileVector {
	v := model.NewProfileVector(kind)

	cleaned := cleanText(text)
	if cleaned == "" {
		return v
	}

	v.TechSkills = extractWeightedSkills(cleaned, techVocabulary)
	for _, skill := range softVocabulary {
		if countTerm(cleaned, skill) > 0 {
			v.SoftSkills[skill] = true
		}
	}
	v.Keywords = b.extractKeywords(cleaned, v)

	if years, ok := extractExplicitYears(cleaned); ok {
		v.ExperienceYears = years
		v.ExperienceKnown = true
	} else if kind == model.KindPosting {
		// Postings often imply a requirement via seniority wording instead
		// of an explicit year count.
		if years, ok := impliedSeniorityYears(cleaned); ok {
			v.ExperienceYears = years
			v.ExperienceKnown = true
		}
	}

	return v
}

// NormalizeToken lowercases, trims, and alias-folds a single skill token so
// externally supplied terms (must-have lists, config) compare equal to
// vector tokens.
func NormalizeToken(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	if canon, ok := aliases[t]; ok {
		return canon
	}
	return t
}

// cleanText lowercases, collapses whitespace, and strips characters that
// never appear inside skill tokens.
func cleanText(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	t = specialRe.ReplaceAllString(t, " ")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// extractWeightedSkills counts vocabulary term occurrences (including alias
// forms) and scales counts into (0,1] with the most frequent skill at 1.0.
// Log scaling keeps a skill mentioned ten times from drowning one mentioned
// twice, and preserves the exact token set for downstream intersection.
func extractWeightedSkills(text string, vocab []string) map[string]float64 {
	counts := make(map[string]int)
	maxCount := 0
	for _, term := range vocab {
		n := countTerm(text, term)
		for alias, canon := range aliases {
			if canon == term {
				n += countTerm(text, alias)
			}
		}
		if n > 0 {
			counts[term] = n
			if n > maxCount {
				maxCount = n
			}
		}
	}

	weights := make(map[string]float64, len(counts))
	norm := 1 + math.Log(float64(maxCount))
	for term, n := range counts {
		weights[term] = (1 + math.Log(float64(n))) / norm
	}
	return weights
}

// countTerm counts boundary-respecting occurrences of term in text. The
// term and its plural form both count; a term embedded in a longer word
// does not ("go" never matches inside "google").
func countTerm(text, term string) int {
	n := countExact(text, term)
	if last := term[len(term)-1]; last >= 'a' && last <= 'z' && last != 's' {
		n += countExact(text, term+"s")
	}
	return n
}

func countExact(text, term string) int {
	count := 0
	for start := 0; ; {
		i := strings.Index(text[start:], term)
		if i < 0 {
			break
		}
		i += start
		end := i + len(term)
		if boundaryBefore(text, i) && boundaryAfter(text, end) {
			count++
		}
		start = i + 1
	}
	return count
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	return !isWordChar(text[i-1])
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	return !isWordChar(text[i])
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}

// extractKeywords computes term-frequency weights for significant tokens
// not already classified as skills, normalized by document length and
// rescaled so the top keyword weighs 1.0. Only the strongest maxKeywords
// tokens are kept; ties break alphabetically for determinism.
func (b *Builder) extractKeywords(cleaned string, v model.ProfileVector) map[string]float64 {
	vocabTokens := make(map[string]bool, len(techVocabulary)+len(softVocabulary))
	for _, t := range techVocabulary {
		vocabTokens[t] = true
	}
	for _, t := range softVocabulary {
		vocabTokens[t] = true
	}

	tokens := strings.Fields(cleaned)
	total := len(tokens)
	counts := make(map[string]int)
	for _, tok := range tokens {
		tok = strings.Trim(tok, ".,-+#")
		tok = singularize(tok)
		if len(tok) <= 2 || stopwords[tok] || !isAlphaToken(tok) {
			continue
		}
		if canon := NormalizeToken(tok); vocabTokens[canon] {
			continue
		}
		counts[tok]++
	}
	if len(counts) == 0 {
		return map[string]float64{}
	}

	maxTF := 0.0
	tf := make(map[string]float64, len(counts))
	for tok, n := range counts {
		f := float64(n) / float64(total)
		tf[tok] = f
		if f > maxTF {
			maxTF = f
		}
	}

	type kw struct {
		token  string
		weight float64
	}
	ranked := make([]kw, 0, len(tf))
	for tok, f := range tf {
		ranked = append(ranked, kw{token: tok, weight: f / maxTF})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].token < ranked[j].token
	})
	if len(ranked) > b.maxKeywords {
		ranked = ranked[:b.maxKeywords]
	}

	out := make(map[string]float64, len(ranked))
	for _, k := range ranked {
		out[k.token] = k.weight
	}
	return out
}

func isAlphaToken(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 'a' || c > 'z' {
			return false
		}
	}
	return s != ""
}

// singularize trims a plain plural "s" so "systems" and "system" fold to
// the same keyword. Double-s words (process, class) are left alone.
func singularize(s string) string {
	if len(s) > 3 && strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ss") {
		return s[:len(s)-1]
	}
	return s
}

// extractExplicitYears searches for explicit year-count mentions
// ("5+ years of experience", "minimum 3 years").
func extractExplicitYears(text string) (int, bool) {
	for _, re := range yearPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		years, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return years, true
	}
	return 0, false
}

// impliedSeniorityYears maps seniority wording to a years floor.
func impliedSeniorityYears(text string) (int, bool) {
	for _, level := range seniorityLevels {
		for _, indicator := range level.indicators {
			if countTerm(text, indicator) > 0 {
				return level.years, true
			}
		}
	}
	return 0, false
}
