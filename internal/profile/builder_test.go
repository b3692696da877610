package profile

import (
	"testing"

	"github.com/applyflow/applyflow/internal/model"
)

func TestBuildEmptyText(t *testing.T) {
	b := NewBuilder()
	for _, text := range []string{"", "   ", "\n\t"} {
		v := b.Build(text, model.KindResume)
		if !v.Empty() {
			t.Errorf("Build(%q) should yield an empty vector", text)
		}
	}
}

func TestBuildExtractsTechSkillsWithAliases(t *testing.T) {
	b := NewBuilder()
	v := b.Build("Experienced Golang developer. Kubernetes (k8s), Postgres, and Docker in production.", model.KindResume)

	for _, skill := range []string{"go", "kubernetes", "postgresql", "docker"} {
		if _, ok := v.TechSkills[skill]; !ok {
			t.Errorf("expected tech skill %q, got %v", skill, v.TechSkills)
		}
	}
	for skill, w := range v.TechSkills {
		if w <= 0 || w > 1 {
			t.Errorf("skill %q weight %v out of (0,1]", skill, w)
		}
	}
}

func TestBuildRespectsWordBoundaries(t *testing.T) {
	b := NewBuilder()
	// "go" must not match inside "google", "r" must not match inside "year".
	v := b.Build("Working at google for a year on search infrastructure.", model.KindResume)

	if _, ok := v.TechSkills["go"]; ok {
		t.Error("matched \"go\" inside \"google\"")
	}
	if _, ok := v.TechSkills["r"]; ok {
		t.Error("matched \"r\" inside \"year\"")
	}
}

func TestBuildExtractsSoftSkills(t *testing.T) {
	b := NewBuilder()
	v := b.Build("Strong leadership and communication. Problem solving mindset.", model.KindResume)

	for _, skill := range []string{"leadership", "communication"} {
		if !v.SoftSkills[skill] {
			t.Errorf("expected soft skill %q, got %v", skill, v.SoftSkills)
		}
	}
}

func TestBuildExplicitExperienceYears(t *testing.T) {
	tests := []struct {
		text  string
		years int
	}{
		{"5+ years of experience with Go", 5},
		{"minimum 3 years working with distributed systems", 3},
		{"at least 7 years in backend roles", 7},
		{"10 yrs experience", 10},
	}

	b := NewBuilder()
	for _, tt := range tests {
		v := b.Build(tt.text, model.KindPosting)
		if !v.ExperienceKnown {
			t.Errorf("Build(%q): experience not detected", tt.text)
			continue
		}
		if v.ExperienceYears != tt.years {
			t.Errorf("Build(%q): years = %d, want %d", tt.text, v.ExperienceYears, tt.years)
		}
	}
}

func TestBuildExperienceUnknownWhenAbsent(t *testing.T) {
	b := NewBuilder()
	v := b.Build("Go developer who ships", model.KindResume)
	if v.ExperienceKnown {
		t.Errorf("expected unknown experience, got %d years", v.ExperienceYears)
	}
}

func TestBuildImpliedSeniorityOnPostingsOnly(t *testing.T) {
	b := NewBuilder()

	posting := b.Build("Senior Software Engineer, Platform team", model.KindPosting)
	if !posting.ExperienceKnown || posting.ExperienceYears != 6 {
		t.Errorf("posting seniority: known=%v years=%d, want known 6", posting.ExperienceKnown, posting.ExperienceYears)
	}

	// The same wording on a resume is a past title, not a requirement.
	resume := b.Build("Senior Software Engineer, Platform team", model.KindResume)
	if resume.ExperienceKnown {
		t.Error("resume seniority wording should not imply experience years")
	}
}

func TestBuildKeywords(t *testing.T) {
	b := NewBuilder()
	v := b.Build("Design and operate distributed microservice systems. Microservices everywhere, and the scheduler coordinates microservices.", model.KindResume)

	if len(v.Keywords) == 0 {
		t.Fatal("expected keywords")
	}
	if _, ok := v.Keywords["microservice"]; !ok {
		t.Errorf("expected singularized keyword \"microservice\", got %v", v.Keywords)
	}
	if _, ok := v.Keywords["and"]; ok {
		t.Error("stopword leaked into keywords")
	}

	maxW := 0.0
	for tok, w := range v.Keywords {
		if w <= 0 || w > 1 {
			t.Errorf("keyword %q weight %v out of (0,1]", tok, w)
		}
		if w > maxW {
			maxW = w
		}
	}
	if maxW != 1.0 {
		t.Errorf("top keyword weight = %v, want 1.0", maxW)
	}
}

func TestKeywordsExcludeVocabularyTerms(t *testing.T) {
	b := NewBuilder()
	v := b.Build("python python python orchestration orchestration", model.KindResume)

	if _, ok := v.Keywords["python"]; ok {
		t.Error("vocabulary skill leaked into keywords")
	}
	if _, ok := v.Keywords["orchestration"]; !ok {
		t.Errorf("expected keyword \"orchestration\", got %v", v.Keywords)
	}
}

func TestNormalizeToken(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Golang", "go"},
		{"  NodeJS ", "node.js"},
		{"Postgres", "postgresql"},
		{"python", "python"},
	}
	for _, tt := range tests {
		if got := NormalizeToken(tt.in); got != tt.want {
			t.Errorf("NormalizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	b := NewBuilder()
	text := "Senior Go engineer, 8 years of experience. Kubernetes, Docker, PostgreSQL, leadership."
	v1 := b.Build(text, model.KindResume)
	v2 := b.Build(text, model.KindResume)
	if v1.Fingerprint() != v2.Fingerprint() {
		t.Error("same text produced different fingerprints")
	}
}
