package model

import "testing"

func TestFingerprintStable(t *testing.T) {
	v := NewProfileVector(KindResume)
	v.TechSkills["go"] = 1.0
	v.TechSkills["kubernetes"] = 0.5
	v.SoftSkills["leadership"] = true
	v.Keywords["distributed"] = 0.8
	v.ExperienceYears = 5
	v.ExperienceKnown = true

	// Same features inserted in a different order.
	w := NewProfileVector(KindResume)
	w.Keywords["distributed"] = 0.8
	w.SoftSkills["leadership"] = true
	w.TechSkills["kubernetes"] = 0.5
	w.TechSkills["go"] = 1.0
	w.ExperienceYears = 5
	w.ExperienceKnown = true

	if v.Fingerprint() != w.Fingerprint() {
		t.Error("identical vectors produced different fingerprints")
	}
}

func TestFingerprintChangesWithFeatures(t *testing.T) {
	v := NewProfileVector(KindResume)
	v.TechSkills["go"] = 1.0
	base := v.Fingerprint()

	v.TechSkills["go"] = 0.9
	if v.Fingerprint() == base {
		t.Error("weight change did not change fingerprint")
	}

	v.TechSkills["go"] = 1.0
	v.ExperienceKnown = true
	if v.Fingerprint() == base {
		t.Error("experience change did not change fingerprint")
	}
}

func TestEmpty(t *testing.T) {
	v := NewProfileVector(KindPosting)
	if !v.Empty() {
		t.Error("new vector should be empty")
	}
	v.TechSkills["go"] = 1.0
	if v.Empty() {
		t.Error("vector with a skill should not be empty")
	}
}
