package optimize

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/applyflow/applyflow/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProvider captures the prompt and returns a canned completion.
type fakeProvider struct {
	prompt string
	text   string
	err    error
}

func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func testRequest() model.OptimizeRequest {
	return model.OptimizeRequest{
		ResumeText:  "Go engineer, 8 years.",
		PostingText: "Senior Go engineer with Kubernetes.",
		Level:       model.OptimizeModerate,
		Gaps:        []string{"kubernetes", "terraform"},
	}
}

func TestServiceOptimize(t *testing.T) {
	provider := &fakeProvider{text: "Rewritten resume."}
	svc := NewService(provider, time.Second, discardLogger())

	res, err := svc.Optimize(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Text != "Rewritten resume." {
		t.Errorf("text = %q", res.Text)
	}
	if res.Ref == "" {
		t.Error("expected a non-empty resume ref")
	}

	// The rendered prompt carries the inputs and the level's sections.
	for _, want := range []string{"Go engineer, 8 years.", "Senior Go engineer", "kubernetes, terraform", "summary, skills, experience"} {
		if !strings.Contains(provider.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestServiceOptimizeProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("quota exceeded")}
	svc := NewService(provider, time.Second, discardLogger())

	if _, err := svc.Optimize(context.Background(), testRequest()); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestSectionsFor(t *testing.T) {
	tests := []struct {
		level model.OptimizeLevel
		want  string
	}{
		{model.OptimizeLight, "summary, skills"},
		{model.OptimizeModerate, "summary, skills, experience"},
		{model.OptimizeAggressive, "summary, skills, experience, projects, education"},
	}
	for _, tt := range tests {
		if got := sectionsFor(tt.level); got != tt.want {
			t.Errorf("sectionsFor(%s) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestFallbackTriesChainInOrder(t *testing.T) {
	failing := NewService(&fakeProvider{err: errors.New("down")}, time.Second, discardLogger())
	working := NewService(&fakeProvider{text: "From the second provider."}, time.Second, discardLogger())
	fb := NewFallback(discardLogger(), failing, working)

	res, err := fb.Optimize(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Text != "From the second provider." {
		t.Errorf("text = %q, want the fallback result", res.Text)
	}
}

func TestFallbackAllFail(t *testing.T) {
	failing := NewService(&fakeProvider{err: errors.New("down")}, time.Second, discardLogger())
	fb := NewFallback(discardLogger(), failing, failing)

	if _, err := fb.Optimize(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error when every optimizer fails")
	}
}

func TestFallbackEmptyChain(t *testing.T) {
	fb := NewFallback(discardLogger())
	if _, err := fb.Optimize(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error for empty chain")
	}
}

func TestNopReturnsOriginal(t *testing.T) {
	req := testRequest()
	res, err := NewNop().Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if res.Text != req.ResumeText {
		t.Errorf("text = %q, want the original resume", res.Text)
	}
	if res.Ref != "" {
		t.Errorf("ref = %q, want empty", res.Ref)
	}
}
