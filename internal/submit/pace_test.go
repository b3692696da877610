package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/applyflow/applyflow/internal/model"
)

func TestPacerFirstCallDoesNotWait(t *testing.T) {
	p := NewPacer(time.Second)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first Wait blocked for %v", elapsed)
	}
}

func TestPacerEnforcesMinDelay(t *testing.T) {
	const minDelay = 60 * time.Millisecond
	p := NewPacer(minDelay)

	if err := p.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < minDelay-5*time.Millisecond {
		t.Errorf("second Wait returned after %v, want about %v", elapsed, minDelay)
	}
}

func TestPacerCancelledWhileWaiting(t *testing.T) {
	p := NewPacer(time.Hour)
	if err := p.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context deadline error", err)
	}
}

func TestPacedSubmitterDelegates(t *testing.T) {
	mock := &mockChannel{fn: func(int) (model.SubmissionResult, error) {
		return model.SubmissionResult{Accepted: true}, nil
	}}
	s := NewPacedSubmitter(mock, NewPacer(time.Millisecond))

	result, err := s.Submit(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.Accepted || mock.calls != 1 {
		t.Errorf("accepted=%v calls=%d", result.Accepted, mock.calls)
	}
}
