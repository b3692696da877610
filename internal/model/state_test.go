package model

import "testing"

func TestTransitionAllowed(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateDiscovered, StateScored, true},
		{StateDiscovered, StateRejected, true},
		{StateScored, StateEligible, true},
		{StateScored, StateRejected, true},
		{StateEligible, StateOptimizing, true},
		{StateOptimizing, StateSubmitting, true},
		{StateSubmitting, StateApplied, true},
		{StateSubmitting, StateFailed, true},
		{StateApplied, StateTracked, true},
		{StateFailed, StateTracked, true},

		{StateDiscovered, StateEligible, false},
		{StateScored, StateOptimizing, false},
		{StateEligible, StateRejected, false},
		{StateApplied, StateFailed, false},
		{StateApplied, StateScored, false},
		{StateRejected, StateScored, false},
		{StateRejected, StateTracked, false},
		{StateTracked, StateApplied, false},
		{StateTracked, StateDiscovered, false},
	}

	for _, tt := range tests {
		if got := TransitionAllowed(tt.from, tt.to); got != tt.want {
			t.Errorf("TransitionAllowed(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StateRejected, StateTracked} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
		if s.Active() {
			t.Errorf("expected %s to not be active", s)
		}
	}
	for _, s := range []State{StateDiscovered, StateScored, StateEligible, StateOptimizing, StateSubmitting, StateApplied, StateFailed} {
		if s.Terminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
		if !s.Active() {
			t.Errorf("expected %s to be active", s)
		}
	}
}

func TestParseState(t *testing.T) {
	got, err := ParseState("applied")
	if err != nil {
		t.Fatalf("ParseState(applied): %v", err)
	}
	if got != StateApplied {
		t.Fatalf("ParseState(applied) = %s", got)
	}

	if _, err := ParseState("nonsense"); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
