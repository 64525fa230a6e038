package auth

import (
	"errors"
	"testing"
	"time"
)

func TestStateRoundTrip(t *testing.T) {
	s := NewStateSigner("test-secret")

	state, err := s.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := s.Verify(state); err != nil {
		t.Errorf("verify: %v", err)
	}
}

func TestStateWrongSecret(t *testing.T) {
	state, _ := NewStateSigner("secret-a").Issue()

	err := NewStateSigner("secret-b").Verify(state)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestStateExpired(t *testing.T) {
	s := NewStateSigner("test-secret")
	issued := time.Now()
	s.now = func() time.Time { return issued }
	state, _ := s.Issue()

	s.now = func() time.Time { return issued.Add(StateTTL + time.Minute) }
	if err := s.Verify(state); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestStateGarbage(t *testing.T) {
	if err := NewStateSigner("test-secret").Verify("not-a-jwt"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}
