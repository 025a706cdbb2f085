package breaker

import (
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := New("docker-exec", 3, 50*time.Millisecond)
	failing := func() error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		if err := b.Call(failing); err == nil {
			t.Fatalf("call %d: expected failure to propagate", i)
		}
	}
	if b.State() != "open" {
		t.Fatalf("expected breaker open after 3 failures, got %s", b.State())
	}

	// Further calls are rejected without invoking fn.
	invoked := false
	err := b.Call(func() error { invoked = true; return nil })
	if err == nil {
		t.Fatal("expected rejection while open")
	}
	if invoked {
		t.Fatal("fn should not run while breaker is open")
	}
}

func TestBreakerRecoversAfterResetTimeout(t *testing.T) {
	b := New("docker-exec", 1, 10*time.Millisecond)
	_ = b.Call(func() error { return errors.New("boom") })
	if b.State() != "open" {
		t.Fatalf("expected open, got %s", b.State())
	}

	time.Sleep(20 * time.Millisecond)

	if err := b.Call(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open call to succeed, got %v", err)
	}
	if b.State() != "closed" {
		t.Fatalf("expected closed after successful half-open test, got %s", b.State())
	}
}
