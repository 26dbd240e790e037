package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	s := NewStore(10, 5)
	for i := 0; i < 5; i++ {
		if !s.Allow("1.2.3.4") {
			t.Fatalf("expected allow on request %d within burst", i+1)
		}
	}
	if s.Allow("1.2.3.4") {
		t.Fatal("expected reject after burst exhausted")
	}
}

func TestRefillOverTime(t *testing.T) {
	s := NewStore(1000, 1)
	s.Allow("k")
	time.Sleep(2 * time.Millisecond)
	if !s.Allow("k") {
		t.Fatal("expected allow after refill")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	s := NewStore(100, 1)
	if !s.Allow("key-a") {
		t.Fatal("expected allow on key-a")
	}
	if !s.Allow("key-b") {
		t.Fatal("expected allow on key-b (fresh bucket)")
	}
}

func TestPruneDropsIdleBuckets(t *testing.T) {
	s := NewStore(100, 10)
	s.Allow("old")
	time.Sleep(5 * time.Millisecond)
	s.Allow("fresh")

	removed := s.Prune(3 * time.Millisecond)
	if removed != 1 {
		t.Fatalf("Prune removed %d, want 1", removed)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestClientKey(t *testing.T) {
	r := httptest.NewRequest("POST", "/translate_free", nil)
	r.RemoteAddr = "10.0.0.9:51234"
	if got := ClientKey(r); got != "10.0.0.9" {
		t.Fatalf("ClientKey = %q, want 10.0.0.9", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := ClientKey(r); got != "203.0.113.7" {
		t.Fatalf("ClientKey with XFF = %q, want 203.0.113.7", got)
	}
}
