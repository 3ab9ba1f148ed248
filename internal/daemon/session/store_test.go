package session

import (
	"testing"
	"time"
)

func TestSessionLifecycle(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.Hour, func() time.Time { return clock })

	if s.TTL() != time.Hour {
		t.Errorf("TTL() = %v, want %v", s.TTL(), time.Hour)
	}

	sess := s.Create("u1", "ana")
	if sess.Token == "" {
		t.Fatal("Create() returned an empty token")
	}

	got, ok := s.Lookup(sess.Token)
	if !ok || got.UserID != "u1" || got.Username != "ana" {
		t.Fatalf("Lookup() = %+v, %v", got, ok)
	}
	if _, ok := s.Lookup("unknown"); ok {
		t.Error("Lookup(unknown) = true, want false")
	}
	if _, ok := s.Lookup(""); ok {
		t.Error("Lookup(\"\") = true, want false")
	}

	s.Delete(sess.Token)
	if _, ok := s.Lookup(sess.Token); ok {
		t.Error("Lookup() after Delete = true, want false")
	}
}

func TestSessionExpiry(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.Hour, func() time.Time { return clock })

	expiring := s.Create("u1", "ana")
	clock = clock.Add(30 * time.Minute)
	fresh := s.Create("u2", "bo")

	clock = clock.Add(31 * time.Minute)
	if _, ok := s.Lookup(expiring.Token); ok {
		t.Error("Lookup(expired) = true, want false")
	}
	if _, ok := s.Lookup(fresh.Token); !ok {
		t.Error("Lookup(fresh) = false, want true")
	}

	clock = clock.Add(time.Hour)
	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}
