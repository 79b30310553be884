package redis

import (
	"context"
	"testing"
	"time"

	"bumdes/internal/mirror"
)

func TestNewDefaultsKey(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:1"})
	defer s.Close()
	if s.Key() != mirror.DefaultKey {
		t.Fatalf("expected default key, got %q", s.Key())
	}
}

func TestUnreachableServerReturnsError(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:1", Key: "ledger"})
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.Save(ctx, []byte(`[]`)); err == nil {
		t.Fatalf("expected error saving to an unreachable server")
	}
	if _, err := s.Load(ctx); err == nil || err == mirror.ErrNotFound {
		t.Fatalf("expected transport error, got %v", err)
	}
}
