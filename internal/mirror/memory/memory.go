package memory

import (
	"context"
	"sync"

	"bumdes/internal/mirror"
)

// Store keeps the mirrored document in process memory.
type Store struct {
	mu    sync.Mutex
	doc   []byte
	saves int
	// SaveErr, when set, is returned by every Save.
	SaveErr error
	// LoadErr, when set, is returned by every Load.
	LoadErr error
}

var _ mirror.Mirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// NewWithDocument returns a store already holding doc.
func NewWithDocument(doc []byte) *Store {
	return &Store{doc: append([]byte(nil), doc...)}
}

func (s *Store) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	if s.doc == nil {
		return nil, mirror.ErrNotFound
	}
	return append([]byte(nil), s.doc...), nil
}

func (s *Store) Save(_ context.Context, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.doc = append([]byte(nil), doc...)
	s.saves++
	return nil
}

// Saves reports how many successful writes the store received.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
