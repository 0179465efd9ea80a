// Package memory keeps desk sessions in process memory.
package memory

import (
	"context"
	"errors"
	"maps"
	"strings"
	"sync"
	"time"

	webstorage "github.com/edumap/desk/internal/services/web/storage"
)

// Store is a mutex-guarded session map. Expired records are dropped lazily.
type Store struct {
	mu       sync.Mutex
	sessions map[string]webstorage.SessionRecord
	now      func() time.Time
}

// New returns an empty store. A nil clock uses time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{sessions: make(map[string]webstorage.SessionRecord), now: now}
}

// Close drops every session.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.sessions)
	return nil
}

// GetSession returns a copy of the stored record.
func (s *Store) GetSession(_ context.Context, id string) (webstorage.SessionRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return webstorage.SessionRecord{}, webstorage.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.sessions[id]
	if !ok {
		return webstorage.SessionRecord{}, webstorage.ErrNotFound
	}
	if record.Expired(s.now()) {
		delete(s.sessions, id)
		return webstorage.SessionRecord{}, webstorage.ErrNotFound
	}
	record.Metadata = maps.Clone(record.Metadata)
	return record, nil
}

// PutSession inserts or replaces a record.
func (s *Store) PutSession(_ context.Context, record webstorage.SessionRecord) error {
	record.ID = strings.TrimSpace(record.ID)
	if record.ID == "" {
		return errors.New("session id is required")
	}
	record.Metadata = maps.Clone(record.Metadata)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[record.ID] = record
	return nil
}

// DeleteSession removes a record; unknown ids are not an error.
func (s *Store) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, strings.TrimSpace(id))
	return nil
}

// Len returns the number of stored records, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

var _ webstorage.SessionStore = (*Store)(nil)
