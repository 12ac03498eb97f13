// Package memstore provides an in-memory implementation of store.Repository.
package memstore

import (
	"context"
	"sync"

	"notification-orchestrator/internal/models"
	"notification-orchestrator/internal/store"
)

// Store keeps the notification log in memory. Suitable for dev/testing.
// Every read and write copies, so callers never share state with the log.
type Store struct {
	mu    sync.RWMutex
	log   []models.Notification
	index map[string]int // notification ID -> position in log
}

// New initializes an empty Store.
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Append adds a copy of n to the end of the log.
func (s *Store) Append(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[n.ID]; ok {
		return store.ErrDuplicate
	}
	s.index[n.ID] = len(s.log)
	s.log = append(s.log, n.Stored())
	return nil
}

// Get returns a copy of the notification with the given id.
func (s *Store) Get(_ context.Context, id string) (models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Notification{}, store.ErrNotFound
	}
	return s.log[i].Clone(), nil
}

// Snapshot returns copies of every notification in append order.
func (s *Store) Snapshot(_ context.Context) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Notification, len(s.log))
	for i, n := range s.log {
		out[i] = n.Clone()
	}
	return out, nil
}

// MarkRead flags a single notification as read.
func (s *Store) MarkRead(_ context.Context, id string) error {
	return s.update(id, func(n *models.Notification) { n.IsRead = true })
}

// MarkAllRead flags every notification as read.
func (s *Store) MarkAllRead(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.log {
		s.log[i].IsRead = true
	}
	return nil
}

// Dismiss flags a notification as dismissed.
func (s *Store) Dismiss(_ context.Context, id string) error {
	return s.update(id, func(n *models.Notification) { n.IsDismissed = true })
}

// Close is a no-op.
func (s *Store) Close() {}

func (s *Store) update(id string, fn func(*models.Notification)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&s.log[i])
	return nil
}
