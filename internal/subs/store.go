package subs

import (
	"sync"

	"github.com/javifm86/weather-bot/internal/domain"
)

// Store holds in-flight and active subscriptions in memory, keyed by chat id.
// It is the source of truth while the process runs; SQLite only rehydrates
// it at startup. No range validation happens here, the signup flow validates
// before it writes.
type Store struct {
	mu   sync.RWMutex
	subs map[int64]*domain.Subscription
}

// New returns an empty Store.
func New() *Store {
	return &Store{subs: make(map[int64]*domain.Subscription)}
}

// Add creates the record for chatID if absent and merges the patch into it.
// Fields not present in the patch keep their current values.
func (s *Store) Add(chatID int64, p domain.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[chatID]
	if !ok {
		sub = &domain.Subscription{ChatID: chatID}
		s.subs[chatID] = sub
	}
	sub.Apply(p)
}

// Get returns the subscription for chatID, or nil if none exists. The
// returned pointer is shared; callers mutate only through Add.
func (s *Store) Get(chatID int64) *domain.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subs[chatID]
}

// Remove deletes the record for chatID. Removing an absent record is a no-op.
func (s *Store) Remove(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, chatID)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
