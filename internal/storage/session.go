package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

const DefaultSessionID = "default"

// SessionStore holds the session-scoped media of every client session. Items
// expire ttl after their last write. All sessions share one byte budget;
// a single item may use all of it.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]sessionItem
	capacity int
	used     int
	ttl      time.Duration
	now      func() time.Time
}

type sessionItem struct {
	value     string
	expiresAt time.Time
}

// NewSessionStore allows sizeMB megabytes of session items in total.
func NewSessionStore(sizeMB int, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Second
	}
	return &SessionStore{
		sessions: make(map[string]map[string]sessionItem),
		capacity: sizeMB * 1024 * 1024,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Session returns the medium scoped to one client session.
func (s *SessionStore) Session(id string) *SessionMedium {
	if id == "" {
		id = DefaultSessionID
	}
	return &SessionMedium{store: s, id: id}
}

// End drops every item of the session, as closing a tab does.
func (s *SessionStore) End(id string) error {
	if id == "" {
		id = DefaultSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, item := range s.sessions[id] {
		s.used -= itemSize(key, item.value)
	}
	delete(s.sessions, id)
	return nil
}

// Usage reports the bytes held by live and not yet swept items.
func (s *SessionStore) Usage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// sweep drops expired items. Caller holds s.mu.
func (s *SessionStore) sweep(now time.Time) {
	for id, items := range s.sessions {
		for key, item := range items {
			if !now.Before(item.expiresAt) {
				s.used -= itemSize(key, item.value)
				delete(items, key)
			}
		}
		if len(items) == 0 {
			delete(s.sessions, id)
		}
	}
}

// live returns the unexpired item, dropping it when expired. Caller holds s.mu.
func (s *SessionStore) live(id, key string, now time.Time) (sessionItem, bool) {
	item, ok := s.sessions[id][key]
	if !ok {
		return sessionItem{}, false
	}
	if !now.Before(item.expiresAt) {
		s.used -= itemSize(key, item.value)
		delete(s.sessions[id], key)
		return sessionItem{}, false
	}
	return item, true
}

type SessionMedium struct {
	store *SessionStore
	id    string
}

func (m *SessionMedium) GetItem(key string) (string, bool, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.live(m.id, key, s.now())
	if !ok {
		return "", false, nil
	}
	return item.value, true, nil
}

func (m *SessionMedium) SetItem(key, value string) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	items := s.sessions[m.id]
	prev := 0
	if old, ok := items[key]; ok {
		prev = itemSize(key, old.value)
	}
	next := s.used - prev + itemSize(key, value)
	if next > s.capacity {
		return fmt.Errorf("%w: session item %q needs %d bytes, %d of %d in use",
			ErrQuotaExceeded, key, itemSize(key, value), s.used-prev, s.capacity)
	}

	if items == nil {
		items = make(map[string]sessionItem)
		s.sessions[m.id] = items
	}
	items[key] = sessionItem{value: value, expiresAt: now.Add(s.ttl)}
	s.used = next
	return nil
}

func (m *SessionMedium) RemoveItem(key string) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.sessions[m.id][key]; ok {
		s.used -= itemSize(key, item.value)
		delete(s.sessions[m.id], key)
	}
	return nil
}

func (m *SessionMedium) Keys() ([]string, error) {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	keys := make([]string, 0, len(s.sessions[m.id]))
	for key := range s.sessions[m.id] {
		if _, ok := s.live(m.id, key, now); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
