// Package memory provides the in-process storage adapter.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tidwall/gjson"

	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

type record struct {
	data      []byte
	expiresAt time.Time // zero means no expiry
	unique    storage.Uniqueness
}

func (r record) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && now.After(r.expiresAt)
}

// Store is a mutex-guarded map adapter scoped to the process lifetime. All
// operations inside the lock are race-free, which makes CreateIfAbsent
// trivially atomic. Expiry is lazy: reads filter on the stored deadline, and
// an optional janitor evicts dead rows in the background.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]record // collection -> key -> record
	index   map[string]map[string]string // collection/field -> value -> key

	now func() time.Time

	janitor *cron.Cron
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		records: make(map[string]map[string]record),
		index:   make(map[string]map[string]string),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func indexKey(collection, field string) string {
	return collection + "/" + field
}

func (s *Store) Get(_ context.Context, collection, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[collection][key]
	if !ok || rec.expired(s.now()) {
		return nil, false, nil
	}
	return cloneBytes(rec.data), true, nil
}

func (s *Store) FindBy(_ context.Context, collection, field, value string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()

	// Indexed lookup first.
	if key, ok := s.index[indexKey(collection, field)][value]; ok {
		if rec, ok := s.records[collection][key]; ok && !rec.expired(now) {
			return cloneBytes(rec.data), true, nil
		}
		return nil, false, nil
	}

	// Fall back to a linear scan, extracting just the one field instead
	// of decoding whole documents.
	for _, rec := range s.records[collection] {
		if rec.expired(now) {
			continue
		}
		if got := gjson.GetBytes(rec.data, field); got.Type == gjson.String && got.Str == value {
			return cloneBytes(rec.data), true, nil
		}
	}
	return nil, false, nil
}

func (s *Store) List(_ context.Context, collection string) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	result := make([][]byte, 0, len(s.records[collection]))
	for _, rec := range s.records[collection] {
		if rec.expired(now) {
			continue
		}
		result = append(result, cloneBytes(rec.data))
	}
	return result, nil
}

func (s *Store) CreateIfAbsent(_ context.Context, collection, key string, unique storage.Uniqueness, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if rec, ok := s.records[collection][key]; ok && !rec.expired(now) {
		return storage.ErrConflict
	}

	if unique.Field != "" {
		idx := indexKey(collection, unique.Field)
		if existingKey, ok := s.index[idx][unique.Value]; ok {
			if rec, ok := s.records[collection][existingKey]; ok && !rec.expired(now) {
				return storage.ErrConflict
			}
		}
		if s.index[idx] == nil {
			s.index[idx] = make(map[string]string)
		}
		s.index[idx][unique.Value] = key
	}

	s.putLocked(collection, key, data, ttl, unique)
	return nil
}

func (s *Store) Put(_ context.Context, collection, key string, data []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[collection][key]
	var unique storage.Uniqueness
	if ok {
		unique = prev.unique
	}
	s.putLocked(collection, key, data, ttl, unique)
	return nil
}

func (s *Store) putLocked(collection, key string, data []byte, ttl time.Duration, unique storage.Uniqueness) {
	if s.records[collection] == nil {
		s.records[collection] = make(map[string]record)
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}
	s.records[collection][key] = record{data: cloneBytes(data), expiresAt: expiresAt, unique: unique}
}

func (s *Store) Delete(_ context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(collection, key)
	return nil
}

func (s *Store) deleteLocked(collection, key string) {
	rec, ok := s.records[collection][key]
	if !ok {
		return
	}
	if rec.unique.Field != "" {
		idx := indexKey(collection, rec.unique.Field)
		if s.index[idx][rec.unique.Value] == key {
			delete(s.index[idx], rec.unique.Value)
		}
	}
	delete(s.records[collection], key)
}

// StartJanitor begins periodic eviction of expired rows. Correctness does
// not depend on it: reads already filter on the expiry stamp.
func (s *Store) StartJanitor(every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.janitor != nil {
		return
	}
	s.janitor = cron.New()
	_, _ = s.janitor.AddFunc("@every "+every.String(), s.sweep)
	s.janitor.Start()
}

// StopJanitor halts the background eviction.
func (s *Store) StopJanitor() {
	s.mu.Lock()
	c := s.janitor
	s.janitor = nil
	s.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for collection, records := range s.records {
		for key, rec := range records {
			if rec.expired(now) {
				s.deleteLocked(collection, key)
			}
		}
	}
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

var _ storage.Adapter = (*Store)(nil)
