// Package session issues and resolves session records on top of a storage
// adapter.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ufukayyildiz/tocwtr2b/internal/domain/session"
	"github.com/ufukayyildiz/tocwtr2b/internal/logging"
	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

// Manager creates and resolves sessions with a fixed TTL. Expiry is
// enforced lazily at resolve time, so observers never see a dead session
// even when the backing store's physical eviction lags.
type Manager struct {
	store storage.Adapter
	ttl   time.Duration
	now   func() time.Time
	log   *logging.Logger
}

// NewManager creates a manager over the given adapter. A non-positive ttl
// falls back to the default lifetime.
func NewManager(store storage.Adapter, ttl time.Duration, log *logging.Logger) *Manager {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if log == nil {
		log = logging.NewDefault("session")
	}
	return &Manager{store: store, ttl: ttl, now: time.Now, log: log}
}

// SetClock overrides the time source. Intended for tests.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

// TTL returns the fixed session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Create issues a fresh session for the subject and persists it with the
// store's native TTL where available.
func (m *Manager) Create(ctx context.Context, subjectID string) (session.Session, error) {
	now := m.now().UTC()
	s := session.Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	data, err := json.Marshal(s)
	if err != nil {
		return session.Session{}, fmt.Errorf("marshal session: %w", err)
	}
	if err := m.store.Put(ctx, storage.CollectionSessions, s.ID, data, m.ttl); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

// Resolve looks a session up by ID. A record past its expiry is treated as
// absent and removed best-effort, so the answer is the same whether or not
// the store already evicted it.
func (m *Manager) Resolve(ctx context.Context, id string) (session.Session, bool, error) {
	data, ok, err := m.store.Get(ctx, storage.CollectionSessions, id)
	if err != nil {
		return session.Session{}, false, err
	}
	if !ok {
		return session.Session{}, false, nil
	}

	var s session.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return session.Session{}, false, fmt.Errorf("unmarshal session %s: %w", id, err)
	}

	if s.Expired(m.now()) {
		if err := m.store.Delete(ctx, storage.CollectionSessions, id); err != nil {
			m.log.LogError(ctx, err, map[string]interface{}{"session_id": id, "op": "expiry cleanup"})
		}
		return session.Session{}, false, nil
	}
	return s, true, nil
}

// Destroy removes a session. Destroying an absent session is not an error.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	return m.store.Delete(ctx, storage.CollectionSessions, id)
}
