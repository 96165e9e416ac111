// Package session defines the session record.
package session

import "time"

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 3600 * time.Second

// Session is a short-lived record tying a token to a subject. ExpiresAt is
// always CreatedAt plus the manager's fixed TTL. A session past ExpiresAt
// must behave as if it never existed, regardless of whether the backing
// store has physically evicted it.
type Session struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subjectId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is past its lifetime at the given
// instant.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
