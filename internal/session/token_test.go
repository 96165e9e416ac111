package session

import (
	"testing"
	"time"

	"github.com/ufukayyildiz/tocwtr2b/internal/domain/session"
)

func testSession() session.Session {
	now := time.Now().UTC()
	return session.Session{
		ID:        "sess-1",
		SubjectID: "user-1",
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "tocwtr2b")

	token, err := issuer.Issue(testSession())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	sid, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sid != "sess-1" {
		t.Fatalf("sid = %q, want sess-1", sid)
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	token, err := NewTokenIssuer("secret-a", "tocwtr2b").Issue(testSession())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewTokenIssuer("secret-b", "tocwtr2b").Parse(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestTokenGarbageRejected(t *testing.T) {
	if _, err := NewTokenIssuer("secret", "tocwtr2b").Parse("not-a-token"); err == nil {
		t.Fatal("garbage token must be rejected")
	}
}

func TestTokenExpiredRejected(t *testing.T) {
	s := testSession()
	s.CreatedAt = time.Now().Add(-2 * time.Hour)
	s.ExpiresAt = time.Now().Add(-time.Hour)

	token, err := NewTokenIssuer("secret", "tocwtr2b").Issue(s)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewTokenIssuer("secret", "tocwtr2b").Parse(token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}
