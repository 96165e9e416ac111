package user

import "crypto/subtle"

// Verifier checks a presented secret against the stored one. It is an
// injected collaborator so credential storage can move to a hashing scheme
// without touching the handlers.
type Verifier interface {
	Verify(stored, presented string) bool
}

// PlainVerifier compares secrets by constant-time equality. Secrets are
// stored as given; swap in a hashing Verifier before exposing this publicly.
type PlainVerifier struct{}

func (PlainVerifier) Verify(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
