// Package user defines the user aggregate.
package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account record. Username is unique (case-sensitive) across the
// store; Secret is a credential placeholder and must be stripped from every
// response by the handler, never by the storage layer.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Secret    string    `json:"secret,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New creates a user record with a fresh ID and UTC creation stamp.
func New(username, secret string) User {
	return User{
		ID:        uuid.NewString(),
		Username:  username,
		Secret:    secret,
		CreatedAt: time.Now().UTC(),
	}
}

// Public returns the user with the secret stripped.
func (u User) Public() User {
	u.Secret = ""
	return u
}

// Validate reports whether the record has the required fields.
func (u User) Validate() bool {
	return strings.TrimSpace(u.Username) != "" && u.Secret != ""
}
