package board

import (
	"sync"

	"github.com/google/uuid"
)

// SessionRegistry maps opaque session tokens to authenticated usernames. It
// is fed by local logins and by tokens replicated from other nodes.
//
// Tokens are never removed: there is no logout and no expiry, so the registry
// grows for the lifetime of the process. This is a known accumulation gap,
// kept deliberately.
type SessionRegistry struct {
	mtx    sync.RWMutex
	tokens map[string]string
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		tokens: make(map[string]string),
	}
}

// Mint generates a fresh token, registers it for the given username and
// returns it. Two calls never return the same token.
func (r *SessionRegistry) Mint(username string) string {
	token := uuid.New().String()
	r.Register(token, username)
	return token
}

// Register upserts a token->username entry. It is idempotent, which makes
// token replication safe to repeat.
func (r *SessionRegistry) Register(token, username string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.tokens[token] = username
}

// Lookup resolves a token to its username.
func (r *SessionRegistry) Lookup(token string) (string, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	username, ok := r.tokens[token]
	return username, ok
}

// Len returns the number of registered tokens.
func (r *SessionRegistry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.tokens)
}
