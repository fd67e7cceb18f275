package chat

import (
	"sync"
	"time"
)

// DefaultSessionTTL is how long a conversation session stays active measured
// from session start.
const DefaultSessionTTL = time.Hour

// SessionStore owns conversation contexts keyed by user. Implementations
// must be safe for concurrent use across different users; requests for the
// same user are serialized by the caller.
type SessionStore interface {
	// Get returns the user's context, creating one on first access. An
	// expired session is silently reset (context data and last intent
	// cleared, turn log retained) before it is returned.
	Get(userID int64) (*Context, error)
	// Put writes the context back after mutation.
	Put(ctx *Context) error
	// Clear removes the user's context entirely.
	Clear(userID int64) error
	// Sweep evicts every session that expired before now.
	Sweep(now time.Time) error
}

// MemoryStore is the in-process SessionStore backing
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	contexts map[int64]*Context
}

// NewMemoryStore creates an in-memory session store. A ttl of 0 uses
// DefaultSessionTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		contexts: map[int64]*Context{},
	}
}

// Get returns the user's context, creating it on first access and resetting
// it if the session has expired.
func (s *MemoryStore) Get(userID int64) (*Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.contexts[userID]
	if !ok {
		ctx = NewContext(userID)
		s.contexts[userID] = ctx
		return ctx, nil
	}

	if ctx.Expired(time.Now().UTC(), s.ttl) {
		ctx.Clear()
		ctx.SessionStart = time.Now().UTC()
	}
	return ctx, nil
}

// Put stores the context
func (s *MemoryStore) Put(ctx *Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[ctx.UserID] = ctx
	return nil
}

// Clear removes the user's context
func (s *MemoryStore) Clear(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, userID)
	return nil
}

// Sweep evicts sessions whose start is older than the ttl
func (s *MemoryStore) Sweep(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, ctx := range s.contexts {
		if ctx.Expired(now, s.ttl) {
			delete(s.contexts, userID)
		}
	}
	return nil
}

// Len returns the number of active sessions
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contexts)
}
