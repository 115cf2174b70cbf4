// internal/store/memory.go
//
// In-memory registry of live game sessions.
// Sessions are never persisted: they are lost when the process restarts,
// and idle ones are evicted by Sweep.
//
// Characteristics:
//   - Stores *Session values keyed by engine ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Errors are returned for missing IDs on Get().

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robalobadob/memory/apps/go-server/internal/game"
)

var ErrNotFound = errors.New("not found")

// Session is a live engine plus the metadata the server needs around it.
type Session struct {
	Engine      *game.Engine
	Mode        string // scores.ModeClassic | scores.ModeDaily
	Date        string // YYYY-MM-DD the session was created on (UTC)
	UserID      string // owner when logged in
	AnonymousID string // owner for guests
	Created     time.Time

	lastSeen atomic.Int64 // unix nanos
}

// ID returns the engine ID.
func (s *Session) ID() string { return s.Engine.ID() }

// Touch marks the session as used now.
func (s *Session) Touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

// LastSeen returns the last Touch time.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Store defines the registry interface for live sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *Session) error

	// Get retrieves a session by ID and marks it as used.
	// Returns ErrNotFound if the session is unknown.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session and closes its engine.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes sessions idle since before cutoff, returning their IDs.
	Sweep(ctx context.Context, cutoff time.Time) []string

	// Len reports the number of live sessions.
	Len() int
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// Option configures the in-memory store.
type Option func(*memory)

// WithNow sets the time source used for Touch on Save and Get.
func WithNow(now func() time.Time) Option {
	return func(m *memory) { m.now = now }
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore(opts ...Option) Store {
	m := &memory{sessions: make(map[string]*Session), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *memory) Save(ctx context.Context, s *Session) error {
	now := m.now()
	if s.Created.IsZero() {
		s.Created = now
	}
	s.Touch(now)

	m.mu.Lock()
	prev := m.sessions[s.ID()]
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	if prev != nil && prev != s {
		prev.Engine.Close()
	}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.Touch(m.now())
	return s, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Engine.Close()
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) []string {
	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(idle))
	for _, s := range idle {
		s.Engine.Close()
		ids = append(ids, s.ID())
	}
	return ids
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
