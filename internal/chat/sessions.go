package chat

import (
	"github.com/google/uuid"

	"github.com/couchcryptid/galaxia/internal/lru"
)

// Session is the client view of one conversation.
type Session struct {
	ID       string    `json:"id"`
	Busy     bool      `json:"busy"`
	Messages []Message `json:"messages"`
}

// Sessions keeps the most recently used conversations in memory. The least
// recently used one is forgotten once the limit is reached.
type Sessions struct {
	cache   *lru.Cache[string, *Assistant]
	factory func() *Assistant
}

// NewSessions creates a store holding at most maxSessions conversations,
// each built by factory.
func NewSessions(maxSessions int, factory func() *Assistant) *Sessions {
	return &Sessions{
		cache:   lru.New[string, *Assistant](maxSessions),
		factory: factory,
	}
}

// Create starts a new conversation.
func (s *Sessions) Create() (string, *Assistant) {
	id := uuid.NewString()
	a := s.factory()
	s.cache.Put(id, a)
	return id, a
}

// Get returns the conversation for id.
func (s *Sessions) Get(id string) (*Assistant, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	return s.cache.Get(id)
}

// Len returns the number of live conversations.
func (s *Sessions) Len() int { return s.cache.Len() }

// View renders the conversation for id.
func View(id string, a *Assistant) Session {
	return Session{ID: id, Busy: a.Busy(), Messages: a.Transcript()}
}
