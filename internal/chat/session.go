package chat

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionStore keeps the last window messages of at most maxSessions
// conversations. The least recently used session is dropped first.
type SessionStore struct {
	// mu serializes Append's read-modify-write; the cache guards itself.
	mu     sync.Mutex
	window int
	cache  *lru.Cache[string, []Message]
}

func NewSessionStore(window, maxSessions int) *SessionStore {
	if window <= 0 {
		window = 10
	}
	if maxSessions <= 0 {
		maxSessions = 1000
	}
	cache, err := lru.New[string, []Message](maxSessions)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &SessionStore{window: window, cache: cache}
}

// History returns a copy of the session's messages, oldest first.
func (s *SessionStore) History(id string) []Message {
	msgs, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

func (s *SessionStore) Append(id string, msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, _ := s.cache.Get(id)
	next := make([]Message, 0, len(prev)+len(msgs))
	next = append(next, prev...)
	next = append(next, msgs...)
	if over := len(next) - s.window; over > 0 {
		next = next[over:]
	}
	s.cache.Add(id, next)
}
