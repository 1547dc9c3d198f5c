// Package session keeps the per-visitor conversation state of the chatbot.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ragchat/internal/domain"
)

type State int

const (
	Idle State = iota
	Processing
)

func (s State) String() string {
	if s == Processing {
		return "processing"
	}
	return "idle"
}

// Session is one conversation. Its log is append-only until Reset.
type Session struct {
	ID string

	mu        sync.Mutex
	turns     []domain.Turn
	lastError string
	state     State
	lastSeen  time.Time
}

// Begin moves the session from idle to processing. It reports false when a
// turn is already running.
func (s *Session) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Processing {
		return false
	}
	s.state = Processing
	s.lastError = ""
	return true
}

// End returns the session to idle.
func (s *Session) End() {
	s.mu.Lock()
	s.state = Idle
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Append(turn domain.Turn) {
	s.mu.Lock()
	s.turns = append(s.turns, turn)
	s.mu.Unlock()
}

// Turns returns a copy of the log.
func (s *Session) Turns() []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) SetError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()
}

func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Reset clears the log and the last error.
func (s *Session) Reset() {
	s.mu.Lock()
	s.turns = nil
	s.lastError = ""
	s.mu.Unlock()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) expired(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == Idle && s.lastSeen.Before(cutoff)
}

// Registry holds the live sessions of a process.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// New starts a session with a fresh random ID.
func (r *Registry) New() *Session {
	s := &Session{ID: uuid.NewString(), lastSeen: r.now()}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with id and marks it as seen. The touch happens
// under the registry lock so a concurrent Sweep cannot drop it in between.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		s.touch(r.now())
	}
	return s, ok
}

// GetOrCreate returns the session with id, or a new session when id is not
// a live session. Callers must use the returned session's ID from then on.
func (r *Registry) GetOrCreate(id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err == nil {
		if s, ok := r.Get(id); ok {
			return s, false
		}
	}
	return r.New(), true
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops idle sessions not seen within ttl and returns how many were
// dropped. Sessions in the middle of a turn are kept.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if s.expired(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, ttl, interval time.Duration, onSweep func(dropped int)) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(ttl); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
