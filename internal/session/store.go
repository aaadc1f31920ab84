package session

import "sync"

// Store maps session ids to Sessions. Create and lookup are guarded by a
// lock; a Session's own fields are touched by at most one writer each (the
// loop goroutine appends history, the parser writes Responses, whoever
// signals an event owns that event).
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the existing Session for id, or creates and stores one.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = New(id)
		s.sessions[id] = sess
	}
	return sess
}

// Put registers an already-constructed Session, e.g. one a voice connection
// built itself before it has a caller-supplied id to look up.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
}

// Get returns the Session for id and whether it existed.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Delete removes a session, e.g. on voice channel close or chat tab discard.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// CancelActiveResponse sets the Cancel latch for id, if the session exists.
// The Session.Cancel event is the authoritative mechanism it delegates to.
func (s *Store) CancelActiveResponse(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		sess.Cancel.Set()
	}
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
