// Package memory holds per-session conversation transcripts in process
// memory. State is volatile: it lives for the process lifetime only.
package memory

import (
	"sync"

	"finrag/internal/model"
)

// Transcript is the ordered turn history of one session. Appends hold the
// transcript mutex so a user/assistant pair is never interleaved with
// another writer's records.
type Transcript struct {
	mu    sync.Mutex
	turns []model.Turn
}

// Len returns the current number of turns.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.turns)
}

// Store maps session ids to transcripts. Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Transcript
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Transcript)}
}

// GetOrCreate returns the session's transcript, creating an empty one on
// first reference. Idempotent: an existing transcript is never replaced.
func (s *Store) GetOrCreate(sessionID string) *Transcript {
	s.mu.RLock()
	t, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.sessions[sessionID]; ok {
		return t
	}
	t = &Transcript{}
	s.sessions[sessionID] = t
	return t
}

// Append adds one turn to the session, creating the transcript if the
// session was never seen.
func (s *Store) Append(sessionID, role, text string) {
	t := s.GetOrCreate(sessionID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, model.Turn{Role: role, Text: text})
}

// AppendExchange records one answered exchange: the user turn followed by
// the assistant turn, inserted atomically.
func (s *Store) AppendExchange(sessionID, question, answer string) {
	t := s.GetOrCreate(sessionID)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns,
		model.Turn{Role: model.RoleUser, Text: question},
		model.Turn{Role: model.RoleAssistant, Text: answer},
	)
}

// Recent returns a copy of the last maxExchanges*2 turns, oldest first.
// If fewer turns exist, all of them are returned. Reads never mutate.
func (s *Store) Recent(sessionID string, maxExchanges int) []model.Turn {
	t := s.GetOrCreate(sessionID)
	t.mu.Lock()
	defer t.mu.Unlock()

	window := maxExchanges * 2
	if window <= 0 || window > len(t.turns) {
		window = len(t.turns)
	}
	out := make([]model.Turn, window)
	copy(out, t.turns[len(t.turns)-window:])
	return out
}
