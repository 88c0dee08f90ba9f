// Package session tracks per-connection conversation state. Each websocket
// connection owns exactly one State for its lifetime; nothing survives a
// disconnect.
package session

import (
	"sync"

	"github.com/fortuna/pythia/internal/llm"
)

// Settings is the per-session configuration snapshot taken at connect time.
type Settings struct {
	ProjectionsBaseURL string
	StatsBaseURL       string
	StatsAPIKey        string
}

// State holds one session's conversation. History is append-only and
// ordered; the full slice is handed to the model on every turn. Only the
// owning connection goroutine may touch a State, so it carries no lock.
type State struct {
	ID       string
	Settings Settings
	History  []llm.Message
}

// Append records a completed exchange: the user's message followed by the
// assistant's reply.
func (s *State) Append(userText, assistantText string) {
	s.History = append(s.History,
		llm.Message{Role: llm.RoleUser, Content: userText},
		llm.Message{Role: llm.RoleAssistant, Content: assistantText},
	)
}

// Registry maps session IDs to live session state. The mutex only guards
// the map itself; states are single-owner.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*State
	defaults Settings
}

// NewRegistry creates a registry whose sessions start from the given
// default settings.
func NewRegistry(defaults Settings) *Registry {
	return &Registry{
		sessions: make(map[string]*State),
		defaults: defaults,
	}
}

// Create allocates fresh state for id, replacing any stale entry under the
// same identifier.
func (r *Registry) Create(id string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := &State{
		ID:       id,
		Settings: r.defaults,
	}
	r.sessions[id] = state
	return state
}

// Get returns the state for id, or nil if the session is gone.
func (r *Registry) Get(id string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// Remove discards the session unconditionally. Safe to call more than
// once; removal of an absent id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
