package session

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Gbr22/citymux/internal/logger"
)

// Registry maps session names to live sessions. It is explicit state
// handed to the parts that need it, not a package-level singleton.
// Listing order is creation order.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	seq      map[string]int
	nextSeq  int

	// onEmpty fires after the last session is removed. The server uses
	// it to shut down unless persistence is requested.
	onEmpty func()

	log zerolog.Logger
}

// NewRegistry returns an empty registry. onEmpty may be nil.
func NewRegistry(onEmpty func()) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		seq:      make(map[string]int),
		onEmpty:  onEmpty,
		log:      logger.WithComponent("registry"),
	}
}

// Create spawns a new named session. Name collisions and spawn
// failures are reported to the caller; neither leaves state behind.
func (r *Registry) Create(name string, opts Options) (*Session, error) {
	r.mu.Lock()
	if _, ok := r.sessions[name]; ok {
		r.mu.Unlock()
		return nil, ErrSessionExists
	}
	// Reserve the name before the unlocked spawn so concurrent creates
	// with the same name cannot race past each other.
	r.sessions[name] = nil
	r.mu.Unlock()

	s, err := New(name, opts, r.remove)
	r.mu.Lock()
	if err != nil {
		delete(r.sessions, name)
		r.mu.Unlock()
		return nil, err
	}
	r.sessions[name] = s
	r.seq[name] = r.nextSeq
	r.nextSeq++
	r.mu.Unlock()
	r.log.Info().Str("session", name).Msg("session registered")
	return s, nil
}

// Get resolves a session by name.
func (r *Registry) Get(name string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	if !ok || s == nil {
		return nil, ErrNoSuchSession
	}
	return s, nil
}

// List returns all sessions in creation order.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sessions))
	for name, s := range r.sessions {
		if s != nil {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return r.seq[names[i]] < r.seq[names[j]]
	})
	out := make([]*Session, len(names))
	for i, name := range names {
		out[i] = r.sessions[name]
	}
	return out
}

// Kill closes a session and removes it from the registry.
func (r *Registry) Kill(name string) error {
	s, err := r.Get(name)
	if err != nil {
		return err
	}
	s.Close()
	return nil
}

// CloseAll tears down every session, terminating their children.
func (r *Registry) CloseAll() {
	for _, s := range r.List() {
		s.Close()
	}
}

// remove is the session onClose hook.
func (r *Registry) remove(s *Session) {
	r.mu.Lock()
	if cur, ok := r.sessions[s.Name]; !ok || cur != s {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, s.Name)
	delete(r.seq, s.Name)
	empty := len(r.sessions) == 0
	r.mu.Unlock()
	r.log.Info().Str("session", s.Name).Msg("session removed")
	if empty && r.onEmpty != nil {
		r.onEmpty()
	}
}
