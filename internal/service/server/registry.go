package server

import (
	"sync"

	"login_gateway/internal/model"
)

// Registry is the set of players currently connected through this gateway.
type Registry struct {
	mu     sync.Mutex
	online map[string]*model.LiveSession
}

func NewRegistry() *Registry {
	return &Registry{
		online: make(map[string]*model.LiveSession),
	}
}

// Claim marks s.Username online. It fails if the name is already held and
// replace is false; with replace the previous holder is displaced.
func (r *Registry) Claim(s *model.LiveSession, replace bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.online[s.Username]; ok && !replace {
		return false
	}
	r.online[s.Username] = s
	return true
}

// Release removes s if it is still the holder of its name. A session that was
// displaced by a reconnect leaves the newer one in place.
func (r *Registry) Release(s *model.LiveSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.online[s.Username] != s {
		return false
	}
	delete(r.online, s.Username)
	return true
}

func (r *Registry) Online(name string) (*model.LiveSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.online[name]
	return s, ok
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.online)
}
