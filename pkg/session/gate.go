// Package session holds the per-user interactive state: the login gate and
// the selection state machine driving which form fields are shown.
package session

import "sync"

// Gate is an explicitly passed session flag. Hosts construct one, hand it to
// whatever needs to check login state, and flip it from their auth flow.
// There is deliberately no package-level instance.
type Gate struct {
	mu     sync.RWMutex
	active bool
}

// NewGate returns an inactive gate.
func NewGate() *Gate {
	return &Gate{}
}

// Active reports whether a session is currently established.
func (g *Gate) Active() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.active
}

// SetActive records the session state.
func (g *Gate) SetActive(active bool) {
	g.mu.Lock()
	g.active = active
	g.mu.Unlock()
}

// Clear drops the session.
func (g *Gate) Clear() {
	g.SetActive(false)
}
