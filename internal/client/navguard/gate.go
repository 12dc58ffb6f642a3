package navguard

import "sync"

// Blocker inspects the current form and either lets a navigation to target
// proceed (false) or blocks it (true), typically after raising its own
// confirmation surface.
type Blocker func(target string) bool

// Gate is the single-slot navigation blocker registry. It is constructed
// once at the application root and handed to every component that can
// initiate navigation; there is no ambient global. Registering replaces any
// previous blocker, and a form unregisters on unmount.
type Gate struct {
	mu      sync.Mutex
	blocker Blocker
}

func NewGate() *Gate {
	return &Gate{}
}

func (g *Gate) Register(b Blocker) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocker = b
}

func (g *Gate) Unregister() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.blocker = nil
}

// Allowed asks the registered blocker, if any, whether navigation to target
// may proceed. With no blocker registered every navigation is allowed.
func (g *Gate) Allowed(target string) bool {
	g.mu.Lock()
	b := g.blocker
	g.mu.Unlock()

	if b == nil {
		return true
	}
	return !b(target)
}
