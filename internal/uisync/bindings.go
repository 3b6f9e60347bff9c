package uisync

import "sync"

// Bindings tracks which rendering of the controls is current per session.
// Every fragment swap bumps the generation; events tagged with an older
// generation come from discarded elements.
type Bindings struct {
	mu          sync.Mutex
	generations map[string]uint64
}

// NewBindings returns an empty registry.
func NewBindings() *Bindings {
	return &Bindings{generations: make(map[string]uint64)}
}

// Rebind starts a new generation for session and returns it.
func (b *Bindings) Rebind(session string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generations[session]++
	return b.generations[session]
}

// Current returns the session's live generation, 0 before the first swap.
func (b *Bindings) Current(session string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.generations[session]
}

// IsStale reports whether an event tagged with generation must be ignored.
// Untagged events (0) are always accepted.
func (b *Bindings) IsStale(session string, generation uint64) bool {
	if generation == 0 {
		return false
	}
	return generation < b.Current(session)
}
