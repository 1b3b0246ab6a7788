package application

import "sync"

// generationTracker hands out a monotonically increasing generation per key. A result produced
// under generation g may only be published while IsCurrent(key, g) holds, so a slow, superseded
// fetch cannot overwrite what a newer one (or an invalidation) produced.
//
// Keys are only tracked while a fetch is in flight; Done drops the entry once the last one settles.
type generationTracker struct {
	mu   sync.Mutex
	gens map[string]*generation
}

type generation struct {
	current  uint64
	inflight int
}

func newGenerationTracker() *generationTracker {
	return &generationTracker{gens: make(map[string]*generation)}
}

// Begin starts a fetch for key and returns its generation. Every Begin must be paired with Done.
func (t *generationTracker) Begin(key string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gens[key]
	if !ok {
		g = &generation{}
		t.gens[key] = g
	}
	g.current++
	g.inflight++
	return g.current
}

// Supersede invalidates every fetch in flight for key. Without one there is nothing to supersede.
func (t *generationTracker) Supersede(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if g, ok := t.gens[key]; ok {
		g.current++
	}
}

// IsCurrent reports whether gen is still the latest generation for key
func (t *generationTracker) IsCurrent(key string, gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gens[key]
	return ok && g.current == gen
}

// Done ends a fetch started by Begin
func (t *generationTracker) Done(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.gens[key]
	if !ok {
		return
	}
	g.inflight--
	if g.inflight <= 0 {
		delete(t.gens, key)
	}
}

func (t *generationTracker) tracked() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.gens)
}
