package diary

import "sync"

// Gate serializes access to the data file between goroutines of one process.
//
// Waiters are served strictly first-come-first-served, which [sync.Mutex]
// does not promise. Ownership passes directly from the releasing holder to
// the head of the queue, so no newcomer can barge in between.
//
// A Gate protects exactly one data file. Build it once at startup and hand
// the same instance to every [Store] opened on that file. It does nothing
// against other processes.
type Gate struct {
	mu      sync.Mutex
	held    bool
	waiters []chan struct{}
}

// NewGate returns an unheld gate.
func NewGate() *Gate {
	return &Gate{}
}

// Acquire blocks until the caller owns the gate and returns the function
// that gives it up. release must be called exactly once; calling it twice
// hands ownership to a second waiter while the first still runs. There is
// no timeout or cancellation: a queued caller waits until its turn.
func (g *Gate) Acquire() (release func()) {
	g.mu.Lock()

	if !g.held {
		g.held = true
		g.mu.Unlock()

		return g.release
	}

	turn := make(chan struct{})
	g.waiters = append(g.waiters, turn)
	g.mu.Unlock()

	<-turn

	return g.release
}

// Waiting returns the number of callers queued behind the current holder.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.waiters)
}

func (g *Gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.waiters) == 0 {
		g.held = false

		return
	}

	next := g.waiters[0]
	g.waiters[0] = nil
	g.waiters = g.waiters[1:]

	// held stays true: ownership moves to next.
	close(next)
}
