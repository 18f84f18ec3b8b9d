package workspace

import (
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// gate admits one call at a time and fails fast instead of queueing.
type gate struct {
	sem  *semaphore.Weighted
	held atomic.Bool
}

func newGate() *gate {
	return &gate{sem: semaphore.NewWeighted(1)}
}

func (g *gate) tryAcquire() bool {
	if !g.sem.TryAcquire(1) {
		return false
	}
	g.held.Store(true)
	return true
}

func (g *gate) release() {
	g.held.Store(false)
	g.sem.Release(1)
}

func (g *gate) busy() bool {
	return g.held.Load()
}
