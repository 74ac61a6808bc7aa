package scanner

import (
	"context"
	"sync"
	"time"
)

// Pauser provides a cooperative pause/resume gate for worker goroutines
// and the crawl loop. When not paused, Wait is a mutex lock, a bool check
// and an unlock.
type Pauser struct {
	mu          sync.Mutex
	paused      bool
	resumed     chan struct{} // closed on resume; nil while running
	pausedSince time.Time
	totalPaused time.Duration
}

// NewPauser creates a Pauser in the running (unpaused) state.
func NewPauser() *Pauser {
	return &Pauser{}
}

// Wait blocks while the scan is paused. It returns ctx.Err() if the
// context ends first, nil otherwise. A nil Pauser never blocks.
func (p *Pauser) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	if !p.paused {
		p.mu.Unlock()
		return nil
	}
	ch := p.resumed
	p.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Toggle flips between paused and running states.
// Returns the new paused state (true = now paused).
func (p *Pauser) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.paused {
		p.totalPaused += time.Since(p.pausedSince)
		p.paused = false
		close(p.resumed)
		p.resumed = nil
	} else {
		p.paused = true
		p.pausedSince = time.Now()
		p.resumed = make(chan struct{})
	}
	return p.paused
}

// IsPaused returns whether the scan is currently paused.
func (p *Pauser) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// PausedDuration returns the total time spent paused, including any
// ongoing pause.
func (p *Pauser) PausedDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.totalPaused
	if p.paused {
		d += time.Since(p.pausedSince)
	}
	return d
}
