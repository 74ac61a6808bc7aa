package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maxvaer/confscan/internal/scanner"
)

// Progress shows crawl and probe counters on a single refreshing line.
// A disabled Progress only counts.
type Progress struct {
	w       io.Writer
	enabled bool
	start   time.Time

	total     atomic.Int64
	completed atomic.Int64
	found     atomic.Int64
	errors    atomic.Int64
	dirs      atomic.Int64
	queued    atomic.Int64

	mu      sync.Mutex // serializes drawing
	started atomic.Bool
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewProgress creates a progress tracker writing to w. Call Start to begin
// display updates.
func NewProgress(w io.Writer, enabled bool) *Progress {
	return &Progress{
		w:       w,
		enabled: enabled,
		start:   time.Now(),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins periodically redrawing the line.
func (p *Progress) Start() {
	if !p.enabled || !p.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(p.stopped)
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Redraw()
			case <-p.done:
				p.Redraw()
				p.mu.Lock()
				fmt.Fprint(p.w, "\n")
				p.mu.Unlock()
				return
			}
		}
	}()
}

// Directory records that a directory is about to be probed with n
// candidates while queued directories wait.
func (p *Progress) Directory(n, queued int) {
	p.dirs.Add(1)
	p.total.Add(int64(n))
	p.queued.Store(int64(queued))
}

// Record counts one classified probe.
func (p *Progress) Record(c scanner.Classification) {
	p.completed.Add(1)
	switch {
	case c.IsFinding():
		p.found.Add(1)
	case c == scanner.Error:
		p.errors.Add(1)
	}
}

// Completed returns the number of recorded probes.
func (p *Progress) Completed() int64 { return p.completed.Load() }

// Stop ends the display and waits for the final redraw.
func (p *Progress) Stop() {
	p.once.Do(func() { close(p.done) })
	if p.started.Load() {
		<-p.stopped
	}
}

// ClearLine erases the progress line so other output can be printed.
func (p *Progress) ClearLine() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	fmt.Fprint(p.w, "\r\033[K")
	p.mu.Unlock()
}

// Redraw prints the current counters.
func (p *Progress) Redraw() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	completed := p.completed.Load()
	rate := 0.0
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		rate = float64(completed) / elapsed
	}
	fmt.Fprintf(p.w, "\r\033[K[dir %d, %d queued] %d/%d probes | %.0f req/s | Found: %d | Errors: %d",
		p.dirs.Load(), p.queued.Load(), completed, p.total.Load(), rate,
		p.found.Load(), p.errors.Load())
}
