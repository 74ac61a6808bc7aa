package crawl

import (
	"net/url"
	"sync"

	"github.com/maxvaer/confscan/internal/urlnorm"
)

// NodeState tracks a crawl key through the frontier.
type NodeState int

const (
	Unseen NodeState = iota
	Queued
	Fetching
	Done
)

// Entry is a directory waiting to be crawled.
type Entry struct {
	URL   *url.URL
	Depth int
}

// Frontier is the breadth-first queue of directories. Every crawl key is
// accepted at most once for the lifetime of the frontier.
type Frontier struct {
	mu     sync.Mutex
	queue  []Entry
	states map[urlnorm.Key]NodeState
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{states: make(map[urlnorm.Key]NodeState)}
}

// Push enqueues u at depth unless its key has been seen before.
func (f *Frontier) Push(u *url.URL, depth int) bool {
	key := urlnorm.FromURL(u)
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.states[key]; seen {
		return false
	}
	f.states[key] = Queued
	f.queue = append(f.queue, Entry{URL: u, Depth: depth})
	return true
}

// Pop dequeues the oldest entry and marks it fetching.
func (f *Frontier) Pop() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return Entry{}, false
	}
	e := f.queue[0]
	f.queue[0] = Entry{}
	f.queue = f.queue[1:]
	f.states[urlnorm.FromURL(e.URL)] = Fetching
	return e, true
}

// Done marks the key of u as fully handled.
func (f *Frontier) Done(u *url.URL) {
	f.mu.Lock()
	f.states[urlnorm.FromURL(u)] = Done
	f.mu.Unlock()
}

// State returns the state of the key of u.
func (f *Frontier) State(u *url.URL) NodeState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.states[urlnorm.FromURL(u)]
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Visited returns the number of keys that are fetching or done.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.states {
		if s == Fetching || s == Done {
			n++
		}
	}
	return n
}
