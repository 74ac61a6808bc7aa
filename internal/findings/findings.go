// Package findings collects classified probe results into the deduplicated
// set of findings reported at the end of a run.
package findings

import (
	"sort"
	"sync"
	"time"

	"github.com/maxvaer/confscan/internal/scanner"
	"github.com/maxvaer/confscan/internal/urlnorm"
)

// Finding is a reported URL.
type Finding struct {
	URL         string                 `json:"url"`
	Class       scanner.Classification `json:"class"`
	StatusCode  int                    `json:"status"`
	ContentType string                 `json:"content_type,omitempty"`
	Size        int64                  `json:"size"`
	Evidence    string                 `json:"evidence,omitempty"`
}

// Event announces a new finding, or one upgraded from Forbidden to
// Sensitive.
type Event struct {
	Finding
	Upgraded bool `json:"upgraded,omitempty"`
}

// Sink receives events as findings are recorded.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// MultiSink fans events out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Report is the final summary of a run.
type Report struct {
	Target      string                         `json:"target"`
	Sensitive   []Finding                      `json:"sensitive"`
	Forbidden   []Finding                      `json:"forbidden"`
	Counts      map[scanner.Classification]int `json:"counts"`
	Directories int                            `json:"directories"`
	StartedAt   time.Time                      `json:"started_at"`
	Elapsed     time.Duration                  `json:"elapsed_ns"`
	Interrupted bool                           `json:"interrupted"`
}

// Total returns the number of reported findings.
func (r Report) Total() int { return len(r.Sensitive) + len(r.Forbidden) }

// Aggregator is the per-run finding set. It is safe for concurrent use.
type Aggregator struct {
	target string
	sink   Sink
	start  time.Time

	mu     sync.Mutex
	found  map[string]Finding
	counts map[scanner.Classification]int
}

// NewAggregator starts a finding set for target. sink may be nil.
func NewAggregator(target string, sink Sink) *Aggregator {
	return &Aggregator{
		target: target,
		sink:   sink,
		start:  time.Now(),
		found:  make(map[string]Finding),
		counts: make(map[scanner.Classification]int),
	}
}

// Record counts result and adds it to the set when it is a finding. A URL
// already recorded is kept unless a Sensitive result replaces a Forbidden
// one. It returns the finding and whether the set changed.
func (a *Aggregator) Record(result scanner.Result) (Finding, bool) {
	a.mu.Lock()
	a.counts[result.Class]++
	if !result.Class.IsFinding() {
		a.mu.Unlock()
		return Finding{}, false
	}

	key := urlnorm.Normalize(result.URL).String()
	if key == "" {
		key = result.URL
	}
	prev, seen := a.found[key]
	if seen && !(prev.Class == scanner.Forbidden && result.Class == scanner.Sensitive) {
		a.mu.Unlock()
		return prev, false
	}
	f := Finding{
		URL:         key,
		Class:       result.Class,
		StatusCode:  result.StatusCode,
		ContentType: result.ContentType,
		Size:        result.ContentLength,
	}
	if result.Class == scanner.Sensitive {
		f.Evidence = result.Reason
	}
	a.found[key] = f
	a.mu.Unlock()

	if a.sink != nil {
		a.sink.Emit(Event{Finding: f, Upgraded: seen})
	}
	return f, true
}

// Len returns the number of findings recorded so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.found)
}

// Report snapshots the set, sorted by URL and grouped by classification.
func (a *Aggregator) Report(interrupted bool) Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	r := Report{
		Target:      a.target,
		Sensitive:   []Finding{},
		Forbidden:   []Finding{},
		Counts:      make(map[scanner.Classification]int, len(a.counts)),
		StartedAt:   a.start,
		Elapsed:     time.Since(a.start),
		Interrupted: interrupted,
	}
	for c, n := range a.counts {
		r.Counts[c] = n
	}
	for _, f := range a.found {
		if f.Class == scanner.Sensitive {
			r.Sensitive = append(r.Sensitive, f)
		} else {
			r.Forbidden = append(r.Forbidden, f)
		}
	}
	byURL := func(list []Finding) {
		sort.Slice(list, func(i, j int) bool { return list[i].URL < list[j].URL })
	}
	byURL(r.Sensitive)
	byURL(r.Forbidden)
	return r
}
