package filter

import (
	"sync"

	"github.com/maxvaer/confscan/internal/scanner"
)

type exactShape struct {
	status   int
	bodyHash [16]byte
}

// looseShape groups bodies that differ only in small embedded details such
// as the requested path.
type looseShape struct {
	status     int
	lines      int
	wordBucket int
}

// DuplicateFilter suppresses catch-all routes that keep serving the same
// page under different names. Identical bodies are allowed threshold times,
// structurally identical ones three times as often (at least 5).
//
// The filter is stateful: which response of a repeated group survives
// depends on completion order, so it is off unless configured.
type DuplicateFilter struct {
	mu          sync.Mutex
	exact       map[exactShape]int
	loose       map[looseShape]int
	threshold   int
	looseThresh int
}

// NewDuplicateFilter returns a filter that lets threshold identical
// responses through.
func NewDuplicateFilter(threshold int) *DuplicateFilter {
	return &DuplicateFilter{
		exact:       make(map[exactShape]int),
		loose:       make(map[looseShape]int),
		threshold:   threshold,
		looseThresh: max(threshold*3, 5),
	}
}

func (d *DuplicateFilter) Name() string { return "duplicate" }

func (d *DuplicateFilter) ShouldFilter(result *scanner.Result) bool {
	e := exactShape{status: result.StatusCode, bodyHash: result.BodyHash}
	l := looseShape{status: result.StatusCode, lines: result.LineCount, wordBucket: result.WordCount / 5}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.exact[e]++
	d.loose[l]++
	return d.exact[e] > d.threshold || d.loose[l] > d.looseThresh
}
