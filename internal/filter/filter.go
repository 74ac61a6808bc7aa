package filter

import "github.com/maxvaer/confscan/internal/scanner"

// Filter decides whether a probe response should be suppressed instead of
// reported.
type Filter interface {
	Name() string
	ShouldFilter(result *scanner.Result) bool
}

// Chain applies multiple filters in order, short-circuiting on the first match.
type Chain struct {
	filters []Filter
}

// NewChain returns an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Apply runs every filter against the result. Returns true and the filter
// name if the result should be suppressed.
func (c *Chain) Apply(result *scanner.Result) (bool, string) {
	for _, f := range c.filters {
		if f.ShouldFilter(result) {
			return true, f.Name()
		}
	}
	return false, ""
}
