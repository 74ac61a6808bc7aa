package filter

import (
	"bytes"

	"github.com/maxvaer/confscan/internal/scanner"
)

// StatusFilter suppresses responses with the given status codes.
type StatusFilter struct {
	exclude map[int]struct{}
}

// NewStatusFilter creates a filter that suppresses the given status codes.
func NewStatusFilter(exclude []int) *StatusFilter {
	f := &StatusFilter{exclude: make(map[int]struct{}, len(exclude))}
	for _, code := range exclude {
		f.exclude[code] = struct{}{}
	}
	return f
}

func (f *StatusFilter) Name() string { return "status" }

func (f *StatusFilter) ShouldFilter(result *scanner.Result) bool {
	_, ok := f.exclude[result.StatusCode]
	return ok
}

// SizeFilter suppresses responses whose body has one of the given sizes.
type SizeFilter struct {
	sizes map[int64]struct{}
}

// NewSizeFilter creates a filter that drops results with the given body sizes.
func NewSizeFilter(excludeSizes []int) *SizeFilter {
	f := &SizeFilter{sizes: make(map[int64]struct{}, len(excludeSizes))}
	for _, s := range excludeSizes {
		f.sizes[int64(s)] = struct{}{}
	}
	return f
}

func (f *SizeFilter) Name() string { return "size" }

func (f *SizeFilter) ShouldFilter(result *scanner.Result) bool {
	_, ok := f.sizes[result.ContentLength]
	return ok
}

// BodyFilter suppresses responses by body content. In match mode only
// bodies containing the needle survive; otherwise bodies containing it
// are dropped.
type BodyFilter struct {
	needle []byte
	match  bool
}

// NewBodyExcludeFilter suppresses bodies containing needle.
func NewBodyExcludeFilter(needle string) *BodyFilter {
	return &BodyFilter{needle: []byte(needle)}
}

// NewBodyMatchFilter suppresses bodies that do not contain needle.
func NewBodyMatchFilter(needle string) *BodyFilter {
	return &BodyFilter{needle: []byte(needle), match: true}
}

func (f *BodyFilter) Name() string {
	if f.match {
		return "body-match"
	}
	return "body-exclude"
}

func (f *BodyFilter) ShouldFilter(result *scanner.Result) bool {
	return bytes.Contains(result.Body, f.needle) != f.match
}
