package filter

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spaolacci/murmur3"
)

const (
	shingleSize = 3
	// minDigestTokens is the shortest text that gets a simhash digest.
	// Shorter texts have too few shingles for the digest to be stable.
	minDigestTokens = 16
	// maxSequenceTokens caps the input of the quadratic sequence matcher.
	maxSequenceTokens = 2000
)

// Fingerprint is a stripped page text prepared for comparison.
type Fingerprint struct {
	Text      string
	Tokens    []string
	Digest    uint64
	HasDigest bool
}

// NewFingerprint tokenizes text and computes its simhash digest when the
// text is long enough to carry one.
func NewFingerprint(text string) Fingerprint {
	fp := Fingerprint{
		Text:   text,
		Tokens: strings.Fields(strings.ToLower(text)),
	}
	if len(fp.Tokens) >= minDigestTokens {
		fp.Digest = simhash(fp.Tokens)
		fp.HasDigest = true
	}
	return fp
}

// Comparator scores how alike two fingerprints are, from 0 (unrelated) to
// 1 (identical).
type Comparator interface {
	Name() string
	Similarity(a, b Fingerprint) float64
}

// NewComparator returns the comparator registered under name: "simhash",
// "sequence" or "auto".
func NewComparator(name string) (Comparator, error) {
	switch name {
	case "simhash":
		return SimhashComparator{}, nil
	case "sequence":
		return SequenceComparator{}, nil
	case "", "auto":
		return AutoComparator{}, nil
	}
	return nil, fmt.Errorf("unknown comparator %q", name)
}

// SimhashComparator compares 64-bit simhash digests by hamming distance.
// Fingerprints without a digest get one computed on the fly.
type SimhashComparator struct{}

func (SimhashComparator) Name() string { return "simhash" }

func (SimhashComparator) Similarity(a, b Fingerprint) float64 {
	da, db := a.Digest, b.Digest
	if !a.HasDigest {
		da = simhash(a.Tokens)
	}
	if !b.HasDigest {
		db = simhash(b.Tokens)
	}
	return 1 - float64(bits.OnesCount64(da^db))/64
}

// SequenceComparator computes the Ratcliff/Obershelp ratio (2*M/T) over
// word tokens.
type SequenceComparator struct{}

func (SequenceComparator) Name() string { return "sequence" }

func (SequenceComparator) Similarity(a, b Fingerprint) float64 {
	m := difflib.NewMatcher(capTokens(a.Tokens), capTokens(b.Tokens))
	return m.Ratio()
}

// AutoComparator uses the digest when both sides carry one and falls back
// to the sequence ratio otherwise.
type AutoComparator struct{}

func (AutoComparator) Name() string { return "auto" }

func (AutoComparator) Similarity(a, b Fingerprint) float64 {
	if a.HasDigest && b.HasDigest {
		return SimhashComparator{}.Similarity(a, b)
	}
	return SequenceComparator{}.Similarity(a, b)
}

func capTokens(tokens []string) []string {
	if len(tokens) > maxSequenceTokens {
		return tokens[:maxSequenceTokens]
	}
	return tokens
}

// simhash folds murmur3 hashes of word shingles into a 64-bit digest.
func simhash(tokens []string) uint64 {
	var weights [64]int
	add := func(feature string) {
		h := murmur3.Sum64([]byte(feature))
		for i := range weights {
			if h&(1<<uint(i)) != 0 {
				weights[i]++
			} else {
				weights[i]--
			}
		}
	}

	if len(tokens) < shingleSize {
		if len(tokens) > 0 {
			add(strings.Join(tokens, " "))
		}
	} else {
		for i := 0; i+shingleSize <= len(tokens); i++ {
			add(strings.Join(tokens[i:i+shingleSize], " "))
		}
	}

	var digest uint64
	for i, w := range weights {
		if w > 0 {
			digest |= 1 << uint(i)
		}
	}
	return digest
}
