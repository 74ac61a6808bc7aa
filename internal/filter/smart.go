package filter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maxvaer/confscan/internal/scanner"
)

// DefaultBaselineTimeout bounds each decoy request.
const DefaultBaselineTimeout = 6 * time.Second

// ErrUnreachable is returned by CaptureBaseline when no decoy got a response.
var ErrUnreachable = errors.New("target unreachable")

// Fetcher issues a single HTTP request. *scanner.Requester satisfies it.
type Fetcher interface {
	Do(ctx context.Context, method, target string, followRedirects bool) (*scanner.Response, error)
}

// Sample is the stripped response to one decoy request.
type Sample struct {
	Path       string
	StatusCode int
	Fingerprint
	OK bool
}

// BaselineConfig controls decoy capture.
type BaselineConfig struct {
	Timeout time.Duration // per decoy, DefaultBaselineTimeout when zero
}

// DecoyPaths returns the paths fetched to learn what "nothing here" looks
// like: a random directory that cannot exist, the site root and the PHP
// index page.
func DecoyPaths() []string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return []string{"/" + token + "_404/", "/", "/index.php"}
}

// CaptureBaseline fetches every decoy path on origin and records the
// stripped response text. A failed decoy yields a sample with OK=false.
// It only fails when every decoy hit a network error.
func CaptureBaseline(ctx context.Context, f Fetcher, origin *url.URL, cfg BaselineConfig) ([]Sample, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultBaselineTimeout
	}

	paths := DecoyPaths()
	samples := make([]Sample, 0, len(paths))
	var lastErr error
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return samples, err
		}
		target := origin.ResolveReference(&url.URL{Path: p}).String()

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := f.Do(reqCtx, "GET", target, true)
		cancel()

		if err != nil {
			lastErr = err
			samples = append(samples, Sample{Path: p})
			continue
		}
		samples = append(samples, Sample{
			Path:        p,
			StatusCode:  resp.StatusCode,
			Fingerprint: NewFingerprint(StripMarkup(resp.Body)),
			OK:          true,
		})
	}

	for _, s := range samples {
		if s.OK {
			return samples, nil
		}
	}
	return samples, fmt.Errorf("%w: %s: %w", ErrUnreachable, origin.Host, lastErr)
}

// SmartFilter detects soft-404 pages by comparing a response's stripped
// text against the baseline samples.
type SmartFilter struct {
	samples    []Sample
	comparator Comparator
	threshold  float64
}

// NewSmartFilter returns a filter over the successful samples. A nil
// comparator selects AutoComparator.
func NewSmartFilter(samples []Sample, cmp Comparator, threshold float64) *SmartFilter {
	if cmp == nil {
		cmp = AutoComparator{}
	}
	sf := &SmartFilter{comparator: cmp, threshold: threshold}
	for _, s := range samples {
		if s.OK {
			sf.samples = append(sf.samples, s)
		}
	}
	return sf
}

// Comparator returns the similarity measure in use.
func (sf *SmartFilter) Comparator() Comparator { return sf.comparator }

// Samples returns the number of usable baseline samples.
func (sf *SmartFilter) Samples() int { return len(sf.samples) }

// IsSoftNotFound reports whether text is similar enough to any baseline
// sample, along with the best score seen.
func (sf *SmartFilter) IsSoftNotFound(text string) (bool, float64) {
	return sf.match(NewFingerprint(text))
}

func (sf *SmartFilter) match(fp Fingerprint) (bool, float64) {
	best := 0.0
	for _, s := range sf.samples {
		score := sf.comparator.Similarity(fp, s.Fingerprint)
		if score > best {
			best = score
		}
		if score >= sf.threshold {
			return true, score
		}
	}
	return false, best
}

func (sf *SmartFilter) Name() string { return "soft-404" }

func (sf *SmartFilter) ShouldFilter(result *scanner.Result) bool {
	soft, _ := sf.IsSoftNotFound(StripMarkup(result.Body))
	return soft
}
