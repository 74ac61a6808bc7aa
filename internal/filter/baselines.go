package filter

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/maxvaer/confscan/internal/scanner"
	"github.com/maxvaer/confscan/internal/urlnorm"
)

// BaselineSet holds one SmartFilter per origin. Subdomain crawls reach
// hosts whose "nothing here" page differs from the target's, so each
// origin is fingerprinted the first time one of its directories is
// probed. It is safe for concurrent use.
type BaselineSet struct {
	fetcher   Fetcher
	cmp       Comparator
	threshold float64
	cfg       BaselineConfig
	logger    *slog.Logger

	mu       sync.RWMutex
	byOrigin map[string]*SmartFilter
	fallback *SmartFilter
}

// NewBaselineSet seeds the set with the target's filter, which is also
// used for origins whose own capture failed.
func NewBaselineSet(f Fetcher, target *url.URL, primary *SmartFilter, cmp Comparator, threshold float64, cfg BaselineConfig, logger *slog.Logger) *BaselineSet {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BaselineSet{
		fetcher:   f,
		cmp:       cmp,
		threshold: threshold,
		cfg:       cfg,
		logger:    logger,
		byOrigin:  map[string]*SmartFilter{originKey(target): primary},
		fallback:  primary,
	}
}

// Ensure captures a baseline for dirURL's origin unless one exists.
// Capture runs outside the lock; calls for the same origin are expected
// from the single crawl loop.
func (b *BaselineSet) Ensure(ctx context.Context, dirURL string) {
	u, err := url.Parse(dirURL)
	if err != nil {
		return
	}
	key := originKey(u)
	b.mu.RLock()
	_, ok := b.byOrigin[key]
	b.mu.RUnlock()
	if ok {
		return
	}

	origin := &url.URL{Scheme: u.Scheme, Host: u.Host}
	samples, err := CaptureBaseline(ctx, b.fetcher, origin, b.cfg)
	if ctx.Err() != nil {
		return
	}
	sf := NewSmartFilter(samples, b.cmp, b.threshold)
	if err != nil || sf.Samples() == 0 {
		b.logger.Debug("baseline capture failed, using the target's", "origin", key, "err", err)
		sf = b.fallback
	} else {
		b.logger.Debug("baseline captured", "origin", key, "samples", sf.Samples())
	}

	b.mu.Lock()
	b.byOrigin[key] = sf
	b.mu.Unlock()
}

// For returns the filter for rawURL's origin, or the target's.
func (b *BaselineSet) For(rawURL string) *SmartFilter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return b.fallback
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if sf, ok := b.byOrigin[originKey(u)]; ok {
		return sf
	}
	return b.fallback
}

// Origins returns the number of origins with a baseline.
func (b *BaselineSet) Origins() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byOrigin)
}

func (b *BaselineSet) Name() string { return "soft-404" }

func (b *BaselineSet) ShouldFilter(result *scanner.Result) bool {
	return b.For(result.URL).ShouldFilter(result)
}

func originKey(u *url.URL) string {
	k := urlnorm.FromURL(u)
	return k.Scheme + "://" + k.Host
}
