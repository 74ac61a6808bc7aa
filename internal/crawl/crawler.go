// Package crawl walks a site breadth-first, one directory at a time, and
// hands every discovered directory to a prober exactly once.
package crawl

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/maxvaer/confscan/internal/config"
	"github.com/maxvaer/confscan/internal/scanner"
	"github.com/maxvaer/confscan/internal/urlnorm"
)

// Fetcher issues a single HTTP request. *scanner.Requester satisfies it.
type Fetcher interface {
	Do(ctx context.Context, method, target string, followRedirects bool) (*scanner.Response, error)
}

// DirectoryProber searches one directory for sensitive files.
type DirectoryProber interface {
	ProbeDirectory(ctx context.Context, dirURL string) []scanner.Result
}

// Config holds crawler options.
type Config struct {
	MaxDepth int          // config.Unbounded for no limit
	Scope    config.Scope // defaults to config.ScopeHost
	Pauser   *scanner.Pauser
	Logger   *slog.Logger
	// OnDirectory, when set, is called before each directory is probed.
	OnDirectory func(dirURL string, depth, queued int)
}

// Stats summarizes a crawl.
type Stats struct {
	Fetched     int // directory pages fetched
	FetchFailed int
	Discovered  int // directories added to the frontier, root included
	Probed      int
	OffOrigin   int // pages dropped for redirecting out of scope
	Interrupted bool
}

// Crawler runs the breadth-first crawl.
type Crawler struct {
	target   *url.URL
	fetcher  Fetcher
	prober   DirectoryProber
	cfg      Config
	scope    *Scope
	frontier *Frontier
	probed   map[urlnorm.Key]struct{}
	logger   *slog.Logger
}

// New returns a crawler rooted at target.
func New(target *url.URL, fetcher Fetcher, prober DirectoryProber, cfg Config) *Crawler {
	if cfg.Scope == "" {
		cfg.Scope = config.ScopeHost
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Crawler{
		target:   target,
		fetcher:  fetcher,
		prober:   prober,
		cfg:      cfg,
		scope:    NewScope(cfg.Scope, target),
		frontier: NewFrontier(),
		probed:   make(map[urlnorm.Key]struct{}),
		logger:   logger,
	}
}

// Frontier exposes the crawl queue.
func (c *Crawler) Frontier() *Frontier { return c.frontier }

// Run crawls until the frontier is empty or ctx is done.
func (c *Crawler) Run(ctx context.Context) Stats {
	var stats Stats

	root := DirectoryOf(c.target)
	if c.frontier.Push(root, 0) {
		stats.Discovered++
	}

	for {
		if ctx.Err() != nil {
			break
		}
		if err := c.cfg.Pauser.Wait(ctx); err != nil {
			break
		}
		entry, ok := c.frontier.Pop()
		if !ok {
			break
		}
		probe := c.visit(ctx, entry, &stats)
		c.frontier.Done(entry.URL)
		if probe && ctx.Err() == nil {
			c.probe(ctx, entry, &stats)
		}
	}

	stats.Interrupted = ctx.Err() != nil
	return stats
}

// visit fetches the directory page and enqueues its links. It returns
// false when the directory must not be probed.
func (c *Crawler) visit(ctx context.Context, entry Entry, stats *Stats) bool {
	dir := entry.URL.String()
	resp, err := c.fetcher.Do(ctx, http.MethodGet, dir, true)
	if err != nil {
		stats.FetchFailed++
		if scanner.KindOf(err) != scanner.FailCanceled {
			c.logger.Debug("directory fetch failed", "url", dir, "kind", scanner.KindOf(err).String(), "err", err)
		}
		// Unreachable listings are still worth probing.
		return true
	}
	stats.Fetched++

	page := entry.URL
	if resp.FinalURL != "" {
		if final, err := url.Parse(resp.FinalURL); err == nil {
			page = final
		}
	}
	if c.scope.Mode() == config.ScopeOrigin && !c.scope.Allows(page) {
		stats.OffOrigin++
		c.logger.Debug("directory redirected off origin", "url", dir, "final", page.String())
		// The target itself is always probed, only its links are dropped.
		return entry.Depth == 0
	}

	if c.cfg.MaxDepth != config.Unbounded && entry.Depth >= c.cfg.MaxDepth {
		return true
	}
	for _, link := range ExtractLinks(resp.Body, page) {
		if !c.scope.Allows(link) {
			continue
		}
		if c.frontier.Push(DirectoryOf(link), entry.Depth+1) {
			stats.Discovered++
		}
	}
	return true
}

func (c *Crawler) probe(ctx context.Context, entry Entry, stats *Stats) {
	key := urlnorm.FromURL(entry.URL)
	if _, done := c.probed[key]; done {
		return
	}
	c.probed[key] = struct{}{}
	stats.Probed++

	dir := urlnorm.DirURL(entry.URL)
	if c.cfg.OnDirectory != nil {
		c.cfg.OnDirectory(dir, entry.Depth, c.frontier.Len())
	}
	c.prober.ProbeDirectory(ctx, dir)
}
