// Package probe requests every catalog candidate beneath a directory and
// classifies the responses.
package probe

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/maxvaer/confscan/internal/filter"
	"github.com/maxvaer/confscan/internal/findings"
	"github.com/maxvaer/confscan/internal/scanner"
	"github.com/maxvaer/confscan/internal/urlnorm"
)

// Recorder receives every classified result.
type Recorder interface {
	Record(result scanner.Result) (findings.Finding, bool)
}

// Config holds the prober's tunables.
type Config struct {
	Candidates []string
	Workers    int
	Throttler  *scanner.Throttler // nil = no delay
	Pauser     *scanner.Pauser    // nil = no pause support
	Logger     *slog.Logger
}

// Prober checks the candidate catalog beneath directory URLs.
type Prober struct {
	fetcher     filter.Fetcher
	chain       *filter.Chain
	sensitivity *filter.SensitivityFilter
	recorder    Recorder
	cfg         Config
	logger      *slog.Logger
}

// New returns a Prober. chain holds the suppression filters run before the
// sensitivity heuristic (soft-404 first); recorder may be nil.
func New(fetcher filter.Fetcher, chain *filter.Chain, recorder Recorder, cfg Config) *Prober {
	if chain == nil {
		chain = filter.NewChain()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Prober{
		fetcher:     fetcher,
		chain:       chain,
		sensitivity: filter.NewSensitivityFilter(),
		recorder:    recorder,
		cfg:         cfg,
		logger:      logger,
	}
}

// ProbeDirectory probes every candidate beneath dirURL and returns the
// results in completion order. It returns early, with the results gathered
// so far, once ctx is done; probes aborted by the cancellation are dropped.
func (p *Prober) ProbeDirectory(ctx context.Context, dirURL string) []scanner.Result {
	base, err := url.Parse(dirURL)
	if err != nil {
		p.logger.Debug("skipping unparsable directory", "url", dirURL, "err", err)
		return nil
	}
	dir := urlnorm.DirURL(base)

	items := make([]scanner.WorkItem, len(p.cfg.Candidates))
	for i, c := range p.cfg.Candidates {
		items[i] = scanner.WorkItem{Directory: dir, Candidate: c}
	}

	resultsCh := scanner.RunWorkerPool(ctx, items, scanner.WorkerConfig{
		Threads:   p.cfg.Workers,
		Throttler: p.cfg.Throttler,
		Pauser:    p.cfg.Pauser,
	}, p.probeOne)

	results := make([]scanner.Result, 0, len(items))
	for r := range resultsCh {
		// Requests cut short by cancellation say nothing about the target.
		if r.Class == scanner.Error && scanner.KindOf(r.Err) == scanner.FailCanceled {
			continue
		}
		if p.recorder != nil {
			p.recorder.Record(r)
		}
		results = append(results, r)
	}
	return results
}

func (p *Prober) probeOne(ctx context.Context, item scanner.WorkItem) scanner.Result {
	r := scanner.Result{Directory: item.Directory, Candidate: item.Candidate}

	base, err := url.Parse(item.Directory)
	if err != nil {
		return p.fail(r, err)
	}
	// A bare Path keeps '?', '#' and ':' in catalog entries part of the path.
	target := base.ResolveReference(&url.URL{Path: item.Candidate})
	r.URL = target.String()

	head, err := p.fetcher.Do(ctx, http.MethodHead, r.URL, false)
	if err != nil {
		return p.fail(r, err)
	}
	p.recordStatus(head.StatusCode)
	r.StatusCode = head.StatusCode

	switch {
	case isNotFound(head.StatusCode):
		r.Class = scanner.NotFound
		return r
	case isRedirect(head.StatusCode) && redirectsHome(target, head.RedirectURL):
		r.Class = scanner.NotFound
		r.RedirectURL = head.RedirectURL
		r.Reason = "redirect to " + head.RedirectURL
		return r
	}

	resp, err := p.fetcher.Do(ctx, http.MethodGet, r.URL, true)
	if err != nil {
		return p.fail(r, err)
	}
	p.recordStatus(resp.StatusCode)

	r.StatusCode = resp.StatusCode
	r.ContentType = resp.ContentType
	r.ContentLength = resp.ContentLength
	r.Body = resp.Body
	r.BodyHash = resp.BodyHash
	r.WordCount = resp.WordCount
	r.LineCount = resp.LineCount
	r.Duration = resp.Duration
	if resp.FinalURL != "" && resp.FinalURL != r.URL {
		r.RedirectURL = resp.FinalURL
	}

	p.classify(&r)
	r.Body = nil
	return r
}

// classify settles a GET response that was neither a network failure nor
// a plain not-found on HEAD.
func (p *Prober) classify(r *scanner.Result) {
	switch {
	case r.StatusCode == http.StatusForbidden:
		r.Class = scanner.Forbidden
		return
	case isNotFound(r.StatusCode):
		r.Class = scanner.NotFound
		return
	}

	if filtered, name := p.chain.Apply(r); filtered {
		r.Class = scanner.Suppressed
		r.Reason = name
		return
	}
	if sensitive, evidence := p.sensitivity.Evaluate(r); sensitive {
		r.Class = scanner.Sensitive
		r.Reason = strings.Join(evidence, ", ")
		return
	}
	r.Class = scanner.Suppressed
	r.Reason = p.sensitivity.Name()
}

func (p *Prober) fail(r scanner.Result, err error) scanner.Result {
	r.Class = scanner.Error
	r.Err = err
	if kind := scanner.KindOf(err); kind != scanner.FailCanceled {
		if p.cfg.Throttler != nil {
			p.cfg.Throttler.RecordError()
		}
		p.logger.Debug("probe failed", "url", r.URL, "kind", kind.String(), "err", err)
	}
	return r
}

func (p *Prober) recordStatus(code int) {
	if p.cfg.Throttler != nil {
		p.cfg.Throttler.RecordStatus(code)
	}
}

func isNotFound(code int) bool {
	return code == http.StatusNotFound || code == http.StatusGone
}

func isRedirect(code int) bool {
	return code >= 300 && code < 400
}

var indexPages = map[string]bool{
	"index.php":    true,
	"index.html":   true,
	"index.htm":    true,
	"index.asp":    true,
	"index.aspx":   true,
	"default.aspx": true,
}

// redirectsHome reports whether location, resolved against target, points
// at the site root or an index page: the usual answer of a server that
// sends every unknown path home.
func redirectsHome(target *url.URL, location string) bool {
	if location == "" {
		return false
	}
	loc, err := url.Parse(location)
	if err != nil {
		return false
	}
	dest := target.ResolveReference(loc)
	if dest.Path == "" || dest.Path == "/" {
		return true
	}
	return indexPages[strings.ToLower(path.Base(dest.Path))]
}
