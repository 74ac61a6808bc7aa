package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"golang.org/x/term"

	"github.com/maxvaer/confscan/internal/catalog"
	"github.com/maxvaer/confscan/internal/config"
	"github.com/maxvaer/confscan/internal/crawl"
	"github.com/maxvaer/confscan/internal/filter"
	"github.com/maxvaer/confscan/internal/findings"
	"github.com/maxvaer/confscan/internal/hook"
	"github.com/maxvaer/confscan/internal/output"
	"github.com/maxvaer/confscan/internal/probe"
	"github.com/maxvaer/confscan/internal/scanner"
	"github.com/maxvaer/confscan/internal/wordlist"
	"github.com/maxvaer/confscan/pkg/version"
)

// Run crawls opts.URL and probes every directory it finds. Cancelling ctx
// is not an error: the partial report is written, marked interrupted, and
// Run returns nil. Configuration problems, including an origin that does
// not answer any baseline request, are returned before the crawl starts.
func Run(ctx context.Context, opts *config.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	target, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", opts.URL, err)
	}

	var status io.Writer = os.Stderr
	if opts.Quiet {
		status = io.Discard
	}
	logger := newLogger(os.Stderr, opts)

	// 1. Catalog and user agents.
	candidates, err := catalog.Load(opts.PathsFile)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	agents, missing, err := wordlist.LoadUserAgents(opts.UserAgentsFile)
	if err != nil {
		return fmt.Errorf("loading user agents: %w", err)
	}
	if missing {
		fmt.Fprintf(status, "[!] User agent file %s not found, using the default agent\n", opts.UserAgentsFile)
	}

	// 2. HTTP requester.
	req, err := scanner.NewRequester(opts, agents)
	if err != nil {
		return fmt.Errorf("creating requester: %w", err)
	}

	// 3. Output writer.
	out, err := createWriter(opts)
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer out.Close()

	if !opts.Quiet {
		printBanner(opts, len(candidates))
	}

	// 4. Baseline capture and filter chain.
	fmt.Fprintf(status, "[*] Capturing soft-404 baseline from %s://%s ...\n", target.Scheme, target.Host)
	samples, err := filter.CaptureBaseline(ctx, req, target, filter.BaselineConfig{Timeout: opts.Timeout})
	if err != nil {
		if ctx.Err() != nil {
			return out.WriteReport(findings.NewAggregator(target.String(), nil).Report(true))
		}
		return fmt.Errorf("capturing baseline: %w", err)
	}
	smart, err := newSmartFilter(samples, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(status, "[+] Baseline ready: %d/%d decoys answered\n", smart.Samples(), len(samples))
	baselines := filter.NewBaselineSet(req, target, smart, smart.Comparator(), opts.Similarity,
		filter.BaselineConfig{Timeout: opts.Timeout}, logger)
	chain := buildChain(opts, baselines)

	// 5. Pause toggle, progress and sinks.
	pauser, cleanup := startPauseToggle(status)
	defer cleanup()

	progress := output.NewProgress(os.Stderr, !opts.Quiet && term.IsTerminal(int(os.Stderr.Fd())))
	sinks := findings.MultiSink{findings.SinkFunc(func(e findings.Event) {
		progress.ClearLine()
		if err := out.WriteFinding(e); err != nil {
			logger.Warn("writing finding", "url", e.URL, "err", err)
		}
		progress.Redraw()
	})}
	if opts.OnResultCmd != "" {
		sinks = append(sinks, hook.NewRunner(opts.OnResultCmd, os.Stderr, logger))
	}
	agg := findings.NewAggregator(target.String(), sinks)

	// 6. Prober and crawler.
	throttler := scanner.NewThrottler(scanner.ThrottleConfig{
		MinDelay:  opts.MinDelay,
		MaxDelay:  opts.MaxDelay,
		Adaptive:  opts.AdaptiveThrottle,
		RateLimit: opts.RateLimit,
		Logger:    logger,
	})
	prober := probe.New(req, chain, progressRecorder{agg: agg, progress: progress}, probe.Config{
		Candidates: candidates,
		Workers:    opts.Threads,
		Throttler:  throttler,
		Pauser:     pauser,
		Logger:     logger,
	})
	crawler := crawl.New(target, req, baselineProber{baselines: baselines, prober: prober}, crawl.Config{
		MaxDepth: opts.MaxDepth,
		Scope:    opts.Scope,
		Pauser:   pauser,
		Logger:   logger,
		OnDirectory: func(dir string, depth, queued int) {
			progress.Directory(len(candidates), queued)
			logger.Debug("probing directory", "url", dir, "depth", depth, "queued", queued)
		},
	})

	progress.Start()
	stats := crawler.Run(ctx)
	progress.Stop()

	// 7. Report.
	report := agg.Report(stats.Interrupted)
	report.Directories = stats.Probed
	logger.Debug("crawl finished",
		"fetched", stats.Fetched, "fetch_failed", stats.FetchFailed,
		"discovered", stats.Discovered, "visited", crawler.Frontier().Visited(),
		"off_origin", stats.OffOrigin, "baselines", baselines.Origins())
	if report.Interrupted {
		fmt.Fprintf(status, "[!] Interrupted, writing partial report\n")
	}
	return out.WriteReport(report)
}

// baselineProber fingerprints a directory's origin before probing it.
type baselineProber struct {
	baselines *filter.BaselineSet
	prober    crawl.DirectoryProber
}

func (b baselineProber) ProbeDirectory(ctx context.Context, dirURL string) []scanner.Result {
	b.baselines.Ensure(ctx, dirURL)
	return b.prober.ProbeDirectory(ctx, dirURL)
}

// progressRecorder feeds every probe result to the progress line before
// the aggregator.
type progressRecorder struct {
	agg      *findings.Aggregator
	progress *output.Progress
}

func (r progressRecorder) Record(res scanner.Result) (findings.Finding, bool) {
	r.progress.Record(res.Class)
	return r.agg.Record(res)
}

func newLogger(w io.Writer, opts *config.Options) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case opts.Debug:
		level = slog.LevelDebug
	case opts.Quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newSmartFilter(samples []filter.Sample, opts *config.Options) (*filter.SmartFilter, error) {
	cmp, err := filter.NewComparator(opts.Comparator)
	if err != nil {
		return nil, err
	}
	sf := filter.NewSmartFilter(samples, cmp, opts.Similarity)
	if sf.Samples() == 0 {
		return nil, errors.New("capturing baseline: no decoy request succeeded")
	}
	return sf, nil
}

// buildChain returns the suppression filters in evaluation order: soft-404
// first, then the optional user filters. The sensitivity heuristic runs
// after the chain inside the prober.
func buildChain(opts *config.Options, smart filter.Filter) *filter.Chain {
	chain := filter.NewChain()
	if smart != nil {
		chain.Add(smart)
	}
	if len(opts.ExcludeStatus) > 0 {
		chain.Add(filter.NewStatusFilter(opts.ExcludeStatus))
	}
	if len(opts.ExcludeSize) > 0 {
		chain.Add(filter.NewSizeFilter(opts.ExcludeSize))
	}
	if opts.ExcludeBody != "" {
		chain.Add(filter.NewBodyExcludeFilter(opts.ExcludeBody))
	}
	if opts.MatchBody != "" {
		chain.Add(filter.NewBodyMatchFilter(opts.MatchBody))
	}
	if opts.DuplicateThreshold > 0 {
		chain.Add(filter.NewDuplicateFilter(opts.DuplicateThreshold))
	}
	return chain
}

func createWriter(opts *config.Options) (output.Writer, error) {
	switch opts.OutputFormat {
	case "json":
		return output.NewJSONWriter(opts.OutputFile)
	case "csv":
		return output.NewCSVWriter(opts.OutputFile)
	default:
		return output.NewTextWriter(opts.OutputFile, opts.NoColor, opts.Quiet)
	}
}

func printBanner(opts *config.Options, candidates int) {
	const (
		cyan   = "\033[36m"
		white  = "\033[97m"
		dim    = "\033[2m"
		yellow = "\033[33m"
		reset  = "\033[0m"
	)
	c, w, d, y, rs := cyan, white, dim, yellow, reset
	if opts.NoColor {
		c, w, d, y, rs = "", "", "", "", ""
	}

	depth := fmt.Sprintf("%d", opts.MaxDepth)
	if opts.MaxDepth == config.Unbounded {
		depth = "unbounded"
	}
	paths := "built-in"
	if opts.PathsFile != "" {
		paths = opts.PathsFile
	}

	fmt.Fprintf(os.Stderr, "\n%s  confscan%s %sv%s%s\n", c, rs, d, version.Version, rs)
	fmt.Fprintf(os.Stderr, "%s  Sensitive file discovery with soft-404 detection%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "  %sTarget:%s       %s%s%s\n", d, rs, w, opts.URL, rs)
	fmt.Fprintf(os.Stderr, "  %sWorkers:%s      %s%d%s\n", d, rs, y, opts.Threads, rs)
	fmt.Fprintf(os.Stderr, "  %sCandidates:%s   %s%d (%s)%s\n", d, rs, w, candidates, paths, rs)
	fmt.Fprintf(os.Stderr, "  %sDepth:%s        %s%s%s\n", d, rs, w, depth, rs)
	fmt.Fprintf(os.Stderr, "  %sScope:%s        %s%s%s\n", d, rs, w, opts.Scope, rs)
	fmt.Fprintf(os.Stderr, "  %sComparator:%s   %s%s >= %.2f%s\n", d, rs, w, opts.Comparator, opts.Similarity, rs)
	if opts.MaxDelay > 0 {
		fmt.Fprintf(os.Stderr, "  %sDelay:%s        %s%s-%s%s\n", d, rs, w, opts.MinDelay, opts.MaxDelay, rs)
	}
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
