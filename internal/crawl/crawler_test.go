package crawl

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/maxvaer/confscan/internal/config"
	"github.com/maxvaer/confscan/internal/scanner"
)

type page struct {
	body  string
	final string
	err   error
}

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]page
	fetched []string
}

func (f *fakeFetcher) Do(ctx context.Context, method, target string, followRedirects bool) (*scanner.Response, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, target)
	p, ok := f.pages[target]
	f.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if !ok {
		return &scanner.Response{StatusCode: 404, URL: target, FinalURL: target}, nil
	}
	final := target
	if p.final != "" {
		final = p.final
	}
	return &scanner.Response{StatusCode: 200, Body: []byte(p.body), URL: target, FinalURL: final}, nil
}

type fakeProber struct {
	dirs     []string
	afterHit func(dir string)
}

func (p *fakeProber) ProbeDirectory(ctx context.Context, dirURL string) []scanner.Result {
	p.dirs = append(p.dirs, dirURL)
	if p.afterHit != nil {
		p.afterHit(dirURL)
	}
	return nil
}

func testSite() map[string]page {
	return map[string]page{
		"http://t.test/": {body: `
<a href="/a/">A</a> <a href="/b/page.html">B</a> <a href="/a">A again</a>
<a href="http://other.test/x/">off-site</a> <a href="/css/style.css">css</a>`},
		"http://t.test/a/":      {body: `<a href="deep/">deep</a> <a href="/">home</a>`},
		"http://t.test/b/":      {body: `<a href="/c/">c</a>`},
		"http://t.test/a/deep/": {body: `<a href="deeper/">deeper</a>`},
		"http://t.test/c/":      {body: `<a href="/">home</a>`},
	}
}

func runCrawl(t *testing.T, pages map[string]page, cfg Config) (*fakeFetcher, *fakeProber, Stats) {
	t.Helper()
	f := &fakeFetcher{pages: pages}
	p := &fakeProber{}
	c := New(mustURL(t, "http://t.test"), f, p, cfg)
	return f, p, c.Run(context.Background())
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCrawlerBreadthFirstWithDepthLimit(t *testing.T) {
	_, p, stats := runCrawl(t, testSite(), Config{MaxDepth: 2})

	want := []string{
		"http://t.test/",
		"http://t.test/a/",
		"http://t.test/b/",
		"http://t.test/a/deep/",
		"http://t.test/c/",
	}
	if !equalStrings(p.dirs, want) {
		t.Errorf("probed %v, want %v", p.dirs, want)
	}
	if stats.Probed != 5 || stats.Discovered != 5 || stats.Fetched != 5 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Interrupted {
		t.Error("crawl should not be interrupted")
	}
}

func TestCrawlerDepthZeroProbesOnlyRoot(t *testing.T) {
	_, p, _ := runCrawl(t, testSite(), Config{MaxDepth: 0})
	if !equalStrings(p.dirs, []string{"http://t.test/"}) {
		t.Errorf("probed %v, want root only", p.dirs)
	}
}

func TestCrawlerUnboundedDepth(t *testing.T) {
	_, p, _ := runCrawl(t, testSite(), Config{MaxDepth: config.Unbounded})
	if len(p.dirs) != 6 || p.dirs[5] != "http://t.test/a/deep/deeper/" {
		t.Errorf("probed %v, want the deeper directory last", p.dirs)
	}
}

func TestCrawlerEachDirectoryOnce(t *testing.T) {
	f, p, _ := runCrawl(t, testSite(), Config{MaxDepth: config.Unbounded})

	seen := make(map[string]int)
	for _, d := range p.dirs {
		seen[d]++
	}
	for d, n := range seen {
		if n != 1 {
			t.Errorf("%s probed %d times", d, n)
		}
	}
	fetched := make(map[string]int)
	for _, u := range f.fetched {
		fetched[u]++
	}
	for u, n := range fetched {
		if n != 1 {
			t.Errorf("%s fetched %d times", u, n)
		}
	}
}

func TestCrawlerFetchFailureStillProbes(t *testing.T) {
	pages := testSite()
	pages["http://t.test/b/"] = page{err: &scanner.RequestError{Kind: scanner.FailConnection, Method: "GET", URL: "http://t.test/b/", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}}

	f := &fakeFetcher{pages: pages}
	p := &fakeProber{}
	c := New(mustURL(t, "http://t.test/"), f, p, Config{MaxDepth: 2})
	stats := c.Run(context.Background())

	if stats.FetchFailed != 1 {
		t.Errorf("FetchFailed = %d, want 1", stats.FetchFailed)
	}
	found := false
	for _, d := range p.dirs {
		if d == "http://t.test/b/" {
			found = true
		}
		if d == "http://t.test/c/" {
			t.Error("links of a failed page cannot be known")
		}
	}
	if !found {
		t.Error("directory with failed fetch should still be probed")
	}
	if c.Frontier().State(mustURL(t, "http://t.test/b/")) != Done {
		t.Error("failed directory should be marked done")
	}
	if v := c.Frontier().Visited(); v != stats.Fetched+stats.FetchFailed {
		t.Errorf("Visited() = %d, want every fetched or failed directory (%d)", v, stats.Fetched+stats.FetchFailed)
	}
}

func TestCrawlerOriginScopeDropsOffOriginRedirect(t *testing.T) {
	pages := testSite()
	pages["http://t.test/a/"] = page{final: "https://login.other.test/sso", body: `<a href="/sso/next/">n</a>`}

	_, p, stats := runCrawl(t, pages, Config{MaxDepth: 2, Scope: config.ScopeOrigin})
	for _, d := range p.dirs {
		if d == "http://t.test/a/" {
			t.Error("off-origin redirect must not be probed")
		}
	}
	if stats.OffOrigin != 1 {
		t.Errorf("OffOrigin = %d, want 1", stats.OffOrigin)
	}
}

func TestCrawlerOriginScopeFollowsSchemeUpgrade(t *testing.T) {
	pages := map[string]page{
		"http://t.test/": {final: "https://t.test/", body: `<a href="/admin/">a</a> <a href="/backup/">b</a>`},
	}
	_, p, stats := runCrawl(t, pages, Config{MaxDepth: 1, Scope: config.ScopeOrigin})

	want := []string{"http://t.test/", "https://t.test/admin/", "https://t.test/backup/"}
	if !equalStrings(p.dirs, want) {
		t.Errorf("probed %v, want %v", p.dirs, want)
	}
	if stats.OffOrigin != 0 || stats.Probed != 3 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestCrawlerOriginScopeStillProbesRedirectedRoot(t *testing.T) {
	pages := map[string]page{
		"http://t.test/": {final: "https://www.other.test/", body: `<a href="/admin/">a</a>`},
	}
	_, p, stats := runCrawl(t, pages, Config{MaxDepth: 1, Scope: config.ScopeOrigin})

	if !equalStrings(p.dirs, []string{"http://t.test/"}) {
		t.Errorf("probed %v, want the root only", p.dirs)
	}
	if stats.OffOrigin != 1 {
		t.Errorf("OffOrigin = %d, want 1", stats.OffOrigin)
	}
}

func TestCrawlerHostScopeKeepsRedirectedDirectory(t *testing.T) {
	pages := testSite()
	pages["http://t.test/a/"] = page{final: "https://t.test/a/", body: `<a href="x/">x</a>`}

	_, p, _ := runCrawl(t, pages, Config{MaxDepth: 2})
	foundA, foundX := false, false
	for _, d := range p.dirs {
		switch d {
		case "http://t.test/a/":
			foundA = true
		case "https://t.test/a/x/":
			foundX = true
		}
	}
	if !foundA || !foundX {
		t.Errorf("probed %v; want /a/ and links resolved against the final URL", p.dirs)
	}
}

func TestCrawlerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := &fakeFetcher{pages: testSite()}
	p := &fakeProber{afterHit: func(string) { cancel() }}
	c := New(mustURL(t, "http://t.test/"), f, p, Config{MaxDepth: config.Unbounded})
	stats := c.Run(ctx)

	if len(p.dirs) != 1 {
		t.Errorf("probed %v after cancel, want only the root", p.dirs)
	}
	if !stats.Interrupted {
		t.Error("stats should report the interruption")
	}
}

func TestCrawlerOnDirectory(t *testing.T) {
	var depths []int
	_, _, _ = runCrawl(t, testSite(), Config{
		MaxDepth:    1,
		OnDirectory: func(_ string, depth, _ int) { depths = append(depths, depth) },
	})
	want := []int{0, 1, 1}
	if len(depths) != len(want) {
		t.Fatalf("depths %v, want %v", depths, want)
	}
	for i := range want {
		if depths[i] != want[i] {
			t.Errorf("depth[%d] = %d, want %d", i, depths[i], want[i])
		}
	}
}
