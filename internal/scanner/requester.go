package scanner

import (
	"context"
	"crypto/md5"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/maxvaer/confscan/internal/config"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 5 * 1024 * 1024

// Response holds the parsed HTTP response data.
type Response struct {
	StatusCode    int
	ContentType   string
	ContentLength int64
	Body          []byte
	BodyHash      [16]byte
	WordCount     int
	LineCount     int
	URL           string // requested URL
	FinalURL      string // URL after redirects were followed
	RedirectURL   string // Location header of an unfollowed 3xx
	Duration      time.Duration
}

// Requester wraps the HTTP clients used for crawling and probing.
type Requester struct {
	follow     *http.Client
	noFollow   *http.Client
	headers    map[string]string
	cookie     string
	userAgents []string
}

// NewRequester creates a Requester from the provided options. userAgents
// must not be empty; one is picked at random for every request.
func NewRequester(opts *config.Options, userAgents []string) (*Requester, error) {
	if len(userAgents) == 0 {
		return nil, fmt.Errorf("at least one user agent is required")
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		DialContext: (&net.Dialer{
			Timeout: opts.Timeout,
		}).DialContext,
		TLSHandshakeTimeout: opts.Timeout,
		MaxIdleConnsPerHost: opts.Threads,
		MaxIdleConns:        opts.Threads * 2,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	follow := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}
	noFollow := &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	agents := userAgents
	if opts.UserAgent != "" {
		agents = []string{opts.UserAgent}
	}

	return &Requester{
		follow:     follow,
		noFollow:   noFollow,
		headers:    opts.Headers,
		cookie:     opts.Cookie,
		userAgents: agents,
	}, nil
}

func (r *Requester) userAgent() string {
	if len(r.userAgents) == 1 {
		return r.userAgents[0]
	}
	return r.userAgents[rand.IntN(len(r.userAgents))]
}

// Do sends an HTTP request to target and returns the parsed response.
// method defaults to GET if empty. When followRedirects is false a 3xx is
// returned as-is with its Location in RedirectURL. Failures are returned
// as *RequestError.
func (r *Requester) Do(ctx context.Context, method, target string, followRedirects bool) (*Response, error) {
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, &RequestError{Kind: FailOther, Method: method, URL: target, Err: err}
	}

	req.Header.Set("User-Agent", r.userAgent())
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.cookie != "" {
		req.Header.Set("Cookie", r.cookie)
	}

	client := r.noFollow
	if followRedirects {
		client = r.follow
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, &RequestError{Kind: classifyError(ctx, err), Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		kind := classifyError(ctx, err)
		if kind == FailOther {
			kind = FailBody
		}
		return nil, &RequestError{Kind: kind, Method: method, URL: target, Err: fmt.Errorf("reading response body: %w", err)}
	}

	elapsed := time.Since(start)

	bodyStr := string(body)
	wordCount := len(strings.Fields(bodyStr))
	lineCount := strings.Count(bodyStr, "\n") + 1
	if len(body) == 0 {
		lineCount = 0
	}

	result := &Response{
		StatusCode:    resp.StatusCode,
		ContentType:   strings.ToLower(resp.Header.Get("Content-Type")),
		ContentLength: int64(len(body)),
		Body:          body,
		BodyHash:      md5.Sum(body),
		WordCount:     wordCount,
		LineCount:     lineCount,
		URL:           target,
		FinalURL:      resp.Request.URL.String(),
		Duration:      elapsed,
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		result.RedirectURL = resp.Header.Get("Location")
	}

	return result, nil
}
