// Package reqparse seeds a scan from a raw HTTP request, such as a Burp
// Suite export, so an authenticated session can be crawled.
package reqparse

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/maxvaer/confscan/internal/config"
)

// Request is the part of a raw request that carries over to a scan.
type Request struct {
	URL       string // scheme://host plus the request path, query dropped
	Cookie    string
	UserAgent string
	Headers   map[string]string // everything else worth replaying
}

// skipped headers are either set per request by the requester or make no
// sense when replayed against other paths.
var skipped = map[string]bool{
	"host":              true,
	"content-length":    true,
	"content-type":      true,
	"accept-encoding":   true,
	"connection":        true,
	"transfer-encoding": true,
	"if-none-match":     true,
	"if-modified-since": true,
}

// ParseFile reads the raw request at path.
func ParseFile(path string) (*Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening request file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a request line and headers up to the first blank line. The
// body, if any, is ignored.
func Parse(r io.Reader) (*Request, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024) // large cookies

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading request file: %w", err)
		}
		return nil, fmt.Errorf("request file is empty")
	}
	line := strings.TrimSpace(sc.Text())
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid request line: %q", line)
	}
	target, proto := parts[1], ""
	if len(parts) >= 3 {
		proto = strings.ToUpper(parts[2])
	}

	req := &Request{Headers: make(map[string]string)}
	var host string
	for sc.Scan() {
		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			break
		}
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		switch lk := strings.ToLower(key); {
		case lk == "host":
			host = value
		case lk == "cookie":
			req.Cookie = value
		case lk == "user-agent":
			req.UserAgent = value
		case skipped[lk]:
		default:
			req.Headers[key] = value
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}

	// Absolute-form request lines come from proxies and carry their own origin.
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid URL in request line: %w", err)
		}
		req.URL = u.Scheme + "://" + u.Host + u.EscapedPath()
		return req, nil
	}

	if host == "" {
		return nil, fmt.Errorf("request file missing Host header")
	}
	// Exports rarely say whether TLS was used: assume it unless HTTP/1.x
	// went to port 80.
	scheme := "https"
	if strings.HasPrefix(proto, "HTTP/1") && strings.HasSuffix(host, ":80") {
		scheme = "http"
	}
	u, err := url.Parse(scheme + "://" + host + target)
	if err != nil {
		return nil, fmt.Errorf("invalid request target %q: %w", target, err)
	}
	req.URL = u.Scheme + "://" + u.Host + u.EscapedPath()
	return req, nil
}

// Apply copies the request into opts. explicit reports whether the named
// flag was set on the command line; explicit flags and headers are kept.
func (r *Request) Apply(opts *config.Options, explicit func(flag string) bool) {
	if !explicit("url") {
		opts.URL = r.URL
	}
	if r.Cookie != "" && !explicit("cookie") {
		opts.Cookie = r.Cookie
	}
	if r.UserAgent != "" && !explicit("user-agent") {
		opts.UserAgent = r.UserAgent
	}
	if len(r.Headers) == 0 {
		return
	}
	if opts.Headers == nil {
		opts.Headers = make(map[string]string, len(r.Headers))
	}
	for k, v := range r.Headers {
		if _, set := opts.Headers[k]; !set {
			opts.Headers[k] = v
		}
	}
}
