// Package urlnorm reduces URLs to the identity the crawler deduplicates on.
package urlnorm

import (
	"net/url"
	"strings"
)

// Key is the crawl identity of a URL: scheme, host and path with any
// trailing slash removed. Query and fragment never take part.
type Key struct {
	Scheme string
	Host   string
	Path   string
}

// FromURL builds the Key for u. A port equal to the scheme's default is
// dropped from the host.
func FromURL(u *url.URL) Key {
	scheme := strings.ToLower(u.Scheme)
	return Key{
		Scheme: scheme,
		Host:   hostKey(scheme, u),
		Path:   strings.TrimRight(u.EscapedPath(), "/"),
	}
}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

func hostKey(scheme string, u *url.URL) string {
	host := strings.ToLower(u.Host)
	if port := u.Port(); port != "" && port == defaultPorts[scheme] {
		return strings.TrimSuffix(host, ":"+port)
	}
	return host
}

// IsDefaultPort reports whether port is empty or the default for scheme.
func IsDefaultPort(scheme, port string) bool {
	return port == "" || port == defaultPorts[strings.ToLower(scheme)]
}

// Normalize parses raw and returns its Key. Callers are expected to drop
// malformed URLs before normalizing; unparsable input yields the zero Key.
func Normalize(raw string) Key {
	u, err := url.Parse(raw)
	if err != nil {
		return Key{}
	}
	return FromURL(u)
}

// IsZero reports whether k is the zero Key.
func (k Key) IsZero() bool {
	return k == Key{}
}

// String renders the key as an absolute URL without a trailing slash.
func (k Key) String() string {
	if k.IsZero() {
		return ""
	}
	return k.Scheme + "://" + k.Host + k.Path
}

// DirURL returns u as a directory URL: the path always ends in "/" and
// query and fragment are dropped.
func DirURL(u *url.URL) string {
	d := *u
	d.RawQuery = ""
	d.Fragment = ""
	d.RawFragment = ""
	if !strings.HasSuffix(d.Path, "/") {
		d.Path += "/"
		if d.RawPath != "" {
			d.RawPath += "/"
		}
	}
	return d.String()
}
