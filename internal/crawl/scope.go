package crawl

import (
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/maxvaer/confscan/internal/config"
	"github.com/maxvaer/confscan/internal/urlnorm"
)

// Scope decides which URLs belong to the crawl.
type Scope struct {
	mode   config.Scope
	host   string // lower-cased hostname without port
	port   string // explicit non-default port, empty otherwise
	domain string // registrable domain, empty for IPs and bare hosts
}

// NewScope returns the policy for mode around target.
func NewScope(mode config.Scope, target *url.URL) *Scope {
	s := &Scope{
		mode: mode,
		host: strings.ToLower(target.Hostname()),
		port: originPort(target),
	}
	if net.ParseIP(s.host) == nil {
		if d, err := publicsuffix.EffectiveTLDPlusOne(s.host); err == nil {
			s.domain = d
		}
	}
	return s
}

// Mode returns the configured scope mode.
func (s *Scope) Mode() config.Scope { return s.mode }

// Allows reports whether u may be crawled.
func (s *Scope) Allows(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	switch s.mode {
	case config.ScopeOrigin:
		return host == s.host && originPort(u) == s.port
	case config.ScopeSubdomains:
		if host == s.host {
			return true
		}
		return s.domain != "" && (host == s.domain || strings.HasSuffix(host, "."+s.domain))
	default:
		return host == s.host
	}
}

// originPort returns u's port, or "" when it is the default for u's own
// scheme. An http to https upgrade on default ports keeps the origin.
func originPort(u *url.URL) string {
	if urlnorm.IsDefaultPort(u.Scheme, u.Port()) {
		return ""
	}
	return u.Port()
}
