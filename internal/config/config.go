package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Scope selects which discovered links the crawler may follow.
type Scope string

const (
	// ScopeHost follows links whose hostname equals the target's.
	ScopeHost Scope = "host"
	// ScopeSubdomains also follows subdomains of the target's registrable domain.
	ScopeSubdomains Scope = "subdomains"
	// ScopeOrigin follows links on the target's host and port only and
	// discards pages that redirect elsewhere. Default ports of either
	// scheme are equivalent, so an http to https upgrade stays in scope.
	ScopeOrigin Scope = "origin"
)

func (s Scope) String() string { return string(s) }

// Set implements pflag.Value.
func (s *Scope) Set(v string) error {
	switch Scope(strings.ToLower(strings.TrimSpace(v))) {
	case ScopeHost:
		*s = ScopeHost
	case ScopeSubdomains, "subdomain", "sd":
		*s = ScopeSubdomains
	case ScopeOrigin, "root-only", "fr":
		*s = ScopeOrigin
	default:
		return fmt.Errorf("invalid scope %q (want host, subdomains or origin)", v)
	}
	return nil
}

func (s *Scope) Type() string { return "scope" }

// UnmarshalText lets YAML config files use the same names as the flag.
func (s *Scope) UnmarshalText(text []byte) error { return s.Set(string(text)) }

// Unbounded disables the crawl depth limit.
const Unbounded = -1

// Comparator names accepted by Options.Comparator.
const (
	ComparatorAuto     = "auto"
	ComparatorSimhash  = "simhash"
	ComparatorSequence = "sequence"
)

// MinSimilarity is the lowest soft-404 similarity threshold accepted.
const MinSimilarity = 0.9

// Options holds all configuration for a confscan run.
type Options struct {
	// Target
	URL       string `yaml:"url"`
	PathsFile string `yaml:"paths_file"` // empty = built-in catalog

	// Crawl
	MaxDepth int   `yaml:"max_depth"` // Unbounded (-1) = no limit
	Scope    Scope `yaml:"scope"`

	// Performance
	Threads          int           `yaml:"threads"`
	Timeout          time.Duration `yaml:"timeout"`
	MinDelay         time.Duration `yaml:"min_delay"`
	MaxDelay         time.Duration `yaml:"max_delay"`
	AdaptiveThrottle bool          `yaml:"adaptive_throttle"`
	RateLimit        float64       `yaml:"rate_limit"` // requests/s across all workers, 0 = off

	// Soft-404 detection
	Comparator string  `yaml:"comparator"`
	Similarity float64 `yaml:"similarity"`

	// Extra suppression filters
	ExcludeStatus      []int  `yaml:"exclude_status"`
	ExcludeSize        []int  `yaml:"exclude_size"`
	ExcludeBody        string `yaml:"exclude_body"`
	MatchBody          string `yaml:"match_body"`
	DuplicateThreshold int    `yaml:"duplicate_threshold"` // 0 = off

	// HTTP
	Cookie         string            `yaml:"cookie"`
	Headers        map[string]string `yaml:"headers"`
	UserAgent      string            `yaml:"user_agent"`
	UserAgentsFile string            `yaml:"user_agents_file"`
	Proxy          string            `yaml:"proxy"`

	// Output
	OutputFile   string `yaml:"output"`
	OutputFormat string `yaml:"format"` // "text", "json", "csv"
	Quiet        bool   `yaml:"quiet"`
	NoColor      bool   `yaml:"no_color"`
	Debug        bool   `yaml:"debug"`
	OnResultCmd  string `yaml:"on_result"`
}

// Defaults returns Options populated with the values the CLI advertises.
func Defaults() Options {
	return Options{
		MaxDepth:     2,
		Scope:        ScopeHost,
		Threads:      4,
		Timeout:      6 * time.Second,
		Comparator:   ComparatorAuto,
		Similarity:   MinSimilarity,
		OutputFormat: "text",
	}
}

// Validate checks the record before a run starts.
func (o *Options) Validate() error {
	if o.URL == "" {
		return fmt.Errorf("target URL required")
	}
	u, err := url.Parse(o.URL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", o.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", o.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", o.URL)
	}
	if o.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", o.Threads)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if o.MinDelay < 0 || o.MaxDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if o.MaxDelay > 0 && o.MinDelay > o.MaxDelay {
		return fmt.Errorf("min delay %s exceeds max delay %s", o.MinDelay, o.MaxDelay)
	}
	if o.MaxDepth < Unbounded {
		return fmt.Errorf("max depth must be %d (unbounded) or greater, got %d", Unbounded, o.MaxDepth)
	}
	switch o.Scope {
	case ScopeHost, ScopeSubdomains, ScopeOrigin:
	default:
		return fmt.Errorf("invalid scope %q", o.Scope)
	}
	switch o.Comparator {
	case ComparatorAuto, ComparatorSimhash, ComparatorSequence:
	default:
		return fmt.Errorf("comparator must be one of: auto, simhash, sequence")
	}
	if o.Similarity < MinSimilarity || o.Similarity > 1 {
		return fmt.Errorf("similarity must be between %.2f and 1.0, got %.2f", MinSimilarity, o.Similarity)
	}
	if o.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	switch o.OutputFormat {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("format must be one of: text, json, csv")
	}
	return nil
}
