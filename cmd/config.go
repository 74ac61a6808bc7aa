package cmd

import (
	"github.com/spf13/pflag"

	"github.com/maxvaer/confscan/internal/config"
)

// flagFields copies the option behind each flag from src to dst.
var flagFields = map[string]func(dst, src *config.Options){
	"url":                 func(d, s *config.Options) { d.URL = s.URL },
	"paths":               func(d, s *config.Options) { d.PathsFile = s.PathsFile },
	"max-depth":           func(d, s *config.Options) { d.MaxDepth = s.MaxDepth },
	"scope":               func(d, s *config.Options) { d.Scope = s.Scope },
	"comparator":          func(d, s *config.Options) { d.Comparator = s.Comparator },
	"similarity":          func(d, s *config.Options) { d.Similarity = s.Similarity },
	"exclude-status":      func(d, s *config.Options) { d.ExcludeStatus = s.ExcludeStatus },
	"exclude-size":        func(d, s *config.Options) { d.ExcludeSize = s.ExcludeSize },
	"exclude-body":        func(d, s *config.Options) { d.ExcludeBody = s.ExcludeBody },
	"match-body":          func(d, s *config.Options) { d.MatchBody = s.MatchBody },
	"duplicate-threshold": func(d, s *config.Options) { d.DuplicateThreshold = s.DuplicateThreshold },
	"threads":             func(d, s *config.Options) { d.Threads = s.Threads },
	"timeout":             func(d, s *config.Options) { d.Timeout = s.Timeout },
	"min-delay":           func(d, s *config.Options) { d.MinDelay = s.MinDelay },
	"max-delay":           func(d, s *config.Options) { d.MaxDelay = s.MaxDelay },
	"adaptive-throttle":   func(d, s *config.Options) { d.AdaptiveThrottle = s.AdaptiveThrottle },
	"rate":                func(d, s *config.Options) { d.RateLimit = s.RateLimit },
	"cookie":              func(d, s *config.Options) { d.Cookie = s.Cookie },
	"user-agent":          func(d, s *config.Options) { d.UserAgent = s.UserAgent },
	"user-agents":         func(d, s *config.Options) { d.UserAgentsFile = s.UserAgentsFile },
	"proxy":               func(d, s *config.Options) { d.Proxy = s.Proxy },
	"output":              func(d, s *config.Options) { d.OutputFile = s.OutputFile },
	"format":              func(d, s *config.Options) { d.OutputFormat = s.OutputFormat },
	"quiet":               func(d, s *config.Options) { d.Quiet = s.Quiet },
	"no-color":            func(d, s *config.Options) { d.NoColor = s.NoColor },
	"debug":               func(d, s *config.Options) { d.Debug = s.Debug },
	"on-result":           func(d, s *config.Options) { d.OnResultCmd = s.OnResultCmd },
	"header": func(d, s *config.Options) {
		if d.Headers == nil {
			d.Headers = make(map[string]string, len(s.Headers))
		}
		for k, v := range s.Headers {
			d.Headers[k] = v
		}
	},
}

// mergeConfigFile loads the YAML file at path into opts, then re-applies
// every flag set on the command line so explicit flags win over the file.
func mergeConfigFile(path string, flags *pflag.FlagSet) error {
	explicit := opts
	// The decoder merges into existing maps; start from a fresh one so
	// the snapshot keeps only the command-line headers.
	opts.Headers = nil
	if err := config.LoadFile(path, &opts); err != nil {
		return err
	}
	flags.Visit(func(f *pflag.Flag) {
		if apply, ok := flagFields[f.Name]; ok {
			apply(&opts, &explicit)
		}
	})
	return nil
}
