package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maxvaer/confscan/internal/config"
	"github.com/maxvaer/confscan/internal/reqparse"
	"github.com/maxvaer/confscan/internal/runner"
	"github.com/maxvaer/confscan/pkg/version"
)

var (
	opts        = config.Defaults()
	configFile  string
	requestFile string
	headerFlags []string
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "request-file", "paths"}},
	{"CRAWL", []string{"max-depth", "scope"}},
	{"SOFT-404", []string{"comparator", "similarity"}},
	{"FILTERS", []string{"exclude-status", "exclude-size", "exclude-body", "match-body", "duplicate-threshold"}},
	{"RATE-LIMIT", []string{"threads", "timeout", "min-delay", "max-delay", "adaptive-throttle", "rate"}},
	{"HTTP", []string{"cookie", "header", "user-agent", "user-agents", "proxy"}},
	{"OUTPUT", []string{"output", "format", "quiet", "no-color", "debug", "on-result"}},
	{"CONFIGURATION", []string{"config"}},
}

var rootCmd = &cobra.Command{
	Use:     "confscan -u <url> [flags]",
	Short:   "Sensitive file discovery with soft-404 detection",
	Version: version.Version,
	Long: `confscan crawls a web site and probes every directory it finds for
exposed configuration files, backups, version-control metadata and
directory listings. Sites that answer missing paths with a generic page
and HTTP 200 (soft-404s) are fingerprinted up front so those pages are
not reported.`,
	Example: `  confscan -u https://example.com
  confscan -u https://example.com -t 8 -R -1 --scope subdomains
  confscan -u https://example.com -c "session=abc" --min-delay 200ms --max-delay 1s
  confscan -u https://example.com --scope origin -o findings.json --format json
  confscan -r burp.req --paths my-paths.txt
  confscan --config confscan.yaml -u https://staging.example.com
  confscan -u https://example.com --on-result "notify-send {class} {url}"`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := parseHeaders(); err != nil {
			return err
		}
		explicit := cmd.Flags().Changed
		if configFile != "" {
			if err := mergeConfigFile(configFile, cmd.Flags()); err != nil {
				return err
			}
		}
		// Parse raw HTTP request file (e.g. Burp export) if provided.
		if requestFile != "" {
			req, err := reqparse.ParseFile(requestFile)
			if err != nil {
				return fmt.Errorf("parsing request file: %w", err)
			}
			req.Apply(&opts, explicit)
			if !opts.Quiet {
				fmt.Fprintf(os.Stderr, "[+] Loaded request from %s -> %s\n", requestFile, opts.URL)
			}
		}
		if opts.URL == "" {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("target required: use -u, --request-file or a config file")
		}
		if !strings.HasPrefix(opts.URL, "http://") && !strings.HasPrefix(opts.URL, "https://") {
			opts.URL = "http://" + opts.URL
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()
	def := config.Defaults()

	// Target
	f.StringVarP(&opts.URL, "url", "u", "", "Target URL (crawl starts here)")
	f.StringVarP(&requestFile, "request-file", "r", "", "Raw HTTP request file (e.g. Burp Suite export)")
	f.StringVarP(&opts.PathsFile, "paths", "p", "", "Candidate path catalog file (default: built-in)")

	// Crawl
	f.IntVarP(&opts.MaxDepth, "max-depth", "R", def.MaxDepth, "Maximum crawl depth, -1 for unbounded")
	f.Var(&opts.Scope, "scope", "Link scope: host, subdomains or origin")

	// Soft-404
	f.StringVar(&opts.Comparator, "comparator", def.Comparator, "Similarity comparator: auto, simhash, sequence")
	f.Float64Var(&opts.Similarity, "similarity", def.Similarity, "Soft-404 similarity threshold (0.9-1.0)")

	// Filtering
	f.VarP(&intSliceValue{target: &opts.ExcludeStatus}, "exclude-status", "x", "Suppress these status codes (comma-separated)")
	f.Var(&intSliceValue{target: &opts.ExcludeSize}, "exclude-size", "Suppress responses of these sizes (comma-separated)")
	f.StringVar(&opts.ExcludeBody, "exclude-body", "", "Suppress responses containing this string")
	f.StringVar(&opts.MatchBody, "match-body", "", "Only report responses containing this string")
	f.IntVar(&opts.DuplicateThreshold, "duplicate-threshold", 0, "Suppress a response shape after it repeats this often (0 to disable)")

	// Rate limit
	f.IntVarP(&opts.Threads, "threads", "t", def.Threads, "Number of concurrent probe workers")
	f.DurationVar(&opts.Timeout, "timeout", def.Timeout, "HTTP request timeout")
	f.DurationVar(&opts.MinDelay, "min-delay", 0, "Minimum random delay before each probe")
	f.DurationVar(&opts.MaxDelay, "max-delay", 0, "Maximum random delay before each probe")
	f.BoolVar(&opts.AdaptiveThrottle, "adaptive-throttle", false, "Back off automatically on 429/503 responses")
	f.Float64Var(&opts.RateLimit, "rate", 0, "Global request cap per second (0 to disable)")

	// HTTP
	f.StringVarP(&opts.Cookie, "cookie", "c", "", "Cookie header sent with every request")
	f.StringSliceVarP(&headerFlags, "header", "H", nil, "Custom headers (Key: Value)")
	f.StringVar(&opts.UserAgent, "user-agent", "", "Custom User-Agent string")
	f.StringVar(&opts.UserAgentsFile, "user-agents", "", "File of User-Agents, one picked at random per request")
	f.StringVar(&opts.Proxy, "proxy", "", "HTTP/SOCKS proxy URL")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Output file path")
	f.StringVar(&opts.OutputFormat, "format", def.OutputFormat, "Output format: text, json, csv")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.BoolVarP(&opts.Debug, "debug", "d", false, "Log request failures and filter decisions")
	f.StringVar(&opts.OnResultCmd, "on-result", "", "Shell command to run for each finding (receives JSON on stdin)")

	// Configuration
	f.StringVar(&configFile, "config", "", "YAML config file (flags set on the command line win)")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseHeaders() error {
	if len(headerFlags) == 0 {
		return nil
	}
	opts.Headers = make(map[string]string, len(headerFlags))
	for _, h := range headerFlags {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("invalid header format %q, expected 'Key: Value'", h)
		}
		opts.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return nil
}

// intSliceValue implements pflag.Value for comma-separated int slices.
type intSliceValue struct {
	target *[]int
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", p, err)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 38
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
   ___ ___  _ __  / _|___  ___ __ _ _ __
  / __/ _ \| '_ \| |_/ __|/ __/ _' | '_ \
 | (_| (_) | | | |  _\__ \ (_| (_| | | | |
  \___\___/|_| |_|_| |___/\___\__,_|_| |_|   %s

`, ver)
}
