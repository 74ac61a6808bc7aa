package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/maxvaer/confscan/internal/config"
)

func TestEveryOptionFlagIsMergeable(t *testing.T) {
	skip := map[string]bool{"config": true, "request-file": true, "help": true, "version": true}
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if skip[f.Name] {
			return
		}
		if _, ok := flagFields[f.Name]; !ok {
			t.Errorf("flag --%s has no config merge entry", f.Name)
		}
	})
}

func TestMergeConfigFileFlagsWin(t *testing.T) {
	saved := opts
	t.Cleanup(func() { opts = saved })

	path := filepath.Join(t.TempDir(), "confscan.yaml")
	content := `
url: https://from-file.example
threads: 16
timeout: 2s
cookie: file-cookie
headers:
  X-File: "1"
  X-Both: file
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts = config.Defaults()
	flags.IntVarP(&opts.Threads, "threads", "t", opts.Threads, "")
	flags.StringVar(&opts.Cookie, "cookie", "", "")
	flags.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "")
	flags.StringSliceVar(new([]string), "header", nil, "")
	if err := flags.Parse([]string{"-t", "3", "--header", "X-Both: flag"}); err != nil {
		t.Fatal(err)
	}
	opts.Headers = map[string]string{"X-Both": "flag"}

	if err := mergeConfigFile(path, flags); err != nil {
		t.Fatal(err)
	}

	if opts.Threads != 3 {
		t.Errorf("threads = %d, want explicit flag value 3", opts.Threads)
	}
	if opts.URL != "https://from-file.example" || opts.Cookie != "file-cookie" {
		t.Errorf("file values not applied: url=%q cookie=%q", opts.URL, opts.Cookie)
	}
	if opts.Timeout != 2*time.Second {
		t.Errorf("timeout = %s, want 2s from file", opts.Timeout)
	}
	if opts.Headers["X-File"] != "1" || opts.Headers["X-Both"] != "flag" {
		t.Errorf("headers = %v", opts.Headers)
	}
}

func TestIntSliceValue(t *testing.T) {
	var got []int
	v := &intSliceValue{target: &got}
	if err := v.Set("403, 500,"); err != nil {
		t.Fatal(err)
	}
	if err := v.Set("502"); err != nil {
		t.Fatal(err)
	}
	if v.String() != "403,500,502" {
		t.Errorf("String() = %q", v.String())
	}
	if err := v.Set("abc"); err == nil {
		t.Error("expected error for non-numeric value")
	}
}
