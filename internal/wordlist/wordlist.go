package wordlist

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultUserAgent is used when no user-agent list is available.
const DefaultUserAgent = "Mozilla/5.0 (compatible; confscan/1.0)"

// Parse splits raw into trimmed, de-duplicated entries in file order.
// Empty lines and lines starting with '#' are skipped.
func Parse(raw string) []string {
	lines := strings.Split(raw, "\n")
	seen := make(map[string]struct{}, len(lines))
	var result []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; !ok {
			seen[line] = struct{}{}
			result = append(result, line)
		}
	}
	return result
}

// Load reads a line-oriented list file and returns its entries.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading wordlist %s: %w", path, err)
	}
	entries := Parse(string(data))
	if len(entries) == 0 {
		return nil, fmt.Errorf("wordlist %s has no entries", path)
	}
	return entries, nil
}

// LoadUserAgents returns the user-agent strings in path. An empty path or a
// missing file yields the single DefaultUserAgent; missing reports whether
// the file was absent so callers can warn about it.
func LoadUserAgents(path string) (agents []string, missing bool, err error) {
	if path == "" {
		return []string{DefaultUserAgent}, false, nil
	}
	agents, err = Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{DefaultUserAgent}, true, nil
		}
		return nil, false, err
	}
	return agents, false, nil
}
