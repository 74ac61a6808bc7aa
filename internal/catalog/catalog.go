// Package catalog holds the candidate paths probed beneath every directory
// and the content type each file extension is expected to be served with.
package catalog

import (
	_ "embed"
	"path"
	"strings"

	"github.com/maxvaer/confscan/internal/wordlist"
)

//go:embed paths.txt
var embeddedPaths string

var defaultPaths = wordlist.Parse(embeddedPaths)

// expectedTypes maps a lower-cased extension to the content type a server
// normally sends for it.
var expectedTypes = map[string]string{
	".env":        "text/plain",
	".json":       "application/json",
	".ini":        "text/plain",
	".yml":        "text/plain",
	".xml":        "application/xml",
	".sql":        "application/sql",
	".log":        "text/plain",
	".php":        "text/html",
	".zip":        "application/zip",
	".gz":         "application/gzip",
	".bak":        "application/octet-stream",
	".backup":     "application/octet-stream",
	".key":        "application/octet-stream",
	".pem":        "application/x-pem-file",
	".pfx":        "application/x-pkcs12",
	".p12":        "application/x-pkcs12",
	".lock":       "text/plain",
	".history":    "text/plain",
	".db":         "application/octet-stream",
	".dockerfile": "text/plain",
}

// Default returns a copy of the built-in catalog.
func Default() []string {
	out := make([]string, len(defaultPaths))
	copy(out, defaultPaths)
	return out
}

// Load returns the catalog in file, or the built-in one when file is empty.
func Load(file string) ([]string, error) {
	if file == "" {
		return Default(), nil
	}
	entries, err := wordlist.Load(file)
	if err != nil {
		return nil, err
	}
	for i, e := range entries {
		entries[i] = strings.TrimLeft(e, "/")
	}
	return entries, nil
}

// ExpectedContentType returns the content type candidate is normally
// served with, or "" when its extension is unknown or it names a directory.
func ExpectedContentType(candidate string) string {
	if IsDirectory(candidate) {
		return ""
	}
	name := strings.ToLower(path.Base(candidate))
	ext := path.Ext(name)
	if ext == "" && name == "dockerfile" {
		ext = ".dockerfile"
	}
	if strings.HasSuffix(name, "_history") {
		ext = ".history"
	}
	return expectedTypes[ext]
}

// IsDirectory reports whether candidate names a directory.
func IsDirectory(candidate string) bool {
	return strings.HasSuffix(candidate, "/")
}
