package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	paths := Default()
	require.NotEmpty(t, paths)
	assert.Contains(t, paths, ".env")
	assert.Contains(t, paths, ".git/HEAD")
	assert.Contains(t, paths, "backup/")
	assert.Contains(t, paths, "mailman/listinfo")

	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate entry %q", p)
		seen[p] = true
		assert.NotEqual(t, '/', rune(p[0]), "entry %q must be relative", p)
	}
}

func TestDefaultReturnsCopy(t *testing.T) {
	a := Default()
	a[0] = "mutated"
	assert.NotEqual(t, "mutated", Default()[0])
}

func TestLoadCustomFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "paths.txt")
	require.NoError(t, os.WriteFile(file, []byte("/secret.txt\nbackups/\n"), 0644))

	paths, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, []string{"secret.txt", "backups/"}, paths)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestExpectedContentType(t *testing.T) {
	tests := map[string]string{
		"database.sql":       "application/sql",
		"backup.tar.gz":      "application/gzip",
		".env":               "text/plain",
		"config.JSON":        "application/json",
		"Dockerfile":         "text/plain",
		".bash_history":      "text/plain",
		"logs/error.log":     "text/plain",
		"phpinfo":            "",
		"admin/":             "",
		"backup.zip/":        "",
		"site.bak/":          "",
		".git/HEAD":          "",
		"server.p12":         "application/x-pkcs12",
		"docker-compose.yml": "text/plain",
	}
	for candidate, want := range tests {
		assert.Equal(t, want, ExpectedContentType(candidate), candidate)
	}
}

func TestIsDirectory(t *testing.T) {
	assert.True(t, IsDirectory("uploads/"))
	assert.False(t, IsDirectory(".env"))
}
