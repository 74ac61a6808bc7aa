package filter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/maxvaer/confscan/internal/catalog"
	"github.com/maxvaer/confscan/internal/scanner"
)

// DefaultSizeFloor is the body length above which any surviving response
// is treated as sensitive.
const DefaultSizeFloor = 200

// sniffLimit is how much of the body content sniffing looks at.
const sniffLimit = 1024

var defaultIndicators = []string{
	"phpinfo",
	"sql",
	"ssh-rsa",
	"root:",
	"mysql",
	"begin rsa",
	"private key-----",
	"index of /",
	"[core]",
	"ref: refs/",
	"db_password",
	"aws_secret",
}

var defaultRiskyTypes = []string{
	"application/zip",
	"application/gzip",
	"application/x-gzip",
	"application/x-tar",
	"application/sql",
	"text/plain",
}

// SensitivityFilter keeps responses that look like leaked configuration,
// source, backups or listings and suppresses the rest.
type SensitivityFilter struct {
	indicators [][]byte
	riskyTypes []string
	sizeFloor  int64
}

// NewSensitivityFilter returns the heuristic with the built-in indicator
// and content-type lists.
func NewSensitivityFilter() *SensitivityFilter {
	f := &SensitivityFilter{
		riskyTypes: defaultRiskyTypes,
		sizeFloor:  DefaultSizeFloor,
	}
	for _, ind := range defaultIndicators {
		f.indicators = append(f.indicators, []byte(ind))
	}
	return f
}

func (f *SensitivityFilter) Name() string { return "not-sensitive" }

func (f *SensitivityFilter) ShouldFilter(result *scanner.Result) bool {
	sensitive, _ := f.Evaluate(result)
	return !sensitive
}

// Evaluate reports whether result is sensitive and which conditions matched.
func (f *SensitivityFilter) Evaluate(result *scanner.Result) (bool, []string) {
	var evidence []string
	ct := strings.ToLower(result.ContentType)

	if want := catalog.ExpectedContentType(result.Candidate); want != "" && strings.Contains(ct, want) {
		evidence = append(evidence, "expected type "+want)
	}

	lower := bytes.ToLower(result.Body)
	for _, ind := range f.indicators {
		if bytes.Contains(lower, ind) {
			evidence = append(evidence, fmt.Sprintf("indicator %q", ind))
			break
		}
	}

	for _, risky := range f.riskyTypes {
		if strings.Contains(ct, risky) {
			evidence = append(evidence, "risky type "+risky)
			break
		}
	}

	if sniffed := sniffType(result.Body); strings.HasPrefix(sniffed, "application/") {
		evidence = append(evidence, "sniffed type "+sniffed)
	}

	if int64(len(result.Body)) > f.sizeFloor {
		evidence = append(evidence, fmt.Sprintf("size %d", len(result.Body)))
	}

	return len(evidence) > 0, evidence
}

// sniffType detects the body's media type from its leading bytes,
// ignoring what the server claimed. Empty bodies sniff as "".
func sniffType(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > sniffLimit {
		body = body[:sniffLimit]
	}
	mt, _, _ := strings.Cut(mimetype.Detect(body).String(), ";")
	return strings.TrimSpace(mt)
}
