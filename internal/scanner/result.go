package scanner

import "time"

// Classification is the verdict reached for a single probed path.
type Classification int

const (
	NotFound Classification = iota
	Suppressed
	Forbidden
	Sensitive
	Error
)

var classificationNames = [...]string{
	NotFound:   "not-found",
	Suppressed: "suppressed",
	Forbidden:  "forbidden",
	Sensitive:  "sensitive",
	Error:      "error",
}

func (c Classification) String() string {
	if c < 0 || int(c) >= len(classificationNames) {
		return "unknown"
	}
	return classificationNames[c]
}

// IsFinding reports whether results with this classification are reported.
func (c Classification) IsFinding() bool {
	return c == Sensitive || c == Forbidden
}

// Result holds the outcome of a single candidate probe.
type Result struct {
	Directory     string // directory URL the candidate was joined to
	Candidate     string // catalog entry
	URL           string // resolved candidate URL
	StatusCode    int
	ContentType   string
	ContentLength int64
	Body          []byte // only retained until classification finishes
	BodyHash      [16]byte
	WordCount     int
	LineCount     int
	RedirectURL   string
	Duration      time.Duration

	Class  Classification
	Reason string // filter name or evidence behind Class
	Err    error
}

// MarshalText renders the classification by name in JSON and YAML output.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
