package output

import (
	"encoding/json"
	"io"

	"github.com/maxvaer/confscan/internal/findings"
)

// JSONWriter writes the final report as one indented JSON document.
type JSONWriter struct {
	w      io.Writer
	closer io.Closer
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{w: w, closer: closer}, nil
}

func (j *JSONWriter) WriteFinding(findings.Event) error { return nil }

func (j *JSONWriter) WriteReport(r findings.Report) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
