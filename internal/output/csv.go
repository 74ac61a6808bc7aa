package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/maxvaer/confscan/internal/findings"
)

// CSVWriter writes one row per finding once the run ends.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteFinding(findings.Event) error { return nil }

func (c *CSVWriter) WriteReport(r findings.Report) error {
	if err := c.w.Write([]string{"class", "url", "status", "size", "content_type", "evidence"}); err != nil {
		return err
	}
	for _, group := range [][]findings.Finding{r.Sensitive, r.Forbidden} {
		for _, f := range group {
			err := c.w.Write([]string{
				f.Class.String(),
				f.URL,
				strconv.Itoa(f.StatusCode),
				strconv.FormatInt(f.Size, 10),
				f.ContentType,
				f.Evidence,
			})
			if err != nil {
				return err
			}
		}
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
