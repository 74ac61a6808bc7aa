package output

import (
	"io"
	"os"

	"github.com/maxvaer/confscan/internal/findings"
)

// Writer is implemented by each output format. WriteFinding is called as
// findings arrive, WriteReport once at the end of the run.
type Writer interface {
	WriteFinding(e findings.Event) error
	WriteReport(r findings.Report) error
	Close() error
}

// openOutput returns stdout, or the created file and its closer.
func openOutput(outputFile string) (io.Writer, io.Closer, error) {
	if outputFile == "" {
		return os.Stdout, nil, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}
