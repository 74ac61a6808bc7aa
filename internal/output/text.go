package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/maxvaer/confscan/internal/findings"
	"github.com/maxvaer/confscan/internal/scanner"
)

var (
	colorSensitive = lipgloss.Color("#FF3838")
	colorForbidden = lipgloss.Color("#FFB800")
	colorTitle     = lipgloss.Color("#7D56F4")
	colorMuted     = lipgloss.Color("#6B7280")
)

// TextWriter prints findings as they arrive and a grouped report at the
// end.
type TextWriter struct {
	w      io.Writer
	closer io.Closer
	quiet  bool

	sensitive lipgloss.Style
	forbidden lipgloss.Style
	title     lipgloss.Style
	muted     lipgloss.Style
}

// NewTextWriter creates a text output writer. If outputFile is empty,
// stdout is used. Colour is disabled when noColor is set, when writing to a
// file, or when stdout is not a terminal.
func NewTextWriter(outputFile string, noColor, quiet bool) (*TextWriter, error) {
	w, closer, err := openOutput(outputFile)
	if err != nil {
		return nil, err
	}
	if closer != nil || !term.IsTerminal(int(os.Stdout.Fd())) {
		noColor = true
	}
	return newTextWriter(w, closer, noColor, quiet), nil
}

func newTextWriter(w io.Writer, closer io.Closer, noColor, quiet bool) *TextWriter {
	r := lipgloss.NewRenderer(w)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &TextWriter{
		w:         w,
		closer:    closer,
		quiet:     quiet,
		sensitive: r.NewStyle().Foreground(colorSensitive).Bold(true),
		forbidden: r.NewStyle().Foreground(colorForbidden),
		title:     r.NewStyle().Foreground(colorTitle).Bold(true),
		muted:     r.NewStyle().Foreground(colorMuted),
	}
}

func (t *TextWriter) styleFor(c scanner.Classification) lipgloss.Style {
	if c == scanner.Sensitive {
		return t.sensitive
	}
	return t.forbidden
}

func (t *TextWriter) WriteFinding(e findings.Event) error {
	marker := "[!]"
	if e.Class == scanner.Sensitive {
		marker = "[+]"
	}
	label := fmt.Sprintf("%s %-9s", marker, e.Class)
	line := fmt.Sprintf("%s %3d %8d  %s", t.styleFor(e.Class).Render(label), e.StatusCode, e.Size, e.URL)
	if e.Evidence != "" {
		line += "  " + t.muted.Render("("+e.Evidence+")")
	}
	if e.Upgraded {
		line += "  " + t.muted.Render("[upgraded]")
	}
	_, err := fmt.Fprintln(t.w, line)
	return err
}

func (t *TextWriter) WriteReport(r findings.Report) error {
	var b strings.Builder

	if t.quiet {
		for _, f := range r.Sensitive {
			fmt.Fprintln(&b, f.URL)
		}
		for _, f := range r.Forbidden {
			fmt.Fprintln(&b, f.URL)
		}
		_, err := io.WriteString(t.w, b.String())
		return err
	}

	fmt.Fprintf(&b, "\n%s\n", t.title.Render("Report for "+r.Target))
	t.writeGroup(&b, "Sensitive", scanner.Sensitive, r.Sensitive)
	t.writeGroup(&b, "Forbidden", scanner.Forbidden, r.Forbidden)

	fmt.Fprintf(&b, "\n%s\n", t.muted.Render(fmt.Sprintf("%d directories probed in %s | %s",
		r.Directories, r.Elapsed.Round(time.Millisecond), formatCounts(r.Counts))))
	if r.Interrupted {
		fmt.Fprintf(&b, "%s\n", t.forbidden.Render("[!] Scan interrupted, results are partial"))
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *TextWriter) writeGroup(b *strings.Builder, name string, class scanner.Classification, list []findings.Finding) {
	fmt.Fprintf(b, "\n%s\n", t.styleFor(class).Render(fmt.Sprintf("%s (%d)", name, len(list))))
	if len(list) == 0 {
		fmt.Fprintf(b, "  %s\n", t.muted.Render("none"))
		return
	}
	for _, f := range list {
		fmt.Fprintf(b, "  %s  %s\n", f.URL, t.muted.Render(describe(f)))
	}
}

func describe(f findings.Finding) string {
	parts := []string{fmt.Sprintf("%d", f.StatusCode), fmt.Sprintf("%d bytes", f.Size)}
	if f.ContentType != "" {
		parts = append(parts, f.ContentType)
	}
	if f.Evidence != "" {
		parts = append(parts, f.Evidence)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatCounts(counts map[scanner.Classification]int) string {
	classes := make([]scanner.Classification, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] > classes[j] })
	parts := make([]string, len(classes))
	for i, c := range classes {
		parts[i] = fmt.Sprintf("%s=%d", c, counts[c])
	}
	if len(parts) == 0 {
		return "no requests"
	}
	return strings.Join(parts, " ")
}

func (t *TextWriter) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
