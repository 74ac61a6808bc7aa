package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maxvaer/confscan/internal/findings"
	"github.com/maxvaer/confscan/internal/scanner"
)

func sampleReport() findings.Report {
	return findings.Report{
		Target: "http://t.test/",
		Sensitive: []findings.Finding{
			{URL: "http://t.test/.env", Class: scanner.Sensitive, StatusCode: 200, ContentType: "text/plain", Size: 321, Evidence: "expected type text/plain, size 321"},
		},
		Forbidden: []findings.Finding{
			{URL: "http://t.test/admin", Class: scanner.Forbidden, StatusCode: 403},
		},
		Counts:      map[scanner.Classification]int{scanner.Sensitive: 1, scanner.Forbidden: 1, scanner.NotFound: 40},
		Directories: 3,
		Elapsed:     1500 * time.Millisecond,
	}
}

func TestTextWriterFinding(t *testing.T) {
	var buf bytes.Buffer
	w := newTextWriter(&buf, nil, true, false)

	ev := findings.Event{Finding: sampleReport().Sensitive[0]}
	if err := w.WriteFinding(ev); err != nil {
		t.Fatal(err)
	}
	line := buf.String()
	if strings.Contains(line, "\033[") {
		t.Errorf("no-color output contains escape codes: %q", line)
	}
	for _, want := range []string{"[+] sensitive", "200", "321", "http://t.test/.env", "(expected type text/plain, size 321)"} {
		if !strings.Contains(line, want) {
			t.Errorf("finding line %q missing %q", line, want)
		}
	}

	buf.Reset()
	ev = findings.Event{Finding: sampleReport().Forbidden[0], Upgraded: false}
	_ = w.WriteFinding(ev)
	if !strings.HasPrefix(buf.String(), "[!] forbidden") {
		t.Errorf("forbidden line = %q", buf.String())
	}
}

func TestTextWriterReport(t *testing.T) {
	var buf bytes.Buffer
	w := newTextWriter(&buf, nil, true, false)

	r := sampleReport()
	r.Interrupted = true
	if err := w.WriteReport(r); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	sens := strings.Index(out, "Sensitive (1)")
	forb := strings.Index(out, "Forbidden (1)")
	if sens < 0 || forb < 0 || sens > forb {
		t.Fatalf("groups missing or out of order:\n%s", out)
	}
	for _, want := range []string{
		"Report for http://t.test/",
		"http://t.test/.env  [200, 321 bytes, text/plain, expected type text/plain, size 321]",
		"http://t.test/admin  [403, 0 bytes]",
		"3 directories probed in 1.5s",
		"sensitive=1 forbidden=1 not-found=40",
		"interrupted",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestTextWriterQuietReport(t *testing.T) {
	var buf bytes.Buffer
	w := newTextWriter(&buf, nil, true, true)
	if err := w.WriteReport(sampleReport()); err != nil {
		t.Fatal(err)
	}
	want := "http://t.test/.env\nhttp://t.test/admin\n"
	if buf.String() != want {
		t.Errorf("quiet report = %q, want %q", buf.String(), want)
	}
}

func TestJSONWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFinding(findings.Event{}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteReport(sampleReport()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Target    string `json:"target"`
		Sensitive []struct {
			URL   string `json:"url"`
			Class string `json:"class"`
		} `json:"sensitive"`
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, data)
	}
	if decoded.Target != "http://t.test/" || len(decoded.Sensitive) != 1 || decoded.Sensitive[0].Class != "sensitive" {
		t.Errorf("unexpected document: %s", data)
	}
	if decoded.Counts["not-found"] != 40 {
		t.Errorf("counts = %v", decoded.Counts)
	}
}

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteReport(sampleReport()); err != nil {
		t.Fatal(err)
	}
	w.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "class" || rows[1][0] != "sensitive" || rows[2][0] != "forbidden" {
		t.Errorf("unexpected rows %v", rows)
	}
	if rows[1][1] != "http://t.test/.env" || rows[1][2] != "200" || rows[1][3] != "321" {
		t.Errorf("unexpected sensitive row %v", rows[1])
	}
}

func TestProgressCounters(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, true)
	p.Directory(10, 2)
	p.Record(scanner.Sensitive)
	p.Record(scanner.NotFound)
	p.Record(scanner.Error)
	p.Redraw()

	out := buf.String()
	for _, want := range []string{"[dir 1, 2 queued]", "3/10 probes", "Found: 1", "Errors: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("progress line %q missing %q", out, want)
		}
	}
	if p.Completed() != 3 {
		t.Errorf("Completed() = %d, want 3", p.Completed())
	}
}

func TestProgressDisabledIsSilent(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false)
	p.Start()
	p.Record(scanner.Sensitive)
	p.ClearLine()
	p.Redraw()
	p.Stop()
	if buf.Len() != 0 {
		t.Errorf("disabled progress wrote %q", buf.String())
	}
}

func TestProgressStartStop(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, true)
	p.Start()
	p.Stop()
	p.Stop()
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("final line not terminated: %q", buf.String())
	}
}
