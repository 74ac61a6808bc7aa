// Package hook runs a user command for every finding.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/maxvaer/confscan/internal/findings"
)

// DefaultTimeout bounds a single hook invocation.
const DefaultTimeout = 30 * time.Second

// Runner executes a shell command per finding. It satisfies findings.Sink.
type Runner struct {
	cmd     string
	timeout time.Duration
	out     io.Writer // receives the command's stdout and stderr
	logger  *slog.Logger
}

// NewRunner creates a hook runner for the shell command cmd. Command output
// is copied to out when it is non-nil.
func NewRunner(cmd string, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{cmd: cmd, timeout: DefaultTimeout, out: out, logger: logger}
}

// Expand substitutes the {url}, {class}, {status} and {size} placeholders.
func (r *Runner) Expand(f findings.Finding) string {
	return strings.NewReplacer(
		"{url}", f.URL,
		"{class}", f.Class.String(),
		"{status}", strconv.Itoa(f.StatusCode),
		"{size}", strconv.FormatInt(f.Size, 10),
	).Replace(r.cmd)
}

// Emit runs the command with the finding as JSON on stdin. Failures are
// logged and never stop the scan.
func (r *Runner) Emit(e findings.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		r.logger.Warn("hook payload", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.Expand(e.Finding))...)
	cmd.Stdin = bytes.NewReader(data)
	if r.out != nil {
		cmd.Stdout = r.out
		cmd.Stderr = r.out
	}
	if err := cmd.Run(); err != nil {
		r.logger.Warn("hook failed", "url", e.URL, "err", err)
	}
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
