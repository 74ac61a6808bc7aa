package runner

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/maxvaer/confscan/internal/scanner"
)

// startPauseToggle reads single keypresses from stdin and toggles the
// returned pauser on Enter or Space. Ctrl+C restores the terminal and
// re-raises SIGINT. When stdin is not a terminal the pauser is nil and
// cleanup does nothing.
func startPauseToggle(status io.Writer) (pauser *scanner.Pauser, cleanup func()) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, func() {}
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(status, "[!] Pause disabled, could not enable raw terminal: %v\n", err)
		return nil, func() {}
	}
	fixOutputProcessing(fd)

	pauser = scanner.NewPauser()
	cleanup = func() { _ = term.Restore(fd, oldState) }

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			switch buf[0] {
			case 0x03:
				_ = term.Restore(fd, oldState)
				sendInterrupt()
				return
			case '\r', '\n', ' ':
				if pauser.Toggle() {
					fmt.Fprint(status, "\r\033[K[*] Scan PAUSED, press Enter or Space to resume\n")
				} else {
					fmt.Fprintf(status, "\r\033[K[*] Scan RESUMED (paused %s in total)\n", pauser.PausedDuration().Round(time.Second))
				}
			}
		}
	}()

	return pauser, cleanup
}
