//go:build linux

package runner

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// fixOutputProcessing turns OPOST back on after term.MakeRaw so "\n" is
// still written as "\r\n" while keys are read unbuffered.
func fixOutputProcessing(fd int) {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return
	}
	t.Oflag |= unix.OPOST
	_ = unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

func sendInterrupt() {
	_ = syscall.Kill(os.Getpid(), syscall.SIGINT)
}
