//go:build windows

package runner

import "syscall"

var procGenerateConsoleCtrlEvent = syscall.NewLazyDLL("kernel32.dll").NewProc("GenerateConsoleCtrlEvent")

// fixOutputProcessing is a no-op: raw console input leaves output
// translation alone on Windows.
func fixOutputProcessing(int) {}

func sendInterrupt() {
	// CTRL_C_EVENT to our own process group.
	_, _, _ = procGenerateConsoleCtrlEvent.Call(0, 0)
}
