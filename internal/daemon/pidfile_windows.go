//go:build windows

package daemon

import (
	"fmt"
	"os"
	"syscall"
)

// processAlive reports whether pid answers a zero signal. FindProcess
// always succeeds on Windows, so the signal is the real check.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// signalProcess sends sig to pid. Only os.Kill is reliably delivered on Windows.
func signalProcess(pid int, sig syscall.Signal) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	return proc.Signal(sig)
}
