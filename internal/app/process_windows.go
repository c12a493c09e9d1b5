//go:build windows

package app

import "os"

// shutdownSignals are the OS signals that cancel the command context.
var shutdownSignals = []os.Signal{os.Interrupt}

// terminate kills the process; Windows has no graceful SIGTERM equivalent.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

// processExists checks whether a process with the given PID is running.
func processExists(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// FindProcess always succeeds on Windows; Signal fails for dead PIDs.
	return proc.Signal(os.Signal(nil)) == nil
}
