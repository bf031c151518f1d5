//go:build !linux && !darwin

package pipeline

import "syscall"

// posixSysProcAttr is a no-op off POSIX: there is no process-group concept
// to isolate into.
func posixSysProcAttr() *syscall.SysProcAttr {
	return nil
}
