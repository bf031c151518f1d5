//go:build linux || darwin

package pipeline

import "syscall"

// posixSysProcAttr isolates an OS-child stage into its own process group, so
// a later terminal SIGINT/SIGTSTP aimed at the shell doesn't also land on
// still-running children directly (mirrors setpgrp() at the preexec point).
func posixSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
