//go:build !windows

package cmd

import (
	"os/exec"
	"syscall"
)

// detachProcess puts the background server in its own session so it
// survives the client's terminal going away.
func detachProcess(c *exec.Cmd) {
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
