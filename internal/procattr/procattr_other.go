//go:build !linux

// Package procattr configures spawned provider CLIs so they cannot outlive
// the chat client.
package procattr

import (
	"os/exec"
	"syscall"
)

// Apply puts the child in its own process group. Pdeathsig is Linux-only; a
// process group still lets the parent tear down the whole CLI process tree
// with one group signal.
func Apply(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
