//go:build linux

// Package procattr configures spawned provider CLIs so they cannot outlive
// the chat client.
package procattr

import (
	"os/exec"
	"syscall"
)

// Apply puts the child in its own process group and arranges for SIGTERM
// delivery if the parent dies. Pdeathsig covers parent deaths that skip
// normal shutdown, such as an OOM kill.
func Apply(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
