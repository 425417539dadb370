package daemon

import (
	"os/exec"
	"syscall"
)

const detachedProcess = 0x00000008

// detach starts cmd without a console so it outlives the terminal.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
	}
}
