//go:build unix

package wrapper

import (
	"os/exec"
	"syscall"
)

// detach puts the workload in its own process group
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
}
