//go:build !unix

package wrapper

import "os/exec"

func detach(cmd *exec.Cmd) {}
