//go:build windows

package council

import (
	"os"
	"os/exec"
)

func configureMemberProcess(cmd *exec.Cmd) {}

func configureDetached(cmd *exec.Cmd) {}

func terminateMember(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}

func terminateProcess(proc *os.Process) error {
	return proc.Kill()
}

// Windows has no signals; a killed member exits with a non-zero code.
func exitSignal(state *os.ProcessState) (string, bool) {
	return "", false
}
