//go:build !windows

package council

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureMemberProcess puts the member in its own process group so a
// termination reaches any children it spawns.
func configureMemberProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// terminateMember sends SIGTERM to the member's process group, falling back
// to the process itself.
func terminateMember(pid int) error {
	if pid <= 0 {
		return unix.ESRCH
	}
	if pgid, err := unix.Getpgid(pid); err == nil && pgid == pid {
		// Negative PGID targets the whole group.
		if err := unix.Kill(-pgid, unix.SIGTERM); err == nil {
			return nil
		}
	}
	return unix.Kill(pid, unix.SIGTERM)
}

// terminateProcess is terminateMember for a child this process owns. The
// single-process fallback goes through os.Process, which refuses to signal
// a child that has been reaped.
func terminateProcess(proc *os.Process) error {
	if pgid, err := unix.Getpgid(proc.Pid); err == nil && pgid == proc.Pid {
		if err := unix.Kill(-pgid, unix.SIGTERM); err == nil {
			return nil
		}
	}
	return proc.Signal(unix.SIGTERM)
}

func exitSignal(state *os.ProcessState) (name string, sigterm bool) {
	if state == nil {
		return "", false
	}
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return "", false
	}
	return unix.SignalName(ws.Signal()), ws.Signal() == unix.SIGTERM
}
