package council

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"slices"
)

// Launcher starts the worker for one member without waiting for it.
type Launcher interface {
	Launch(ctx context.Context, args WorkerArgs) error
}

// ExecLauncher runs `<Executable> <Args...> <worker argv>` as a detached
// process: a new session with stdio on the null device.
type ExecLauncher struct {
	// Executable defaults to the running binary.
	Executable string
	// Args precede the worker argv; nil means "worker".
	Args []string
	// Env is passed to the worker; nil inherits the caller's environment.
	Env []string
}

func (l ExecLauncher) Launch(ctx context.Context, args WorkerArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	exe := l.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("resolve executable: %w", err)
		}
		exe = self
	}
	prefix := l.Args
	if prefix == nil {
		prefix = []string{"worker"}
	}

	cmd := exec.Command(exe, append(slices.Clone(prefix), args.Argv()...)...)
	cmd.Env = l.Env
	configureDetached(cmd)
	if err := cmd.Start(); err != nil {
		return err
	}
	// Reap in the background so a long-lived caller does not collect zombies.
	go func() { _ = cmd.Wait() }()
	return nil
}
