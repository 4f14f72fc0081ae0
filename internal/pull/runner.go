package pull

import (
	"context"
	"os/exec"
)

// CommandRunner executes an external command and returns its combined output.
// Tests substitute a fake to exercise orchestration without a real tx binary.
type CommandRunner func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

// ExecRunner runs the command via os/exec.
func ExecRunner(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	return cmd.CombinedOutput()
}
