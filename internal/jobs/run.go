package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/altafino/schedkit/internal/types"
)

// CommandTask builds the task function for a command job. The command runs
// with the definition's working directory and timeout; combined output is
// logged at debug level.
func CommandTask(def *types.JobDefinition, logger *slog.Logger) func() error {
	// Copy what we need so a reloaded definition can't race the running task.
	run := def.Command.Run
	args := append([]string(nil), def.Command.Args...)
	dir := def.Command.Dir
	timeout := time.Duration(def.Command.Timeout) * time.Second
	name := def.Name

	return func() error {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		cmd := exec.CommandContext(ctx, run, args...)
		cmd.Dir = dir

		out, err := cmd.CombinedOutput()
		if len(out) > 0 {
			logger.Debug("job command output",
				"job", name,
				"output", string(out),
			)
		}
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("command timed out after %s: %w", timeout, err)
			}
			return fmt.Errorf("command failed: %w", err)
		}
		return nil
	}
}
