package utils

import (
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v3/process"
)

// KillProcessTree kills pid and all of its children. It is used when the
// browser does not exit on a regular close. A process that is already gone is not an error.
func KillProcessTree(logger *slog.Logger, pid int) error {
	if pid <= 0 {
		return nil
	}
	exists, err := process.PidExists(int32(pid))
	if err != nil {
		return fmt.Errorf("check process %d: %w", pid, err)
	}
	if !exists {
		return nil
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("open process %d: %w", pid, err)
	}

	// Children first so Chrome helpers are not re-parented and left running.
	children, err := proc.Children()
	if err == nil {
		for _, child := range children {
			if kerr := child.Kill(); kerr != nil {
				logger.Warn("failed to kill browser child process", "pid", child.Pid, "error", kerr)
			}
		}
	}

	if err := proc.Kill(); err != nil {
		return fmt.Errorf("kill process %d: %w", pid, err)
	}
	logger.Info("killed leftover browser process", "pid", pid, "children", len(children))
	return nil
}
