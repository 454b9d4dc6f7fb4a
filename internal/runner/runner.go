// Package runner turns configured shell commands into schedule jobs.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"metron/pkg/logx"
	"metron/pkg/schedule"
)

// maxOutputLog caps how much combined output is attached to log fields.
const maxOutputLog = 2048

// CommandJob builds a schedule.Job that runs command through the shell.
// The command inherits the run context, so the per-run timeout (when
// configured) kills it via exec.CommandContext.
func CommandJob(name, command string, log logx.Logger) schedule.Job {
	return func(ctx context.Context) error {
		cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)

		var out bytes.Buffer
		cmd.Stdout = &out
		cmd.Stderr = &out

		err := cmd.Run()
		if err != nil {
			return fmt.Errorf("command failed: %w: %s", err, truncateOutput(out.Bytes()))
		}
		if out.Len() > 0 {
			log.Debug("command output",
				logx.String("job", name),
				logx.String("output", truncateOutput(out.Bytes())))
		}
		return nil
	}
}

func truncateOutput(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxOutputLog {
		s = s[:maxOutputLog] + "... (truncated)"
	}
	return s
}
