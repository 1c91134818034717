package utils

import (
	"context"
	"os/exec"
	"strings"
)

// CommandExists checks if a command is available in the system PATH
func CommandExists(cmd string) bool {
	_, err := exec.LookPath(cmd)
	return err == nil
}

// GetToolVersion gets the version of a tool
func GetToolVersion(tool string, versionFlag string) (string, error) {
	output, err := exec.Command(tool, versionFlag).Output()
	if err != nil {
		return "", err
	}

	// Extract version from output (simplified)
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		return strings.TrimSpace(lines[0]), nil
	}
	return "", nil
}

// RunCommand runs a command under the given context and returns its stdout.
// The command is killed when the context expires. Diagnostic tools such as
// smartctl report device conditions through non-zero exit codes while still
// writing a full payload, so callers get the captured output alongside the
// error and decide for themselves.
func RunCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	return out, err
}

// ExitCode extracts the process exit code from a RunCommand error, or -1
// when the command never ran
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
