package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// defaultShellPath is the shell every command runs through.
const defaultShellPath = "/bin/sh"

// failureMessagePrefix is prepended to the captured diagnostic stream
// when a command exits non-zero. The prefixed text is the response
// payload clients receive; changing it changes the wire contract.
const failureMessagePrefix = "An error occurred: "

// Result is the outcome of one completed command execution.
type Result struct {
	// Output is the response payload: captured stdout when the command
	// succeeded, the prefixed diagnostic stream when it failed.
	Output string

	// ExitCode is the command's exit status. -1 when the command was
	// terminated by a signal.
	ExitCode int

	// Failed reports a non-zero exit. A failed Result is still a
	// completed execution, not an error.
	Failed bool

	// Duration is the wall-clock time the command took.
	Duration time.Duration
}

// Logger defines the logging interface used by the Shell.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Shell runs configured commands through the system shell.
//
// The command string is handed to the shell verbatim; pipes, redirects
// and variable expansion all behave as they would at a prompt. The
// configuration file is the trust boundary: whoever can write it can
// already run commands as this process's user.
//
// Thread Safety:
//   - Shell holds no per-execution state; Run is safe for concurrent
//     use from multiple goroutines.
type Shell struct {
	shell  string
	logger Logger
}

// NewShell creates a Shell using the system default shell.
func NewShell() *Shell {
	return &Shell{
		shell:  defaultShellPath,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the shell.
func (s *Shell) SetLogger(logger Logger) {
	s.logger = logger
}

// Run executes one command to completion and captures its output.
//
// Both streams are captured separately. A non-zero exit is a completed
// execution: the Result carries the prefixed diagnostic text and the
// exit code, and the returned error is nil. The error return is
// reserved for the shell itself failing to start, which is a host
// problem rather than a command outcome.
//
// There is no execution timeout. Callers that must not inherit request
// cancellation should pass a detached context.
func (s *Shell) Run(ctx context.Context, command string) (Result, error) {
	cmd := exec.CommandContext(ctx, s.shell, "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{Duration: duration}, fmt.Errorf("starting shell: %w", err)
		}

		result := Result{
			Output:   failureMessagePrefix + stderr.String(),
			ExitCode: exitErr.ExitCode(),
			Failed:   true,
			Duration: duration,
		}
		s.logger.Debug("command failed",
			"exit_code", result.ExitCode,
			"duration_ms", duration.Milliseconds(),
			"stderr_bytes", stderr.Len(),
		)
		return result, nil
	}

	s.logger.Debug("command succeeded",
		"duration_ms", duration.Milliseconds(),
		"stdout_bytes", stdout.Len(),
	)

	return Result{
		Output:   stdout.String(),
		ExitCode: 0,
		Duration: duration,
	}, nil
}
