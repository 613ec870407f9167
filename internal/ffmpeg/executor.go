package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// Runner runs one external command described by args (args[0] is the
// executable). The pipeline depends on this interface so tests can
// substitute a fake transcoder.
type Runner interface {
	Run(ctx context.Context, args []string) error
}

// Executor runs commands with exec.CommandContext, capturing stderr.
type Executor struct {
	// Tee, when set, also receives stderr in real time (verbose mode).
	Tee io.Writer
}

// Run executes args and returns nil on exit status 0. Any other outcome is
// reported as *ExecError. Cancelling ctx kills the process.
func (e Executor) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return &ExecError{ExitCode: -1, Err: errors.New("empty command")}
	}
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if e.Tee != nil {
		cmd.Stderr = io.MultiWriter(&stderrBuf, e.Tee)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	if err == nil {
		return nil
	}

	execErr := &ExecError{Args: args, ExitCode: -1, Stderr: stderrBuf.String(), Err: err}
	if ctxErr := ctx.Err(); ctxErr != nil {
		execErr.Err = ctxErr
		return execErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}
	return execErr
}
