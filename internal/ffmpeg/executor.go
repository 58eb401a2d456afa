package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrFFmpegFailed is matched by [ExitError].
var ErrFFmpegFailed = errors.New("ffmpeg failed")

// stderrTailLines bounds the stderr kept in an ExitError.
const stderrTailLines = 20

// ExitError is returned when ffmpeg exits with a nonzero status.
type ExitError struct {
	Code   int
	Stderr string // Last lines of stderr.
	Hint   string // From [Diagnose]; may be empty.
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s (exit %d)", ErrFFmpegFailed, e.Code)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

func (e *ExitError) Is(target error) bool { return target == ErrFFmpegFailed }

// Executor runs ffmpeg invocations one at a time per call. When Tee is set,
// stderr is copied to it in real time in addition to being captured.
type Executor struct {
	Tee io.Writer
}

// Run executes inv once. No retries are attempted: a nonzero exit yields an
// [ExitError] carrying the stderr tail and a diagnosis.
func (e *Executor) Run(ctx context.Context, inv *Invocation) error {
	cmd := exec.CommandContext(ctx, inv.Binary, inv.Args...)

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
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := stderrBuf.String()
		return &ExitError{
			Code:   exitErr.ExitCode(),
			Stderr: tail(stderr, stderrTailLines),
			Hint:   Diagnose(stderr),
		}
	}
	return fmt.Errorf("run %s: %w", inv.Binary, err)
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
