package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinary writes a shell script standing in for ffmpeg.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestExecutor_Success(t *testing.T) {
	bin := fakeBinary(t, "echo progress >&2\nexit 0\n")
	var tee bytes.Buffer
	e := &Executor{Tee: &tee}

	require.NoError(t, e.Run(context.Background(), &Invocation{Binary: bin}))
	assert.Equal(t, "progress\n", tee.String())
}

func TestExecutor_ExitError(t *testing.T) {
	bin := fakeBinary(t, `echo "Stream #0:2 -> #0:2 (hdmv_pgs_subtitle -> mov_text)" >&2
echo "Subtitle encoding currently only possible from text to text or bitmap to bitmap" >&2
exit 3
`)
	err := (&Executor{}).Run(context.Background(), &Invocation{Binary: bin})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFFmpegFailed))

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
	assert.Contains(t, exitErr.Stderr, "text to text")
	assert.Contains(t, exitErr.Hint, "bitmap subtitles")
	assert.Contains(t, err.Error(), "exit 3")
}

func TestExecutor_StderrTail(t *testing.T) {
	bin := fakeBinary(t, "i=0\nwhile [ $i -lt 50 ]; do echo line$i >&2; i=$((i+1)); done\nexit 1\n")
	err := (&Executor{}).Run(context.Background(), &Invocation{Binary: bin})

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	lines := strings.Split(exitErr.Stderr, "\n")
	assert.Len(t, lines, stderrTailLines)
	assert.Equal(t, "line49", lines[len(lines)-1])
}

func TestExecutor_MissingBinary(t *testing.T) {
	err := (&Executor{}).Run(context.Background(), &Invocation{Binary: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrFFmpegFailed))
}

func TestExecutor_Canceled(t *testing.T) {
	bin := fakeBinary(t, "sleep 5\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := (&Executor{}).Run(ctx, &Invocation{Binary: bin})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiagnose(t *testing.T) {
	tests := []struct {
		stderr string
		want   string
	}{
		{"Unknown encoder 'libfdk_aac'", "lacks a required encoder"},
		{"Could not find tag for codec pcm_s24le in stream #1, codec not currently supported in container", "not supported by the MP4 container"},
		{"Too many packets buffered for output stream 0:1.", "mux queue overflow"},
		{"Application provided invalid, non monotonically increasing dts to muxer", "broken timestamps"},
		{"File 'out.mp4' already exists. Exiting.", "--force"},
		{"out.mp4: No space left on device", "disk is full"},
		{"in.mkv: Permission denied", "permission denied"},
		{"everything fine", ""},
	}
	for _, tt := range tests {
		got := Diagnose(tt.stderr)
		if tt.want == "" {
			assert.Empty(t, got, tt.stderr)
			continue
		}
		assert.Contains(t, got, tt.want, tt.stderr)
	}
}
