package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/mp4ify/internal/config"
)

// mockLogger records lines by level.
type mockLogger struct {
	lines []string
}

func (m *mockLogger) add(level, format string, args ...interface{}) {
	m.lines = append(m.lines, level+" "+fmt.Sprintf(format, args...))
}

func (m *mockLogger) Info(f string, a ...interface{})    { m.add("INFO", f, a...) }
func (m *mockLogger) Success(f string, a ...interface{}) { m.add("OK", f, a...) }
func (m *mockLogger) Warn(f string, a ...interface{})    { m.add("WARN", f, a...) }
func (m *mockLogger) Error(f string, a ...interface{})   { m.add("ERROR", f, a...) }

func (m *mockLogger) String() string { return strings.Join(m.lines, "\n") }

const encoderList = ` ------
 A....D aac                  AAC (Advanced Audio Coding)
 S..... mov_text             3GPP Timed Text subtitle
`

// fakeTools writes ffmpeg and ffprobe scripts into a temp dir. encoders is
// printed for -encoders.
func fakeTools(t *testing.T, encoders string, withProbe bool) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	dir := t.TempDir()
	ffmpeg := fmt.Sprintf(`#!/bin/sh
case "$*" in
  *-encoders*) printf '%%s' '%s' ;;
  *-version*) echo "ffmpeg version 7.1 Copyright (c) 2000-2024" ;;
esac
`, encoders)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ffmpeg"), []byte(ffmpeg), 0o755))
	if withProbe {
		probe := "#!/bin/sh\necho \"ffprobe version 7.1\"\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "ffprobe"), []byte(probe), 0o755))
	}
	return dir
}

func cfgFor(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.FFmpegDir = dir
	return &cfg
}

func TestRequiredEncoders(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, []string{"aac", "mov_text"}, RequiredEncoders(&cfg))

	cfg.AudioCodec = config.AudioAC3
	assert.Equal(t, []string{"ac3", "mov_text"}, RequiredEncoders(&cfg))
}

func TestCheckDeps_OK(t *testing.T) {
	dir := fakeTools(t, encoderList, true)
	set, err := CheckDeps(context.Background(), cfgFor(dir))
	require.NoError(t, err)
	assert.True(t, set.Has("aac"))
	assert.True(t, set.Has("mov_text"))
}

func TestCheckDeps_MissingEncoder(t *testing.T) {
	dir := fakeTools(t, encoderList, true)
	cfg := cfgFor(dir)
	cfg.AudioCodec = config.AudioAC3
	_, err := CheckDeps(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrEncoderMissing)
	assert.Contains(t, err.Error(), "ac3")
}

func TestCheckDeps_MissingTools(t *testing.T) {
	_, err := CheckDeps(context.Background(), cfgFor(t.TempDir()))
	assert.ErrorIs(t, err, ErrFFmpegNotFound)

	dir := fakeTools(t, encoderList, false)
	_, err = CheckDeps(context.Background(), cfgFor(dir))
	assert.ErrorIs(t, err, ErrFFprobeNotFound)
}

func TestRunCheck(t *testing.T) {
	dir := fakeTools(t, encoderList, true)
	log := &mockLogger{}
	ok := RunCheck(context.Background(), cfgFor(dir), log)
	assert.True(t, ok, log.String())

	out := log.String()
	assert.Contains(t, out, "OK ffmpeg: ffmpeg version 7.1")
	assert.Contains(t, out, "OK ffprobe: ffprobe version 7.1")
	assert.Contains(t, out, "OK   aac")
	assert.Contains(t, out, "WARN   srt missing")
}

func TestRunCheck_Missing(t *testing.T) {
	log := &mockLogger{}
	assert.False(t, RunCheck(context.Background(), cfgFor(t.TempDir()), log))
	assert.Contains(t, log.String(), "ERROR ffmpeg not found")
	assert.Contains(t, log.String(), "ERROR ffprobe not found")
}
