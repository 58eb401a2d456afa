package ffmpeg

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/mp4ify/internal/config"
	"github.com/backmassage/mp4ify/internal/planner"
	"github.com/backmassage/mp4ify/internal/probe"
)

func defaultOptions() Options {
	cfg := config.DefaultConfig()
	return OptionsFromConfig(&cfg, nil)
}

// argAfter returns the argument following the first occurrence of flag.
func argAfter(args []string, flag string) (string, bool) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1], true
		}
	}
	return "", false
}

func countFlag(args []string, flag string) int {
	n := 0
	for _, a := range args {
		if a == flag {
			n++
		}
	}
	return n
}

func mixedPlan(t *testing.T) planner.ConversionPlan {
	t.Helper()
	plan, err := planner.Resolve([]probe.StreamDescriptor{
		{Index: 0, Kind: probe.KindVideo, Codec: "hevc"},
		{Index: 1, Kind: probe.KindAudio, Codec: "flac", Channels: 6, Language: "jpn"},
		{Index: 2, Kind: probe.KindAudio, Codec: "ac3", Channels: 6},
		{Index: 4, Kind: probe.KindSubtitle, Codec: "ass", Language: "eng"},
	}, planner.DefaultPolicy())
	require.NoError(t, err)
	return plan
}

func TestBuild_Skeleton(t *testing.T) {
	inv, err := NewBuilder(defaultOptions()).Build("in.mkv", "out.mp4", mixedPlan(t))
	require.NoError(t, err)

	assert.Equal(t, "ffmpeg", inv.Binary)
	assert.Equal(t, "out.mp4", inv.Output)
	args := inv.Args

	assert.Equal(t, []string{"-hide_banner", "-nostdin", "-n", "-loglevel", "error"}, args[:5])
	v, _ := argAfter(args, "-i")
	assert.Equal(t, "in.mkv", v)
	v, _ = argAfter(args, "-map_metadata")
	assert.Equal(t, "-1", v)
	v, _ = argAfter(args, "-map_chapters")
	assert.Equal(t, "0", v)
	v, _ = argAfter(args, "-probesize")
	assert.Equal(t, "100M", v)
	v, _ = argAfter(args, "-movflags")
	assert.Equal(t, "+faststart", v)
	v, _ = argAfter(args, "-f")
	assert.Equal(t, "mp4", v)
	assert.Equal(t, "out.mp4", args[len(args)-1])
}

func TestBuild_PerStream(t *testing.T) {
	inv, err := NewBuilder(defaultOptions()).Build("in.mkv", "out.mp4", mixedPlan(t))
	require.NoError(t, err)
	args := inv.Args

	// One -map per decision, in plan order, by absolute input index.
	var maps []string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-map" {
			maps = append(maps, args[i+1])
		}
	}
	assert.Equal(t, []string{"0:0", "0:1", "0:2", "0:4"}, maps)

	checks := map[string]string{
		"-c:0":           "copy",
		"-tag:0":         "hvc1",
		"-c:1":           "aac",
		"-b:1":           "160k",
		"-ac:1":          "2",
		"-metadata:s:1":  "language=jpn",
		"-c:2":           "copy",
		"-c:3":           "mov_text",
		"-metadata:s:3":  "language=eng",
		"-disposition:0": "default",
		"-disposition:1": "default",
		"-disposition:2": "0",
	}
	for flag, want := range checks {
		got, ok := argAfter(args, flag)
		if assert.True(t, ok, "missing %s", flag) {
			assert.Equal(t, want, got, flag)
		}
	}
	_, ok := argAfter(args, "-b:2")
	assert.False(t, ok, "copied audio gets no bitrate")
	_, ok = argAfter(args, "-metadata:s:2")
	assert.False(t, ok, "no language means no metadata flag")
}

func TestBuild_AC3Target(t *testing.T) {
	policy := planner.DefaultPolicy()
	policy.PreferredAudio = planner.TargetAC3
	plan, err := planner.Resolve([]probe.StreamDescriptor{
		{Index: 0, Kind: probe.KindAudio, Codec: "truehd", Channels: 8},
	}, policy)
	require.NoError(t, err)

	inv, err := NewBuilder(defaultOptions()).Build("in.mkv", "out.mp4", plan)
	require.NoError(t, err)
	v, _ := argAfter(inv.Args, "-c:0")
	assert.Equal(t, "ac3", v)
	v, _ = argAfter(inv.Args, "-b:0")
	assert.Equal(t, "640k", v)
	v, _ = argAfter(inv.Args, "-ac:0")
	assert.Equal(t, "6", v)
}

func TestBuild_H264NoTag(t *testing.T) {
	plan := planner.ConversionPlan{{Index: 0, Kind: probe.KindVideo, SourceCodec: "h264"}}
	inv, err := NewBuilder(defaultOptions()).Build("in.mkv", "out.mp4", plan)
	require.NoError(t, err)
	assert.Zero(t, countFlag(inv.Args, "-tag:0"))
}

func TestBuild_Options(t *testing.T) {
	opts := defaultOptions()
	opts.Binary = "/opt/ffmpeg/bin/ffmpeg"
	opts.Overwrite = true
	opts.Verbose = true
	opts.Faststart = false
	opts.Probesize = ""

	inv, err := NewBuilder(opts).Build("in.mkv", "out.mp4", nil)
	require.NoError(t, err)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", inv.Binary)
	assert.Equal(t, 1, countFlag(inv.Args, "-y"))
	assert.Zero(t, countFlag(inv.Args, "-n"))
	assert.Zero(t, countFlag(inv.Args, "-movflags"))
	assert.Zero(t, countFlag(inv.Args, "-probesize"))
	v, _ := argAfter(inv.Args, "-loglevel")
	assert.Equal(t, "info", v)
}

func TestBuild_UnknownTarget(t *testing.T) {
	plan := planner.ConversionPlan{{
		Index: 3, Kind: probe.KindAudio, SourceCodec: "flac",
		Action: planner.ActionConvert, Target: "opus",
	}}
	_, err := NewBuilder(defaultOptions()).Build("in.mkv", "out.mp4", plan)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedTargetCodec))

	var tErr *UnsupportedTargetCodecError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, 3, tErr.Index)
	assert.Equal(t, planner.TargetCodec("opus"), tErr.Target)
	assert.Empty(t, tErr.Encoder)
}

func TestBuild_MissingEncoder(t *testing.T) {
	opts := defaultOptions()
	opts.Encoders = EncoderSet{"aac": true}

	plan, err := planner.Resolve([]probe.StreamDescriptor{
		{Index: 0, Kind: probe.KindAudio, Codec: "flac"},
		{Index: 1, Kind: probe.KindSubtitle, Codec: "subrip"},
	}, planner.DefaultPolicy())
	require.NoError(t, err)

	_, err = NewBuilder(opts).Build("in.mkv", "out.mp4", plan)
	var tErr *UnsupportedTargetCodecError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "mov_text", tErr.Encoder)
	assert.Contains(t, err.Error(), "mov_text not available")
}

func TestBuildForcedSubtitle(t *testing.T) {
	s := probe.StreamDescriptor{Index: 5, Kind: probe.KindSubtitle, Codec: "subrip", Forced: true}
	inv := NewBuilder(defaultOptions()).BuildForcedSubtitle("in.mkv", s, "in.eng.forced.srt")

	assert.Equal(t, "in.eng.forced.srt", inv.Output)
	v, _ := argAfter(inv.Args, "-map")
	assert.Equal(t, "0:5", v)
	v, _ = argAfter(inv.Args, "-c:s")
	assert.Equal(t, "srt", v)
	assert.Equal(t, "in.eng.forced.srt", inv.Args[len(inv.Args)-1])
}

func TestInvocation_String(t *testing.T) {
	inv := &Invocation{
		Binary: "ffmpeg",
		Args:   []string{"-i", "My Movie's Cut.mkv", "-map", "0:1", "-metadata:s:0", "language=eng", ""},
	}
	assert.Equal(t,
		`ffmpeg -i 'My Movie'\''s Cut.mkv' -map 0:1 -metadata:s:0 language=eng ''`,
		inv.String())
}

func TestEncoderFor(t *testing.T) {
	enc, ok := EncoderFor(planner.TargetTX3G)
	assert.True(t, ok)
	assert.Equal(t, "mov_text", enc)
	_, ok = EncoderFor(planner.TargetNone)
	assert.False(t, ok)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.FFmpegDir = "/opt/ff"
	cfg.SkipExisting = false
	opts := OptionsFromConfig(&cfg, EncoderSet{"aac": true})

	assert.True(t, strings.HasPrefix(opts.Binary, "/opt/ff"))
	assert.True(t, opts.Overwrite)
	assert.True(t, opts.Encoders.Has("aac"))
}
