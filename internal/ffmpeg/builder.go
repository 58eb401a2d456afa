package ffmpeg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/mp4ify/internal/config"
	"github.com/backmassage/mp4ify/internal/planner"
	"github.com/backmassage/mp4ify/internal/probe"
)

const muxQueueSize = 4096

// ErrUnsupportedTargetCodec is matched by [UnsupportedTargetCodecError].
var ErrUnsupportedTargetCodec = errors.New("unsupported target codec")

// UnsupportedTargetCodecError reports a planned conversion that cannot be
// expressed as an ffmpeg encoder, either because the target has no known
// encoder or because the local ffmpeg build lacks it.
type UnsupportedTargetCodecError struct {
	Index   int
	Target  planner.TargetCodec
	Encoder string // Empty when the target has no known encoder.
}

func (e *UnsupportedTargetCodecError) Error() string {
	if e.Encoder == "" {
		return fmt.Sprintf("stream #%d: %s %q", e.Index, ErrUnsupportedTargetCodec, e.Target)
	}
	return fmt.Sprintf("stream #%d: %s %q: encoder %s not available", e.Index, ErrUnsupportedTargetCodec, e.Target, e.Encoder)
}

func (e *UnsupportedTargetCodecError) Unwrap() error { return ErrUnsupportedTargetCodec }

// targetEncoders maps a target codec to its ffmpeg encoder name.
var targetEncoders = map[planner.TargetCodec]string{
	planner.TargetAAC:  "aac",
	planner.TargetAC3:  "ac3",
	planner.TargetTX3G: "mov_text",
}

// EncoderFor returns the ffmpeg encoder used for a target codec.
func EncoderFor(target planner.TargetCodec) (string, bool) {
	enc, ok := targetEncoders[target]
	return enc, ok
}

// Options holds the command-line settings shared by every invocation.
type Options struct {
	Binary          string // ffmpeg executable. Empty means "ffmpeg".
	AACBitrate      string
	AC3Bitrate      string
	Probesize       string
	AnalyzeDuration string
	Faststart       bool
	Overwrite       bool       // -y when set, -n otherwise.
	Verbose         bool       // -loglevel info instead of error.
	Encoders        EncoderSet // Available encoders. Nil skips the check.
}

// OptionsFromConfig derives builder options from runtime configuration.
// encoders is the set reported by the local ffmpeg, or nil.
func OptionsFromConfig(cfg *config.Config, encoders EncoderSet) Options {
	return Options{
		Binary:          cfg.ToolPath("ffmpeg"),
		AACBitrate:      cfg.AACBitrate,
		AC3Bitrate:      cfg.AC3Bitrate,
		Probesize:       cfg.FFmpegProbesize,
		AnalyzeDuration: cfg.FFmpegAnalyzeDuration,
		Faststart:       cfg.Faststart,
		Overwrite:       !cfg.SkipExisting,
		Verbose:         cfg.Verbose,
		Encoders:        encoders,
	}
}

// Builder converts plans into ffmpeg invocations. It holds no per-file state
// and is safe for concurrent use.
type Builder struct {
	opts Options
}

// NewBuilder returns a builder using opts.
func NewBuilder(opts Options) *Builder {
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	return &Builder{opts: opts}
}

// Invocation is a fully resolved ffmpeg command.
type Invocation struct {
	Binary string
	Args   []string
	Output string
}

// String renders the command line with shell quoting, for dry runs and logs.
func (inv *Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, shellQuote(inv.Binary))
	for _, a := range inv.Args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

// Build constructs the ffmpeg command that writes plan's streams from input
// into an MP4 at output. Output stream j is plan[j].
func (b *Builder) Build(input, output string, plan planner.ConversionPlan) (*Invocation, error) {
	args := b.preamble()

	// --- Input ---
	args = append(args, "-i", input)

	// --- Metadata and chapters ---
	args = append(args, "-map_metadata", "-1", "-map_chapters", "0")

	// --- Stream maps and codecs ---
	for j, d := range plan {
		var err error
		args, err = b.appendStream(args, j, d)
		if err != nil {
			return nil, err
		}
	}

	// --- Stream dispositions ---
	args = append(args, planner.Dispositions(plan)...)

	args = append(args, "-max_muxing_queue_size", strconv.Itoa(muxQueueSize))

	// --- Container opts ---
	if b.opts.Faststart {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-f", "mp4", output)

	return &Invocation{Binary: b.opts.Binary, Args: args, Output: output}, nil
}

// BuildForcedSubtitle extracts a single subtitle stream to a SubRip sidecar.
func (b *Builder) BuildForcedSubtitle(input string, s probe.StreamDescriptor, output string) *Invocation {
	args := b.preamble()
	args = append(args,
		"-i", input,
		"-map", fmt.Sprintf("0:%d", s.Index),
		"-c:s", "srt",
		"-f", "srt",
		output,
	)
	return &Invocation{Binary: b.opts.Binary, Args: args, Output: output}
}

func (b *Builder) preamble() []string {
	args := make([]string, 0, 48)
	args = append(args, "-hide_banner", "-nostdin")
	if b.opts.Overwrite {
		args = append(args, "-y")
	} else {
		args = append(args, "-n")
	}

	// Loglevel: info when verbose, otherwise error.
	if b.opts.Verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// Probe constants.
	if b.opts.Probesize != "" {
		args = append(args, "-probesize", b.opts.Probesize)
	}
	if b.opts.AnalyzeDuration != "" {
		args = append(args, "-analyzeduration", b.opts.AnalyzeDuration)
	}
	return args
}

// appendStream adds the map, codec and per-stream flags for output stream j.
func (b *Builder) appendStream(args []string, j int, d planner.StreamDecision) ([]string, error) {
	args = append(args, "-map", fmt.Sprintf("0:%d", d.Index))

	if d.Action == planner.ActionCopy {
		args = append(args, fmt.Sprintf("-c:%d", j), "copy")
		if d.Kind == probe.KindVideo && d.SourceCodec == "hevc" {
			args = append(args, fmt.Sprintf("-tag:%d", j), "hvc1")
		}
	} else {
		enc, ok := EncoderFor(d.Target)
		if !ok {
			return nil, &UnsupportedTargetCodecError{Index: d.Index, Target: d.Target}
		}
		if b.opts.Encoders != nil && !b.opts.Encoders.Has(enc) {
			return nil, &UnsupportedTargetCodecError{Index: d.Index, Target: d.Target, Encoder: enc}
		}
		args = append(args, fmt.Sprintf("-c:%d", j), enc)

		switch d.Target {
		case planner.TargetAAC:
			args = appendAudioRate(args, j, b.opts.AACBitrate, d.Channels)
		case planner.TargetAC3:
			args = appendAudioRate(args, j, b.opts.AC3Bitrate, d.Channels)
		}
	}

	if d.Language != "" {
		args = append(args, fmt.Sprintf("-metadata:s:%d", j), "language="+d.Language)
	}
	return args, nil
}

func appendAudioRate(args []string, j int, bitrate string, channels int) []string {
	if bitrate != "" {
		args = append(args, fmt.Sprintf("-b:%d", j), bitrate)
	}
	if channels > 0 {
		args = append(args, fmt.Sprintf("-ac:%d", j), strconv.Itoa(channels))
	}
	return args
}

// shellQuote single-quotes s unless it consists only of safe characters.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("-_./:=+,@%", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
