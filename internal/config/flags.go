package config

// This file binds CLI flags to Config. Flags are grouped into conversion,
// subtitle, discovery/output, display, and reporting. Negated flags (e.g.
// --force, --no-faststart) are applied after parsing so that values from
// DefaultConfig() and the settings file hold unless the flag is set.

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Flags ties a FlagSet to the Config it populates.
type Flags struct {
	fs      *pflag.FlagSet
	cfg     *Config
	negated negatedFlags
}

// negatedFlags holds boolean flags that invert a default and are applied
// after Parse.
type negatedFlags struct {
	force        bool
	noForcedSubs bool
	noFaststart  bool
}

// BindFlags registers every configuration flag on fs, bound to cfg.
func BindFlags(fs *pflag.FlagSet, cfg *Config) *Flags {
	f := &Flags{fs: fs, cfg: cfg}

	defineConversionFlags(fs, cfg)
	defineSubtitleFlags(fs, cfg, &f.negated)
	defineOutputFlags(fs, cfg, &f.negated)
	defineDisplayFlags(fs, cfg)
	defineReportingFlags(fs, cfg)
	return f
}

// defineConversionFlags registers ffmpeg location and audio target flags.
func defineConversionFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.FFmpegDir, "ffmpeg-dir", "F", cfg.FFmpegDir, "Directory containing ffmpeg and ffprobe (default: $PATH)")
	fs.Var(&audioCodecValue{&cfg.AudioCodec}, "audio-codec", "Conversion target for incompatible audio: aac | ac3")
	fs.StringVar(&cfg.AACBitrate, "aac-bitrate", cfg.AACBitrate, "AAC bitrate for converted audio")
	fs.IntVar(&cfg.AACChannels, "aac-channels", cfg.AACChannels, "Maximum channels for AAC output")
	fs.StringVar(&cfg.AC3Bitrate, "ac3-bitrate", cfg.AC3Bitrate, "AC-3 bitrate for converted audio")
	fs.IntVar(&cfg.AC3Channels, "ac3-channels", cfg.AC3Channels, "Maximum channels for AC-3 output")
}

// defineSubtitleFlags registers forced subtitle sidecar flags.
func defineSubtitleFlags(fs *pflag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.noForcedSubs, "no-forced-subs", false, "Do not extract forced subtitles to a sidecar .srt")
	fs.StringVar(&cfg.ForcedSubsLanguage, "forced-subs-language", cfg.ForcedSubsLanguage, "Language of the forced subtitle sidecar")
}

// defineOutputFlags registers discovery and output behavior flags.
func defineOutputFlags(fs *pflag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.StringSliceVarP(&cfg.Extensions, "ext", "e", cfg.Extensions, "Input extensions to convert in directory mode")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "x", cfg.DryRun, "Print the ffmpeg commands; do not convert")
	fs.BoolVarP(&n.force, "force", "f", false, "Overwrite existing output files")
	fs.BoolVar(&n.noFaststart, "no-faststart", false, "Do not move the MP4 index to the front of the file")
	fs.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "Files converted concurrently in directory mode")
}

// defineDisplayFlags registers logging and color flags.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output (debug logs, ffmpeg stderr)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug | info | warn | error")
	fs.Var(&logFormatValue{&cfg.LogFormat}, "log-format", "Log format: text | json")
	fs.Var(&colorModeValue{&cfg.ColorMode}, "color", "Colored logs: auto | always | never")
	fs.StringVarP(&cfg.LogFile, "log", "l", cfg.LogFile, "Append logs to file")
}

// defineReportingFlags registers settings file, metrics and report outputs.
func defineReportingFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.ConfigFile, "config", "c", cfg.ConfigFile, "JSON settings file (flags override it)")
	fs.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write Prometheus metrics to this textfile")
	fs.StringVar(&cfg.ReportFile, "report", cfg.ReportFile, "Write a JSON run report to this path")
}

// Apply finishes configuration after the flags have been parsed: it loads
// the settings file (flag values that were set explicitly win), applies the
// negated flags, and sets positional paths from args.
func (f *Flags) Apply(args []string) error {
	if f.cfg.ConfigFile != "" {
		data, err := os.ReadFile(f.cfg.ConfigFile)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := LoadFile(f.cfg, data, f.changed); err != nil {
			return fmt.Errorf("config file %s: %w", f.cfg.ConfigFile, err)
		}
	}

	applyNegatedFlags(f.cfg, &f.negated)

	if f.cfg.Verbose && !f.fs.Changed("log-level") {
		f.cfg.LogLevel = "debug"
	}

	if len(args) > 0 {
		f.cfg.Source = NormalizeDirArg(args[0])
	}
	// Destination keeps a trailing separator: it marks a directory target.
	if len(args) > 1 {
		f.cfg.Destination = args[1]
	}
	return nil
}

// changed reports whether the flag backing a settings-file key was set on the
// command line. Positive file keys map onto their negated flag names.
func (f *Flags) changed(key string) bool {
	switch key {
	case "skip-existing":
		return f.fs.Changed("force")
	case "forced-subs":
		return f.fs.Changed("no-forced-subs")
	case "faststart":
		return f.fs.Changed("no-faststart")
	case "extensions":
		return f.fs.Changed("ext")
	}
	return f.fs.Changed(key)
}

// applyNegatedFlags copies negated flag values into cfg (e.g. force -> SkipExisting=false).
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.force {
		cfg.SkipExisting = false
	}
	if n.noForcedSubs {
		cfg.ForcedSubs = false
	}
	if n.noFaststart {
		cfg.Faststart = false
	}
}

// pflag.Value adapters so enum types can be bound with fs.Var.

type audioCodecValue struct{ p *AudioCodec }

func (a *audioCodecValue) String() string { return string(*a.p) }
func (a *audioCodecValue) Type() string   { return "codec" }
func (a *audioCodecValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "aac":
		*a.p = AudioAAC
	case "ac3", "ac-3":
		*a.p = AudioAC3
	default:
		return fmt.Errorf("invalid audio codec %q (use 'aac' or 'ac3')", s)
	}
	return nil
}

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string { return string(*c.p) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "auto":
		*c.p = ColorAuto
	case "always":
		*c.p = ColorAlways
	case "never":
		*c.p = ColorNever
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}

type logFormatValue struct{ p *LogFormat }

func (l *logFormatValue) String() string { return string(*l.p) }
func (l *logFormatValue) Type() string   { return "format" }
func (l *logFormatValue) Set(s string) error {
	switch strings.ToLower(s) {
	case "text":
		*l.p = LogText
	case "json":
		*l.p = LogJSON
	default:
		return fmt.Errorf("invalid log format %q (use 'text' or 'json')", s)
	}
	return nil
}
