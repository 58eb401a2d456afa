// Package config holds runtime configuration: defaults, validation, CLI flag
// binding, and the optional JSON settings file.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// --- Enum types for validated string fields ---

// AudioCodec is the conversion target for audio streams that cannot be copied.
type AudioCodec string

const (
	AudioAAC AudioCodec = "aac" // AAC (default, broadest playback support).
	AudioAC3 AudioCodec = "ac3" // Dolby Digital.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// LogFormat selects the log line encoding.
type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// Config holds all runtime settings. It is populated by [DefaultConfig], then
// by the optional settings file ([LoadFile]) and finally by CLI flags, before
// being passed (by pointer) to the packages that need it.
type Config struct {
	// Paths (set from positional args).
	Source      string
	Destination string // Optional. Empty means "next to the source".

	// External tools.
	FFmpegDir string // Directory holding ffmpeg/ffprobe. Empty means $PATH.

	// Audio conversion.
	AudioCodec  AudioCodec // Default: "aac".
	AACBitrate  string     // Default: "160k".
	AACChannels int        // Default: 2 (stereo cap).
	AC3Bitrate  string     // Default: "640k".
	AC3Channels int        // Default: 6 (5.1 cap).

	// Subtitles.
	ForcedSubs         bool   // Default: true. Extract forced subs to a sidecar .srt.
	ForcedSubsLanguage string // Default: "eng".

	// Discovery.
	Extensions []string // Default: ["mkv"]. Lowercase, no leading dot.

	// Output.
	Faststart    bool // Default: true. -movflags +faststart.
	DryRun       bool
	SkipExisting bool // Default: true. Cleared by --force.
	Jobs         int  // Default: 1. Files processed concurrently.

	// Display and logging.
	Verbose   bool
	LogLevel  string    // Default: "info".
	LogFormat LogFormat // Default: "text".
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.

	// Reporting.
	MetricsFile string // Optional Prometheus textfile path.
	ReportFile  string // Optional JSON run report path.
	ConfigFile  string // Optional JSON settings file.

	// ffmpeg probe constants (not user-configurable).
	FFmpegProbesize       string
	FFmpegAnalyzeDuration string
}

// DefaultConfig returns a Config with all defaults applied. The audio
// bitrates and channel caps follow the long-standing converter behavior:
// stereo AAC at 160k, up to 5.1 AC-3 at 640k.
func DefaultConfig() Config {
	return Config{
		AudioCodec:            AudioAAC,
		AACBitrate:            "160k",
		AACChannels:           2,
		AC3Bitrate:            "640k",
		AC3Channels:           6,
		ForcedSubs:            true,
		ForcedSubsLanguage:    "eng",
		Extensions:            []string{"mkv"},
		Faststart:             true,
		SkipExisting:          true,
		Jobs:                  1,
		LogLevel:              "info",
		LogFormat:             LogText,
		ColorMode:             ColorAuto,
		FFmpegProbesize:       "100M",
		FFmpegAnalyzeDuration: "100M",
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and numeric ranges and canonicalizes bitrates
// and extensions. When requireSource is set, Source must be non-empty.
func (c *Config) Validate(requireSource bool) error {
	switch c.AudioCodec {
	case AudioAAC, AudioAC3:
		// valid
	default:
		return fmt.Errorf("invalid audio codec %q (use 'aac' or 'ac3')", c.AudioCodec)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	switch c.LogFormat {
	case LogText, LogJSON:
		// valid
	default:
		return fmt.Errorf("invalid log format %q (use 'text' or 'json')", c.LogFormat)
	}

	var err error
	if c.AACBitrate, err = normalizeAudioBitrate(c.AACBitrate); err != nil {
		return err
	}
	if c.AC3Bitrate, err = normalizeAudioBitrate(c.AC3Bitrate); err != nil {
		return err
	}
	if c.AACChannels < 1 || c.AC3Channels < 1 {
		return errors.New("audio channel caps must be at least 1")
	}
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1 (got %d)", c.Jobs)
	}

	c.Extensions = normalizeExtensions(c.Extensions)
	if len(c.Extensions) == 0 {
		return errors.New("at least one input extension is required")
	}

	if requireSource && c.Source == "" {
		return errors.New("need a source file or directory")
	}
	return nil
}

// normalizeAudioBitrate validates and canonicalizes user bitrate input.
// Accepted forms: "256", "256k", "256K", "256kbps". Output is "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("audio bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid audio bitrate %q (use positive Kbps value, e.g. 160k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}

// normalizeExtensions lowercases, strips dots, and de-duplicates extensions
// while keeping their order.
func normalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}

// HasExtension reports whether ext (with or without leading dot, any case)
// is one of the configured input extensions.
func (c *Config) HasExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ToolPath returns the path of an ffmpeg suite binary, honoring FFmpegDir.
func (c *Config) ToolPath(name string) string {
	if c.FFmpegDir == "" {
		return name
	}
	return filepath.Join(c.FFmpegDir, name+exeSuffix)
}

// ValidatePaths rejects a destination directory inside (or equal to) the
// source directory when MP4 is itself an input extension; otherwise the walk
// would pick up its own output. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(sourceAbs, destAbs string) error {
	if !c.HasExtension("mp4") {
		return nil
	}
	sep := string(filepath.Separator)
	if destAbs == sourceAbs || strings.HasPrefix(destAbs+sep, sourceAbs+sep) {
		return errors.New("destination must not be inside source when mp4 is an input extension")
	}
	return nil
}
