package config

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// LoadFile applies a JSON settings document to cfg. Keys use the CLI flag
// names (e.g. "audio-codec", "aac-bitrate", "jobs"); booleans use the
// positive form ("skip-existing", "forced-subs", "faststart"). Keys for which
// skip returns true are ignored, so explicitly set flags win. Unknown keys
// are rejected to surface typos early.
//
//	{
//	  "ffmpeg-dir": "/opt/ffmpeg/bin",
//	  "audio-codec": "ac3",
//	  "extensions": ["mkv", "webm"],
//	  "forced-subs": false
//	}
func LoadFile(cfg *Config, data []byte, skip func(key string) bool) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return errors.New("settings must be a JSON object")
	}
	if skip == nil {
		skip = func(string) bool { return false }
	}

	var err error
	root.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if skip(key) {
			return true
		}
		err = applyKey(cfg, key, v)
		return err == nil
	})
	return err
}

func applyKey(cfg *Config, key string, v gjson.Result) error {
	switch key {
	case "ffmpeg-dir":
		return setString(&cfg.FFmpegDir, key, v)
	case "audio-codec":
		var s string
		if err := setString(&s, key, v); err != nil {
			return err
		}
		return (&audioCodecValue{&cfg.AudioCodec}).Set(s)
	case "aac-bitrate":
		return setString(&cfg.AACBitrate, key, v)
	case "ac3-bitrate":
		return setString(&cfg.AC3Bitrate, key, v)
	case "aac-channels":
		return setInt(&cfg.AACChannels, key, v)
	case "ac3-channels":
		return setInt(&cfg.AC3Channels, key, v)
	case "forced-subs":
		return setBool(&cfg.ForcedSubs, key, v)
	case "forced-subs-language":
		return setString(&cfg.ForcedSubsLanguage, key, v)
	case "extensions":
		if !v.IsArray() {
			return fmt.Errorf("%s: want an array of strings", key)
		}
		var exts []string
		for _, e := range v.Array() {
			if e.Type != gjson.String {
				return fmt.Errorf("%s: want an array of strings", key)
			}
			exts = append(exts, e.String())
		}
		cfg.Extensions = exts
		return nil
	case "faststart":
		return setBool(&cfg.Faststart, key, v)
	case "skip-existing":
		return setBool(&cfg.SkipExisting, key, v)
	case "dry-run":
		return setBool(&cfg.DryRun, key, v)
	case "jobs":
		return setInt(&cfg.Jobs, key, v)
	case "verbose":
		return setBool(&cfg.Verbose, key, v)
	case "log-level":
		return setString(&cfg.LogLevel, key, v)
	case "log-format":
		var s string
		if err := setString(&s, key, v); err != nil {
			return err
		}
		return (&logFormatValue{&cfg.LogFormat}).Set(s)
	case "color":
		var s string
		if err := setString(&s, key, v); err != nil {
			return err
		}
		return (&colorModeValue{&cfg.ColorMode}).Set(s)
	case "log":
		return setString(&cfg.LogFile, key, v)
	case "metrics-file":
		return setString(&cfg.MetricsFile, key, v)
	case "report":
		return setString(&cfg.ReportFile, key, v)
	}
	return fmt.Errorf("unknown setting %q", key)
}

func setString(dst *string, key string, v gjson.Result) error {
	if v.Type != gjson.String {
		return fmt.Errorf("%s: want a string", key)
	}
	*dst = v.String()
	return nil
}

func setInt(dst *int, key string, v gjson.Result) error {
	if v.Type != gjson.Number || v.Num != float64(int(v.Num)) {
		return fmt.Errorf("%s: want a whole number", key)
	}
	*dst = int(v.Int())
	return nil
}

func setBool(dst *bool, key string, v gjson.Result) error {
	if !v.IsBool() {
		return fmt.Errorf("%s: want true or false", key)
	}
	*dst = v.Bool()
	return nil
}
