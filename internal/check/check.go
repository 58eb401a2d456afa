// Package check provides system diagnostics (the check subcommand) and
// pre-run dependency validation (CheckDeps) for ffmpeg, ffprobe, and the
// encoders a conversion needs.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/backmassage/mp4ify/internal/config"
	"github.com/backmassage/mp4ify/internal/ffmpeg"
	"github.com/backmassage/mp4ify/internal/planner"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFFmpegNotFound  = errors.New("ffmpeg not found")
	ErrFFprobeNotFound = errors.New("ffprobe not found")
	ErrEncoderMissing  = errors.New("required encoder missing")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// sidecarEncoder writes forced subtitle sidecars.
const sidecarEncoder = "srt"

// RequiredEncoders returns the ffmpeg encoders a conversion under cfg can
// use: the preferred audio target and the MP4 text subtitle encoder.
func RequiredEncoders(cfg *config.Config) []string {
	policy := planner.PolicyFromConfig(cfg)
	audio, _ := ffmpeg.EncoderFor(policy.PreferredAudio)
	subs, _ := ffmpeg.EncoderFor(planner.TargetTX3G)
	return []string{audio, subs}
}

// CheckDeps is the pre-run validation: it verifies that ffmpeg and ffprobe
// resolve and that ffmpeg has every required encoder. The returned set is
// handed to the command builder.
func CheckDeps(ctx context.Context, cfg *config.Config) (ffmpeg.EncoderSet, error) {
	ffmpegPath, err := exec.LookPath(cfg.ToolPath("ffmpeg"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFmpegNotFound, err)
	}
	if _, err := exec.LookPath(cfg.ToolPath("ffprobe")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFFprobeNotFound, err)
	}

	encoders, err := listEncoders(ctx, ffmpegPath)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, name := range RequiredEncoders(cfg) {
		if !encoders.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncoderMissing, strings.Join(missing, ", "))
	}
	return encoders, nil
}

// RunCheck runs the interactive check flow: prints the ffmpeg and ffprobe
// versions and the availability of every encoder mp4ify may use. It reports
// whether everything required is present.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkTool(ctx, cfg, log, "ffmpeg")
	ok = checkTool(ctx, cfg, log, "ffprobe") && ok
	if !ok {
		return false
	}

	encoders, err := listEncoders(ctx, cfg.ToolPath("ffmpeg"))
	if err != nil {
		log.Error("Could not list encoders: %v", err)
		return false
	}

	log.Info("Encoders:")
	for _, name := range RequiredEncoders(cfg) {
		if encoders.Has(name) {
			log.Success("  %s", name)
		} else {
			log.Error("  %s missing", name)
			ok = false
		}
	}
	if cfg.ForcedSubs {
		if encoders.Has(sidecarEncoder) {
			log.Success("  %s (forced subtitle sidecars)", sidecarEncoder)
		} else {
			log.Warn("  %s missing: forced subtitles will not be extracted", sidecarEncoder)
		}
	}
	return ok
}

// checkTool verifies that a tool resolves and logs its version string.
func checkTool(ctx context.Context, cfg *config.Config, log Logger, name string) bool {
	path, err := exec.LookPath(cfg.ToolPath(name))
	if err != nil {
		log.Error("%s not found", name)
		return false
	}
	out, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", name, err)
		return true
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("%s: %s", name, firstLine)
	return true
}

func listEncoders(ctx context.Context, ffmpegPath string) (ffmpeg.EncoderSet, error) {
	out, err := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("list encoders: %w", err)
	}
	return ffmpeg.ParseEncoders(string(out)), nil
}
