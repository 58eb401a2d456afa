// Command mp4ify is the entrypoint for the mp4ify converter CLI. It rewraps
// MKV and other media files as MP4, copying video and converting only the
// audio and subtitle streams MP4 cannot carry.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/mp4ify/internal/check"
	"github.com/backmassage/mp4ify/internal/config"
	"github.com/backmassage/mp4ify/internal/display"
	"github.com/backmassage/mp4ify/internal/ffmpeg"
	"github.com/backmassage/mp4ify/internal/logging"
	"github.com/backmassage/mp4ify/internal/metrics"
	"github.com/backmassage/mp4ify/internal/pipeline"
	"github.com/backmassage/mp4ify/internal/probe"
	"github.com/backmassage/mp4ify/internal/report"
)

// version and commit are set at build time via -ldflags.
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

// app holds the parsed configuration shared by all subcommands.
type app struct {
	cfg   config.Config
	flags *config.Flags
	exit  int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	a := &app{cfg: config.DefaultConfig()}
	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "mp4ify: %v\n", err)
		return exitFailure
	}
	return a.exit
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mp4ify [flags] <source> [destination]",
		Short: "Convert media files to MP4 without re-encoding video.",
		Long: `mp4ify rewraps a media file, or every matching file under a directory,
as MP4. Video is always copied. AAC and AC-3 audio and mov_text subtitles
are copied; other audio is converted to AAC (or AC-3) and other text
subtitles to tx3g.

With a directory source the tree is mirrored under the destination, or
outputs are written beside their inputs when no destination is given.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runConvert,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Hidden: true})
	a.flags = config.BindFlags(root.PersistentFlags(), &a.cfg)

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Show ffmpeg/ffprobe versions and encoder availability.",
		Args:  cobra.NoArgs,
		RunE:  a.runCheck,
	})
	root.AddCommand(&cobra.Command{
		Use:   "analyze <source>",
		Short: "Print the codecs and conversion plan of each file; convert nothing.",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runAnalyze,
	})
	return root
}

// setup finishes configuration from args and opens the logger.
func (a *app) setup(args []string, requireSource bool) (*logging.Logger, error) {
	if err := a.flags.Apply(args); err != nil {
		return nil, err
	}
	if err := a.cfg.Validate(requireSource); err != nil {
		return nil, err
	}
	log, err := logging.NewLogger(&a.cfg)
	if err != nil {
		return nil, err
	}
	if a.cfg.LogFormat == config.LogText {
		display.PrintBanner(os.Stdout, version)
	}
	return log, nil
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	log, err := a.setup(args, true)
	if err != nil {
		return err
	}
	defer log.Close()
	ctx := cmd.Context()
	cfg := &a.cfg

	// 1. Ensure ffmpeg/ffprobe and the needed encoders are available; fail fast otherwise.
	encoders, err := check.CheckDeps(ctx, cfg)
	if err != nil {
		log.Error("%v", err)
		log.Error("Run 'mp4ify check' for details")
		a.exit = exitFailure
		return nil
	}

	started := time.Now()
	rec := metrics.New()
	rep := report.New(cfg.Source, cfg.Destination, cfg.DryRun, started)
	runLog := log.With(logging.Fields{"run": rep.RunID()[:8]})

	runLog.Info("=== mp4ify v%s ===", version)
	runLog.Info("In:  %s", cfg.Source)
	if cfg.Destination != "" {
		runLog.Info("Out: %s", cfg.Destination)
	}
	if cfg.DryRun {
		runLog.Warn("DRY RUN")
	}

	// 2. Run the pipeline (discover -> probe -> plan -> execute).
	executor := &ffmpeg.Executor{}
	if cfg.Verbose {
		executor.Tee = os.Stderr
	}
	p := pipeline.New(cfg, runLog, newProber(cfg), executor,
		ffmpeg.NewBuilder(ffmpeg.OptionsFromConfig(cfg, encoders)),
		pipeline.WithMetrics(rec),
		pipeline.WithReport(rep),
	)
	stats, runErr := p.Run(ctx)

	// 3. Write the run summary outputs, interrupted or not.
	finished := time.Now()
	rec.Finish(started, finished)
	rep.Finish(report.Totals{
		Total:       stats.Total,
		Converted:   stats.Converted,
		Copied:      stats.Copied,
		Skipped:     stats.Skipped,
		Failed:      stats.Failed,
		InputBytes:  stats.TotalInputBytes,
		OutputBytes: stats.TotalOutputBytes,
	}, finished)
	writeSummaries(runLog, cfg, rec, rep)

	switch {
	case errors.Is(runErr, context.Canceled):
		runLog.Warn("Interrupted")
		a.exit = exitInterrupted
	case runErr != nil:
		runLog.Error("%v", runErr)
		a.exit = exitFailure
	case !stats.OK():
		a.exit = exitFailure
	default:
		a.exit = exitOK
	}
	return nil
}

func (a *app) runCheck(cmd *cobra.Command, _ []string) error {
	log, err := a.setup(nil, false)
	if err != nil {
		return err
	}
	defer log.Close()
	if !check.RunCheck(cmd.Context(), &a.cfg, log) {
		a.exit = exitFailure
	}
	return nil
}

func (a *app) runAnalyze(cmd *cobra.Command, args []string) error {
	log, err := a.setup(args, true)
	if err != nil {
		return err
	}
	defer log.Close()
	cfg := &a.cfg

	if _, err := exec.LookPath(cfg.ToolPath("ffprobe")); err != nil {
		log.Error("%v: %v", check.ErrFFprobeNotFound, err)
		a.exit = exitFailure
		return nil
	}

	p := pipeline.New(cfg, log, newProber(cfg), &ffmpeg.Executor{},
		ffmpeg.NewBuilder(ffmpeg.OptionsFromConfig(cfg, nil)))
	if _, err := p.Analyze(cmd.Context()); err != nil {
		if errors.Is(err, context.Canceled) {
			a.exit = exitInterrupted
			return nil
		}
		log.Error("%v", err)
		a.exit = exitFailure
	}
	return nil
}

func newProber(cfg *config.Config) *probe.Prober {
	return &probe.Prober{
		FFprobePath: cfg.ToolPath("ffprobe"),
		Probesize:   cfg.FFmpegProbesize,
		Analyze:     cfg.FFmpegAnalyzeDuration,
	}
}

// writeSummaries writes the optional metrics textfile and JSON report.
// Failures are logged; they do not change the exit code.
func writeSummaries(log *logging.Logger, cfg *config.Config, rec *metrics.Recorder, rep *report.Report) {
	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("Cannot write metrics: %v", err)
		} else {
			log.Info("Metrics written to %s", cfg.MetricsFile)
		}
	}
	if cfg.ReportFile != "" {
		if err := rep.WriteFile(cfg.ReportFile); err != nil {
			log.Warn("Cannot write report: %v", err)
		} else {
			log.Info("Report written to %s", cfg.ReportFile)
		}
	}
}
