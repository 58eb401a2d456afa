package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/backmassage/mp4ify/internal/config"
	"github.com/backmassage/mp4ify/internal/display"
	"github.com/backmassage/mp4ify/internal/ffmpeg"
	"github.com/backmassage/mp4ify/internal/logging"
	"github.com/backmassage/mp4ify/internal/metrics"
	"github.com/backmassage/mp4ify/internal/naming"
	"github.com/backmassage/mp4ify/internal/planner"
	"github.com/backmassage/mp4ify/internal/probe"
	"github.com/backmassage/mp4ify/internal/report"
)

const minFileSize = 1000

// Prober inspects one input file. *probe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string) (*probe.ProbeResult, error)
}

// Runner executes one ffmpeg invocation. *ffmpeg.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, inv *ffmpeg.Invocation) error
}

// Pipeline processes every source file of a run. Build one with [New].
type Pipeline struct {
	cfg     *config.Config
	log     *logging.Logger
	prober  Prober
	runner  Runner
	builder *ffmpeg.Builder
	policy  planner.Policy
	metrics *metrics.Recorder
	report  *report.Report
	out     io.Writer

	resolver *naming.CollisionResolver

	mu    sync.Mutex
	stats RunStats
	outMu sync.Mutex // keeps one file's dry-run commands together
}

// Option configures optional Pipeline collaborators.
type Option func(*Pipeline)

// WithMetrics records per-file and per-stream metrics on m.
func WithMetrics(m *metrics.Recorder) Option { return func(p *Pipeline) { p.metrics = m } }

// WithReport adds a report entry for every file.
func WithReport(r *report.Report) Option { return func(p *Pipeline) { p.report = r } }

// WithOutput sets where dry-run commands and the analyze table are printed.
// Defaults to stdout.
func WithOutput(w io.Writer) Option { return func(p *Pipeline) { p.out = w } }

// New returns a pipeline for cfg.
func New(cfg *config.Config, log *logging.Logger, prober Prober, runner Runner, builder *ffmpeg.Builder, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		log:      log,
		prober:   prober,
		runner:   runner,
		builder:  builder,
		policy:   planner.PolicyFromConfig(cfg),
		out:      os.Stdout,
		resolver: naming.NewCollisionResolver(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// outcome is the final state of one file.
type outcome struct {
	status   string
	output   string
	reason   string
	hint     string
	sidecar  string
	plan     planner.ConversionPlan
	inBytes  int64
	outBytes int64
	elapsed  time.Duration
}

type job struct {
	n    int
	path string
}

// Run discovers the source files and processes them with up to cfg.Jobs
// workers. Per-file failures are counted, never returned; the error is
// non-nil only when the run could not start or was canceled.
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	layout, err := NewLayout(p.cfg)
	if err != nil {
		return RunStats{}, err
	}

	var files []string
	for path, err := range layout.Sources() {
		if err != nil {
			p.log.Error("Discovery: %v", err)
			p.record("", outcome{status: report.StatusFailed, reason: err.Error()})
			continue
		}
		files = append(files, path)
	}

	p.mu.Lock()
	p.stats.Total = len(files) + p.stats.Failed
	p.mu.Unlock()

	if len(files) == 0 {
		p.log.Warn("No media files found in %s", layout.Source)
		return p.Stats(), ctx.Err()
	}
	p.logBatchHeader(layout, len(files))

	jobs := max(1, min(p.cfg.Jobs, len(files)))
	work := make(chan job)
	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range work {
				res := p.processFile(ctx, layout, j.n, len(files), j.path)
				p.record(j.path, res)
			}
		}()
	}

feed:
	for i, path := range files {
		select {
		case work <- job{n: i + 1, path: path}:
		case <-ctx.Done():
			p.log.Warn("Interrupted")
			break feed
		}
	}
	close(work)
	wg.Wait()

	stats := p.Stats()
	p.logSummary(&stats)
	return stats, ctx.Err()
}

// Stats returns a snapshot of the counters.
func (p *Pipeline) Stats() RunStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// processFile handles one media file: validate → output path → probe →
// plan → build → execute → sidecar.
func (p *Pipeline) processFile(ctx context.Context, layout *Layout, n, total int, path string) outcome {
	basename := filepath.Base(path)
	log := p.log.With(logging.Fields{"file": basename})
	log.Info("[%d/%d] %s", n, total, basename)

	if ctx.Err() != nil {
		return failed(log, outcome{}, "interrupted")
	}

	// --- Validate ---
	fi, err := os.Stat(path)
	if err != nil {
		return failed(log, outcome{}, "file not found: %v", err)
	}
	if fi.Size() < minFileSize {
		return failed(log, outcome{}, "file too small (possibly corrupt)")
	}
	res := outcome{inBytes: fi.Size()}

	// --- Resolve output path ---
	output, err := layout.OutputFor(path)
	if err != nil {
		return failed(log, res, "%v", err)
	}
	output = p.resolver.Resolve(path, output)
	if err := naming.CheckDistinct(path, output); err != nil {
		return failed(log, res, "%v", err)
	}
	res.output = output

	// --- Skip-existing check ---
	if p.cfg.SkipExisting {
		if _, err := os.Stat(output); err == nil {
			log.Warn("Skip (exists): %s", output)
			res.status = report.StatusSkipped
			res.reason = "output exists"
			return res
		}
	}

	// --- Probe and plan ---
	pr, err := p.prober.Probe(ctx, path)
	if err != nil {
		return failed(log, res, "cannot probe file: %v", err)
	}
	plan, err := planner.Resolve(pr.Streams, p.policy)
	if err != nil {
		return failed(log, res, "%v", err)
	}
	res.plan = plan
	for _, d := range plan {
		log.Debug("  %s", d)
	}

	inv, err := p.builder.Build(path, output, plan)
	if err != nil {
		return failed(log, res, "%v", err)
	}

	verb, status := "Remux", report.StatusCopied
	if plan.NeedsConversion() {
		verb, status = "Convert", report.StatusConverted
	}
	log.Info("  %s: %s", verb, plan.Summary())
	log.Info("  -> %s", output)

	sub := p.forcedSubtitle(log, path, output, pr)

	// --- Dry-run ---
	if p.cfg.DryRun {
		p.outMu.Lock()
		fmt.Fprintln(p.out, inv.String())
		if sub != nil {
			fmt.Fprintln(p.out, sub.String())
		}
		p.outMu.Unlock()
		log.Success("[DRY] Would %s", strings.ToLower(verb))
		res.status = status
		return res
	}

	// --- Execute ---
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return failed(log, res, "cannot create output directory: %v", err)
	}

	start := time.Now()
	err = p.runner.Run(ctx, inv)
	res.elapsed = time.Since(start)
	if err != nil {
		os.Remove(output)
		var exitErr *ffmpeg.ExitError
		if errors.As(err, &exitErr) {
			res.hint = exitErr.Hint
			logStderr(log, exitErr.Stderr)
		}
		return failed(log, res, "%s failed: %v", verb, err)
	}

	if outInfo, err := os.Stat(output); err == nil {
		res.outBytes = outInfo.Size()
	}
	ratio := int64(100)
	if res.inBytes > 0 {
		ratio = res.outBytes * 100 / res.inBytes
	}
	log.Success("%sed in %s (%s, %d%% of original)", verb,
		display.FormatDuration(res.elapsed),
		display.FormatBytesWithSign(res.outBytes-res.inBytes), ratio)

	// --- Forced subtitle sidecar ---
	if sub != nil {
		if err := p.runner.Run(ctx, sub); err != nil {
			os.Remove(sub.Output)
			log.Warn("Forced subtitle extraction failed: %v", err)
		} else {
			res.sidecar = sub.Output
			log.Success("  Forced subtitles -> %s", filepath.Base(sub.Output))
		}
	}

	res.status = status
	return res
}

// forcedSubtitle returns the sidecar extraction for pr's forced subtitle
// track, or nil when extraction is disabled, there is no such track, or the
// sidecar exists and existing outputs are kept.
func (p *Pipeline) forcedSubtitle(log *logging.Logger, input, output string, pr *probe.ProbeResult) *ffmpeg.Invocation {
	if !p.cfg.ForcedSubs {
		return nil
	}
	s, ok := planner.ForcedSubtitle(pr.Streams, p.cfg.ForcedSubsLanguage)
	if !ok {
		return nil
	}
	sidecar := naming.SidecarPath(output, p.cfg.ForcedSubsLanguage)
	if p.cfg.SkipExisting {
		if _, err := os.Stat(sidecar); err == nil {
			log.Debug("Skip forced subtitles (exists): %s", sidecar)
			return nil
		}
	}
	return p.builder.BuildForcedSubtitle(input, s, sidecar)
}

func failed(log *logging.Logger, res outcome, format string, args ...interface{}) outcome {
	res.status = report.StatusFailed
	res.reason = fmt.Sprintf(format, args...)
	log.Error("%s", res.reason)
	if res.hint != "" {
		log.Error("  Hint: %s", res.hint)
	}
	return res
}

// record folds one outcome into the stats, metrics and report.
func (p *Pipeline) record(path string, res outcome) {
	done := (res.status == report.StatusConverted || res.status == report.StatusCopied) && !p.cfg.DryRun
	if !done {
		res.inBytes, res.outBytes = 0, 0
	}

	p.mu.Lock()
	switch res.status {
	case report.StatusConverted:
		p.stats.Converted++
	case report.StatusCopied:
		p.stats.Copied++
	case report.StatusSkipped:
		p.stats.Skipped++
	default:
		p.stats.Failed++
	}
	p.stats.TotalInputBytes += res.inBytes
	p.stats.TotalOutputBytes += res.outBytes
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.ObservePlan(res.plan)
		p.metrics.ObserveFile(res.status, res.elapsed, res.inBytes, res.outBytes)
	}
	if p.report != nil && path != "" {
		p.report.Add(report.FileEntry{
			Input:       path,
			Output:      res.output,
			Status:      res.status,
			Reason:      res.reason,
			Hint:        res.hint,
			Sidecar:     res.sidecar,
			Decisions:   res.plan,
			InputBytes:  res.inBytes,
			OutputBytes: res.outBytes,
			Elapsed:     res.elapsed,
		})
	}
}

func logStderr(log *logging.Logger, stderr string) {
	if stderr == "" {
		return
	}
	log.Error("Last ffmpeg output:")
	for _, l := range strings.Split(strings.TrimSpace(stderr), "\n") {
		log.Error("  %s", l)
	}
}

// --- Logging helpers ---

func (p *Pipeline) logBatchHeader(layout *Layout, files int) {
	if layout.IsDir {
		p.log.Info("Found %d files in %s", files, layout.Source)
	}

	bitrate := p.cfg.AACBitrate
	if p.policy.PreferredAudio == planner.TargetAC3 {
		bitrate = p.cfg.AC3Bitrate
	}
	p.log.Info("Audio: copy AAC/AC-3, convert others to %s at %s", p.policy.PreferredAudio, bitrate)
	p.log.Info("Subtitles: copy mov_text/tx3g, convert others to tx3g")
	if p.cfg.ForcedSubs {
		p.log.Info("Forced subtitles: extract %q track to .forced.srt", p.cfg.ForcedSubsLanguage)
	}
	if p.cfg.Faststart {
		p.log.Info("Compatibility: faststart, hvc1 tag for copied HEVC")
	}
	if p.cfg.Jobs > 1 {
		p.log.Info("Jobs: %d files at a time", p.cfg.Jobs)
	}
	if p.cfg.DryRun {
		p.log.Info("Dry run: printing ffmpeg commands only")
	}
}

func (p *Pipeline) logSummary(stats *RunStats) {
	p.log.Info("==============================")
	p.log.Info("Done: %d converted, %d copied, %d skipped, %d failed",
		stats.Converted, stats.Copied, stats.Skipped, stats.Failed)
	p.log.Info("  Total files processed: %d of %d", stats.Processed(), stats.Total)

	if p.cfg.DryRun {
		p.log.Info("  Total space saved: n/a (dry run)")
		return
	}

	saved := stats.SpaceSaved()
	if saved >= 0 {
		p.log.Success("  Total space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(stats.TotalInputBytes),
			display.FormatBytes(stats.TotalOutputBytes))
	} else {
		p.log.Warn("  Total space saved: -%s (overall output is larger)",
			display.FormatBytes(-saved))
	}
}
