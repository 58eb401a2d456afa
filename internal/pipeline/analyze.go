package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/mp4ify/internal/display"
	"github.com/backmassage/mp4ify/internal/planner"
	"github.com/backmassage/mp4ify/internal/probe"
	"github.com/backmassage/mp4ify/internal/term"
)

// Plan labels in the analysis table.
const (
	planRemux       = "remux"
	planUnsupported = "unsupported"
)

// fileRow holds the probed per-file data for the analysis table.
type fileRow struct {
	Name      string
	Kbps      int64
	Video     string
	Audio     string
	Subtitles string
	Plan      string
}

// AnalyzeResult counts the plans found by [Pipeline.Analyze].
type AnalyzeResult struct {
	Files       int
	Remux       int
	Convert     int
	Unsupported int
	ProbeFailed int
}

// Analyze probes every source file and prints a table of codecs and the
// conversion plan each file would get, flagging container bitrate
// outliers. Nothing is written to disk.
func (p *Pipeline) Analyze(ctx context.Context) (AnalyzeResult, error) {
	var res AnalyzeResult
	layout, err := NewLayout(p.cfg)
	if err != nil {
		return res, err
	}
	files := []string{layout.Source}
	if layout.IsDir {
		if files, err = Discover(layout.Source, p.cfg.Extensions); err != nil {
			return res, fmt.Errorf("file discovery: %w", err)
		}
	}
	if len(files) == 0 {
		p.log.Warn("No media files found in %s", layout.Source)
		return res, nil
	}

	total := len(files)
	res.Files = total
	p.log.Info("Analyzing %d files in %s", total, layout.Source)

	f, _ := p.out.(*os.File)
	isTTY := term.IsTerminal(f)
	var rows []fileRow
	var kbpsVals []float64

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			if isTTY {
				clearProgress(p.out)
			}
			p.log.Warn("Interrupted")
			return res, err
		}

		printProgress(p.out, isTTY, i+1, total, res.ProbeFailed, filepath.Base(path))

		pr, err := p.prober.Probe(ctx, path)
		if err != nil {
			res.ProbeFailed++
			if isTTY {
				clearProgress(p.out)
			}
			p.log.Warn("Skip (probe failed): %s", filepath.Base(path))
			continue
		}

		row := fileRow{
			Name:      filepath.Base(path),
			Kbps:      pr.Format.BitRate / 1000,
			Video:     pr.Codecs(probe.KindVideo),
			Audio:     pr.Codecs(probe.KindAudio),
			Subtitles: pr.Codecs(probe.KindSubtitle),
		}
		plan, err := planner.Resolve(pr.Streams, p.policy)
		switch {
		case err != nil:
			res.Unsupported++
			row.Plan = unsupportedLabel(err)
		case plan.NeedsConversion():
			res.Convert++
			row.Plan = planLabel(plan)
		default:
			res.Remux++
			row.Plan = planRemux
		}

		rows = append(rows, row)
		if row.Kbps > 0 {
			kbpsVals = append(kbpsVals, float64(row.Kbps))
		}
	}

	if isTTY {
		clearProgress(p.out)
	}

	if len(rows) == 0 {
		p.log.Warn("No files could be probed")
		return res, nil
	}

	stats := computeStats(kbpsVals)
	printAnalysisTable(p.out, rows, stats)
	p.logAnalysisSummary(res, rows, stats)
	return res, nil
}

// planLabel lists the converted streams, e.g. "audio:flac→aac subtitle:ass→tx3g".
func planLabel(plan planner.ConversionPlan) string {
	var parts []string
	for _, d := range plan {
		if d.Action == planner.ActionConvert {
			parts = append(parts, fmt.Sprintf("%s:%s→%s", d.Kind, d.SourceCodec, d.Target))
		}
	}
	return strings.Join(parts, " ")
}

func unsupportedLabel(err error) string {
	var uerr *planner.UnsupportedStreamKindError
	if errors.As(err, &uerr) {
		return fmt.Sprintf("%s (%s #%d)", planUnsupported, uerr.Kind, uerr.Index)
	}
	return planUnsupported
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierLo float64 // Q1 - 1.5*IQR
	outlierHi float64 // Q3 + 1.5*IQR
	extremeLo float64 // Q1 - 3.0*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3.0*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a value.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || v <= 0 {
		return ""
	}
	if v < b.extremeLo || v > b.extremeHi {
		return "extreme"
	}
	if v < b.outlierLo || v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func printAnalysisTable(w io.Writer, rows []fileRow, stats iqrBounds) {
	nameW := len("File")
	kbW := len("Bitrate")
	vW := len("Video")
	aW := len("Audio")
	sW := len("Subtitles")

	for _, r := range rows {
		nameW = max(nameW, len(r.Name))
		kbW = max(kbW, len(bitrateLabel(r.Kbps)))
		vW = max(vW, len(r.Video))
		aW = max(aW, len(r.Audio))
		sW = max(sW, len(r.Subtitles))
	}
	nameW = min(nameW, 50)

	header := fmt.Sprintf("  %-*s  %-*s  %-*s  %-*s  %-*s  %s",
		nameW, "File",
		kbW, "Bitrate",
		vW, "Video",
		aW, "Audio",
		sW, "Subtitles",
		"Plan",
	)
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2))

	for _, r := range rows {
		name := r.Name
		if len(name) > nameW {
			name = name[:nameW-1] + "…"
		}

		class := stats.classify(float64(r.Kbps))
		// Pad the plain text first, then wrap in ANSI color: %-*s would
		// count escape bytes as visible width.
		kbCell := colorPad(bitrateLabel(r.Kbps), kbW, class)

		fmt.Fprintf(w, "  %-*s  %s  %-*s  %-*s  %-*s  %s %s\n",
			nameW, name,
			kbCell,
			vW, r.Video,
			aW, r.Audio,
			sW, r.Subtitles,
			colorPlan(r.Plan),
			formatFlag(class),
		)
	}
	fmt.Fprintln(w)
}

func (p *Pipeline) logAnalysisSummary(res AnalyzeResult, rows []fileRow, stats iqrBounds) {
	var outliers, extremes int
	for _, r := range rows {
		switch stats.classify(float64(r.Kbps)) {
		case "extreme":
			extremes++
		case "outlier":
			outliers++
		}
	}

	p.log.Info("Analyzed %d files: %d remux, %d convert, %d unsupported",
		len(rows), res.Remux, res.Convert, res.Unsupported)
	if res.ProbeFailed > 0 {
		p.log.Warn("  %d file(s) could not be probed", res.ProbeFailed)
	}
	if stats.valid {
		p.log.Info("  Bitrate IQR: %.0f to %.0f kbps (outlier < %.0f or > %.0f)",
			stats.q1, stats.q3, stats.outlierLo, stats.outlierHi)
	}
	if outliers > 0 {
		p.log.Warn("  %d bitrate outlier(s) flagged [*]", outliers)
	}
	if extremes > 0 {
		p.log.Error("  %d extreme bitrate outlier(s) flagged [!]", extremes)
	}
}

func bitrateLabel(kbps int64) string {
	if kbps <= 0 {
		return "n/a"
	}
	return display.FormatBitrateLabel(kbps)
}

func colorPlan(plan string) string {
	switch {
	case plan == planRemux:
		return term.Green + plan + term.NC
	case strings.HasPrefix(plan, planUnsupported):
		return term.Red + plan + term.NC
	default:
		return term.Yellow + plan + term.NC
	}
}

func formatFlag(flag string) string {
	switch flag {
	case "extreme":
		return term.Red + "[!]" + term.NC
	case "outlier":
		return term.Yellow + "[*]" + term.NC
	default:
		return ""
	}
}

// colorPad pads a plain string to width, then wraps it in ANSI color.
func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch class {
	case "extreme":
		return term.Red + padded + term.NC
	case "outlier":
		return term.Yellow + padded + term.NC
	default:
		return padded
	}
}

// printProgress shows a live probe counter. On a TTY it writes an
// inline \r-overwritten line; otherwise it is a no-op.
func printProgress(w io.Writer, isTTY bool, current, total, skipped int, name string) {
	if !isTTY {
		return
	}
	pct := current * 100 / total
	status := fmt.Sprintf("  Probing [%d/%d] %d%% ", current, total, pct)
	if skipped > 0 {
		status += fmt.Sprintf("(%d skipped) ", skipped)
	}

	const maxName = 40
	if len(name) > maxName {
		name = name[:maxName-1] + "…"
	}
	status += name

	// Pad to 80 chars to overwrite previous longer lines.
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(w, "\r%s", status)
}

func clearProgress(w io.Writer) {
	fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", 80))
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
