// Package report builds the JSON run report written by --report: a run id,
// the per-file outcome with its stream decisions, and a summary.
package report

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/backmassage/mp4ify/internal/planner"
)

// File statuses.
const (
	StatusConverted = "converted"
	StatusCopied    = "copied"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// FileEntry is one processed input.
type FileEntry struct {
	Input       string
	Output      string
	Status      string
	Reason      string // Skip reason or error text.
	Hint        string // ffmpeg diagnosis, if any.
	Sidecar     string // Forced-subtitle sidecar, if written.
	Decisions   planner.ConversionPlan
	InputBytes  int64
	OutputBytes int64
	Elapsed     time.Duration
}

// Totals is the run summary.
type Totals struct {
	Total       int
	Converted   int
	Copied      int
	Skipped     int
	Failed      int
	InputBytes  int64
	OutputBytes int64
}

// Report accumulates the run document. All methods are goroutine-safe.
type Report struct {
	mu    sync.Mutex
	doc   string
	runID string
}

// New starts a report for a run over source.
func New(source, destination string, dryRun bool, started time.Time) *Report {
	r := &Report{runID: uuid.NewString(), doc: `{"files":[]}`}
	r.set("run_id", r.runID)
	r.set("source", source)
	if destination != "" {
		r.set("destination", destination)
	}
	r.set("dry_run", dryRun)
	r.set("started", started.UTC().Format(time.RFC3339))
	return r
}

// RunID returns the run's unique id.
func (r *Report) RunID() string { return r.runID }

// Add appends a file entry.
func (r *Report) Add(e FileEntry) {
	entry := `{}`
	entry, _ = sjson.Set(entry, "input", e.Input)
	if e.Output != "" {
		entry, _ = sjson.Set(entry, "output", e.Output)
	}
	entry, _ = sjson.Set(entry, "status", e.Status)
	if e.Reason != "" {
		entry, _ = sjson.Set(entry, "reason", e.Reason)
	}
	if e.Hint != "" {
		entry, _ = sjson.Set(entry, "hint", e.Hint)
	}
	if e.Sidecar != "" {
		entry, _ = sjson.Set(entry, "sidecar", e.Sidecar)
	}
	if e.InputBytes > 0 {
		entry, _ = sjson.Set(entry, "input_bytes", e.InputBytes)
	}
	if e.OutputBytes > 0 {
		entry, _ = sjson.Set(entry, "output_bytes", e.OutputBytes)
	}
	if e.Elapsed > 0 {
		entry, _ = sjson.Set(entry, "elapsed_seconds", e.Elapsed.Seconds())
	}
	if len(e.Decisions) > 0 {
		streams := make([]string, len(e.Decisions))
		for i, d := range e.Decisions {
			streams[i] = decisionJSON(d)
		}
		entry, _ = sjson.SetRaw(entry, "streams", "["+strings.Join(streams, ",")+"]")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc, _ = sjson.SetRaw(r.doc, "files.-1", entry)
}

func decisionJSON(d planner.StreamDecision) string {
	s := `{}`
	s, _ = sjson.Set(s, "index", d.Index)
	s, _ = sjson.Set(s, "kind", string(d.Kind))
	s, _ = sjson.Set(s, "codec", d.SourceCodec)
	s, _ = sjson.Set(s, "action", d.Action.String())
	if d.Action == planner.ActionConvert {
		s, _ = sjson.Set(s, "target", string(d.Target))
	}
	if d.Channels > 0 {
		s, _ = sjson.Set(s, "channels", d.Channels)
	}
	return s
}

// Finish records the summary and end time.
func (r *Report) Finish(t Totals, finished time.Time) {
	r.set("finished", finished.UTC().Format(time.RFC3339))
	r.set("summary.total", t.Total)
	r.set("summary.converted", t.Converted)
	r.set("summary.copied", t.Copied)
	r.set("summary.skipped", t.Skipped)
	r.set("summary.failed", t.Failed)
	r.set("summary.input_bytes", t.InputBytes)
	r.set("summary.output_bytes", t.OutputBytes)
	r.set("summary.space_saved_bytes", t.InputBytes-t.OutputBytes)
}

// JSON returns the indented report document.
func (r *Report) JSON() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return pretty.Pretty([]byte(r.doc))
}

// WriteFile writes the report to path, creating the parent directory.
func (r *Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, r.JSON(), 0o644)
}

func (r *Report) set(path string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc, _ = sjson.Set(r.doc, path, value)
}
