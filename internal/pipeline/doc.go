// Package pipeline orchestrates file discovery, per-file processing, and
// batch summary reporting.
//
// Types:
//   - Layout (source/destination resolution and output mapping)
//   - Pipeline (per-file processing with injected Prober and Runner)
//   - RunStats (Total, Converted, Copied, Skipped, Failed, TotalInputBytes,
//     TotalOutputBytes; SpaceSaved method)
//
// Functions:
//   - (*Pipeline).Run(ctx) → (RunStats, error)
//     For each file: validate → resolve output path → skip-existing →
//     probe → plan → build → dry-run or execute → forced-subtitle sidecar →
//     update stats, report and metrics. Up to Config.Jobs files at a time.
//   - (*Pipeline).Analyze(ctx) → (AnalyzeResult, error)
//     Probe and plan every file, print a table, convert nothing.
//   - Walk(root, exts) → iter.Seq2[path, error]
//     Walk directory, filter by extension, exclude extras dirs and hidden
//     entries, lexical order. Discover collects it.
package pipeline
