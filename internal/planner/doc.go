// Package planner decides, per stream, whether an input stream can be copied
// into an MP4 container as-is or must be converted, and to what.
//
// Implemented:
//   - Action, TargetCodec, StreamDecision, ConversionPlan, Policy (types.go)
//   - Resolve: the per-kind rule set and its errors (planner.go)
//   - Audio and subtitle compatibility sets (audio.go, subtitle.go)
//   - ForcedSubtitle: sidecar subtitle selection (subtitle.go)
//   - Dispositions: default-track flags for the output (disposition.go)
//
// Everything here is pure: no I/O, no clocks, no shared state.
package planner
