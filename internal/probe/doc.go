// Package probe inspects media files with ffprobe and turns the JSON output
// into typed stream descriptors. One ffprobe call is made per file.
//
// Types:
//   - Kind, StreamDescriptor, FormatInfo, ProbeResult
//
// Functions:
//   - (*Prober).Probe(ctx, path) → *ProbeResult
//     Runs ffprobe -print_format json -show_format -show_streams.
//   - ParseJSON(data) → *ProbeResult
//     Parses ffprobe output without running a binary.
package probe
