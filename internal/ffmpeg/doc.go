// Package ffmpeg turns a conversion plan into an ffmpeg command line and runs
// it.
//
// Types:
//   - Builder, Options, Invocation (builder.go)
//   - Executor, ExitError (executor.go)
//   - EncoderSet (encoders.go)
//
// Functions:
//   - (*Builder).Build(input, output, plan) → *Invocation
//     Shared skeleton (-probesize, -analyzeduration, -max_muxing_queue_size,
//     metadata/chapters) plus one -map/-c pair per planned stream.
//   - (*Builder).BuildForcedSubtitle(input, stream, output) → *Invocation
//     Sidecar .srt extraction for a forced subtitle track.
//   - (*Executor).Run(ctx, inv) → error
//     Run ffmpeg once, capture stderr, optional tee to a writer.
//   - Diagnose(stderr) → hint
//     Classifies known failure output into a short explanation.
package ffmpeg
