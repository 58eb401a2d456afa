// Package naming maps input media files to output paths.
//
// Functions:
//   - SingleOutput(input, dest) → path
//     No destination: <dir>/<stem>.mp4 beside the input.
//     Existing directory (or trailing separator): <dest>/<stem>.mp4.
//     Anything else: dest is the output file.
//   - MirrorOutput(input, sourceRoot, destRoot) → path
//     Directory mode: the input's relative path under destRoot, as .mp4.
//   - SidecarPath(output, lang) → <stem>.<lang>.forced.srt
//   - (*CollisionResolver).Resolve(input, requested) → path
//     In-run duplicate path resolver with owner map and counter.
package naming
