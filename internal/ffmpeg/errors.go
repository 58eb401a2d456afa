package ffmpeg

import "regexp"

// Pre-compiled regexes for classifying ffmpeg stderr output. Checked in
// order by [Diagnose]; the first match wins.
var diagnoses = []struct {
	re   *regexp.Regexp
	hint string
}{
	{
		regexp.MustCompile(`Subtitle encoding currently only possible from text to text or bitmap to bitmap`),
		"bitmap subtitles (PGS/VobSub) cannot be converted to MP4 timed text",
	},
	{
		regexp.MustCompile(`(?i)Unknown encoder|Encoder not found|Requested output format .* is not a suitable`),
		"this ffmpeg build lacks a required encoder; run `mp4ify check`",
	},
	{
		regexp.MustCompile(`Could not find tag for codec .* in stream|codec not currently supported in container`),
		"a copied stream's codec is not supported by the MP4 container",
	},
	{
		regexp.MustCompile(`Too many packets buffered for output stream`),
		"mux queue overflow; the input interleaves streams badly",
	},
	{
		regexp.MustCompile(`(?i)Non-monotonous DTS|non monotonically increasing dts|` +
			`DTS .*out of order|PTS .*out of order|` +
			`pts has no value|missing PTS|Timestamps are unset`),
		"the input has broken timestamps",
	},
	{
		regexp.MustCompile(`already exists\. Exiting`),
		"the output file already exists; use --force to overwrite",
	},
	{
		regexp.MustCompile(`No space left on device`),
		"the destination disk is full",
	},
	{
		regexp.MustCompile(`Permission denied`),
		"permission denied reading the input or writing the output",
	},
}

// Diagnose returns a short explanation for a known ffmpeg failure, or ""
// when stderr matches nothing.
func Diagnose(stderr string) string {
	for _, d := range diagnoses {
		if d.re.MatchString(stderr) {
			return d.hint
		}
	}
	return ""
}
