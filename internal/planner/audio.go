package planner

import "github.com/backmassage/mp4ify/internal/probe"

// mp4AudioCodecs are audio codecs copied into MP4 without conversion.
var mp4AudioCodecs = map[string]bool{
	"aac": true,
	"ac3": true,
}

// IsMP4Audio reports whether an audio codec is copied as-is.
func IsMP4Audio(codec string) bool { return mp4AudioCodecs[codec] }

func resolveAudio(d *StreamDecision, s probe.StreamDescriptor, policy Policy) {
	if mp4AudioCodecs[s.Codec] {
		return
	}
	d.Action = ActionConvert
	d.Target = policy.PreferredAudio

	limit := policy.AACChannels
	if d.Target == TargetAC3 {
		limit = policy.AC3Channels
	}
	d.Channels = clampChannels(s.Channels, limit)
}

// clampChannels caps source at max. Unknown source counts (0) stay 0 so the
// encoder keeps its own default; a zero max means no cap.
func clampChannels(source, max int) int {
	if source < 1 {
		return 0
	}
	if max > 0 && source > max {
		return max
	}
	return source
}
