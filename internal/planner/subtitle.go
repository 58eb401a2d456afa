package planner

import "github.com/backmassage/mp4ify/internal/probe"

// mp4SubtitleCodecs are subtitle codecs already stored as MP4 timed text.
var mp4SubtitleCodecs = map[string]bool{
	"mov_text": true,
	"tx3g":     true,
}

// IsMP4Subtitle reports whether a subtitle codec is copied as-is.
func IsMP4Subtitle(codec string) bool { return mp4SubtitleCodecs[codec] }

func resolveSubtitle(d *StreamDecision, s probe.StreamDescriptor) {
	if mp4SubtitleCodecs[s.Codec] {
		return
	}
	d.Action = ActionConvert
	d.Target = TargetTX3G
}

// sidecarSubtitleCodecs are the text codecs ffmpeg can write to .srt.
var sidecarSubtitleCodecs = map[string]bool{
	"subrip":   true,
	"srt":      true,
	"ass":      true,
	"ssa":      true,
	"webvtt":   true,
	"mov_text": true,
	"tx3g":     true,
}

// ForcedSubtitle returns the first forced text subtitle stream in language
// lang, for extraction to a sidecar .srt. An empty lang matches any language.
func ForcedSubtitle(streams []probe.StreamDescriptor, lang string) (probe.StreamDescriptor, bool) {
	for _, s := range streams {
		if s.Kind != probe.KindSubtitle || !s.Forced || !sidecarSubtitleCodecs[s.Codec] {
			continue
		}
		if lang != "" && s.Language != lang {
			continue
		}
		return s, true
	}
	return probe.StreamDescriptor{}, false
}
