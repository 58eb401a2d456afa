package probe

import "strings"

// Kind is the elementary stream category reported by ffprobe's codec_type.
// Values other than the named constants are kept verbatim so the planner can
// reject them by name.
type Kind string

const (
	KindVideo      Kind = "video"
	KindAudio      Kind = "audio"
	KindSubtitle   Kind = "subtitle"
	KindData       Kind = "data"
	KindAttachment Kind = "attachment"
)

// StreamDescriptor describes one elementary stream of an input file.
// Codec is always lowercase.
type StreamDescriptor struct {
	Index    int
	Kind     Kind
	Codec    string
	Profile  string
	Channels int
	Language string
	Title    string
	Default  bool
	Forced   bool
}

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64
	Size       int64
	BitRate    int64
}

// ProbeResult is the parsed output of a single ffprobe JSON call. Streams
// are in source order.
type ProbeResult struct {
	Format  FormatInfo
	Streams []StreamDescriptor
}

// Count returns the number of streams of the given kind.
func (p *ProbeResult) Count(kind Kind) int {
	n := 0
	for _, s := range p.Streams {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Codecs returns the codec names of streams of the given kind, in order,
// joined with commas. Returns "-" when there are none.
func (p *ProbeResult) Codecs(kind Kind) string {
	var names []string
	for _, s := range p.Streams {
		if s.Kind == kind {
			names = append(names, s.Codec)
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
