package planner

import (
	"errors"
	"fmt"

	"github.com/backmassage/mp4ify/internal/config"
	"github.com/backmassage/mp4ify/internal/probe"
)

// ErrUnsupportedStreamKind is matched by [UnsupportedStreamKindError].
var ErrUnsupportedStreamKind = errors.New("unsupported stream kind")

// UnsupportedStreamKindError reports a stream whose kind has no MP4 rule
// (data, attachment, or anything ffprobe reports that we do not know).
type UnsupportedStreamKindError struct {
	Index int
	Kind  probe.Kind
	Codec string
}

func (e *UnsupportedStreamKindError) Error() string {
	kind := string(e.Kind)
	if kind == "" {
		kind = "unknown"
	}
	if e.Codec == "" {
		return fmt.Sprintf("stream #%d: %s: %s", e.Index, ErrUnsupportedStreamKind, kind)
	}
	return fmt.Sprintf("stream #%d: %s: %s (%s)", e.Index, ErrUnsupportedStreamKind, kind, e.Codec)
}

func (e *UnsupportedStreamKindError) Unwrap() error { return ErrUnsupportedStreamKind }

// PolicyFromConfig builds the resolver policy from runtime configuration.
func PolicyFromConfig(cfg *config.Config) Policy {
	p := DefaultPolicy()
	if cfg.AudioCodec == config.AudioAC3 {
		p.PreferredAudio = TargetAC3
	}
	if cfg.AACChannels > 0 {
		p.AACChannels = cfg.AACChannels
	}
	if cfg.AC3Channels > 0 {
		p.AC3Channels = cfg.AC3Channels
	}
	return p
}

// Resolve produces one decision per stream, in input order.
//
//   - video: always copied.
//   - audio: copied when MP4 carries the codec natively, otherwise converted
//     to the policy's preferred audio codec.
//   - subtitle: copied when already an MP4 text track, otherwise converted
//     to tx3g.
//   - anything else fails the whole file with [UnsupportedStreamKindError].
func Resolve(streams []probe.StreamDescriptor, policy Policy) (ConversionPlan, error) {
	if policy.PreferredAudio == TargetNone {
		policy.PreferredAudio = TargetAAC
	}

	plan := make(ConversionPlan, 0, len(streams))
	for _, s := range streams {
		d := StreamDecision{
			Index:       s.Index,
			Kind:        s.Kind,
			SourceCodec: s.Codec,
			Action:      ActionCopy,
			Language:    s.Language,
		}

		switch s.Kind {
		case probe.KindVideo:
			// Copied unconditionally.
		case probe.KindAudio:
			resolveAudio(&d, s, policy)
		case probe.KindSubtitle:
			resolveSubtitle(&d, s)
		default:
			return nil, &UnsupportedStreamKindError{Index: s.Index, Kind: s.Kind, Codec: s.Codec}
		}
		plan = append(plan, d)
	}
	return plan, nil
}
