package planner

import (
	"fmt"
	"strings"

	"github.com/backmassage/mp4ify/internal/probe"
)

// Action describes what happens to one stream.
type Action int

const (
	ActionCopy Action = iota
	ActionConvert
)

func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionConvert:
		return "convert"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// TargetCodec is the output codec of a converted stream.
type TargetCodec string

const (
	TargetNone TargetCodec = ""
	TargetAAC  TargetCodec = "aac"
	TargetAC3  TargetCodec = "ac3"
	TargetTX3G TargetCodec = "tx3g"
)

// StreamDecision is the resolved handling of one input stream. Target is
// TargetNone unless Action is ActionConvert. Channels is the output channel
// count for converted audio (already clamped to the codec cap); zero means
// "leave as is".
type StreamDecision struct {
	Index       int
	Kind        probe.Kind
	SourceCodec string
	Action      Action
	Target      TargetCodec
	Channels    int
	Language    string
}

// String renders the decision the way it appears in logs, e.g.
// "#1 audio flac -> aac".
func (d StreamDecision) String() string {
	if d.Action == ActionCopy {
		return fmt.Sprintf("#%d %s %s copy", d.Index, d.Kind, d.SourceCodec)
	}
	return fmt.Sprintf("#%d %s %s -> %s", d.Index, d.Kind, d.SourceCodec, d.Target)
}

// ConversionPlan holds one decision per input stream, in input order.
type ConversionPlan []StreamDecision

// NeedsConversion reports whether any stream is converted. A plan without
// conversions is a pure remux.
func (p ConversionPlan) NeedsConversion() bool {
	for _, d := range p {
		if d.Action == ActionConvert {
			return true
		}
	}
	return false
}

// Tally counts copied and converted streams of one kind.
type Tally struct {
	Copy    int
	Convert int
}

// Summary counts decisions per stream kind.
type Summary map[probe.Kind]Tally

// Summary tallies the plan per stream kind.
func (p ConversionPlan) Summary() Summary {
	s := make(Summary)
	for _, d := range p {
		t := s[d.Kind]
		if d.Action == ActionConvert {
			t.Convert++
		} else {
			t.Copy++
		}
		s[d.Kind] = t
	}
	return s
}

// String renders "video 1 copy, audio 1 copy 1 convert, subtitle 1 convert"
// with kinds in a fixed order.
func (s Summary) String() string {
	var parts []string
	for _, k := range []probe.Kind{probe.KindVideo, probe.KindAudio, probe.KindSubtitle} {
		t, ok := s[k]
		if !ok {
			continue
		}
		part := string(k)
		if t.Copy > 0 {
			part += fmt.Sprintf(" %d copy", t.Copy)
		}
		if t.Convert > 0 {
			part += fmt.Sprintf(" %d convert", t.Convert)
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return "no streams"
	}
	return strings.Join(parts, ", ")
}

// Policy carries the configurable parts of the rule set.
type Policy struct {
	PreferredAudio TargetCodec // aac or ac3.
	AACChannels    int         // Channel cap for AAC output.
	AC3Channels    int         // Channel cap for AC-3 output.
}

// DefaultPolicy converts audio to stereo AAC and caps AC-3 at 5.1.
func DefaultPolicy() Policy {
	return Policy{PreferredAudio: TargetAAC, AACChannels: 2, AC3Channels: 6}
}
