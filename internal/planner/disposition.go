package planner

import (
	"fmt"

	"github.com/backmassage/mp4ify/internal/probe"
)

// Dispositions produces the ffmpeg -disposition flags for the output: the
// first video stream and the first audio stream become default, later audio
// streams have default cleared. Output stream j is plan[j], so the flags use
// absolute output indices.
func Dispositions(plan ConversionPlan) []string {
	var opts []string
	seenVideo, seenAudio := false, false
	for j, d := range plan {
		switch d.Kind {
		case probe.KindVideo:
			if !seenVideo {
				opts = append(opts, fmt.Sprintf("-disposition:%d", j), "default")
				seenVideo = true
			}
		case probe.KindAudio:
			if !seenAudio {
				opts = append(opts, fmt.Sprintf("-disposition:%d", j), "default")
				seenAudio = true
			} else {
				opts = append(opts, fmt.Sprintf("-disposition:%d", j), "0")
			}
		}
	}
	return opts
}
