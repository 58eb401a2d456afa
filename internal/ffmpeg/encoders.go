package ffmpeg

import (
	"bufio"
	"sort"
	"strings"
)

// EncoderSet is the set of encoder names reported by `ffmpeg -encoders`.
type EncoderSet map[string]bool

// Has reports whether name is available.
func (s EncoderSet) Has(name string) bool { return s[name] }

// Names returns the encoder names in sorted order.
func (s EncoderSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParseEncoders parses the output of `ffmpeg -hide_banner -encoders`. The
// legend above the "------" separator is skipped; each following line is
// "<flags> <name> <description>".
func ParseEncoders(output string) EncoderSet {
	set := make(EncoderSet)
	inList := false
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !inList {
			if strings.HasPrefix(line, "------") {
				inList = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		set[fields[1]] = true
	}
	return set
}
