package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNoStreams is returned when ffprobe output lacks a streams array.
var ErrNoStreams = errors.New("ffprobe output has no streams")

// Prober runs ffprobe. FFprobePath defaults to "ffprobe" on $PATH.
type Prober struct {
	FFprobePath string
	Probesize   string
	Analyze     string
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed result.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	bin := p.FFprobePath
	if bin == "" {
		bin = "ffprobe"
	}
	args := []string{"-v", "quiet"}
	if p.Probesize != "" {
		args = append(args, "-probesize", p.Probesize)
	}
	if p.Analyze != "" {
		args = append(args, "-analyzeduration", p.Analyze)
	}
	args = append(args,
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffprobe %q: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	res, err := ParseJSON(out)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return res, nil
}

// ParseJSON converts raw ffprobe JSON output into a ProbeResult.
func ParseJSON(data []byte) (*ProbeResult, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parse ffprobe JSON: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	streams := root.Get("streams")
	if !streams.IsArray() {
		return nil, ErrNoStreams
	}

	pr := &ProbeResult{Format: parseFormat(root.Get("format"))}
	streams.ForEach(func(_, s gjson.Result) bool {
		pr.Streams = append(pr.Streams, parseStream(s))
		return true
	})
	return pr, nil
}

// ffprobe encodes most numbers in the format section as strings; gjson's
// Int/Float accessors handle both forms.
func parseFormat(f gjson.Result) FormatInfo {
	return FormatInfo{
		Filename:   f.Get("filename").String(),
		FormatName: f.Get("format_name").String(),
		Duration:   f.Get("duration").Float(),
		Size:       f.Get("size").Int(),
		BitRate:    f.Get("bit_rate").Int(),
	}
}

func parseStream(s gjson.Result) StreamDescriptor {
	return StreamDescriptor{
		Index:    int(s.Get("index").Int()),
		Kind:     Kind(strings.ToLower(s.Get("codec_type").String())),
		Codec:    strings.ToLower(s.Get("codec_name").String()),
		Profile:  s.Get("profile").String(),
		Channels: int(s.Get("channels").Int()),
		Language: strings.ToLower(s.Get("tags.language").String()),
		Title:    s.Get("tags.title").String(),
		Default:  s.Get("disposition.default").Int() == 1,
		Forced:   s.Get("disposition.forced").Int() == 1,
	}
}
