package probe

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"testing"
)

// Matroska file with:
//   - 1 HEVC Main 10 video stream
//   - 1 FLAC 5.1 audio stream (Japanese, default)
//   - 1 AC-3 stereo audio stream (English)
//   - 1 ASS subtitle stream (English, forced)
//   - 1 TTF attachment
const sampleMKV = `{
  "streams": [
    {
      "index": 0,
      "codec_name": "hevc",
      "codec_type": "video",
      "profile": "Main 10",
      "width": 1920,
      "height": 1080,
      "disposition": { "default": 1, "forced": 0 },
      "tags": {}
    },
    {
      "index": 1,
      "codec_name": "flac",
      "codec_type": "audio",
      "channels": 6,
      "disposition": { "default": 1, "forced": 0 },
      "tags": { "language": "jpn" }
    },
    {
      "index": 2,
      "codec_name": "ac3",
      "codec_type": "audio",
      "channels": 2,
      "disposition": { "default": 0, "forced": 0 },
      "tags": { "language": "ENG", "title": "Commentary" }
    },
    {
      "index": 3,
      "codec_name": "ass",
      "codec_type": "subtitle",
      "disposition": { "default": 0, "forced": 1 },
      "tags": { "language": "eng", "title": "Signs" }
    },
    {
      "index": 4,
      "codec_name": "ttf",
      "codec_type": "attachment",
      "tags": { "filename": "font.ttf" }
    }
  ],
  "format": {
    "filename": "/media/test/Movie.mkv",
    "nb_streams": 5,
    "format_name": "matroska,webm",
    "duration": "1437.123000",
    "size": "1234567890",
    "bit_rate": "6873456"
  }
}`

// Minimal MP4 with a single stream and an upper-case codec name.
const sampleMinimal = `{
  "streams": [
    { "index": 0, "codec_name": "H264", "codec_type": "video" }
  ],
  "format": {
    "filename": "minimal.mp4",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "duration": "10.000",
    "size": "500000",
    "bit_rate": "400000"
  }
}`

func TestParseJSON_MKV(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleMKV))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}

	if pr.Format.Filename != "/media/test/Movie.mkv" {
		t.Errorf("filename: got %q", pr.Format.Filename)
	}
	if pr.Format.FormatName != "matroska,webm" {
		t.Errorf("format name: got %q", pr.Format.FormatName)
	}
	if pr.Format.Duration != 1437.123 {
		t.Errorf("duration: got %f, want 1437.123", pr.Format.Duration)
	}
	if pr.Format.Size != 1234567890 {
		t.Errorf("size: got %d", pr.Format.Size)
	}
	if pr.Format.BitRate != 6873456 {
		t.Errorf("bitrate: got %d", pr.Format.BitRate)
	}

	if len(pr.Streams) != 5 {
		t.Fatalf("streams: got %d, want 5", len(pr.Streams))
	}
	for i, s := range pr.Streams {
		if s.Index != i {
			t.Errorf("stream %d: index %d, source order not kept", i, s.Index)
		}
	}

	v := pr.Streams[0]
	if v.Kind != KindVideo || v.Codec != "hevc" || v.Profile != "Main 10" || !v.Default {
		t.Errorf("video: %+v", v)
	}

	a := pr.Streams[1]
	if a.Kind != KindAudio || a.Codec != "flac" || a.Channels != 6 || a.Language != "jpn" || !a.Default {
		t.Errorf("audio 1: %+v", a)
	}

	a2 := pr.Streams[2]
	if a2.Language != "eng" {
		t.Errorf("language should be lowercased: got %q", a2.Language)
	}
	if a2.Title != "Commentary" || a2.Default {
		t.Errorf("audio 2: %+v", a2)
	}

	s := pr.Streams[3]
	if s.Kind != KindSubtitle || s.Codec != "ass" || !s.Forced {
		t.Errorf("subtitle: %+v", s)
	}

	if pr.Streams[4].Kind != KindAttachment {
		t.Errorf("attachment kind: got %q", pr.Streams[4].Kind)
	}
}

func TestParseJSON_LowercasesCodec(t *testing.T) {
	pr, err := ParseJSON([]byte(sampleMinimal))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if pr.Streams[0].Codec != "h264" {
		t.Errorf("codec: got %q, want h264", pr.Streams[0].Codec)
	}
	if pr.Streams[0].Language != "" {
		t.Errorf("missing language should be empty, got %q", pr.Streams[0].Language)
	}
}

func TestParseJSON_UnknownKindKept(t *testing.T) {
	pr, err := ParseJSON([]byte(`{"streams":[{"index":0,"codec_type":"Telemetry","codec_name":"bin"}]}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if pr.Streams[0].Kind != Kind("telemetry") {
		t.Errorf("kind: got %q", pr.Streams[0].Kind)
	}
}

func TestParseJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid", `{"streams": [`},
		{"empty", ``},
		{"no streams", `{"format": {}}`},
		{"streams not array", `{"streams": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseJSON([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := ParseJSON([]byte(`{"format": {}}`)); !errors.Is(err, ErrNoStreams) {
		t.Errorf("missing streams: got %v, want ErrNoStreams", err)
	}
}

func TestParseJSON_EmptyStreams(t *testing.T) {
	pr, err := ParseJSON([]byte(`{"streams": []}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(pr.Streams) != 0 {
		t.Errorf("streams: got %d, want 0", len(pr.Streams))
	}
}

func TestCountAndCodecs(t *testing.T) {
	pr, _ := ParseJSON([]byte(sampleMKV))

	if got := pr.Count(KindAudio); got != 2 {
		t.Errorf("Count(audio): got %d, want 2", got)
	}
	if got := pr.Count(KindData); got != 0 {
		t.Errorf("Count(data): got %d, want 0", got)
	}
	if got := pr.Codecs(KindAudio); got != "flac,ac3" {
		t.Errorf("Codecs(audio): got %q", got)
	}
	if got := pr.Codecs(KindData); got != "-" {
		t.Errorf("Codecs(data): got %q, want -", got)
	}
}

func TestProbe_MissingBinary(t *testing.T) {
	p := &Prober{FFprobePath: filepath.Join(t.TempDir(), "no-ffprobe")}
	if _, err := p.Probe(context.Background(), "in.mkv"); err == nil {
		t.Error("expected error for missing ffprobe")
	}
}

func TestProbe_Integration(t *testing.T) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not installed")
	}
	p := &Prober{}
	if _, err := p.Probe(context.Background(), filepath.Join(t.TempDir(), "missing.mkv")); err == nil {
		t.Error("expected error probing a missing file")
	}
}
