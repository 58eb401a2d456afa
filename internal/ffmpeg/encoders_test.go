package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleEncoders = `Encoders:
 V..... = Video
 A..... = Audio
 S..... = Subtitle
 .F.... = Frame-level multithreading
 ..S... = Slice-level multithreading
 ...X.. = Codec is experimental
 ....B. = Supports draw_horiz_band
 .....D = Supports direct rendering method 1
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
 A....D ac3                  ATSC A/52A (AC-3)
 S..... mov_text             3GPP Timed Text subtitle
 S..... srt                  SubRip subtitle (codec subrip)
`

func TestParseEncoders(t *testing.T) {
	set := ParseEncoders(sampleEncoders)

	for _, name := range []string{"libx264", "aac", "ac3", "mov_text", "srt"} {
		assert.True(t, set.Has(name), name)
	}
	// Legend lines are not encoders.
	assert.False(t, set.Has("="))
	assert.False(t, set.Has("Video"))
	assert.Equal(t, []string{"aac", "ac3", "libx264", "mov_text", "srt"}, set.Names())
}

func TestParseEncoders_Empty(t *testing.T) {
	assert.Empty(t, ParseEncoders(""))
	assert.Empty(t, ParseEncoders("Encoders:\n V..... = Video\n"))
}
