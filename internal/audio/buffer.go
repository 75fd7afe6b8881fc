package audio

import (
	"time"
)

// Buffer holds decoded PCM audio in a known format. Buffers are the unit
// the assembly pipeline works with: decode produces them, Silence and
// Concat combine them, encode writes them out.
type Buffer struct {
	Format Format
	PCM    []byte
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	bps := b.Format.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(len(b.PCM)) * time.Second / time.Duration(bps)
}

// Silence returns a buffer of the given duration containing digital silence.
// The length is rounded down to a whole sample frame.
func Silence(d time.Duration, format Format) *Buffer {
	if d < 0 {
		d = 0
	}
	n := int(int64(format.BytesPerSecond()) * int64(d) / int64(time.Second))
	n -= n % format.FrameSize()
	return &Buffer{Format: format, PCM: make([]byte, n)}
}

// Concat joins buffers in order into a single buffer. All inputs must share
// the same format; mixing formats returns ErrIncompatibleFormat. An empty
// input list yields an empty pipeline-format buffer.
func Concat(buffers ...*Buffer) (*Buffer, error) {
	if len(buffers) == 0 {
		return &Buffer{Format: FormatPipelinePCM}, nil
	}

	format := buffers[0].Format
	total := 0
	for _, b := range buffers {
		if b.Format != format {
			return nil, ErrIncompatibleFormat
		}
		total += len(b.PCM)
	}

	pcm := make([]byte, 0, total)
	for _, b := range buffers {
		pcm = append(pcm, b.PCM...)
	}
	return &Buffer{Format: format, PCM: pcm}, nil
}
