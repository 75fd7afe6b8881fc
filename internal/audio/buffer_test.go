package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSilenceDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
	}{
		{"half second", 500 * time.Millisecond},
		{"one second", time.Second},
		{"two seconds", 2 * time.Second},
		{"zero", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := Silence(tt.duration, FormatPipelinePCM)
			assert.Equal(t, FormatPipelinePCM, buf.Format)
			assert.Equal(t, tt.duration, buf.Duration())
		})
	}
}

func TestSilenceIsZeroed(t *testing.T) {
	buf := Silence(10*time.Millisecond, FormatPipelinePCM)
	require.NotEmpty(t, buf.PCM)
	for _, b := range buf.PCM {
		if b != 0 {
			t.Fatal("silence buffer contains non-zero samples")
		}
	}
}

func TestSilenceNegativeDuration(t *testing.T) {
	buf := Silence(-time.Second, FormatPipelinePCM)
	assert.Empty(t, buf.PCM)
}

func TestSilenceWholeFrames(t *testing.T) {
	// An awkward duration must still land on a frame boundary
	buf := Silence(333*time.Microsecond, FormatPipelinePCM)
	assert.Zero(t, len(buf.PCM)%FormatPipelinePCM.FrameSize())
}

func TestConcatOrderPreserved(t *testing.T) {
	a := &Buffer{Format: FormatPipelinePCM, PCM: []byte{1, 1, 2, 2}}
	b := &Buffer{Format: FormatPipelinePCM, PCM: []byte{3, 3}}
	c := &Buffer{Format: FormatPipelinePCM, PCM: []byte{4, 4, 5, 5}}

	out, err := Concat(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, out.PCM)
}

func TestConcatDurationIsSum(t *testing.T) {
	a := Silence(300*time.Millisecond, FormatPipelinePCM)
	b := Silence(700*time.Millisecond, FormatPipelinePCM)

	out, err := Concat(a, b)
	require.NoError(t, err)
	assert.Equal(t, time.Second, out.Duration())
}

func TestConcatEmptyInput(t *testing.T) {
	out, err := Concat()
	require.NoError(t, err)
	assert.Empty(t, out.PCM)
	assert.Equal(t, FormatPipelinePCM, out.Format)
}

func TestConcatIncompatibleFormats(t *testing.T) {
	a := &Buffer{Format: FormatPipelinePCM, PCM: []byte{0, 0}}
	stereo := Format{SampleRate: SampleRate48000, Channels: Stereo, Codec: CodecPCM16LE}
	b := &Buffer{Format: stereo, PCM: []byte{0, 0, 0, 0}}

	_, err := Concat(a, b)
	assert.ErrorIs(t, err, ErrIncompatibleFormat)
}

func TestConcatDoesNotAliasInputs(t *testing.T) {
	a := &Buffer{Format: FormatPipelinePCM, PCM: []byte{1, 2}}
	b := &Buffer{Format: FormatPipelinePCM, PCM: []byte{3, 4}}

	out, err := Concat(a, b)
	require.NoError(t, err)

	out.PCM[0] = 9
	assert.Equal(t, byte(1), a.PCM[0])
}

func TestBufferDuration(t *testing.T) {
	oneSecond := make([]byte, FormatPipelinePCM.BytesPerSecond())
	buf := &Buffer{Format: FormatPipelinePCM, PCM: oneSecond}
	assert.Equal(t, time.Second, buf.Duration())
}
