package audio

// SampleRate represents audio sample rate in Hz
type SampleRate int

// Sample rates for audio processing.
const (
	// SampleRate44100 represents CD-quality audio at 44.1 kHz
	SampleRate44100 SampleRate = 44100
	// SampleRate48000 represents professional audio at 48 kHz
	SampleRate48000 SampleRate = 48000
)

// ChannelCount represents number of audio channels
type ChannelCount int

// Channel configurations.
const (
	// Mono represents single-channel audio
	Mono ChannelCount = 1
	// Stereo represents dual-channel audio
	Stereo ChannelCount = 2
)

// Codec represents the audio encoding format.
type Codec string

// Audio codecs for encoding.
const (
	// CodecPCM16LE is 16-bit signed little-endian PCM
	CodecPCM16LE Codec = "pcm_s16le"
	// CodecMP3 is MPEG-1 Audio Layer III via libmp3lame
	CodecMP3 Codec = "libmp3lame"
)

// Format defines complete audio format specification.
type Format struct {
	SampleRate SampleRate
	Channels   ChannelCount
	Codec      Codec
}

// bytesPerSample is the sample width of 16-bit PCM.
const bytesPerSample = 2

// FrameSize returns the byte size of one sample frame across all channels.
func (f Format) FrameSize() int {
	return bytesPerSample * int(f.Channels)
}

// BytesPerSecond returns the PCM data rate for the format.
func (f Format) BytesPerSecond() int {
	return int(f.SampleRate) * f.FrameSize()
}

// FormatPipelinePCM is the intermediate format every input is decoded to
// before mixing (44.1kHz, mono, 16-bit PCM). Working at a single fixed
// format makes concatenation a plain byte append.
var FormatPipelinePCM = Format{
	SampleRate: SampleRate44100,
	Channels:   Mono,
	Codec:      CodecPCM16LE,
}
