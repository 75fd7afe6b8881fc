package services

import (
	"context"

	"github.com/parlons-app/parlons/internal/audio"
)

// AudioCodec is the slice of the audio service the recording and assembly
// services use. Satisfied by *audio.Service; tests substitute an in-memory
// fake so the logic runs without FFmpeg.
type AudioCodec interface {
	Decode(ctx context.Context, inputPath string) (*audio.Buffer, error)
	Encode(ctx context.Context, buf *audio.Buffer, outputPath string) error
	NormalizeRecording(ctx context.Context, inputPath, outputPath string) error
	GetDuration(ctx context.Context, filePath string) (float64, error)
}

// SpeechSynthesizer produces spoken audio for a piece of text.
// Satisfied by *tts.Service.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
	DefaultLanguage() string
}
