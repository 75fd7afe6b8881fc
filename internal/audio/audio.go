// Package audio provides audio processing services using FFmpeg.
//
// FFmpeg does the heavy lifting at the edges: Decode normalizes any input
// file into an in-memory PCM Buffer and Encode writes a Buffer out as MP3.
// Everything in between (silence, concatenation) is pure buffer work, so
// the assembly pipeline never touches FFmpeg mid-stream.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/parlons-app/parlons/internal/config"
)

// Service handles audio processing operations using FFmpeg.
type Service struct {
	config *config.Config
}

// NewService creates a new audio processing service.
func NewService(cfg *config.Config) *Service {
	return &Service{config: cfg}
}

// Decode reads an audio file and converts it to the pipeline PCM format.
// Any input FFmpeg can read is accepted; unreadable or corrupt files
// produce an AudioError with Op OpDecode.
func (s *Service) Decode(ctx context.Context, inputPath string) (*Buffer, error) {
	format := FormatPipelinePCM

	// #nosec G204 - FFmpegPath is from config, inputPath is internally validated
	cmd := exec.CommandContext(ctx, s.config.Audio.FFmpegPath,
		"-i", inputPath,
		"-f", "s16le",
		"-acodec", string(CodecPCM16LE),
		"-ar", fmt.Sprintf("%d", format.SampleRate),
		"-ac", fmt.Sprintf("%d", format.Channels),
		"pipe:1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, NewDecodeError(inputPath, stderr.String(), err)
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return nil, NewDecodeError(inputPath, stderr.String(), fmt.Errorf("no audio data produced"))
	}

	return &Buffer{Format: format, PCM: pcm}, nil
}

// Encode writes a PCM buffer to outputPath as MP3.
func (s *Service) Encode(ctx context.Context, buf *Buffer, outputPath string) error {
	// #nosec G204 - FFmpegPath is from config, outputPath is internally validated
	cmd := exec.CommandContext(ctx, s.config.Audio.FFmpegPath,
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", buf.Format.SampleRate),
		"-ac", fmt.Sprintf("%d", buf.Format.Channels),
		"-i", "pipe:0",
		"-acodec", string(CodecMP3),
		"-b:a", "128k",
		"-y", outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(buf.PCM)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return NewEncodeError(outputPath, stderr.String(), err)
	}

	return nil
}

// NormalizeRecording re-encodes an uploaded recording into the standard MP3
// format used for stored line audio.
func (s *Service) NormalizeRecording(ctx context.Context, inputPath, outputPath string) error {
	buf, err := s.Decode(ctx, inputPath)
	if err != nil {
		return err
	}
	return s.Encode(ctx, buf, outputPath)
}

// GetDuration retrieves the duration of an audio file in seconds using ffprobe.
func (s *Service) GetDuration(ctx context.Context, filePath string) (float64, error) {
	// #nosec G204 - ffprobe binary is trusted, filePath is internally validated
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-i", filePath,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0",
	)

	output, err := cmd.Output()
	if err != nil {
		return 0, NewProbeError(filePath, "", err)
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &duration); err != nil {
		return 0, NewProbeError(filePath, "", err)
	}

	return duration, nil
}
