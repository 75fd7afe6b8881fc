package audio

import (
	"errors"
	"fmt"
)

// ErrIncompatibleFormat is returned when buffers of different formats are
// combined.
var ErrIncompatibleFormat = errors.New("audio buffers have incompatible formats")

// Operation represents the type of audio operation
type Operation string

const (
	OpDecode Operation = "decode"
	OpEncode Operation = "encode"
	OpProbe  Operation = "probe"
)

// AudioError represents a structured audio processing error
type AudioError struct {
	Op         Operation
	FilePath   string
	Command    string
	Stderr     string
	Underlying error
}

func (e *AudioError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("audio %s failed for %s: %v", e.Op, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("audio %s failed for %s", e.Op, e.FilePath)
}

func (e *AudioError) Unwrap() error {
	return e.Underlying
}

// NewDecodeError creates an error for unreadable or undecodable input files
func NewDecodeError(inputPath string, stderr string, err error) *AudioError {
	return &AudioError{
		Op:         OpDecode,
		FilePath:   inputPath,
		Stderr:     stderr,
		Underlying: err,
	}
}

// NewEncodeError creates an error for output encoding or write failures
func NewEncodeError(outputPath string, stderr string, err error) *AudioError {
	return &AudioError{
		Op:         OpEncode,
		FilePath:   outputPath,
		Stderr:     stderr,
		Underlying: err,
	}
}

// NewProbeError creates an error for duration extraction failures
func NewProbeError(filePath string, stderr string, err error) *AudioError {
	return &AudioError{
		Op:         OpProbe,
		FilePath:   filePath,
		Stderr:     stderr,
		Underlying: err,
	}
}
