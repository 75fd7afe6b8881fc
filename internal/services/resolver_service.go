package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
	"github.com/parlons-app/parlons/internal/utils"
	"github.com/parlons-app/parlons/pkg/logger"
)

// LineResolver maps dialogue lines to their stored audio.
// Lookup never mutates storage; a line without a recording resolves to
// ErrNotVoiced, which is an expected outcome rather than a failure.
// SynthesizeAndStore creates a line's audio through the speech backend and
// persists it, so subsequent lookups reuse the stored asset.
type LineResolver interface {
	Lookup(ctx context.Context, lineID int) (*models.Recording, error)
	SynthesizeAndStore(ctx context.Context, line *models.Line, language string) (string, error)
}

// LineResolverService is the database-and-filesystem backed LineResolver.
type LineResolverService struct {
	recordingRepo repository.RecordingRepository
	speechSvc     SpeechSynthesizer
	config        *config.Config
}

// NewLineResolverService creates a new line resolver instance.
// speechSvc may be nil when synthesis is not configured; synthesizing a
// line then fails with ErrSynthesisFailed.
func NewLineResolverService(
	recordingRepo repository.RecordingRepository,
	speechSvc SpeechSynthesizer,
	config *config.Config,
) *LineResolverService {
	return &LineResolverService{
		recordingRepo: recordingRepo,
		speechSvc:     speechSvc,
		config:        config,
	}
}

// Lookup returns the stored recording for a line, or ErrNotVoiced when
// none exists. It never mutates storage.
func (s *LineResolverService) Lookup(ctx context.Context, lineID int) (*models.Recording, error) {
	recording, err := s.recordingRepo.GetByLine(ctx, lineID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: line %d", ErrNotVoiced, lineID)
		}
		return nil, fmt.Errorf("%w: failed to fetch recording for line %d: %v", ErrDatabaseError, lineID, err)
	}
	return recording, nil
}

// SynthesizeAndStore synthesizes the line's text, writes the audio to the
// line's deterministic asset path and upserts the recording row. It returns
// the relative asset path. The caller decides whether the line should be
// synthesized at all; this method does not check is_system.
func (s *LineResolverService) SynthesizeAndStore(ctx context.Context, line *models.Line, language string) (string, error) {
	if s.speechSvc == nil {
		return "", fmt.Errorf("%w: speech synthesis is not configured", ErrSynthesisFailed)
	}
	if language == "" {
		language = s.speechSvc.DefaultLanguage()
	}

	data, err := s.speechSvc.Synthesize(ctx, line.Text, language)
	if err != nil {
		logger.Error("Speech synthesis failed for line %d: %v", line.ID, err)
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	absPath, relPath := utils.GetLineAudioPaths(s.config, line.ID)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create audio directory: %v", ErrAudioProcessingFailed, err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to write synthesized audio: %v", ErrAudioProcessingFailed, err)
	}

	if err := s.recordingRepo.Upsert(ctx, line.ID, relPath); err != nil {
		return "", fmt.Errorf("%w: failed to save recording for line %d: %v", ErrDatabaseError, line.ID, err)
	}

	logger.Info("Synthesized audio for line %d: %s", line.ID, relPath)
	return relPath, nil
}

