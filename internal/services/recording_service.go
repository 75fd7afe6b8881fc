package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
	"github.com/parlons-app/parlons/internal/utils"
	"github.com/parlons-app/parlons/pkg/logger"
)

// RecordingService manages per-line audio recordings: browser uploads for
// human lines and on-demand synthesis for system lines.
type RecordingService struct {
	lineRepo       repository.LineRepository
	dialogueRepo   repository.DialogueRepository
	simulationRepo repository.SimulationRepository
	recordingRepo  repository.RecordingRepository
	resolver       LineResolver
	audioSvc       AudioCodec
	config         *config.Config
}

// NewRecordingService creates a new recording service instance.
func NewRecordingService(
	lineRepo repository.LineRepository,
	dialogueRepo repository.DialogueRepository,
	simulationRepo repository.SimulationRepository,
	recordingRepo repository.RecordingRepository,
	resolver LineResolver,
	audioSvc AudioCodec,
	config *config.Config,
) *RecordingService {
	return &RecordingService{
		lineRepo:       lineRepo,
		dialogueRepo:   dialogueRepo,
		simulationRepo: simulationRepo,
		recordingRepo:  recordingRepo,
		resolver:       resolver,
		audioSvc:       audioSvc,
		config:         config,
	}
}

// StoreBase64 decodes a base64 (optionally data-URI) audio payload,
// normalizes it to the storage format and saves it as the line's
// recording, replacing any previous one. Returns the relative asset path.
func (s *RecordingService) StoreBase64(ctx context.Context, lineID int, payload string) (string, error) {
	line, err := s.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		return "", MapRepoErrorWithContext("store recording", err, fmt.Sprintf("line %d", lineID))
	}

	data, err := utils.DecodeBase64Audio(payload)
	if err != nil {
		return "", fmt.Errorf("%w: invalid audio payload: %v", ErrInvalidInput, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty audio payload", ErrInvalidInput)
	}

	// Browser uploads arrive in whatever container MediaRecorder chose;
	// stage the raw bytes and let FFmpeg normalize them to mp3.
	tempPath := filepath.Join(s.config.Audio.TempPath, fmt.Sprintf("upload_%s", uuid.NewString()))
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: failed to stage upload: %v", ErrAudioProcessingFailed, err)
	}
	defer func() {
		if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
			logger.Error("Failed to remove staged upload %s: %v", tempPath, err)
		}
	}()

	absPath, relPath := utils.GetRecordingPaths(s.config, line.ID)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create recording directory: %v", ErrAudioProcessingFailed, err)
	}
	if err := s.audioSvc.NormalizeRecording(ctx, tempPath, absPath); err != nil {
		logger.Error("Failed to normalize recording for line %d: %v", line.ID, err)
		return "", fmt.Errorf("%w: audio conversion failed", ErrAudioProcessingFailed)
	}

	if err := s.recordingRepo.Upsert(ctx, line.ID, relPath); err != nil {
		return "", fmt.Errorf("%w: failed to save recording for line %d: %v", ErrDatabaseError, line.ID, err)
	}

	logger.Info("Stored recording for line %d: %s", line.ID, relPath)
	return relPath, nil
}

// EnsureSystemAudio guarantees a system line has synthesized audio,
// reusing a stored recording when one exists. Human lines are rejected
// with ErrInvalidInput. Returns the relative asset path.
func (s *RecordingService) EnsureSystemAudio(ctx context.Context, lineID int) (string, error) {
	line, err := s.lineRepo.GetByID(ctx, lineID)
	if err != nil {
		return "", MapRepoErrorWithContext("synthesize line", err, fmt.Sprintf("line %d", lineID))
	}
	if !line.IsSystem {
		return "", fmt.Errorf("%w: line %d is not a system line", ErrInvalidInput, lineID)
	}

	recording, err := s.resolver.Lookup(ctx, lineID)
	if err == nil {
		return recording.AudioFile, nil
	}
	if !errors.Is(err, ErrNotVoiced) {
		return "", err
	}

	return s.resolver.SynthesizeAndStore(ctx, line, s.lineLanguage(ctx, line))
}

// GetLineRecording returns the stored recording for a line, or ErrNotVoiced.
// The audio duration is probed from the stored file; a probe failure leaves
// the duration unset rather than failing the request.
func (s *RecordingService) GetLineRecording(ctx context.Context, lineID int) (*models.Recording, error) {
	exists, err := s.lineRepo.Exists(ctx, lineID)
	if err := MustExist("get recording", exists, err); err != nil {
		return nil, err
	}

	recording, err := s.resolver.Lookup(ctx, lineID)
	if err != nil {
		return nil, err
	}

	duration, err := s.audioSvc.GetDuration(ctx, utils.GetMediaPath(s.config, recording.AudioFile))
	if err != nil {
		logger.Error("Failed to probe duration for line %d recording: %v", lineID, err)
	} else {
		recording.DurationSeconds = &duration
	}
	return recording, nil
}

// Delete removes a line's recording row. The asset on disk is left for
// the temp sweeper or a re-record to overwrite.
func (s *RecordingService) Delete(ctx context.Context, lineID int) error {
	if err := s.recordingRepo.Delete(ctx, lineID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: no recording for line %d", ErrNotFound, lineID)
		}
		return fmt.Errorf("%w: failed to delete recording for line %d: %v", ErrDatabaseError, lineID, err)
	}
	return nil
}

// lineLanguage resolves the synthesis language for a line through its
// dialogue's simulation, falling back to empty so the resolver applies
// the configured default.
func (s *RecordingService) lineLanguage(ctx context.Context, line *models.Line) string {
	dialogue, err := s.dialogueRepo.GetByID(ctx, line.DialogueID)
	if err != nil {
		return ""
	}
	simulation, err := s.simulationRepo.GetByID(ctx, dialogue.SimulationID)
	if err != nil {
		return ""
	}
	return simulation.Language
}
