package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parlons-app/parlons/internal/audio"
	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
	"github.com/parlons-app/parlons/internal/utils"
	"github.com/parlons-app/parlons/pkg/logger"
)

// DialoguePause is the fixed silence inserted before and after each
// dialogue body in the final simulation audio.
const DialoguePause = 2000 * time.Millisecond

// SimulationAudioService stitches a simulation's assembled dialogues into
// one final audio file. Each dialogue is introduced by a synthesized title
// announcement and framed by fixed pauses. Dialogues whose title synthesis
// or audio decode fails are skipped, mirroring the per-line tolerance of
// dialogue assembly.
type SimulationAudioService struct {
	simulationRepo repository.SimulationRepository
	dialogueRepo   repository.DialogueRepository
	speechSvc      SpeechSynthesizer
	audioSvc       AudioCodec
	config         *config.Config
}

// NewSimulationAudioService creates a new simulation assembler.
func NewSimulationAudioService(
	simulationRepo repository.SimulationRepository,
	dialogueRepo repository.DialogueRepository,
	speechSvc SpeechSynthesizer,
	audioSvc AudioCodec,
	config *config.Config,
) *SimulationAudioService {
	return &SimulationAudioService{
		simulationRepo: simulationRepo,
		dialogueRepo:   dialogueRepo,
		speechSvc:      speechSvc,
		audioSvc:       audioSvc,
		config:         config,
	}
}

// Assemble builds the final audio for a simulation and returns the
// relative asset path. Only dialogues that already have complete audio
// contribute; assembling their audio first is the caller's job. Returns
// ErrNoDialogueAudio when nothing qualifies or every segment failed.
func (s *SimulationAudioService) Assemble(ctx context.Context, simulationID int) (string, error) {
	simulation, err := s.simulationRepo.GetByID(ctx, simulationID)
	if err != nil {
		return "", MapRepoErrorWithContext("assemble simulation", err, fmt.Sprintf("simulation %d", simulationID))
	}

	dialogues, err := s.dialogueRepo.ListBySimulation(ctx, simulationID)
	if err != nil {
		return "", fmt.Errorf("%w: failed to list dialogues for simulation %d: %v", ErrDatabaseError, simulationID, err)
	}

	assembled := make([]models.Dialogue, 0, len(dialogues))
	for _, d := range dialogues {
		if d.CompleteAudio != "" {
			assembled = append(assembled, d)
		}
	}
	if len(assembled) == 0 {
		return "", fmt.Errorf("%w: simulation %d", ErrNoDialogueAudio, simulationID)
	}

	// Title announcements are transient; the whole scratch directory is
	// removed when assembly returns, success or not.
	tempDir := utils.GetTempAssemblyDir(s.config, uuid.NewString())
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create temp directory: %v", ErrAudioProcessingFailed, err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			logger.Error("Failed to remove temp directory %s: %v", tempDir, err)
		}
	}()

	segments := make([]*audio.Buffer, 0, 4*len(assembled))
	included := 0
	for _, dialogue := range assembled {
		announcement, body, err := s.dialogueSegment(ctx, &dialogue, simulation.Language, tempDir)
		if err != nil {
			logger.Error("Skipping dialogue %d in simulation %d: %v", dialogue.ID, simulationID, err)
			continue
		}
		pause := audio.Silence(DialoguePause, body.Format)
		segments = append(segments, announcement, pause, body, pause)
		included++
	}

	if included == 0 {
		return "", fmt.Errorf("%w: simulation %d", ErrNoDialogueAudio, simulationID)
	}

	combined, err := audio.Concat(segments...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAudioProcessingFailed, err)
	}

	absPath, relPath := utils.GetSimulationAudioPaths(s.config, simulation.ID, simulation.Title)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create output directory: %v", ErrAudioProcessingFailed, err)
	}
	if err := s.audioSvc.Encode(ctx, combined, absPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAudioProcessingFailed, err)
	}

	if err := s.simulationRepo.SetFinalAudio(ctx, simulation.ID, relPath); err != nil {
		return "", fmt.Errorf("%w: failed to save audio reference for simulation %d: %v", ErrDatabaseError, simulation.ID, err)
	}

	logger.Info("Assembled simulation %d: %s (%d of %d dialogues, %.2fs)",
		simulation.ID, relPath, included, len(assembled), combined.Duration().Seconds())
	return relPath, nil
}

// dialogueSegment synthesizes and decodes one dialogue's title
// announcement and decodes its complete audio.
func (s *SimulationAudioService) dialogueSegment(ctx context.Context, dialogue *models.Dialogue, language, tempDir string) (*audio.Buffer, *audio.Buffer, error) {
	if s.speechSvc == nil {
		return nil, nil, fmt.Errorf("%w: speech synthesis is not configured", ErrSynthesisFailed)
	}
	if language == "" {
		language = s.speechSvc.DefaultLanguage()
	}

	data, err := s.speechSvc.Synthesize(ctx, dialogue.Title, language)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: title announcement for dialogue %d: %v", ErrSynthesisFailed, dialogue.ID, err)
	}

	titlePath := filepath.Join(tempDir, fmt.Sprintf("title_%d.mp3", dialogue.ID))
	if err := os.WriteFile(titlePath, data, 0o644); err != nil {
		return nil, nil, fmt.Errorf("%w: failed to write title announcement: %v", ErrAudioProcessingFailed, err)
	}

	announcement, err := s.audioSvc.Decode(ctx, titlePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrAudioProcessingFailed, err)
	}

	body, err := s.audioSvc.Decode(ctx, utils.GetMediaPath(s.config, dialogue.CompleteAudio))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrAudioProcessingFailed, err)
	}

	return announcement, body, nil
}
