package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/parlons-app/parlons/internal/audio"
	"github.com/parlons-app/parlons/internal/config"
	"github.com/parlons-app/parlons/internal/repository"
	"github.com/parlons-app/parlons/internal/utils"
	"github.com/parlons-app/parlons/pkg/logger"
)

// Inter-line gap bounds. Every voiced line is followed by a gap drawn
// uniformly from [GapMin, GapMax], the last line included.
const (
	GapMin = 500 * time.Millisecond
	GapMax = 1000 * time.Millisecond
)

// DialogueAudioService assembles a dialogue's recorded lines into a single
// audio file. Lines are walked in display order; each recorded segment is
// followed by a randomized silence gap. Lines without a recording are
// skipped, system lines included, and a recording that fails to decode is
// skipped too so one bad file never blocks the dialogue. Assembly never
// triggers speech synthesis.
type DialogueAudioService struct {
	dialogueRepo repository.DialogueRepository
	lineRepo     repository.LineRepository
	resolver     LineResolver
	audioSvc     AudioCodec
	config       *config.Config

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDialogueAudioService creates a new dialogue assembler.
// rng drives the inter-line gap durations; pass a seeded source in tests
// for reproducible output, or rand.New(rand.NewSource(time.Now().UnixNano()))
// in production wiring.
func NewDialogueAudioService(
	dialogueRepo repository.DialogueRepository,
	lineRepo repository.LineRepository,
	resolver LineResolver,
	audioSvc AudioCodec,
	config *config.Config,
	rng *rand.Rand,
) *DialogueAudioService {
	return &DialogueAudioService{
		dialogueRepo: dialogueRepo,
		lineRepo:     lineRepo,
		resolver:     resolver,
		audioSvc:     audioSvc,
		config:       config,
		rng:          rng,
	}
}

// Assemble builds the complete audio for a dialogue and returns the
// relative asset path. It returns ErrNoRecordings when no line produced a
// voiced segment. Re-assembly overwrites the previous asset at the same
// deterministic path.
func (s *DialogueAudioService) Assemble(ctx context.Context, dialogueID int) (string, error) {
	dialogue, err := s.dialogueRepo.GetByID(ctx, dialogueID)
	if err != nil {
		return "", MapRepoErrorWithContext("assemble dialogue", err, fmt.Sprintf("dialogue %d", dialogueID))
	}

	lines, err := s.lineRepo.ListByDialogue(ctx, dialogueID)
	if err != nil {
		return "", fmt.Errorf("%w: failed to list lines for dialogue %d: %v", ErrDatabaseError, dialogueID, err)
	}

	segments := make([]*audio.Buffer, 0, 2*len(lines))
	voiced := 0
	for i := range lines {
		line := &lines[i]
		recording, err := s.resolver.Lookup(ctx, line.ID)
		if err != nil {
			// Unrecorded lines are expected; anything else is a per-line
			// failure we skip so the rest still assembles.
			if !errors.Is(err, ErrNotVoiced) {
				logger.Error("Skipping line %d in dialogue %d: %v", line.ID, dialogueID, err)
			}
			continue
		}
		buf, err := s.audioSvc.Decode(ctx, utils.GetMediaPath(s.config, recording.AudioFile))
		if err != nil {
			logger.Error("Skipping line %d in dialogue %d: %v", line.ID, dialogueID, err)
			continue
		}
		segments = append(segments, buf, audio.Silence(s.gapDuration(), buf.Format))
		voiced++
	}

	if voiced == 0 {
		return "", fmt.Errorf("%w: dialogue %d", ErrNoRecordings, dialogueID)
	}

	combined, err := audio.Concat(segments...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAudioProcessingFailed, err)
	}

	absPath, relPath := utils.GetDialogueAudioPaths(s.config, dialogue.ID, dialogue.Title)
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create output directory: %v", ErrAudioProcessingFailed, err)
	}
	if err := s.audioSvc.Encode(ctx, combined, absPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrAudioProcessingFailed, err)
	}

	if err := s.dialogueRepo.SetCompleteAudio(ctx, dialogue.ID, relPath); err != nil {
		return "", fmt.Errorf("%w: failed to save audio reference for dialogue %d: %v", ErrDatabaseError, dialogue.ID, err)
	}

	logger.Info("Assembled dialogue %d: %s (%d voiced lines, %.2fs)",
		dialogue.ID, relPath, voiced, combined.Duration().Seconds())
	return relPath, nil
}

// gapDuration draws an inter-line gap from [GapMin, GapMax] inclusive.
func (s *DialogueAudioService) gapDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	spread := int64(GapMax-GapMin) + 1
	return GapMin + time.Duration(s.rng.Int63n(spread))
}
