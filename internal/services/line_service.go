package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
)

// LineService handles dialogue line CRUD.
type LineService struct {
	lineRepo        repository.LineRepository
	dialogueRepo    repository.DialogueRepository
	participantRepo repository.ParticipantRepository
	recordingRepo   repository.RecordingRepository
}

// NewLineService creates a new line service instance.
func NewLineService(
	lineRepo repository.LineRepository,
	dialogueRepo repository.DialogueRepository,
	participantRepo repository.ParticipantRepository,
	recordingRepo repository.RecordingRepository,
) *LineService {
	return &LineService{
		lineRepo:        lineRepo,
		dialogueRepo:    dialogueRepo,
		participantRepo: participantRepo,
		recordingRepo:   recordingRepo,
	}
}

// Create appends a line to a dialogue, spoken by the given participant.
// The participant is linked to the dialogue if not already a member, so
// lines added through the API keep membership consistent.
func (s *LineService) Create(ctx context.Context, dialogueID, participantID int, text string) (*models.Line, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: line text must not be blank", ErrInvalidInput)
	}

	exists, err := s.dialogueRepo.Exists(ctx, dialogueID)
	if err := MustExist("create line", exists, err); err != nil {
		return nil, err
	}
	exists, err = s.participantRepo.Exists(ctx, participantID)
	if err := MustExist("create line", exists, err); err != nil {
		return nil, err
	}

	line, err := s.lineRepo.Create(ctx, dialogueID, participantID, text)
	if err != nil {
		return nil, MapRepoError("create line", err)
	}

	if err := s.dialogueRepo.AddParticipant(ctx, dialogueID, participantID); err != nil {
		return nil, MapRepoError("create line", err)
	}

	return line, nil
}

// GetByID retrieves a line with its speaker metadata and recording state.
func (s *LineService) GetByID(ctx context.Context, id int) (*models.Line, error) {
	line, err := s.lineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, MapRepoErrorWithContext("get line", err, fmt.Sprintf("line %d", id))
	}
	if err := s.markRecorded(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// ListByDialogue returns a dialogue's lines in display order.
func (s *LineService) ListByDialogue(ctx context.Context, dialogueID int) ([]models.Line, error) {
	exists, err := s.dialogueRepo.Exists(ctx, dialogueID)
	if err := MustExist("list lines", exists, err); err != nil {
		return nil, err
	}

	lines, err := s.lineRepo.ListByDialogue(ctx, dialogueID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list lines: %v", ErrDatabaseError, err)
	}
	for i := range lines {
		if err := s.markRecorded(ctx, &lines[i]); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

func (s *LineService) markRecorded(ctx context.Context, line *models.Line) error {
	recorded, err := s.recordingRepo.ExistsForLine(ctx, line.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to check recording for line %d: %v", ErrDatabaseError, line.ID, err)
	}
	line.HasRecording = recorded
	return nil
}

// Delete removes a line and its recording, if any.
func (s *LineService) Delete(ctx context.Context, id int) error {
	return MapRepoErrorWithContext("delete line", s.lineRepo.Delete(ctx, id), fmt.Sprintf("line %d", id))
}
