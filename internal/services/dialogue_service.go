package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
)

// DialogueService handles dialogue CRUD and participant membership.
type DialogueService struct {
	dialogueRepo    repository.DialogueRepository
	lineRepo        repository.LineRepository
	simulationRepo  repository.SimulationRepository
	participantRepo repository.ParticipantRepository
	recordingRepo   repository.RecordingRepository
}

// NewDialogueService creates a new dialogue service instance.
func NewDialogueService(
	dialogueRepo repository.DialogueRepository,
	lineRepo repository.LineRepository,
	simulationRepo repository.SimulationRepository,
	participantRepo repository.ParticipantRepository,
	recordingRepo repository.RecordingRepository,
) *DialogueService {
	return &DialogueService{
		dialogueRepo:    dialogueRepo,
		lineRepo:        lineRepo,
		simulationRepo:  simulationRepo,
		participantRepo: participantRepo,
		recordingRepo:   recordingRepo,
	}
}

// Create adds a dialogue to a simulation. The position within the
// simulation is assigned automatically, after the current last dialogue.
func (s *DialogueService) Create(ctx context.Context, simulationID int, title, description, difficulty string) (*models.Dialogue, error) {
	exists, err := s.simulationRepo.Exists(ctx, simulationID)
	if err := MustExist("create dialogue", exists, err); err != nil {
		return nil, err
	}

	if difficulty == "" {
		difficulty = string(models.DifficultyBeginner)
	}
	if !models.DifficultyLevel(difficulty).IsValid() {
		return nil, fmt.Errorf("%w: invalid difficulty level %q", ErrInvalidInput, difficulty)
	}

	dialogue, err := s.dialogueRepo.Create(ctx, simulationID, title, description, difficulty)
	if err != nil {
		return nil, MapRepoError("create dialogue", err)
	}
	return dialogue, nil
}

// GetByID retrieves a dialogue without its lines.
func (s *DialogueService) GetByID(ctx context.Context, id int) (*models.Dialogue, error) {
	dialogue, err := s.dialogueRepo.GetByID(ctx, id)
	if err != nil {
		return nil, MapRepoErrorWithContext("get dialogue", err, fmt.Sprintf("dialogue %d", id))
	}
	return dialogue, nil
}

// GetWithLines retrieves a dialogue with its lines and participants.
func (s *DialogueService) GetWithLines(ctx context.Context, id int) (*models.Dialogue, error) {
	dialogue, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	lines, err := s.lineRepo.ListByDialogue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list lines: %v", ErrDatabaseError, err)
	}
	for i := range lines {
		recorded, err := s.recordingRepo.ExistsForLine(ctx, lines[i].ID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to check recording for line %d: %v", ErrDatabaseError, lines[i].ID, err)
		}
		lines[i].HasRecording = recorded
	}
	dialogue.Lines = lines
	dialogue.LineCount = len(lines)

	participants, err := s.participantRepo.ListByDialogue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list participants: %v", ErrDatabaseError, err)
	}
	dialogue.Participants = participants

	return dialogue, nil
}

// ListBySimulation returns a simulation's dialogues in display order.
func (s *DialogueService) ListBySimulation(ctx context.Context, simulationID int) ([]models.Dialogue, error) {
	exists, err := s.simulationRepo.Exists(ctx, simulationID)
	if err := MustExist("list dialogues", exists, err); err != nil {
		return nil, err
	}

	dialogues, err := s.dialogueRepo.ListBySimulation(ctx, simulationID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list dialogues: %v", ErrDatabaseError, err)
	}
	for i := range dialogues {
		count, err := s.lineRepo.CountByDialogue(ctx, dialogues[i].ID)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to count lines for dialogue %d: %v", ErrDatabaseError, dialogues[i].ID, err)
		}
		dialogues[i].LineCount = count
	}
	return dialogues, nil
}

// Update changes a dialogue's title, description and/or difficulty.
func (s *DialogueService) Update(ctx context.Context, id int, updates *repository.DialogueUpdate) error {
	if updates.Difficulty != nil && !models.DifficultyLevel(*updates.Difficulty).IsValid() {
		return fmt.Errorf("%w: invalid difficulty level %q", ErrInvalidInput, *updates.Difficulty)
	}
	return MapRepoErrorWithContext("update dialogue", s.dialogueRepo.Update(ctx, id, updates), fmt.Sprintf("dialogue %d", id))
}

// Delete removes a dialogue and its lines.
func (s *DialogueService) Delete(ctx context.Context, id int) error {
	return MapRepoErrorWithContext("delete dialogue", s.dialogueRepo.Delete(ctx, id), fmt.Sprintf("dialogue %d", id))
}

// AddParticipant links a participant to a dialogue. Adding twice is a no-op.
func (s *DialogueService) AddParticipant(ctx context.Context, dialogueID, participantID int) error {
	exists, err := s.dialogueRepo.Exists(ctx, dialogueID)
	if err := MustExist("add participant", exists, err); err != nil {
		return err
	}
	exists, err = s.participantRepo.Exists(ctx, participantID)
	if err := MustExist("add participant", exists, err); err != nil {
		return err
	}

	if err := s.dialogueRepo.AddParticipant(ctx, dialogueID, participantID); err != nil {
		return MapRepoError("add participant", err)
	}
	return nil
}

// RemoveParticipant unlinks a participant from a dialogue.
func (s *DialogueService) RemoveParticipant(ctx context.Context, dialogueID, participantID int) error {
	if err := s.dialogueRepo.RemoveParticipant(ctx, dialogueID, participantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: participant %d is not in dialogue %d", ErrNotFound, participantID, dialogueID)
		}
		return MapRepoError("remove participant", err)
	}
	return nil
}
