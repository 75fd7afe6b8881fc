package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/parlons-app/parlons/internal/apperrors"
	"github.com/parlons-app/parlons/internal/models"
	"github.com/parlons-app/parlons/internal/repository"
)

// ParticipantService handles participant CRUD. Participants belong to a
// user; the system speaker is a regular participant with is_system set.
type ParticipantService struct {
	participantRepo repository.ParticipantRepository
}

// NewParticipantService creates a new participant service instance.
func NewParticipantService(participantRepo repository.ParticipantRepository) *ParticipantService {
	return &ParticipantService{participantRepo: participantRepo}
}

// Create adds a participant for a user. Speaker names are unique per user.
func (s *ParticipantService) Create(ctx context.Context, userID int, speakerName string, isSystem bool) (*models.Participant, error) {
	existing, err := s.participantRepo.GetByName(ctx, userID, speakerName)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("%w: speaker %q already exists", ErrInvalidInput, speakerName)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: failed to check speaker name: %v", ErrDatabaseError, err)
	}

	participant, err := s.participantRepo.Create(ctx, userID, speakerName, isSystem)
	if err != nil {
		return nil, MapRepoError("create participant", err)
	}
	return participant, nil
}

// GetByID retrieves a participant.
func (s *ParticipantService) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, MapRepoErrorWithContext("get participant", err, fmt.Sprintf("participant %d", id))
	}
	return participant, nil
}

// ListByUser returns a user's participants ordered by speaker name.
func (s *ParticipantService) ListByUser(ctx context.Context, userID int) ([]models.Participant, error) {
	participants, err := s.participantRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list participants: %v", ErrDatabaseError, err)
	}
	return participants, nil
}

// Delete removes a participant unless it still speaks lines somewhere.
func (s *ParticipantService) Delete(ctx context.Context, id int) error {
	hasLines, err := s.participantRepo.HasLines(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: failed to check participant usage: %v", ErrDatabaseError, err)
	}
	if hasLines {
		return fmt.Errorf("%w: participant %d still has dialogue lines", apperrors.ErrDependencyExists, id)
	}

	return MapRepoErrorWithContext("delete participant", s.participantRepo.Delete(ctx, id), fmt.Sprintf("participant %d", id))
}
